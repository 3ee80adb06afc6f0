package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

// ClickHouseConfig tells where the ClickHouse server is.
type ClickHouseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,gt=0,lt=65536"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Addr returns host:port, using the native protocol port by default.
func (c ClickHouseConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}

	port := c.Port
	if port == 0 {
		port = 9000
	}

	return fmt.Sprintf("%s:%d", host, port)
}

// clickHouseRecorder writes records into ClickHouse with batched inserts.
type clickHouseRecorder struct {
	conn       clickhouse.Conn
	mu         sync.Mutex
	batchSize  int
	tables     map[string]*table
	entryCount int
	closed     bool
}

// NewClickHouseRecorder connects to a ClickHouse server.
func NewClickHouseRecorder(
	c ClickHouseConfig,
	batchSize int,
) (DataRecorder, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{c.Addr()},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      30 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("pinging ClickHouse at %s: %w", c.Addr(), err)
	}

	r := &clickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	return r, nil
}

// clickHouseType maps a Go kind to a ClickHouse column type.
func clickHouseType(kind reflect.Kind) (string, error) {
	switch kind {
	case reflect.Bool:
		return "Bool", nil
	case reflect.Int8:
		return "Int8", nil
	case reflect.Int16:
		return "Int16", nil
	case reflect.Int32:
		return "Int32", nil
	case reflect.Int, reflect.Int64:
		return "Int64", nil
	case reflect.Uint8:
		return "UInt8", nil
	case reflect.Uint16:
		return "UInt16", nil
	case reflect.Uint32:
		return "UInt32", nil
	case reflect.Uint, reflect.Uint64:
		return "UInt64", nil
	case reflect.Float32:
		return "Float32", nil
	case reflect.Float64:
		return "Float64", nil
	case reflect.String:
		return "String", nil
	default:
		return "", fmt.Errorf("kind %s has no ClickHouse column type", kind)
	}
}

func createTableSQL(tableName string, sampleEntry any) (string, error) {
	if err := checkStructFields(sampleEntry); err != nil {
		return "", err
	}

	t := reflect.TypeOf(sampleEntry)
	columns := make([]string, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		colType, err := clickHouseType(f.Type.Kind())
		if err != nil {
			return "", err
		}

		columns = append(columns, quoteIdent(f.Name)+" "+colType)
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree() ORDER BY tuple()",
		quoteIdent(tableName), strings.Join(columns, ",\n\t")), nil
}

func (r *clickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	query, err := createTableSQL(tableName, sampleEntry)
	if err != nil {
		panic(err)
	}

	if err := r.conn.Exec(context.Background(), query); err != nil {
		panic(fmt.Errorf("creating table %s: %w", tableName, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
}

func (r *clickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()
	t := mustHaveTable(r.tables, tableName, entry)
	t.entries = append(t.entries, entry)
	r.entryCount++
	full := r.entryCount >= r.batchSize
	r.mu.Unlock()

	if full {
		r.Flush()
	}
}

func (r *clickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return listTables(r.tables)
}

func (r *clickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 || r.closed {
		return
	}

	ctx := context.Background()

	for tableName, t := range r.tables {
		if len(t.entries) == 0 {
			continue
		}

		if err := r.flushTable(ctx, tableName, t); err != nil {
			panic(err)
		}
	}

	r.entryCount = 0
}

func (r *clickHouseRecorder) flushTable(
	ctx context.Context,
	tableName string,
	t *table,
) error {
	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+quoteIdent(tableName))
	if err != nil {
		return fmt.Errorf("preparing batch for %s: %w", tableName, err)
	}

	for _, entry := range t.entries {
		if err := batch.Append(fieldValues(entry)...); err != nil {
			return fmt.Errorf("appending to %s: %w", tableName, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending batch for %s: %w", tableName, err)
	}

	t.entries = nil

	return nil
}

func (r *clickHouseRecorder) Close() error {
	r.Flush()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	return r.conn.Close()
}
