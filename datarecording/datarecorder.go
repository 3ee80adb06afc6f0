// Package datarecording stores simulation records in a database.
//
// A record is a flat struct. Each struct type maps to a table whose columns
// are the struct fields. Records are buffered and written in batches.
package datarecording

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a table whose columns follow the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all the tables created.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and releases the database.
	Close() error
}

// Supported backends.
const (
	BackendSQLite     = "sqlite"
	BackendClickHouse = "clickhouse"
)

// ErrUnknownBackend is returned for a backend that is neither SQLite nor
// ClickHouse.
var ErrUnknownBackend = errors.New("unknown data recording backend")

// Config selects and configures a backend.
type Config struct {
	Backend    string           `mapstructure:"backend" validate:"omitempty,oneof=sqlite clickhouse"`
	Path       string           `mapstructure:"path"`
	BatchSize  int              `mapstructure:"batch_size" validate:"gte=0"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
}

// NewDataRecorderWithConfig creates the recorder that the config selects.
// An empty backend means SQLite.
func NewDataRecorderWithConfig(c Config) (DataRecorder, error) {
	switch c.Backend {
	case "", BackendSQLite:
		w, err := openSQLiteWriter(c.Path, c.BatchSize)
		if err != nil {
			return nil, err
		}

		return w, nil
	case BackendClickHouse:
		return NewClickHouseRecorder(c.ClickHouse, c.BatchSize)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}

type table struct {
	structType reflect.Type
	entries    []any
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("entry of type %v is not a struct", t)
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !isAllowedKind(field.Type.Kind()) {
			return fmt.Errorf("field %s of kind %s cannot be recorded",
				field.Name, field.Type.Kind())
		}
	}

	return nil
}

func fieldValues(entry any) []any {
	v := reflect.ValueOf(entry)
	values := make([]any, 0, v.NumField())

	for i := 0; i < v.NumField(); i++ {
		values = append(values, v.Field(i).Interface())
	}

	return values
}

func listTables(tables map[string]*table) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}

	return names
}

func mustHaveTable(tables map[string]*table, name string, entry any) *table {
	t, ok := tables[name]
	if !ok {
		panic(fmt.Sprintf("table %s does not exist", name))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("inserting %T into table %s of %s",
			entry, name, t.structType))
	}

	return t
}

// quoteIdent quotes a table or column name so that names such as From or
// Order are not read as SQL keywords. Both SQLite and ClickHouse accept
// double-quoted identifiers.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}

	return quoted
}

func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
