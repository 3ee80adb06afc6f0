// Package simconfig loads the configuration of the dyncachesim command.
//
// Values come, from lowest to highest priority, from the built-in defaults,
// a YAML file, DYNCACHE_* environment variables and command-line flags.
package simconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/sarchlab/dyncache/datarecording"
	"github.com/sarchlab/dyncache/platform"
)

// EnvPrefix is the prefix of the environment variables that override the
// configuration. Dots and dashes in keys become underscores, so
// agent.num-reads is read from DYNCACHE_AGENT_NUM_READS.
const EnvPrefix = "DYNCACHE"

// Config is the full configuration of a run.
type Config struct {
	platform.Config `mapstructure:",squash"`

	Debug       bool                 `mapstructure:"debug"`
	Verbosity   int                  `mapstructure:"verbosity" validate:"gte=0,lte=3"`
	MetricsFile string               `mapstructure:"metrics-file"`
	Record      bool                 `mapstructure:"record"`
	Recording   datarecording.Config `mapstructure:"recording"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Config: platform.DefaultConfig(),
		Recording: datarecording.Config{
			Backend: datarecording.BackendSQLite,
		},
	}
}

// NewViper returns a viper instance that knows every key and reads the
// environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v, "", reflect.ValueOf(Default()))

	return v
}

// setDefaults registers every leaf of a config struct, so that environment
// variables apply to keys that are in neither the file nor the flags.
func setDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, opts, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")

		if field.Anonymous && opts == "squash" {
			setDefaults(v, prefix, val.Field(i))
			continue
		}

		if name == "" || name == "-" {
			continue
		}

		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		if field.Type.Kind() == reflect.Struct {
			setDefaults(v, key, val.Field(i))
			continue
		}

		v.SetDefault(key, val.Field(i).Interface())
	}
}

// Load reads the file at path, if path is not empty, and returns the
// validated configuration.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := Validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the field constraints and that the phases are ordered.
func Validate(c Config) error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q",
					e.Namespace(), e.Tag()))
			}

			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}

		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := c.Selector(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}
