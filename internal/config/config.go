package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string         `mapstructure:"env"`
	Database DatabaseConfig `mapstructure:"database"`
	Schema   SchemaConfig   `mapstructure:"schema"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type SchemaConfig struct {
	// EnrolledDefault is "schema" (one timestamp for the whole run) or
	// "insert" (timestamp taken on every insert).
	EnrolledDefault string `mapstructure:"enrolled_default"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// EnvPrefix scopes environment overrides, e.g. SANDBOX_DATABASE_DSN.
const EnvPrefix = "SANDBOX"

// Load reads config.<env>.yaml when present and applies environment overrides.
// An empty env falls back to $ENV and then to "local".
func Load(env string, paths ...string) (*Config, error) {
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = "local"
	}

	v := viper.New()
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"/configs", "./configs", "../configs", "../../configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("env", env)
	v.SetDefault("database.dsn", ":memory:")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("schema.enrolled_default", "schema")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.Schema.EnrolledDefault {
	case "schema", "insert":
	default:
		return fmt.Errorf("invalid schema.enrolled_default %q: must be schema or insert", c.Schema.EnrolledDefault)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn must not be empty")
	}
	// Every new connection to an in-memory DSN opens its own empty database.
	if IsInMemory(c.Database.DSN) && c.Database.MaxOpenConns != 1 {
		return fmt.Errorf("database.max_open_conns must be 1 for in-memory dsn %q, got %d", c.Database.DSN, c.Database.MaxOpenConns)
	}
	return nil
}

// IsInMemory reports whether dsn names a SQLite in-memory database.
func IsInMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}
