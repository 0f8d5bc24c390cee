// Package config loads decstore settings with viper.
//
// Precedence, lowest first: built-in defaults, an optional config file
// (YAML, TOML or JSON), DECSTORE_* environment variables, then explicit
// overrides (usually command-line flags). Nested keys map to environment
// variables with dots replaced by underscores: codec.exponent_digits is
// DECSTORE_CODEC_EXPONENT_DIGITS.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/decstore/internal/codec"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "DECSTORE"

// Keys understood by Load.
const (
	KeyDB             = "db"
	KeyExponentDigits = "codec.exponent_digits"
	KeyMaxDigits      = "codec.max_digits"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
)

// Config is the complete decstore configuration.
type Config struct {
	// DB is the path of the SQLite database file.
	DB    string       `mapstructure:"db"`
	Codec codec.Config `mapstructure:"codec"`
	Log   LogConfig    `mapstructure:"log"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`

	// Format is text or json.
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:    "decstore.db",
		Codec: codec.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Options controls where Load looks for settings.
type Options struct {
	// File is an optional config file. Empty means no file.
	File string

	// Overrides are applied last, keyed like KeyDB.
	Overrides map[string]any
}

// Load resolves the configuration and validates it.
func Load(opts Options) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault(KeyDB, def.DB)
	v.SetDefault(KeyExponentDigits, def.Codec.ExponentDigits)
	v.SetDefault(KeyMaxDigits, def.Codec.MaxDigits)
	v.SetDefault(KeyLogLevel, def.Log.Level)
	v.SetDefault(KeyLogFormat, def.Log.Format)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("config: db must not be empty")
	}
	if err := c.Codec.Validate(); err != nil {
		return fmt.Errorf("config: codec: %w", err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log: unknown format %q (want text or json)", c.Log.Format)
	}
	return nil
}
