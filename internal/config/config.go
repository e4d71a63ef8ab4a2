// Package config loads replychain settings from defaults, an optional config
// file, REPLYCHAIN_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/replychain/internal/chain"
	"github.com/roach88/replychain/internal/compiler"
	"github.com/roach88/replychain/internal/tid"
)

// EnvPrefix prefixes every environment variable, e.g. REPLYCHAIN_DATABASE.
const EnvPrefix = "REPLYCHAIN"

// Log encoders.
const (
	ConsoleLogEncoder = "console"
	JSONLogEncoder    = "json"
)

// Config holds every setting.
type Config struct {
	// Collection is the record type used when a thread does not name one.
	Collection string `mapstructure:"collection"`

	// Database is the SQLite file records and blobs are written to.
	Database string `mapstructure:"database"`

	// ClockID is embedded in every record key.
	ClockID uint16 `mapstructure:"clock-id"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Encoder string `mapstructure:"encoder"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Collection: chain.DefaultCollection,
		Database:   "replychain.db",
		ClockID:    0,
		Log: LogConfig{
			Level:   "warn",
			Encoder: ConsoleLogEncoder,
		},
	}
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	vip := viper.New()
	def := DefaultConfig()
	vip.SetDefault("collection", def.Collection)
	vip.SetDefault("database", def.Database)
	vip.SetDefault("clock-id", def.ClockID)
	vip.SetDefault("log.level", def.Log.Level)
	vip.SetDefault("log.encoder", def.Log.Encoder)

	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	vip.AutomaticEnv()
	return vip
}

// BindFlags binds command-line flags to config keys. Flags that were not set
// on the command line do not override lower layers.
func BindFlags(vip *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, flag := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			return fmt.Errorf("bind flag: no flag --%s", flag)
		}
		if err := vip.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", flag, err)
		}
	}
	return nil
}

// Load reads the config file (when file is not empty) and decodes every
// layer into a Config.
func Load(vip *viper.Viper, file string) (Config, error) {
	if file != "" {
		vip.SetConfigFile(file)
		if err := vip.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Database == "" {
		errs = append(errs, errors.New("database must not be empty"))
	}
	if c.ClockID > tid.MaxClockID {
		errs = append(errs, fmt.Errorf("clock-id %d exceeds %d", c.ClockID, tid.MaxClockID))
	}
	if c.Collection != "" {
		if err := compiler.ValidateCollection(c.Collection); err != nil {
			errs = append(errs, fmt.Errorf("collection: %w", err))
		}
	}
	switch c.Log.Encoder {
	case ConsoleLogEncoder, JSONLogEncoder:
	default:
		errs = append(errs, fmt.Errorf("log.encoder %q must be %q or %q", c.Log.Encoder, ConsoleLogEncoder, JSONLogEncoder))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
