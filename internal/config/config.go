// Package config resolves runtime settings from flags, DENTCHECK_*
// environment variables, an optional YAML file and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/HendryAvila/dentcheck/internal/engine"
	"github.com/HendryAvila/dentcheck/internal/store"
)

// EnvPrefix is prepended to every environment variable the config reads.
const EnvPrefix = "DENTCHECK"

// Config keys.
const (
	KeyDataDir               = "data_dir"
	KeyDBFile                = "db_file"
	KeyLogLevel              = "log_level"
	KeyLogFormat             = "log_format"
	KeyMetricsAddr           = "metrics_addr"
	KeyDefaultAircraftFamily = "default_aircraft_family"
	KeyCompareTolerance      = "compare_tolerance"
)

var validate = validator.New()

// Config is the resolved runtime configuration.
type Config struct {
	DataDir               string  `mapstructure:"data_dir" validate:"required"`
	DBFile                string  `mapstructure:"db_file" validate:"required"`
	LogLevel              string  `mapstructure:"log_level" validate:"oneof=trace debug info warn error disabled"`
	LogFormat             string  `mapstructure:"log_format" validate:"oneof=json console"`
	MetricsAddr           string  `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	DefaultAircraftFamily string  `mapstructure:"default_aircraft_family"`
	CompareTolerance      float64 `mapstructure:"compare_tolerance" validate:"gte=0,lte=0.001"`
}

// New returns a viper instance with defaults and environment binding set.
// Callers may bind flags and set a config file before calling Load.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	def := store.DefaultConfig()
	v.SetDefault(KeyDataDir, def.DataDir)
	v.SetDefault(KeyDBFile, def.DBFile)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyMetricsAddr, "")
	v.SetDefault(KeyDefaultAircraftFamily, "")
	v.SetDefault(KeyCompareTolerance, engine.DefaultTolerance)
}

// Load reads the config file when one was set, then decodes and validates
// the merged settings.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.DBFile = strings.TrimSpace(cfg.DBFile)
	cfg.DataDir = expandHome(cfg.DataDir)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Store returns the rule store settings.
func (c *Config) Store() store.Config {
	return store.Config{DataDir: c.DataDir, DBFile: c.DBFile}
}

// Engine returns the engine options.
func (c *Config) Engine() engine.Options {
	return engine.Options{Tolerance: c.CompareTolerance}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
