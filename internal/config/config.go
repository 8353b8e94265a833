// Package config loads archimodel settings from TOML files and ARCHIMODEL_*
// environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Query     QueryConfig     `mapstructure:"query"`
	Versions  VersionsConfig  `mapstructure:"versions"`
	Models    ModelsConfig    `mapstructure:"models"`
	Log       LogConfig       `mapstructure:"log"`
	Metamodel MetamodelConfig `mapstructure:"metamodel"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig selects and tunes the MCP transport.
type ServerConfig struct {
	Transport   string  `mapstructure:"transport"` // stdio | http
	Port        int     `mapstructure:"port"`
	BearerToken string  `mapstructure:"bearer_token"`
	RateLimit   float64 `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst   int     `mapstructure:"rate_burst"`
}

// QueryConfig bounds graph query responses.
type QueryConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
	SliceLimit   int `mapstructure:"slice_limit"`
}

// VersionsConfig bounds list_versions.
type VersionsConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// ModelsConfig bounds list_models.
type ModelsConfig struct {
	MaxList int `mapstructure:"max_list"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// MetamodelConfig optionally replaces the embedded ArchiMate catalogue.
type MetamodelConfig struct {
	Catalog string `mapstructure:"catalog"`
}

// SetDefaults configures default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", defaultDatabasePath())

	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.bearer_token", "")
	v.SetDefault("server.rate_limit", 0.0)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("query.default_limit", 200)
	v.SetDefault("query.max_limit", 500)
	v.SetDefault("query.slice_limit", 2000)

	v.SetDefault("versions.default_limit", 100)
	v.SetDefault("versions.max_limit", 1000)

	v.SetDefault("models.max_list", 500)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("metamodel.catalog", "")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ARCHIMODEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configuration. An explicit path must exist; otherwise
// archimodel.toml is searched in the working directory and in
// $HOME/.config/archimodel, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := New()
	v.SetConfigType("toml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	} else {
		v.SetConfigName("archimodel")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "archimodel"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates configuration from v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return errors.Validationf("server.transport", "unknown transport %q (use stdio or http)", c.Server.Transport)
	}
	if c.Database.Path == "" {
		return errors.Required("database.path")
	}
	if c.Query.MaxLimit <= 0 {
		return errors.Validation("query.max_limit", "must be positive")
	}
	if c.Query.DefaultLimit <= 0 || c.Query.DefaultLimit > c.Query.MaxLimit {
		return errors.Validation("query.default_limit", "must be between 1 and query.max_limit")
	}
	if c.Versions.MaxLimit <= 0 || c.Versions.DefaultLimit <= 0 {
		return errors.Validation("versions", "limits must be positive")
	}
	if c.Server.RateLimit < 0 {
		return errors.Validation("server.rate_limit", "must not be negative")
	}
	return nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "archimodel.db"
	}
	return filepath.Join(home, ".archimodel", "models.db")
}
