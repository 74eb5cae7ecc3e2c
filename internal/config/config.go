// Package config loads the satchel command configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/satchel/internal/decode"
	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/persistence/middleware"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const masked = "********"

// EnvPrefix prefixes every environment override, e.g. SATCHEL_DRIVER_DSN.
const EnvPrefix = "SATCHEL"

// Config is the effective command configuration.
type Config struct {
	// Driver is handed as-is to driver.New.
	Driver map[string]any `mapstructure:"driver" yaml:"driver"`
	// Session overrides the default session options.
	Session map[string]any `mapstructure:"session" yaml:"session,omitempty"`
	// Cookie overrides the default cookie parameters.
	Cookie map[string]any `mapstructure:"cookie" yaml:"cookie,omitempty"`

	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	// DriverCalls logs every storage driver call at debug level.
	DriverCalls bool `mapstructure:"driver_calls" yaml:"driver_calls"`
}

// ServerConfig controls the serve command.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	Metrics         bool          `mapstructure:"metrics" yaml:"metrics"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// driverEnvKeys are the driver settings that can be overridden from the environment.
var driverEnvKeys = []string{
	domain.KeyPath, domain.KeyPrefix, domain.KeyDSN, domain.KeyUsername, domain.KeyPassword,
	domain.KeyHost, domain.KeyPort, "dialect", "table", "db", "timeout", "ttl",
}

// Load reads configuration from file, environment and defaults, in that order of precedence
// (environment first).
//
// With an empty path, satchel.{yaml,json,toml} is searched for in the working
// directory and the user config directory; not finding one is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range driverEnvKeys {
		_ = v.BindEnv("driver." + key)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("satchel")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "satchel"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("driver.driver", domain.DriverFile.String())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.driver_calls", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics", true)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// Validate checks the fields the commands rely on.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if raw, ok := decode.Get(c.Driver, domain.KeyDriver); ok {
		name, isString := raw.(string)
		if !isString {
			return domain.NewConfigError("config", "driver.driver", fmt.Sprintf("expected a string, got %T", raw))
		}
		if _, err := domain.ParseDriverKind(name); err != nil {
			return err
		}
	}
	if c.Server.ShutdownTimeout <= 0 {
		return domain.NewConfigError("config", "server.shutdown_timeout", "must be positive")
	}
	return nil
}

// Middlewares returns the driver middlewares the configuration enables.
func (c *Config) Middlewares(logger *slog.Logger) []middleware.Middleware {
	var mws []middleware.Middleware
	if c.Log.DriverCalls {
		mws = append(mws, middleware.NewLoggingMiddleware(logger, slog.LevelDebug))
	}
	return mws
}

// YAML renders the configuration with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	out := *c
	out.Driver = maps.Clone(c.Driver)
	if v, ok := out.Driver[domain.KeyPassword]; ok && v != "" {
		out.Driver[domain.KeyPassword] = masked
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
