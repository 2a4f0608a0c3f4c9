// Package config provides configuration loading for czar.
//
// Configuration is assembled from defaults, an optional YAML file and
// CZAR_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// EnvPrefix is the prefix of every czar environment variable.
	EnvPrefix = "CZAR_"

	// DefaultDataDirName is the data root under the user's home directory.
	DefaultDataDirName = ".project-czar"
)

// Config holds the complete czar configuration.
type Config struct {
	Data      DataConfig      `koanf:"data"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// DataConfig locates the persisted documents.
type DataConfig struct {
	Dir string `koanf:"dir"` // Data root (default: ~/.project-czar)
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error (default: warn)
	Format string `koanf:"format"` // console or json (default: console)
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled"`
	Endpoint        string   `koanf:"endpoint"`
	Protocol        string   `koanf:"protocol"` // http/protobuf or grpc
	Insecure        bool     `koanf:"insecure"`
	ServiceName     string   `koanf:"service_name"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
//
// Returns an error if:
//   - The data directory is empty or relative
//   - Log format is not console or json
//   - Telemetry is enabled without an endpoint or with an unknown protocol
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return errors.New("data directory is required")
	}
	if !filepath.IsAbs(c.Data.Dir) {
		return fmt.Errorf("data directory must be absolute: %s", c.Data.Dir)
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got %q", c.Log.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry endpoint required when telemetry is enabled")
		}
		if c.Telemetry.Protocol != "http/protobuf" && c.Telemetry.Protocol != "grpc" {
			return fmt.Errorf("telemetry protocol must be 'http/protobuf' or 'grpc', got %q", c.Telemetry.Protocol)
		}
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Data.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Data.Dir = filepath.Join(home, DefaultDataDirName)
		}
	}
	cfg.Data.Dir = ExpandHome(cfg.Data.Dir)

	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4318"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "http/protobuf"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "czar"
	}
	if cfg.Telemetry.ShutdownTimeout == 0 {
		cfg.Telemetry.ShutdownTimeout = Duration(2 * time.Second)
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
