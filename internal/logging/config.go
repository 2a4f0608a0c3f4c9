// internal/logging/config.go
package logging

import (
	"fmt"
	"io"

	"github.com/fyrsmithlabs/czar/internal/config"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level      zapcore.Level
	Format     string
	Output     OutputConfig
	Caller     CallerConfig
	Stacktrace StacktraceConfig
	Fields     map[string]string
}

// OutputConfig controls where logs are written.
type OutputConfig struct {
	Stderr bool
	OTEL   bool

	// Writer replaces os.Stderr when set.
	Writer io.Writer
}

// CallerConfig controls caller information in logs.
type CallerConfig struct {
	Enabled bool
	Skip    int
}

// StacktraceConfig controls stacktrace inclusion.
type StacktraceConfig struct {
	Level zapcore.Level
}

// NewDefaultConfig returns config suited to an interactive terminal:
// console output on stderr, warnings and above.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.WarnLevel,
		Format: "console",
		Output: OutputConfig{
			Stderr: true,
		},
		Caller: CallerConfig{
			Enabled: false,
			Skip:    1,
		},
		Stacktrace: StacktraceConfig{
			Level: zapcore.FatalLevel,
		},
		Fields: map[string]string{
			"service": "czar",
		},
	}
}

// FromAppConfig builds a logging config from the application settings.
// OTEL output follows whether telemetry export is enabled.
func FromAppConfig(lc config.LogConfig, otelEnabled bool) (*Config, error) {
	cfg := NewDefaultConfig()

	if lc.Level != "" {
		level, err := LevelFromString(lc.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
		}
		cfg.Level = level
	}
	if lc.Format != "" {
		cfg.Format = lc.Format
	}
	cfg.Output.OTEL = otelEnabled

	// Debugging sessions want to know where a line came from.
	if cfg.Level <= zapcore.DebugLevel {
		cfg.Caller.Enabled = true
	}

	return cfg, cfg.Validate()
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if !c.Output.Stderr && !c.Output.OTEL {
		return fmt.Errorf("at least one output must be enabled (stderr or otel)")
	}
	if c.Caller.Enabled && c.Caller.Skip < 0 {
		return fmt.Errorf("caller skip must be >= 0, got %d", c.Caller.Skip)
	}

	for k, v := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}

	return nil
}
