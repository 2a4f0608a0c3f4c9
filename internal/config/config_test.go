package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	setupTestHome(t)

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http/protobuf", cfg.Telemetry.Protocol)
	assert.Equal(t, "localhost:4318", cfg.Telemetry.Endpoint)
	assert.Equal(t, "czar", cfg.Telemetry.ServiceName)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "empty data dir",
			mutate:  func(c *Config) { c.Data.Dir = "" },
			wantErr: "data directory is required",
		},
		{
			name:    "relative data dir",
			mutate:  func(c *Config) { c.Data.Dir = "data" },
			wantErr: "must be absolute",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "logfmt" },
			wantErr: "log format",
		},
		{
			name: "telemetry without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Endpoint = ""
			},
			wantErr: "endpoint required",
		},
		{
			name: "disabled telemetry ignores protocol",
			mutate: func(c *Config) {
				c.Telemetry.Protocol = "carrier-pigeon"
			},
		},
		{
			name: "grpc accepted",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Protocol = "grpc"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestHome(t)
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
