package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// setupTestHome points HOME at a temporary directory and clears CZAR_ variables.
func setupTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"CZAR_DATA_DIR", "CZAR_LOG_LEVEL", "CZAR_LOG_FORMAT",
		"CZAR_TELEMETRY_ENABLED", "CZAR_TELEMETRY_ENDPOINT", "CZAR_TELEMETRY_PROTOCOL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func writeConfig(t *testing.T, dir, content string, perm os.FileMode) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("Failed to chmod test config: %v", err)
	}
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	home := setupTestHome(t)

	cfg, err := LoadWithFile("")
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if want := filepath.Join(home, ".project-czar"); cfg.Data.Dir != want {
		t.Errorf("Data.Dir = %q, want %q", cfg.Data.Dir, want)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("Log.Format = %q, want console", cfg.Log.Format)
	}
	if cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = true, want false (disabled by default)")
	}
	if !cfg.Telemetry.Insecure {
		t.Error("Telemetry.Insecure = false, want true by default")
	}
	if cfg.Telemetry.ShutdownTimeout.Duration() != 2*time.Second {
		t.Errorf("Telemetry.ShutdownTimeout = %v, want 2s", cfg.Telemetry.ShutdownTimeout.Duration())
	}
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	home := setupTestHome(t)

	yamlContent := `data:
  dir: ~/tracking
log:
  level: debug
  format: json
telemetry:
  enabled: true
  endpoint: localhost:4317
  protocol: grpc
  shutdown_timeout: 5s
`
	path := writeConfig(t, filepath.Join(home, ".config", "czar"), yamlContent, 0600)

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if want := filepath.Join(home, "tracking"); cfg.Data.Dir != want {
		t.Errorf("Data.Dir = %q, want %q", cfg.Data.Dir, want)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = false, want true")
	}
	if cfg.Telemetry.Protocol != "grpc" {
		t.Errorf("Telemetry.Protocol = %q, want grpc", cfg.Telemetry.Protocol)
	}
	if cfg.Telemetry.ShutdownTimeout.Duration() != 5*time.Second {
		t.Errorf("Telemetry.ShutdownTimeout = %v, want 5s", cfg.Telemetry.ShutdownTimeout.Duration())
	}
}

func TestLoadWithFile_DefaultPathUsed(t *testing.T) {
	home := setupTestHome(t)
	writeConfig(t, filepath.Join(home, ".config", "czar"), "log:\n  level: error\n", 0600)

	cfg, err := LoadWithFile("")
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error from default config file", cfg.Log.Level)
	}
}

func TestLoadWithFile_EnvOverridesFile(t *testing.T) {
	home := setupTestHome(t)
	path := writeConfig(t, filepath.Join(home, ".config", "czar"), "data:\n  dir: /from/file\nlog:\n  level: info\n", 0600)

	t.Setenv("CZAR_DATA_DIR", "/from/env")
	t.Setenv("CZAR_LOG_LEVEL", "trace")

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v", err)
	}
	if cfg.Data.Dir != "/from/env" {
		t.Errorf("Data.Dir = %q, want /from/env", cfg.Data.Dir)
	}
	if cfg.Log.Level != "trace" {
		t.Errorf("Log.Level = %q, want trace", cfg.Log.Level)
	}
}

func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	home := setupTestHome(t)
	path := writeConfig(t, filepath.Join(home, ".config", "czar"), "log:\n  level: info\n", 0666)

	if _, err := LoadWithFile(path); err == nil {
		t.Error("LoadWithFile() should reject world-writable config")
	}
}

func TestLoadWithFile_TooLarge(t *testing.T) {
	home := setupTestHome(t)
	big := make([]byte, maxConfigFileSize+10)
	for i := range big {
		big[i] = '#'
	}
	path := writeConfig(t, filepath.Join(home, ".config", "czar"), string(big), 0600)

	if _, err := LoadWithFile(path); err == nil {
		t.Error("LoadWithFile() should reject oversized config")
	}
}

func TestLoadWithFile_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad log format", "log:\n  format: xml\n"},
		{"relative data dir", "data:\n  dir: relative/path\n"},
		{"bad telemetry protocol", "telemetry:\n  enabled: true\n  protocol: udp\n"},
		{"negative duration", "telemetry:\n  shutdown_timeout: -1s\n"},
		{"malformed yaml", "log: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := setupTestHome(t)
			path := writeConfig(t, filepath.Join(home, ".config", "czar"), tt.content, 0600)

			if _, err := LoadWithFile(path); err == nil {
				t.Errorf("LoadWithFile() error = nil, want error for %s", tt.name)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"CZAR_DATA_DIR":               "data.dir",
		"CZAR_LOG_LEVEL":              "log.level",
		"CZAR_TELEMETRY_SERVICE_NAME": "telemetry.service_name",
		"CZAR_DEBUG":                  "debug",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home := setupTestHome(t)

	tests := map[string]string{
		"~":          home,
		"~/data":     filepath.Join(home, "data"),
		"/abs/path":  "/abs/path",
		"~user/data": "~user/data",
	}
	for in, want := range tests {
		if got := ExpandHome(in); got != want {
			t.Errorf("ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}
