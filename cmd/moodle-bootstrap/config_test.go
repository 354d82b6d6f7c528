package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Compose.Dir)
	assert.Equal(t, "docker", cfg.Compose.Binary)
	assert.Equal(t, "webserver", cfg.Compose.WebService)
	assert.Equal(t, "db", cfg.Compose.DBService)
	assert.Equal(t, "", cfg.Docker.Host)
	assert.Equal(t, 5*time.Minute, cfg.Readiness.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Readiness.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "", cfg.EnvFile)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
compose:
  dir: "/opt/moodle-docker"
  web_service: "web"
readiness:
  timeout: 90s
  interval: 500ms
log:
  level: "debug"
  format: "json"
env_file: "/opt/moodle-docker/.env"
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "/opt/moodle-docker", cfg.Compose.Dir)
	assert.Equal(t, "web", cfg.Compose.WebService)
	assert.Equal(t, "db", cfg.Compose.DBService)
	assert.Equal(t, 90*time.Second, cfg.Readiness.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Readiness.Interval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/opt/moodle-docker/.env", cfg.EnvFile)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("MOODLE_BOOTSTRAP_COMPOSE_DIR", "/srv/stack")
	t.Setenv("MOODLE_BOOTSTRAP_DOCKER_HOST", "tcp://127.0.0.1:2375")
	t.Setenv("MOODLE_BOOTSTRAP_READINESS_TIMEOUT", "0s")
	t.Setenv("MOODLE_BOOTSTRAP_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/srv/stack", cfg.Compose.Dir)
	assert.Equal(t, "tcp://127.0.0.1:2375", cfg.Docker.Host)
	assert.Equal(t, time.Duration(0), cfg.Readiness.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_NegativeTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOODLE_BOOTSTRAP_READINESS_TIMEOUT", "-1s")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Compose.Dir)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

// =============================================================================
// Env File Tests
// =============================================================================

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "MOODLE_DOCKER_PHP_VERSION=8.2\n# comment\nMOODLE_DOCKER_BROWSER=firefox\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	env, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"MOODLE_DOCKER_PHP_VERSION": "8.2",
		"MOODLE_DOCKER_BROWSER":     "firefox",
	}, env)
}

func TestLoadEnvFile_Empty(t *testing.T) {
	env, err := LoadEnvFile("")
	require.NoError(t, err)
	assert.Nil(t, env)
}

func TestLoadEnvFile_Missing(t *testing.T) {
	_, err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.name))
		})
	}
}

func TestSetupLogger_JSONFormat(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "info", Format: "json"}}
	var buf bytes.Buffer

	logger := SetupLogger(cfg, &buf, false)
	logger.Info("bootstrap started", "run_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bootstrap started", entry["msg"])
	assert.Equal(t, "abc", entry["run_id"])
}

func TestSetupLogger_PlainText(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "warn", Format: "text"}}
	var buf bytes.Buffer

	logger := SetupLogger(cfg, &buf, true)
	logger.Info("hidden")
	logger.Warn("shown", "state", "Starting")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "state=Starting")
}

func TestSetupLogger_StyledText(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "debug", Format: "text"}}
	var buf bytes.Buffer

	logger := SetupLogger(cfg, &buf, false)
	require.NotNil(t, logger)
	logger.Debug("probing database")

	assert.Contains(t, buf.String(), "probing database")
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"MOODLE_BOOTSTRAP_COMPOSE_DIR",
		"MOODLE_BOOTSTRAP_COMPOSE_BINARY",
		"MOODLE_BOOTSTRAP_COMPOSE_WEB_SERVICE",
		"MOODLE_BOOTSTRAP_COMPOSE_DB_SERVICE",
		"MOODLE_BOOTSTRAP_DOCKER_HOST",
		"MOODLE_BOOTSTRAP_READINESS_TIMEOUT",
		"MOODLE_BOOTSTRAP_READINESS_INTERVAL",
		"MOODLE_BOOTSTRAP_LOG_LEVEL",
		"MOODLE_BOOTSTRAP_LOG_FORMAT",
		"MOODLE_BOOTSTRAP_ENV_FILE",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
