package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds settings that are not part of the per-run parameters.
type Config struct {
	Compose   ComposeConfig   `mapstructure:"compose"`
	Docker    DockerConfig    `mapstructure:"docker"`
	Readiness ReadinessConfig `mapstructure:"readiness"`
	Log       LogConfig       `mapstructure:"log"`

	// EnvFile is an optional dotenv file layered under the stack's
	// environment variables.
	EnvFile string `mapstructure:"env_file"`
}

// ComposeConfig locates the compose project.
type ComposeConfig struct {
	Dir        string `mapstructure:"dir"`
	Binary     string `mapstructure:"binary"`
	WebService string `mapstructure:"web_service"`
	DBService  string `mapstructure:"db_service"`
}

// DockerConfig holds Docker client configuration.
type DockerConfig struct {
	Host string `mapstructure:"host"`
}

// ReadinessConfig bounds the wait for the database.
type ReadinessConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("compose.dir", ".")
	v.SetDefault("compose.binary", "docker")
	v.SetDefault("compose.web_service", "webserver")
	v.SetDefault("compose.db_service", "db")
	v.SetDefault("docker.host", "")
	v.SetDefault("readiness.timeout", "5m")
	v.SetDefault("readiness.interval", "2s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("env_file", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only a malformed file is an error; a missing one falls back to defaults.
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("MOODLE_BOOTSTRAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Readiness.Timeout < 0 {
		return nil, fmt.Errorf("readiness.timeout must not be negative, got %s", cfg.Readiness.Timeout)
	}

	return &cfg, nil
}

// LoadEnvFile reads extra stack variables from path. An empty path yields
// no variables.
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return env, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger creates a logger writing to w with the configured level and
// format. Text output is styled unless plain is set.
func SetupLogger(cfg *Config, w io.Writer, plain bool) *slog.Logger {
	level := ParseLevel(cfg.Log.Level)
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch {
	case strings.ToLower(cfg.Log.Format) == "json":
		handler = slog.NewJSONHandler(w, opts)
	case plain:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		})
	}

	return slog.New(handler)
}
