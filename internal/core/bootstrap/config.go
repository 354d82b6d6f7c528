package bootstrap

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// =============================================================================
// Defaults and Limits
// =============================================================================

const (
	// DefaultProjectPrefix is used when no project name is given.
	DefaultProjectPrefix = "docker-moodle"

	// MinPort is the exclusive lower bound for every port parameter.
	MinPort = 1000
	// MaxPort is the inclusive upper bound for every port parameter.
	MaxPort = 65535
)

// =============================================================================
// Database Engines
// =============================================================================

// Engine identifies a supported database engine.
type Engine string

const (
	EnginePgsql   Engine = "pgsql"
	EngineMariaDB Engine = "mariadb"
	EngineMSSQL   Engine = "mssql"
	EngineMySQL   Engine = "mysql"
	EngineOracle  Engine = "oracle"
)

// DefaultEngine is used when no engine is given.
const DefaultEngine = EngineMySQL

// Engines lists the supported engines in display order.
var Engines = []Engine{EnginePgsql, EngineMariaDB, EngineMSSQL, EngineMySQL, EngineOracle}

// ParseEngine normalizes and checks an engine identifier.
// An empty identifier yields DefaultEngine.
func ParseEngine(raw string) (Engine, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return DefaultEngine, true
	}
	for _, e := range Engines {
		if Engine(name) == e {
			return e, true
		}
	}
	return "", false
}

// =============================================================================
// Config Types
// =============================================================================

// RawParams holds parameter values exactly as the user supplied them.
type RawParams struct {
	WebPort  string
	CodePath string
	DBEngine string
	DBPort   string
	Project  string
	VNCPort  string
	Install  bool

	// BaseDir resolves a relative CodePath. Usually the working directory.
	BaseDir string
}

// BootstrapConfig is the validated configuration for one run.
// It is created once by Validate and never mutated.
type BootstrapConfig struct {
	WebPort       int
	CodePath      string
	DBEngine      Engine
	DBPort        *int
	ProjectPrefix string
	VNCPort       *int
	RunInstall    bool
}

// HasDBPort reports whether the database port is published.
func (c BootstrapConfig) HasDBPort() bool {
	return c.DBPort != nil
}

// HasVNCPort reports whether the selenium VNC port is published.
func (c BootstrapConfig) HasVNCPort() bool {
	return c.VNCPort != nil
}

// WebURL returns the address the webserver is published on.
func (c BootstrapConfig) WebURL() string {
	return fmt.Sprintf("http://localhost:%d", c.WebPort)
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks raw parameters and produces a BootstrapConfig.
// The first failing field is reported as a *ValidationError.
func Validate(raw RawParams) (BootstrapConfig, error) {
	var cfg BootstrapConfig

	webPort, err := parsePort("webPort", raw.WebPort)
	if err != nil {
		return BootstrapConfig{}, err
	}
	if webPort == nil {
		return BootstrapConfig{}, NewValidationError("webPort", ReasonMissing, "")
	}
	cfg.WebPort = *webPort

	codePath := strings.TrimSpace(raw.CodePath)
	if codePath == "" {
		return BootstrapConfig{}, NewValidationError("codePath", ReasonMissing, "")
	}
	if !filepath.IsAbs(codePath) && raw.BaseDir != "" {
		codePath = filepath.Join(raw.BaseDir, codePath)
	}
	cfg.CodePath = filepath.Clean(codePath)

	engine, ok := ParseEngine(raw.DBEngine)
	if !ok {
		return BootstrapConfig{}, NewValidationError("dbEngine", ReasonUnsupported, raw.DBEngine)
	}
	cfg.DBEngine = engine

	if cfg.DBPort, err = parsePort("dbPort", raw.DBPort); err != nil {
		return BootstrapConfig{}, err
	}
	if cfg.VNCPort, err = parsePort("vncPort", raw.VNCPort); err != nil {
		return BootstrapConfig{}, err
	}

	cfg.ProjectPrefix = raw.Project
	if cfg.ProjectPrefix == "" {
		cfg.ProjectPrefix = DefaultProjectPrefix
	}
	if strings.IndexFunc(cfg.ProjectPrefix, unicode.IsSpace) >= 0 {
		return BootstrapConfig{}, NewValidationError("projectPrefix", ReasonWhitespace, raw.Project)
	}

	cfg.RunInstall = raw.Install

	return cfg, nil
}

// parsePort returns nil for an absent value.
func parsePort(field, raw string) (*int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	port, err := strconv.Atoi(value)
	if err != nil {
		return nil, NewValidationError(field, ReasonNotNumeric, raw)
	}
	if port <= MinPort || port > MaxPort {
		return nil, NewValidationError(field, ReasonOutOfRange, raw)
	}
	return &port, nil
}
