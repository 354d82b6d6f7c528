package stack

import (
	"fmt"

	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
)

// =============================================================================
// Compose File Selection
// =============================================================================

// Compose file names, relative to the compose directory.
const (
	BaseFile     = "base.yml"
	VNCFile      = "selenium.vnc.yml"
	LocalFile    = "local.yml"
	engineFormat = "db.%s.yml"
	portFormat   = "db.%s.port.yml"
)

// Default service names.
const (
	DefaultWebService = "webserver"
	DefaultDBService  = "db"
)

// EngineFile returns the compose overlay defining the database service.
func EngineFile(engine bootstrap.Engine) string {
	return fmt.Sprintf(engineFormat, engine)
}

// EnginePortFile returns the compose overlay publishing the database port.
func EnginePortFile(engine bootstrap.Engine) string {
	return fmt.Sprintf(portFormat, engine)
}

// ComposeFiles returns the ordered compose files for cfg.
// Later files override earlier ones; local.yml is appended last when present.
//
// Example:
//
//	ComposeFiles(cfg{DBEngine: "pgsql", DBPort: 5433}, false)
//	// ["base.yml", "db.pgsql.yml", "db.pgsql.port.yml"]
func ComposeFiles(cfg bootstrap.BootstrapConfig, hasLocal bool) []string {
	files := []string{BaseFile, EngineFile(cfg.DBEngine)}
	if cfg.HasDBPort() {
		files = append(files, EnginePortFile(cfg.DBEngine))
	}
	if cfg.HasVNCPort() {
		files = append(files, VNCFile)
	}
	if hasLocal {
		files = append(files, LocalFile)
	}
	return files
}
