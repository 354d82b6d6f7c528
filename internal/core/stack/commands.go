package stack

import (
	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
)

// =============================================================================
// Readiness Probes
// =============================================================================

// Credentials baked into the development database images.
const (
	dbUser     = "moodle"
	dbPassword = "m@0dl3ing"
	dbName     = "moodle"
)

// ReadinessProbe returns the command run inside the database service to test
// whether it accepts connections. Exit code 0 means ready.
func ReadinessProbe(engine bootstrap.Engine) []string {
	switch engine {
	case bootstrap.EnginePgsql:
		return []string{"pg_isready", "-h", "127.0.0.1", "-U", dbUser, "-d", dbName}
	case bootstrap.EngineMSSQL:
		return []string{"/opt/mssql-tools/bin/sqlcmd", "-S", "localhost", "-U", "sa", "-P", dbPassword, "-Q", "SELECT 1"}
	case bootstrap.EngineOracle:
		return []string{"sh", "-c", `echo "SELECT 1 FROM DUAL;" | sqlplus -S -L system/` + dbPassword + `@localhost/XE`}
	default:
		// mysql and mariadb share the client tooling
		return []string{"mysqladmin", "ping", "-h", "127.0.0.1", "-u", dbUser, "-p" + dbPassword, "--silent"}
	}
}

// =============================================================================
// Application Install
// =============================================================================

// Site details used by the local install. Development placeholders only.
const (
	SiteFullName  = "Docker moodle"
	SiteShortName = "docker_moodle"
	SiteSummary   = "Docker moodle site"
	AdminPassword = "test"
	AdminEmail    = "admin@example.com"
	installScript = "admin/cli/install_database.php"
)

// InstallCommand returns the application's database install routine.
func InstallCommand() []string {
	return []string{
		"php", installScript,
		"--agree-license",
		"--fullname=" + SiteFullName,
		"--shortname=" + SiteShortName,
		"--summary=" + SiteSummary,
		"--adminpass=" + AdminPassword,
		"--adminemail=" + AdminEmail,
	}
}
