// Package debugext describes the Xdebug extension the webserver is expected to
// carry and the commands that install and enable it.
//
// The configuration does not depend on BootstrapConfig.
package debugext

import (
	"strings"
	"unicode"
)

// =============================================================================
// Extension Identity
// =============================================================================

const (
	// Name is the PHP module name of the extension.
	Name = "xdebug"

	// ConfigPath is where the configuration artifact is written in the webserver.
	ConfigPath = "/usr/local/etc/php/conf.d/docker-php-ext-xdebug.ini"
)

// Config is written verbatim to ConfigPath on every run, replacing whatever
// is there.
const Config = `xdebug.mode = debug
xdebug.start_with_request = trigger
xdebug.client_port = 9003
xdebug.idekey = PHPSTORM
xdebug.discover_client_host = false
xdebug.client_host = host.docker.internal
xdebug.log = /tmp/xdebug.log
`

// =============================================================================
// Commands
// =============================================================================

// ListModulesCommand lists the modules loaded by the PHP runtime.
func ListModulesCommand() []string {
	return []string{"php", "-m"}
}

// InstallCommand installs the extension with the package manager.
func InstallCommand() []string {
	return []string{"pecl", "install", Name}
}

// EnableCommand enables the extension in the runtime.
func EnableCommand() []string {
	return []string{"docker-php-ext-enable", Name}
}

// WriteConfigCommand writes content to ConfigPath, truncating any existing
// file. The content travels as a positional argument so no quoting is needed.
func WriteConfigCommand(content string) []string {
	return []string{"sh", "-c", `printf '%s' "$1" > "$2"`, "sh", content, ConfigPath}
}

// =============================================================================
// Module Detection
// =============================================================================

// IsLoaded reports whether the module list output names the extension.
//
// Output from a remote shell may carry carriage returns and other control
// characters, so each line is stripped of them before a case-insensitive
// substring match.
func IsLoaded(moduleList string) bool {
	for _, line := range strings.Split(moduleList, "\n") {
		if strings.Contains(strings.ToLower(normalize(line)), Name) {
			return true
		}
	}
	return false
}

// normalize drops control characters and surrounding whitespace.
func normalize(line string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, line)
	return strings.TrimSpace(cleaned)
}

// IsAlreadyEnabledWarning reports whether enable output only warns that the
// module is already loaded.
func IsAlreadyEnabledWarning(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "already loaded") || strings.Contains(lower, "already enabled")
}
