package stack

import (
	"sort"
	"strconv"

	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
)

// =============================================================================
// Environment Contract
// =============================================================================

// Variables read by the compose files.
const (
	EnvProjectName = "COMPOSE_PROJECT_NAME"
	EnvWebPort     = "MOODLE_DOCKER_WEB_PORT"
	EnvDBPort      = "MOODLE_DOCKER_DB_PORT"
	EnvWWWRoot     = "MOODLE_DOCKER_WWWROOT"
	EnvDBEngine    = "MOODLE_DOCKER_DB"
	EnvVNCPort     = "MOODLE_DOCKER_SELENIUM_VNC_PORT"
)

// Environment returns the variables that configure the backend for cfg.
// Optional variables are omitted when the corresponding option is absent.
func Environment(cfg bootstrap.BootstrapConfig) map[string]string {
	env := map[string]string{
		EnvProjectName: cfg.ProjectPrefix,
		EnvWebPort:     strconv.Itoa(cfg.WebPort),
		EnvWWWRoot:     cfg.CodePath,
		EnvDBEngine:    string(cfg.DBEngine),
	}
	if cfg.HasDBPort() {
		env[EnvDBPort] = strconv.Itoa(*cfg.DBPort)
	}
	if cfg.HasVNCPort() {
		env[EnvVNCPort] = strconv.Itoa(*cfg.VNCPort)
	}
	return env
}

// MergeEnvironment layers contract on top of extra.
// Contract keys always win; extra only contributes keys the contract lacks.
func MergeEnvironment(extra, contract map[string]string) map[string]string {
	merged := make(map[string]string, len(extra)+len(contract))
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range contract {
		merged[k] = v
	}
	return merged
}

// EnvironList renders env as sorted KEY=VALUE pairs, the form os/exec expects.
func EnvironList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, k+"="+env[k])
	}
	return list
}
