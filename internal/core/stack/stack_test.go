package stack

import (
	"testing"

	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func baseConfig() bootstrap.BootstrapConfig {
	return bootstrap.BootstrapConfig{
		WebPort:       8000,
		CodePath:      "/srv/app",
		DBEngine:      bootstrap.EngineMySQL,
		ProjectPrefix: bootstrap.DefaultProjectPrefix,
	}
}

// =============================================================================
// Environment Tests
// =============================================================================

func TestEnvironment_RequiredOnly(t *testing.T) {
	env := Environment(baseConfig())

	assert.Equal(t, map[string]string{
		EnvProjectName: "docker-moodle",
		EnvWebPort:     "8000",
		EnvWWWRoot:     "/srv/app",
		EnvDBEngine:    "mysql",
	}, env)
}

func TestEnvironment_OptionalPorts(t *testing.T) {
	cfg := baseConfig()
	cfg.DBPort = intPtr(3307)
	cfg.VNCPort = intPtr(5900)

	env := Environment(cfg)
	assert.Equal(t, "3307", env[EnvDBPort])
	assert.Equal(t, "5900", env[EnvVNCPort])
}

func TestMergeEnvironment_ContractWins(t *testing.T) {
	extra := map[string]string{
		EnvWebPort:                  "9999",
		"MOODLE_DOCKER_PHP_VERSION": "8.2",
	}
	merged := MergeEnvironment(extra, Environment(baseConfig()))

	assert.Equal(t, "8000", merged[EnvWebPort])
	assert.Equal(t, "8.2", merged["MOODLE_DOCKER_PHP_VERSION"])
	assert.Equal(t, "9999", extra[EnvWebPort], "input map must not be modified")
}

func TestEnvironList_Sorted(t *testing.T) {
	list := EnvironList(map[string]string{"B": "2", "A": "1"})
	assert.Equal(t, []string{"A=1", "B=2"}, list)
}

// =============================================================================
// ComposeFiles Tests
// =============================================================================

func TestComposeFiles(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*bootstrap.BootstrapConfig)
		hasLocal bool
		expected []string
	}{
		{
			name:     "default engine",
			mutate:   func(*bootstrap.BootstrapConfig) {},
			expected: []string{"base.yml", "db.mysql.yml"},
		},
		{
			name:     "pgsql with published port",
			mutate:   func(c *bootstrap.BootstrapConfig) { c.DBEngine = bootstrap.EnginePgsql; c.DBPort = intPtr(5433) },
			expected: []string{"base.yml", "db.pgsql.yml", "db.pgsql.port.yml"},
		},
		{
			name:     "vnc and local overrides",
			mutate:   func(c *bootstrap.BootstrapConfig) { c.VNCPort = intPtr(5900) },
			hasLocal: true,
			expected: []string{"base.yml", "db.mysql.yml", "selenium.vnc.yml", "local.yml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			assert.Equal(t, tt.expected, ComposeFiles(cfg, tt.hasLocal))
		})
	}
}

// =============================================================================
// Command Tests
// =============================================================================

func TestReadinessProbe_EveryEngine(t *testing.T) {
	expectedBinary := map[bootstrap.Engine]string{
		bootstrap.EngineMySQL:   "mysqladmin",
		bootstrap.EngineMariaDB: "mysqladmin",
		bootstrap.EnginePgsql:   "pg_isready",
		bootstrap.EngineMSSQL:   "/opt/mssql-tools/bin/sqlcmd",
		bootstrap.EngineOracle:  "sh",
	}

	for _, engine := range bootstrap.Engines {
		t.Run(string(engine), func(t *testing.T) {
			probe := ReadinessProbe(engine)
			require.NotEmpty(t, probe)
			assert.Equal(t, expectedBinary[engine], probe[0])
		})
	}
}

func TestInstallCommand(t *testing.T) {
	cmd := InstallCommand()

	require.GreaterOrEqual(t, len(cmd), 3)
	assert.Equal(t, []string{"php", "admin/cli/install_database.php", "--agree-license"}, cmd[:3])
	assert.Contains(t, cmd, "--adminpass=test")
	assert.Contains(t, cmd, "--fullname=Docker moodle")
}
