// Package dbinit runs the application's one-time database install.
package dbinit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
	"github.com/artpar/moodle-bootstrap/internal/core/outcome"
	"github.com/artpar/moodle-bootstrap/internal/core/stack"
	"github.com/artpar/moodle-bootstrap/internal/shell/compose"
)

// Executor runs commands inside a service.
type Executor interface {
	Exec(ctx context.Context, svc compose.ServiceHandle, cmd []string) (compose.ExecResult, error)
}

// Initializer runs the install script inside the webserver.
type Initializer struct {
	exec   Executor
	logger *slog.Logger
}

// NewInitializer creates a new Initializer.
func NewInitializer(exec Executor, logger *slog.Logger) *Initializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Initializer{exec: exec, logger: logger}
}

// RunIfRequested runs the install when cfg.RunInstall is set. It reports
// whether the install ran. A failed install, including one rejected because
// the site is already installed, comes back as *outcome.ToleratedStepFailure.
func (i *Initializer) RunIfRequested(ctx context.Context, cfg bootstrap.BootstrapConfig, web compose.ServiceHandle) (bool, error) {
	if !cfg.RunInstall {
		return false, nil
	}

	i.logger.Info("initializing database", "service", web.Name, "engine", cfg.DBEngine)

	res, err := i.exec.Exec(ctx, web, stack.InstallCommand())
	if err != nil {
		return true, outcome.NewToleratedStepFailure(outcome.StateOptionallyInitializingDatabase, err)
	}
	if !res.Success() {
		failure := fmt.Errorf("install script exited with code %d: %s", res.ExitCode, res.Output())
		i.logger.Warn("database install failed", "exit_code", res.ExitCode)
		return true, outcome.NewToleratedStepFailure(outcome.StateOptionallyInitializingDatabase, failure)
	}

	i.logger.Info("database initialized", "admin_email", stack.AdminEmail)
	return true, nil
}
