// Package debugger installs and enables the Xdebug extension in the running
// webserver container.
package debugger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/artpar/moodle-bootstrap/internal/core/debugext"
	"github.com/artpar/moodle-bootstrap/internal/core/outcome"
	"github.com/artpar/moodle-bootstrap/internal/shell/compose"
)

// Executor runs commands inside a service.
type Executor interface {
	Exec(ctx context.Context, svc compose.ServiceHandle, cmd []string) (compose.ExecResult, error)
}

// InstallResult is what EnsureInstalled did. Status is succeeded or skipped;
// Problems holds the sub-steps that failed without stopping the install.
type InstallResult struct {
	Status   outcome.Status
	Problems []error
}

// Err joins all problems, or returns nil.
func (r InstallResult) Err() error {
	return errors.Join(r.Problems...)
}

// Installer ensures the debug extension is present and configured.
type Installer struct {
	exec   Executor
	logger *slog.Logger
}

// NewInstaller creates a new Installer.
func NewInstaller(exec Executor, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{exec: exec, logger: logger}
}

// EnsureInstalled installs the extension in web unless the runtime already
// loads it. Either way the configuration file is rewritten, replacing any
// previous content, and the extension is enabled. Failures are collected in
// the result, never returned.
func (i *Installer) EnsureInstalled(ctx context.Context, web compose.ServiceHandle) InstallResult {
	result := InstallResult{Status: outcome.StatusSucceeded}

	modules, err := i.exec.Exec(ctx, web, debugext.ListModulesCommand())
	switch {
	case err != nil:
		// Can't tell what is loaded, so fall through to a full install.
		result.Problems = append(result.Problems, fmt.Errorf("list modules: %w", err))
	case debugext.IsLoaded(modules.Stdout):
		i.logger.Info("debug extension already loaded", "extension", debugext.Name, "service", web.Name)
		result.Status = outcome.StatusSkipped
	}

	if result.Status != outcome.StatusSkipped {
		i.logger.Info("installing debug extension", "extension", debugext.Name, "service", web.Name)
		if problem := i.run(ctx, web, "install", debugext.InstallCommand()); problem != nil {
			i.logger.Warn("extension package install failed", "error", problem)
			result.Problems = append(result.Problems, problem)
		}
	}

	if problem := i.run(ctx, web, "write config", debugext.WriteConfigCommand(debugext.Config)); problem != nil {
		i.logger.Warn("writing extension config failed", "path", debugext.ConfigPath, "error", problem)
		result.Problems = append(result.Problems, problem)
	} else {
		i.logger.Debug("extension config written", "path", debugext.ConfigPath)
	}

	res, err := i.exec.Exec(ctx, web, debugext.EnableCommand())
	switch {
	case err != nil:
		result.Problems = append(result.Problems, fmt.Errorf("enable: %w", err))
	case debugext.IsAlreadyEnabledWarning(res.Output()):
		i.logger.Debug("extension already enabled", "extension", debugext.Name)
	case !res.Success():
		problem := fmt.Errorf("enable: exit code %d: %s", res.ExitCode, res.Output())
		i.logger.Warn("enabling extension failed", "error", problem)
		result.Problems = append(result.Problems, problem)
	}

	return result
}

// run executes cmd and converts a failure into a problem.
func (i *Installer) run(ctx context.Context, web compose.ServiceHandle, what string, cmd []string) error {
	res, err := i.exec.Exec(ctx, web, cmd)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if !res.Success() {
		return fmt.Errorf("%s: exit code %d: %s", what, res.ExitCode, res.Output())
	}
	return nil
}
