package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
	"github.com/artpar/moodle-bootstrap/internal/core/stack"
)

// =============================================================================
// Orchestrator - Drives docker compose and the Docker Engine
// =============================================================================

// minComposeVersion is the oldest compose CLI that understands the project.
var minComposeVersion = semver.MustParse("2.0.0")

// Options configures a ComposeOrchestrator.
type Options struct {
	Dir        string            // Directory holding the compose files
	Binary     string            // Docker CLI binary, "docker" by default
	WebService string            // Name of the webserver service
	DBService  string            // Name of the database service
	ExtraEnv   map[string]string // Additional variables; contract keys win
}

// ComposeOrchestrator implements Orchestrator.
type ComposeOrchestrator struct {
	api    ContainerAPI
	runner CommandRunner
	opts   Options
	logger *slog.Logger
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(api ContainerAPI, runner CommandRunner, opts Options, logger *slog.Logger) *ComposeOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Binary == "" {
		opts.Binary = "docker"
	}
	if opts.WebService == "" {
		opts.WebService = stack.DefaultWebService
	}
	if opts.DBService == "" {
		opts.DBService = stack.DefaultDBService
	}
	return &ComposeOrchestrator{
		api:    api,
		runner: runner,
		opts:   opts,
		logger: logger,
	}
}

// WebService returns the configured webserver service name.
func (o *ComposeOrchestrator) WebService() string {
	return o.opts.WebService
}

// DBService returns the configured database service name.
func (o *ComposeOrchestrator) DBService() string {
	return o.opts.DBService
}

// =============================================================================
// Backend Availability
// =============================================================================

// Ping checks the Docker daemon and the compose CLI version.
func (o *ComposeOrchestrator) Ping(ctx context.Context) error {
	if err := o.api.Ping(ctx); err != nil {
		if errors.Is(err, ErrBackendUnavailable) {
			return err
		}
		return NewBackendUnavailableError("Ping", err)
	}

	res, err := o.runner.Run(ctx, Command{
		Name: o.opts.Binary,
		Args: []string{"compose", "version", "--short"},
	})
	if err != nil {
		return NewBackendUnavailableError("ComposeVersion", err)
	}
	if res.ExitCode != 0 {
		return NewBackendUnavailableError("ComposeVersion", fmt.Errorf("%s compose exited with %d: %w", o.opts.Binary, res.ExitCode, ErrComposeTooOld))
	}

	version, err := CheckComposeVersion(res.Stdout)
	if err != nil {
		return NewBackendUnavailableError("ComposeVersion", err)
	}

	o.logger.Debug("backend available", "compose_version", version.String())
	return nil
}

// CheckComposeVersion parses `docker compose version --short` output and
// checks it against the minimum supported version.
func CheckComposeVersion(output string) (*semver.Version, error) {
	version, err := semver.NewVersion(strings.TrimSpace(output))
	if err != nil {
		return nil, fmt.Errorf("unrecognized compose version %q: %w", strings.TrimSpace(output), ErrComposeTooOld)
	}
	// Desktop builds carry a pre-release suffix such as "-desktop.1", which a
	// constraint check would reject outright.
	if version.LessThan(minComposeVersion) {
		return nil, fmt.Errorf("found %s: %w", version, ErrComposeTooOld)
	}
	return version, nil
}

// =============================================================================
// Start
// =============================================================================

// Start brings the project up in the background and resolves a handle for
// every service, in startup order.
func (o *ComposeOrchestrator) Start(ctx context.Context, cfg bootstrap.BootstrapConfig) ([]ServiceHandle, error) {
	env := o.Environment(cfg)
	files := stack.ComposeFiles(cfg, fileExists(filepath.Join(o.opts.Dir, stack.LocalFile)))

	o.logger.Info("starting services",
		"project", cfg.ProjectPrefix,
		"engine", cfg.DBEngine,
		"files", files,
	)

	project, err := LoadProject(ctx, ProjectName(cfg.ProjectPrefix), o.opts.Dir, files, env)
	if err != nil {
		return nil, err
	}
	if err := RequireServices(project, o.opts.WebService, o.opts.DBService); err != nil {
		return nil, err
	}

	args := []string{"compose"}
	for _, f := range files {
		args = append(args, "-f", f)
	}
	args = append(args, "up", "-d")

	res, err := o.runner.Run(ctx, Command{
		Name: o.opts.Binary,
		Args: args,
		Dir:  o.opts.Dir,
		Env:  append(os.Environ(), stack.EnvironList(env)...),
	})
	if err != nil {
		return nil, NewBackendError("Start", "", fmt.Sprintf("failed to run %s compose: %v", o.opts.Binary, err), err)
	}
	if res.ExitCode != 0 {
		return nil, NewBackendError("Start", "", fmt.Sprintf("compose up exited with %d: %s", res.ExitCode, lastLine(res.Stderr)), nil)
	}

	nodes := make([]stack.ServiceNode, 0, len(project.Services))
	for _, name := range ServiceNames(project) {
		var deps []string
		for dep := range project.Services[name].DependsOn {
			deps = append(deps, dep)
		}
		nodes = append(nodes, stack.ServiceNode{Name: name, DependsOn: deps})
	}

	var handles []ServiceHandle
	for _, name := range stack.StartupOrder(nodes) {
		handle, err := o.Service(ctx, cfg, name)
		if err != nil {
			if name == o.opts.WebService || name == o.opts.DBService {
				return nil, err
			}
			o.logger.Warn("service not running after start", "service", name, "error", err)
			continue
		}
		o.logger.Debug("service running", "service", handle.String())
		handles = append(handles, handle)
	}

	o.logger.Info("services started", "project", cfg.ProjectPrefix, "services", len(handles))
	return handles, nil
}

// Environment returns the full variable set handed to the backend for cfg.
func (o *ComposeOrchestrator) Environment(cfg bootstrap.BootstrapConfig) map[string]string {
	return stack.MergeEnvironment(o.opts.ExtraEnv, stack.Environment(cfg))
}

// =============================================================================
// Service Operations
// =============================================================================

// Service resolves a running service of the project.
func (o *ComposeOrchestrator) Service(ctx context.Context, cfg bootstrap.BootstrapConfig, name string) (ServiceHandle, error) {
	info, err := o.api.FindServiceContainer(ctx, ProjectName(cfg.ProjectPrefix), name)
	if err != nil {
		return ServiceHandle{}, err
	}
	return ServiceHandle{
		Name:          name,
		ContainerID:   info.ID,
		ContainerName: info.Name,
		Ports:         info.Ports,
	}, nil
}

// Exec runs cmd inside svc.
func (o *ComposeOrchestrator) Exec(ctx context.Context, svc ServiceHandle, cmd []string) (ExecResult, error) {
	if len(cmd) == 0 {
		return ExecResult{}, NewBackendError("Exec", svc.Name, "command is empty", ErrEmptyCommand)
	}
	o.logger.Debug("exec", "service", svc.Name, "command", cmd[0])
	res, err := o.api.Exec(ctx, svc.ContainerID, cmd)
	if err != nil {
		return ExecResult{}, err
	}
	if res.ExitCode != 0 {
		o.logger.Debug("exec exited non-zero", "service", svc.Name, "command", cmd[0], "exit_code", res.ExitCode)
	}
	return res, nil
}

// Restart restarts svc.
func (o *ComposeOrchestrator) Restart(ctx context.Context, svc ServiceHandle) error {
	o.logger.Info("restarting service", "service", svc.Name)
	return o.api.RestartContainer(ctx, svc.ContainerID)
}

// =============================================================================
// Helpers
// =============================================================================

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// lastLine returns the last non-empty line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
