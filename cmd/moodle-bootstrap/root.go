package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
	"github.com/artpar/moodle-bootstrap/internal/core/outcome"
	"github.com/artpar/moodle-bootstrap/internal/shell/compose"
	"github.com/artpar/moodle-bootstrap/internal/shell/dbinit"
	"github.com/artpar/moodle-bootstrap/internal/shell/debugger"
	"github.com/artpar/moodle-bootstrap/internal/shell/readiness"
	"github.com/artpar/moodle-bootstrap/internal/shell/report"
	"github.com/artpar/moodle-bootstrap/internal/shell/sequencer"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// flags holds command-line values before validation.
type flags struct {
	configPath string
	codePath   string
	dbEngine   string
	dbPort     string
	project    string
	vncPort    string
	verbose    bool
	install    bool
	noColor    bool
}

// RawParams converts the flags and positional arguments into unvalidated
// bootstrap parameters.
func (f flags) RawParams(args []string, baseDir string) bootstrap.RawParams {
	raw := bootstrap.RawParams{
		CodePath: f.codePath,
		DBEngine: f.dbEngine,
		DBPort:   f.dbPort,
		Project:  f.project,
		VNCPort:  f.vncPort,
		Install:  f.install,
		BaseDir:  baseDir,
	}
	if len(args) > 0 {
		raw.WebPort = args[0]
	}
	return raw
}

// NewRootCommand builds the moodle-bootstrap command. The process exit code
// is written to exitCode.
func NewRootCommand(stdout, stderr io.Writer, exitCode *int) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "moodle-bootstrap <webport> --code_path <path> [flags]",
		Short: "Start a local Moodle development stack",
		Long: `Start the Moodle docker compose stack, wait for the database, enable Xdebug
in the webserver and optionally install the site database.

Containers keep running after the command exits.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*exitCode = execute(cmd.Context(), f, args, stdout, stderr)
			return nil
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fl := cmd.Flags()
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")
	fl.BoolVarP(&f.install, "install", "i", false, "install the site database after startup")
	fl.StringVar(&f.codePath, "code_path", "", "path to the Moodle source tree (required)")
	fl.StringVar(&f.dbEngine, "dbengine", string(bootstrap.DefaultEngine), "database engine: pgsql, mariadb, mssql, mysql or oracle")
	fl.StringVar(&f.dbPort, "dbport", "", "publish the database on this host port")
	fl.StringVarP(&f.project, "project", "p", bootstrap.DefaultProjectPrefix, "compose project name prefix")
	fl.StringVar(&f.vncPort, "vncport", "", "publish the selenium VNC server on this host port")
	fl.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	fl.StringVar(&f.configPath, "config", "", "path to settings file")

	return cmd
}

// execute performs one bootstrap run and returns the exit code.
func execute(parent context.Context, f flags, args []string, stdout, stderr io.Writer) int {
	if parent == nil {
		parent = context.Background()
	}

	reporter := report.NewReporter(report.NewOutputStyle(f.noColor, isTerminal(stdout)))

	cfg, err := LoadConfig(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		reportSettingsFailure(reporter, stdout, err)
		return ExitFailure
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}

	logger := SetupLogger(cfg, stderr, f.noColor || !isTerminal(stderr))
	slog.SetDefault(logger)

	extraEnv, err := LoadEnvFile(cfg.EnvFile)
	if err != nil {
		logger.Error("configuration error", "error", err)
		reportSettingsFailure(reporter, stdout, err)
		return ExitFailure
	}

	baseDir, _ := os.Getwd()
	raw := f.RawParams(args, baseDir)
	warnMissingCodePath(logger, raw)

	ctx, stop := notifyInterrupt(parent, func() { onInterrupt(logger) })
	defer stop()

	var backend stackBackend
	api, err := compose.NewDockerClient(ctx, cfg.Docker.Host)
	if err != nil {
		// The sequence still validates, then fails at the backend check.
		logger.Error("cannot create docker client", "error", err)
		backend = unavailableBackend{err: err}
	} else {
		defer api.Close()

		var echo io.Writer
		if f.verbose {
			echo = stderr
		}
		backend = compose.NewOrchestrator(api, compose.ExecRunner{Echo: echo}, compose.Options{
			Dir:        cfg.Compose.Dir,
			Binary:     cfg.Compose.Binary,
			WebService: cfg.Compose.WebService,
			DBService:  cfg.Compose.DBService,
			ExtraEnv:   extraEnv,
		}, logger)
	}

	waiter := readiness.NewWaiter(backend, readiness.Config{
		Interval: cfg.Readiness.Interval,
		Timeout:  cfg.Readiness.Timeout,
	}, logger)

	seq := sequencer.New(sequencer.Deps{
		Backend:     backend,
		Waiter:      waiter,
		Installer:   debugger.NewInstaller(backend, logger),
		Initializer: dbinit.NewInitializer(backend, logger),
		Reporter:    reporter,
		Output:      stdout,
		WebService:  cfg.Compose.WebService,
		DBService:   cfg.Compose.DBService,
	}, logger)

	if _, err := seq.Run(ctx, raw); err != nil {
		return ExitFailure
	}
	return ExitSuccess
}

// =============================================================================
// Interrupts
// =============================================================================

// notifyInterrupt returns a context cancelled on SIGINT or SIGTERM. onInterrupt
// runs at most once, and only when a signal caused the cancellation. The
// returned stop releases the signal handler.
func notifyInterrupt(parent context.Context, onInterrupt func()) (context.Context, func()) {
	ctx, stopNotify := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	stopHook := context.AfterFunc(ctx, func() {
		if parent.Err() == nil {
			onInterrupt()
		}
	})
	return ctx, func() {
		stopHook()
		stopNotify()
	}
}

// onInterrupt logs the interruption. Started containers are left running.
func onInterrupt(logger *slog.Logger) {
	logger.Warn("interrupted, started containers keep running")
}

// =============================================================================
// Early Failures
// =============================================================================

// stackBackend is what the sequence components need from the orchestrator.
type stackBackend interface {
	sequencer.Backend
	readiness.Executor
}

// unavailableBackend stands in for the orchestrator when no Docker client
// could be created.
type unavailableBackend struct {
	err error
}

func (b unavailableBackend) Ping(ctx context.Context) error {
	return compose.NewBackendUnavailableError("Ping", b.err)
}

func (b unavailableBackend) Start(ctx context.Context, cfg bootstrap.BootstrapConfig) ([]compose.ServiceHandle, error) {
	return nil, compose.NewBackendUnavailableError("Start", b.err)
}

func (b unavailableBackend) Restart(ctx context.Context, svc compose.ServiceHandle) error {
	return compose.NewBackendUnavailableError("Restart", b.err)
}

func (b unavailableBackend) Exec(ctx context.Context, svc compose.ServiceHandle, cmd []string) (compose.ExecResult, error) {
	return compose.ExecResult{}, compose.NewBackendUnavailableError("Exec", b.err)
}

// reportSettingsFailure prints the summary for a run whose settings could not
// be loaded. No state ran, so the first one carries the failure.
func reportSettingsFailure(reporter *report.Reporter, w io.Writer, err error) {
	o := outcome.New(uuid.NewString())
	o.Record(outcome.StepResult{State: outcome.StateValidating, Status: outcome.StatusFailed, Err: err})
	o.MarkRemainingNotRun()
	_ = reporter.Report(w, o)
}

// warnMissingCodePath logs when the code path does not exist locally. The
// stack may still start, so this never fails the run.
func warnMissingCodePath(logger *slog.Logger, raw bootstrap.RawParams) {
	cfg, err := bootstrap.Validate(raw)
	if err != nil {
		return
	}
	if _, err := os.Stat(cfg.CodePath); err != nil {
		logger.Warn("code path not found on this machine", "code_path", cfg.CodePath)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
