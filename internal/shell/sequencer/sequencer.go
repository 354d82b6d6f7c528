// Package sequencer drives one bootstrap run from raw parameters to the
// final summary.
package sequencer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
	"github.com/artpar/moodle-bootstrap/internal/core/outcome"
	"github.com/artpar/moodle-bootstrap/internal/shell/compose"
	"github.com/artpar/moodle-bootstrap/internal/shell/debugger"
	"github.com/google/uuid"
)

// =============================================================================
// Dependencies
// =============================================================================

// Backend is the part of the orchestrator the sequencer drives directly.
type Backend interface {
	Ping(ctx context.Context) error
	Start(ctx context.Context, cfg bootstrap.BootstrapConfig) ([]compose.ServiceHandle, error)
	Restart(ctx context.Context, svc compose.ServiceHandle) error
}

// Waiter blocks until the database is ready.
type Waiter interface {
	WaitForDatabase(ctx context.Context, cfg bootstrap.BootstrapConfig, db compose.ServiceHandle) error
}

// Installer ensures the debug extension is configured.
type Installer interface {
	EnsureInstalled(ctx context.Context, web compose.ServiceHandle) debugger.InstallResult
}

// Initializer runs the optional database install.
type Initializer interface {
	RunIfRequested(ctx context.Context, cfg bootstrap.BootstrapConfig, web compose.ServiceHandle) (bool, error)
}

// Reporter renders the final summary.
type Reporter interface {
	Report(w io.Writer, o *outcome.Outcome) error
}

// Deps holds the components a run is assembled from.
type Deps struct {
	Backend     Backend
	Waiter      Waiter
	Installer   Installer
	Initializer Initializer
	Reporter    Reporter

	// Output receives the summary. Nil discards it.
	Output io.Writer

	WebService string
	DBService  string
}

// =============================================================================
// Sequencer
// =============================================================================

// Sequencer runs the bootstrap state machine. Fatal states abort the run;
// tolerated states record their failure and let the run continue. Nothing
// is rolled back.
type Sequencer struct {
	deps     Deps
	logger   *slog.Logger
	newRunID func() string
}

// New creates a new Sequencer.
func New(deps Deps, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Output == nil {
		deps.Output = io.Discard
	}
	if deps.WebService == "" {
		deps.WebService = "webserver"
	}
	if deps.DBService == "" {
		deps.DBService = "db"
	}
	return &Sequencer{
		deps:     deps,
		logger:   logger.With("component", "sequencer"),
		newRunID: uuid.NewString,
	}
}

// run holds the state of one execution.
type run struct {
	ctx     context.Context
	logger  *slog.Logger
	outcome *outcome.Outcome

	cfg bootstrap.BootstrapConfig
	web compose.ServiceHandle
	db  compose.ServiceHandle
}

// Run executes every state in order and always finishes with the summary.
// It returns the outcome together with the fatal error, nil when the run
// completed (tolerated failures included).
func (s *Sequencer) Run(ctx context.Context, raw bootstrap.RawParams) (*outcome.Outcome, error) {
	runID := s.newRunID()
	r := &run{
		ctx:     ctx,
		logger:  s.logger.With("run_id", runID),
		outcome: outcome.New(runID),
	}
	r.logger.Info("bootstrap started")

	steps := []struct {
		state outcome.State
		fn    func(*run) (outcome.Status, string, error)
	}{
		{outcome.StateValidating, s.validate(raw)},
		{outcome.StateCheckingBackend, s.checkBackend},
		{outcome.StateStarting, s.start},
		{outcome.StateWaitingForDatabase, s.waitForDatabase},
		{outcome.StateConfiguringDebugger, s.configureDebugger},
		{outcome.StateRestartingWeb, s.restartWeb},
		{outcome.StateOptionallyInitializingDatabase, s.initializeDatabase},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			r.outcome.Record(outcome.StepResult{State: step.state, Status: outcome.StatusFailed, Err: err})
			break
		}
		if !r.step(step.state, step.fn) {
			break
		}
	}

	if r.outcome.Failed() {
		r.outcome.MarkRemainingNotRun()
	}

	// Reporting always runs.
	if s.deps.Reporter != nil {
		if err := s.deps.Reporter.Report(s.deps.Output, r.outcome); err != nil {
			r.logger.Warn("failed to write summary", "error", err)
		}
	}

	if r.outcome.Failed() {
		r.logger.Error("bootstrap aborted", "error", r.outcome.Fatal)
		return r.outcome, r.outcome.Fatal
	}
	r.logger.Info("bootstrap done", "tolerated_failures", len(r.outcome.ToleratedFailures()))
	return r.outcome, nil
}

// step runs fn for state and records its result. It reports whether the
// sequence may continue.
func (r *run) step(state outcome.State, fn func(*run) (outcome.Status, string, error)) bool {
	r.logger.Debug("entering state", "state", state)
	started := time.Now()

	status, detail, err := fn(r)
	result := outcome.StepResult{
		State:    state,
		Status:   status,
		Detail:   detail,
		Duration: time.Since(started),
		Err:      err,
	}

	if err != nil {
		if state.Fatal() {
			result.Status = outcome.StatusFailed
		} else {
			result.Status = outcome.StatusFailedTolerated
			r.logger.Warn("step failed, continuing", "state", state, "error", err)
		}
	}
	r.outcome.Record(result)
	return result.Status != outcome.StatusFailed
}

// =============================================================================
// States
// =============================================================================

func (s *Sequencer) validate(raw bootstrap.RawParams) func(*run) (outcome.Status, string, error) {
	return func(r *run) (outcome.Status, string, error) {
		cfg, err := bootstrap.Validate(raw)
		if err != nil {
			return outcome.StatusFailed, "", err
		}
		r.cfg = cfg
		r.outcome.Config = &r.cfg
		r.logger.Info("configuration valid",
			"project", cfg.ProjectPrefix,
			"web_port", cfg.WebPort,
			"engine", cfg.DBEngine,
			"install", cfg.RunInstall,
		)
		return outcome.StatusSucceeded, "", nil
	}
}

func (s *Sequencer) checkBackend(r *run) (outcome.Status, string, error) {
	if err := s.deps.Backend.Ping(r.ctx); err != nil {
		return outcome.StatusFailed, "", err
	}
	return outcome.StatusSucceeded, "", nil
}

func (s *Sequencer) start(r *run) (outcome.Status, string, error) {
	handles, err := s.deps.Backend.Start(r.ctx, r.cfg)
	if err != nil {
		return outcome.StatusFailed, "", err
	}

	var haveWeb, haveDB bool
	for _, h := range handles {
		r.outcome.Services = append(r.outcome.Services, h.String())
		switch h.Name {
		case s.deps.WebService:
			r.web, haveWeb = h, true
		case s.deps.DBService:
			r.db, haveDB = h, true
		}
	}
	if !haveWeb {
		return outcome.StatusFailed, "", compose.NewBackendError("Start", s.deps.WebService, "service not running", compose.ErrServiceNotFound)
	}
	if !haveDB {
		return outcome.StatusFailed, "", compose.NewBackendError("Start", s.deps.DBService, "service not running", compose.ErrServiceNotFound)
	}
	return outcome.StatusSucceeded, fmt.Sprintf("%d services", len(handles)), nil
}

func (s *Sequencer) waitForDatabase(r *run) (outcome.Status, string, error) {
	if err := s.deps.Waiter.WaitForDatabase(r.ctx, r.cfg, r.db); err != nil {
		return outcome.StatusFailed, "", err
	}
	return outcome.StatusSucceeded, "", nil
}

func (s *Sequencer) configureDebugger(r *run) (outcome.Status, string, error) {
	result := s.deps.Installer.EnsureInstalled(r.ctx, r.web)
	if err := result.Err(); err != nil {
		return outcome.StatusFailedTolerated, "", outcome.NewToleratedStepFailure(outcome.StateConfiguringDebugger, err)
	}
	if result.Status == outcome.StatusSkipped {
		return result.Status, "already installed", nil
	}
	return result.Status, "", nil
}

func (s *Sequencer) restartWeb(r *run) (outcome.Status, string, error) {
	if err := s.deps.Backend.Restart(r.ctx, r.web); err != nil {
		return outcome.StatusFailedTolerated, "", outcome.NewToleratedStepFailure(outcome.StateRestartingWeb, err)
	}
	return outcome.StatusSucceeded, "", nil
}

func (s *Sequencer) initializeDatabase(r *run) (outcome.Status, string, error) {
	ran, err := s.deps.Initializer.RunIfRequested(r.ctx, r.cfg, r.web)
	if err != nil {
		return outcome.StatusFailedTolerated, "", err
	}
	if !ran {
		return outcome.StatusSkipped, "install not requested", nil
	}
	return outcome.StatusSucceeded, "", nil
}
