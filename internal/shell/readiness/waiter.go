// Package readiness blocks until the database service accepts connections.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
	"github.com/artpar/moodle-bootstrap/internal/core/stack"
	"github.com/artpar/moodle-bootstrap/internal/shell/compose"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrTimeout     = errors.New("database did not become ready in time")
	ErrProbeFailed = errors.New("readiness probe failed")
)

// ReadinessTimeoutError reports that the database never answered the probe
// within the configured bound.
type ReadinessTimeoutError struct {
	Engine   bootstrap.Engine
	Timeout  time.Duration
	Attempts int
	Last     string // last probe output
}

func (e *ReadinessTimeoutError) Error() string {
	msg := fmt.Sprintf("%s not ready after %s (%d probes)", e.Engine, e.Timeout, e.Attempts)
	if e.Last != "" {
		msg += ": " + e.Last
	}
	return msg
}

// Is reports whether target is ErrTimeout.
func (e *ReadinessTimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// ProbeError reports that the probe itself could not be run.
type ProbeError struct {
	Engine bootstrap.Engine
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s readiness probe: %v", e.Engine, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrProbeFailed.
func (e *ProbeError) Is(target error) bool {
	return target == ErrProbeFailed
}

// =============================================================================
// Waiter
// =============================================================================

// Executor runs commands inside a service.
type Executor interface {
	Exec(ctx context.Context, svc compose.ServiceHandle, cmd []string) (compose.ExecResult, error)
}

// Config controls polling.
type Config struct {
	Interval time.Duration // time between probes
	Timeout  time.Duration // overall bound, 0 waits forever
}

// DefaultConfig returns the default polling configuration.
func DefaultConfig() Config {
	return Config{
		Interval: 2 * time.Second,
		Timeout:  5 * time.Minute,
	}
}

// Waiter polls the database service with the engine's readiness probe.
type Waiter struct {
	exec   Executor
	config Config
	logger *slog.Logger
}

// NewWaiter creates a new Waiter. A zero Interval uses the default.
func NewWaiter(exec Executor, config Config, logger *slog.Logger) *Waiter {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	return &Waiter{
		exec:   exec,
		config: config,
		logger: logger,
	}
}

// WaitForDatabase blocks until the probe succeeds in db.
//
// A probe that exits non-zero means "not ready yet" and is retried. A probe
// that cannot be executed at all is fatal and returned as *ProbeError.
func (w *Waiter) WaitForDatabase(ctx context.Context, cfg bootstrap.BootstrapConfig, db compose.ServiceHandle) error {
	probe := stack.ReadinessProbe(cfg.DBEngine)

	w.logger.Info("waiting for database",
		"engine", cfg.DBEngine,
		"service", db.Name,
		"timeout", w.config.Timeout,
	)

	var deadline time.Time
	if w.config.Timeout > 0 {
		deadline = time.Now().Add(w.config.Timeout)
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	attempts := 0
	last := ""
	for {
		attempts++
		res, err := w.exec.Exec(ctx, db, probe)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &ProbeError{Engine: cfg.DBEngine, Err: err}
		}
		if res.Success() {
			w.logger.Info("database ready", "engine", cfg.DBEngine, "probes", attempts)
			return nil
		}
		last = res.Output()

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return &ReadinessTimeoutError{
				Engine:   cfg.DBEngine,
				Timeout:  w.config.Timeout,
				Attempts: attempts,
				Last:     last,
			}
		}
		w.logger.Debug("database not ready yet", "attempt", attempts, "exit_code", res.ExitCode)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
