// Package outcome records what happened during one bootstrap run.
// An Outcome lives only for the duration of the process.
package outcome

import (
	"errors"
	"fmt"
	"time"

	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
)

// =============================================================================
// States
// =============================================================================

// State is a step of the bootstrap sequence.
type State string

const (
	StateValidating                     State = "Validating"
	StateCheckingBackend                State = "CheckingBackend"
	StateStarting                       State = "Starting"
	StateWaitingForDatabase             State = "WaitingForDatabase"
	StateConfiguringDebugger            State = "ConfiguringDebugger"
	StateRestartingWeb                  State = "RestartingWeb"
	StateOptionallyInitializingDatabase State = "OptionallyInitializingDatabase"
	StateReporting                      State = "Reporting"
	StateDone                           State = "Done"
)

// Sequence lists the recorded states in execution order.
// Reporting and Done are not recorded as steps.
var Sequence = []State{
	StateValidating,
	StateCheckingBackend,
	StateStarting,
	StateWaitingForDatabase,
	StateConfiguringDebugger,
	StateRestartingWeb,
	StateOptionallyInitializingDatabase,
}

// Fatal reports whether a failure in s aborts the sequence.
func (s State) Fatal() bool {
	switch s {
	case StateValidating, StateCheckingBackend, StateStarting, StateWaitingForDatabase:
		return true
	default:
		return false
	}
}

// =============================================================================
// Step Status
// =============================================================================

// Status is the result of a single step.
type Status string

const (
	StatusSucceeded       Status = "succeeded"
	StatusSkipped         Status = "skipped"
	StatusFailedTolerated Status = "failed-tolerated"
	StatusFailed          Status = "failed"
	StatusNotRun          Status = "not-run"
)

// StepResult is the recorded result of one state.
type StepResult struct {
	State    State
	Status   Status
	Detail   string
	Duration time.Duration
	Err      error
}

// =============================================================================
// Outcome
// =============================================================================

// Outcome accumulates step results for the final summary.
// It is written only by the sequencer's single goroutine.
type Outcome struct {
	RunID    string
	Config   *bootstrap.BootstrapConfig
	Services []string // started services, in startup order
	Steps    []StepResult
	Fatal    error
}

// New creates an empty outcome for a run.
func New(runID string) *Outcome {
	return &Outcome{RunID: runID}
}

// Record appends a step result. A failed result on a fatal state also sets
// the outcome's fatal error.
func (o *Outcome) Record(step StepResult) {
	if step.Status == StatusFailed && o.Fatal == nil {
		o.Fatal = step.Err
		if o.Fatal == nil {
			o.Fatal = fmt.Errorf("%s failed", step.State)
		}
	}
	o.Steps = append(o.Steps, step)
}

// MarkRemainingNotRun records every state after the last recorded one as
// not-run. Used after a fatal abort so the summary covers the full sequence.
func (o *Outcome) MarkRemainingNotRun() {
	seen := make(map[State]bool, len(o.Steps))
	for _, s := range o.Steps {
		seen[s.State] = true
	}
	for _, state := range Sequence {
		if !seen[state] {
			o.Steps = append(o.Steps, StepResult{State: state, Status: StatusNotRun})
		}
	}
}

// Step returns the recorded result for state.
func (o *Outcome) Step(state State) (StepResult, bool) {
	for _, s := range o.Steps {
		if s.State == state {
			return s, true
		}
	}
	return StepResult{}, false
}

// Failed reports whether the run hit a fatal error.
func (o *Outcome) Failed() bool {
	return o.Fatal != nil
}

// ToleratedFailures returns the steps that failed without aborting.
func (o *Outcome) ToleratedFailures() []StepResult {
	var result []StepResult
	for _, s := range o.Steps {
		if s.Status == StatusFailedTolerated {
			result = append(result, s)
		}
	}
	return result
}

// =============================================================================
// Error Types
// =============================================================================

// ErrToleratedStep is matched by every ToleratedStepFailure via errors.Is.
var ErrToleratedStep = errors.New("tolerated step failure")

// ToleratedStepFailure wraps a failure that is logged and summarized but does
// not stop the sequence.
type ToleratedStepFailure struct {
	State State
	Err   error
}

func (e *ToleratedStepFailure) Error() string {
	return fmt.Sprintf("%s (tolerated): %v", e.State, e.Err)
}

func (e *ToleratedStepFailure) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrToleratedStep.
func (e *ToleratedStepFailure) Is(target error) bool {
	return target == ErrToleratedStep
}

// NewToleratedStepFailure creates a new ToleratedStepFailure.
func NewToleratedStepFailure(state State, err error) *ToleratedStepFailure {
	return &ToleratedStepFailure{State: state, Err: err}
}
