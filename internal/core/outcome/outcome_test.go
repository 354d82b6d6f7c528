package outcome

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Fatal(t *testing.T) {
	fatal := []State{StateValidating, StateCheckingBackend, StateStarting, StateWaitingForDatabase}
	tolerated := []State{StateConfiguringDebugger, StateRestartingWeb, StateOptionallyInitializingDatabase}

	for _, s := range fatal {
		assert.True(t, s.Fatal(), s)
	}
	for _, s := range tolerated {
		assert.False(t, s.Fatal(), s)
	}
}

func TestOutcome_RecordFatal(t *testing.T) {
	o := New("run-1")
	probeErr := errors.New("probe exploded")

	o.Record(StepResult{State: StateValidating, Status: StatusSucceeded})
	o.Record(StepResult{State: StateWaitingForDatabase, Status: StatusFailed, Err: probeErr})

	assert.True(t, o.Failed())
	assert.Equal(t, probeErr, o.Fatal)
}

func TestOutcome_RecordFatalWithoutError(t *testing.T) {
	o := New("run-1")
	o.Record(StepResult{State: StateStarting, Status: StatusFailed})

	require.True(t, o.Failed())
	assert.Contains(t, o.Fatal.Error(), "Starting")
}

func TestOutcome_ToleratedDoesNotFail(t *testing.T) {
	o := New("run-1")
	o.Record(StepResult{State: StateConfiguringDebugger, Status: StatusFailedTolerated, Err: errors.New("pecl")})

	assert.False(t, o.Failed())
	assert.Len(t, o.ToleratedFailures(), 1)
}

func TestOutcome_MarkRemainingNotRun(t *testing.T) {
	o := New("run-1")
	o.Record(StepResult{State: StateValidating, Status: StatusSucceeded})
	o.Record(StepResult{State: StateCheckingBackend, Status: StatusFailed})
	o.MarkRemainingNotRun()

	require.Len(t, o.Steps, len(Sequence))
	for i, state := range Sequence {
		assert.Equal(t, state, o.Steps[i].State)
	}

	step, ok := o.Step(StateOptionallyInitializingDatabase)
	require.True(t, ok)
	assert.Equal(t, StatusNotRun, step.Status)
}

func TestToleratedStepFailure(t *testing.T) {
	cause := errors.New("already installed")
	err := NewToleratedStepFailure(StateOptionallyInitializingDatabase, cause)

	assert.ErrorIs(t, err, ErrToleratedStep)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "OptionallyInitializingDatabase (tolerated): already installed", err.Error())
}
