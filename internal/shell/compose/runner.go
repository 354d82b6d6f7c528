package compose

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// =============================================================================
// Command Runner
// =============================================================================

// Command is a host command invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // full environment; nil inherits the current process
}

// CommandResult is the captured result of a host command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner runs host commands. A non-zero exit is reported through
// CommandResult, not as an error.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}

// ExecRunner runs commands with os/exec.
// If Echo is set, stderr is copied to it as it arrives.
type ExecRunner struct {
	Echo io.Writer
}

// Run runs cmd and waits for it to exit.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (CommandResult, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if r.Echo != nil {
		c.Stderr = io.MultiWriter(&stderr, r.Echo)
	}

	err := c.Run()
	result := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}
