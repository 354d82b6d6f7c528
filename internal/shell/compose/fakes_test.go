package compose

import (
	"context"
	"sync"
)

// =============================================================================
// Test Doubles
// =============================================================================

type fakeAPI struct {
	mu         sync.Mutex
	pingErr    error
	containers map[string]*ContainerInfo // service name -> container
	execFn     func(containerID string, cmd []string) (ExecResult, error)
	restarted  []string
}

func (f *fakeAPI) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeAPI) FindServiceContainer(ctx context.Context, project, service string) (*ContainerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.containers[service]; ok {
		return c, nil
	}
	return nil, NewBackendError("FindServiceContainer", service, "no running container", ErrServiceNotFound)
}

func (f *fakeAPI) Exec(ctx context.Context, containerID string, cmd []string) (ExecResult, error) {
	if f.execFn != nil {
		return f.execFn(containerID, cmd)
	}
	return ExecResult{}, nil
}

func (f *fakeAPI) RestartContainer(ctx context.Context, containerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarted = append(f.restarted, containerID)
	return nil
}

func (f *fakeAPI) Close() error { return nil }

type fakeRunner struct {
	calls   []Command
	results map[string]CommandResult // keyed by last argument
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, cmd Command) (CommandResult, error) {
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return CommandResult{}, f.err
	}
	if len(cmd.Args) > 0 {
		if res, ok := f.results[cmd.Args[len(cmd.Args)-1]]; ok {
			return res, nil
		}
	}
	return CommandResult{}, nil
}
