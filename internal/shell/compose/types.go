// Package compose drives the container orchestration backend: the
// `docker compose` CLI for bringing a project up, and the Docker Engine API for
// addressing, executing in and restarting the running services.
package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
	"github.com/docker/go-connections/nat"
)

// =============================================================================
// Service Types
// =============================================================================

// ServiceHandle addresses a running compose service.
// The backend owns the container; the handle is only valid for this run.
type ServiceHandle struct {
	Name          string
	ContainerID   string
	ContainerName string
	Ports         []PortBinding
}

// String returns the service name with a short container ID.
func (h ServiceHandle) String() string {
	id := h.ContainerID
	if len(id) > 12 {
		id = id[:12]
	}
	return fmt.Sprintf("%s (%s)", h.Name, id)
}

// PortBinding is a published container port.
type PortBinding struct {
	ContainerPort nat.Port // e.g. "80/tcp"
	HostPort      int
	HostIP        string
}

// String renders the binding as host:port->container/proto.
func (p PortBinding) String() string {
	host := p.HostIP
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d->%s", host, p.HostPort, p.ContainerPort)
}

// ExecResult is the captured result of a command run inside a service.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the command exited with status 0.
func (r ExecResult) Success() bool {
	return r.ExitCode == 0
}

// Output returns stdout followed by stderr.
func (r ExecResult) Output() string {
	var parts []string
	for _, stream := range []string{r.Stdout, r.Stderr} {
		if trimmed := strings.TrimSpace(stream); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n")
}

// =============================================================================
// Container Info
// =============================================================================

// ContainerInfo describes a container found through compose labels.
type ContainerInfo struct {
	ID     string
	Name   string
	State  string
	Labels map[string]string
	Ports  []PortBinding
}

// Labels set by docker compose on every container it manages.
const (
	LabelProject = "com.docker.compose.project"
	LabelService = "com.docker.compose.service"
)

// =============================================================================
// Interfaces
// =============================================================================

// Orchestrator starts, addresses and executes in services.
// All operations block until the backend command completes.
type Orchestrator interface {
	// Ping fails with *BackendUnavailableError when the backend cannot be used.
	Ping(ctx context.Context) error

	// Start brings the project up and returns a handle per running service.
	Start(ctx context.Context, cfg bootstrap.BootstrapConfig) ([]ServiceHandle, error)

	// Service resolves a single service by name.
	Service(ctx context.Context, cfg bootstrap.BootstrapConfig, name string) (ServiceHandle, error)

	// Exec runs cmd in the service. A non-zero exit code is not an error; the
	// error return is reserved for backend failures.
	Exec(ctx context.Context, svc ServiceHandle, cmd []string) (ExecResult, error)

	// Restart restarts the service's container.
	Restart(ctx context.Context, svc ServiceHandle) error
}

// ContainerAPI is the subset of the Docker Engine API the orchestrator uses.
type ContainerAPI interface {
	Ping(ctx context.Context) error
	FindServiceContainer(ctx context.Context, project, service string) (*ContainerInfo, error)
	Exec(ctx context.Context, containerID string, cmd []string) (ExecResult, error)
	RestartContainer(ctx context.Context, containerID string) error
	Close() error
}
