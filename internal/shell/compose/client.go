package compose

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

// =============================================================================
// Docker Client Implementation
// =============================================================================

// restartTimeout is how long the daemon waits before killing a container
// during restart.
const restartTimeout = 10 * time.Second

// DockerClient implements ContainerAPI using the Docker SDK.
type DockerClient struct {
	cli *client.Client
}

// NewDockerClient creates a new Docker client.
// If host is empty, it uses the default Docker host from environment.
// On macOS with Docker Desktop, it falls back to the per-user socket.
func NewDockerClient(ctx context.Context, host string) (*DockerClient, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, NewBackendUnavailableError("NewDockerClient", err)
	}

	if host == "" {
		if _, pingErr := cli.Ping(ctx); pingErr != nil {
			homeDir, _ := os.UserHomeDir()
			desktopSocket := "unix://" + homeDir + "/.docker/run/docker.sock"

			cli2, err2 := client.NewClientWithOpts(
				client.WithHost(desktopSocket),
				client.WithAPIVersionNegotiation(),
			)
			if err2 == nil {
				if _, pingErr2 := cli2.Ping(ctx); pingErr2 == nil {
					cli.Close()
					return &DockerClient{cli: cli2}, nil
				}
				cli2.Close()
			}
		}
	}

	return &DockerClient{cli: cli}, nil
}

// Ping checks if the Docker daemon is reachable.
func (d *DockerClient) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return NewBackendUnavailableError("Ping", err)
	}
	return nil
}

// Close closes the Docker client connection.
func (d *DockerClient) Close() error {
	return d.cli.Close()
}

// =============================================================================
// Container Lookup
// =============================================================================

// FindServiceContainer returns the running container of a compose service.
func (d *DockerClient) FindServiceContainer(ctx context.Context, project, service string) (*ContainerInfo, error) {
	args := filters.NewArgs(
		filters.Arg("label", LabelProject+"="+project),
		filters.Arg("label", LabelService+"="+service),
	)

	containers, err := d.cli.ContainerList(ctx, container.ListOptions{Filters: args})
	if err != nil {
		if client.IsErrConnectionFailed(err) {
			return nil, NewBackendUnavailableError("FindServiceContainer", err)
		}
		return nil, NewBackendError("FindServiceContainer", service, err.Error(), err)
	}
	if len(containers) == 0 {
		return nil, NewBackendError("FindServiceContainer", service, "no running container", ErrServiceNotFound)
	}

	c := containers[0]
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	var ports []PortBinding
	for _, p := range c.Ports {
		if p.PublicPort == 0 {
			continue
		}
		port, err := nat.NewPort(p.Type, strconv.Itoa(int(p.PrivatePort)))
		if err != nil {
			continue
		}
		ports = append(ports, PortBinding{
			ContainerPort: port,
			HostPort:      int(p.PublicPort),
			HostIP:        p.IP,
		})
	}

	return &ContainerInfo{
		ID:     c.ID,
		Name:   name,
		State:  c.State,
		Labels: c.Labels,
		Ports:  ports,
	}, nil
}

// =============================================================================
// Exec and Restart
// =============================================================================

// Exec runs cmd in the container and waits for it to finish.
// stdout and stderr are demultiplexed; the exit code is read back from the
// daemon once the stream closes.
func (d *DockerClient) Exec(ctx context.Context, containerID string, cmd []string) (ExecResult, error) {
	if len(cmd) == 0 {
		return ExecResult{}, NewBackendError("Exec", containerID, "command is empty", ErrEmptyCommand)
	}

	created, err := d.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		if client.IsErrNotFound(err) {
			return ExecResult{}, NewBackendError("Exec", containerID, "container not found", ErrServiceNotFound)
		}
		return ExecResult{}, NewBackendError("Exec", containerID, err.Error(), err)
	}

	attach, err := d.cli.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return ExecResult{}, NewBackendError("Exec", containerID, err.Error(), err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil {
		return ExecResult{}, NewBackendError("Exec", containerID, fmt.Sprintf("failed to read output: %v", err), err)
	}

	inspect, err := d.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return ExecResult{}, NewBackendError("Exec", containerID, err.Error(), err)
	}

	return ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: inspect.ExitCode,
	}, nil
}

// RestartContainer restarts a container.
func (d *DockerClient) RestartContainer(ctx context.Context, containerID string) error {
	timeout := int(restartTimeout.Seconds())
	err := d.cli.ContainerRestart(ctx, containerID, container.StopOptions{Timeout: &timeout})
	if err != nil {
		if client.IsErrNotFound(err) {
			return NewBackendError("RestartContainer", containerID, "container not found", ErrServiceNotFound)
		}
		return NewBackendError("RestartContainer", containerID, err.Error(), err)
	}
	return nil
}
