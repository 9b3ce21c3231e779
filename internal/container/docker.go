package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"

	"github.com/worldland/spark-gateway/internal/domain"
)

// ContainerInfo contains the runtime state of a container
type ContainerInfo struct {
	State   string // "running", "exited", etc.
	Running bool
	Health  string // "healthy", "unhealthy", "starting", ""
}

// DockerService answers runtime questions about service containers
type DockerService struct {
	cli     DockerClient // Interface for testability
	timeout time.Duration
}

// DockerClient interface for Docker operations (mockable)
type DockerClient interface {
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	Ping(ctx context.Context) (types.Ping, error)
	Close() error
}

// Compile-time interface check
var _ DockerClient = (*client.Client)(nil)

// NewDockerService creates a new DockerService with Docker client.
// Each inspect call is bounded by timeout.
func NewDockerService(timeout time.Duration) (*DockerService, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerService{cli: cli, timeout: timeout}, nil
}

// NewDockerServiceWithClient creates a DockerService with a provided client (for testing)
func NewDockerServiceWithClient(cli DockerClient, timeout time.Duration) *DockerService {
	return &DockerService{cli: cli, timeout: timeout}
}

// WaitReady pings the Docker daemon with exponential backoff until it
// answers or maxWait elapses
func (s *DockerService) WaitReady(ctx context.Context, maxWait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = maxWait

	operation := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if _, err := s.cli.Ping(pingCtx); err != nil {
			slog.Debug("docker daemon not ready", "error", err)
			return fmt.Errorf("docker ping failed: %w", err)
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("docker daemon not reachable: %w", err)
	}
	return nil
}

// InspectContainer returns information about a container
func (s *DockerService) InspectContainer(ctx context.Context, containerID string) (*ContainerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	inspect, err := s.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container: %w", err)
	}

	info := &ContainerInfo{}
	if inspect.ContainerJSONBase != nil && inspect.State != nil {
		info.State = inspect.State.Status
		info.Running = inspect.State.Running
		if inspect.State.Health != nil {
			info.Health = inspect.State.Health.Status
		}
	}
	return info, nil
}

// IsRunning reports whether the named container is running. A container
// that does not exist is not running and is not an error. A failing Docker
// healthcheck is logged but does not change the answer; service health is
// decided by the HTTP probe.
func (s *DockerService) IsRunning(ctx context.Context, name string) (bool, error) {
	info, err := s.InspectContainer(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if info.Running && info.Health == "unhealthy" {
		slog.Warn("container healthcheck failing", "container", name, "state", info.State)
	}
	return info.Running, nil
}

// Close closes the Docker client connection
func (s *DockerService) Close() error {
	if s.cli != nil {
		return s.cli.Close()
	}
	return nil
}

// Compile-time interface check
var _ domain.RuntimeProbe = (*DockerService)(nil)
