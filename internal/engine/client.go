// Package engine wraps the Docker SDK with the queries gangway needs:
// daemon health, container addresses and state, and label-filtered
// listings of compose-managed containers.
package engine

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/schmitthub/gangway/internal/logger"
)

// Compose label keys the engine attaches to containers it manages on
// behalf of a compose project. Gangway filters on them to find the
// containers behind a logical service name.
const (
	LabelProject = "com.docker.compose.project"
	LabelService = "com.docker.compose.service"
)

// Client wraps the Docker API client.
type Client struct {
	cli *client.Client
}

// New connects to the Docker daemon using the standard environment
// (DOCKER_HOST etc.) and verifies it responds to a ping.
func New(ctx context.Context) (*Client, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, &DockerError{Op: "connect", Err: err}
	}

	c := &Client{cli: cli}
	if err := c.Ping(ctx); err != nil {
		cli.Close()
		return nil, err
	}

	logger.Debug().Msg("docker engine connected")
	return c, nil
}

// Ping verifies daemon connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return &DockerError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.cli.Close()
}

// ContainerIP returns the container's address on the engine's private
// network: the first non-empty IP across its attached networks.
func (c *Client) ContainerIP(ctx context.Context, containerID string) (string, error) {
	info, err := c.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return "", &DockerError{Op: "inspect", Err: err}
	}
	if info.NetworkSettings == nil {
		return "", nil
	}
	for _, netw := range info.NetworkSettings.Networks {
		if netw.IPAddress != "" {
			return netw.IPAddress, nil
		}
	}
	return "", nil
}

// ContainerRunning reports whether the container is in the running state.
func (c *Client) ContainerRunning(ctx context.Context, containerID string) (bool, error) {
	info, err := c.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return false, &DockerError{Op: "inspect", Err: err}
	}
	return info.State != nil && info.State.Running, nil
}

// ContainerPorts returns the container's published-port map as reported
// by the engine.
func (c *Client) ContainerPorts(ctx context.Context, containerID string) (nat.PortMap, error) {
	info, err := c.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return nil, &DockerError{Op: "inspect", Err: err}
	}
	if info.NetworkSettings == nil {
		return nat.PortMap{}, nil
	}
	return info.NetworkSettings.Ports, nil
}

// ListProject lists all containers labeled with the given compose
// project, including stopped ones.
func (c *Client) ListProject(ctx context.Context, project string) ([]types.Container, error) {
	f := filters.NewArgs(filters.Arg("label", LabelProject+"="+project))
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: f,
	})
	if err != nil {
		return nil, &DockerError{Op: "list", Err: err}
	}
	return containers, nil
}

// ListService lists containers labeled with the given compose project
// and service name.
func (c *Client) ListService(ctx context.Context, project, service string) ([]types.Container, error) {
	f := filters.NewArgs(
		filters.Arg("label", LabelProject+"="+project),
		filters.Arg("label", LabelService+"="+service),
	)
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: f,
	})
	if err != nil {
		return nil, &DockerError{Op: "list", Err: err}
	}
	return containers, nil
}
