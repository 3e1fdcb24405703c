package testutils

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// dockerClient wraps the moby API client with the handful of operations the
// database fixtures need.
type dockerClient struct {
	client *client.Client
}

// NewDockerClient connects to the docker daemon named by the environment.
func NewDockerClient() (*dockerClient, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connect to docker: %w", err)
	}

	return &dockerClient{client: cli}, nil
}

// Close releases the client's transport.
func (d *dockerClient) Close() error {
	return d.client.Close()
}

// PullImage fetches imageName unless it is already present locally.
func (d *dockerClient) PullImage(ctx context.Context, imageName string) error {
	images, err := d.client.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", imageName)),
	})
	if err != nil {
		return fmt.Errorf("list local images: %w", err)
	}
	if len(images) > 0 {
		return nil
	}

	reader, err := d.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull %s: %w", imageName, err)
	}

	// The pull completes only once its progress stream is drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("drain pull progress for %s: %w", imageName, err)
	}

	return nil
}

// RunContainer creates and starts a container under the given name and
// returns its inspect output, host port mappings included.
func (d *dockerClient) RunContainer(
	ctx context.Context, containerCfg *container.Config, hostCfg *container.HostConfig, containerName string,
) (*container.InspectResponse, error) {
	created, err := d.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, containerName)
	if err != nil {
		return nil, fmt.Errorf("create container %s: %w", containerName, err)
	}

	if err := d.client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container %s: %w", containerName, err)
	}

	info, err := d.client.ContainerInspect(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("inspect container %s: %w", containerName, err)
	}

	return &info, nil
}

// StopContainer stops a container. Stopping a container that is already gone
// is not an error.
func (d *dockerClient) StopContainer(ctx context.Context, containerID string, timeout time.Duration) error {
	timeoutSec := int(timeout.Seconds())

	err := d.client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeoutSec})
	if err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("stop container: %w", err)
	}

	return nil
}
