package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/require"
)

const alpineImage = "alpine:3"

func mustDockerClient(t *testing.T) *dockerClient {
	t.Helper()

	dc, err := NewDockerClient()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dc.Close())
	})
	return dc
}

func TestPullImage(t *testing.T) {
	ctx := context.Background()
	dc := mustDockerClient(t)

	require.NoError(t, dc.PullImage(ctx, alpineImage))

	require.Error(t, dc.PullImage(ctx, "taskgen.invalid/no-such-image:v0"))
}

func TestContainerLifecycle(t *testing.T) {
	ctx := context.Background()
	dc := mustDockerClient(t)

	require.NoError(t, dc.PullImage(ctx, alpineImage))

	inspect, err := dc.RunContainer(ctx, &container.Config{
		Image: alpineImage,
		Cmd:   []string{"sleep", "45"},
	}, &container.HostConfig{AutoRemove: true}, "taskgen-docker-smoke")
	require.NoError(t, err)
	require.NotEmpty(t, inspect.ID)
	require.True(t, inspect.State.Running)

	require.NoError(t, dc.StopContainer(ctx, inspect.ID, time.Second))
}

func TestStopContainerTwice(t *testing.T) {
	ctx := context.Background()
	dc := mustDockerClient(t)

	require.NoError(t, dc.PullImage(ctx, alpineImage))

	inspect, err := dc.RunContainer(ctx, &container.Config{
		Image: alpineImage,
		Cmd:   []string{"sleep", "45"},
	}, &container.HostConfig{AutoRemove: true}, "taskgen-docker-stop-twice")
	require.NoError(t, err)

	require.NoError(t, dc.StopContainer(ctx, inspect.ID, time.Second))

	// AutoRemove reaps the container after the first stop.
	require.NoError(t, dc.StopContainer(ctx, inspect.ID, time.Second))
}
