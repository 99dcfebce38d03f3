package runlock

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	release, err := l.Acquire(ctx, "catalog")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "catalog")
	assert.ErrorIs(t, err, ErrLocked)

	other, err := l.Acquire(ctx, "other")
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := l.Acquire(ctx, "catalog")
	require.NoError(t, err)
	again()
}

func TestLocalLocker_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal().Acquire(ctx, "catalog")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisLocker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client, err := Connect(ctx, fmt.Sprintf("redis://%s/0", endpoint))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	l := NewRedis(client, "catalog:lock:", time.Minute)
	release, err := l.Acquire(ctx, "import")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "import")
	assert.ErrorIs(t, err, ErrLocked)

	ttl, err := client.TTL(ctx, "catalog:lock:import").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	release()
	_, err = client.Get(ctx, "catalog:lock:import").Result()
	assert.ErrorIs(t, err, redis.Nil)

	again, err := l.Acquire(ctx, "import")
	require.NoError(t, err)
	again()
}
