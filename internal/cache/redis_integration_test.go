//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/pkg/testutil/containers"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	c := NewRedis(rc.Client)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheMissIsNotError(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	c := NewRedis(rc.Client)

	_, ok, err := c.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheExpiry(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	c := NewRedis(rc.Client)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 50*time.Millisecond))
	time.Sleep(100 * time.Millisecond)

	_, ok, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLayeredFallsBackToLocalWhenRedisDown(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	shared := NewRedis(rc.Client)
	local := NewMemory()
	layered := NewLayered(shared, local, nil)
	ctx := context.Background()

	require.NoError(t, layered.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, rc.Container.Terminate(ctx))

	got, ok, err := layered.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}
