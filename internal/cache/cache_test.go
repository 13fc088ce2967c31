package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))

	val, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestMemory_MissIsNotError(t *testing.T) {
	_, ok, err := NewMemory().Get(context.Background(), "absent")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemoryWithClock(func() time.Time { return now })

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(2 * time.Minute)
	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("abc"), time.Minute))

	val, _, _ := m.Get(ctx, "k")
	val[0] = 'x'

	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestNamespace_PrefixesKeys(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	live := NewNamespace(m, "live:")
	fb := NewNamespace(m, "fb:")

	require.NoError(t, live.Set(ctx, "k", []byte("live-val"), time.Minute))
	require.NoError(t, fb.Set(ctx, "k", []byte("fb-val"), time.Minute))

	val, ok, _ := live.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("live-val"), val)

	val, ok, _ = fb.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("fb-val"), val)
}

// failingCache simulates a shared store outage.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (failingCache) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func TestLayered_FallsBackWhenSharedErrors(t *testing.T) {
	ctx := context.Background()
	local := NewMemory()
	l := NewLayered(failingCache{}, local, nil)

	require.NoError(t, l.Set(ctx, "k", []byte("v"), time.Minute))

	val, ok, err := l.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestLayered_NilSharedServesLocal(t *testing.T) {
	ctx := context.Background()
	l := NewLayered(nil, NewMemory(), nil)

	require.NoError(t, l.Set(ctx, "k", []byte("v"), time.Minute))
	_, ok, err := l.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
