package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsTask(t *testing.T) {
	done := make(chan []byte, 1)
	pool := NewPool(map[string]Handler{
		"echo": func(_ context.Context, payload []byte) error {
			done <- payload
			return nil
		},
	}, nil)
	defer pool.Close(time.Second)

	err := pool.Enqueue(context.Background(), Task{Name: "echo", Payload: []byte("hi")})
	require.NoError(t, err)

	select {
	case got := <-done:
		assert.Equal(t, []byte("hi"), got)
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestPoolUnknownTaskName(t *testing.T) {
	pool := NewPool(map[string]Handler{}, nil)
	defer pool.Close(time.Second)

	err := pool.Enqueue(context.Background(), Task{Name: "missing"})
	assert.Error(t, err)
}

func TestPoolRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	pool := NewPool(map[string]Handler{
		"flaky": func(_ context.Context, _ []byte) error {
			if calls.Add(1) < 3 {
				return errors.New("transient")
			}
			close(done)
			return nil
		},
	}, nil)
	defer pool.Close(time.Second)

	err := pool.Enqueue(context.Background(), Task{
		Name:    "flaky",
		Options: Options{Attempts: 3, Backoff: Backoff{Type: BackoffFixed, Delay: time.Millisecond}},
	})
	require.NoError(t, err)

	select {
	case <-done:
		assert.Equal(t, int32(3), calls.Load())
	case <-time.After(time.Second):
		t.Fatal("task did not succeed within retry budget")
	}
}

func TestPoolStopsAfterAttemptBudget(t *testing.T) {
	var calls atomic.Int32
	pool := NewPool(map[string]Handler{
		"broken": func(_ context.Context, _ []byte) error {
			calls.Add(1)
			return errors.New("permanent")
		},
	}, nil)

	err := pool.Enqueue(context.Background(), Task{
		Name:    "broken",
		Options: Options{Attempts: 2, Backoff: Backoff{Delay: time.Millisecond}},
	})
	require.NoError(t, err)
	pool.Close(time.Second)

	assert.Equal(t, int32(2), calls.Load())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	release := make(chan struct{})

	pool := NewPool(map[string]Handler{
		"slow": func(_ context.Context, _ []byte) error {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			<-release
			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		},
	}, nil)

	for i := 0; i < 6; i++ {
		err := pool.Enqueue(context.Background(), Task{
			Name:    "slow",
			Options: Options{Concurrency: 2},
		})
		require.NoError(t, err)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	pool.Close(time.Second)

	assert.Equal(t, 2, peak)
}

func TestPoolRejectsAfterClose(t *testing.T) {
	pool := NewPool(map[string]Handler{
		"echo": func(_ context.Context, _ []byte) error { return nil },
	}, nil)
	pool.Close(time.Second)

	err := pool.Enqueue(context.Background(), Task{Name: "echo"})
	assert.Error(t, err)
}

func TestBackoffDelay(t *testing.T) {
	fixed := Backoff{Type: BackoffFixed, Delay: 10 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, backoffDelay(fixed, 1))
	assert.Equal(t, 10*time.Millisecond, backoffDelay(fixed, 4))

	exp := Backoff{Type: BackoffExponential, Delay: 10 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, backoffDelay(exp, 1))
	assert.Equal(t, 40*time.Millisecond, backoffDelay(exp, 3))
}

func TestRecordingRunnerCaptures(t *testing.T) {
	rec := &Recording{}
	require.NoError(t, rec.Enqueue(context.Background(), Task{Name: "a"}))
	require.NoError(t, rec.Enqueue(context.Background(), Task{Name: "b"}))
	require.NoError(t, rec.Enqueue(context.Background(), Task{Name: "a"}))

	assert.Len(t, rec.Tasks(), 3)
	assert.Len(t, rec.Named("a"), 2)
}
