// Package tasks defines the background task boundary. Business operations
// enqueue work and never await completion; an operation's own success is
// independent of the task outcome.
package tasks

import (
	"context"
	"time"
)

// BackoffType selects the retry delay curve.
type BackoffType string

const (
	BackoffFixed       BackoffType = "fixed"
	BackoffExponential BackoffType = "exponential"
)

// Backoff controls retry pacing.
type Backoff struct {
	Type  BackoffType
	Delay time.Duration
}

// RateLimit caps task starts to Max per window.
type RateLimit struct {
	Max   int
	PerMs int
}

// Options tunes retry and throughput per task kind.
type Options struct {
	Attempts    int
	Backoff     Backoff
	Concurrency int
	RateLimit   RateLimit
}

// Task is one unit of background work. Payload must be self-contained:
// handlers are at-least-once and must be idempotent.
type Task struct {
	Name    string
	Payload []byte
	Options Options
}

// Handler executes one task attempt.
type Handler func(ctx context.Context, payload []byte) error

// Runner enqueues tasks for asynchronous execution. Enqueue returns once the
// task is accepted, not once it has run.
type Runner interface {
	Enqueue(ctx context.Context, task Task) error
}
