package tasks

import (
	"context"
	"sync"
)

// Noop is a Runner that accepts and discards every task. Useful where
// background work is intentionally disabled.
type Noop struct{}

func (Noop) Enqueue(_ context.Context, _ Task) error { return nil }

// Recording is a Runner for tests: it captures enqueued tasks and can be
// told to fail.
type Recording struct {
	mu    sync.Mutex
	tasks []Task

	// Err, when set, is returned by every Enqueue.
	Err error
}

func (r *Recording) Enqueue(_ context.Context, task Task) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return nil
}

// Tasks returns a copy of everything enqueued so far.
func (r *Recording) Tasks() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Named returns the enqueued tasks with the given name.
func (r *Recording) Named(name string) []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Task
	for _, t := range r.tasks {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}
