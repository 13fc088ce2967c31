package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency bounds in-flight tasks per name when the enqueuer
// does not specify one.
const DefaultConcurrency = 5

// DefaultAttempts is the retry budget when the enqueuer does not specify one.
const DefaultAttempts = 3

// Pool is an in-process Runner. Each task name gets its own concurrency
// bound and rate window, sized from the first task enqueued under that name.
// At-least-once semantics: a handler that returns an error is retried up to
// the attempt budget with the configured backoff.
type Pool struct {
	logger   *slog.Logger
	handlers map[string]Handler

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// lane is the per-name execution state.
type lane struct {
	sem    *semaphore.Weighted
	window *rateWindow
}

// NewPool creates a Pool with the given task handlers, keyed by task name.
func NewPool(handlers map[string]Handler, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		logger:   logger,
		handlers: handlers,
		lanes:    make(map[string]*lane),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Enqueue accepts a task and runs it asynchronously. It fails only when the
// task name has no registered handler or the pool is closed; handler failures
// are retried in the background and ultimately logged, never returned.
func (p *Pool) Enqueue(ctx context.Context, task Task) error {
	handler, ok := p.handlers[task.Name]
	if !ok {
		return fmt.Errorf("no handler registered for task %q", task.Name)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("task pool is closed")
	}
	ln := p.laneFor(task)
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(ln, handler, task)
	return nil
}

// laneFor returns the per-name lane, creating it from the task's options on
// first use. Callers hold p.mu.
func (p *Pool) laneFor(task Task) *lane {
	if ln, ok := p.lanes[task.Name]; ok {
		return ln
	}
	concurrency := task.Options.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	ln := &lane{sem: semaphore.NewWeighted(int64(concurrency))}
	if rl := task.Options.RateLimit; rl.Max > 0 && rl.PerMs > 0 {
		ln.window = newRateWindow(rl.Max, time.Duration(rl.PerMs)*time.Millisecond)
	}
	p.lanes[task.Name] = ln
	return ln
}

func (p *Pool) run(ln *lane, handler Handler, task Task) {
	defer p.wg.Done()

	if err := ln.sem.Acquire(p.baseCtx, 1); err != nil {
		p.logger.Warn("task dropped during shutdown", "task", task.Name)
		return
	}
	defer ln.sem.Release(1)

	if ln.window != nil {
		if err := ln.window.wait(p.baseCtx); err != nil {
			p.logger.Warn("task dropped during shutdown", "task", task.Name)
			return
		}
	}

	attempts := task.Options.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = handler(p.baseCtx, task.Payload)
		if err == nil {
			return
		}
		if attempt == attempts {
			break
		}
		delay := backoffDelay(task.Options.Backoff, attempt)
		p.logger.Warn("task attempt failed, retrying",
			"task", task.Name, "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-p.baseCtx.Done():
			return
		}
	}
	p.logger.Error("task exhausted retry budget",
		"task", task.Name, "attempts", attempts, "error", err)
}

// Close stops accepting tasks and waits for in-flight work, up to the
// given timeout.
func (p *Pool) Close(timeout time.Duration) {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		p.logger.Warn("task pool close timed out, abandoning in-flight tasks")
	}
	p.cancel()
}

func backoffDelay(b Backoff, attempt int) time.Duration {
	delay := b.Delay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	if b.Type == BackoffExponential {
		for i := 1; i < attempt; i++ {
			delay *= 2
		}
	}
	return delay
}

// rateWindow is a sliding-window rate limiter: at most max starts per
// window duration.
type rateWindow struct {
	mu     sync.Mutex
	max    int
	per    time.Duration
	starts []time.Time
}

func newRateWindow(max int, per time.Duration) *rateWindow {
	return &rateWindow{max: max, per: per}
}

// wait blocks until a start slot is available or the context is done.
func (w *rateWindow) wait(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-w.per)
		kept := w.starts[:0]
		for _, t := range w.starts {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		w.starts = kept
		if len(w.starts) < w.max {
			w.starts = append(w.starts, now)
			w.mu.Unlock()
			return nil
		}
		oldest := w.starts[0]
		w.mu.Unlock()

		select {
		case <-time.After(w.per - now.Sub(oldest)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
