package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit entries from a channel and persists them. Services
// that cannot afford a synchronous store write (the ops-grade entries from
// sweeps) push here instead of calling the publisher directly.
type Worker struct {
	publisher *Publisher
	inbox     <-chan Entry
	logger    *slog.Logger
}

// NewWorker constructs a worker over the publisher.
func NewWorker(publisher *Publisher, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{publisher: publisher, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled. A failed append is
// logged and dropped; the worker never stops on a single bad entry.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.publisher.Emit(ctx, entry); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "audit worker append failed",
					"action", entry.Action,
					"entity_id", entry.EntityID,
					"error", err,
				)
			}
		}
	}
}
