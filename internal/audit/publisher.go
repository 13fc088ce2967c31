package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tokengate/pkg/requestcontext"
)

// Sink receives a copy of every persisted entry; the kafka publisher
// implements it. Sink delivery is best-effort, the store write is not.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// Publisher writes audit entries with fail-closed semantics: the store append
// is synchronous and an error from it must fail the calling operation. Sinks
// (the kafka stream) are fed after the append and never fail the caller.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithSink attaches a downstream event sink.
func WithSink(sink Sink) Option {
	return func(p *Publisher) { p.sink = sink }
}

// WithLogger sets a logger for sink delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher creates an audit publisher over the given store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit validates, stamps, and persists an entry. Returns an error when the
// entry is invalid or the store append fails - the caller must then fail its
// operation.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("audit entry invalid: %w", err)
	}

	if err := p.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, entry); err != nil && p.logger != nil {
			p.logger.WarnContext(ctx, "audit sink delivery failed",
				"entry_id", entry.ID,
				"action", entry.Action,
				"error", err,
			)
		}
	}
	return nil
}

// EmitAll emits entries one by one and returns the first persistence error.
func (p *Publisher) EmitAll(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := p.Emit(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// NewCase opens a compliance case ticket.
func NewCase(kind CaseKind, entityID, openedBy string, at time.Time) Case {
	return Case{
		ID:       uuid.NewString(),
		Kind:     kind,
		EntityID: entityID,
		Status:   "open",
		OpenedAt: at,
		OpenedBy: openedBy,
	}
}
