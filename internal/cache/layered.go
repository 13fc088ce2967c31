package cache

import (
	"context"
	"log/slog"
	"time"
)

// Layered reads from the shared store first and falls back to the in-process
// store when the shared store errors or is absent. Writes go to both,
// best-effort on the shared side: a redis outage must never fail a caller
// that only wanted to cache a result.
type Layered struct {
	shared Cache // nil when redis is not configured
	local  Cache
	logger *slog.Logger
}

// NewLayered constructs the two-tier cache. shared may be nil.
func NewLayered(shared Cache, local Cache, logger *slog.Logger) *Layered {
	return &Layered{shared: shared, local: local, logger: logger}
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if l.shared != nil {
		val, ok, err := l.shared.Get(ctx, key)
		if err == nil {
			if ok {
				return val, true, nil
			}
		} else if l.logger != nil {
			l.logger.WarnContext(ctx, "shared cache read failed, using local tier",
				"key", key,
				"error", err,
			)
		}
	}
	return l.local.Get(ctx, key)
}

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if l.shared != nil {
		if err := l.shared.Set(ctx, key, value, ttl); err != nil && l.logger != nil {
			l.logger.WarnContext(ctx, "shared cache write failed",
				"key", key,
				"error", err,
			)
		}
	}
	return l.local.Set(ctx, key, value, ttl)
}

func (l *Layered) Delete(ctx context.Context, key string) error {
	if l.shared != nil {
		if err := l.shared.Delete(ctx, key); err != nil && l.logger != nil {
			l.logger.WarnContext(ctx, "shared cache delete failed",
				"key", key,
				"error", err,
			)
		}
	}
	return l.local.Delete(ctx, key)
}
