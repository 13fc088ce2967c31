// Package cache provides the shared TTL cache used by the conflict resolver
// and the screening chain. A redis-backed store serves as the primary with an
// in-process store as fallback, so a redis outage degrades to per-instance
// caching instead of failing reads.
//
// Two logical namespaces exist by convention:
//
//	live:  recent results served in place of an upstream call
//	fb:    longer-lived fallback safety net read when upstream is down
//
// Check-then-write is not atomic by contract. Duplicate concurrent upstream
// calls for the same key are acceptable (the upstream call is an idempotent
// read) and result only in redundant cache writes.
package cache

import (
	"context"
	"time"
)

// Cache is the minimal TTL key-value contract.
type Cache interface {
	// Get returns the value and whether it was present. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value with a bounded expiry. ttl must be positive.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Namespace wraps a Cache with a key prefix.
type Namespace struct {
	inner  Cache
	prefix string
}

// NewNamespace creates a prefixed view over a cache.
func NewNamespace(inner Cache, prefix string) *Namespace {
	return &Namespace{inner: inner, prefix: prefix}
}

func (n *Namespace) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *Namespace) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return n.inner.Set(ctx, n.prefix+key, value, ttl)
}

func (n *Namespace) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}
