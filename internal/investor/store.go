package investor

import (
	"context"
	"time"

	"tokengate/internal/compliance"
)

// Store is the persistence contract for investors. Per-investor mutations are
// serialized at the repository level; bulk operations are not atomic as a
// whole, and implementations report which ids were actually updated so
// partial application stays observable.
type Store interface {
	// Put inserts or replaces an investor.
	Put(ctx context.Context, inv *Investor) error

	// Get returns sentinel.ErrNotFound (wrapped) when absent.
	Get(ctx context.Context, id string) (*Investor, error)

	// ListByIDs returns the investors that exist; absent ids are silently
	// omitted so the caller can diff requested vs. found.
	ListByIDs(ctx context.Context, ids []string) ([]*Investor, error)

	// ListByToken returns every investor whitelisted for a token.
	ListByToken(ctx context.Context, tokenID string) ([]*Investor, error)

	// BulkSetStatus applies one status change to the id set and returns the
	// ids actually updated. It stamps ComplianceStatusAt, overwrites the
	// grace period with change.GracePeriodEndsAt, and clears sync flags on
	// the rows it touches.
	BulkSetStatus(ctx context.Context, ids []string, change StatusChange) (updated []string, err error)

	// BulkSetStatusWhere is BulkSetStatus restricted to rows currently in
	// fromStatus whose reason contains reasonContains. Used by revert.
	BulkSetStatusWhere(ctx context.Context, fromStatus compliance.Status, reasonContains string, change StatusChange) (updated []string, err error)

	// ClearSyncFlags forces re-reconciliation for the id set, regardless of
	// current status.
	ClearSyncFlags(ctx context.Context, ids []string) error

	// MarkSynced records a confirmed on-chain write for exactly these ids.
	MarkSynced(ctx context.Context, ids []string, txHash string, at time.Time) error

	// ListExpiredGrace returns investors whose grace period passed before asOf.
	ListExpiredGrace(ctx context.Context, asOf time.Time) ([]*Investor, error)

	// ListPendingSync returns investors awaiting on-chain reconciliation.
	ListPendingSync(ctx context.Context, limit int) ([]*Investor, error)
}
