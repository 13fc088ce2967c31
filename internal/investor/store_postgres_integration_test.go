//go:build integration

package investor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/internal/compliance"
	"tokengate/pkg/testutil/containers"
)

const investorSchema = `
CREATE TABLE IF NOT EXISTS investors (
	id                        TEXT PRIMARY KEY,
	token_id                  TEXT NOT NULL DEFAULT '',
	name                      TEXT NOT NULL DEFAULT '',
	wallet_address            TEXT NOT NULL DEFAULT '',
	jurisdiction              TEXT NOT NULL DEFAULT '',
	classification            TEXT NOT NULL DEFAULT 'retail',
	kyc_approved              BOOLEAN NOT NULL DEFAULT FALSE,
	accredited                BOOLEAN NOT NULL DEFAULT FALSE,
	compliance_status         TEXT NOT NULL DEFAULT 'UNAUTHORIZED',
	compliance_status_reason  TEXT NOT NULL DEFAULT '',
	compliance_status_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	grace_period_ends_at      TIMESTAMPTZ,
	onchain_synced            BOOLEAN NOT NULL DEFAULT FALSE,
	onchain_synced_at         TIMESTAMPTZ,
	onchain_tx_hash           TEXT NOT NULL DEFAULT ''
)`

func newPostgresFixture(t *testing.T) *PostgresStore {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, investorSchema)
	return NewPostgresStore(pg.DB)
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := newPostgresFixture(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	inv := &Investor{
		ID:                 "inv-1",
		TokenID:            "tok-1",
		Name:               "Alice Holdings LLC",
		WalletAddress:      "0xab12cd34ef56ab12cd34ef56ab12cd34ef56ab12",
		Jurisdiction:       "US",
		Classification:     ClassificationAccredited,
		KYCApproved:        true,
		Accredited:         true,
		ComplianceStatus:   compliance.StatusApproved,
		ComplianceStatusAt: now,
	}
	require.NoError(t, store.Put(ctx, inv))

	got, err := store.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, inv.WalletAddress, got.WalletAddress)
	assert.Equal(t, compliance.StatusApproved, got.ComplianceStatus)
	assert.True(t, got.ComplianceStatusAt.Equal(now))
}

func TestPostgresBulkSetStatusReportsUpdatedIDs(t *testing.T) {
	store := newPostgresFixture(t)
	ctx := context.Background()

	for _, id := range []string{"inv-1", "inv-2"} {
		require.NoError(t, store.Put(ctx, &Investor{
			ID:               id,
			ComplianceStatus: compliance.StatusApproved,
			OnChainSynced:    true,
		}))
	}

	updated, err := store.BulkSetStatus(ctx, []string{"inv-1", "inv-2", "inv-missing"}, StatusChange{
		Status: compliance.StatusGrandfathered,
		Reason: "grandfathered under proposal prop-9",
		At:     time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"inv-1", "inv-2"}, updated)

	got, err := store.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, compliance.StatusGrandfathered, got.ComplianceStatus)
	assert.False(t, got.OnChainSynced)
	assert.Empty(t, got.OnChainTxHash)
}

func TestPostgresBulkSetStatusWhereMatchesReason(t *testing.T) {
	store := newPostgresFixture(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &Investor{
		ID:                     "inv-match",
		ComplianceStatus:       compliance.StatusGrandfathered,
		ComplianceStatusReason: "grandfathered under proposal prop-9",
	}))
	require.NoError(t, store.Put(ctx, &Investor{
		ID:                     "inv-other",
		ComplianceStatus:       compliance.StatusGrandfathered,
		ComplianceStatusReason: "grandfathered under proposal prop-77",
	}))

	updated, err := store.BulkSetStatusWhere(ctx, compliance.StatusGrandfathered, "prop-9", StatusChange{
		Status: compliance.StatusApproved,
		Reason: "reverted",
		At:     time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"inv-match"}, updated)
}

func TestPostgresMarkSyncedAndPendingSync(t *testing.T) {
	store := newPostgresFixture(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &Investor{
		ID:               "inv-1",
		WalletAddress:    "0xab12cd34ef56ab12cd34ef56ab12cd34ef56ab12",
		ComplianceStatus: compliance.StatusApproved,
	}))

	pending, err := store.ListPendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, store.MarkSynced(ctx, []string{"inv-1"}, "0xtx1", time.Now().UTC()))

	pending, err = store.ListPendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := store.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.True(t, got.OnChainSynced)
	assert.Equal(t, "0xtx1", got.OnChainTxHash)
}

func TestPostgresListExpiredGrace(t *testing.T) {
	store := newPostgresFixture(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-24 * time.Hour)
	future := time.Now().UTC().Add(24 * time.Hour)
	require.NoError(t, store.Put(ctx, &Investor{
		ID: "inv-expired", ComplianceStatus: compliance.StatusGrandfathered, GracePeriodEndsAt: &past,
	}))
	require.NoError(t, store.Put(ctx, &Investor{
		ID: "inv-active", ComplianceStatus: compliance.StatusGrandfathered, GracePeriodEndsAt: &future,
	}))

	expired, err := store.ListExpiredGrace(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "inv-expired", expired[0].ID)
}
