package reconciler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/internal/compliance"
	"tokengate/internal/investor"
)

func wallet(n int) string {
	return fmt.Sprintf("0x%040x", n+1)
}

func seedInvestor(t *testing.T, store *investor.MemoryStore, id, address string, status compliance.Status) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), &investor.Investor{
		ID:               id,
		WalletAddress:    address,
		ComplianceStatus: status,
	}))
}

func newReconciler(t *testing.T) (*Reconciler, *investor.MemoryStore, *FakeRegistry, *MemorySyncStore) {
	t.Helper()
	investors := investor.NewMemoryStore()
	registry := NewFakeRegistry()
	records := NewMemorySyncStore()
	r := New(investors, registry, records, wallet(999), 31337,
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }))
	return r, investors, registry, records
}

func TestSyncBatchConfirmsAndMarksExactlySubmitted(t *testing.T) {
	r, investors, registry, records := newReconciler(t)
	seedInvestor(t, investors, "inv-1", wallet(1), compliance.StatusApproved)
	seedInvestor(t, investors, "inv-2", wallet(2), compliance.StatusGrandfathered)

	result, err := r.SyncBatch(context.Background(), []string{"inv-1", "inv-2"})
	require.NoError(t, err)

	assert.True(t, result.Confirmed)
	assert.ElementsMatch(t, []string{"inv-1", "inv-2"}, result.SubmittedIDs)
	assert.NotEmpty(t, result.TxHash)

	for _, id := range []string{"inv-1", "inv-2"} {
		inv, err := investors.Get(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, inv.OnChainSynced, id)
		assert.Equal(t, result.TxHash, inv.OnChainTxHash, id)
	}

	chain, err := registry.GetStatus(context.Background(), wallet(2))
	require.NoError(t, err)
	assert.Equal(t, uint8(2), chain.Code)

	recs := records.All()
	require.Len(t, recs, 1)
	assert.Equal(t, SyncConfirmed, recs[0].SyncStatus)
	assert.ElementsMatch(t, []string{"inv-1", "inv-2"}, recs[0].EntityIDs)
}

func TestSyncBatchExcludesMalformedAddresses(t *testing.T) {
	r, investors, _, _ := newReconciler(t)
	seedInvestor(t, investors, "inv-good", wallet(1), compliance.StatusApproved)
	seedInvestor(t, investors, "inv-bad", "not-an-address", compliance.StatusApproved)

	result, err := r.SyncBatch(context.Background(), []string{"inv-good", "inv-bad"})
	require.NoError(t, err)

	assert.Equal(t, []string{"inv-good"}, result.SubmittedIDs)
	assert.Contains(t, result.SkippedIDs, "inv-bad")

	bad, err := investors.Get(context.Background(), "inv-bad")
	require.NoError(t, err)
	assert.False(t, bad.OnChainSynced)
}

func TestSyncBatchSkipsAlreadySynced(t *testing.T) {
	r, investors, registry, _ := newReconciler(t)
	seedInvestor(t, investors, "inv-1", wallet(1), compliance.StatusApproved)
	require.NoError(t, investors.MarkSynced(context.Background(), []string{"inv-1"}, "0xold", time.Now()))

	result, err := r.SyncBatch(context.Background(), []string{"inv-1"})
	require.NoError(t, err)

	assert.Empty(t, result.SubmittedIDs)
	assert.Zero(t, registry.Calls)
}

func TestSyncBatchSkipsUnmappableStatus(t *testing.T) {
	r, investors, _, _ := newReconciler(t)
	seedInvestor(t, investors, "inv-odd", wallet(1), compliance.Status("PENDING"))
	seedInvestor(t, investors, "inv-ok", wallet(2), compliance.StatusApproved)

	result, err := r.SyncBatch(context.Background(), []string{"inv-odd", "inv-ok"})
	require.NoError(t, err)

	assert.Equal(t, []string{"inv-ok"}, result.SubmittedIDs)
	assert.Contains(t, result.SkippedIDs, "inv-odd")
}

func TestSyncBatchFailureLeavesFlagsUntouched(t *testing.T) {
	r, investors, registry, records := newReconciler(t)
	seedInvestor(t, investors, "inv-1", wallet(1), compliance.StatusApproved)
	registry.FailNext = true

	result, err := r.SyncBatch(context.Background(), []string{"inv-1"})
	require.NoError(t, err)

	assert.False(t, result.Confirmed)

	inv, err := investors.Get(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.False(t, inv.OnChainSynced)
	assert.Empty(t, inv.OnChainTxHash)

	recs := records.All()
	require.Len(t, recs, 1)
	assert.Equal(t, SyncFailed, recs[0].SyncStatus)
	assert.NotEmpty(t, recs[0].Error)
}

func TestSyncBatchCapsAtMaxBatchSize(t *testing.T) {
	r, investors, _, _ := newReconciler(t)
	ids := make([]string, 0, MaxBatchSize+10)
	for i := 0; i < MaxBatchSize+10; i++ {
		id := fmt.Sprintf("inv-%03d", i)
		seedInvestor(t, investors, id, wallet(i), compliance.StatusApproved)
		ids = append(ids, id)
	}

	result, err := r.SyncBatch(context.Background(), ids)
	require.NoError(t, err)

	assert.Len(t, result.SubmittedIDs, MaxBatchSize)
	assert.Len(t, result.SkippedIDs, 10)
}

func TestSyncBatchHonorsConfiguredBatchSize(t *testing.T) {
	investors := investor.NewMemoryStore()
	r := New(investors, NewFakeRegistry(), NewMemorySyncStore(), wallet(999), 31337,
		WithBatchSize(5))
	ids := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("inv-%03d", i)
		seedInvestor(t, investors, id, wallet(i), compliance.StatusApproved)
		ids = append(ids, id)
	}

	result, err := r.SyncBatch(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, result.SubmittedIDs, 5)
	assert.Len(t, result.SkippedIDs, 3)
}

func TestWithBatchSizeClampsToContractMax(t *testing.T) {
	r := New(investor.NewMemoryStore(), NewFakeRegistry(), NewMemorySyncStore(), wallet(999), 31337,
		WithBatchSize(MaxBatchSize*4))
	assert.Equal(t, MaxBatchSize, r.batchSize)

	r = New(investor.NewMemoryStore(), NewFakeRegistry(), NewMemorySyncStore(), wallet(999), 31337,
		WithBatchSize(0))
	assert.Equal(t, 1, r.batchSize)
}

func TestSyncBatchEmptyCohortIsNoOp(t *testing.T) {
	r, _, registry, _ := newReconciler(t)

	result, err := r.SyncBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.Confirmed)
	assert.Zero(t, registry.Calls)
}

func TestSweepPendingSyncsAwaitingInvestors(t *testing.T) {
	r, investors, _, _ := newReconciler(t)
	seedInvestor(t, investors, "inv-1", wallet(1), compliance.StatusFrozen)

	result, err := r.SweepPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"inv-1"}, result.SubmittedIDs)
}

func TestVerifyDetectsDrift(t *testing.T) {
	r, investors, registry, _ := newReconciler(t)
	seedInvestor(t, investors, "inv-1", wallet(1), compliance.StatusApproved)

	// Not yet synced: chain still holds the zero value (UNAUTHORIZED).
	match, err := r.Verify(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.False(t, match)

	_, err = r.SyncBatch(context.Background(), []string{"inv-1"})
	require.NoError(t, err)

	match, err = r.Verify(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.True(t, match)

	// Simulate out-of-band chain mutation.
	_, err = registry.BatchUpdateStatus(context.Background(), []string{wallet(1)}, []uint8{3})
	require.NoError(t, err)

	match, err = r.Verify(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.False(t, match)
}

func TestVerifyRejectsMalformedAddress(t *testing.T) {
	r, investors, _, _ := newReconciler(t)
	seedInvestor(t, investors, "inv-bad", "nope", compliance.StatusApproved)

	_, err := r.Verify(context.Background(), "inv-bad")
	assert.Error(t, err)
}
