//go:build integration

package screening

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/pkg/testutil/containers"
)

const screeningSchema = `
CREATE TABLE IF NOT EXISTS screening_results (
	id                     TEXT PRIMARY KEY,
	address                TEXT NOT NULL,
	jurisdiction           TEXT NOT NULL DEFAULT '',
	passed                 BOOLEAN NOT NULL,
	provider               TEXT NOT NULL,
	risk_score             INTEGER NOT NULL DEFAULT 0,
	flags                  TEXT[] NOT NULL DEFAULT '{}',
	requires_manual_review BOOLEAN NOT NULL DEFAULT FALSE,
	list_version           TEXT NOT NULL DEFAULT '',
	attestation            TEXT NOT NULL DEFAULT '',
	checked_at             TIMESTAMPTZ NOT NULL
)`

func newResultStoreFixture(t *testing.T) *PostgresResultStore {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, screeningSchema)
	return NewPostgresResultStore(pg.DB)
}

func TestPostgresResultStoreAppendAndList(t *testing.T) {
	store := newResultStoreFixture(t)
	ctx := context.Background()

	first := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	second := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.Append(ctx, Record{
		ID: "scr-1", Address: "0xabc", Jurisdiction: "US", Passed: true,
		Provider: "primary", ListVersion: "v3", Attestation: "hash-1", CheckedAt: first,
	}))
	require.NoError(t, store.Append(ctx, Record{
		ID: "scr-2", Address: "0xabc", Jurisdiction: "US", Passed: false,
		Provider: "secondary", RiskScore: 90, Flags: []string{"sanctions_match"},
		RequiresManualReview: true, Attestation: "hash-2", CheckedAt: second,
	}))
	require.NoError(t, store.Append(ctx, Record{
		ID: "scr-3", Address: "0xother", Passed: true, Provider: "primary", CheckedAt: second,
	}))

	records, err := store.ListByAddress(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "scr-1", records[0].ID)
	assert.Equal(t, "hash-1", records[0].Attestation)
	assert.True(t, records[0].Passed)

	assert.Equal(t, "scr-2", records[1].ID)
	assert.Equal(t, []string{"sanctions_match"}, records[1].Flags)
	assert.True(t, records[1].RequiresManualReview)
	assert.Equal(t, 90, records[1].RiskScore)
}

func TestPostgresResultStoreStampsMissingID(t *testing.T) {
	store := newResultStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Record{
		Address: "0xabc", Passed: true, Provider: "primary", CheckedAt: time.Now().UTC(),
	}))

	records, err := store.ListByAddress(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
}
