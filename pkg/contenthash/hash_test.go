package contenthash

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHash_Deterministic(t *testing.T) {
	a := Hash("0xabc", "chainalysis", "2026-08")
	b := Hash("0xabc", "chainalysis", "2026-08")
	assert.Equal(t, a, b)
	assert.True(t, len(a) == 66, "0x prefix plus 64 hex chars")
}

func TestHash_OrderSensitive(t *testing.T) {
	assert.NotEqual(t, Hash("a", "b"), Hash("b", "a"))
}

func TestHashSorted_OrderInsensitive(t *testing.T) {
	assert.Equal(t, HashSorted([]string{"US", "SG"}), HashSorted([]string{"SG", "US"}))
}

func TestHashSorted_DoesNotMutateInput(t *testing.T) {
	in := []string{"US", "SG"}
	HashSorted(in)
	assert.Equal(t, []string{"US", "SG"}, in)
}

func TestScreeningAttestation_TimezoneNormalized(t *testing.T) {
	utc := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	est := utc.In(time.FixedZone("EST", -5*3600))
	assert.Equal(t,
		ScreeningAttestation("0xabc", "ofac", "v3", utc),
		ScreeningAttestation("0xabc", "ofac", "v3", est),
	)
}

func TestSyncDigest_PairsBindIDToStatus(t *testing.T) {
	a := SyncDigest([]string{"i1", "i2"}, []string{"APPROVED", "FROZEN"})
	b := SyncDigest([]string{"i2", "i1"}, []string{"FROZEN", "APPROVED"})
	c := SyncDigest([]string{"i1", "i2"}, []string{"FROZEN", "APPROVED"})
	assert.Equal(t, a, b, "same pairs in different order")
	assert.NotEqual(t, a, c, "same ids with swapped statuses")
}
