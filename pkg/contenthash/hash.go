// Package contenthash produces deterministic content hashes used to anchor
// off-chain facts on-chain without revealing PII. Inputs are canonicalized
// (sorted, pipe-joined) before hashing so the same fact always produces the
// same digest regardless of field ordering at the call site.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Hash returns the hex SHA-256 of the pipe-joined parts with a 0x prefix,
// matching the bytes32 convention of the registry contract.
func Hash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "0x" + hex.EncodeToString(sum[:])
}

// HashSorted hashes the parts in sorted order. Use when the input is a set
// (jurisdictions, investor ids) rather than a tuple.
func HashSorted(parts []string) string {
	sorted := make([]string, len(parts))
	copy(sorted, parts)
	sort.Strings(sorted)
	return Hash(sorted...)
}

// ScreeningAttestation binds a screening outcome to the subject, provider,
// and list version it was produced against. Persisted alongside the result
// for later on-chain attestation.
func ScreeningAttestation(address, provider, listVersion string, checkedAt time.Time) string {
	return Hash(address, provider, listVersion, checkedAt.UTC().Format(time.RFC3339))
}

// SyncDigest covers a reconciliation batch: the investor ids and the statuses
// submitted for them. Order-independent over pairs.
func SyncDigest(ids []string, statuses []string) string {
	pairs := make([]string, 0, len(ids))
	for i := range ids {
		status := ""
		if i < len(statuses) {
			status = statuses[i]
		}
		pairs = append(pairs, ids[i]+"="+status)
	}
	return HashSorted(pairs)
}
