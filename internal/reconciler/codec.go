// Package reconciler pushes off-chain compliance status to the registry
// contract and reconciles confirmations and failures back into the system
// of record.
package reconciler

import (
	"fmt"

	"tokengate/internal/compliance"
)

// statusCodes is the single source of truth for the contract's status
// encoding. The contract side is fixed; never reorder either column.
var statusCodes = map[compliance.Status]uint8{
	compliance.StatusUnauthorized:  0,
	compliance.StatusApproved:      1,
	compliance.StatusGrandfathered: 2,
	compliance.StatusFrozen:        3,
}

var codeStatuses = map[uint8]compliance.Status{
	0: compliance.StatusUnauthorized,
	1: compliance.StatusApproved,
	2: compliance.StatusGrandfathered,
	3: compliance.StatusFrozen,
}

// EncodeStatus maps a domain status to the contract encoding. Unknown
// statuses are reported, never defaulted.
func EncodeStatus(s compliance.Status) (uint8, error) {
	code, ok := statusCodes[s]
	if !ok {
		return 0, fmt.Errorf("status %q has no contract encoding", s)
	}
	return code, nil
}

// DecodeStatus maps a contract code back to the domain status.
func DecodeStatus(code uint8) (compliance.Status, error) {
	s, ok := codeStatuses[code]
	if !ok {
		return "", fmt.Errorf("contract code %d has no domain status", code)
	}
	return s, nil
}

// ValidateCodec asserts the two tables are exact inverses and cover every
// domain status. Called once at startup; a failure here means the binary
// must not serve.
func ValidateCodec() error {
	if len(statusCodes) != len(codeStatuses) {
		return fmt.Errorf("status codec tables differ in size: %d vs %d", len(statusCodes), len(codeStatuses))
	}
	for _, s := range compliance.All() {
		code, err := EncodeStatus(s)
		if err != nil {
			return err
		}
		back, err := DecodeStatus(code)
		if err != nil {
			return err
		}
		if back != s {
			return fmt.Errorf("status codec does not round-trip: %s -> %d -> %s", s, code, back)
		}
	}
	return nil
}
