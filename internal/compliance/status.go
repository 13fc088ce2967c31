// Package compliance holds the directional compliance state machine. This is
// pure domain logic - no I/O, no side effects - so it is safe to consult on
// every transfer request, unboundedly often and concurrently.
package compliance

import "strings"

// Status is the single compliance state every investor carries. Exactly one
// value per investor at any time. Transitions are total: any status can move
// to any other through the execution engine. Transfer permission is
// directional, not symmetric - see Validate.
type Status string

const (
	// StatusApproved investors can both send and receive.
	StatusApproved Status = "APPROVED"

	// StatusFrozen investors can do neither; holdings are locked in place.
	StatusFrozen Status = "FROZEN"

	// StatusGrandfathered investors can exit (sell) but not add (buy)
	// positions. This keeps a regulatory change from trapping capital.
	StatusGrandfathered Status = "GRANDFATHERED"

	// StatusUnauthorized investors can do neither, and it is also the
	// fail-closed default for any status value we do not recognize.
	StatusUnauthorized Status = "UNAUTHORIZED"
)

// All lists every valid status, in the contract's integer encoding order.
func All() []Status {
	return []Status{StatusUnauthorized, StatusApproved, StatusGrandfathered, StatusFrozen}
}

// Parse normalizes a status string case-insensitively. Unrecognized values
// fail closed to UNAUTHORIZED; ok reports whether the input was recognized so
// the caller can log the anomaly.
func Parse(s string) (status Status, ok bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusApproved:
		return StatusApproved, true
	case StatusFrozen:
		return StatusFrozen, true
	case StatusGrandfathered:
		return StatusGrandfathered, true
	case StatusUnauthorized:
		return StatusUnauthorized, true
	default:
		return StatusUnauthorized, false
	}
}

// CanSend reports whether an investor with this status may reduce a position.
func CanSend(s Status) bool {
	return s == StatusApproved || s == StatusGrandfathered
}

// CanReceive reports whether an investor with this status may add a position.
func CanReceive(s Status) bool {
	return s == StatusApproved
}

// IsBlocked reports whether this status blocks all transfer activity.
func IsBlocked(s Status) bool {
	return s == StatusFrozen || s == StatusUnauthorized
}
