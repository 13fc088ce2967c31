package compliance

import "fmt"

// ValidationResult explains a transfer decision in both directions so callers
// can surface which side blocked.
type ValidationResult struct {
	Allowed             bool   `json:"allowed"`
	Reason              string `json:"reason,omitempty"`
	SenderCanSend       bool   `json:"senderCanSend"`
	RecipientCanReceive bool   `json:"recipientCanReceive"`
}

// Validate applies the directional transfer rules. Sender is evaluated first
// and a blocked sender fails fast - the recipient is never consulted. The
// rule set, in priority order:
//
//  1. sender FROZEN or UNAUTHORIZED blocks immediately
//  2. sender APPROVED or GRANDFATHERED may send
//  3. recipient APPROVED may receive; every other recipient status blocks
//     with a status-specific reason
//
// allowed = senderCanSend && recipientCanReceive.
func Validate(sender, recipient Status) ValidationResult {
	if IsBlocked(sender) {
		return ValidationResult{
			Allowed: false,
			Reason:  fmt.Sprintf("sender status %s blocks all transfers", sender),
		}
	}

	result := ValidationResult{SenderCanSend: CanSend(sender)}

	switch recipient {
	case StatusApproved:
		result.RecipientCanReceive = true
	case StatusGrandfathered:
		result.Reason = "recipient is GRANDFATHERED and cannot add new positions"
	case StatusFrozen:
		result.Reason = "recipient status FROZEN blocks incoming transfers"
	default:
		result.Reason = "recipient is not authorized to hold this asset"
	}

	result.Allowed = result.SenderCanSend && result.RecipientCanReceive
	return result
}
