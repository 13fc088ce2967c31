package advisory

import "time"

// FallbackRulesetVersion tags results produced without any advisory input.
const FallbackRulesetVersion = "fallback"

// staticFallback is the bottom of the degrade ladder: the strictest
// conservative policy, applied when the remote service and the fallback
// cache are both unavailable. Never approves, always flags for review.
func staticFallback(at time.Time) *Result {
	return &Result{
		HasConflicts: true,
		Conflicts: []Conflict{{
			Type:        ConflictJurisdiction,
			Description: "advisory service unavailable; conflicts could not be evaluated",
		}},
		Combined: CombinedRequirements{
			AccreditedOnly: true,
			MinInvestment:  1_000_000,
			MaxInvestors:   35,
			LockupDays:     365,
			RequiredDisclosures: []string{
				"full_offering_memorandum",
				"risk_disclosure_statement",
			},
			TransferRestrictions: []string{"manual_approval_required"},
		},
		Confidence:           0.0,
		RequiresManualReview: true,
		RulesetVersion:       FallbackRulesetVersion,
		Approved:             false,
		Origin:               OriginStatic,
		IsFallback:           true,
		ResolvedAt:           at,
	}
}
