// Package advisory resolves cross-jurisdiction regulatory conflicts through a
// remote AI classifier, with a cached, confidence-scored degrade ladder:
// live call, then fallback cache, then a static strictest policy. The ladder
// guarantees Resolve never returns an error and never silently approves under
// uncertainty.
package advisory

import "time"

// ConfidenceThreshold is the floor below which a resolution always requires
// manual review, matching the advisory service contract.
const ConfidenceThreshold = 0.70

// Origin tells where a result came from. The legacy IsFallback boolean
// conflated the cache and static tiers; Origin keeps them distinct while
// IsFallback remains derivable for older consumers.
type Origin string

const (
	OriginLive   Origin = "live"
	OriginCache  Origin = "cache"
	OriginStatic Origin = "static"
)

// ConflictType classifies a detected regulatory conflict.
type ConflictType string

const (
	ConflictJurisdiction  ConflictType = "jurisdiction"
	ConflictAccreditation ConflictType = "accreditation"
	ConflictLockup        ConflictType = "lockup"
	ConflictDisclosure    ConflictType = "disclosure"
)

// Conflict is one detected clash between two jurisdictions' rules.
type Conflict struct {
	Type          ConflictType `json:"type"`
	Jurisdictions []string     `json:"jurisdictions"`
	RuleA         string       `json:"ruleA"`
	RuleB         string       `json:"ruleB"`
	Description   string       `json:"description"`
}

// Resolution is the advisory service's proposed handling of one conflict.
type Resolution struct {
	ConflictType        ConflictType `json:"conflictType"`
	Strategy            string       `json:"strategy"`
	ResolvedRequirement string       `json:"resolvedRequirement"`
	Rationale           string       `json:"rationale"`
}

// CombinedRequirements is the merged requirement set across jurisdictions.
type CombinedRequirements struct {
	AccreditedOnly       bool     `json:"accreditedOnly"`
	MinInvestment        int64    `json:"minInvestment"`
	MaxInvestors         int      `json:"maxInvestors"`
	LockupDays           int      `json:"lockupDays"`
	RequiredDisclosures  []string `json:"requiredDisclosures"`
	TransferRestrictions []string `json:"transferRestrictions"`
}

// Result is one conflict-resolution outcome. Immutable once produced:
// re-resolution creates a new result, never mutates a cached one.
type Result struct {
	HasConflicts         bool                 `json:"hasConflicts"`
	Conflicts            []Conflict           `json:"conflicts"`
	Resolutions          []Resolution         `json:"resolutions"`
	Combined             CombinedRequirements `json:"combinedRequirements"`
	Confidence           float64              `json:"confidence"`
	RequiresManualReview bool                 `json:"requiresManualReview"`
	RulesetVersion       string               `json:"rulesetVersion"`
	ModelVersion         string               `json:"modelVersion,omitempty"`
	Approved             bool                 `json:"approved"`
	Origin               Origin               `json:"origin"`
	IsFallback           bool                 `json:"isFallback"`
	ResolvedAt           time.Time            `json:"resolvedAt"`
}

// HasBlockingConflicts reports whether any jurisdiction conflict lacks a
// matching resolution. Blocking conflicts veto approval regardless of
// confidence.
func (r *Result) HasBlockingConflicts() bool {
	for _, c := range r.Conflicts {
		if c.Type != ConflictJurisdiction {
			continue
		}
		resolved := false
		for _, res := range r.Resolutions {
			if res.ConflictType == c.Type {
				resolved = true
				break
			}
		}
		if !resolved {
			return true
		}
	}
	return false
}

// Input describes what to resolve.
type Input struct {
	Jurisdictions []string
	AssetType     string
	InvestorTypes []string

	// Document, when non-empty, enables the richer mode: a document
	// classifier runs first and its detected jurisdictions merge into the
	// advisory request. The degrade ladder is unchanged.
	Document string
}
