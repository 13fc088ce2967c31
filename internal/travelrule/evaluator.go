package travelrule

import (
	"github.com/shopspring/decimal"
)

// Status is the travel-rule compliance state of one transfer.
type Status string

const (
	StatusExempt    Status = "EXEMPT"
	StatusPending   Status = "PENDING"
	StatusCompliant Status = "COMPLIANT"
)

// Evaluation is the outcome of one travel-rule check.
type Evaluation struct {
	ThresholdTriggered bool            `json:"thresholdTriggered"`
	ApplicableRegime   Regime          `json:"applicableRegime"`
	ThresholdUSD       decimal.Decimal `json:"thresholdUsd"`
	RequiredData       []string        `json:"requiredData"`
	MissingData        []string        `json:"missingData,omitempty"`
	Status             Status          `json:"status"`
}

// Evaluate checks a transfer against the travel rule. The stricter
// (lower-threshold) regime of the two parties governs. providedFields holds
// the identity data already collected, keyed by field name; a field counts
// as provided only when its value is non-empty.
func Evaluate(valueUSD decimal.Decimal, originatorJurisdiction, beneficiaryJurisdiction string, providedFields map[string]string) Evaluation {
	regime := stricterRegime(RegimeFor(originatorJurisdiction), RegimeFor(beneficiaryJurisdiction))
	threshold := Threshold(regime)
	required := RequiredFields(regime)

	eval := Evaluation{
		ApplicableRegime: regime,
		ThresholdUSD:     threshold,
		RequiredData:     required,
	}

	if valueUSD.LessThan(threshold) {
		eval.Status = StatusExempt
		return eval
	}
	eval.ThresholdTriggered = true

	for _, field := range required {
		if providedFields[field] == "" {
			eval.MissingData = append(eval.MissingData, field)
		}
	}
	if len(eval.MissingData) > 0 {
		eval.Status = StatusPending
		return eval
	}
	eval.Status = StatusCompliant
	return eval
}

func stricterRegime(a, b Regime) Regime {
	if Threshold(b).LessThan(Threshold(a)) {
		return b
	}
	return a
}
