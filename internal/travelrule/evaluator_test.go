package travelrule

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateBelowThresholdIsExempt(t *testing.T) {
	eval := Evaluate(decimal.NewFromInt(500), "US", "US", nil)

	assert.False(t, eval.ThresholdTriggered)
	assert.Equal(t, StatusExempt, eval.Status)
	assert.Equal(t, RegimeFinCEN, eval.ApplicableRegime)
}

func TestEvaluateStricterRegimeGoverns(t *testing.T) {
	// US on its own is FinCEN (3000); DE pulls the pair down to EU-TFR (0).
	eval := Evaluate(decimal.NewFromInt(500), "US", "DE", nil)

	assert.True(t, eval.ThresholdTriggered)
	assert.Equal(t, RegimeEUTFR, eval.ApplicableRegime)
	assert.Equal(t, StatusPending, eval.Status)
}

func TestEvaluateTriggeredWithoutDataIsPending(t *testing.T) {
	eval := Evaluate(decimal.NewFromInt(5000), "US", "US", nil)

	assert.True(t, eval.ThresholdTriggered)
	assert.Equal(t, StatusPending, eval.Status)
	assert.ElementsMatch(t, eval.RequiredData, eval.MissingData)
}

func TestEvaluateCompleteDataIsCompliant(t *testing.T) {
	fields := map[string]string{
		FieldOriginatorName:     "Alice Holdings LLC",
		FieldOriginatorAccount:  "0xabc",
		FieldOriginatorAddress:  "1 Main St",
		FieldBeneficiaryName:    "Bob Capital LP",
		FieldBeneficiaryAccount: "0xdef",
	}
	eval := Evaluate(decimal.NewFromInt(5000), "US", "US", fields)

	assert.Equal(t, StatusCompliant, eval.Status)
	assert.Empty(t, eval.MissingData)
}

func TestEvaluateEmptyFieldValueCountsAsMissing(t *testing.T) {
	fields := map[string]string{
		FieldOriginatorName:     "",
		FieldOriginatorAccount:  "0xabc",
		FieldOriginatorAddress:  "1 Main St",
		FieldBeneficiaryName:    "Bob Capital LP",
		FieldBeneficiaryAccount: "0xdef",
	}
	eval := Evaluate(decimal.NewFromInt(5000), "US", "US", fields)

	assert.Equal(t, StatusPending, eval.Status)
	assert.Equal(t, []string{FieldOriginatorName}, eval.MissingData)
}

func TestEvaluateRequiredFieldsVaryPerRegime(t *testing.T) {
	fincen := Evaluate(decimal.NewFromInt(5000), "US", "US", nil)
	eutfr := Evaluate(decimal.NewFromInt(5000), "DE", "DE", nil)

	assert.NotContains(t, fincen.RequiredData, FieldOriginatorVASP)
	assert.Contains(t, eutfr.RequiredData, FieldOriginatorVASP)
	assert.Contains(t, eutfr.RequiredData, FieldBeneficiaryVASP)
}

func TestRegimeForUnknownJurisdictionFallsBackToFATF(t *testing.T) {
	assert.Equal(t, RegimeFATF, RegimeFor("ZZ"))
	assert.Equal(t, RegimeFCA, RegimeFor(" gb "))
}

func TestEvaluateEUTFRAppliesFromZero(t *testing.T) {
	eval := Evaluate(decimal.Zero, "DE", "FR", nil)
	assert.True(t, eval.ThresholdTriggered)
}
