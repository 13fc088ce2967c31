// Package travelrule evaluates transfer value against jurisdiction-specific
// travel-rule regimes and checks originator/beneficiary data completeness.
package travelrule

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Regime identifies a travel-rule regulatory regime.
type Regime string

const (
	RegimeFinCEN Regime = "FinCEN"
	RegimeEUTFR  Regime = "EU-TFR"
	RegimeMAS    Regime = "MAS"
	RegimeFCA    Regime = "FCA"
	RegimeFATF   Regime = "FATF"
)

// Field names exchanged between VASPs. Required sets vary per regime.
const (
	FieldOriginatorName     = "originator_name"
	FieldOriginatorAccount  = "originator_account"
	FieldOriginatorAddress  = "originator_address"
	FieldOriginatorVASP     = "originator_vasp"
	FieldBeneficiaryName    = "beneficiary_name"
	FieldBeneficiaryAccount = "beneficiary_account"
	FieldBeneficiaryVASP    = "beneficiary_vasp"
	FieldTransferPurpose    = "transfer_purpose"
)

type regimeRule struct {
	thresholdUSD decimal.Decimal
	required     []string
}

// Thresholds are USD equivalents. EU-TFR applies from the first euro.
var regimeRules = map[Regime]regimeRule{
	RegimeFinCEN: {
		thresholdUSD: decimal.NewFromInt(3000),
		required: []string{
			FieldOriginatorName,
			FieldOriginatorAccount,
			FieldOriginatorAddress,
			FieldBeneficiaryName,
			FieldBeneficiaryAccount,
		},
	},
	RegimeEUTFR: {
		thresholdUSD: decimal.Zero,
		required: []string{
			FieldOriginatorName,
			FieldOriginatorAccount,
			FieldOriginatorAddress,
			FieldOriginatorVASP,
			FieldBeneficiaryName,
			FieldBeneficiaryAccount,
			FieldBeneficiaryVASP,
		},
	},
	RegimeMAS: {
		thresholdUSD: decimal.NewFromInt(1100),
		required: []string{
			FieldOriginatorName,
			FieldOriginatorAccount,
			FieldBeneficiaryName,
			FieldBeneficiaryAccount,
			FieldTransferPurpose,
		},
	},
	RegimeFCA: {
		thresholdUSD: decimal.NewFromInt(1000),
		required: []string{
			FieldOriginatorName,
			FieldOriginatorAccount,
			FieldBeneficiaryName,
			FieldBeneficiaryAccount,
		},
	},
	// FATF recommendation 16 baseline, applied where no local regime exists.
	RegimeFATF: {
		thresholdUSD: decimal.NewFromInt(1000),
		required: []string{
			FieldOriginatorName,
			FieldOriginatorAccount,
			FieldOriginatorVASP,
			FieldBeneficiaryName,
			FieldBeneficiaryAccount,
			FieldBeneficiaryVASP,
		},
	},
}

var jurisdictionRegime = map[string]Regime{
	"US": RegimeFinCEN,
	"SG": RegimeMAS,
	"GB": RegimeFCA,
	"UK": RegimeFCA,

	"AT": RegimeEUTFR, "BE": RegimeEUTFR, "DE": RegimeEUTFR, "DK": RegimeEUTFR,
	"ES": RegimeEUTFR, "FI": RegimeEUTFR, "FR": RegimeEUTFR, "IE": RegimeEUTFR,
	"IT": RegimeEUTFR, "LU": RegimeEUTFR, "NL": RegimeEUTFR, "PL": RegimeEUTFR,
	"PT": RegimeEUTFR, "SE": RegimeEUTFR,
}

// RegimeFor maps a jurisdiction to its travel-rule regime. Unknown
// jurisdictions fall back to the FATF baseline.
func RegimeFor(jurisdiction string) Regime {
	if r, ok := jurisdictionRegime[strings.ToUpper(strings.TrimSpace(jurisdiction))]; ok {
		return r
	}
	return RegimeFATF
}

// Threshold returns the regime's USD-equivalent trigger threshold.
func Threshold(r Regime) decimal.Decimal {
	return regimeRules[r].thresholdUSD
}

// RequiredFields returns the data fields the regime requires once triggered.
// The returned slice is a copy.
func RequiredFields(r Regime) []string {
	src := regimeRules[r].required
	out := make([]string, len(src))
	copy(out, src)
	return out
}
