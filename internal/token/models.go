// Package token holds the issued-asset registry consulted by the preflight
// orchestrator and the transfer validation surface.
package token

// ComplianceRules is the per-token requirement set. The preflight orchestrator
// sanity-checks it and the conflict resolver may tighten it.
type ComplianceRules struct {
	AccreditedOnly       bool     `json:"accreditedOnly"`
	MinInvestment        int64    `json:"minInvestment"`
	MaxInvestors         int      `json:"maxInvestors"`
	LockupDays           int      `json:"lockupDays"`
	RequiredDisclosures  []string `json:"requiredDisclosures"`
	TransferRestrictions []string `json:"transferRestrictions"`
}

// Token is one issued real-world-asset token.
type Token struct {
	ID                string
	Symbol            string
	Name              string
	AssetType         string
	Jurisdictions     []string
	Rules             ComplianceRules
	CustodianName     string
	CustodianVerified bool
	ContractAddress   string
}
