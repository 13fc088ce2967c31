// Package investor holds the off-chain system of record for token holders.
// Status mutations flow through the execution engine (or direct KYC approval)
// and always stamp ComplianceStatusAt and clear the on-chain sync flags so the
// reconciler picks the investor up on its next sweep.
package investor

import (
	"time"

	"tokengate/internal/compliance"
)

// Classification buckets investors for rule evaluation.
type Classification string

const (
	ClassificationRetail        Classification = "retail"
	ClassificationAccredited    Classification = "accredited"
	ClassificationInstitutional Classification = "institutional"
)

// Investor is the system-of-record row for one holder of one token.
type Investor struct {
	ID             string
	TokenID        string
	Name           string
	WalletAddress  string
	Jurisdiction   string
	Classification Classification
	KYCApproved    bool
	Accredited     bool

	ComplianceStatus       compliance.Status
	ComplianceStatusReason string
	ComplianceStatusAt     time.Time
	GracePeriodEndsAt      *time.Time

	// On-chain sync tri-state: synced (true + hash), pending (false), and
	// never-synced (false, zero time). Cleared on every status change.
	OnChainSynced   bool
	OnChainSyncedAt *time.Time
	OnChainTxHash   string
}

// StatusChange is the single shape every bulk mutation goes through.
// GracePeriodEndsAt nil clears the grace period.
type StatusChange struct {
	Status            compliance.Status
	Reason            string
	At                time.Time
	GracePeriodEndsAt *time.Time
}
