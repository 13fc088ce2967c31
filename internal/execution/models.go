// Package execution applies bulk compliance strategies to investor cohorts.
// A regulatory-change proposal names its casualties; the engine transitions
// them, records an audit entry per investor, and queues the on-chain sync.
package execution

import "time"

// Strategy selects how a cohort is handled when a rule change strands them.
type Strategy string

const (
	// StrategyFull lets affected holders keep and exit positions.
	StrategyFull Strategy = "FULL"

	// StrategyTimeLimited grandfathers with an exit window.
	StrategyTimeLimited Strategy = "TIME_LIMITED"

	// StrategyTransactionBased grandfathers; the exit bound is enforced at
	// transfer time, not here.
	StrategyTransactionBased Strategy = "TRANSACTION_BASED"

	// StrategyHoldingsFrozen grandfathers with positions held in place.
	StrategyHoldingsFrozen Strategy = "HOLDINGS_FROZEN"

	// StrategyNone revokes outright. The emergency path for sanctions-class
	// events.
	StrategyNone Strategy = "NONE"
)

// DefaultGracePeriodDays applies to TIME_LIMITED plans that do not set one.
const DefaultGracePeriodDays = 365

// Plan is the ephemeral input to Apply. Only its effects are persisted.
type Plan struct {
	ProposalID      string   `json:"proposalId"`
	Strategy        Strategy `json:"strategy"`
	Casualties      []string `json:"casualties"`
	AppliedBy       string   `json:"appliedBy"`
	GracePeriodDays int      `json:"gracePeriodDays,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// Result reports one plan application. Partial application is reported
// here, never raised as an error.
type Result struct {
	Success            bool      `json:"success"`
	GrandfatheredCount int       `json:"grandfatheredCount"`
	FailedCount        int       `json:"failedCount"`
	FailedInvestors    []string  `json:"failedInvestors,omitempty"`
	ExecutedAt         time.Time `json:"executedAt"`
	Message            string    `json:"message"`
}

// RevertResult reports one proposal reversal.
type RevertResult struct {
	RevertedCount int       `json:"revertedCount"`
	RevertedIDs   []string  `json:"revertedIds,omitempty"`
	RevertedAt    time.Time `json:"revertedAt"`
}
