// Package audit records every compliance-relevant action as an immutable,
// timestamp-ordered entry. Entries bind to a compliance case (one ticket per
// issuance, transfer, or onboarding flow) and always carry actor identity and
// actor type; AI-derived entries must additionally carry the model id/version
// and the ruleset version that produced the decision.
package audit

import (
	"fmt"
	"time"
)

// ActorType distinguishes who (or what) performed an action.
type ActorType string

const (
	ActorAI     ActorType = "AI"
	ActorHuman  ActorType = "HUMAN"
	ActorSystem ActorType = "SYSTEM"
)

// Entry is one immutable audit record. Never updated in place.
type Entry struct {
	ID         string    `json:"id"`
	CaseID     string    `json:"case_id,omitempty"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	ActorType  ActorType `json:"actor_type"`
	ActorID    string    `json:"actor_id"`

	// Required when ActorType is AI.
	ModelID        string `json:"model_id,omitempty"`
	ModelVersion   string `json:"model_version,omitempty"`
	RulesetVersion string `json:"ruleset_version,omitempty"`

	Details   string    `json:"details,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate enforces the entry invariants before persistence.
func (e Entry) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("audit entry requires Action")
	}
	if e.EntityID == "" {
		return fmt.Errorf("audit entry requires EntityID")
	}
	switch e.ActorType {
	case ActorAI:
		if e.ModelID == "" || e.ModelVersion == "" || e.RulesetVersion == "" {
			return fmt.Errorf("AI audit entry requires model id, model version, and ruleset version")
		}
	case ActorHuman, ActorSystem:
		// ok
	default:
		return fmt.Errorf("audit entry has unknown actor type %q", e.ActorType)
	}
	return nil
}

// CaseKind classifies a compliance case.
type CaseKind string

const (
	CaseIssuance   CaseKind = "issuance"
	CaseTransfer   CaseKind = "transfer"
	CaseOnboarding CaseKind = "onboarding"
	CaseRegChange  CaseKind = "regulatory_change"
)

// Case binds together all checks for one entity.
type Case struct {
	ID        string    `json:"id"`
	Kind      CaseKind  `json:"kind"`
	EntityID  string    `json:"entity_id"`
	Status    string    `json:"status"`
	OpenedAt  time.Time `json:"opened_at"`
	ClosedAt  time.Time `json:"closed_at,omitzero"`
	OpenedBy  string    `json:"opened_by"`
}

// Common actions.
const (
	ActionCaseOpened         = "case_opened"
	ActionStatusChanged      = "compliance_status_changed"
	ActionStatusReverted     = "compliance_status_reverted"
	ActionScreeningCompleted = "screening_completed"
	ActionConflictResolved   = "conflict_resolved"
	ActionPreflightRun       = "preflight_run"
	ActionSyncConfirmed      = "onchain_sync_confirmed"
	ActionSyncFailed         = "onchain_sync_failed"
	ActionGraceExpired       = "grace_period_expired"
)
