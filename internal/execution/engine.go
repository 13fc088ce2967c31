package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	domainerrors "tokengate/pkg/domain-errors"

	"tokengate/internal/audit"
	"tokengate/internal/compliance"
	"tokengate/internal/investor"
	"tokengate/internal/tasks"
)

// TaskSyncBatch is the background task that pushes a cohort's status
// changes on chain.
const TaskSyncBatch = "reconciler.sync_batch"

// SyncBatchPayload is the TaskSyncBatch payload shape. Handlers are
// idempotent: already-synced investors are filtered out on execution.
type SyncBatchPayload struct {
	InvestorIDs []string `json:"investor_ids"`
	ProposalID  string   `json:"proposal_id,omitempty"`
}

// Engine applies execution plans. All dependencies are constructor-injected.
type Engine struct {
	investors investor.Store
	auditor   *audit.Publisher
	runner    tasks.Runner
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an execution engine. runner receives the fire-and-forget
// sync task; pass tasks.Noop to disable background sync.
func NewEngine(investors investor.Store, auditor *audit.Publisher, runner tasks.Runner, opts ...Option) *Engine {
	e := &Engine{
		investors: investors,
		auditor:   auditor,
		runner:    runner,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply executes one plan. Partial application is reported in the result,
// not returned as an error; only malformed plans or a wholesale repository
// failure error out.
func (e *Engine) Apply(ctx context.Context, plan Plan) (*Result, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	executedAt := e.now().UTC()
	change, err := statusChangeFor(plan, executedAt)
	if err != nil {
		return nil, err
	}

	updated, err := e.investors.BulkSetStatus(ctx, plan.Casualties, change)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "bulk status update failed", err)
	}

	updatedSet := make(map[string]struct{}, len(updated))
	for _, id := range updated {
		updatedSet[id] = struct{}{}
	}
	var failed []string
	for _, id := range plan.Casualties {
		if _, ok := updatedSet[id]; !ok {
			failed = append(failed, id)
		}
	}

	// One case per applied plan binds the per-investor entries together,
	// so ListByCase can reconstruct the whole regulatory-change event.
	caseRecord := audit.NewCase(audit.CaseRegChange, plan.ProposalID, plan.AppliedBy, executedAt)
	if err := e.auditor.Emit(ctx, audit.Entry{
		CaseID:     caseRecord.ID,
		EntityType: "proposal",
		EntityID:   plan.ProposalID,
		Action:     audit.ActionCaseOpened,
		ActorType:  audit.ActorHuman,
		ActorID:    plan.AppliedBy,
		Details:    fmt.Sprintf("kind=%s strategy=%s casualties=%d", caseRecord.Kind, plan.Strategy, len(plan.Casualties)),
	}); err != nil {
		e.logger.ErrorContext(ctx, "case open audit emit failed",
			"proposal_id", plan.ProposalID, "error", err)
	}

	e.auditStatusChanges(ctx, plan, change, updated, caseRecord.ID)

	// Every named casualty goes back through reconciliation, even ids the
	// bulk update reported as missed. The sweep re-reads current state, so
	// an extra clear is harmless and a missed one is not.
	if err := e.investors.ClearSyncFlags(ctx, plan.Casualties); err != nil {
		e.logger.ErrorContext(ctx, "clearing sync flags failed",
			"proposal_id", plan.ProposalID, "error", err)
	}

	e.enqueueSync(ctx, plan)

	grandfathered := len(updated)
	if plan.Strategy == StrategyNone {
		grandfathered = 0
	}

	result := &Result{
		Success:            len(failed) == 0,
		GrandfatheredCount: grandfathered,
		FailedCount:        len(failed),
		FailedInvestors:    failed,
		ExecutedAt:         executedAt,
		Message: fmt.Sprintf("strategy %s applied to %d of %d investors",
			plan.Strategy, len(updated), len(plan.Casualties)),
	}

	e.logger.InfoContext(ctx, "execution plan applied",
		"proposal_id", plan.ProposalID,
		"strategy", string(plan.Strategy),
		"requested", len(plan.Casualties),
		"updated", len(updated),
		"failed", len(failed))

	return result, nil
}

// Revert restores investors grandfathered under proposalID back to APPROVED,
// clearing the grace period. A reversal with no remaining matches is a no-op,
// not an error.
func (e *Engine) Revert(ctx context.Context, proposalID, revertedBy string) (*RevertResult, error) {
	if proposalID == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "proposal id is required")
	}

	revertedAt := e.now().UTC()
	change := investor.StatusChange{
		Status: compliance.StatusApproved,
		Reason: fmt.Sprintf("grandfathering under proposal %s reverted", proposalID),
		At:     revertedAt,
	}

	updated, err := e.investors.BulkSetStatusWhere(ctx, compliance.StatusGrandfathered, proposalID, change)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "bulk revert failed", err)
	}

	entries := make([]audit.Entry, 0, len(updated))
	for _, id := range updated {
		entries = append(entries, audit.Entry{
			EntityType: "investor",
			EntityID:   id,
			Action:     audit.ActionStatusReverted,
			ActorType:  audit.ActorHuman,
			ActorID:    revertedBy,
			Details:    change.Reason,
		})
	}
	if err := e.auditor.EmitAll(ctx, entries); err != nil {
		e.logger.ErrorContext(ctx, "revert audit emit failed",
			"proposal_id", proposalID, "error", err)
	}

	if len(updated) > 0 {
		if err := e.investors.ClearSyncFlags(ctx, updated); err != nil {
			e.logger.ErrorContext(ctx, "clearing sync flags failed",
				"proposal_id", proposalID, "error", err)
		}
		e.enqueueSync(ctx, Plan{ProposalID: proposalID, Casualties: updated})
	}

	e.logger.InfoContext(ctx, "execution plan reverted",
		"proposal_id", proposalID, "reverted", len(updated))

	return &RevertResult{
		RevertedCount: len(updated),
		RevertedIDs:   updated,
		RevertedAt:    revertedAt,
	}, nil
}

// FindExpiredGracePeriods returns investors whose exit window has closed,
// for operator follow-up. The engine never auto-transitions them.
func (e *Engine) FindExpiredGracePeriods(ctx context.Context) ([]*investor.Investor, error) {
	expired, err := e.investors.ListExpiredGrace(ctx, e.now().UTC())
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "listing expired grace periods failed", err)
	}
	return expired, nil
}

func (e *Engine) auditStatusChanges(ctx context.Context, plan Plan, change investor.StatusChange, updated []string, caseID string) {
	entries := make([]audit.Entry, 0, len(updated))
	for _, id := range updated {
		entries = append(entries, audit.Entry{
			CaseID:     caseID,
			EntityType: "investor",
			EntityID:   id,
			Action:     audit.ActionStatusChanged,
			ActorType:  audit.ActorHuman,
			ActorID:    plan.AppliedBy,
			Details:    fmt.Sprintf("status=%s strategy=%s: %s", change.Status, plan.Strategy, change.Reason),
		})
	}
	if err := e.auditor.EmitAll(ctx, entries); err != nil {
		e.logger.ErrorContext(ctx, "execution audit emit failed",
			"proposal_id", plan.ProposalID, "error", err)
	}
}

// enqueueSync fires the background on-chain sync. Failure to enqueue is
// logged and swallowed: the plan's own success is independent of sync.
func (e *Engine) enqueueSync(ctx context.Context, plan Plan) {
	payload, err := json.Marshal(SyncBatchPayload{
		InvestorIDs: plan.Casualties,
		ProposalID:  plan.ProposalID,
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "sync payload marshal failed", "error", err)
		return
	}
	task := tasks.Task{
		Name:    TaskSyncBatch,
		Payload: payload,
		Options: tasks.Options{
			Attempts:    5,
			Backoff:     tasks.Backoff{Type: tasks.BackoffExponential, Delay: 2 * time.Second},
			Concurrency: 1,
			RateLimit:   tasks.RateLimit{Max: 2, PerMs: 1000},
		},
	}
	if err := e.runner.Enqueue(ctx, task); err != nil {
		e.logger.ErrorContext(ctx, "sync task enqueue failed",
			"proposal_id", plan.ProposalID, "error", err)
	}
}

func validatePlan(plan Plan) error {
	if plan.ProposalID == "" {
		return domainerrors.New(domainerrors.CodeBadRequest, "proposal id is required")
	}
	if len(plan.Casualties) == 0 {
		return domainerrors.New(domainerrors.CodeBadRequest, "plan names no investors")
	}
	switch plan.Strategy {
	case StrategyFull, StrategyTimeLimited, StrategyTransactionBased, StrategyHoldingsFrozen, StrategyNone:
		return nil
	default:
		return domainerrors.New(domainerrors.CodeBadRequest,
			fmt.Sprintf("unknown strategy %q", plan.Strategy))
	}
}

// statusChangeFor builds the status mutation a strategy implies.
func statusChangeFor(plan Plan, at time.Time) (investor.StatusChange, error) {
	switch plan.Strategy {
	case StrategyFull, StrategyTransactionBased, StrategyHoldingsFrozen:
		return investor.StatusChange{
			Status: compliance.StatusGrandfathered,
			Reason: fmt.Sprintf("grandfathered (%s) under proposal %s", plan.Strategy, plan.ProposalID),
			At:     at,
		}, nil

	case StrategyTimeLimited:
		days := plan.GracePeriodDays
		if days <= 0 {
			days = DefaultGracePeriodDays
		}
		ends := at.AddDate(0, 0, days)
		return investor.StatusChange{
			Status:            compliance.StatusGrandfathered,
			Reason:            fmt.Sprintf("grandfathered (%s, %d day grace) under proposal %s", plan.Strategy, days, plan.ProposalID),
			At:                at,
			GracePeriodEndsAt: &ends,
		}, nil

	case StrategyNone:
		return investor.StatusChange{
			Status: compliance.StatusUnauthorized,
			Reason: fmt.Sprintf("revoked under proposal %s", plan.ProposalID),
			At:     at,
		}, nil

	default:
		return investor.StatusChange{}, domainerrors.New(domainerrors.CodeBadRequest,
			fmt.Sprintf("unknown strategy %q", plan.Strategy))
	}
}
