package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tokengate/internal/advisory"
	"tokengate/internal/execution"
	domainerrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/httputil"
	"tokengate/pkg/requestcontext"
)

// ResolveConflictsRequest names the jurisdiction set to resolve.
type ResolveConflictsRequest struct {
	Jurisdictions []string `json:"jurisdictions"`
	AssetType     string   `json:"assetType"`
	InvestorTypes []string `json:"investorTypes,omitempty"`
	Document      string   `json:"document,omitempty"`
}

func (r ResolveConflictsRequest) Validate() error {
	if len(r.Jurisdictions) == 0 {
		return domainerrors.New(domainerrors.CodeBadRequest, "at least one jurisdiction is required")
	}
	if r.AssetType == "" {
		return domainerrors.New(domainerrors.CodeBadRequest, "assetType is required")
	}
	return nil
}

// HandleResolveConflicts handles POST /compliance/resolve. The resolver
// degrades instead of failing, so this endpoint always answers 200.
func (h *Handler) HandleResolveConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ResolveConflictsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := h.resolver.Resolve(ctx, advisory.Input{
		Jurisdictions: req.Jurisdictions,
		AssetType:     req.AssetType,
		InvestorTypes: req.InvestorTypes,
		Document:      req.Document,
	})

	h.logger.InfoContext(ctx, "conflicts resolved",
		"request_id", requestID,
		"origin", string(result.Origin),
		"approved", result.Approved,
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// ExecutePlanRequest is the wire form of an execution plan. AppliedBy comes
// from the authenticated operator, never the body.
type ExecutePlanRequest struct {
	ProposalID      string   `json:"proposalId"`
	Strategy        string   `json:"strategy"`
	Casualties      []string `json:"casualties"`
	GracePeriodDays int      `json:"gracePeriodDays,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

func (r ExecutePlanRequest) Validate() error {
	if r.ProposalID == "" {
		return domainerrors.New(domainerrors.CodeBadRequest, "proposalId is required")
	}
	if len(r.Casualties) == 0 {
		return domainerrors.New(domainerrors.CodeBadRequest, "casualties must name at least one investor")
	}
	return nil
}

// HandleExecutePlan handles POST /compliance/execute. Partial application
// answers 207 with the full result; the caller decides what to do about
// the failed remainder.
func (h *Handler) HandleExecutePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ExecutePlanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.executor.Apply(ctx, execution.Plan{
		ProposalID:      req.ProposalID,
		Strategy:        execution.Strategy(req.Strategy),
		Casualties:      req.Casualties,
		AppliedBy:       requestcontext.ActorID(ctx),
		GracePeriodDays: req.GracePeriodDays,
		Notes:           req.Notes,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "plan execution failed",
			"request_id", requestID,
			"proposal_id", req.ProposalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "plan executed",
		"request_id", requestID,
		"proposal_id", req.ProposalID,
		"strategy", req.Strategy,
		"failed_count", result.FailedCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	status := http.StatusOK
	if !result.Success {
		status = domainerrors.CodePartialBatch.HTTPStatus()
	}
	httputil.WriteJSON(w, status, result)
}

// HandleRevertPlan handles POST /compliance/revert/{proposalID}.
func (h *Handler) HandleRevertPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	proposalID := chi.URLParam(r, "proposalID")

	result, err := h.executor.Revert(ctx, proposalID, requestcontext.ActorID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "plan revert failed",
			"request_id", requestID,
			"proposal_id", proposalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "plan reverted",
		"request_id", requestID,
		"proposal_id", proposalID,
		"reverted_count", result.RevertedCount,
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandlePreflight handles POST /tokens/{tokenID}/preflight.
func (h *Handler) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tokenID := chi.URLParam(r, "tokenID")

	report, err := h.preflight.Run(ctx, tokenID)
	if err != nil {
		h.logger.ErrorContext(ctx, "preflight run failed",
			"request_id", requestID,
			"token_id", tokenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}
