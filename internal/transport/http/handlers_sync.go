package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domainerrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/httputil"
	"tokengate/pkg/requestcontext"
)

// SyncBatchRequest names the investors to reconcile on chain.
type SyncBatchRequest struct {
	InvestorIDs []string `json:"investorIds"`
}

func (r SyncBatchRequest) Validate() error {
	if len(r.InvestorIDs) == 0 {
		return domainerrors.New(domainerrors.CodeBadRequest, "investorIds must name at least one investor")
	}
	return nil
}

// HandleSyncBatch handles POST /sync/batch. A failed submission is reported
// in the body with 200; the sweep retries it, so it is not a request error.
func (h *Handler) HandleSyncBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SyncBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.syncer.SyncBatch(ctx, req.InvestorIDs)
	if err != nil {
		h.logger.ErrorContext(ctx, "sync batch failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "sync batch processed",
		"request_id", requestID,
		"submitted", len(result.SubmittedIDs),
		"confirmed", result.Confirmed,
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// VerifySyncResponse reports stored-versus-chain agreement for one investor.
type VerifySyncResponse struct {
	InvestorID string `json:"investorId"`
	Match      bool   `json:"match"`
}

// HandleVerifySync handles GET /sync/verify/{investorID}.
func (h *Handler) HandleVerifySync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	investorID := chi.URLParam(r, "investorID")

	match, err := h.syncer.Verify(ctx, investorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "sync verification failed",
			"request_id", requestID,
			"investor_id", investorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, VerifySyncResponse{InvestorID: investorID, Match: match})
}
