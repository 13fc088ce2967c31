package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"tokengate/internal/compliance"
	"tokengate/internal/travelrule"
	domainerrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/httputil"
	"tokengate/pkg/requestcontext"
)

// ValidateTransferRequest identifies the two parties of a proposed transfer.
type ValidateTransferRequest struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
}

func (r ValidateTransferRequest) Validate() error {
	if r.SenderID == "" || r.RecipientID == "" {
		return domainerrors.New(domainerrors.CodeBadRequest, "senderId and recipientId are required")
	}
	if r.SenderID == r.RecipientID {
		return domainerrors.New(domainerrors.CodeBadRequest, "sender and recipient must differ")
	}
	return nil
}

// ValidateTransferResponse reports the directional verdict. A blocked
// transfer is a normal outcome, returned with 200, not an error.
type ValidateTransferResponse struct {
	Allowed             bool   `json:"allowed"`
	Reason              string `json:"reason,omitempty"`
	SenderCanSend       bool   `json:"senderCanSend"`
	RecipientCanReceive bool   `json:"recipientCanReceive"`
}

// HandleValidateTransfer handles POST /transfers/validate.
func (h *Handler) HandleValidateTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ValidateTransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sender, err := h.investors.Get(ctx, req.SenderID)
	if err != nil {
		httputil.WriteError(w, domainerrors.Wrap(domainerrors.CodeNotFound, "sender not found", err))
		return
	}
	recipient, err := h.investors.Get(ctx, req.RecipientID)
	if err != nil {
		httputil.WriteError(w, domainerrors.Wrap(domainerrors.CodeNotFound, "recipient not found", err))
		return
	}

	result := compliance.Validate(sender.ComplianceStatus, recipient.ComplianceStatus)

	h.logger.InfoContext(ctx, "transfer validated",
		"request_id", requestID,
		"sender_id", req.SenderID,
		"recipient_id", req.RecipientID,
		"allowed", result.Allowed,
	)

	httputil.WriteJSON(w, http.StatusOK, ValidateTransferResponse{
		Allowed:             result.Allowed,
		Reason:              result.Reason,
		SenderCanSend:       result.SenderCanSend,
		RecipientCanReceive: result.RecipientCanReceive,
	})
}

// RunScreeningRequest names the screening subject.
type RunScreeningRequest struct {
	Address      string `json:"address"`
	Jurisdiction string `json:"jurisdiction"`
}

func (r RunScreeningRequest) Validate() error {
	if r.Address == "" {
		return domainerrors.New(domainerrors.CodeBadRequest, "address is required")
	}
	return nil
}

// HandleRunScreening handles POST /screening/run. The chain fails closed, so
// this endpoint always answers 200 with a result.
func (h *Handler) HandleRunScreening(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RunScreeningRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := h.screener.Run(ctx, req.Address, req.Jurisdiction)

	h.logger.InfoContext(ctx, "screening completed",
		"request_id", requestID,
		"provider", result.Provider,
		"passed", result.Passed,
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// EvaluateTravelRuleRequest describes one transfer for threshold evaluation.
type EvaluateTravelRuleRequest struct {
	ValueUSD                decimal.Decimal   `json:"valueUsd"`
	OriginatorJurisdiction  string            `json:"originatorJurisdiction"`
	BeneficiaryJurisdiction string            `json:"beneficiaryJurisdiction"`
	ProvidedFields          map[string]string `json:"providedFields,omitempty"`
}

func (r EvaluateTravelRuleRequest) Validate() error {
	if r.ValueUSD.IsNegative() {
		return domainerrors.New(domainerrors.CodeBadRequest, "valueUsd must not be negative")
	}
	if r.OriginatorJurisdiction == "" || r.BeneficiaryJurisdiction == "" {
		return domainerrors.New(domainerrors.CodeBadRequest, "both jurisdictions are required")
	}
	return nil
}

// HandleEvaluateTravelRule handles POST /travel-rule/evaluate.
func (h *Handler) HandleEvaluateTravelRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EvaluateTravelRuleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	eval := travelrule.Evaluate(req.ValueUSD, req.OriginatorJurisdiction, req.BeneficiaryJurisdiction, req.ProvidedFields)
	httputil.WriteJSON(w, http.StatusOK, eval)
}
