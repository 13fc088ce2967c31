package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/internal/advisory"
	"tokengate/internal/compliance"
	"tokengate/internal/execution"
	"tokengate/internal/investor"
	"tokengate/internal/preflight"
	"tokengate/internal/reconciler"
	"tokengate/internal/screening"
)

const testSigningKey = "test-signing-key"

type stubScreener struct{ result *screening.Result }

func (s *stubScreener) Run(_ context.Context, _, _ string) *screening.Result { return s.result }

type stubResolver struct{ result *advisory.Result }

func (s *stubResolver) Resolve(_ context.Context, _ advisory.Input) *advisory.Result {
	return s.result
}

type stubExecutor struct {
	applyResult  *execution.Result
	applyErr     error
	revertResult *execution.RevertResult
	lastPlan     execution.Plan
}

func (s *stubExecutor) Apply(_ context.Context, plan execution.Plan) (*execution.Result, error) {
	s.lastPlan = plan
	return s.applyResult, s.applyErr
}

func (s *stubExecutor) Revert(_ context.Context, _, _ string) (*execution.RevertResult, error) {
	return s.revertResult, nil
}

type stubPreflighter struct {
	report *preflight.Report
	err    error
}

func (s *stubPreflighter) Run(_ context.Context, _ string) (*preflight.Report, error) {
	return s.report, s.err
}

type stubSyncer struct {
	result *reconciler.SyncResult
	match  bool
}

func (s *stubSyncer) SyncBatch(_ context.Context, _ []string) (*reconciler.SyncResult, error) {
	return s.result, nil
}

func (s *stubSyncer) Verify(_ context.Context, _ string) (bool, error) { return s.match, nil }

type testServer struct {
	router    http.Handler
	investors *investor.MemoryStore
	executor  *stubExecutor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	investors := investor.NewMemoryStore()
	executor := &stubExecutor{
		applyResult:  &execution.Result{Success: true, GrandfatheredCount: 1},
		revertResult: &execution.RevertResult{RevertedCount: 1},
	}
	h := NewHandler(Deps{
		Investors: investors,
		Screener:  &stubScreener{result: &screening.Result{Passed: true, Provider: "list"}},
		Resolver:  &stubResolver{result: &advisory.Result{Approved: true, Origin: advisory.OriginLive}},
		Executor:  executor,
		Preflight: &stubPreflighter{report: &preflight.Report{TokenID: "tok-1", Passed: true}},
		Syncer:    &stubSyncer{result: &reconciler.SyncResult{Confirmed: true}, match: true},
	})
	return &testServer{
		router:    NewRouter(h, testSigningKey, nil),
		investors: investors,
		executor:  executor,
	}
}

func operatorToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, OperatorClaims{
		Role: "compliance_officer",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestMutatingRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/transfers/validate",
		ValidateTransferRequest{SenderID: "a", RecipientID: "b"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRejectsForgedToken(t *testing.T) {
	s := newTestServer(t)
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "intruder"})
	signed, err := forged.SignedString([]byte("wrong-key"))
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/transfers/validate",
		ValidateTransferRequest{SenderID: "a", RecipientID: "b"}, signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateTransferAllowed(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.investors.Put(ctx, &investor.Investor{
		ID: "inv-sender", ComplianceStatus: compliance.StatusGrandfathered,
	}))
	require.NoError(t, s.investors.Put(ctx, &investor.Investor{
		ID: "inv-recipient", ComplianceStatus: compliance.StatusApproved,
	}))

	rec := s.do(t, http.MethodPost, "/transfers/validate",
		ValidateTransferRequest{SenderID: "inv-sender", RecipientID: "inv-recipient"},
		operatorToken(t, "ops@issuer"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ValidateTransferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Allowed)
}

func TestValidateTransferBlockedReturnsReason(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.investors.Put(ctx, &investor.Investor{
		ID: "inv-sender", ComplianceStatus: compliance.StatusFrozen,
	}))
	require.NoError(t, s.investors.Put(ctx, &investor.Investor{
		ID: "inv-recipient", ComplianceStatus: compliance.StatusApproved,
	}))

	rec := s.do(t, http.MethodPost, "/transfers/validate",
		ValidateTransferRequest{SenderID: "inv-sender", RecipientID: "inv-recipient"},
		operatorToken(t, "ops@issuer"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ValidateTransferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Allowed)
	assert.Contains(t, resp.Reason, "FROZEN")
}

func TestValidateTransferUnknownInvestor(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/transfers/validate",
		ValidateTransferRequest{SenderID: "ghost", RecipientID: "also-ghost"},
		operatorToken(t, "ops@issuer"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateTransferMalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/transfers/validate", bytes.NewBufferString("{nope"))
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, "ops@issuer"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecutePlanStampsOperatorAsAppliedBy(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/compliance/execute", ExecutePlanRequest{
		ProposalID: "prop-9",
		Strategy:   "FULL",
		Casualties: []string{"inv-1"},
	}, operatorToken(t, "ops@issuer"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@issuer", s.executor.lastPlan.AppliedBy)
}

func TestExecutePlanPartialFailureAnswers207(t *testing.T) {
	s := newTestServer(t)
	s.executor.applyResult = &execution.Result{
		Success:     false,
		FailedCount: 1, FailedInvestors: []string{"inv-2"},
	}

	rec := s.do(t, http.MethodPost, "/compliance/execute", ExecutePlanRequest{
		ProposalID: "prop-9",
		Strategy:   "FULL",
		Casualties: []string{"inv-1", "inv-2"},
	}, operatorToken(t, "ops@issuer"))

	assert.Equal(t, http.StatusMultiStatus, rec.Code)
}

func TestRevertPlan(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/compliance/revert/prop-9", nil, operatorToken(t, "ops@issuer"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp execution.RevertResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.RevertedCount)
}

func TestEvaluateTravelRule(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/travel-rule/evaluate", map[string]any{
		"valueUsd":                500,
		"originatorJurisdiction":  "US",
		"beneficiaryJurisdiction": "US",
	}, operatorToken(t, "ops@issuer"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "EXEMPT", resp["status"])
}

func TestPreflightRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/tokens/tok-1/preflight", nil, operatorToken(t, "ops@issuer"))
	require.Equal(t, http.StatusOK, rec.Code)

	var report preflight.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Passed)
}

func TestVerifySyncRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/sync/verify/inv-1", nil, operatorToken(t, "ops@issuer"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifySyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Match)
}

func TestHealthRouteIsOpen(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
