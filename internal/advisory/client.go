package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tokengate/pkg/platform/sentinel"
)

// Client is the narrow surface the resolver needs from the advisory service.
type Client interface {
	ResolveConflicts(ctx context.Context, req ResolveConflictsRequest) (*ResolveConflictsResponse, error)
	ClassifyLegalDoc(ctx context.Context, req ClassifyLegalDocRequest) (*ClassifyLegalDocResponse, error)
}

// Wire DTOs. The advisory service speaks snake_case JSON.

type ResolveConflictsRequest struct {
	Jurisdictions []string `json:"jurisdictions"`
	AssetType     string   `json:"asset_type"`
	InvestorTypes []string `json:"investor_types,omitempty"`
}

type wireConflict struct {
	Type          string   `json:"type"`
	Jurisdictions []string `json:"jurisdictions"`
	RuleA         string   `json:"rule_a"`
	RuleB         string   `json:"rule_b"`
	Description   string   `json:"description"`
}

type wireResolution struct {
	ConflictType        string `json:"conflict_type"`
	Strategy            string `json:"strategy"`
	ResolvedRequirement string `json:"resolved_requirement"`
	Rationale           string `json:"rationale"`
}

type wireCombined struct {
	AccreditedOnly       bool     `json:"accredited_only"`
	MinInvestment        int64    `json:"min_investment"`
	MaxInvestors         int      `json:"max_investors"`
	LockupDays           int      `json:"lockup_days"`
	RequiredDisclosures  []string `json:"required_disclosures"`
	TransferRestrictions []string `json:"transfer_restrictions"`
}

type ResolveConflictsResponse struct {
	HasConflicts         bool             `json:"has_conflicts"`
	Conflicts            []wireConflict   `json:"conflicts"`
	Resolutions          []wireResolution `json:"resolutions"`
	CombinedRequirements wireCombined     `json:"combined_requirements"`
	Confidence           float64          `json:"confidence"`
	RequiresManualReview bool             `json:"requires_manual_review"`
	RulesetVersion       string           `json:"ruleset_version"`
	ModelVersion         string           `json:"model_version"`
	IsFallback           bool             `json:"is_fallback"`
}

type ClassifyLegalDocRequest struct {
	Document string `json:"document"`
}

type ClassifyLegalDocResponse struct {
	Jurisdictions []string `json:"jurisdictions"`
	Clauses       []string `json:"clauses"`
	Confidence    float64  `json:"confidence"`
}

type ClassifyJurisdictionRequest struct {
	Jurisdiction string `json:"jurisdiction"`
	AssetType    string `json:"asset_type"`
}

type ClassifyJurisdictionResponse struct {
	Regime       string   `json:"regime"`
	Requirements []string `json:"requirements"`
	Confidence   float64  `json:"confidence"`
}

type ValidateTokenComplianceRequest struct {
	AssetType     string         `json:"asset_type"`
	Jurisdictions []string       `json:"jurisdictions"`
	Rules         map[string]any `json:"rules"`
}

type ValidateTokenComplianceResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
	Confidence float64  `json:"confidence"`
}

type ModelsStatusResponse struct {
	Models map[string]struct {
		Version string `json:"version"`
		Ready   bool   `json:"ready"`
	} `json:"models"`
}

// HTTPClient talks to the advisory service over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient constructs a client with a bounded per-call timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) ResolveConflicts(ctx context.Context, req ResolveConflictsRequest) (*ResolveConflictsResponse, error) {
	var resp ResolveConflictsResponse
	if err := c.post(ctx, "/resolve-conflicts", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ClassifyLegalDoc(ctx context.Context, req ClassifyLegalDocRequest) (*ClassifyLegalDocResponse, error) {
	var resp ClassifyLegalDocResponse
	if err := c.post(ctx, "/classify-legal-doc", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ClassifyJurisdiction(ctx context.Context, req ClassifyJurisdictionRequest) (*ClassifyJurisdictionResponse, error) {
	var resp ClassifyJurisdictionResponse
	if err := c.post(ctx, "/classify-jurisdiction", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ValidateTokenCompliance(ctx context.Context, req ValidateTokenComplianceRequest) (*ValidateTokenComplianceResponse, error) {
	var resp ValidateTokenComplianceResponse
	if err := c.post(ctx, "/validate-token-compliance", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks GET /health.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

// ModelsStatus reports model readiness and versions.
func (c *HTTPClient) ModelsStatus(ctx context.Context) (*ModelsStatusResponse, error) {
	var resp ModelsStatusResponse
	if err := c.get(ctx, "/models/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal advisory request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build advisory request: %w", err)
	}
	return c.do(req, path, out)
}

func (c *HTTPClient) do(req *http.Request, path string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("advisory %s: %w: %w", path, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("advisory %s: status %d: %w", path, resp.StatusCode, sentinel.ErrUnavailable)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("advisory %s: decode: %w", path, err)
	}
	return nil
}
