package screening

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// HTTPProvider calls a screening vendor over HTTP. Both the primary and
// secondary vendors use the same wire shape, so one client type covers both.
type HTTPProvider struct {
	id         string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPProvider constructs a vendor-backed provider. An empty baseURL marks
// the provider unconfigured; calls fail immediately and the chain moves on.
func NewHTTPProvider(id, baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		id:         id,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) ID() string { return p.id }

type screenRequest struct {
	Address      string `json:"address"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	CheckType    string `json:"check_type"`
}

type screenResponse struct {
	Passed               bool     `json:"passed"`
	RiskScore            int      `json:"risk_score"`
	Flags                []string `json:"flags"`
	RequiresManualReview bool     `json:"requires_manual_review"`
	ListVersion          string   `json:"list_version"`
}

func (p *HTTPProvider) Check(ctx context.Context, address, jurisdiction string) (*Result, error) {
	if p.baseURL == "" {
		return nil, NewProviderError(ErrorUnconfigured, p.id, "no base URL configured", nil)
	}

	body, err := json.Marshal(screenRequest{
		Address:      address,
		Jurisdiction: jurisdiction,
		CheckType:    CheckTypeSanctions,
	})
	if err != nil {
		return nil, NewProviderError(ErrorInternal, p.id, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/screen", bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError(ErrorInternal, p.id, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		category := ErrorOutage
		if errors.Is(err, context.DeadlineExceeded) {
			category = ErrorTimeout
		}
		return nil, NewProviderError(category, p.id, "screening call failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewProviderError(ErrorAuth, p.id, fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewProviderError(ErrorRateLimited, p.id, "rate limited", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, NewProviderError(ErrorOutage, p.id, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var decoded screenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, NewProviderError(ErrorBadData, p.id, "decode response", err)
	}

	return &Result{
		Passed:               decoded.Passed,
		RiskScore:            decoded.RiskScore,
		Flags:                decoded.Flags,
		RequiresManualReview: decoded.RequiresManualReview,
		ListVersion:          decoded.ListVersion,
	}, nil
}

func (p *HTTPProvider) Health(ctx context.Context) error {
	if p.baseURL == "" {
		return NewProviderError(ErrorUnconfigured, p.id, "no base URL configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return NewProviderError(ErrorOutage, p.id, "health check failed", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return NewProviderError(ErrorOutage, p.id, fmt.Sprintf("health status %d", resp.StatusCode), nil)
	}
	return nil
}

// ListProvider is the last-resort direct lookup against a locally loaded
// denylist. It has no remote dependency, so it keeps screening alive when
// both vendors are down - at the cost of list freshness.
type ListProvider struct {
	id          string
	listVersion string

	mu     sync.RWMutex
	listed map[string]bool
}

// NewListProvider constructs a provider over a static denylist snapshot.
// Addresses are compared case-insensitively.
func NewListProvider(id, listVersion string, addresses []string) *ListProvider {
	listed := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		listed[strings.ToLower(a)] = true
	}
	return &ListProvider{id: id, listVersion: listVersion, listed: listed}
}

func (p *ListProvider) ID() string { return p.id }

func (p *ListProvider) Check(_ context.Context, address, _ string) (*Result, error) {
	p.mu.RLock()
	hit := p.listed[strings.ToLower(address)]
	p.mu.RUnlock()

	result := &Result{Passed: !hit, ListVersion: p.listVersion}
	if hit {
		result.RiskScore = 100
		result.Flags = []string{"denylist_match"}
		result.RequiresManualReview = true
	}
	return result, nil
}

func (p *ListProvider) Health(context.Context) error { return nil }

// Replace swaps the denylist snapshot, e.g. after a scheduled list refresh.
func (p *ListProvider) Replace(listVersion string, addresses []string) {
	listed := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		listed[strings.ToLower(a)] = true
	}
	p.mu.Lock()
	p.listVersion = listVersion
	p.listed = listed
	p.mu.Unlock()
}
