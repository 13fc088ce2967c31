// Package screening runs sanctions/AML checks through an ordered chain of
// providers with sequential fallback. A provider "failing" means the call
// itself errored or the provider is unconfigured - not that the subject
// failed screening. The chain fails closed when every provider errors.
package screening

import (
	"context"
	"time"
)

// Result is the outcome of one screening call.
type Result struct {
	Passed               bool      `json:"passed"`
	Provider             string    `json:"provider"`
	RiskScore            int       `json:"riskScore"`
	Flags                []string  `json:"flags,omitempty"`
	RequiresManualReview bool      `json:"requiresManualReview"`
	ListVersion          string    `json:"listVersion,omitempty"`
	CheckedAt            time.Time `json:"checkedAt"`

	// Attestation is the content hash binding address, provider, list
	// version, and timestamp, for later on-chain anchoring.
	Attestation string `json:"attestation,omitempty"`

	// FromCache marks results served from the pass cache without a
	// provider call.
	FromCache bool `json:"fromCache,omitempty"`
}

// Provider is one screening source. Ordering in the chain encodes preference.
type Provider interface {
	// ID returns a stable identifier for audit and metrics.
	ID() string

	// Check screens the subject. An error means the call failed, and the
	// chain moves to the next provider.
	Check(ctx context.Context, address, jurisdiction string) (*Result, error)

	// Health reports whether the provider is reachable.
	Health(ctx context.Context) error
}
