package screening

import (
	"errors"
	"fmt"
)

// ErrorCategory normalizes provider failures so the chain and metrics treat
// every vendor the same way.
type ErrorCategory string

const (
	ErrorTimeout      ErrorCategory = "timeout"
	ErrorBadData      ErrorCategory = "bad_data"
	ErrorAuth         ErrorCategory = "authentication"
	ErrorOutage       ErrorCategory = "provider_outage"
	ErrorUnconfigured ErrorCategory = "unconfigured"
	ErrorRateLimited  ErrorCategory = "rate_limited"
	ErrorInternal     ErrorCategory = "internal"
)

// ProviderError wraps a provider failure with its normalized category.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Underlying }

// NewProviderError creates a normalized provider error.
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
	}
}

// CategoryOf extracts the category from an error chain.
func CategoryOf(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// ErrAllProvidersFailed marks a chain run where no provider call succeeded.
var ErrAllProvidersFailed = errors.New("all providers failed")
