package screening

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tokengate/internal/audit"
	"tokengate/internal/cache"
	"tokengate/internal/screening/metrics"
	"tokengate/pkg/contenthash"
	"tokengate/pkg/requestcontext"
)

// CheckType namespaces the pass cache; sanctions is the only type today but
// the key shape leaves room for PEP/adverse-media checks.
const CheckTypeSanctions = "sanctions"

// FlagAllProvidersFailed marks the fail-closed result produced when no
// provider call succeeded.
const FlagAllProvidersFailed = "all_providers_failed"

// Chain tries providers strictly in order. The first provider whose call
// succeeds wins, whatever the subject's outcome. Passing results are cached
// with a bounded expiry and short-circuit the chain entirely.
type Chain struct {
	providers []Provider
	cache     cache.Cache
	cacheTTL  time.Duration
	store     ResultStore
	auditor   *audit.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithCache attaches the pass cache.
func WithCache(c cache.Cache, ttl time.Duration) ChainOption {
	return func(ch *Chain) {
		ch.cache = c
		ch.cacheTTL = ttl
	}
}

// WithStore attaches the result store. Every fresh screening outcome is
// persisted with its attestation hash.
func WithStore(s ResultStore) ChainOption {
	return func(ch *Chain) { ch.store = s }
}

// WithAuditor attaches the audit publisher for screening-completed entries.
func WithAuditor(p *audit.Publisher) ChainOption {
	return func(ch *Chain) { ch.auditor = p }
}

// WithLogger sets the chain logger.
func WithLogger(logger *slog.Logger) ChainOption {
	return func(ch *Chain) { ch.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) ChainOption {
	return func(ch *Chain) { ch.metrics = m }
}

// NewChain constructs a screening chain over the given providers, in
// preference order.
func NewChain(providers []Provider, opts ...ChainOption) *Chain {
	ch := &Chain{
		providers: providers,
		cacheTTL:  24 * time.Hour,
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// Run screens the subject through the chain. It never returns an error:
// uncertainty resolves to the fail-closed result, not to a thrown failure.
func (c *Chain) Run(ctx context.Context, address, jurisdiction string) *Result {
	if cached := c.readCache(ctx, address); cached != nil {
		c.metrics.IncCacheHit()
		return cached
	}

	for _, provider := range c.providers {
		start := time.Now()
		result, err := provider.Check(ctx, address, jurisdiction)
		c.metrics.ObserveProviderLatency(provider.ID(), time.Since(start))

		if err != nil {
			c.metrics.IncProviderFailure(provider.ID(), string(CategoryOf(err)))
			if c.logger != nil {
				c.logger.WarnContext(ctx, "screening provider failed, trying next",
					"provider", provider.ID(),
					"category", CategoryOf(err),
					"error", err,
				)
			}
			continue
		}

		result.Provider = provider.ID()
		if result.CheckedAt.IsZero() {
			result.CheckedAt = requestcontext.Now(ctx)
		}
		result.Attestation = contenthash.ScreeningAttestation(
			address, provider.ID(), result.ListVersion, result.CheckedAt)

		c.metrics.IncOutcome(provider.ID(), outcomeLabel(result.Passed))
		c.record(ctx, address, jurisdiction, result)
		if result.Passed {
			c.writeCache(ctx, address, result)
		}
		return result
	}

	// Every provider errored. Fail closed and flag for a human.
	c.metrics.IncOutcome("none", "all_failed")
	if c.logger != nil {
		c.logger.ErrorContext(ctx, "screening failed closed",
			"address", address,
			"error", ErrAllProvidersFailed,
		)
	}
	result := &Result{
		Passed:               false,
		Provider:             "none",
		RiskScore:            100,
		Flags:                []string{FlagAllProvidersFailed},
		RequiresManualReview: true,
		CheckedAt:            requestcontext.Now(ctx),
	}
	c.record(ctx, address, jurisdiction, result)
	return result
}

// record persists the outcome and emits the audit entry. Cached results are
// not re-recorded; they were persisted when fresh. Persistence failures are
// logged, not surfaced: the screening decision itself already stands.
func (c *Chain) record(ctx context.Context, address, jurisdiction string, result *Result) {
	if c.store != nil {
		err := c.store.Append(ctx, Record{
			ID:                   uuid.NewString(),
			Address:              address,
			Jurisdiction:         jurisdiction,
			Passed:               result.Passed,
			Provider:             result.Provider,
			RiskScore:            result.RiskScore,
			Flags:                result.Flags,
			RequiresManualReview: result.RequiresManualReview,
			ListVersion:          result.ListVersion,
			Attestation:          result.Attestation,
			CheckedAt:            result.CheckedAt,
		})
		if err != nil && c.logger != nil {
			c.logger.ErrorContext(ctx, "persisting screening result failed",
				"address", address,
				"provider", result.Provider,
				"error", err,
			)
		}
	}

	if c.auditor != nil {
		details := fmt.Sprintf("provider=%s passed=%t risk_score=%d", result.Provider, result.Passed, result.RiskScore)
		if result.Attestation != "" {
			details += " attestation=" + result.Attestation
		} else {
			details += " " + ErrAllProvidersFailed.Error()
		}
		err := c.auditor.Emit(ctx, audit.Entry{
			EntityType: "wallet",
			EntityID:   address,
			Action:     audit.ActionScreeningCompleted,
			ActorType:  audit.ActorSystem,
			ActorID:    result.Provider,
			Details:    details,
		})
		if err != nil && c.logger != nil {
			c.logger.WarnContext(ctx, "screening audit emit failed",
				"address", address,
				"error", err,
			)
		}
	}
}

func cacheKey(address string) string {
	return CheckTypeSanctions + ":" + address
}

func (c *Chain) readCache(ctx context.Context, address string) *Result {
	if c.cache == nil {
		return nil
	}
	raw, ok, err := c.cache.Get(ctx, cacheKey(address))
	if err != nil || !ok {
		return nil
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	result.FromCache = true
	return &result
}

func (c *Chain) writeCache(ctx context.Context, address string, result *Result) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKey(address), raw, c.cacheTTL); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "screening cache write failed",
			"address", address,
			"error", err,
		)
	}
}

func outcomeLabel(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}
