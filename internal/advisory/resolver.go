package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tokengate/internal/advisory/metrics"
	"tokengate/internal/audit"
	"tokengate/internal/cache"
	"tokengate/pkg/contenthash"
	"tokengate/pkg/platform/circuit"
	platformstrings "tokengate/pkg/platform/strings"
)

var tracer = otel.Tracer("tokengate/advisory")

// DefaultLiveTTL bounds how long a live resolution is served from cache
// before re-resolving against the advisory service.
const DefaultLiveTTL = time.Hour

// DefaultFallbackTTL bounds how long the safety-net copy survives an
// advisory outage.
const DefaultFallbackTTL = 7 * 24 * time.Hour

// Resolver walks the degrade ladder for conflict resolution:
// live cache, remote call, fallback cache, static policy. Resolve never
// returns an error; the bottom rung always produces a conservative result.
type Resolver struct {
	client      Client
	live        *cache.Namespace
	fallback    *cache.Namespace
	breaker     *circuit.Breaker
	liveTTL     time.Duration
	fallbackTTL time.Duration
	threshold   float64
	logger      *slog.Logger
	metrics     *metrics.Metrics
	auditor     *audit.Publisher
	now         func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

func WithLiveTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) { r.liveTTL = ttl }
}

func WithFallbackTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) { r.fallbackTTL = ttl }
}

func WithConfidenceThreshold(t float64) ResolverOption {
	return func(r *Resolver) { r.threshold = t }
}

func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// WithAuditor enables best-effort audit emission for AI resolutions.
func WithAuditor(p *audit.Publisher) ResolverOption {
	return func(r *Resolver) { r.auditor = p }
}

func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver over the given advisory client and cache.
// The cache is split into live and fallback namespaces internally.
func NewResolver(client Client, c cache.Cache, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:      client,
		live:        cache.NewNamespace(c, "live:"),
		fallback:    cache.NewNamespace(c, "fb:"),
		breaker:     circuit.New("advisory"),
		liveTTL:     DefaultLiveTTL,
		fallbackTTL: DefaultFallbackTTL,
		threshold:   ConfidenceThreshold,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve produces a conflict resolution for the given input. It never
// returns an error: remote failures degrade to the fallback cache and then
// to the static strictest policy.
func (r *Resolver) Resolve(ctx context.Context, in Input) *Result {
	ctx, span := tracer.Start(ctx, "advisory.Resolve",
		trace.WithAttributes(attribute.String("asset.type", in.AssetType)))
	defer span.End()

	jurisdictions := platformstrings.DedupeAndTrimUpper(in.Jurisdictions)

	if in.Document != "" {
		jurisdictions = r.mergeDocumentJurisdictions(ctx, jurisdictions, in.Document)
	}

	key := cacheKey(jurisdictions, in.AssetType)

	if cached, ok := r.readCache(ctx, r.live, key); ok {
		r.metrics.IncOutcome(string(OriginCache), cached.Approved)
		return cached
	}

	if !r.breaker.IsOpen() {
		result, err := r.resolveRemote(ctx, jurisdictions, in)
		if err == nil {
			if _, change := r.breaker.RecordSuccess(); change.Closed {
				r.logger.InfoContext(ctx, "advisory breaker closed")
				r.metrics.SetBreakerOpen(r.breaker.Name(), false)
			}
			r.writeCache(ctx, key, result)
			r.metrics.IncOutcome(string(OriginLive), result.Approved)
			r.emitAudit(ctx, key, result)
			return result
		}

		r.logger.ErrorContext(ctx, "advisory resolve failed", "error", err)
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.logger.ErrorContext(ctx, "advisory breaker opened")
			r.metrics.SetBreakerOpen(r.breaker.Name(), true)
		}
	}

	if cached, ok := r.readCache(ctx, r.fallback, key); ok {
		cached.Origin = OriginCache
		cached.IsFallback = true
		r.metrics.IncOutcome(string(OriginCache), cached.Approved)
		return cached
	}

	r.logger.WarnContext(ctx, "advisory unavailable and fallback cache empty, applying static policy",
		"jurisdictions", jurisdictions)
	result := staticFallback(r.now())
	r.metrics.IncOutcome(string(OriginStatic), result.Approved)
	return result
}

// mergeDocumentJurisdictions classifies a legal document and merges any
// detected jurisdictions into the request set. Classifier failure is
// non-fatal: resolution proceeds with the explicit set.
func (r *Resolver) mergeDocumentJurisdictions(ctx context.Context, jurisdictions []string, document string) []string {
	resp, err := r.client.ClassifyLegalDoc(ctx, ClassifyLegalDocRequest{Document: document})
	if err != nil {
		r.logger.WarnContext(ctx, "legal document classification failed", "error", err)
		return jurisdictions
	}
	merged := append(append([]string{}, jurisdictions...), resp.Jurisdictions...)
	return platformstrings.DedupeAndTrimUpper(merged)
}

func (r *Resolver) resolveRemote(ctx context.Context, jurisdictions []string, in Input) (*Result, error) {
	start := r.now()
	resp, err := r.client.ResolveConflicts(ctx, ResolveConflictsRequest{
		Jurisdictions: jurisdictions,
		AssetType:     in.AssetType,
		InvestorTypes: in.InvestorTypes,
	})
	r.metrics.ObserveRemoteLatency(time.Since(start))
	if err != nil {
		return nil, err
	}
	return r.transform(resp), nil
}

// transform maps the wire response onto a Result and applies the approval
// policy: low confidence forces manual review, and an unresolved
// jurisdiction conflict or a review flag vetoes approval.
func (r *Resolver) transform(resp *ResolveConflictsResponse) *Result {
	result := &Result{
		HasConflicts:   resp.HasConflicts,
		Confidence:     resp.Confidence,
		RulesetVersion: resp.RulesetVersion,
		ModelVersion:   resp.ModelVersion,
		Origin:         OriginLive,
		IsFallback:     false,
		ResolvedAt:     r.now().UTC(),
	}

	for _, c := range resp.Conflicts {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:          ConflictType(c.Type),
			Jurisdictions: c.Jurisdictions,
			RuleA:         c.RuleA,
			RuleB:         c.RuleB,
			Description:   c.Description,
		})
	}
	for _, res := range resp.Resolutions {
		result.Resolutions = append(result.Resolutions, Resolution{
			ConflictType:        ConflictType(res.ConflictType),
			Strategy:            res.Strategy,
			ResolvedRequirement: res.ResolvedRequirement,
			Rationale:           res.Rationale,
		})
	}
	result.Combined = CombinedRequirements{
		AccreditedOnly:       resp.CombinedRequirements.AccreditedOnly,
		MinInvestment:        resp.CombinedRequirements.MinInvestment,
		MaxInvestors:         resp.CombinedRequirements.MaxInvestors,
		LockupDays:           resp.CombinedRequirements.LockupDays,
		RequiredDisclosures:  resp.CombinedRequirements.RequiredDisclosures,
		TransferRestrictions: resp.CombinedRequirements.TransferRestrictions,
	}

	result.RequiresManualReview = resp.RequiresManualReview || resp.Confidence < r.threshold
	result.Approved = !result.HasBlockingConflicts() && !result.RequiresManualReview

	return result
}

func (r *Resolver) readCache(ctx context.Context, ns *cache.Namespace, key string) (*Result, bool) {
	raw, ok, err := ns.Get(ctx, key)
	if err != nil {
		r.logger.WarnContext(ctx, "advisory cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		r.logger.WarnContext(ctx, "advisory cache entry corrupt, ignoring", "error", err)
		return nil, false
	}
	result.Origin = OriginCache
	result.IsFallback = true
	return &result, true
}

// writeCache stores a live result under both namespaces. Cache failures are
// logged and swallowed; a resolution is valid whether or not it was cached.
func (r *Resolver) writeCache(ctx context.Context, key string, result *Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		r.logger.ErrorContext(ctx, "advisory result marshal failed", "error", err)
		return
	}
	if err := r.live.Set(ctx, key, raw, r.liveTTL); err != nil {
		r.logger.WarnContext(ctx, "advisory live cache write failed", "error", err)
	}
	if err := r.fallback.Set(ctx, key, raw, r.fallbackTTL); err != nil {
		r.logger.WarnContext(ctx, "advisory fallback cache write failed", "error", err)
	}
}

// emitAudit records the AI resolution. Best effort: advisory results are
// advisory, so an audit failure is logged rather than propagated.
func (r *Resolver) emitAudit(ctx context.Context, key string, result *Result) {
	if r.auditor == nil {
		return
	}
	modelVersion := result.ModelVersion
	if modelVersion == "" {
		modelVersion = "unknown"
	}
	entry := audit.Entry{
		EntityType:     "conflict_resolution",
		EntityID:       key,
		Action:         audit.ActionConflictResolved,
		ActorType:      audit.ActorAI,
		ActorID:        "advisory-service",
		ModelID:        "conflict-resolver",
		ModelVersion:   modelVersion,
		RulesetVersion: result.RulesetVersion,
		Details: fmt.Sprintf("confidence=%.2f approved=%t manual_review=%t",
			result.Confidence, result.Approved, result.RequiresManualReview),
	}
	if err := r.auditor.Emit(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "advisory audit emit failed", "error", err)
	}
}

// cacheKey derives a deterministic key from the normalized jurisdiction set
// and asset type. Sorting makes the key order-independent.
func cacheKey(jurisdictions []string, assetType string) string {
	parts := make([]string, 0, len(jurisdictions)+1)
	parts = append(parts, jurisdictions...)
	parts = append(parts, "asset="+assetType)
	return contenthash.HashSorted(parts)
}
