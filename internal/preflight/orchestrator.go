// Package preflight runs the gating check battery before an irreversible
// on-chain deployment. Individual checks never abort the run; only a missing
// token short-circuits it.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"tokengate/internal/advisory"
	"tokengate/internal/audit"
	"tokengate/internal/investor"
	"tokengate/internal/token"
	domainerrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/sentinel"
)

// CheckResult is one check's outcome within a report.
type CheckResult struct {
	Name     string        `json:"name"`
	Status   CheckStatus   `json:"status"`
	Details  string        `json:"details,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the full preflight outcome for one token.
type Report struct {
	TokenID string        `json:"tokenId"`
	Passed  bool          `json:"passed"`
	Reason  string        `json:"reason,omitempty"`
	Checks  []CheckResult `json:"checks"`
	RanAt   time.Time     `json:"ranAt"`
}

// Orchestrator composes the fixed check battery.
type Orchestrator struct {
	tokens    token.Store
	investors investor.Store
	resolver  *advisory.Resolver
	auditor   *audit.Publisher
	logger    *slog.Logger
	now       func() time.Time

	// extra holds checks injected by tests.
	extra map[string]checkFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithExtraCheck registers an additional named check. Used by tests to
// exercise failure containment.
func WithExtraCheck(name string, fn checkFunc) Option {
	return func(o *Orchestrator) {
		if o.extra == nil {
			o.extra = make(map[string]checkFunc)
		}
		o.extra[name] = fn
	}
}

// NewOrchestrator wires the fixed battery over the given stores and resolver.
func NewOrchestrator(tokens token.Store, investors investor.Store, resolver *advisory.Resolver, auditor *audit.Publisher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tokens:    tokens,
		investors: investors,
		resolver:  resolver,
		auditor:   auditor,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the battery for one token. Checks run concurrently; a check
// that errors or panics is reported as a warning. Overall Passed is true
// when no check failed; warnings never block.
func (o *Orchestrator) Run(ctx context.Context, tokenID string) (*Report, error) {
	tok, err := o.tokens.Get(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.Wrap(domainerrors.CodeNotFound,
				fmt.Sprintf("token %s not found", tokenID), err)
		}
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "loading token failed", err)
	}

	battery := map[string]checkFunc{
		CheckConfiguration:         o.checkConfiguration,
		CheckRuleSanity:            o.checkRuleSanity,
		CheckConflictResolution:    o.checkConflictResolution,
		CheckWhitelistConsistency:  o.checkWhitelistConsistency,
		CheckCustodianSetup:        o.checkCustodianSetup,
		CheckJurisdictionConflicts: o.checkJurisdictionConflicts,
	}
	for name, fn := range o.extra {
		battery[name] = fn
	}

	results := make([]CheckResult, 0, len(battery))
	var g errgroup.Group
	resultCh := make(chan CheckResult, len(battery))

	for name, fn := range battery {
		g.Go(func() error {
			resultCh <- o.runCheck(ctx, name, fn, tok)
			return nil
		})
	}
	_ = g.Wait()
	close(resultCh)
	for r := range resultCh {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	report := &Report{
		TokenID: tokenID,
		Passed:  true,
		Checks:  results,
		RanAt:   o.now().UTC(),
	}
	for _, r := range results {
		if r.Status == CheckFailed {
			report.Passed = false
			if report.Reason == "" {
				report.Reason = fmt.Sprintf("check %s failed: %s", r.Name, r.Details)
			}
		}
	}

	o.emitAudit(ctx, report)
	o.logger.InfoContext(ctx, "preflight completed",
		"token_id", tokenID, "passed", report.Passed, "checks", len(results))

	return report, nil
}

// runCheck contains one check's execution. Errors and panics downgrade to
// warnings so a flaky dependency cannot abort the batch.
func (o *Orchestrator) runCheck(ctx context.Context, name string, fn checkFunc, tok *token.Token) (result CheckResult) {
	start := time.Now()
	defer func() {
		result.Name = name
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			o.logger.ErrorContext(ctx, "preflight check panicked", "check", name, "panic", r)
			result.Status = CheckWarning
			result.Details = fmt.Sprintf("check panicked: %v", r)
		}
	}()

	status, details, err := fn(ctx, tok)
	if err != nil {
		o.logger.WarnContext(ctx, "preflight check errored", "check", name, "error", err)
		return CheckResult{Status: CheckWarning, Details: fmt.Sprintf("check errored: %v", err)}
	}
	return CheckResult{Status: status, Details: details}
}

func (o *Orchestrator) emitAudit(ctx context.Context, report *Report) {
	if o.auditor == nil {
		return
	}
	entry := audit.Entry{
		EntityType: "token",
		EntityID:   report.TokenID,
		Action:     audit.ActionPreflightRun,
		ActorType:  audit.ActorSystem,
		ActorID:    "preflight",
		Details:    fmt.Sprintf("passed=%t checks=%d", report.Passed, len(report.Checks)),
	}
	if err := o.auditor.Emit(ctx, entry); err != nil {
		o.logger.WarnContext(ctx, "preflight audit emit failed", "error", err)
	}
}
