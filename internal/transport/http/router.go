// Package httpapi is the thin HTTP surface. Handlers decode, delegate to the
// domain services, and encode; business rules live behind them.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokengate/internal/advisory"
	"tokengate/internal/execution"
	"tokengate/internal/investor"
	"tokengate/internal/platform/metrics"
	"tokengate/internal/preflight"
	"tokengate/internal/reconciler"
	"tokengate/internal/screening"
	"tokengate/pkg/platform/httputil"
)

// Screener runs the sanctions screening chain.
type Screener interface {
	Run(ctx context.Context, address, jurisdiction string) *screening.Result
}

// Resolver runs the conflict-resolution degrade ladder.
type Resolver interface {
	Resolve(ctx context.Context, in advisory.Input) *advisory.Result
}

// Executor applies and reverts bulk compliance plans.
type Executor interface {
	Apply(ctx context.Context, plan execution.Plan) (*execution.Result, error)
	Revert(ctx context.Context, proposalID, revertedBy string) (*execution.RevertResult, error)
}

// Preflighter runs the deployment check battery.
type Preflighter interface {
	Run(ctx context.Context, tokenID string) (*preflight.Report, error)
}

// Syncer reconciles off-chain status on chain.
type Syncer interface {
	SyncBatch(ctx context.Context, investorIDs []string) (*reconciler.SyncResult, error)
	Verify(ctx context.Context, investorID string) (bool, error)
}

// HealthChecker reports one dependency's liveness.
type HealthChecker func(ctx context.Context) error

// Handler wires all endpoints to the domain services.
type Handler struct {
	investors investor.Store
	screener  Screener
	resolver  Resolver
	executor  Executor
	preflight Preflighter
	syncer    Syncer
	health    map[string]HealthChecker
	logger    *slog.Logger
}

// Deps carries the handler's constructor dependencies.
type Deps struct {
	Investors investor.Store
	Screener  Screener
	Resolver  Resolver
	Executor  Executor
	Preflight Preflighter
	Syncer    Syncer
	Health    map[string]HealthChecker
	Logger    *slog.Logger
}

// NewHandler constructs the HTTP handler.
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		investors: deps.Investors,
		screener:  deps.Screener,
		resolver:  deps.Resolver,
		executor:  deps.Executor,
		preflight: deps.Preflight,
		syncer:    deps.Syncer,
		health:    deps.Health,
		logger:    logger,
	}
}

// NewRouter mounts all routes. Mutating routes sit behind operator auth;
// health and metrics stay open.
func NewRouter(h *Handler, signingKey string, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestContext)

	r.Get("/health", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(OperatorAuth(signingKey, h.logger))

		r.Method(http.MethodPost, "/transfers/validate",
			m.Middleware("/transfers/validate", http.HandlerFunc(h.HandleValidateTransfer)))
		r.Method(http.MethodPost, "/screening/run",
			m.Middleware("/screening/run", http.HandlerFunc(h.HandleRunScreening)))
		r.Method(http.MethodPost, "/compliance/resolve",
			m.Middleware("/compliance/resolve", http.HandlerFunc(h.HandleResolveConflicts)))
		r.Method(http.MethodPost, "/travel-rule/evaluate",
			m.Middleware("/travel-rule/evaluate", http.HandlerFunc(h.HandleEvaluateTravelRule)))
		r.Method(http.MethodPost, "/compliance/execute",
			m.Middleware("/compliance/execute", http.HandlerFunc(h.HandleExecutePlan)))
		r.Method(http.MethodPost, "/compliance/revert/{proposalID}",
			m.Middleware("/compliance/revert", http.HandlerFunc(h.HandleRevertPlan)))
		r.Method(http.MethodPost, "/tokens/{tokenID}/preflight",
			m.Middleware("/tokens/preflight", http.HandlerFunc(h.HandlePreflight)))
		r.Method(http.MethodPost, "/sync/batch",
			m.Middleware("/sync/batch", http.HandlerFunc(h.HandleSyncBatch)))
		r.Method(http.MethodGet, "/sync/verify/{investorID}",
			m.Middleware("/sync/verify", http.HandlerFunc(h.HandleVerifySync)))
	})

	return r
}

// HandleHealth reports dependency liveness. Degraded dependencies are named;
// the endpoint itself stays 200 unless a required dependency is down.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	deps := make(map[string]string, len(h.health))
	for name, check := range h.health {
		if err := check(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			h.logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
			continue
		}
		deps[name] = "ok"
	}
	httputil.WriteJSON(w, status, map[string]any{"status": httpStatusWord(status), "dependencies": deps})
}

func httpStatusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
