// Command server wires the compliance gateway: explicit constructor-injected
// dependencies, no package-level singletons. Business logic lives in the
// internal services; main only assembles and supervises them.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"tokengate/internal/advisory"
	advisorymetrics "tokengate/internal/advisory/metrics"
	"tokengate/internal/audit"
	"tokengate/internal/cache"
	"tokengate/internal/execution"
	"tokengate/internal/investor"
	"tokengate/internal/platform/config"
	"tokengate/internal/platform/httpserver"
	"tokengate/internal/platform/logger"
	"tokengate/internal/platform/metrics"
	platformredis "tokengate/internal/platform/redis"
	"tokengate/internal/preflight"
	"tokengate/internal/reconciler"
	"tokengate/internal/scheduler"
	"tokengate/internal/screening"
	screeningmetrics "tokengate/internal/screening/metrics"
	"tokengate/internal/tasks"
	"tokengate/internal/token"
	httpapi "tokengate/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	// The contract encoding is load-bearing; refuse to serve if the codec
	// tables ever drift.
	if err := reconciler.ValidateCodec(); err != nil {
		log.Error("status codec validation failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var sharedCache cache.Cache
	if redisClient != nil {
		defer redisClient.Close()
		sharedCache = cache.NewRedis(redisClient.Client)
	}
	layeredCache := cache.NewLayered(sharedCache, cache.NewMemory(), log)

	var (
		db               *sql.DB
		investors        investor.Store
		auditStore       audit.Store
		syncRecords      reconciler.SyncStore
		screeningResults screening.ResultStore
	)
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		investors = investor.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		syncRecords = reconciler.NewPostgresSyncStore(db)
		screeningResults = screening.NewPostgresResultStore(db)
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
		investors = investor.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
		syncRecords = reconciler.NewMemorySyncStore()
		screeningResults = screening.NewMemoryResultStore()
	}

	auditOpts := []audit.Option{audit.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(context.Background(), cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("kafka audit sink failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		auditOpts = append(auditOpts, audit.WithSink(sink))
	}
	auditor := audit.NewPublisher(auditStore, auditOpts...)

	// Background sweeps audit through a buffered inbox so a slow store
	// write never stalls the cron loop.
	auditInbox := make(chan audit.Entry, 256)
	auditWorker := audit.NewWorker(auditor, auditInbox, log)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go auditWorker.Run(workerCtx)

	var providers []screening.Provider
	if cfg.Screening.PrimaryURL != "" {
		providers = append(providers, screening.NewHTTPProvider(
			"primary", cfg.Screening.PrimaryURL, cfg.Screening.PrimaryAPIKey, cfg.Screening.Timeout))
	}
	if cfg.Screening.SecondaryURL != "" {
		providers = append(providers, screening.NewHTTPProvider(
			"secondary", cfg.Screening.SecondaryURL, cfg.Screening.SecondaryAPIKey, cfg.Screening.Timeout))
	}
	providers = append(providers, screening.NewListProvider("list", cfg.Screening.ListVersion, nil))
	chain := screening.NewChain(providers,
		screening.WithCache(layeredCache, cfg.ScreeningCacheTTL),
		screening.WithStore(screeningResults),
		screening.WithAuditor(auditor),
		screening.WithLogger(log),
		screening.WithMetrics(screeningmetrics.New()),
	)

	advisoryClient := advisory.NewHTTPClient(cfg.Advisory.BaseURL, cfg.Advisory.Timeout)
	resolver := advisory.NewResolver(advisoryClient, layeredCache,
		advisory.WithLiveTTL(cfg.LiveCacheTTL),
		advisory.WithFallbackTTL(cfg.FallbackCacheTTL),
		advisory.WithConfidenceThreshold(cfg.Advisory.ConfidenceThreshold),
		advisory.WithResolverLogger(log),
		advisory.WithResolverMetrics(advisorymetrics.New()),
		advisory.WithAuditor(auditor),
	)

	var registry reconciler.RegistryClient
	if cfg.Registry.RPCURL != "" {
		registry = reconciler.NewRPCClient(
			cfg.Registry.RPCURL, cfg.Registry.ChainID, cfg.Registry.ContractAddress,
			cfg.Registry.SigningWallet, cfg.Registry.ConfirmTimeout)
	} else {
		log.Warn("REGISTRY_RPC_URL not set, using in-memory registry")
		registry = reconciler.NewFakeRegistry()
	}
	rec := reconciler.New(investors, registry, syncRecords,
		cfg.Registry.ContractAddress, cfg.Registry.ChainID,
		reconciler.WithLogger(log),
		reconciler.WithAuditor(auditor),
		reconciler.WithBatchSize(cfg.Registry.MaxBatchSize),
	)

	pool := tasks.NewPool(map[string]tasks.Handler{
		execution.TaskSyncBatch: func(ctx context.Context, payload []byte) error {
			var p execution.SyncBatchPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, cfg.Registry.ConfirmTimeout)
			defer cancel()
			_, err := rec.SyncBatch(ctx, p.InvestorIDs)
			return err
		},
	}, log)
	defer pool.Close(30 * time.Second)

	engine := execution.NewEngine(investors, auditor, pool, execution.WithLogger(log))

	tokens := token.NewMemoryStore()
	orchestrator := preflight.NewOrchestrator(tokens, investors, resolver, auditor,
		preflight.WithLogger(log))

	sched := scheduler.New(rec, engine, auditInbox, cfg.SyncSweepInterval, cfg.GraceSweepInterval, log)
	if err := sched.Start(); err != nil {
		log.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	health := map[string]httpapi.HealthChecker{}
	if redisClient != nil {
		health["redis"] = redisClient.Health
	}
	if db != nil {
		health["postgres"] = db.PingContext
	}

	handler := httpapi.NewHandler(httpapi.Deps{
		Investors: investors,
		Screener:  chain,
		Resolver:  resolver,
		Executor:  engine,
		Preflight: orchestrator,
		Syncer:    rec,
		Health:    health,
		Logger:    log,
	})
	router := httpapi.NewRouter(handler, cfg.JWTSigningKey, metrics.New())

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("tokengate listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
