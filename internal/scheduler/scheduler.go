// Package scheduler runs the periodic background sweeps: on-chain
// reconciliation for investors awaiting sync and grace-period expiry
// detection for operator follow-up.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tokengate/internal/audit"
	"tokengate/internal/execution"
	"tokengate/internal/reconciler"
)

// Scheduler owns the cron runner. Sweeps are independent; a failing sweep
// logs and waits for its next tick.
type Scheduler struct {
	cron       *cron.Cron
	reconciler *reconciler.Reconciler
	engine     *execution.Engine
	auditInbox chan<- audit.Entry
	logger     *slog.Logger

	syncEvery  time.Duration
	graceEvery time.Duration

	graceMu sync.Mutex
	flagged map[string]struct{}
}

// New constructs a scheduler with the given sweep intervals. Sync sweeps
// should stay infrequent relative to block time; each run submits at most
// one bounded batch. Grace-sweep audit entries go through auditInbox, fed
// by an audit.Worker, so a slow store never stalls the cron loop.
func New(rec *reconciler.Reconciler, engine *execution.Engine, auditInbox chan<- audit.Entry, syncEvery, graceEvery time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:       cron.New(),
		reconciler: rec,
		engine:     engine,
		auditInbox: auditInbox,
		logger:     logger,
		syncEvery:  syncEvery,
		graceEvery: graceEvery,
		flagged:    make(map[string]struct{}),
	}
}

// Start registers the sweeps and begins the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(every(s.syncEvery), s.runSyncSweep); err != nil {
		return fmt.Errorf("registering sync sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(every(s.graceEvery), s.runGraceSweep); err != nil {
		return fmt.Errorf("registering grace sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		"sync_every", s.syncEvery.String(), "grace_every", s.graceEvery.String())
	return nil
}

// Stop halts the cron loop and waits for running sweeps to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runSyncSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.reconciler.SweepPending(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "sync sweep failed", "error", err)
		return
	}
	if len(result.SubmittedIDs) > 0 {
		s.logger.InfoContext(ctx, "sync sweep completed",
			"submitted", len(result.SubmittedIDs),
			"confirmed", result.Confirmed,
			"tx_hash", result.TxHash)
	}
}

// runGraceSweep surfaces expired grace periods. Investors are not
// auto-transitioned; an audit entry flags them for operator follow-up.
// An investor is flagged once per expiry: ids already reported on a prior
// tick are skipped until they leave the expired set and re-enter it.
func (s *Scheduler) runGraceSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expired, err := s.engine.FindExpiredGracePeriods(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "grace sweep failed", "error", err)
		return
	}

	s.graceMu.Lock()
	current := make(map[string]struct{}, len(expired))
	newlyExpired := expired[:0]
	for _, inv := range expired {
		current[inv.ID] = struct{}{}
		if _, seen := s.flagged[inv.ID]; !seen {
			newlyExpired = append(newlyExpired, inv)
		}
	}
	s.flagged = current
	s.graceMu.Unlock()

	for _, inv := range newlyExpired {
		s.logger.WarnContext(ctx, "grace period expired",
			"investor_id", inv.ID, "ends_at", inv.GracePeriodEndsAt)
		entry := audit.Entry{
			EntityType: "investor",
			EntityID:   inv.ID,
			Action:     audit.ActionGraceExpired,
			ActorType:  audit.ActorSystem,
			ActorID:    "scheduler",
			Details:    fmt.Sprintf("grace period ended %s", inv.GracePeriodEndsAt.Format(time.RFC3339)),
		}
		select {
		case s.auditInbox <- entry:
		default:
			s.logger.WarnContext(ctx, "audit inbox full, grace entry dropped",
				"investor_id", inv.ID)
		}
	}
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
