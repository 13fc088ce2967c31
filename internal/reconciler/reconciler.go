package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tokengate/internal/audit"
	"tokengate/internal/investor"
	"tokengate/pkg/contenthash"
	domainerrors "tokengate/pkg/domain-errors"
)

var tracer = otel.Tracer("tokengate/reconciler")

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether s is a syntactically valid registry address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// SyncResult reports one batch reconciliation attempt.
type SyncResult struct {
	Confirmed    bool     `json:"confirmed"`
	SubmittedIDs []string `json:"submittedIds,omitempty"`
	SkippedIDs   []string `json:"skippedIds,omitempty"`
	TxHash       string   `json:"txHash,omitempty"`
	BlockNumber  uint64   `json:"blockNumber,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// Reconciler pushes pending status changes to the registry contract.
// Writes are serialized per signing wallet: the contract gateway orders
// transactions by nonce, so at most one batch may be in flight at a time.
type Reconciler struct {
	investors investor.Store
	registry  RegistryClient
	records   SyncStore
	auditor   *audit.Publisher

	contractAddress string
	chainID         int64
	batchSize       int
	walletMu        sync.Mutex

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func WithAuditor(p *audit.Publisher) Option {
	return func(r *Reconciler) { r.auditor = p }
}

// WithBatchSize lowers the per-sweep submission cap. The contract rejects
// batches over MaxBatchSize, so values are clamped to [1, MaxBatchSize].
func WithBatchSize(n int) Option {
	return func(r *Reconciler) {
		if n < 1 {
			n = 1
		}
		if n > MaxBatchSize {
			n = MaxBatchSize
		}
		r.batchSize = n
	}
}

// New constructs a Reconciler. ValidateCodec must have passed at startup
// before any batch is submitted.
func New(investors investor.Store, registry RegistryClient, records SyncStore, contractAddress string, chainID int64, opts ...Option) *Reconciler {
	r := &Reconciler{
		investors:       investors,
		registry:        registry,
		records:         records,
		contractAddress: contractAddress,
		chainID:         chainID,
		batchSize:       MaxBatchSize,
		logger:          slog.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SyncBatch reconciles the named investors on chain. Investors with a
// malformed address, already synced, or holding an unmapped status are
// skipped and logged. On confirmation exactly the submitted ids are marked
// synced and a confirmed SyncRecord is appended; on any failure a failed
// SyncRecord is appended and no sync flags change, leaving the cohort for
// the next sweep.
func (r *Reconciler) SyncBatch(ctx context.Context, investorIDs []string) (*SyncResult, error) {
	ctx, span := tracer.Start(ctx, "reconciler.SyncBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(investorIDs))))
	defer span.End()

	if len(investorIDs) == 0 {
		return &SyncResult{Confirmed: true, Message: "nothing to sync"}, nil
	}

	investors, err := r.investors.ListByIDs(ctx, investorIDs)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "loading investors failed", err)
	}

	var (
		submitted []string
		addresses []string
		codes     []uint8
		statuses  []string
		skipped   []string
	)
	for _, inv := range investors {
		if inv.OnChainSynced {
			skipped = append(skipped, inv.ID)
			continue
		}
		if !ValidAddress(inv.WalletAddress) {
			r.logger.WarnContext(ctx, "investor has malformed wallet address, excluded from batch",
				"investor_id", inv.ID)
			skipped = append(skipped, inv.ID)
			continue
		}
		code, err := EncodeStatus(inv.ComplianceStatus)
		if err != nil {
			r.logger.ErrorContext(ctx, "investor status has no contract encoding, excluded from batch",
				"investor_id", inv.ID, "status", string(inv.ComplianceStatus))
			skipped = append(skipped, inv.ID)
			continue
		}
		if len(submitted) == r.batchSize {
			// Oversized cohorts sync across sweeps; the remainder stays
			// pending and is picked up by the next run.
			skipped = append(skipped, inv.ID)
			continue
		}
		submitted = append(submitted, inv.ID)
		addresses = append(addresses, inv.WalletAddress)
		codes = append(codes, code)
		statuses = append(statuses, string(inv.ComplianceStatus))
	}

	if len(submitted) == 0 {
		return &SyncResult{Confirmed: true, SkippedIDs: skipped, Message: "no investors eligible for sync"}, nil
	}

	r.walletMu.Lock()
	receipt, submitErr := r.registry.BatchUpdateStatus(ctx, addresses, codes)
	r.walletMu.Unlock()

	dataHash := contenthash.SyncDigest(submitted, statuses)

	if submitErr != nil {
		r.appendRecord(ctx, &SyncRecord{
			EntityIDs:  submitted,
			SyncStatus: SyncFailed,
			DataHash:   dataHash,
			Error:      submitErr.Error(),
		})
		r.emitAudit(ctx, submitted, audit.ActionSyncFailed, submitErr.Error())
		r.logger.ErrorContext(ctx, "registry batch submission failed",
			"batch_size", len(submitted), "error", submitErr)
		return &SyncResult{
			SubmittedIDs: submitted,
			SkippedIDs:   skipped,
			Message:      fmt.Sprintf("registry submission failed: %v", submitErr),
		}, nil
	}

	if err := r.investors.MarkSynced(ctx, submitted, receipt.TxHash, r.now().UTC()); err != nil {
		// The chain write landed; record it and let drift detection or the
		// next sweep repair the flags.
		r.logger.ErrorContext(ctx, "marking investors synced failed after confirmed tx",
			"tx_hash", receipt.TxHash, "error", err)
	}

	r.appendRecord(ctx, &SyncRecord{
		EntityIDs:   submitted,
		SyncStatus:  SyncConfirmed,
		DataHash:    dataHash,
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
	})
	r.emitAudit(ctx, submitted, audit.ActionSyncConfirmed, receipt.TxHash)

	r.logger.InfoContext(ctx, "registry batch confirmed",
		"batch_size", len(submitted), "tx_hash", receipt.TxHash, "block", receipt.BlockNumber)

	return &SyncResult{
		Confirmed:    true,
		SubmittedIDs: submitted,
		SkippedIDs:   skipped,
		TxHash:       receipt.TxHash,
		BlockNumber:  receipt.BlockNumber,
		Message:      fmt.Sprintf("synced %d investors", len(submitted)),
	}, nil
}

// SweepPending reconciles the next batch of investors awaiting sync.
func (r *Reconciler) SweepPending(ctx context.Context) (*SyncResult, error) {
	pending, err := r.investors.ListPendingSync(ctx, r.batchSize)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "listing pending sync failed", err)
	}
	ids := make([]string, 0, len(pending))
	for _, inv := range pending {
		ids = append(ids, inv.ID)
	}
	return r.SyncBatch(ctx, ids)
}

// Verify reads the investor's on-chain status and reports whether it matches
// the stored status. Used for drift detection; it never mutates state.
func (r *Reconciler) Verify(ctx context.Context, investorID string) (bool, error) {
	inv, err := r.investors.Get(ctx, investorID)
	if err != nil {
		return false, err
	}
	if !ValidAddress(inv.WalletAddress) {
		return false, domainerrors.New(domainerrors.CodeBadRequest,
			fmt.Sprintf("investor %s has malformed wallet address", investorID))
	}

	chain, err := r.registry.GetStatus(ctx, inv.WalletAddress)
	if err != nil {
		return false, domainerrors.Wrap(domainerrors.CodeLedger, "reading on-chain status failed", err)
	}
	chainStatus, err := DecodeStatus(chain.Code)
	if err != nil {
		return false, domainerrors.Wrap(domainerrors.CodeLedger, "on-chain status unmappable", err)
	}

	match := chainStatus == inv.ComplianceStatus
	if !match {
		r.logger.WarnContext(ctx, "on-chain status drift detected",
			"investor_id", investorID,
			"stored", string(inv.ComplianceStatus),
			"on_chain", string(chainStatus))
	}
	return match, nil
}

func (r *Reconciler) appendRecord(ctx context.Context, rec *SyncRecord) {
	rec.ID = uuid.NewString()
	rec.EntityType = "investor"
	rec.ContractAddress = r.contractAddress
	rec.ChainID = r.chainID
	rec.CreatedAt = r.now().UTC()
	if err := r.records.Append(ctx, rec); err != nil {
		r.logger.ErrorContext(ctx, "appending sync record failed",
			"sync_status", string(rec.SyncStatus), "error", err)
	}
}

func (r *Reconciler) emitAudit(ctx context.Context, ids []string, action, details string) {
	if r.auditor == nil {
		return
	}
	entries := make([]audit.Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, audit.Entry{
			EntityType: "investor",
			EntityID:   id,
			Action:     action,
			ActorType:  audit.ActorSystem,
			ActorID:    "reconciler",
			Details:    details,
		})
	}
	if err := r.auditor.EmitAll(ctx, entries); err != nil {
		r.logger.WarnContext(ctx, "sync audit emit failed", "error", err)
	}
}
