package screening

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	txcontext "tokengate/pkg/platform/tx"
)

// Record is one persisted screening outcome. Append-only: every fresh
// provider call produces a new record carrying the attestation hash that
// binds address, provider, list version, and timestamp.
type Record struct {
	ID                   string    `json:"id"`
	Address              string    `json:"address"`
	Jurisdiction         string    `json:"jurisdiction"`
	Passed               bool      `json:"passed"`
	Provider             string    `json:"provider"`
	RiskScore            int       `json:"riskScore"`
	Flags                []string  `json:"flags,omitempty"`
	RequiresManualReview bool      `json:"requiresManualReview"`
	ListVersion          string    `json:"listVersion,omitempty"`
	Attestation          string    `json:"attestation,omitempty"`
	CheckedAt            time.Time `json:"checkedAt"`
}

// ResultStore persists screening outcomes for later on-chain attestation.
type ResultStore interface {
	Append(ctx context.Context, rec Record) error
	ListByAddress(ctx context.Context, address string) ([]Record, error)
}

// MemoryResultStore keeps records in a slice, oldest first.
type MemoryResultStore struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{}
}

func (s *MemoryResultStore) Append(_ context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("screening record with id is required")
	}
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

func (s *MemoryResultStore) ListByAddress(_ context.Context, address string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.Address == address {
			out = append(out, rec)
		}
	}
	return out, nil
}

// All returns every record, oldest first. Test helper.
func (s *MemoryResultStore) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// PostgresResultStore is the production ResultStore. Insert-only; screening
// history is never rewritten.
type PostgresResultStore struct {
	db *sql.DB
}

func NewPostgresResultStore(db *sql.DB) *PostgresResultStore {
	return &PostgresResultStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresResultStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresResultStore) Append(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO screening_results
			(id, address, jurisdiction, passed, provider, risk_score,
			 flags, requires_manual_review, list_version, attestation, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.Address, rec.Jurisdiction, rec.Passed, rec.Provider, rec.RiskScore,
		pq.Array(rec.Flags), rec.RequiresManualReview, rec.ListVersion, rec.Attestation, rec.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting screening result: %w", err)
	}
	return nil
}

func (s *PostgresResultStore) ListByAddress(ctx context.Context, address string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address, jurisdiction, passed, provider, risk_score,
		       flags, requires_manual_review, list_version, attestation, checked_at
		FROM screening_results
		WHERE address = $1
		ORDER BY checked_at ASC`, address)
	if err != nil {
		return nil, fmt.Errorf("listing screening results: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Address, &rec.Jurisdiction, &rec.Passed,
			&rec.Provider, &rec.RiskScore, pq.Array(&rec.Flags), &rec.RequiresManualReview,
			&rec.ListVersion, &rec.Attestation, &rec.CheckedAt); err != nil {
			return nil, fmt.Errorf("scanning screening result: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
