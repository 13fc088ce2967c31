package reconciler

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

// SyncStatus is the lifecycle state of one reconciliation attempt.
type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncConfirmed SyncStatus = "confirmed"
	SyncFailed    SyncStatus = "failed"
)

// SyncRecord is one reconciliation attempt over a batch. Append-only: every
// attempt produces a new record, confirmed or failed, never an update.
type SyncRecord struct {
	ID              string     `json:"id"`
	EntityType      string     `json:"entityType"`
	EntityIDs       []string   `json:"entityIds"`
	ContractAddress string     `json:"contractAddress"`
	ChainID         int64      `json:"chainId"`
	DataHash        string     `json:"dataHash"`
	TxHash          string     `json:"txHash,omitempty"`
	BlockNumber     uint64     `json:"blockNumber,omitempty"`
	SyncStatus      SyncStatus `json:"syncStatus"`
	Error           string     `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// SyncStore persists reconciliation attempts.
type SyncStore interface {
	Append(ctx context.Context, rec *SyncRecord) error
	ListByEntity(ctx context.Context, entityID string) ([]*SyncRecord, error)
}

// MemorySyncStore keeps records in a slice, oldest first.
type MemorySyncStore struct {
	mu      sync.Mutex
	records []*SyncRecord
}

func NewMemorySyncStore() *MemorySyncStore {
	return &MemorySyncStore{}
}

func (s *MemorySyncStore) Append(_ context.Context, rec *SyncRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("sync record with id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records = append(s.records, &cp)
	return nil
}

func (s *MemorySyncStore) ListByEntity(_ context.Context, entityID string) ([]*SyncRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*SyncRecord
	for _, rec := range s.records {
		for _, id := range rec.EntityIDs {
			if id == entityID {
				cp := *rec
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

// All returns every record, oldest first.
func (s *MemorySyncStore) All() []*SyncRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*SyncRecord, len(s.records))
	copy(out, s.records)
	return out
}

// PostgresSyncStore is the production SyncStore. Insert-only by design; there
// is no update path.
type PostgresSyncStore struct {
	db *sql.DB
}

func NewPostgresSyncStore(db *sql.DB) *PostgresSyncStore {
	return &PostgresSyncStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresSyncStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresSyncStore) Append(ctx context.Context, rec *SyncRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO sync_records
			(id, entity_type, entity_ids, contract_address, chain_id,
			 data_hash, tx_hash, block_number, sync_status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.EntityType, pq.Array(rec.EntityIDs), rec.ContractAddress, rec.ChainID,
		rec.DataHash, rec.TxHash, rec.BlockNumber, string(rec.SyncStatus), rec.Error, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting sync record: %w", err)
	}
	return nil
}

func (s *PostgresSyncStore) ListByEntity(ctx context.Context, entityID string) ([]*SyncRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_ids, contract_address, chain_id,
		       data_hash, tx_hash, block_number, sync_status, error, created_at
		FROM sync_records
		WHERE $1 = ANY(entity_ids)
		ORDER BY created_at ASC`, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing sync records: %w", err)
	}
	defer rows.Close()

	var out []*SyncRecord
	for rows.Next() {
		var rec SyncRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.EntityType, pq.Array(&rec.EntityIDs),
			&rec.ContractAddress, &rec.ChainID, &rec.DataHash, &rec.TxHash,
			&rec.BlockNumber, &status, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning sync record: %w", err)
		}
		rec.SyncStatus = SyncStatus(status)
		out = append(out, &rec)
	}
	return out, rows.Err()
}
