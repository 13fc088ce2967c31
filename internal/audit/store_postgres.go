package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	txcontext "tokengate/pkg/platform/tx"
)

// PostgresStore persists audit entries in PostgreSQL. Insert-only; there is
// deliberately no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	query := `
		INSERT INTO audit_entries (
			id, case_id, entity_type, entity_id, action,
			actor_type, actor_id, model_id, model_version, ruleset_version,
			details, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID, entry.CaseID, entry.EntityType, entry.EntityID, entry.Action,
		entry.ActorType, entry.ActorID, entry.ModelID, entry.ModelVersion, entry.RulesetVersion,
		entry.Details, entry.RequestID, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entityID string) ([]Entry, error) {
	return s.list(ctx, `entity_id = $1`, entityID)
}

func (s *PostgresStore) ListByCase(ctx context.Context, caseID string) ([]Entry, error) {
	return s.list(ctx, `case_id = $1`, caseID)
}

func (s *PostgresStore) list(ctx context.Context, where string, arg any) ([]Entry, error) {
	query := `
		SELECT id, case_id, entity_type, entity_id, action,
		       actor_type, actor_id, model_id, model_version, ruleset_version,
		       details, request_id, created_at
		FROM audit_entries
		WHERE ` + where + `
		ORDER BY created_at
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.CaseID, &e.EntityType, &e.EntityID, &e.Action,
			&e.ActorType, &e.ActorID, &e.ModelID, &e.ModelVersion, &e.RulesetVersion,
			&e.Details, &e.RequestID, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
