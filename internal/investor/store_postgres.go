package investor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"tokengate/internal/compliance"
	"tokengate/pkg/platform/sentinel"
	txcontext "tokengate/pkg/platform/tx"
)

// PostgresStore persists investors in PostgreSQL. Bulk updates use a single
// UPDATE ... WHERE id = ANY($ids) statement; the returned id set is how
// partial application stays observable.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed investor store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const investorColumns = `
	id, token_id, name, wallet_address, jurisdiction, classification,
	kyc_approved, accredited,
	compliance_status, compliance_status_reason, compliance_status_at,
	grace_period_ends_at,
	onchain_synced, onchain_synced_at, onchain_tx_hash`

func (s *PostgresStore) Put(ctx context.Context, inv *Investor) error {
	if inv == nil || inv.ID == "" {
		return fmt.Errorf("investor with id is required")
	}
	query := `
		INSERT INTO investors (` + investorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			token_id = EXCLUDED.token_id,
			name = EXCLUDED.name,
			wallet_address = EXCLUDED.wallet_address,
			jurisdiction = EXCLUDED.jurisdiction,
			classification = EXCLUDED.classification,
			kyc_approved = EXCLUDED.kyc_approved,
			accredited = EXCLUDED.accredited,
			compliance_status = EXCLUDED.compliance_status,
			compliance_status_reason = EXCLUDED.compliance_status_reason,
			compliance_status_at = EXCLUDED.compliance_status_at,
			grace_period_ends_at = EXCLUDED.grace_period_ends_at,
			onchain_synced = EXCLUDED.onchain_synced,
			onchain_synced_at = EXCLUDED.onchain_synced_at,
			onchain_tx_hash = EXCLUDED.onchain_tx_hash
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		inv.ID, inv.TokenID, inv.Name, inv.WalletAddress, inv.Jurisdiction,
		inv.Classification, inv.KYCApproved, inv.Accredited,
		inv.ComplianceStatus, inv.ComplianceStatusReason, inv.ComplianceStatusAt,
		inv.GracePeriodEndsAt,
		inv.OnChainSynced, inv.OnChainSyncedAt, inv.OnChainTxHash,
	)
	if err != nil {
		return fmt.Errorf("put investor: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Investor, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+investorColumns+` FROM investors WHERE id = $1`, id)
	inv, err := scanInvestor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("investor %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get investor: %w", err)
	}
	return inv, nil
}

func (s *PostgresStore) ListByIDs(ctx context.Context, ids []string) ([]*Investor, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+investorColumns+` FROM investors WHERE id = ANY($1) ORDER BY id`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list investors by ids: %w", err)
	}
	return collectInvestors(rows)
}

func (s *PostgresStore) ListByToken(ctx context.Context, tokenID string) ([]*Investor, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+investorColumns+` FROM investors WHERE token_id = $1 ORDER BY id`,
		tokenID)
	if err != nil {
		return nil, fmt.Errorf("list investors by token: %w", err)
	}
	return collectInvestors(rows)
}

func (s *PostgresStore) BulkSetStatus(ctx context.Context, ids []string, change StatusChange) ([]string, error) {
	query := `
		UPDATE investors SET
			compliance_status = $1,
			compliance_status_reason = $2,
			compliance_status_at = $3,
			grace_period_ends_at = $4,
			onchain_synced = FALSE,
			onchain_synced_at = NULL,
			onchain_tx_hash = ''
		WHERE id = ANY($5)
		RETURNING id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query,
		change.Status, change.Reason, change.At, change.GracePeriodEndsAt, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("bulk set status: %w", err)
	}
	return collectIDs(rows)
}

func (s *PostgresStore) BulkSetStatusWhere(ctx context.Context, fromStatus compliance.Status, reasonContains string, change StatusChange) ([]string, error) {
	query := `
		UPDATE investors SET
			compliance_status = $1,
			compliance_status_reason = $2,
			compliance_status_at = $3,
			grace_period_ends_at = $4,
			onchain_synced = FALSE,
			onchain_synced_at = NULL,
			onchain_tx_hash = ''
		WHERE compliance_status = $5
		  AND compliance_status_reason LIKE '%' || $6 || '%'
		RETURNING id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query,
		change.Status, change.Reason, change.At, change.GracePeriodEndsAt,
		fromStatus, reasonContains)
	if err != nil {
		return nil, fmt.Errorf("bulk set status where: %w", err)
	}
	return collectIDs(rows)
}

func (s *PostgresStore) ClearSyncFlags(ctx context.Context, ids []string) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE investors SET
			onchain_synced = FALSE,
			onchain_synced_at = NULL,
			onchain_tx_hash = ''
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("clear sync flags: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkSynced(ctx context.Context, ids []string, txHash string, at time.Time) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE investors SET
			onchain_synced = TRUE,
			onchain_synced_at = $1,
			onchain_tx_hash = $2
		WHERE id = ANY($3)
	`, at, txHash, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListExpiredGrace(ctx context.Context, asOf time.Time) ([]*Investor, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+investorColumns+` FROM investors
		 WHERE grace_period_ends_at IS NOT NULL AND grace_period_ends_at < $1
		 ORDER BY grace_period_ends_at`, asOf)
	if err != nil {
		return nil, fmt.Errorf("list expired grace: %w", err)
	}
	return collectInvestors(rows)
}

func (s *PostgresStore) ListPendingSync(ctx context.Context, limit int) ([]*Investor, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+investorColumns+` FROM investors
		 WHERE onchain_synced = FALSE AND wallet_address <> ''
		 ORDER BY compliance_status_at
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	return collectInvestors(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvestor(row rowScanner) (*Investor, error) {
	var inv Investor
	var graceEnds, syncedAt sql.NullTime
	err := row.Scan(
		&inv.ID, &inv.TokenID, &inv.Name, &inv.WalletAddress, &inv.Jurisdiction,
		&inv.Classification, &inv.KYCApproved, &inv.Accredited,
		&inv.ComplianceStatus, &inv.ComplianceStatusReason, &inv.ComplianceStatusAt,
		&graceEnds,
		&inv.OnChainSynced, &syncedAt, &inv.OnChainTxHash,
	)
	if err != nil {
		return nil, err
	}
	if graceEnds.Valid {
		inv.GracePeriodEndsAt = &graceEnds.Time
	}
	if syncedAt.Valid {
		inv.OnChainSyncedAt = &syncedAt.Time
	}
	return &inv, nil
}

func collectInvestors(rows *sql.Rows) ([]*Investor, error) {
	defer rows.Close()
	var out []*Investor
	for rows.Next() {
		inv, err := scanInvestor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investor: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
