package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/platform/apperr"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new ledger repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetOrCreate returns the ledger for a manager and period, creating it on
// first use. The upsert makes concurrent first credits converge on one row.
func (r *Repo) GetOrCreate(ctx context.Context, managerID uuid.UUID, month, year int) (Ledger, error) {
	query := `
		INSERT INTO manager_ledgers (manager_id, month, year)
		VALUES ($1, $2, $3)
		ON CONFLICT (manager_id, month, year) DO UPDATE SET updated_at = now()
		RETURNING id, manager_id, month, year, created_at, updated_at`

	var l Ledger
	err := r.pool.QueryRow(ctx, query, managerID, month, year).Scan(
		&l.ID, &l.ManagerID, &l.Month, &l.Year, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return Ledger{}, fmt.Errorf("get or create ledger: %w", err)
	}

	return l, nil
}

// AddToRow upserts a ledger row with the given deltas. GREATEST clamps keep
// a late or duplicate debit from driving a row negative.
func (r *Repo) AddToRow(ctx context.Context, ledgerID uuid.UUID, rowKey string, deltaCount int, deltaCents, deltaSeconds int64) (Row, error) {
	query := `
		INSERT INTO ledger_rows (ledger_id, row_key, call_count, total_bonus_cents, talking_seconds)
		VALUES ($1, $2, GREATEST(0, $3::int), GREATEST(0, $4::bigint), GREATEST(0, $5::bigint))
		ON CONFLICT (ledger_id, row_key) DO UPDATE SET
			call_count = GREATEST(0, ledger_rows.call_count + $3),
			total_bonus_cents = GREATEST(0, ledger_rows.total_bonus_cents + $4),
			talking_seconds = GREATEST(0, ledger_rows.talking_seconds + $5),
			updated_at = now()
		RETURNING id, ledger_id, row_key, call_count, total_bonus_cents, talking_seconds, updated_at`

	var row Row
	err := r.pool.QueryRow(ctx, query, ledgerID, rowKey, deltaCount, deltaCents, deltaSeconds).Scan(
		&row.ID, &row.LedgerID, &row.RowKey, &row.CallCount, &row.TotalBonusCents, &row.TalkingSeconds, &row.UpdatedAt,
	)
	if err != nil {
		return Row{}, fmt.Errorf("add to ledger row: %w", err)
	}

	return row, nil
}

// GetByManagerMonth loads a ledger and its rows.
func (r *Repo) GetByManagerMonth(ctx context.Context, managerID uuid.UUID, month, year int) (Ledger, error) {
	query := `
		SELECT id, manager_id, month, year, created_at, updated_at
		FROM manager_ledgers
		WHERE manager_id = $1 AND month = $2 AND year = $3`

	var l Ledger
	err := r.pool.QueryRow(ctx, query, managerID, month, year).Scan(
		&l.ID, &l.ManagerID, &l.Month, &l.Year, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ledger{}, apperr.NotFound("ledger not found for this period")
		}
		return Ledger{}, fmt.Errorf("get ledger: %w", err)
	}

	rows, err := r.rowsForLedgers(ctx, []uuid.UUID{l.ID})
	if err != nil {
		return Ledger{}, err
	}
	l.Rows = rows[l.ID]

	return l, nil
}

// ListForMonth loads all ledgers and rows for a period.
func (r *Repo) ListForMonth(ctx context.Context, month, year int) ([]Ledger, error) {
	query := `
		SELECT id, manager_id, month, year, created_at, updated_at
		FROM manager_ledgers
		WHERE month = $1 AND year = $2
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, month, year)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []Ledger
	var ids []uuid.UUID
	for rows.Next() {
		var l Ledger
		if err := rows.Scan(&l.ID, &l.ManagerID, &l.Month, &l.Year, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		ledgers = append(ledgers, l)
		ids = append(ids, l.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledgers: %w", err)
	}

	if len(ids) == 0 {
		return ledgers, nil
	}

	byLedger, err := r.rowsForLedgers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range ledgers {
		ledgers[i].Rows = byLedger[ledgers[i].ID]
	}

	return ledgers, nil
}

// LedgerRowTotals aggregates ledger rows per manager and row key for a period.
func (r *Repo) LedgerRowTotals(ctx context.Context, month, year int) ([]RowTotal, error) {
	query := `
		SELECT ml.manager_id, lr.row_key, COALESCE(SUM(lr.call_count), 0), COALESCE(SUM(lr.total_bonus_cents), 0)
		FROM ledger_rows lr
		JOIN manager_ledgers ml ON ml.id = lr.ledger_id
		WHERE ml.month = $1 AND ml.year = $2
		GROUP BY ml.manager_id, lr.row_key`

	return r.queryTotals(ctx, query, month, year, "ledger row totals")
}

// DeclaredTotals recomputes expected ledger contents from approved active
// declarations. Filler declarations carry no payout and stay off the ledger.
func (r *Repo) DeclaredTotals(ctx context.Context, month, year int) ([]RowTotal, error) {
	query := `
		SELECT affiliate_manager_id,
			CASE call_type
				WHEN 'deposit' THEN 'deposit_calls'
				WHEN 'first_call' THEN 'first_am_call'
				WHEN 'second_call' THEN 'second_am_call'
				WHEN 'third_call' THEN 'third_am_call'
				WHEN 'fourth_call' THEN 'fourth_am_call'
			END AS row_key,
			COUNT(*), COALESCE(SUM(total_bonus_cents), 0)
		FROM call_declarations
		WHERE period_month = $1 AND period_year = $2
			AND status = 'approved' AND is_active AND call_category = 'ftd'
			AND call_type IN ('deposit', 'first_call', 'second_call', 'third_call', 'fourth_call')
		GROUP BY affiliate_manager_id, row_key`

	return r.queryTotals(ctx, query, month, year, "declared totals")
}

func (r *Repo) queryTotals(ctx context.Context, query string, month, year int, op string) ([]RowTotal, error) {
	rows, err := r.pool.Query(ctx, query, month, year)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var totals []RowTotal
	for rows.Next() {
		var t RowTotal
		if err := rows.Scan(&t.ManagerID, &t.RowKey, &t.CallCount, &t.TotalBonusCents); err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}

	return totals, nil
}

func (r *Repo) rowsForLedgers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Row, error) {
	query := `
		SELECT id, ledger_id, row_key, call_count, total_bonus_cents, talking_seconds, updated_at
		FROM ledger_rows
		WHERE ledger_id = ANY($1)
		ORDER BY row_key`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("load ledger rows: %w", err)
	}
	defer rows.Close()

	byLedger := make(map[uuid.UUID][]Row)
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.LedgerID, &row.RowKey, &row.CallCount, &row.TotalBonusCents, &row.TalkingSeconds, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		byLedger[row.LedgerID] = append(byLedger[row.LedgerID], row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}

	return byLedger, nil
}
