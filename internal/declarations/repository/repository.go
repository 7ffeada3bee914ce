package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/platform/apperr"
)

const declarationNotFoundMessage = "declaration not found"

// pgUniqueViolation is the Postgres error code for unique constraint violations.
const pgUniqueViolation = "23505"

const declarationColumns = `
	id, agent_id, affiliate_manager_id, lead_id, order_id,
	call_type, call_category, call_date, source, destination,
	duration_seconds, dedup_key,
	base_bonus_cents, overage_bonus_cents, total_bonus_cents,
	status, notes, review_notes, reviewed_by, reviewed_at,
	period_month, period_year, is_active, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new declarations repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a declaration. An active duplicate on the dedup key (or a
// second active deposit for the same lead and order) trips the partial
// unique index and surfaces as Conflict.
func (r *Repo) Create(ctx context.Context, decl Declaration) (Declaration, error) {
	query := `
		INSERT INTO call_declarations (
			agent_id, affiliate_manager_id, lead_id, order_id,
			call_type, call_category, call_date, source, destination,
			duration_seconds, dedup_key,
			base_bonus_cents, overage_bonus_cents, total_bonus_cents,
			status, notes, review_notes, reviewed_by, reviewed_at,
			period_month, period_year
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING` + declarationColumns

	row := r.pool.QueryRow(ctx, query,
		decl.AgentID, decl.AffiliateManagerID, decl.LeadID, decl.OrderID,
		decl.CallType, decl.CallCategory, decl.CallDate, decl.Source, decl.Destination,
		decl.DurationSeconds, decl.DedupKey,
		decl.BaseBonusCents, decl.OverageBonusCents, decl.TotalBonusCents,
		decl.Status, decl.Notes, decl.ReviewNotes, decl.ReviewedBy, decl.ReviewedAt,
		decl.PeriodMonth, decl.PeriodYear,
	)

	created, err := scanDeclaration(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Declaration{}, apperr.Conflict("an active declaration already exists for this call")
		}
		return Declaration{}, fmt.Errorf("create declaration: %w", err)
	}

	return created, nil
}

// GetByID retrieves a declaration by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Declaration, error) {
	query := `SELECT` + declarationColumns + ` FROM call_declarations WHERE id = $1`

	decl, err := scanDeclaration(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Declaration{}, apperr.NotFound(declarationNotFoundMessage)
		}
		return Declaration{}, fmt.Errorf("get declaration by id: %w", err)
	}

	return decl, nil
}

// FindActiveByDedupKey retrieves the active declaration for a dedup key.
func (r *Repo) FindActiveByDedupKey(ctx context.Context, dedupKey string) (Declaration, error) {
	query := `SELECT` + declarationColumns + ` FROM call_declarations WHERE dedup_key = $1 AND is_active`

	decl, err := scanDeclaration(r.pool.QueryRow(ctx, query, dedupKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Declaration{}, apperr.NotFound(declarationNotFoundMessage)
		}
		return Declaration{}, fmt.Errorf("find declaration by dedup key: %w", err)
	}

	return decl, nil
}

// FindActiveDepositByLeadOrder retrieves the active deposit declaration for a
// lead within an order.
func (r *Repo) FindActiveDepositByLeadOrder(ctx context.Context, leadID, orderID uuid.UUID) (Declaration, error) {
	query := `
		SELECT` + declarationColumns + `
		FROM call_declarations
		WHERE lead_id = $1 AND order_id = $2 AND call_type = 'deposit' AND is_active`

	decl, err := scanDeclaration(r.pool.QueryRow(ctx, query, leadID, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Declaration{}, apperr.NotFound(declarationNotFoundMessage)
		}
		return Declaration{}, fmt.Errorf("find deposit declaration: %w", err)
	}

	return decl, nil
}

// StatusesByDedupKeys returns the status of each active declaration whose
// dedup key is in keys.
func (r *Repo) StatusesByDedupKeys(ctx context.Context, keys []string) (map[string]string, error) {
	statuses := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return statuses, nil
	}

	query := `SELECT dedup_key, status FROM call_declarations WHERE dedup_key = ANY($1) AND is_active`

	rows, err := r.pool.Query(ctx, query, keys)
	if err != nil {
		return nil, fmt.Errorf("statuses by dedup keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, status string
		if err := rows.Scan(&key, &status); err != nil {
			return nil, fmt.Errorf("scan declaration status: %w", err)
		}
		statuses[key] = status
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate declaration statuses: %w", err)
	}

	return statuses, nil
}

// ApproveIfPending transitions pending to approved. The conditional update
// makes concurrent reviews race safely: exactly one wins.
func (r *Repo) ApproveIfPending(ctx context.Context, id, reviewerID uuid.UUID, reviewNotes *string) (Declaration, error) {
	query := `
		UPDATE call_declarations
		SET status = 'approved', reviewed_by = $2, reviewed_at = now(), review_notes = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending' AND is_active
		RETURNING` + declarationColumns

	decl, err := scanDeclaration(r.pool.QueryRow(ctx, query, id, reviewerID, reviewNotes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Declaration{}, r.notPendingError(ctx, id)
		}
		return Declaration{}, fmt.Errorf("approve declaration: %w", err)
	}

	return decl, nil
}

// RejectIfPending transitions pending to rejected.
func (r *Repo) RejectIfPending(ctx context.Context, id, reviewerID uuid.UUID, reviewNotes string) (Declaration, error) {
	query := `
		UPDATE call_declarations
		SET status = 'rejected', reviewed_by = $2, reviewed_at = now(), review_notes = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending' AND is_active
		RETURNING` + declarationColumns

	decl, err := scanDeclaration(r.pool.QueryRow(ctx, query, id, reviewerID, reviewNotes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Declaration{}, r.notPendingError(ctx, id)
		}
		return Declaration{}, fmt.Errorf("reject declaration: %w", err)
	}

	return decl, nil
}

// DeactivateIfActive soft-deletes the declaration. The bool reports whether
// this call performed the deactivation; a false with nil error means the
// declaration was already inactive, which keeps reversal idempotent.
func (r *Repo) DeactivateIfActive(ctx context.Context, id uuid.UUID) (Declaration, bool, error) {
	query := `
		UPDATE call_declarations
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING` + declarationColumns

	decl, err := scanDeclaration(r.pool.QueryRow(ctx, query, id))
	if err == nil {
		return decl, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Declaration{}, false, fmt.Errorf("deactivate declaration: %w", err)
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return Declaration{}, false, err
	}
	return existing, false, nil
}

// List retrieves declarations with optional filters, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Declaration, int, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	filter := `
		WHERE is_active
			AND ($1::uuid IS NULL OR agent_id = $1)
			AND ($2::uuid IS NULL OR affiliate_manager_id = $2)
			AND ($3::text IS NULL OR status = $3)
			AND ($4::int IS NULL OR period_month = $4)
			AND ($5::int IS NULL OR period_year = $5)`

	args := []interface{}{params.AgentID, params.ManagerID, params.Status, params.Month, params.Year}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM call_declarations`+filter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count declarations: %w", err)
	}

	query := `SELECT` + declarationColumns + ` FROM call_declarations` + filter + `
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7`

	rows, err := r.pool.Query(ctx, query, append(args, limit, params.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list declarations: %w", err)
	}
	defer rows.Close()

	var results []Declaration
	for rows.Next() {
		decl, err := scanDeclaration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan declaration: %w", err)
		}
		results = append(results, decl)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate declarations: %w", err)
	}

	return results, total, nil
}

// AgentMonthlySummary aggregates an agent's approved active declarations for
// one period.
func (r *Repo) AgentMonthlySummary(ctx context.Context, agentID uuid.UUID, month, year int) (AgentSummary, error) {
	summary := AgentSummary{AgentID: agentID}

	totalsQuery := `
		SELECT COUNT(*),
			COALESCE(SUM(base_bonus_cents), 0),
			COALESCE(SUM(overage_bonus_cents), 0),
			COALESCE(SUM(total_bonus_cents), 0),
			COALESCE(SUM(duration_seconds), 0)
		FROM call_declarations
		WHERE agent_id = $1 AND period_month = $2 AND period_year = $3
			AND status = 'approved' AND is_active`

	err := r.pool.QueryRow(ctx, totalsQuery, agentID, month, year).Scan(
		&summary.Count, &summary.BaseBonusCents, &summary.OverageBonusCents,
		&summary.TotalBonusCents, &summary.DurationSeconds,
	)
	if err != nil {
		return AgentSummary{}, fmt.Errorf("agent monthly totals: %w", err)
	}

	breakdownQuery := `
		SELECT call_type, COUNT(*), COALESCE(SUM(total_bonus_cents), 0)
		FROM call_declarations
		WHERE agent_id = $1 AND period_month = $2 AND period_year = $3
			AND status = 'approved' AND is_active
		GROUP BY call_type
		ORDER BY call_type`

	rows, err := r.pool.Query(ctx, breakdownQuery, agentID, month, year)
	if err != nil {
		return AgentSummary{}, fmt.Errorf("agent monthly breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item TypeBreakdown
		if err := rows.Scan(&item.CallType, &item.Count, &item.TotalBonusCents); err != nil {
			return AgentSummary{}, fmt.Errorf("scan breakdown: %w", err)
		}
		summary.ByType = append(summary.ByType, item)
	}
	if err := rows.Err(); err != nil {
		return AgentSummary{}, fmt.Errorf("iterate breakdown: %w", err)
	}

	return summary, nil
}

// MonthlyRollup aggregates approved active declarations across all agents
// for one period.
func (r *Repo) MonthlyRollup(ctx context.Context, month, year int) ([]AgentSummary, error) {
	query := `
		SELECT agent_id, COUNT(*),
			COALESCE(SUM(base_bonus_cents), 0),
			COALESCE(SUM(overage_bonus_cents), 0),
			COALESCE(SUM(total_bonus_cents), 0),
			COALESCE(SUM(duration_seconds), 0)
		FROM call_declarations
		WHERE period_month = $1 AND period_year = $2 AND status = 'approved' AND is_active
		GROUP BY agent_id
		ORDER BY SUM(total_bonus_cents) DESC`

	rows, err := r.pool.Query(ctx, query, month, year)
	if err != nil {
		return nil, fmt.Errorf("monthly rollup: %w", err)
	}
	defer rows.Close()

	var results []AgentSummary
	for rows.Next() {
		var s AgentSummary
		err := rows.Scan(&s.AgentID, &s.Count, &s.BaseBonusCents, &s.OverageBonusCents, &s.TotalBonusCents, &s.DurationSeconds)
		if err != nil {
			return nil, fmt.Errorf("scan rollup: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rollup: %w", err)
	}

	return results, nil
}

// notPendingError disambiguates a failed conditional review update.
func (r *Repo) notPendingError(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return apperr.Conflict("declaration is not pending review")
}

func scanDeclaration(row pgx.Row) (Declaration, error) {
	var d Declaration
	err := row.Scan(
		&d.ID, &d.AgentID, &d.AffiliateManagerID, &d.LeadID, &d.OrderID,
		&d.CallType, &d.CallCategory, &d.CallDate, &d.Source, &d.Destination,
		&d.DurationSeconds, &d.DedupKey,
		&d.BaseBonusCents, &d.OverageBonusCents, &d.TotalBonusCents,
		&d.Status, &d.Notes, &d.ReviewNotes, &d.ReviewedBy, &d.ReviewedAt,
		&d.PeriodMonth, &d.PeriodYear, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}
