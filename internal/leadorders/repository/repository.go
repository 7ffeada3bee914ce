package repository

import (
	"context"
	"encoding/json"
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

// New creates a new lead/order repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetLead retrieves a lead by its ID.
func (r *Repo) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	query := `
		SELECT id, name, email, phone, assigned_agent_id, created_at, updated_at
		FROM leads WHERE id = $1`

	var l Lead
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.AssignedAgentID, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound("lead not found")
		}
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}

	return l, nil
}

// GetOrder retrieves an order by its ID.
func (r *Repo) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	query := `SELECT id, name, created_at FROM orders WHERE id = $1`

	var o Order
	if err := r.pool.QueryRow(ctx, query, id).Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound("order not found")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}

	return o, nil
}

// GetOrderLead retrieves the lead-in-order record with its deposit metadata.
func (r *Repo) GetOrderLead(ctx context.Context, orderID, leadID uuid.UUID) (OrderLead, error) {
	query := `
		SELECT order_id, lead_id, deposit_confirmed, deposit_confirmed_by, deposit_confirmed_at,
			deposit_psp, deposit_card_issuer, updated_at
		FROM order_leads WHERE order_id = $1 AND lead_id = $2`

	var ol OrderLead
	err := r.pool.QueryRow(ctx, query, orderID, leadID).Scan(
		&ol.OrderID, &ol.LeadID, &ol.DepositConfirmed, &ol.DepositConfirmedBy, &ol.DepositConfirmedAt,
		&ol.DepositPSP, &ol.DepositCardIssuer, &ol.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrderLead{}, apperr.NotFound("lead is not part of this order")
		}
		return OrderLead{}, fmt.Errorf("get order lead: %w", err)
	}

	return ol, nil
}

// SetDepositMetadata marks the lead-in-order record deposit-confirmed.
func (r *Repo) SetDepositMetadata(ctx context.Context, orderID, leadID uuid.UUID, meta DepositMetadata) error {
	query := `
		UPDATE order_leads
		SET deposit_confirmed = true, deposit_confirmed_by = $3, deposit_confirmed_at = now(),
			deposit_psp = $4, deposit_card_issuer = $5, updated_at = now()
		WHERE order_id = $1 AND lead_id = $2`

	tag, err := r.pool.Exec(ctx, query, orderID, leadID, meta.ConfirmedBy, meta.PSP, meta.CardIssuer)
	if err != nil {
		return fmt.Errorf("set deposit metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead is not part of this order")
	}

	return nil
}

// ClearDepositMetadata rolls the lead-in-order record back to unconfirmed.
func (r *Repo) ClearDepositMetadata(ctx context.Context, orderID, leadID uuid.UUID) error {
	query := `
		UPDATE order_leads
		SET deposit_confirmed = false, deposit_confirmed_by = NULL, deposit_confirmed_at = NULL,
			deposit_psp = NULL, deposit_card_issuer = NULL, updated_at = now()
		WHERE order_id = $1 AND lead_id = $2`

	tag, err := r.pool.Exec(ctx, query, orderID, leadID)
	if err != nil {
		return fmt.Errorf("clear deposit metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead is not part of this order")
	}

	return nil
}

// Append writes one audit entry. The table is append-only.
func (r *Repo) Append(ctx context.Context, action string, performedBy uuid.UUID, details any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	query := `INSERT INTO audit_logs (action, performed_by, details) VALUES ($1, $2, $3)`
	if _, err := r.pool.Exec(ctx, query, action, performedBy, payload); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}

	return nil
}

// ListRecent returns the newest audit entries.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, action, performed_by, performed_at, details
		FROM audit_logs
		ORDER BY performed_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var entry AuditLog
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.PerformedBy, &entry.PerformedAt, &entry.Details); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}

	return logs, nil
}
