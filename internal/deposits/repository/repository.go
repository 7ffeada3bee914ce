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

const recordColumns = `
	id, lead_id, order_id, deposit_confirmed, deposit_confirmed_by, deposit_confirmed_at,
	deposit_declaration_id, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new deposit tracker repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetOrCreate returns the tracker for a lead and order, creating it with its
// pending slots on first use. The upsert keeps concurrent confirmations on
// one row.
func (r *Repo) GetOrCreate(ctx context.Context, leadID, orderID uuid.UUID) (Record, error) {
	query := `
		INSERT INTO deposit_calls (lead_id, order_id)
		VALUES ($1, $2)
		ON CONFLICT (lead_id, order_id) DO UPDATE SET updated_at = now()
		RETURNING` + recordColumns

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, leadID, orderID))
	if err != nil {
		return Record{}, fmt.Errorf("get or create deposit tracker: %w", err)
	}

	slotsQuery := `
		INSERT INTO deposit_call_slots (record_id, slot_number)
		SELECT $1, n FROM generate_series(1, $2) AS n
		ON CONFLICT (record_id, slot_number) DO NOTHING`
	if _, err := r.pool.Exec(ctx, slotsQuery, rec.ID, SlotCount); err != nil {
		return Record{}, fmt.Errorf("seed deposit slots: %w", err)
	}

	return r.withSlots(ctx, rec)
}

// GetByLeadOrder loads an existing tracker and its slots.
func (r *Repo) GetByLeadOrder(ctx context.Context, leadID, orderID uuid.UUID) (Record, error) {
	query := `SELECT` + recordColumns + ` FROM deposit_calls WHERE lead_id = $1 AND order_id = $2`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, leadID, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, apperr.NotFound("no deposit tracker for this lead and order")
		}
		return Record{}, fmt.Errorf("get deposit tracker: %w", err)
	}

	return r.withSlots(ctx, rec)
}

// GetLatestByLead loads the most recently updated tracker for a lead.
func (r *Repo) GetLatestByLead(ctx context.Context, leadID uuid.UUID) (Record, error) {
	query := `
		SELECT` + recordColumns + `
		FROM deposit_calls
		WHERE lead_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, apperr.NotFound("no deposit tracker for this lead")
		}
		return Record{}, fmt.Errorf("get latest deposit tracker: %w", err)
	}

	return r.withSlots(ctx, rec)
}

// ResetSlot forces a slot back to pending and clears its stamps and notes.
func (r *Repo) ResetSlot(ctx context.Context, recordID uuid.UUID, slotNumber int) error {
	query := `
		UPDATE deposit_call_slots
		SET status = 'pending', expected_date = NULL, done_date = NULL,
			marked_by = NULL, marked_at = NULL, approved_by = NULL, approved_at = NULL,
			notes = NULL
		WHERE record_id = $1 AND slot_number = $2`

	tag, err := r.pool.Exec(ctx, query, recordID, slotNumber)
	if err != nil {
		return fmt.Errorf("reset deposit slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("deposit slot not found")
	}

	return nil
}

// MarkSlotDone records that the numbered call happened.
func (r *Repo) MarkSlotDone(ctx context.Context, recordID uuid.UUID, slotNumber int, markedBy uuid.UUID) error {
	query := `
		UPDATE deposit_call_slots
		SET status = 'done', done_date = now(), marked_by = $3, marked_at = now()
		WHERE record_id = $1 AND slot_number = $2`

	tag, err := r.pool.Exec(ctx, query, recordID, slotNumber, markedBy)
	if err != nil {
		return fmt.Errorf("mark deposit slot done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("deposit slot not found")
	}

	return nil
}

// LinkDeclaration points the tracker at its deposit declaration.
func (r *Repo) LinkDeclaration(ctx context.Context, recordID uuid.UUID, declarationID *uuid.UUID) error {
	query := `UPDATE deposit_calls SET deposit_declaration_id = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, recordID, declarationID)
	if err != nil {
		return fmt.Errorf("link deposit declaration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("deposit tracker not found")
	}

	return nil
}

// SetConfirmed stamps the tracker as deposit-confirmed.
func (r *Repo) SetConfirmed(ctx context.Context, recordID, confirmedBy uuid.UUID) error {
	query := `
		UPDATE deposit_calls
		SET deposit_confirmed = true, deposit_confirmed_by = $2, deposit_confirmed_at = now(), updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, recordID, confirmedBy)
	if err != nil {
		return fmt.Errorf("confirm deposit tracker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("deposit tracker not found")
	}

	return nil
}

// ClearConfirmed rolls the confirmation stamp back.
func (r *Repo) ClearConfirmed(ctx context.Context, recordID uuid.UUID) error {
	query := `
		UPDATE deposit_calls
		SET deposit_confirmed = false, deposit_confirmed_by = NULL, deposit_confirmed_at = NULL, updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, recordID)
	if err != nil {
		return fmt.Errorf("unconfirm deposit tracker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("deposit tracker not found")
	}

	return nil
}

func (r *Repo) withSlots(ctx context.Context, rec Record) (Record, error) {
	query := `
		SELECT id, record_id, slot_number, status, expected_date, done_date,
			marked_by, marked_at, approved_by, approved_at, notes
		FROM deposit_call_slots
		WHERE record_id = $1
		ORDER BY slot_number`

	rows, err := r.pool.Query(ctx, query, rec.ID)
	if err != nil {
		return Record{}, fmt.Errorf("load deposit slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s Slot
		err := rows.Scan(&s.ID, &s.RecordID, &s.SlotNumber, &s.Status, &s.ExpectedDate, &s.DoneDate,
			&s.MarkedBy, &s.MarkedAt, &s.ApprovedBy, &s.ApprovedAt, &s.Notes)
		if err != nil {
			return Record{}, fmt.Errorf("scan deposit slot: %w", err)
		}
		rec.Slots = append(rec.Slots, s)
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("iterate deposit slots: %w", err)
	}

	return rec, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.LeadID, &rec.OrderID, &rec.DepositConfirmed, &rec.DepositConfirmedBy,
		&rec.DepositConfirmedAt, &rec.DepositDeclarationID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}
