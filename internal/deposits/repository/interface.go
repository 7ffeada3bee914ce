package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Slot statuses. The confirmation flow only ever resets slots to pending;
// done and approved transitions belong to the scheduling workflow.
const (
	SlotPending  = "pending"
	SlotDone     = "done"
	SlotApproved = "approved"
)

// SlotCount is the number of tracked deposit calls per lead per order.
const SlotCount = 4

// Record is the per-lead-per-order deposit call tracker.
type Record struct {
	ID                   uuid.UUID
	LeadID               uuid.UUID
	OrderID              uuid.UUID
	DepositConfirmed     bool
	DepositConfirmedBy   *uuid.UUID
	DepositConfirmedAt   *time.Time
	DepositDeclarationID *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Slots                []Slot
}

// Slot is one numbered call slot on a tracker record.
type Slot struct {
	ID           uuid.UUID
	RecordID     uuid.UUID
	SlotNumber   int
	Status       string
	ExpectedDate *time.Time
	DoneDate     *time.Time
	MarkedBy     *uuid.UUID
	MarkedAt     *time.Time
	ApprovedBy   *uuid.UUID
	ApprovedAt   *time.Time
	Notes        *string
}

// Repository provides persistence for deposit call trackers.
type Repository interface {
	// GetOrCreate returns the tracker for a lead and order, creating it with
	// its pending slots on first use.
	GetOrCreate(ctx context.Context, leadID, orderID uuid.UUID) (Record, error)
	// GetByLeadOrder loads an existing tracker and its slots.
	GetByLeadOrder(ctx context.Context, leadID, orderID uuid.UUID) (Record, error)
	// GetLatestByLead loads the most recently updated tracker for a lead.
	GetLatestByLead(ctx context.Context, leadID uuid.UUID) (Record, error)
	// ResetSlot forces a slot back to pending and clears its stamps and notes.
	ResetSlot(ctx context.Context, recordID uuid.UUID, slotNumber int) error
	// MarkSlotDone records that the numbered call happened.
	MarkSlotDone(ctx context.Context, recordID uuid.UUID, slotNumber int, markedBy uuid.UUID) error
	// LinkDeclaration points the tracker at its deposit declaration. A nil
	// declarationID clears the link.
	LinkDeclaration(ctx context.Context, recordID uuid.UUID, declarationID *uuid.UUID) error
	// SetConfirmed stamps the tracker as deposit-confirmed.
	SetConfirmed(ctx context.Context, recordID, confirmedBy uuid.UUID) error
	// ClearConfirmed rolls the confirmation stamp back.
	ClearConfirmed(ctx context.Context, recordID uuid.UUID) error
}
