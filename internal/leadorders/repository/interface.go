package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Lead is a sales lead an agent works.
type Lead struct {
	ID              uuid.UUID
	Name            string
	Email           *string
	Phone           string
	AssignedAgentID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Order groups leads under one campaign sale.
type Order struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// OrderLead carries the per-lead-in-order deposit metadata the confirmation
// flow writes.
type OrderLead struct {
	OrderID            uuid.UUID
	LeadID             uuid.UUID
	DepositConfirmed   bool
	DepositConfirmedBy *uuid.UUID
	DepositConfirmedAt *time.Time
	DepositPSP         *string
	DepositCardIssuer  *string
	UpdatedAt          time.Time
}

// AuditLog is one append-only audit entry.
type AuditLog struct {
	ID          uuid.UUID
	Action      string
	PerformedBy uuid.UUID
	PerformedAt time.Time
	Details     json.RawMessage
}

// DepositMetadata is the payload written on deposit confirmation.
type DepositMetadata struct {
	ConfirmedBy uuid.UUID
	PSP         string
	CardIssuer  *string
}

// LeadReader looks up leads for the declaration and deposit flows.
type LeadReader interface {
	GetLead(ctx context.Context, id uuid.UUID) (Lead, error)
}

// OrderDepositWriter reads and writes the order-scoped deposit metadata.
type OrderDepositWriter interface {
	GetOrderLead(ctx context.Context, orderID, leadID uuid.UUID) (OrderLead, error)
	SetDepositMetadata(ctx context.Context, orderID, leadID uuid.UUID, meta DepositMetadata) error
	ClearDepositMetadata(ctx context.Context, orderID, leadID uuid.UUID) error
}

// AuditLogger appends audit entries. Entries are never mutated.
type AuditLogger interface {
	Append(ctx context.Context, action string, performedBy uuid.UUID, details any) error
	ListRecent(ctx context.Context, limit int) ([]AuditLog, error)
}

// Repository combines the lead/order collaborator operations.
type Repository interface {
	LeadReader
	OrderDepositWriter
	AuditLogger
	GetOrder(ctx context.Context, id uuid.UUID) (Order, error)
}
