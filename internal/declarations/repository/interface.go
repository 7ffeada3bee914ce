package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Declaration statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Declaration is a persisted bonus claim for one qualifying call.
type Declaration struct {
	ID                 uuid.UUID
	AgentID            uuid.UUID
	AffiliateManagerID uuid.UUID
	LeadID             uuid.UUID
	OrderID            *uuid.UUID
	CallType           string
	CallCategory       string
	CallDate           string
	Source             string
	Destination        string
	DurationSeconds    int
	DedupKey           string
	BaseBonusCents     int64
	OverageBonusCents  int64
	TotalBonusCents    int64
	Status             string
	Notes              *string
	ReviewNotes        *string
	ReviewedBy         *uuid.UUID
	ReviewedAt         *time.Time
	PeriodMonth        int
	PeriodYear         int
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ListParams filters declaration listings.
type ListParams struct {
	AgentID   *uuid.UUID
	ManagerID *uuid.UUID
	Status    *string
	Month     *int
	Year      *int
	Limit     int
	Offset    int
}

// TypeBreakdown is the per-call-type slice of a monthly summary.
type TypeBreakdown struct {
	CallType        string
	Count           int
	TotalBonusCents int64
}

// AgentSummary aggregates an agent's approved, active declarations for a month.
type AgentSummary struct {
	AgentID           uuid.UUID
	Count             int
	BaseBonusCents    int64
	OverageBonusCents int64
	TotalBonusCents   int64
	DurationSeconds   int64
	ByType            []TypeBreakdown
}

// Reader provides read operations for declarations.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Declaration, error)
	FindActiveByDedupKey(ctx context.Context, dedupKey string) (Declaration, error)
	FindActiveDepositByLeadOrder(ctx context.Context, leadID, orderID uuid.UUID) (Declaration, error)
	StatusesByDedupKeys(ctx context.Context, keys []string) (map[string]string, error)
	List(ctx context.Context, params ListParams) ([]Declaration, int, error)
	AgentMonthlySummary(ctx context.Context, agentID uuid.UUID, month, year int) (AgentSummary, error)
	MonthlyRollup(ctx context.Context, month, year int) ([]AgentSummary, error)
}

// Writer provides write operations for declarations.
type Writer interface {
	Create(ctx context.Context, decl Declaration) (Declaration, error)
	ApproveIfPending(ctx context.Context, id, reviewerID uuid.UUID, reviewNotes *string) (Declaration, error)
	RejectIfPending(ctx context.Context, id, reviewerID uuid.UUID, reviewNotes string) (Declaration, error)
	DeactivateIfActive(ctx context.Context, id uuid.UUID) (Declaration, bool, error)
}

// Repository combines all declaration repository operations.
type Repository interface {
	Reader
	Writer
}
