// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"callcenter_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Declaration Domain Events
// =============================================================================

// DeclarationSubmitted is published when an agent submits a call declaration.
type DeclarationSubmitted struct {
	BaseEvent
	DeclarationID      uuid.UUID `json:"declarationId"`
	AgentID            uuid.UUID `json:"agentId"`
	AffiliateManagerID uuid.UUID `json:"affiliateManagerId"`
	LeadID             uuid.UUID `json:"leadId"`
	CallType           string    `json:"callType"`
	CallCategory       string    `json:"callCategory"`
	TotalBonusCents    int64     `json:"totalBonusCents"`
}

func (e DeclarationSubmitted) EventName() string { return "declarations.submitted" }

// DeclarationApproved is published when a reviewer approves a pending declaration.
// The deposits module listens to mark the matching call slot as done.
type DeclarationApproved struct {
	BaseEvent
	DeclarationID      uuid.UUID `json:"declarationId"`
	AgentID            uuid.UUID `json:"agentId"`
	AffiliateManagerID uuid.UUID `json:"affiliateManagerId"`
	LeadID             uuid.UUID `json:"leadId"`
	ReviewedBy         uuid.UUID `json:"reviewedBy"`
	CallType           string    `json:"callType"`
	CallCategory       string    `json:"callCategory"`
	TotalBonusCents    int64     `json:"totalBonusCents"`
}

func (e DeclarationApproved) EventName() string { return "declarations.approved" }

// DeclarationRejected is published when a reviewer rejects a pending declaration.
type DeclarationRejected struct {
	BaseEvent
	DeclarationID uuid.UUID `json:"declarationId"`
	AgentID       uuid.UUID `json:"agentId"`
	LeadID        uuid.UUID `json:"leadId"`
	ReviewedBy    uuid.UUID `json:"reviewedBy"`
	ReviewNotes   string    `json:"reviewNotes"`
}

func (e DeclarationRejected) EventName() string { return "declarations.rejected" }

// DeclarationReversed is published when a declaration is deactivated and its
// ledger effect (if any) has been debited.
type DeclarationReversed struct {
	BaseEvent
	DeclarationID      uuid.UUID `json:"declarationId"`
	AffiliateManagerID uuid.UUID `json:"affiliateManagerId"`
	LeadID             uuid.UUID `json:"leadId"`
	CallType           string    `json:"callType"`
	WasApproved        bool      `json:"wasApproved"`
	TotalBonusCents    int64     `json:"totalBonusCents"`
}

func (e DeclarationReversed) EventName() string { return "declarations.reversed" }

// =============================================================================
// Deposit Domain Events
// =============================================================================

// DepositConfirmed is published after a deposit confirmation completes:
// the system declaration exists, the ledger is credited and the order
// metadata is written.
type DepositConfirmed struct {
	BaseEvent
	LeadID             uuid.UUID `json:"leadId"`
	OrderID            uuid.UUID `json:"orderId"`
	DeclarationID      uuid.UUID `json:"declarationId"`
	AffiliateManagerID uuid.UUID `json:"affiliateManagerId"`
	ConfirmedBy        uuid.UUID `json:"confirmedBy"`
	PSP                string    `json:"psp"`
}

func (e DepositConfirmed) EventName() string { return "deposits.confirmed" }

// DepositUnconfirmed is published when an admin rolls back a deposit confirmation.
type DepositUnconfirmed struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	OrderID       uuid.UUID `json:"orderId"`
	DeclarationID uuid.UUID `json:"declarationId"`
	PerformedBy   uuid.UUID `json:"performedBy"`
}

func (e DepositUnconfirmed) EventName() string { return "deposits.unconfirmed" }
