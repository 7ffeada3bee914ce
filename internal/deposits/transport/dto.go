// Package transport defines request and response DTOs for the deposits API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// ConfirmRequest confirms a deposit for a lead within an order, naming the
// call that backs it.
type ConfirmRequest struct {
	LeadID             uuid.UUID `json:"leadId" validate:"required"`
	OrderID            uuid.UUID `json:"orderId" validate:"required"`
	AffiliateManagerID uuid.UUID `json:"affiliateManagerId" validate:"required"`
	PSP                string    `json:"psp" validate:"required,max=100"`
	CardIssuer         *string   `json:"cardIssuer" validate:"omitempty,max=100"`
	CallDate           string    `json:"callDate" validate:"required"`
	Source             string    `json:"source" validate:"required"`
	Destination        string    `json:"destination" validate:"required"`
	DurationSeconds    int       `json:"durationSeconds" validate:"required,min=1"`
}

// UnconfirmRequest rolls a confirmation back.
type UnconfirmRequest struct {
	LeadID  uuid.UUID `json:"leadId" validate:"required"`
	OrderID uuid.UUID `json:"orderId" validate:"required"`
}

// SlotResponse is one numbered call slot.
type SlotResponse struct {
	SlotNumber   int        `json:"slotNumber"`
	Status       string     `json:"status"`
	ExpectedDate *time.Time `json:"expectedDate,omitempty"`
	DoneDate     *time.Time `json:"doneDate,omitempty"`
	MarkedBy     *uuid.UUID `json:"markedBy,omitempty"`
	ApprovedBy   *uuid.UUID `json:"approvedBy,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// TrackerResponse is the deposit call tracker for one lead in one order.
type TrackerResponse struct {
	ID                   uuid.UUID      `json:"id"`
	LeadID               uuid.UUID      `json:"leadId"`
	OrderID              uuid.UUID      `json:"orderId"`
	DepositConfirmed     bool           `json:"depositConfirmed"`
	DepositConfirmedBy   *uuid.UUID     `json:"depositConfirmedBy,omitempty"`
	DepositConfirmedAt   *time.Time     `json:"depositConfirmedAt,omitempty"`
	DepositDeclarationID *uuid.UUID     `json:"depositDeclarationId,omitempty"`
	Slots                []SlotResponse `json:"slots"`
}
