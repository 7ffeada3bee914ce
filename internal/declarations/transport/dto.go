// Package transport defines request and response DTOs for the declarations API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// SubmitRequest is an agent's declaration submission payload.
type SubmitRequest struct {
	AffiliateManagerID uuid.UUID `json:"affiliateManagerId" validate:"required"`
	LeadID             uuid.UUID `json:"leadId" validate:"required"`
	CallType           string    `json:"callType" validate:"required"`
	CallCategory       string    `json:"callCategory" validate:"required,oneof=ftd filler"`
	CallDate           string    `json:"callDate" validate:"required"`
	Source             string    `json:"source" validate:"required"`
	Destination        string    `json:"destination" validate:"required"`
	DurationSeconds    int       `json:"durationSeconds" validate:"required,min=1"`
	Notes              *string   `json:"notes" validate:"omitempty,max=2000"`
}

// ReviewRequest carries reviewer notes for approve and reject.
type ReviewRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=2000"`
}

// RejectRequest requires notes so the agent knows what to fix.
type RejectRequest struct {
	Notes string `json:"notes" validate:"required,max=2000"`
}

// ListRequest filters declaration listings.
type ListRequest struct {
	AgentID   *uuid.UUID `form:"agentId"`
	ManagerID *uuid.UUID `form:"managerId"`
	Status    *string    `form:"status" validate:"omitempty,oneof=pending approved rejected"`
	Month     *int       `form:"month" validate:"omitempty,min=1,max=12"`
	Year      *int       `form:"year" validate:"omitempty,min=2000,max=2200"`
	Limit     int        `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset    int        `form:"offset" validate:"omitempty,min=0"`
}

// SummaryRequest selects the period for monthly aggregates.
type SummaryRequest struct {
	Month int `form:"month" validate:"required,min=1,max=12"`
	Year  int `form:"year" validate:"required,min=2000,max=2200"`
}

// DeclarationResponse is the wire shape of a declaration.
type DeclarationResponse struct {
	ID                 uuid.UUID  `json:"id"`
	AgentID            uuid.UUID  `json:"agentId"`
	AffiliateManagerID uuid.UUID  `json:"affiliateManagerId"`
	LeadID             uuid.UUID  `json:"leadId"`
	OrderID            *uuid.UUID `json:"orderId,omitempty"`
	CallType           string     `json:"callType"`
	CallCategory       string     `json:"callCategory"`
	CallDate           string     `json:"callDate"`
	Source             string     `json:"source"`
	Destination        string     `json:"destination"`
	DurationSeconds    int        `json:"durationSeconds"`
	DurationDisplay    string     `json:"durationDisplay"`
	DedupKey           string     `json:"dedupKey"`
	BaseBonusCents     int64      `json:"baseBonusCents"`
	OverageBonusCents  int64      `json:"overageBonusCents"`
	TotalBonusCents    int64      `json:"totalBonusCents"`
	Status             string     `json:"status"`
	Notes              *string    `json:"notes,omitempty"`
	ReviewNotes        *string    `json:"reviewNotes,omitempty"`
	ReviewedBy         *uuid.UUID `json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time `json:"reviewedAt,omitempty"`
	PeriodMonth        int        `json:"periodMonth"`
	PeriodYear         int        `json:"periodYear"`
	IsActive           bool       `json:"isActive"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// TypeBreakdownResponse is one call-type slice of a monthly summary.
type TypeBreakdownResponse struct {
	CallType        string `json:"callType"`
	Count           int    `json:"count"`
	TotalBonusCents int64  `json:"totalBonusCents"`
}

// SummaryResponse is a monthly aggregate for one agent.
type SummaryResponse struct {
	AgentID           uuid.UUID               `json:"agentId"`
	Count             int                     `json:"count"`
	BaseBonusCents    int64                   `json:"baseBonusCents"`
	OverageBonusCents int64                   `json:"overageBonusCents"`
	TotalBonusCents   int64                   `json:"totalBonusCents"`
	DurationSeconds   int64                   `json:"durationSeconds"`
	ByType            []TypeBreakdownResponse `json:"byType"`
}
