// Package transport defines request and response DTOs for the ledger API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// PeriodRequest selects a ledger month.
type PeriodRequest struct {
	Month int `form:"month" validate:"required,min=1,max=12"`
	Year  int `form:"year" validate:"required,min=2000,max=2200"`
}

// RowResponse is one call-type line on a ledger.
type RowResponse struct {
	RowKey          string `json:"rowKey"`
	CallCount       int    `json:"callCount"`
	TotalBonusCents int64  `json:"totalBonusCents"`
	TalkingSeconds  int64  `json:"talkingSeconds"`
}

// LedgerResponse is one manager's monthly expense sheet.
type LedgerResponse struct {
	ID              uuid.UUID     `json:"id"`
	ManagerID       uuid.UUID     `json:"managerId"`
	Month           int           `json:"month"`
	Year            int           `json:"year"`
	Rows            []RowResponse `json:"rows"`
	TotalBonusCents int64         `json:"totalBonusCents"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}
