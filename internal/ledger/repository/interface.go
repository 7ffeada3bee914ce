package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Row keys a manager ledger tracks, one per paid call type.
const (
	RowDepositCalls = "deposit_calls"
	RowFirstAMCall  = "first_am_call"
	RowSecondAMCall = "second_am_call"
	RowThirdAMCall  = "third_am_call"
	RowFourthAMCall = "fourth_am_call"
)

// Ledger is one affiliate manager's expense sheet for one month.
type Ledger struct {
	ID        uuid.UUID
	ManagerID uuid.UUID
	Month     int
	Year      int
	CreatedAt time.Time
	UpdatedAt time.Time
	Rows      []Row
}

// Row is one call-type line on a ledger.
type Row struct {
	ID              uuid.UUID
	LedgerID        uuid.UUID
	RowKey          string
	CallCount       int
	TotalBonusCents int64
	TalkingSeconds  int64
	UpdatedAt       time.Time
}

// RowTotal is an aggregate used by the reconciliation report.
type RowTotal struct {
	ManagerID       uuid.UUID
	RowKey          string
	CallCount       int
	TotalBonusCents int64
}

// Repository provides persistence for manager ledgers.
type Repository interface {
	// GetOrCreate returns the ledger for a manager and period, creating it
	// on first use.
	GetOrCreate(ctx context.Context, managerID uuid.UUID, month, year int) (Ledger, error)
	// AddToRow upserts a ledger row, applying the deltas atomically. Counts
	// and totals never go below zero.
	AddToRow(ctx context.Context, ledgerID uuid.UUID, rowKey string, deltaCount int, deltaCents, deltaSeconds int64) (Row, error)
	// GetByManagerMonth loads a ledger and its rows.
	GetByManagerMonth(ctx context.Context, managerID uuid.UUID, month, year int) (Ledger, error)
	// ListForMonth loads all ledgers and rows for a period.
	ListForMonth(ctx context.Context, month, year int) ([]Ledger, error)
	// LedgerRowTotals aggregates ledger rows per manager and row key for a period.
	LedgerRowTotals(ctx context.Context, month, year int) ([]RowTotal, error)
	// DeclaredTotals recomputes what the ledgers should hold from approved
	// active declarations for a period, keyed the same way.
	DeclaredTotals(ctx context.Context, month, year int) ([]RowTotal, error)
}
