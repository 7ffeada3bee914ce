// Package service maintains affiliate-manager expense ledgers and reconciles
// them against the declarations that produced them.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"callcenter_backend/internal/ledger/repository"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

// rowKeys maps a call type to its ledger row. Unmapped types never touch
// the ledger.
var rowKeys = map[string]string{
	"deposit":     repository.RowDepositCalls,
	"first_call":  repository.RowFirstAMCall,
	"second_call": repository.RowSecondAMCall,
	"third_call":  repository.RowThirdAMCall,
	"fourth_call": repository.RowFourthAMCall,
}

// Entry carries one declaration's contribution to a ledger.
type Entry struct {
	DeclarationID   uuid.UUID
	ManagerID       uuid.UUID
	CallType        string
	CallCategory    string
	TotalCents      int64
	DurationSeconds int
	Month           int
	Year            int
}

// Drift is one reconciliation finding: a ledger row that disagrees with the
// declarations behind it.
type Drift struct {
	ManagerID          uuid.UUID `json:"managerId"`
	RowKey             string    `json:"rowKey"`
	LedgerCount        int       `json:"ledgerCount"`
	DeclaredCount      int       `json:"declaredCount"`
	LedgerBonusCents   int64     `json:"ledgerBonusCents"`
	DeclaredBonusCents int64     `json:"declaredBonusCents"`
	CountDelta         int       `json:"countDelta"`
	BonusDeltaCents    int64     `json:"bonusDeltaCents"`
}

// Service is the ledger application service.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates the ledger service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Credit applies an approved declaration to its manager's ledger. Filler and
// unmapped declarations are skipped: they carry no payout.
func (s *Service) Credit(ctx context.Context, entry Entry) error {
	return s.apply(ctx, entry, 1)
}

// Debit removes a reversed declaration's contribution from its ledger.
func (s *Service) Debit(ctx context.Context, entry Entry) error {
	return s.apply(ctx, entry, -1)
}

func (s *Service) apply(ctx context.Context, entry Entry, sign int64) error {
	if entry.CallCategory == "filler" || entry.TotalCents == 0 {
		s.log.Debug("ledger skip: no payout",
			"declarationId", entry.DeclarationID.String(),
			"callType", entry.CallType,
			"callCategory", entry.CallCategory)
		return nil
	}

	rowKey, ok := rowKeys[entry.CallType]
	if !ok {
		s.log.Warn("ledger skip: unmapped call type",
			"declarationId", entry.DeclarationID.String(),
			"callType", entry.CallType)
		return nil
	}

	ledger, err := s.repo.GetOrCreate(ctx, entry.ManagerID, entry.Month, entry.Year)
	if err != nil {
		return fmt.Errorf("ledger for %s %d/%d: %w", entry.ManagerID, entry.Month, entry.Year, err)
	}

	deltaCents := sign * entry.TotalCents
	deltaSeconds := sign * int64(entry.DurationSeconds)
	if _, err := s.repo.AddToRow(ctx, ledger.ID, rowKey, int(sign), deltaCents, deltaSeconds); err != nil {
		return fmt.Errorf("adjust row %s: %w", rowKey, err)
	}

	direction := "credit"
	if sign < 0 {
		direction = "debit"
	}
	s.log.LedgerAdjustment(direction, entry.ManagerID.String(), rowKey, deltaCents, entry.Month, entry.Year)

	return nil
}

// ManagerLedger returns one manager's ledger for a period.
func (s *Service) ManagerLedger(ctx context.Context, managerID uuid.UUID, month, year int) (repository.Ledger, error) {
	if err := validatePeriod(month, year); err != nil {
		return repository.Ledger{}, err
	}
	return s.repo.GetByManagerMonth(ctx, managerID, month, year)
}

// ListForMonth returns every manager ledger for a period.
func (s *Service) ListForMonth(ctx context.Context, month, year int) ([]repository.Ledger, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}
	return s.repo.ListForMonth(ctx, month, year)
}

// Reconcile compares ledger rows against the approved declarations for a
// period and reports every row that drifted. Best-effort credits that failed
// at approval time show up here.
func (s *Service) Reconcile(ctx context.Context, month, year int) ([]Drift, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	ledgerTotals, err := s.repo.LedgerRowTotals(ctx, month, year)
	if err != nil {
		return nil, err
	}
	declaredTotals, err := s.repo.DeclaredTotals(ctx, month, year)
	if err != nil {
		return nil, err
	}

	type key struct {
		manager uuid.UUID
		row     string
	}
	ledger := make(map[key]repository.RowTotal, len(ledgerTotals))
	for _, t := range ledgerTotals {
		ledger[key{t.ManagerID, t.RowKey}] = t
	}
	declared := make(map[key]repository.RowTotal, len(declaredTotals))
	for _, t := range declaredTotals {
		declared[key{t.ManagerID, t.RowKey}] = t
	}

	seen := make(map[key]bool, len(ledger)+len(declared))
	var drifts []Drift
	check := func(k key) {
		if seen[k] {
			return
		}
		seen[k] = true
		l := ledger[k]
		d := declared[k]
		if l.CallCount == d.CallCount && l.TotalBonusCents == d.TotalBonusCents {
			return
		}
		drifts = append(drifts, Drift{
			ManagerID:          k.manager,
			RowKey:             k.row,
			LedgerCount:        l.CallCount,
			DeclaredCount:      d.CallCount,
			LedgerBonusCents:   l.TotalBonusCents,
			DeclaredBonusCents: d.TotalBonusCents,
			CountDelta:         l.CallCount - d.CallCount,
			BonusDeltaCents:    l.TotalBonusCents - d.TotalBonusCents,
		})
	}
	for k := range ledger {
		check(k)
	}
	for k := range declared {
		check(k)
	}

	return drifts, nil
}

// RowKeys returns the canonical ledger row keys in display order.
func RowKeys() []string {
	return []string{
		repository.RowDepositCalls,
		repository.RowFirstAMCall,
		repository.RowSecondAMCall,
		repository.RowThirdAMCall,
		repository.RowFourthAMCall,
	}
}

func validatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return apperr.Validation("month must be between 1 and 12")
	}
	if year < 2000 || year > 2200 {
		return apperr.Validation("year is out of range")
	}
	return nil
}
