package adapters

import (
	"context"

	declservice "callcenter_backend/internal/declarations/service"
	ledgerservice "callcenter_backend/internal/ledger/service"
)

// LedgerRecorderAdapter applies declaration payouts to the ledger domain.
// It implements declarations/service.LedgerRecorder.
type LedgerRecorderAdapter struct {
	svc *ledgerservice.Service
}

// NewLedgerRecorderAdapter creates a new adapter that wraps the ledger service.
func NewLedgerRecorderAdapter(svc *ledgerservice.Service) *LedgerRecorderAdapter {
	return &LedgerRecorderAdapter{svc: svc}
}

func (a *LedgerRecorderAdapter) Credit(ctx context.Context, entry declservice.LedgerEntry) error {
	return a.svc.Credit(ctx, toLedgerEntry(entry))
}

func (a *LedgerRecorderAdapter) Debit(ctx context.Context, entry declservice.LedgerEntry) error {
	return a.svc.Debit(ctx, toLedgerEntry(entry))
}

func toLedgerEntry(entry declservice.LedgerEntry) ledgerservice.Entry {
	return ledgerservice.Entry{
		DeclarationID:   entry.DeclarationID,
		ManagerID:       entry.ManagerID,
		CallType:        entry.CallType,
		CallCategory:    entry.CallCategory,
		TotalCents:      entry.TotalCents,
		DurationSeconds: entry.DurationSeconds,
		Month:           entry.Month,
		Year:            entry.Year,
	}
}
