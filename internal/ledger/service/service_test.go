package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"callcenter_backend/internal/ledger/repository"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

type fakeRepo struct {
	mu      sync.Mutex
	ledgers map[string]repository.Ledger
	rows    map[string]repository.Row

	ledgerTotals   []repository.RowTotal
	declaredTotals []repository.RowTotal
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		ledgers: map[string]repository.Ledger{},
		rows:    map[string]repository.Row{},
	}
}

func ledgerKey(managerID uuid.UUID, month, year int) string {
	return fmt.Sprintf("%s/%d/%d", managerID, month, year)
}

func (r *fakeRepo) GetOrCreate(_ context.Context, managerID uuid.UUID, month, year int) (repository.Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ledgerKey(managerID, month, year)
	if l, ok := r.ledgers[key]; ok {
		return l, nil
	}
	l := repository.Ledger{ID: uuid.New(), ManagerID: managerID, Month: month, Year: year}
	r.ledgers[key] = l
	return l, nil
}

func (r *fakeRepo) AddToRow(_ context.Context, ledgerID uuid.UUID, rowKey string, deltaCount int, deltaCents, deltaSeconds int64) (repository.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ledgerID.String() + "/" + rowKey
	row, ok := r.rows[key]
	if !ok {
		row = repository.Row{ID: uuid.New(), LedgerID: ledgerID, RowKey: rowKey}
	}
	row.CallCount = clampInt(row.CallCount + deltaCount)
	row.TotalBonusCents = clampInt64(row.TotalBonusCents + deltaCents)
	row.TalkingSeconds = clampInt64(row.TalkingSeconds + deltaSeconds)
	r.rows[key] = row
	return row, nil
}

func (r *fakeRepo) GetByManagerMonth(_ context.Context, managerID uuid.UUID, month, year int) (repository.Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.ledgers[ledgerKey(managerID, month, year)]
	if !ok {
		return repository.Ledger{}, apperr.NotFound("ledger not found for this period")
	}
	for _, row := range r.rows {
		if row.LedgerID == l.ID {
			l.Rows = append(l.Rows, row)
		}
	}
	return l, nil
}

func (r *fakeRepo) ListForMonth(_ context.Context, month, year int) ([]repository.Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.Ledger
	for _, l := range r.ledgers {
		if l.Month == month && l.Year == year {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeRepo) LedgerRowTotals(_ context.Context, _, _ int) ([]repository.RowTotal, error) {
	return r.ledgerTotals, nil
}

func (r *fakeRepo) DeclaredTotals(_ context.Context, _, _ int) ([]repository.RowTotal, error) {
	return r.declaredTotals, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

func clampInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func clampInt64(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return New(repo, logger.New("development")), repo
}

func entry(callType string, cents int64) Entry {
	return Entry{
		DeclarationID:   uuid.New(),
		ManagerID:       uuid.New(),
		CallType:        callType,
		CallCategory:    "ftd",
		TotalCents:      cents,
		DurationSeconds: 1200,
		Month:           8,
		Year:            2026,
	}
}

func TestCreditCreatesLedgerRow(t *testing.T) {
	svc, repo := newTestService()

	e := entry("first_call", 750)
	if err := svc.Credit(context.Background(), e); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	ledger, err := repo.GetByManagerMonth(context.Background(), e.ManagerID, 8, 2026)
	if err != nil {
		t.Fatalf("GetByManagerMonth: %v", err)
	}
	if len(ledger.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(ledger.Rows))
	}
	row := ledger.Rows[0]
	if row.RowKey != repository.RowFirstAMCall {
		t.Errorf("row key = %q, want first_am_call", row.RowKey)
	}
	if row.CallCount != 1 || row.TotalBonusCents != 750 || row.TalkingSeconds != 1200 {
		t.Errorf("row = %+v", row)
	}
}

func TestCreditAccumulates(t *testing.T) {
	svc, repo := newTestService()

	e := entry("deposit", 1000)
	for i := 0; i < 3; i++ {
		if err := svc.Credit(context.Background(), e); err != nil {
			t.Fatalf("Credit: %v", err)
		}
	}

	ledger, _ := repo.GetByManagerMonth(context.Background(), e.ManagerID, 8, 2026)
	row := ledger.Rows[0]
	if row.CallCount != 3 || row.TotalBonusCents != 3000 {
		t.Errorf("row = %+v, want count 3 total 3000", row)
	}
}

func TestDebitReversesCredit(t *testing.T) {
	svc, repo := newTestService()

	e := entry("fourth_call", 2000)
	if err := svc.Credit(context.Background(), e); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := svc.Debit(context.Background(), e); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	ledger, _ := repo.GetByManagerMonth(context.Background(), e.ManagerID, 8, 2026)
	row := ledger.Rows[0]
	if row.CallCount != 0 || row.TotalBonusCents != 0 || row.TalkingSeconds != 0 {
		t.Errorf("row = %+v, want all zero", row)
	}
}

func TestDebitClampsAtZero(t *testing.T) {
	svc, repo := newTestService()

	e := entry("third_call", 500)
	if err := svc.Debit(context.Background(), e); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	ledger, _ := repo.GetByManagerMonth(context.Background(), e.ManagerID, 8, 2026)
	row := ledger.Rows[0]
	if row.CallCount != 0 || row.TotalBonusCents != 0 {
		t.Errorf("row = %+v, want clamped to zero", row)
	}
}

func TestFillerNeverTouchesLedger(t *testing.T) {
	svc, repo := newTestService()

	e := entry("first_call", 0)
	e.CallCategory = "filler"
	if err := svc.Credit(context.Background(), e); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	if len(repo.ledgers) != 0 {
		t.Errorf("ledgers created for filler declaration: %d", len(repo.ledgers))
	}
}

func TestUnmappedCallTypeSkipped(t *testing.T) {
	svc, repo := newTestService()

	e := entry("fifth_call", 100)
	if err := svc.Credit(context.Background(), e); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	if len(repo.ledgers) != 0 {
		t.Errorf("ledgers created for unmapped call type: %d", len(repo.ledgers))
	}
}

func TestReconcileClean(t *testing.T) {
	svc, repo := newTestService()

	manager := uuid.New()
	totals := []repository.RowTotal{{ManagerID: manager, RowKey: repository.RowDepositCalls, CallCount: 2, TotalBonusCents: 2000}}
	repo.ledgerTotals = totals
	repo.declaredTotals = totals

	drifts, err := svc.Reconcile(context.Background(), 8, 2026)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("drifts = %+v, want none", drifts)
	}
}

func TestReconcileDetectsMissingCredit(t *testing.T) {
	svc, repo := newTestService()

	manager := uuid.New()
	repo.ledgerTotals = []repository.RowTotal{
		{ManagerID: manager, RowKey: repository.RowFirstAMCall, CallCount: 1, TotalBonusCents: 750},
	}
	repo.declaredTotals = []repository.RowTotal{
		{ManagerID: manager, RowKey: repository.RowFirstAMCall, CallCount: 2, TotalBonusCents: 1500},
	}

	drifts, err := svc.Reconcile(context.Background(), 8, 2026)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("drifts = %d, want 1", len(drifts))
	}
	d := drifts[0]
	if d.CountDelta != -1 || d.BonusDeltaCents != -750 {
		t.Errorf("drift = %+v", d)
	}
}

func TestReconcileDetectsOrphanLedgerRow(t *testing.T) {
	svc, repo := newTestService()

	repo.ledgerTotals = []repository.RowTotal{
		{ManagerID: uuid.New(), RowKey: repository.RowSecondAMCall, CallCount: 1, TotalBonusCents: 750},
	}

	drifts, err := svc.Reconcile(context.Background(), 8, 2026)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("drifts = %d, want 1", len(drifts))
	}
	if drifts[0].DeclaredCount != 0 || drifts[0].LedgerCount != 1 {
		t.Errorf("drift = %+v", drifts[0])
	}
}

func TestReconcileRejectsBadPeriod(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Reconcile(context.Background(), 13, 2026); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}
