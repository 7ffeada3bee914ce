package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"callcenter_backend/internal/deposits/repository"
	"callcenter_backend/internal/events"
	leadorders "callcenter_backend/internal/leadorders/repository"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

const (
	depositBonusCents   = 1000
	firstCallBonusCents = 750
)

type fakeDecls struct {
	mu     sync.Mutex
	decls  map[uuid.UUID]Declaration
	keys   map[uuid.UUID]string
	orders map[uuid.UUID]uuid.UUID
	// ledgerCents tracks the net ledger effect of credits and debits.
	ledgerCents int64
}

func newFakeDecls() *fakeDecls {
	return &fakeDecls{
		decls:  map[uuid.UUID]Declaration{},
		keys:   map[uuid.UUID]string{},
		orders: map[uuid.UUID]uuid.UUID{},
	}
}

func (f *fakeDecls) seedApproved(callType, category string, leadID uuid.UUID, cents int64) Declaration {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := Declaration{
		ID:                 uuid.New(),
		AgentID:            uuid.New(),
		AffiliateManagerID: uuid.New(),
		LeadID:             leadID,
		CallType:           callType,
		CallCategory:       category,
		Status:             "approved",
		IsActive:           true,
		TotalBonusCents:    cents,
	}
	f.decls[d.ID] = d
	f.ledgerCents += cents
	return d
}

func (f *fakeDecls) GetByID(_ context.Context, id uuid.UUID) (Declaration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.decls[id]
	if !ok {
		return Declaration{}, apperr.NotFound("declaration not found")
	}
	return d, nil
}

func (f *fakeDecls) FindActiveByDedupKey(_ context.Context, key string) (Declaration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.decls {
		if d.IsActive && f.keys[d.ID] == key {
			return d, nil
		}
	}
	return Declaration{}, apperr.NotFound("declaration not found")
}

func (f *fakeDecls) FindActiveDepositByLeadOrder(_ context.Context, leadID, orderID uuid.UUID) (Declaration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.decls {
		if d.IsActive && d.CallType == "deposit" && d.LeadID == leadID && f.orders[d.ID] == orderID {
			return d, nil
		}
	}
	return Declaration{}, apperr.NotFound("declaration not found")
}

func (f *fakeDecls) CreateApprovedDeposit(_ context.Context, input DepositDeclarationInput) (Declaration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := Declaration{
		ID:                 uuid.New(),
		AgentID:            input.AgentID,
		AffiliateManagerID: input.AffiliateManagerID,
		LeadID:             input.LeadID,
		CallType:           "deposit",
		CallCategory:       "ftd",
		Status:             "approved",
		IsActive:           true,
		TotalBonusCents:    depositBonusCents,
	}
	f.decls[d.ID] = d
	f.keys[d.ID] = input.CallDate + "_" + input.Source + "_" + input.Destination
	f.orders[d.ID] = input.OrderID
	f.ledgerCents += d.TotalBonusCents
	return d, nil
}

func (f *fakeDecls) Reverse(_ context.Context, id uuid.UUID) (Declaration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.decls[id]
	if !ok {
		return Declaration{}, apperr.NotFound("declaration not found")
	}
	if d.IsActive {
		d.IsActive = false
		if d.Status == "approved" {
			f.ledgerCents -= d.TotalBonusCents
		}
		f.decls[id] = d
	}
	return d, nil
}

var _ DeclarationStore = (*fakeDecls)(nil)

type fakeTrackerRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*repository.Record
}

func newFakeTrackerRepo() *fakeTrackerRepo {
	return &fakeTrackerRepo{records: map[uuid.UUID]*repository.Record{}}
}

func (r *fakeTrackerRepo) GetOrCreate(_ context.Context, leadID, orderID uuid.UUID) (repository.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.LeadID == leadID && rec.OrderID == orderID {
			return *rec, nil
		}
	}
	rec := &repository.Record{ID: uuid.New(), LeadID: leadID, OrderID: orderID, UpdatedAt: time.Now()}
	for n := 1; n <= repository.SlotCount; n++ {
		rec.Slots = append(rec.Slots, repository.Slot{ID: uuid.New(), RecordID: rec.ID, SlotNumber: n, Status: repository.SlotPending})
	}
	r.records[rec.ID] = rec
	return *rec, nil
}

func (r *fakeTrackerRepo) GetByLeadOrder(_ context.Context, leadID, orderID uuid.UUID) (repository.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.LeadID == leadID && rec.OrderID == orderID {
			return *rec, nil
		}
	}
	return repository.Record{}, apperr.NotFound("no deposit tracker for this lead and order")
}

func (r *fakeTrackerRepo) GetLatestByLead(_ context.Context, leadID uuid.UUID) (repository.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.LeadID == leadID {
			return *rec, nil
		}
	}
	return repository.Record{}, apperr.NotFound("no deposit tracker for this lead")
}

func (r *fakeTrackerRepo) ResetSlot(_ context.Context, recordID uuid.UUID, slotNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordID]
	if !ok {
		return apperr.NotFound("deposit tracker not found")
	}
	for i := range rec.Slots {
		if rec.Slots[i].SlotNumber == slotNumber {
			rec.Slots[i] = repository.Slot{ID: rec.Slots[i].ID, RecordID: recordID, SlotNumber: slotNumber, Status: repository.SlotPending}
			return nil
		}
	}
	return apperr.NotFound("deposit slot not found")
}

func (r *fakeTrackerRepo) MarkSlotDone(_ context.Context, recordID uuid.UUID, slotNumber int, markedBy uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordID]
	if !ok {
		return apperr.NotFound("deposit tracker not found")
	}
	now := time.Now()
	for i := range rec.Slots {
		if rec.Slots[i].SlotNumber == slotNumber {
			rec.Slots[i].Status = repository.SlotDone
			rec.Slots[i].DoneDate = &now
			rec.Slots[i].MarkedBy = &markedBy
			rec.Slots[i].MarkedAt = &now
			return nil
		}
	}
	return apperr.NotFound("deposit slot not found")
}

func (r *fakeTrackerRepo) LinkDeclaration(_ context.Context, recordID uuid.UUID, declarationID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordID]
	if !ok {
		return apperr.NotFound("deposit tracker not found")
	}
	rec.DepositDeclarationID = declarationID
	return nil
}

func (r *fakeTrackerRepo) SetConfirmed(_ context.Context, recordID, confirmedBy uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordID]
	if !ok {
		return apperr.NotFound("deposit tracker not found")
	}
	now := time.Now()
	rec.DepositConfirmed = true
	rec.DepositConfirmedBy = &confirmedBy
	rec.DepositConfirmedAt = &now
	return nil
}

func (r *fakeTrackerRepo) ClearConfirmed(_ context.Context, recordID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordID]
	if !ok {
		return apperr.NotFound("deposit tracker not found")
	}
	rec.DepositConfirmed = false
	rec.DepositConfirmedBy = nil
	rec.DepositConfirmedAt = nil
	return nil
}

var _ repository.Repository = (*fakeTrackerRepo)(nil)

type fakeCollab struct {
	mu         sync.Mutex
	leads      map[uuid.UUID]leadorders.Lead
	orderLeads map[string]*leadorders.OrderLead
	audits     []string
}

func newFakeCollab() *fakeCollab {
	return &fakeCollab{
		leads:      map[uuid.UUID]leadorders.Lead{},
		orderLeads: map[string]*leadorders.OrderLead{},
	}
}

func olKey(orderID, leadID uuid.UUID) string {
	return orderID.String() + "/" + leadID.String()
}

func (f *fakeCollab) addLead(phone string, agentID *uuid.UUID) leadorders.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := leadorders.Lead{ID: uuid.New(), Name: "Test Lead", Phone: phone, AssignedAgentID: agentID}
	f.leads[l.ID] = l
	return l
}

func (f *fakeCollab) addOrderLead(orderID, leadID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderLeads[olKey(orderID, leadID)] = &leadorders.OrderLead{OrderID: orderID, LeadID: leadID}
}

func (f *fakeCollab) GetLead(_ context.Context, id uuid.UUID) (leadorders.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return leadorders.Lead{}, apperr.NotFound("lead not found")
	}
	return l, nil
}

func (f *fakeCollab) GetOrderLead(_ context.Context, orderID, leadID uuid.UUID) (leadorders.OrderLead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ol, ok := f.orderLeads[olKey(orderID, leadID)]
	if !ok {
		return leadorders.OrderLead{}, apperr.NotFound("lead is not part of this order")
	}
	return *ol, nil
}

func (f *fakeCollab) SetDepositMetadata(_ context.Context, orderID, leadID uuid.UUID, meta leadorders.DepositMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ol, ok := f.orderLeads[olKey(orderID, leadID)]
	if !ok {
		return apperr.NotFound("lead is not part of this order")
	}
	now := time.Now()
	ol.DepositConfirmed = true
	ol.DepositConfirmedBy = &meta.ConfirmedBy
	ol.DepositConfirmedAt = &now
	ol.DepositPSP = &meta.PSP
	ol.DepositCardIssuer = meta.CardIssuer
	return nil
}

func (f *fakeCollab) ClearDepositMetadata(_ context.Context, orderID, leadID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ol, ok := f.orderLeads[olKey(orderID, leadID)]
	if !ok {
		return apperr.NotFound("lead is not part of this order")
	}
	*ol = leadorders.OrderLead{OrderID: orderID, LeadID: leadID}
	return nil
}

func (f *fakeCollab) Append(_ context.Context, action string, _ uuid.UUID, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, action)
	return nil
}

func (f *fakeCollab) ListRecent(_ context.Context, _ int) ([]leadorders.AuditLog, error) {
	return nil, nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *fakeBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *fakeBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *fakeBus) Subscribe(string, events.Handler) {}

type fixture struct {
	svc     *Service
	decls   *fakeDecls
	tracker *fakeTrackerRepo
	collab  *fakeCollab
	bus     *fakeBus
}

func newFixture() *fixture {
	decls := newFakeDecls()
	tracker := newFakeTrackerRepo()
	collab := newFakeCollab()
	bus := &fakeBus{}
	svc := New(tracker, decls, collab, collab, collab, bus, logger.New("development"))
	return &fixture{svc: svc, decls: decls, tracker: tracker, collab: collab, bus: bus}
}

func (fx *fixture) confirmInput(lead leadorders.Lead, orderID uuid.UUID) ConfirmInput {
	return ConfirmInput{
		LeadID:             lead.ID,
		OrderID:            orderID,
		AffiliateManagerID: uuid.New(),
		PSP:                "securepay",
		CallDate:           "2026-08-01 10:00:00",
		Source:             "727",
		Destination:        lead.Phone,
		DurationSeconds:    3600,
		ConfirmedBy:        uuid.New(),
	}
}

func TestConfirmDepositHappyPath(t *testing.T) {
	fx := newFixture()
	agent := uuid.New()
	lead := fx.collab.addLead("14377576727", &agent)
	orderID := uuid.New()
	fx.collab.addOrderLead(orderID, lead.ID)

	record, err := fx.svc.ConfirmDeposit(context.Background(), fx.confirmInput(lead, orderID))
	if err != nil {
		t.Fatalf("ConfirmDeposit: %v", err)
	}

	if !record.DepositConfirmed {
		t.Error("tracker not confirmed")
	}
	if record.DepositDeclarationID == nil {
		t.Fatal("declaration not linked")
	}
	decl, err := fx.decls.GetByID(context.Background(), *record.DepositDeclarationID)
	if err != nil {
		t.Fatalf("linked declaration: %v", err)
	}
	if decl.CallType != "deposit" || decl.Status != "approved" || decl.AgentID != agent {
		t.Errorf("declaration = %+v", decl)
	}
	if fx.decls.ledgerCents != depositBonusCents {
		t.Errorf("ledger = %d, want %d", fx.decls.ledgerCents, depositBonusCents)
	}

	ol, _ := fx.collab.GetOrderLead(context.Background(), orderID, lead.ID)
	if !ol.DepositConfirmed || ol.DepositPSP == nil || *ol.DepositPSP != "securepay" {
		t.Errorf("order metadata = %+v", ol)
	}
	if len(fx.collab.audits) != 1 || fx.collab.audits[0] != "deposit.confirmed" {
		t.Errorf("audits = %v", fx.collab.audits)
	}
	if len(fx.bus.events) != 1 || fx.bus.events[0].EventName() != "deposits.confirmed" {
		t.Errorf("events = %v", fx.bus.events)
	}
}

func TestConfirmDepositOverridesExistingDeclaration(t *testing.T) {
	fx := newFixture()
	agent := uuid.New()
	lead := fx.collab.addLead("14377576727", &agent)
	orderID := uuid.New()
	fx.collab.addOrderLead(orderID, lead.ID)

	input := fx.confirmInput(lead, orderID)

	// An approved first_call already claims the same call and occupies slot 1.
	existing := fx.decls.seedApproved("first_call", "ftd", lead.ID, firstCallBonusCents)
	fx.decls.keys[existing.ID] = input.CallDate + "_" + input.Source + "_" + input.Destination
	rec, _ := fx.tracker.GetOrCreate(context.Background(), lead.ID, orderID)
	if err := fx.tracker.MarkSlotDone(context.Background(), rec.ID, 1, uuid.New()); err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	record, err := fx.svc.ConfirmDeposit(context.Background(), input)
	if err != nil {
		t.Fatalf("ConfirmDeposit: %v", err)
	}

	overridden, _ := fx.decls.GetByID(context.Background(), existing.ID)
	if overridden.IsActive {
		t.Error("overridden declaration still active")
	}
	if record.Slots[0].Status != repository.SlotPending {
		t.Errorf("slot 1 status = %q, want pending", record.Slots[0].Status)
	}
	// Net ledger change is the deposit bonus minus the reversed first call.
	if fx.decls.ledgerCents != depositBonusCents {
		t.Errorf("ledger = %d, want %d after debit %d and credit %d",
			fx.decls.ledgerCents, depositBonusCents, firstCallBonusCents, depositBonusCents)
	}
}

func TestConfirmDepositConflictsOnSecondDeposit(t *testing.T) {
	fx := newFixture()
	agent := uuid.New()
	lead := fx.collab.addLead("14377576727", &agent)
	orderID := uuid.New()
	fx.collab.addOrderLead(orderID, lead.ID)

	if _, err := fx.svc.ConfirmDeposit(context.Background(), fx.confirmInput(lead, orderID)); err != nil {
		t.Fatalf("first ConfirmDeposit: %v", err)
	}

	// A second confirmation for a different call must not create a second
	// active deposit declaration.
	input := fx.confirmInput(lead, orderID)
	input.CallDate = "2026-08-02 11:00:00"
	if _, err := fx.svc.ConfirmDeposit(context.Background(), input); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestConfirmDepositValidation(t *testing.T) {
	fx := newFixture()
	agent := uuid.New()
	lead := fx.collab.addLead("14377576727", &agent)
	orderID := uuid.New()
	fx.collab.addOrderLead(orderID, lead.ID)

	noPSP := fx.confirmInput(lead, orderID)
	noPSP.PSP = "  "
	if _, err := fx.svc.ConfirmDeposit(context.Background(), noPSP); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("missing psp err = %v, want validation", err)
	}

	wrongPhone := fx.confirmInput(lead, orderID)
	wrongPhone.Destination = "15550001111"
	if _, err := fx.svc.ConfirmDeposit(context.Background(), wrongPhone); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("phone mismatch err = %v, want validation", err)
	}

	unassigned := fx.collab.addLead("14377576727", nil)
	fx.collab.addOrderLead(orderID, unassigned.ID)
	if _, err := fx.svc.ConfirmDeposit(context.Background(), fx.confirmInput(unassigned, orderID)); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("unassigned lead err = %v, want validation", err)
	}
}

// unassigningLeadReader unassigns the lead's agent right after the first
// read, simulating a concurrent reassignment mid-confirmation.
type unassigningLeadReader struct {
	inner *fakeCollab
	calls int
}

func (r *unassigningLeadReader) GetLead(ctx context.Context, id uuid.UUID) (leadorders.Lead, error) {
	r.calls++
	lead, err := r.inner.GetLead(ctx, id)
	if err != nil {
		return lead, err
	}
	if r.calls == 1 {
		r.inner.mu.Lock()
		updated := lead
		updated.AssignedAgentID = nil
		r.inner.leads[id] = updated
		r.inner.mu.Unlock()
	}
	return lead, nil
}

func TestConfirmDepositSurvivesConcurrentUnassignment(t *testing.T) {
	decls := newFakeDecls()
	tracker := newFakeTrackerRepo()
	collab := newFakeCollab()
	reader := &unassigningLeadReader{inner: collab}
	bus := &fakeBus{}
	svc := New(tracker, decls, reader, collab, collab, bus, logger.New("development"))
	fx := &fixture{svc: svc, decls: decls, tracker: tracker, collab: collab, bus: bus}

	agent := uuid.New()
	lead := collab.addLead("14377576727", &agent)
	orderID := uuid.New()
	collab.addOrderLead(orderID, lead.ID)

	record, err := fx.svc.ConfirmDeposit(context.Background(), fx.confirmInput(lead, orderID))
	if err != nil {
		t.Fatalf("ConfirmDeposit: %v", err)
	}
	if reader.calls != 1 {
		t.Errorf("lead read %d times, want 1", reader.calls)
	}

	decl, err := decls.GetByID(context.Background(), *record.DepositDeclarationID)
	if err != nil {
		t.Fatalf("linked declaration: %v", err)
	}
	// The agent captured at validation time owns the declaration.
	if decl.AgentID != agent {
		t.Errorf("declaration agent = %s, want %s", decl.AgentID, agent)
	}
}

func TestUnconfirmDeposit(t *testing.T) {
	fx := newFixture()
	agent := uuid.New()
	lead := fx.collab.addLead("14377576727", &agent)
	orderID := uuid.New()
	fx.collab.addOrderLead(orderID, lead.ID)

	if err := fx.svc.UnconfirmDeposit(context.Background(), lead.ID, orderID, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unconfirm without tracker err = %v, want not found", err)
	}

	record, err := fx.svc.ConfirmDeposit(context.Background(), fx.confirmInput(lead, orderID))
	if err != nil {
		t.Fatalf("ConfirmDeposit: %v", err)
	}
	linkedID := *record.DepositDeclarationID

	if err := fx.svc.UnconfirmDeposit(context.Background(), lead.ID, orderID, uuid.New()); err != nil {
		t.Fatalf("UnconfirmDeposit: %v", err)
	}

	decl, _ := fx.decls.GetByID(context.Background(), linkedID)
	if decl.IsActive {
		t.Error("linked declaration still active")
	}
	if fx.decls.ledgerCents != 0 {
		t.Errorf("ledger = %d, want 0 after debit", fx.decls.ledgerCents)
	}

	after, _ := fx.svc.GetTracker(context.Background(), lead.ID, orderID)
	if after.DepositConfirmed || after.DepositDeclarationID != nil {
		t.Errorf("tracker = %+v, want unconfirmed and unlinked", after)
	}
	ol, _ := fx.collab.GetOrderLead(context.Background(), orderID, lead.ID)
	if ol.DepositConfirmed {
		t.Error("order metadata still confirmed")
	}

	// A repeat unconfirm is Forbidden: the deposit is no longer confirmed.
	if err := fx.svc.UnconfirmDeposit(context.Background(), lead.ID, orderID, uuid.New()); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("repeat unconfirm err = %v, want forbidden", err)
	}
}

func TestHandleDeclarationApprovedMarksSlotDone(t *testing.T) {
	fx := newFixture()
	lead := uuid.New()
	orderID := uuid.New()
	if _, err := fx.tracker.GetOrCreate(context.Background(), lead, orderID); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	event := events.DeclarationApproved{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead,
		ReviewedBy:   uuid.New(),
		CallType:     "second_call",
		CallCategory: "ftd",
	}
	if err := fx.svc.HandleDeclarationApproved(context.Background(), event); err != nil {
		t.Fatalf("HandleDeclarationApproved: %v", err)
	}

	after, _ := fx.tracker.GetByLeadOrder(context.Background(), lead, orderID)
	if after.Slots[1].Status != repository.SlotDone {
		t.Errorf("slot 2 status = %q, want done", after.Slots[1].Status)
	}

	// Filler approvals never advance slots.
	filler := event
	filler.CallType = "third_call"
	filler.CallCategory = "filler"
	if err := fx.svc.HandleDeclarationApproved(context.Background(), filler); err != nil {
		t.Fatalf("HandleDeclarationApproved filler: %v", err)
	}
	after, _ = fx.tracker.GetByLeadOrder(context.Background(), lead, orderID)
	if after.Slots[2].Status != repository.SlotPending {
		t.Errorf("slot 3 status = %q, want pending", after.Slots[2].Status)
	}
}

func TestResetSlotValidation(t *testing.T) {
	fx := newFixture()
	if err := fx.svc.ResetSlot(context.Background(), uuid.New(), uuid.New(), 5, uuid.New()); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}
