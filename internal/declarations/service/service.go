// Package service implements the declaration lifecycle: submission, review,
// reversal and monthly aggregation.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"callcenter_backend/internal/declarations/repository"
	"callcenter_backend/internal/events"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/sanitize"
)

// switchTimeLayout is the timestamp format the telephony switch emits.
const switchTimeLayout = "2006-01-02 15:04:05"

// minCallSeconds is the declaration qualifying floor.
const minCallSeconds = 900

// Categories a declaration can carry.
const (
	CategoryFTD    = "ftd"
	CategoryFiller = "filler"
)

// BonusCalculator computes payouts for call types. Implemented by the cdr
// module via an adapter.
type BonusCalculator interface {
	Calculate(callType string, durationSeconds int) (baseCents, overageCents, totalCents int64)
	IsDeclarable(callType string) bool
	IsKnown(callType string) bool
}

// LedgerEntry carries what the ledger needs to credit or debit a declaration.
type LedgerEntry struct {
	DeclarationID   uuid.UUID
	ManagerID       uuid.UUID
	CallType        string
	CallCategory    string
	TotalCents      int64
	DurationSeconds int
	Month           int
	Year            int
}

// LedgerRecorder applies declaration payouts to the manager expense ledger.
type LedgerRecorder interface {
	Credit(ctx context.Context, entry LedgerEntry) error
	Debit(ctx context.Context, entry LedgerEntry) error
}

// SubmitInput is an agent's declaration submission.
type SubmitInput struct {
	AgentID            uuid.UUID
	AffiliateManagerID uuid.UUID
	LeadID             uuid.UUID
	CallType           string
	CallCategory       string
	CallDate           string
	Source             string
	Destination        string
	DurationSeconds    int
	Notes              *string
}

// DepositInput creates the system deposit declaration during confirmation.
type DepositInput struct {
	AgentID            uuid.UUID
	AffiliateManagerID uuid.UUID
	LeadID             uuid.UUID
	OrderID            uuid.UUID
	CallDate           string
	Source             string
	Destination        string
	DurationSeconds    int
	ConfirmedBy        uuid.UUID
}

// Service is the declaration application service.
type Service struct {
	repo   repository.Repository
	bonus  BonusCalculator
	ledger LedgerRecorder
	bus    events.Bus
	log    *logger.Logger
}

// New creates the declaration service.
func New(repo repository.Repository, bonus BonusCalculator, ledger LedgerRecorder, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bonus: bonus, ledger: ledger, bus: bus, log: log}
}

// Submit validates and persists a pending declaration. Deposit declarations
// are system-only: the confirmation flow creates them, agents cannot.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (repository.Declaration, error) {
	if input.CallType == CallTypeDeposit() {
		return repository.Declaration{}, apperr.Validation("deposit declarations are created during deposit confirmation")
	}
	if !s.bonus.IsDeclarable(input.CallType) {
		return repository.Declaration{}, apperr.Validation("unknown call type")
	}
	if input.CallCategory != CategoryFTD && input.CallCategory != CategoryFiller {
		return repository.Declaration{}, apperr.Validation("call category must be ftd or filler")
	}
	if input.DurationSeconds < minCallSeconds {
		return repository.Declaration{}, apperr.Validation("call is below the minimum qualifying duration")
	}
	if input.AgentID == uuid.Nil || input.AffiliateManagerID == uuid.Nil || input.LeadID == uuid.Nil {
		return repository.Declaration{}, apperr.Validation("agent, affiliate manager and lead are required")
	}

	month, year, err := periodFromCallDate(input.CallDate)
	if err != nil {
		return repository.Declaration{}, err
	}

	decl := repository.Declaration{
		AgentID:            input.AgentID,
		AffiliateManagerID: input.AffiliateManagerID,
		LeadID:             input.LeadID,
		CallType:           input.CallType,
		CallCategory:       input.CallCategory,
		CallDate:           input.CallDate,
		Source:             input.Source,
		Destination:        input.Destination,
		DurationSeconds:    input.DurationSeconds,
		DedupKey:           dedupKey(input.CallDate, input.Source, input.Destination),
		Status:             repository.StatusPending,
		Notes:              sanitize.TextPtr(input.Notes),
		PeriodMonth:        month,
		PeriodYear:         year,
	}

	// Filler calls are tracked for history but never paid.
	if input.CallCategory == CategoryFTD {
		decl.BaseBonusCents, decl.OverageBonusCents, decl.TotalBonusCents = s.bonus.Calculate(input.CallType, input.DurationSeconds)
	}

	created, err := s.repo.Create(ctx, decl)
	if err != nil {
		return repository.Declaration{}, err
	}

	s.bus.Publish(ctx, events.DeclarationSubmitted{
		BaseEvent:          events.NewBaseEvent(),
		DeclarationID:      created.ID,
		AgentID:            created.AgentID,
		AffiliateManagerID: created.AffiliateManagerID,
		LeadID:             created.LeadID,
		CallType:           created.CallType,
		CallCategory:       created.CallCategory,
		TotalBonusCents:    created.TotalBonusCents,
	})

	return created, nil
}

// CreateApprovedDeposit persists a deposit declaration in approved state and
// credits the ledger once. Used by the deposit confirmation flow only.
func (s *Service) CreateApprovedDeposit(ctx context.Context, input DepositInput) (repository.Declaration, error) {
	month, year, err := periodFromCallDate(input.CallDate)
	if err != nil {
		return repository.Declaration{}, err
	}

	base, overage, total := s.bonus.Calculate(CallTypeDeposit(), input.DurationSeconds)
	now := time.Now()
	note := "auto-approved on deposit confirmation"
	orderID := input.OrderID

	decl := repository.Declaration{
		AgentID:            input.AgentID,
		AffiliateManagerID: input.AffiliateManagerID,
		LeadID:             input.LeadID,
		OrderID:            &orderID,
		CallType:           CallTypeDeposit(),
		CallCategory:       CategoryFTD,
		CallDate:           input.CallDate,
		Source:             input.Source,
		Destination:        input.Destination,
		DurationSeconds:    input.DurationSeconds,
		DedupKey:           dedupKey(input.CallDate, input.Source, input.Destination),
		BaseBonusCents:     base,
		OverageBonusCents:  overage,
		TotalBonusCents:    total,
		Status:             repository.StatusApproved,
		ReviewNotes:        &note,
		ReviewedBy:         &input.ConfirmedBy,
		ReviewedAt:         &now,
		PeriodMonth:        month,
		PeriodYear:         year,
	}

	created, err := s.repo.Create(ctx, decl)
	if err != nil {
		return repository.Declaration{}, err
	}

	s.credit(ctx, created)

	return created, nil
}

// Approve transitions a pending declaration to approved and credits the
// manager ledger. The credit is best-effort: a failure is logged and left to
// the reconciliation report, the approval stands.
func (s *Service) Approve(ctx context.Context, id, reviewerID uuid.UUID, notes *string) (repository.Declaration, error) {
	decl, err := s.repo.ApproveIfPending(ctx, id, reviewerID, sanitize.TextPtr(notes))
	if err != nil {
		return repository.Declaration{}, err
	}

	s.credit(ctx, decl)

	s.bus.Publish(ctx, events.DeclarationApproved{
		BaseEvent:          events.NewBaseEvent(),
		DeclarationID:      decl.ID,
		AgentID:            decl.AgentID,
		AffiliateManagerID: decl.AffiliateManagerID,
		LeadID:             decl.LeadID,
		ReviewedBy:         reviewerID,
		CallType:           decl.CallType,
		CallCategory:       decl.CallCategory,
		TotalBonusCents:    decl.TotalBonusCents,
	})

	return decl, nil
}

// Reject transitions a pending declaration to rejected. Notes are mandatory;
// rejection without an explanation is not actionable for the agent.
func (s *Service) Reject(ctx context.Context, id, reviewerID uuid.UUID, notes string) (repository.Declaration, error) {
	cleaned := sanitize.Text(notes)
	if strings.TrimSpace(cleaned) == "" {
		return repository.Declaration{}, apperr.Validation("review notes are required to reject a declaration")
	}

	decl, err := s.repo.RejectIfPending(ctx, id, reviewerID, cleaned)
	if err != nil {
		return repository.Declaration{}, err
	}

	s.bus.Publish(ctx, events.DeclarationRejected{
		BaseEvent:     events.NewBaseEvent(),
		DeclarationID: decl.ID,
		AgentID:       decl.AgentID,
		LeadID:        decl.LeadID,
		ReviewedBy:    reviewerID,
		ReviewNotes:   cleaned,
	})

	return decl, nil
}

// Reverse deactivates a declaration and, if it had been approved, debits the
// ledger. Reversing an already-inactive declaration is a no-op, and the
// conditional deactivation guarantees the debit happens at most once even
// under concurrent reversals.
func (s *Service) Reverse(ctx context.Context, id uuid.UUID) (repository.Declaration, error) {
	decl, reversed, err := s.repo.DeactivateIfActive(ctx, id)
	if err != nil {
		return repository.Declaration{}, err
	}
	if !reversed {
		return decl, nil
	}

	wasApproved := decl.Status == repository.StatusApproved
	if wasApproved {
		s.debit(ctx, decl)
	}

	s.bus.Publish(ctx, events.DeclarationReversed{
		BaseEvent:          events.NewBaseEvent(),
		DeclarationID:      decl.ID,
		AffiliateManagerID: decl.AffiliateManagerID,
		LeadID:             decl.LeadID,
		CallType:           decl.CallType,
		WasApproved:        wasApproved,
		TotalBonusCents:    decl.TotalBonusCents,
	})

	return decl, nil
}

// DeleteOwn lets an agent withdraw their own declaration while it is still
// pending review.
func (s *Service) DeleteOwn(ctx context.Context, id, agentID uuid.UUID) error {
	decl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if decl.AgentID != agentID {
		return apperr.Forbidden("declaration belongs to another agent")
	}
	if !decl.IsActive {
		return nil
	}
	if decl.Status != repository.StatusPending {
		return apperr.Conflict("only pending declarations can be withdrawn")
	}

	_, err = s.Reverse(ctx, id)
	return err
}

// GetByID retrieves a declaration.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Declaration, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves declarations with filters.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Declaration, int, error) {
	return s.repo.List(ctx, params)
}

// AgentMonthlySummary aggregates an agent's approved declarations for a month.
func (s *Service) AgentMonthlySummary(ctx context.Context, agentID uuid.UUID, month, year int) (repository.AgentSummary, error) {
	if err := validatePeriod(month, year); err != nil {
		return repository.AgentSummary{}, err
	}
	return s.repo.AgentMonthlySummary(ctx, agentID, month, year)
}

// MonthlyRollup aggregates approved declarations across agents for a month.
func (s *Service) MonthlyRollup(ctx context.Context, month, year int) ([]repository.AgentSummary, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}
	return s.repo.MonthlyRollup(ctx, month, year)
}

// FindActiveByDedupKey exposes dedup lookup for the deposit flow.
func (s *Service) FindActiveByDedupKey(ctx context.Context, key string) (repository.Declaration, error) {
	return s.repo.FindActiveByDedupKey(ctx, key)
}

// FindActiveDepositByLeadOrder exposes the deposit lookup for the deposit flow.
func (s *Service) FindActiveDepositByLeadOrder(ctx context.Context, leadID, orderID uuid.UUID) (repository.Declaration, error) {
	return s.repo.FindActiveDepositByLeadOrder(ctx, leadID, orderID)
}

func (s *Service) credit(ctx context.Context, decl repository.Declaration) {
	if err := s.ledger.Credit(ctx, ledgerEntry(decl)); err != nil {
		s.log.LedgerFailure("credit", decl.AffiliateManagerID.String(), decl.ID.String(), err)
	}
}

func (s *Service) debit(ctx context.Context, decl repository.Declaration) {
	if err := s.ledger.Debit(ctx, ledgerEntry(decl)); err != nil {
		s.log.LedgerFailure("debit", decl.AffiliateManagerID.String(), decl.ID.String(), err)
	}
}

func ledgerEntry(decl repository.Declaration) LedgerEntry {
	return LedgerEntry{
		DeclarationID:   decl.ID,
		ManagerID:       decl.AffiliateManagerID,
		CallType:        decl.CallType,
		CallCategory:    decl.CallCategory,
		TotalCents:      decl.TotalBonusCents,
		DurationSeconds: decl.DurationSeconds,
		Month:           decl.PeriodMonth,
		Year:            decl.PeriodYear,
	}
}

// CallTypeDeposit names the system-only deposit call type.
func CallTypeDeposit() string { return "deposit" }

func dedupKey(callDate, src, dst string) string {
	return callDate + "_" + src + "_" + dst
}

func periodFromCallDate(callDate string) (month, year int, err error) {
	trimmed := strings.TrimSpace(callDate)
	if trimmed == "" {
		return 0, 0, apperr.Validation("call date is required")
	}

	t, parseErr := time.Parse(switchTimeLayout, trimmed)
	if parseErr != nil {
		t, parseErr = time.Parse(time.RFC3339, trimmed)
	}
	if parseErr != nil {
		return 0, 0, apperr.Validation("call date is not a recognized timestamp")
	}

	return int(t.Month()), t.Year(), nil
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
