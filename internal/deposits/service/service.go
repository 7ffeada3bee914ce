// Package service implements deposit confirmation: overriding a conflicting
// declaration, creating the authoritative deposit declaration and keeping the
// slot tracker and order metadata in step.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"callcenter_backend/internal/deposits/repository"
	"callcenter_backend/internal/events"
	leadorders "callcenter_backend/internal/leadorders/repository"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/phone"
)

// slotNumbers maps numbered call types to their tracker slot.
var slotNumbers = map[string]int{
	"first_call":  1,
	"second_call": 2,
	"third_call":  3,
	"fourth_call": 4,
}

// Declaration is the view of a declaration this module needs.
type Declaration struct {
	ID                 uuid.UUID
	AgentID            uuid.UUID
	AffiliateManagerID uuid.UUID
	LeadID             uuid.UUID
	CallType           string
	CallCategory       string
	Status             string
	IsActive           bool
	TotalBonusCents    int64
}

// DepositDeclarationInput is what the declaration store needs to create the
// system deposit declaration.
type DepositDeclarationInput struct {
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

// DeclarationStore is the declarations module as seen from deposits.
// Reverse debits the ledger itself when the declaration was approved.
type DeclarationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Declaration, error)
	FindActiveByDedupKey(ctx context.Context, dedupKey string) (Declaration, error)
	FindActiveDepositByLeadOrder(ctx context.Context, leadID, orderID uuid.UUID) (Declaration, error)
	CreateApprovedDeposit(ctx context.Context, input DepositDeclarationInput) (Declaration, error)
	Reverse(ctx context.Context, id uuid.UUID) (Declaration, error)
}

// ConfirmInput is a deposit confirmation request.
type ConfirmInput struct {
	LeadID             uuid.UUID
	OrderID            uuid.UUID
	AffiliateManagerID uuid.UUID
	PSP                string
	CardIssuer         *string
	CallDate           string
	Source             string
	Destination        string
	DurationSeconds    int
	ConfirmedBy        uuid.UUID
}

// Service is the deposit confirmation application service.
type Service struct {
	repo   repository.Repository
	decls  DeclarationStore
	leads  leadorders.LeadReader
	orders leadorders.OrderDepositWriter
	audit  leadorders.AuditLogger
	bus    events.Bus
	log    *logger.Logger
}

// New creates the deposit service.
func New(repo repository.Repository, decls DeclarationStore, leads leadorders.LeadReader, orders leadorders.OrderDepositWriter, audit leadorders.AuditLogger, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, decls: decls, leads: leads, orders: orders, audit: audit, bus: bus, log: log}
}

// ConfirmDeposit makes the selected call the authoritative deposit
// declaration for a lead within an order. Any conflicting active declaration
// on the same call is reversed first, its slot reset if it was a numbered
// call. The new declaration is created approved and credited exactly once.
func (s *Service) ConfirmDeposit(ctx context.Context, input ConfirmInput) (repository.Record, error) {
	lead, err := s.validateConfirm(ctx, input)
	if err != nil {
		return repository.Record{}, err
	}

	key := dedupKey(input.CallDate, input.Source, input.Destination)
	if err := s.reverseConflicting(ctx, key, input); err != nil {
		return repository.Record{}, err
	}

	if existing, err := s.decls.FindActiveDepositByLeadOrder(ctx, input.LeadID, input.OrderID); err == nil {
		s.log.Warn("deposit already declared",
			"leadId", input.LeadID.String(),
			"orderId", input.OrderID.String(),
			"declarationId", existing.ID.String())
		return repository.Record{}, apperr.Conflict("a deposit declaration is already active for this lead and order")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return repository.Record{}, err
	}

	created, err := s.decls.CreateApprovedDeposit(ctx, DepositDeclarationInput{
		AgentID:            *lead.AssignedAgentID,
		AffiliateManagerID: input.AffiliateManagerID,
		LeadID:             input.LeadID,
		OrderID:            input.OrderID,
		CallDate:           input.CallDate,
		Source:             input.Source,
		Destination:        input.Destination,
		DurationSeconds:    input.DurationSeconds,
		ConfirmedBy:        input.ConfirmedBy,
	})
	if err != nil {
		return repository.Record{}, err
	}

	record, err := s.repo.GetOrCreate(ctx, input.LeadID, input.OrderID)
	if err != nil {
		return repository.Record{}, err
	}
	if err := s.repo.LinkDeclaration(ctx, record.ID, &created.ID); err != nil {
		return repository.Record{}, err
	}
	if err := s.repo.SetConfirmed(ctx, record.ID, input.ConfirmedBy); err != nil {
		return repository.Record{}, err
	}

	meta := leadorders.DepositMetadata{ConfirmedBy: input.ConfirmedBy, PSP: input.PSP, CardIssuer: input.CardIssuer}
	if err := s.orders.SetDepositMetadata(ctx, input.OrderID, input.LeadID, meta); err != nil {
		return repository.Record{}, err
	}

	s.appendAudit(ctx, "deposit.confirmed", input.ConfirmedBy, map[string]any{
		"leadId":        input.LeadID,
		"orderId":       input.OrderID,
		"declarationId": created.ID,
		"psp":           input.PSP,
	})

	s.bus.Publish(ctx, events.DepositConfirmed{
		BaseEvent:          events.NewBaseEvent(),
		LeadID:             input.LeadID,
		OrderID:            input.OrderID,
		DeclarationID:      created.ID,
		AffiliateManagerID: input.AffiliateManagerID,
		ConfirmedBy:        input.ConfirmedBy,
		PSP:                input.PSP,
	})

	return s.repo.GetByLeadOrder(ctx, input.LeadID, input.OrderID)
}

// UnconfirmDeposit rolls a confirmation back: reverses the linked
// declaration if it is still active, clears the order metadata and the
// tracker link. Forbidden when the deposit was never confirmed.
func (s *Service) UnconfirmDeposit(ctx context.Context, leadID, orderID, performedBy uuid.UUID) error {
	record, err := s.repo.GetByLeadOrder(ctx, leadID, orderID)
	if err != nil {
		return err
	}
	if !record.DepositConfirmed {
		return apperr.Forbidden("deposit is not confirmed for this lead and order")
	}

	if record.DepositDeclarationID != nil {
		decl, err := s.decls.GetByID(ctx, *record.DepositDeclarationID)
		switch {
		case err != nil && !apperr.Is(err, apperr.KindNotFound):
			return err
		case err == nil && decl.IsActive:
			if _, err := s.decls.Reverse(ctx, decl.ID); err != nil {
				return fmt.Errorf("reverse deposit declaration: %w", err)
			}
		}
	}

	if err := s.repo.ClearConfirmed(ctx, record.ID); err != nil {
		return err
	}
	if err := s.repo.LinkDeclaration(ctx, record.ID, nil); err != nil {
		return err
	}
	if err := s.orders.ClearDepositMetadata(ctx, orderID, leadID); err != nil {
		return err
	}

	s.appendAudit(ctx, "deposit.unconfirmed", performedBy, map[string]any{
		"leadId":        leadID,
		"orderId":       orderID,
		"declarationId": record.DepositDeclarationID,
	})

	var declarationID uuid.UUID
	if record.DepositDeclarationID != nil {
		declarationID = *record.DepositDeclarationID
	}
	s.bus.Publish(ctx, events.DepositUnconfirmed{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        leadID,
		OrderID:       orderID,
		DeclarationID: declarationID,
		PerformedBy:   performedBy,
	})

	return nil
}

// GetTracker loads a tracker record with its slots.
func (s *Service) GetTracker(ctx context.Context, leadID, orderID uuid.UUID) (repository.Record, error) {
	return s.repo.GetByLeadOrder(ctx, leadID, orderID)
}

// ResetSlot forces a slot back to pending.
func (s *Service) ResetSlot(ctx context.Context, leadID, orderID uuid.UUID, slotNumber int, performedBy uuid.UUID) error {
	if slotNumber < 1 || slotNumber > repository.SlotCount {
		return apperr.Validation("slot number out of range")
	}

	record, err := s.repo.GetByLeadOrder(ctx, leadID, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.ResetSlot(ctx, record.ID, slotNumber); err != nil {
		return err
	}

	s.appendAudit(ctx, "deposit.slot_reset", performedBy, map[string]any{
		"leadId":     leadID,
		"orderId":    orderID,
		"slotNumber": slotNumber,
	})

	return nil
}

// HandleDeclarationApproved marks the matching slot done when a numbered ftd
// declaration is approved. Best effort: a lead without a tracker is normal.
func (s *Service) HandleDeclarationApproved(ctx context.Context, event events.Event) error {
	approved, ok := event.(events.DeclarationApproved)
	if !ok {
		return nil
	}

	slot, tracked := slotNumbers[approved.CallType]
	if !tracked || approved.CallCategory != "ftd" {
		return nil
	}

	record, err := s.repo.GetLatestByLead(ctx, approved.LeadID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}

	if err := s.repo.MarkSlotDone(ctx, record.ID, slot, approved.ReviewedBy); err != nil {
		s.log.Warn("mark deposit slot done failed",
			"leadId", approved.LeadID.String(),
			"slotNumber", slot,
			"error", err.Error())
	}

	return nil
}

// validateConfirm checks the request and returns the lead so the caller can
// use the assigned agent without a second fetch.
func (s *Service) validateConfirm(ctx context.Context, input ConfirmInput) (leadorders.Lead, error) {
	if input.LeadID == uuid.Nil || input.OrderID == uuid.Nil {
		return leadorders.Lead{}, apperr.Validation("lead and order are required")
	}
	if input.AffiliateManagerID == uuid.Nil {
		return leadorders.Lead{}, apperr.Validation("affiliate manager is required")
	}
	if strings.TrimSpace(input.PSP) == "" {
		return leadorders.Lead{}, apperr.Validation("payment service provider is required")
	}
	if strings.TrimSpace(input.CallDate) == "" || strings.TrimSpace(input.Destination) == "" {
		return leadorders.Lead{}, apperr.Validation("the selected call is incomplete")
	}

	lead, err := s.leads.GetLead(ctx, input.LeadID)
	if err != nil {
		return leadorders.Lead{}, err
	}
	if lead.AssignedAgentID == nil {
		return leadorders.Lead{}, apperr.Validation("lead has no assigned agent")
	}
	if lead.Phone != "" && !phone.SameNumber(input.Destination, lead.Phone) {
		return leadorders.Lead{}, apperr.Validation("the selected call does not match the lead's phone number")
	}

	// Confirms only apply to leads that are part of the order.
	if _, err := s.orders.GetOrderLead(ctx, input.OrderID, input.LeadID); err != nil {
		return leadorders.Lead{}, err
	}

	return lead, nil
}

// reverseConflicting clears the way for the deposit declaration: if another
// active declaration claims the same call, reset its slot when it is a
// numbered call, then reverse it. Reverse debits the ledger for approved
// declarations, so an override's net ledger change is deposit minus the old
// bonus.
func (s *Service) reverseConflicting(ctx context.Context, key string, input ConfirmInput) error {
	existing, err := s.decls.FindActiveByDedupKey(ctx, key)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}

	if slot, tracked := slotNumbers[existing.CallType]; tracked && existing.CallCategory == "ftd" {
		record, err := s.repo.GetByLeadOrder(ctx, existing.LeadID, input.OrderID)
		switch {
		case err == nil:
			if err := s.repo.ResetSlot(ctx, record.ID, slot); err != nil {
				return err
			}
		case !apperr.Is(err, apperr.KindNotFound):
			return err
		}
	}

	// Cross-manager overrides are permitted: the debit lands on the
	// overridden declaration's own manager, so both ledgers stay consistent.
	if existing.AffiliateManagerID != input.AffiliateManagerID {
		s.log.Warn("deposit override crosses managers",
			"declarationId", existing.ID.String(),
			"declarationManagerId", existing.AffiliateManagerID.String(),
			"confirmingManagerId", input.AffiliateManagerID.String())
	}

	if _, err := s.decls.Reverse(ctx, existing.ID); err != nil {
		return fmt.Errorf("reverse conflicting declaration: %w", err)
	}

	return nil
}

func (s *Service) appendAudit(ctx context.Context, action string, performedBy uuid.UUID, details map[string]any) {
	if err := s.audit.Append(ctx, action, performedBy, details); err != nil {
		s.log.Warn("audit append failed", "action", action, "error", err.Error())
	}
}

func dedupKey(callDate, src, dst string) string {
	return callDate + "_" + src + "_" + dst
}
