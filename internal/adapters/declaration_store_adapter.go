package adapters

import (
	"context"

	"github.com/google/uuid"

	declrepo "callcenter_backend/internal/declarations/repository"
	declservice "callcenter_backend/internal/declarations/service"
	depservice "callcenter_backend/internal/deposits/service"
)

// DeclarationStoreAdapter exposes the declaration lifecycle to the deposits
// domain. It implements deposits/service.DeclarationStore.
type DeclarationStoreAdapter struct {
	svc *declservice.Service
}

// NewDeclarationStoreAdapter creates a new adapter that wraps the declarations service.
func NewDeclarationStoreAdapter(svc *declservice.Service) *DeclarationStoreAdapter {
	return &DeclarationStoreAdapter{svc: svc}
}

func (a *DeclarationStoreAdapter) GetByID(ctx context.Context, id uuid.UUID) (depservice.Declaration, error) {
	decl, err := a.svc.GetByID(ctx, id)
	if err != nil {
		return depservice.Declaration{}, err
	}
	return toDepositView(decl), nil
}

func (a *DeclarationStoreAdapter) FindActiveByDedupKey(ctx context.Context, dedupKey string) (depservice.Declaration, error) {
	decl, err := a.svc.FindActiveByDedupKey(ctx, dedupKey)
	if err != nil {
		return depservice.Declaration{}, err
	}
	return toDepositView(decl), nil
}

func (a *DeclarationStoreAdapter) FindActiveDepositByLeadOrder(ctx context.Context, leadID, orderID uuid.UUID) (depservice.Declaration, error) {
	decl, err := a.svc.FindActiveDepositByLeadOrder(ctx, leadID, orderID)
	if err != nil {
		return depservice.Declaration{}, err
	}
	return toDepositView(decl), nil
}

func (a *DeclarationStoreAdapter) CreateApprovedDeposit(ctx context.Context, input depservice.DepositDeclarationInput) (depservice.Declaration, error) {
	decl, err := a.svc.CreateApprovedDeposit(ctx, declservice.DepositInput{
		AgentID:            input.AgentID,
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
		return depservice.Declaration{}, err
	}
	return toDepositView(decl), nil
}

func (a *DeclarationStoreAdapter) Reverse(ctx context.Context, id uuid.UUID) (depservice.Declaration, error) {
	decl, err := a.svc.Reverse(ctx, id)
	if err != nil {
		return depservice.Declaration{}, err
	}
	return toDepositView(decl), nil
}

func toDepositView(decl declrepo.Declaration) depservice.Declaration {
	return depservice.Declaration{
		ID:                 decl.ID,
		AgentID:            decl.AgentID,
		AffiliateManagerID: decl.AffiliateManagerID,
		LeadID:             decl.LeadID,
		CallType:           decl.CallType,
		CallCategory:       decl.CallCategory,
		Status:             decl.Status,
		IsActive:           decl.IsActive,
		TotalBonusCents:    decl.TotalBonusCents,
	}
}
