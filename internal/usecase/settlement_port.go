package usecase

import (
	"context"
	"fmt"
	"time"

	"ciclo/internal/domain"
)

// ledgerSettlementPort is the built-in SettlementPort. It records escrow and
// split state against the settlement repository; wiring a real
// money-movement provider replaces this implementation, not its callers.
type ledgerSettlementPort struct {
	clock func() time.Time
	idgen func() string
}

func NewSettlementPort(clock func() time.Time, idgen func() string) SettlementPort {
	if clock == nil {
		clock = time.Now
	}
	return &ledgerSettlementPort{clock: clock, idgen: idgen}
}

func (p *ledgerSettlementPort) CreateEscrow(ctx context.Context, repos RepoSet, tenantID, orderID string, amount float64, templateCode string) (domain.Settlement, error) {
	if amount <= 0 {
		return domain.Settlement{}, fmt.Errorf("%w: escrow amount must be positive", domain.ErrInvalidArgument)
	}
	if _, err := domain.TemplateRules(templateCode); err != nil {
		return domain.Settlement{}, err
	}
	if err := domain.AssertTransition(domain.KindSettlement, string(domain.SettlementCreated), string(domain.SettlementEscrowed)); err != nil {
		return domain.Settlement{}, err
	}
	now := p.clock().UTC()
	settlement := domain.Settlement{
		ID:           p.idgen(),
		TenantID:     tenantID,
		OrderID:      orderID,
		TemplateCode: templateCode,
		EscrowAmount: amount,
		Status:       domain.SettlementEscrowed,
		Milestones:   domain.Milestones{M1: true},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return repos.Settlements.Save(ctx, settlement)
}

func (p *ledgerSettlementPort) Split(ctx context.Context, repos RepoSet, tenantID, settlementID string, totalAmount float64, rules []domain.SplitRule) (domain.Settlement, error) {
	settlement, err := repos.Settlements.Get(ctx, tenantID, settlementID)
	if err != nil {
		return domain.Settlement{}, err
	}
	if settlement.Status != domain.SettlementReleased {
		if err := domain.AssertTransition(domain.KindSettlement, string(settlement.Status), string(domain.SettlementReleased)); err != nil {
			return domain.Settlement{}, err
		}
	}
	now := p.clock().UTC()
	settlement.SplitHistory = append(settlement.SplitHistory, domain.SplitRecord{
		TemplateCode: settlement.TemplateCode,
		TotalAmount:  totalAmount,
		Items:        domain.ComputeSplit(totalAmount, rules),
		ComputedAt:   now,
	})
	settlement.Status = domain.SettlementReleased
	settlement.Milestones.M4 = true
	settlement.Milestones.M5 = true
	settlement.UpdatedAt = now
	return repos.Settlements.Save(ctx, settlement)
}
