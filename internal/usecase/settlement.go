package usecase

import (
	"context"
	"errors"
	"fmt"

	"ciclo/internal/domain"
)

type CreateEscrowInput struct {
	OrderID      string
	Amount       float64
	TemplateCode string
}

func (k *Kernel) CreateEscrow(ctx context.Context, actor domain.Actor, input CreateEscrowInput) (domain.Settlement, error) {
	var out domain.Settlement
	payload := map[string]any{
		"order_id": input.OrderID,
		"amount":   input.Amount,
		"template": input.TemplateCode,
	}
	err := k.execute(ctx, actor, domain.OpCreateEscrow, payload, func(ctx context.Context) error {
		if input.OrderID == "" {
			return fmt.Errorf("%w: order id is required", domain.ErrInvalidArgument)
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			order, err := repos.Orders.Get(ctx, actor.TenantID, input.OrderID)
			if err != nil {
				return err
			}
			if err := domain.AssertTransition(domain.KindOrder, string(order.Status), string(domain.OrderEscrowCreated)); err != nil {
				return err
			}
			if _, err := repos.Settlements.GetByOrder(ctx, actor.TenantID, order.ID); err == nil {
				return fmt.Errorf("%w: settlement already exists for order %s", domain.ErrFailedPrecondition, order.ID)
			} else if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			settlement, err := k.port.CreateEscrow(ctx, repos, actor.TenantID, order.ID, input.Amount, input.TemplateCode)
			if err != nil {
				return err
			}
			order.SettlementID = settlement.ID
			order.Status = domain.OrderEscrowCreated
			order.UpdatedAt = k.clock().UTC()
			if _, err := repos.Orders.Save(ctx, order); err != nil {
				return err
			}
			out = settlement
			return nil
		})
	})
	return out, err
}

type ReleaseSettlementInput struct {
	OrderID string
	Partial bool
	Amount  float64
}

// requiredReleaseOps are the prior operations that must have SUCCESS ledger
// entries for the order before any money moves.
var requiredReleaseOps = []domain.OperationType{
	domain.OpPlaceOrder,
	domain.OpReserveStock,
	domain.OpSignContract,
	domain.OpCreateEscrow,
	domain.OpConfirmDispatch,
	domain.OpConfirmDelivery,
}

// ReleaseSettlement is the integrity boundary: release is refused unless the
// recent audit chain verifies, SUCCESS entries exist for every prior step of
// this order, and dispatch and delivery evidence are on record. A partial
// release holds the order at DELIVERED and defers the split; the final
// release computes the split and settles the order.
func (k *Kernel) ReleaseSettlement(ctx context.Context, actor domain.Actor, input ReleaseSettlementInput) (domain.Settlement, error) {
	var out domain.Settlement
	payload := map[string]any{
		"order_id": input.OrderID,
		"partial":  input.Partial,
	}
	err := k.execute(ctx, actor, domain.OpReleaseSettle, payload, func(ctx context.Context) error {
		if input.OrderID == "" {
			return fmt.Errorf("%w: order id is required", domain.ErrInvalidArgument)
		}
		if err := k.releaseGate(ctx, actor.TenantID, input.OrderID); err != nil {
			return err
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			order, err := repos.Orders.Get(ctx, actor.TenantID, input.OrderID)
			if err != nil {
				return err
			}
			settlement, err := repos.Settlements.GetByOrder(ctx, actor.TenantID, order.ID)
			if err != nil {
				return err
			}
			if input.Partial {
				out, err = k.partialRelease(ctx, repos, actor, order, settlement, input.Amount)
				return err
			}
			out, err = k.finalRelease(ctx, repos, actor, order, settlement)
			return err
		})
	})
	return out, err
}

func (k *Kernel) partialRelease(ctx context.Context, repos RepoSet, actor domain.Actor, order domain.Order, settlement domain.Settlement, amount float64) (domain.Settlement, error) {
	if order.Status != domain.OrderDelivered {
		return domain.Settlement{}, fmt.Errorf("%w: order %s is not delivered", domain.ErrFailedPrecondition, order.ID)
	}
	if amount <= 0 || amount >= settlement.EscrowAmount {
		return domain.Settlement{}, fmt.Errorf("%w: partial amount must be positive and below the escrow amount", domain.ErrInvalidArgument)
	}
	if err := domain.AssertTransition(domain.KindSettlement, string(settlement.Status), string(domain.SettlementPartialReleased)); err != nil {
		return domain.Settlement{}, err
	}
	now := k.clock().UTC()
	settlement.Status = domain.SettlementPartialReleased
	settlement.Releases = append(settlement.Releases, domain.Release{
		Amount:     domain.Round2(amount),
		Partial:    true,
		ReleasedAt: now,
		ReleasedBy: actor.ID,
	})
	settlement.UpdatedAt = now
	return repos.Settlements.Save(ctx, settlement)
}

func (k *Kernel) finalRelease(ctx context.Context, repos RepoSet, actor domain.Actor, order domain.Order, settlement domain.Settlement) (domain.Settlement, error) {
	if err := domain.AssertTransition(domain.KindOrder, string(order.Status), string(domain.OrderSettled)); err != nil {
		return domain.Settlement{}, err
	}
	if settlement.Status != domain.SettlementEscrowed && settlement.Status != domain.SettlementPartialReleased {
		return domain.Settlement{}, fmt.Errorf("%w: settlement %s cannot be released from %s",
			domain.ErrFailedPrecondition, settlement.ID, settlement.Status)
	}
	rules, err := domain.TemplateRules(settlement.TemplateCode)
	if err != nil {
		return domain.Settlement{}, err
	}
	released, err := k.port.Split(ctx, repos, actor.TenantID, settlement.ID, settlement.EscrowAmount, rules)
	if err != nil {
		return domain.Settlement{}, err
	}
	// The final record covers whatever escrow is left after prior partials.
	remaining := released.EscrowAmount
	for _, r := range released.Releases {
		remaining -= r.Amount
	}
	now := k.clock().UTC()
	released.Releases = append(released.Releases, domain.Release{
		Amount:     domain.Round2(remaining),
		ReleasedAt: now,
		ReleasedBy: actor.ID,
	})
	released.UpdatedAt = now
	if released, err = repos.Settlements.Save(ctx, released); err != nil {
		return domain.Settlement{}, err
	}
	order.Status = domain.OrderSettled
	order.UpdatedAt = now
	if _, err := repos.Orders.Save(ctx, order); err != nil {
		return domain.Settlement{}, err
	}
	return released, nil
}

// releaseGate cross-checks chain integrity, required audit events and
// required evidence before money moves.
func (k *Kernel) releaseGate(ctx context.Context, tenantID, orderID string) error {
	lastSeq, err := k.ledger.repo.LastSeq(ctx, tenantID, domain.DefaultStream)
	if err != nil {
		return err
	}
	start := int64(1)
	if lastSeq > defaultVerifyLimit {
		start = lastSeq - defaultVerifyLimit + 1
	}
	result, err := k.ledger.VerifyChain(ctx, tenantID, VerifyOptions{StartSeq: start})
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%w: audit chain broken at sequence %d", domain.ErrFailedPrecondition, result.FirstBrokenSeq)
	}

	entries, err := k.ledger.repo.ListRecentByOrder(ctx, tenantID, domain.DefaultStream, orderID, defaultVerifyLimit)
	if err != nil {
		return err
	}
	seen := make(map[domain.OperationType]bool, len(entries))
	for _, entry := range entries {
		if entry.Status == domain.AuditSuccess {
			seen[entry.OperationType] = true
		}
	}
	for _, op := range requiredReleaseOps {
		if !seen[op] {
			return fmt.Errorf("%w: release blocked: missing SUCCESS audit event for %s", domain.ErrFailedPrecondition, op)
		}
	}

	evidences, err := k.store.Repos().Evidences.ListByOrder(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	var hasDispatch, hasDelivery bool
	for _, evidence := range evidences {
		switch evidence.OperationType {
		case domain.OpConfirmDispatch:
			hasDispatch = true
		case domain.OpConfirmDelivery:
			hasDelivery = true
		}
	}
	if !hasDispatch {
		return fmt.Errorf("%w: release blocked: no dispatch evidence on record", domain.ErrFailedPrecondition)
	}
	if !hasDelivery {
		return fmt.Errorf("%w: release blocked: no delivery evidence on record", domain.ErrFailedPrecondition)
	}
	return nil
}
