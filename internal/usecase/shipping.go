package usecase

import (
	"context"
	"errors"
	"fmt"

	"ciclo/internal/domain"
)

type ConfirmDispatchInput struct {
	OrderID   string
	Evidences []domain.Evidence
}

func (k *Kernel) ConfirmDispatch(ctx context.Context, actor domain.Actor, input ConfirmDispatchInput) (domain.Order, error) {
	return k.confirmLeg(ctx, actor, domain.OpConfirmDispatch, input.OrderID, input.Evidences, EvidenceOptions{})
}

type ConfirmDeliveryInput struct {
	OrderID              string
	Evidences            []domain.Evidence
	RequireDocumentTypeB bool
}

func (k *Kernel) ConfirmDelivery(ctx context.Context, actor domain.Actor, input ConfirmDeliveryInput) (domain.Order, error) {
	return k.confirmLeg(ctx, actor, domain.OpConfirmDelivery, input.OrderID, input.Evidences,
		EvidenceOptions{RequireDocumentTypeB: input.RequireDocumentTypeB})
}

// confirmLeg validates the operation's evidence policy, persists the
// evidence, and advances the order one hop (ESCROW_CREATED→DISPATCHED or
// DISPATCHED→DELIVERED). Settlement milestones M2/M3 follow.
func (k *Kernel) confirmLeg(ctx context.Context, actor domain.Actor, op domain.OperationType, orderID string, evidences []domain.Evidence, opts EvidenceOptions) (domain.Order, error) {
	var out domain.Order
	payload := map[string]any{"order_id": orderID, "evidence_count": len(evidences)}
	err := k.execute(ctx, actor, op, payload, func(ctx context.Context) error {
		if orderID == "" {
			return fmt.Errorf("%w: order id is required", domain.ErrInvalidArgument)
		}
		spec, _ := domain.LookupOperation(op)
		if err := ValidateEvidence(spec.EvidencePolicy, evidences, opts); err != nil {
			return err
		}
		target := domain.OrderDispatched
		if op == domain.OpConfirmDelivery {
			target = domain.OrderDelivered
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			order, err := repos.Orders.Get(ctx, actor.TenantID, orderID)
			if err != nil {
				return err
			}
			if err := domain.AssertTransition(domain.KindOrder, string(order.Status), string(target)); err != nil {
				return err
			}
			if err := k.persistEvidences(ctx, repos, actor, order.ID, op, evidences); err != nil {
				return err
			}
			now := k.clock().UTC()
			if err := k.markMilestone(ctx, repos, actor.TenantID, order, op); err != nil {
				return err
			}
			order.Status = target
			order.UpdatedAt = now
			out, err = repos.Orders.Save(ctx, order)
			return err
		})
	})
	return out, err
}

func (k *Kernel) markMilestone(ctx context.Context, repos RepoSet, tenantID string, order domain.Order, op domain.OperationType) error {
	settlement, err := repos.Settlements.GetByOrder(ctx, tenantID, order.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	switch op {
	case domain.OpConfirmDispatch:
		settlement.Milestones.M2 = true
	case domain.OpConfirmDelivery:
		settlement.Milestones.M3 = true
	default:
		return nil
	}
	settlement.UpdatedAt = k.clock().UTC()
	_, err = repos.Settlements.Save(ctx, settlement)
	return err
}
