package usecase

import (
	"context"
	"fmt"

	"ciclo/internal/domain"
)

type OpenDisputeInput struct {
	OrderID string
	Reason  string
}

// OpenDispute opens a dispute against an order together with its linked
// support ticket.
func (k *Kernel) OpenDispute(ctx context.Context, actor domain.Actor, input OpenDisputeInput) (domain.Dispute, error) {
	var out domain.Dispute
	payload := map[string]any{"order_id": input.OrderID, "reason": input.Reason}
	err := k.execute(ctx, actor, domain.OpOpenDispute, payload, func(ctx context.Context) error {
		if input.OrderID == "" {
			return fmt.Errorf("%w: order id is required", domain.ErrInvalidArgument)
		}
		if input.Reason == "" {
			return fmt.Errorf("%w: dispute reason is required", domain.ErrInvalidArgument)
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			order, err := repos.Orders.Get(ctx, actor.TenantID, input.OrderID)
			if err != nil {
				return err
			}
			now := k.clock().UTC()
			ticket := domain.SupportTicket{
				ID:        k.idgen(),
				TenantID:  actor.TenantID,
				OrderID:   order.ID,
				Subject:   "dispute: " + input.Reason,
				Status:    domain.TicketOpen,
				OpenedBy:  actor.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			dispute := domain.Dispute{
				ID:        k.idgen(),
				TenantID:  actor.TenantID,
				OrderID:   order.ID,
				Status:    domain.DisputeOpen,
				Reason:    input.Reason,
				OpenedBy:  actor.ID,
				TicketID:  ticket.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			ticket.DisputeID = dispute.ID
			if _, err := repos.Tickets.Save(ctx, ticket); err != nil {
				return err
			}
			out, err = repos.Disputes.Save(ctx, dispute)
			return err
		})
	})
	return out, err
}

type ResolveDisputeInput struct {
	DisputeID  string
	Resolution string
	Rejected   bool
}

// ResolveDispute records the immutable decision. The resolving actor must
// differ from both the dispute opener and the order's buyer.
func (k *Kernel) ResolveDispute(ctx context.Context, actor domain.Actor, input ResolveDisputeInput) (domain.Dispute, error) {
	var out domain.Dispute
	payload := map[string]any{"dispute_id": input.DisputeID, "rejected": input.Rejected}
	err := k.execute(ctx, actor, domain.OpResolveDispute, payload, func(ctx context.Context) error {
		if input.DisputeID == "" {
			return fmt.Errorf("%w: dispute id is required", domain.ErrInvalidArgument)
		}
		if input.Resolution == "" {
			return fmt.Errorf("%w: resolution is required", domain.ErrInvalidArgument)
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			dispute, err := repos.Disputes.Get(ctx, actor.TenantID, input.DisputeID)
			if err != nil {
				return err
			}
			order, err := repos.Orders.Get(ctx, actor.TenantID, dispute.OrderID)
			if err != nil {
				return err
			}
			if actor.ID == dispute.OpenedBy || actor.ID == order.Buyer {
				return fmt.Errorf("%w: dispute must be resolved by an uninvolved actor", domain.ErrFailedPrecondition)
			}
			target := domain.DisputeResolved
			if input.Rejected {
				target = domain.DisputeRejected
			}
			// A resolution from OPEN passes through IN_REVIEW; each hop is
			// validated against the graph.
			if dispute.Status == domain.DisputeOpen && target == domain.DisputeResolved {
				if err := domain.AssertTransition(domain.KindDispute, string(dispute.Status), string(domain.DisputeInReview)); err != nil {
					return err
				}
				dispute.Status = domain.DisputeInReview
			}
			if err := domain.AssertTransition(domain.KindDispute, string(dispute.Status), string(target)); err != nil {
				return err
			}
			now := k.clock().UTC()
			dispute.Status = target
			dispute.Resolution = input.Resolution
			dispute.ResolvedBy = actor.ID
			dispute.UpdatedAt = now
			if out, err = repos.Disputes.Save(ctx, dispute); err != nil {
				return err
			}
			if dispute.TicketID != "" {
				ticket, err := repos.Tickets.Get(ctx, actor.TenantID, dispute.TicketID)
				if err != nil {
					return err
				}
				ticket.Status = domain.TicketClosed
				ticket.UpdatedAt = now
				if _, err := repos.Tickets.Save(ctx, ticket); err != nil {
					return err
				}
			}
			return nil
		})
	})
	return out, err
}
