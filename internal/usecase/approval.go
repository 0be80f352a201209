package usecase

import (
	"context"
	"fmt"

	"ciclo/internal/domain"
)

type RequestApprovalInput struct {
	TicketID string
	Subject  string
}

func (k *Kernel) RequestApproval(ctx context.Context, actor domain.Actor, input RequestApprovalInput) (domain.ApprovalRequest, error) {
	var out domain.ApprovalRequest
	payload := map[string]any{"ticket_id": input.TicketID, "subject": input.Subject}
	err := k.execute(ctx, actor, domain.OpRequestApproval, payload, func(ctx context.Context) error {
		if input.TicketID == "" {
			return fmt.Errorf("%w: ticket id is required", domain.ErrInvalidArgument)
		}
		if input.Subject == "" {
			return fmt.Errorf("%w: subject is required", domain.ErrInvalidArgument)
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			if _, err := repos.Tickets.Get(ctx, actor.TenantID, input.TicketID); err != nil {
				return err
			}
			now := k.clock().UTC()
			approval := domain.ApprovalRequest{
				ID:          k.idgen(),
				TenantID:    actor.TenantID,
				TicketID:    input.TicketID,
				Subject:     input.Subject,
				Status:      domain.ApprovalPending,
				RequestedBy: actor.ID,
				CreatedAt:   now,
			}
			var err error
			out, err = repos.Approvals.Save(ctx, approval)
			return err
		})
	})
	return out, err
}

type DecideApprovalInput struct {
	ApprovalID string
	Approve    bool
	Rationale  string
}

// DecideApproval enforces segregation of duties: the deciding actor must
// differ from the actor who raised the request.
func (k *Kernel) DecideApproval(ctx context.Context, actor domain.Actor, input DecideApprovalInput) (domain.ApprovalRequest, error) {
	var out domain.ApprovalRequest
	payload := map[string]any{"approval_id": input.ApprovalID, "approve": input.Approve}
	err := k.execute(ctx, actor, domain.OpDecideApproval, payload, func(ctx context.Context) error {
		if input.ApprovalID == "" {
			return fmt.Errorf("%w: approval id is required", domain.ErrInvalidArgument)
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			approval, err := repos.Approvals.Get(ctx, actor.TenantID, input.ApprovalID)
			if err != nil {
				return err
			}
			if approval.Status != domain.ApprovalPending {
				return fmt.Errorf("%w: approval %s already decided", domain.ErrFailedPrecondition, approval.ID)
			}
			if approval.RequestedBy == actor.ID {
				return fmt.Errorf("%w: approval must be decided by a different actor", domain.ErrFailedPrecondition)
			}
			now := k.clock().UTC()
			if input.Approve {
				approval.Status = domain.ApprovalApproved
			} else {
				approval.Status = domain.ApprovalRejected
			}
			approval.DecidedBy = actor.ID
			approval.Rationale = input.Rationale
			approval.DecidedAt = &now
			out, err = repos.Approvals.Save(ctx, approval)
			return err
		})
	})
	return out, err
}
