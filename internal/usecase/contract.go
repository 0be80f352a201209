package usecase

import (
	"context"
	"errors"
	"fmt"

	"ciclo/internal/domain"
)

type SignContractInput struct {
	OrderID   string
	Terms     string
	Evidences []domain.Evidence
}

func (k *Kernel) SignContract(ctx context.Context, actor domain.Actor, input SignContractInput) (domain.Contract, error) {
	var out domain.Contract
	payload := map[string]any{"order_id": input.OrderID}
	err := k.execute(ctx, actor, domain.OpSignContract, payload, func(ctx context.Context) error {
		if input.OrderID == "" {
			return fmt.Errorf("%w: order id is required", domain.ErrInvalidArgument)
		}
		if err := ValidateEvidence(domain.PolicyContractBRequired, input.Evidences, EvidenceOptions{}); err != nil {
			return err
		}
		return k.store.Tx(ctx, func(repos RepoSet) error {
			order, err := repos.Orders.Get(ctx, actor.TenantID, input.OrderID)
			if err != nil {
				return err
			}
			if err := domain.AssertTransition(domain.KindOrder, string(order.Status), string(domain.OrderContractPending)); err != nil {
				return err
			}
			contract, err := k.resolveContract(ctx, repos, actor, order, input.Terms)
			if err != nil {
				return err
			}
			if contract.Status != domain.ContractSigned {
				if err := domain.AssertTransition(domain.KindContract, string(contract.Status), string(domain.ContractSigned)); err != nil {
					return err
				}
				contract.Status = domain.ContractSigned
			}
			contract.SignedBy = appendSigner(contract.SignedBy, actor.ID)
			now := k.clock().UTC()
			contract.UpdatedAt = now
			if out, err = repos.Contracts.Save(ctx, contract); err != nil {
				return err
			}
			if err := k.persistEvidences(ctx, repos, actor, order.ID, domain.OpSignContract, input.Evidences); err != nil {
				return err
			}
			order.Status = domain.OrderContractPending
			order.UpdatedAt = now
			_, err = repos.Orders.Save(ctx, order)
			return err
		})
	})
	return out, err
}

func (k *Kernel) resolveContract(ctx context.Context, repos RepoSet, actor domain.Actor, order domain.Order, terms string) (domain.Contract, error) {
	contract, err := repos.Contracts.GetByOrder(ctx, actor.TenantID, order.ID)
	if err == nil {
		return contract, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Contract{}, err
	}
	now := k.clock().UTC()
	return domain.Contract{
		ID:        k.idgen(),
		TenantID:  actor.TenantID,
		OrderID:   order.ID,
		Status:    domain.ContractDraft,
		Terms:     terms,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func appendSigner(signers []string, actorID string) []string {
	for _, signer := range signers {
		if signer == actorID {
			return signers
		}
	}
	return append(signers, actorID)
}

// persistEvidences stores each submitted evidence tagged with the order and
// operation type, computing the evidence hash when none was supplied.
func (k *Kernel) persistEvidences(ctx context.Context, repos RepoSet, actor domain.Actor, orderID string, op domain.OperationType, evidences []domain.Evidence) error {
	for _, evidence := range evidences {
		evidence.ID = k.idgen()
		evidence.TenantID = actor.TenantID
		evidence.OrderID = orderID
		evidence.OperationType = op
		evidence.CreatedAt = k.clock().UTC()
		hash, err := BuildEvidenceHash(evidence)
		if err != nil {
			return err
		}
		evidence.ContentHash = hash
		if _, err := repos.Evidences.Add(ctx, evidence); err != nil {
			return err
		}
	}
	return nil
}
