// Package memstore provides in-memory repositories with the same
// transactional contract as the database store. It backs tests and the no-db
// development mode.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"ciclo/internal/domain"
	"ciclo/internal/usecase"
)

type Store struct {
	mu          sync.Mutex
	listings    map[string]domain.Listing
	orders      map[string]domain.Order
	contracts   map[string]domain.Contract
	settlements map[string]domain.Settlement
	disputes    map[string]domain.Dispute
	evidences   map[string][]domain.Evidence
	tickets     map[string]domain.SupportTicket
	approvals   map[string]domain.ApprovalRequest
}

func New() *Store {
	return &Store{
		listings:    make(map[string]domain.Listing),
		orders:      make(map[string]domain.Order),
		contracts:   make(map[string]domain.Contract),
		settlements: make(map[string]domain.Settlement),
		disputes:    make(map[string]domain.Dispute),
		evidences:   make(map[string][]domain.Evidence),
		tickets:     make(map[string]domain.SupportTicket),
		approvals:   make(map[string]domain.ApprovalRequest),
	}
}

func key(tenantID, id string) string {
	return tenantID + "/" + id
}

func (s *Store) Repos() usecase.RepoSet {
	return s.repoSet(true)
}

// Tx runs fn under the store lock against a snapshot-backed repo set; on
// error every write is rolled back.
func (s *Store) Tx(ctx context.Context, fn func(usecase.RepoSet) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.clone()
	if err := fn(s.repoSet(false)); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *Store) repoSet(locked bool) usecase.RepoSet {
	return usecase.RepoSet{
		Listings:    &listingRepo{s: s, lock: locked},
		Orders:      &orderRepo{s: s, lock: locked},
		Contracts:   &contractRepo{s: s, lock: locked},
		Settlements: &settlementRepo{s: s, lock: locked},
		Disputes:    &disputeRepo{s: s, lock: locked},
		Evidences:   &evidenceRepo{s: s, lock: locked},
		Tickets:     &ticketRepo{s: s, lock: locked},
		Approvals:   &approvalRepo{s: s, lock: locked},
	}
}

func (s *Store) clone() *Store {
	out := New()
	for k, v := range s.listings {
		out.listings[k] = v
	}
	for k, v := range s.orders {
		out.orders[k] = v
	}
	for k, v := range s.contracts {
		out.contracts[k] = v
	}
	for k, v := range s.settlements {
		out.settlements[k] = v
	}
	for k, v := range s.disputes {
		out.disputes[k] = v
	}
	for k, v := range s.evidences {
		list := make([]domain.Evidence, len(v))
		copy(list, v)
		out.evidences[k] = list
	}
	for k, v := range s.tickets {
		out.tickets[k] = v
	}
	for k, v := range s.approvals {
		out.approvals[k] = v
	}
	return out
}

func (s *Store) restore(snapshot *Store) {
	s.listings = snapshot.listings
	s.orders = snapshot.orders
	s.contracts = snapshot.contracts
	s.settlements = snapshot.settlements
	s.disputes = snapshot.disputes
	s.evidences = snapshot.evidences
	s.tickets = snapshot.tickets
	s.approvals = snapshot.approvals
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
}

type listingRepo struct {
	s    *Store
	lock bool
}

func (r *listingRepo) Get(ctx context.Context, tenantID, id string) (domain.Listing, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	listing, ok := r.s.listings[key(tenantID, id)]
	if !ok {
		return domain.Listing{}, notFound("listing", id)
	}
	return listing, nil
}

func (r *listingRepo) Save(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	r.s.listings[key(listing.TenantID, listing.ID)] = listing
	return listing, nil
}

type orderRepo struct {
	s    *Store
	lock bool
}

func (r *orderRepo) Get(ctx context.Context, tenantID, id string) (domain.Order, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	order, ok := r.s.orders[key(tenantID, id)]
	if !ok {
		return domain.Order{}, notFound("order", id)
	}
	return order, nil
}

func (r *orderRepo) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	r.s.orders[key(order.TenantID, order.ID)] = order
	return order, nil
}

type contractRepo struct {
	s    *Store
	lock bool
}

func (r *contractRepo) Get(ctx context.Context, tenantID, id string) (domain.Contract, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	contract, ok := r.s.contracts[key(tenantID, id)]
	if !ok {
		return domain.Contract{}, notFound("contract", id)
	}
	return cloneContract(contract), nil
}

func (r *contractRepo) GetByOrder(ctx context.Context, tenantID, orderID string) (domain.Contract, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	for _, contract := range r.s.contracts {
		if contract.TenantID == tenantID && contract.OrderID == orderID {
			return cloneContract(contract), nil
		}
	}
	return domain.Contract{}, notFound("contract for order", orderID)
}

func (r *contractRepo) Save(ctx context.Context, contract domain.Contract) (domain.Contract, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	r.s.contracts[key(contract.TenantID, contract.ID)] = cloneContract(contract)
	return contract, nil
}

func cloneContract(contract domain.Contract) domain.Contract {
	out := contract
	out.SignedBy = append([]string(nil), contract.SignedBy...)
	return out
}

type settlementRepo struct {
	s    *Store
	lock bool
}

func (r *settlementRepo) Get(ctx context.Context, tenantID, id string) (domain.Settlement, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	settlement, ok := r.s.settlements[key(tenantID, id)]
	if !ok {
		return domain.Settlement{}, notFound("settlement", id)
	}
	return cloneSettlement(settlement), nil
}

func (r *settlementRepo) GetByOrder(ctx context.Context, tenantID, orderID string) (domain.Settlement, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	for _, settlement := range r.s.settlements {
		if settlement.TenantID == tenantID && settlement.OrderID == orderID {
			return cloneSettlement(settlement), nil
		}
	}
	return domain.Settlement{}, notFound("settlement for order", orderID)
}

func (r *settlementRepo) Save(ctx context.Context, settlement domain.Settlement) (domain.Settlement, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	r.s.settlements[key(settlement.TenantID, settlement.ID)] = cloneSettlement(settlement)
	return settlement, nil
}

func cloneSettlement(settlement domain.Settlement) domain.Settlement {
	out := settlement
	out.Releases = append([]domain.Release(nil), settlement.Releases...)
	out.SplitHistory = append([]domain.SplitRecord(nil), settlement.SplitHistory...)
	return out
}

type disputeRepo struct {
	s    *Store
	lock bool
}

func (r *disputeRepo) Get(ctx context.Context, tenantID, id string) (domain.Dispute, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	dispute, ok := r.s.disputes[key(tenantID, id)]
	if !ok {
		return domain.Dispute{}, notFound("dispute", id)
	}
	return dispute, nil
}

func (r *disputeRepo) Save(ctx context.Context, dispute domain.Dispute) (domain.Dispute, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	r.s.disputes[key(dispute.TenantID, dispute.ID)] = dispute
	return dispute, nil
}

type evidenceRepo struct {
	s    *Store
	lock bool
}

func (r *evidenceRepo) Add(ctx context.Context, evidence domain.Evidence) (domain.Evidence, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	k := key(evidence.TenantID, evidence.OrderID)
	r.s.evidences[k] = append(r.s.evidences[k], evidence)
	return evidence, nil
}

func (r *evidenceRepo) ListByOrder(ctx context.Context, tenantID, orderID string) ([]domain.Evidence, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	list := r.s.evidences[key(tenantID, orderID)]
	out := make([]domain.Evidence, len(list))
	copy(out, list)
	return out, nil
}

type ticketRepo struct {
	s    *Store
	lock bool
}

func (r *ticketRepo) Get(ctx context.Context, tenantID, id string) (domain.SupportTicket, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	ticket, ok := r.s.tickets[key(tenantID, id)]
	if !ok {
		return domain.SupportTicket{}, notFound("support ticket", id)
	}
	return ticket, nil
}

func (r *ticketRepo) Save(ctx context.Context, ticket domain.SupportTicket) (domain.SupportTicket, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	r.s.tickets[key(ticket.TenantID, ticket.ID)] = ticket
	return ticket, nil
}

type approvalRepo struct {
	s    *Store
	lock bool
}

func (r *approvalRepo) Get(ctx context.Context, tenantID, id string) (domain.ApprovalRequest, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	approval, ok := r.s.approvals[key(tenantID, id)]
	if !ok {
		return domain.ApprovalRequest{}, notFound("approval request", id)
	}
	return approval, nil
}

func (r *approvalRepo) Save(ctx context.Context, approval domain.ApprovalRequest) (domain.ApprovalRequest, error) {
	if r.lock {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	r.s.approvals[key(approval.TenantID, approval.ID)] = approval
	return approval, nil
}
