package usecase

import (
	"context"

	"ciclo/internal/domain"
)

type ListingRepository interface {
	Get(ctx context.Context, tenantID, id string) (domain.Listing, error)
	Save(ctx context.Context, listing domain.Listing) (domain.Listing, error)
}

type OrderRepository interface {
	Get(ctx context.Context, tenantID, id string) (domain.Order, error)
	Save(ctx context.Context, order domain.Order) (domain.Order, error)
}

type ContractRepository interface {
	Get(ctx context.Context, tenantID, id string) (domain.Contract, error)
	GetByOrder(ctx context.Context, tenantID, orderID string) (domain.Contract, error)
	Save(ctx context.Context, contract domain.Contract) (domain.Contract, error)
}

type SettlementRepository interface {
	Get(ctx context.Context, tenantID, id string) (domain.Settlement, error)
	GetByOrder(ctx context.Context, tenantID, orderID string) (domain.Settlement, error)
	Save(ctx context.Context, settlement domain.Settlement) (domain.Settlement, error)
}

type DisputeRepository interface {
	Get(ctx context.Context, tenantID, id string) (domain.Dispute, error)
	Save(ctx context.Context, dispute domain.Dispute) (domain.Dispute, error)
}

type EvidenceRepository interface {
	Add(ctx context.Context, evidence domain.Evidence) (domain.Evidence, error)
	ListByOrder(ctx context.Context, tenantID, orderID string) ([]domain.Evidence, error)
}

type SupportTicketRepository interface {
	Get(ctx context.Context, tenantID, id string) (domain.SupportTicket, error)
	Save(ctx context.Context, ticket domain.SupportTicket) (domain.SupportTicket, error)
}

type ApprovalRepository interface {
	Get(ctx context.Context, tenantID, id string) (domain.ApprovalRequest, error)
	Save(ctx context.Context, approval domain.ApprovalRequest) (domain.ApprovalRequest, error)
}

// RepoSet bundles the per-tenant entity repositories. Inside Store.Tx the set
// is bound to the transaction.
type RepoSet struct {
	Listings    ListingRepository
	Orders      OrderRepository
	Contracts   ContractRepository
	Settlements SettlementRepository
	Disputes    DisputeRepository
	Evidences   EvidenceRepository
	Tickets     SupportTicketRepository
	Approvals   ApprovalRepository
}

// Store is the tenant-partitioned document store boundary. Tx runs fn inside
// one atomic transaction; all reads and writes through the passed RepoSet
// commit or roll back together.
type Store interface {
	Repos() RepoSet
	Tx(ctx context.Context, fn func(RepoSet) error) error
}

// AuditRepository persists the hash-chained ledger. Append assigns the
// sequence number, prev hash and entry hash atomically; no two entries in the
// same tenant+stream may observe the same last sequence.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error)
	ListRange(ctx context.Context, tenantID, stream string, startSeq, endSeq int64, limit int) ([]domain.AuditEntry, error)
	LastSeq(ctx context.Context, tenantID, stream string) (int64, error)
	ListRecentByOrder(ctx context.Context, tenantID, stream, orderID string, limit int) ([]domain.AuditEntry, error)
}

// SettlementPort abstracts escrow funding and proportional release against
// the money-movement provider.
type SettlementPort interface {
	CreateEscrow(ctx context.Context, repos RepoSet, tenantID, orderID string, amount float64, templateCode string) (domain.Settlement, error)
	Split(ctx context.Context, repos RepoSet, tenantID, settlementID string, totalAmount float64, rules []domain.SplitRule) (domain.Settlement, error)
}
