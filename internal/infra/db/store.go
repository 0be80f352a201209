package db

import (
	"context"
	"errors"
	"fmt"

	"ciclo/internal/config"
	"ciclo/internal/usecase"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var errDBUnavailable = errors.New("db unavailable")

// Store binds the entity repositories to a gorm connection. Tx hands callers
// a repo set bound to one database transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(cfg config.Config) (*Store, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{db: gdb}, nil
}

func NewStoreWithDB(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func (s *Store) AutoMigrate() error {
	if s == nil || s.db == nil {
		return errDBUnavailable
	}
	return s.db.AutoMigrate(
		&ListingModel{},
		&OrderModel{},
		&ContractModel{},
		&SettlementModel{},
		&DisputeModel{},
		&EvidenceModel{},
		&SupportTicketModel{},
		&ApprovalRequestModel{},
		&AuditEntryModel{},
		&StreamSeqModel{},
	)
}

// DB exposes the raw connection for components that manage their own
// transactions, such as the audit repository.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Repos() usecase.RepoSet {
	return repoSet(s.db, false)
}

func (s *Store) Tx(ctx context.Context, fn func(usecase.RepoSet) error) error {
	if s == nil || s.db == nil {
		return errDBUnavailable
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repoSet(tx, true))
	})
}

// repoSet binds the repositories to a connection. Row locks on reads are
// taken only inside a transaction; FOR UPDATE outside one holds nothing.
func repoSet(gdb *gorm.DB, locking bool) usecase.RepoSet {
	return usecase.RepoSet{
		Listings:    &listingRepo{db: gdb, locking: locking},
		Orders:      &orderRepo{db: gdb, locking: locking},
		Contracts:   &contractRepo{db: gdb},
		Settlements: &settlementRepo{db: gdb, locking: locking},
		Disputes:    &disputeRepo{db: gdb},
		Evidences:   &evidenceRepo{db: gdb},
		Tickets:     &ticketRepo{db: gdb},
		Approvals:   &approvalRepo{db: gdb},
	}
}
