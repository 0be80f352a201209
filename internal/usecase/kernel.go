package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ciclo/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Kernel orchestrates the marketplace transaction lifecycle. Every public
// operation goes through execute: catalog lookup, role authorization, the
// operation handler, then an unconditional ledger append recording success or
// rejection. No operation bypasses this wrapper.
type Kernel struct {
	store  Store
	ledger *Ledger
	port   SettlementPort
	log    zerolog.Logger
	clock  func() time.Time
	idgen  func() string
}

type KernelOptions struct {
	Clock  func() time.Time
	IDGen  func() string
	Logger *zerolog.Logger
	Port   SettlementPort
}

func NewKernel(store Store, ledger *Ledger, opts KernelOptions) *Kernel {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	idgen := opts.IDGen
	if idgen == nil {
		idgen = uuid.NewString
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	port := opts.Port
	if port == nil {
		port = NewSettlementPort(clock, idgen)
	}
	return &Kernel{
		store:  store,
		ledger: ledger,
		port:   port,
		log:    logger,
		clock:  clock,
		idgen:  idgen,
	}
}

var successEventTypes = map[domain.OperationType]string{
	domain.OpPublishListing:  "listing.published",
	domain.OpPauseListing:    "listing.paused",
	domain.OpCloseListing:    "listing.closed",
	domain.OpPlaceOrder:      "order.placed",
	domain.OpReserveStock:    "order.stock_reserved",
	domain.OpSignContract:    "contract.signed",
	domain.OpCreateEscrow:    "escrow.created",
	domain.OpConfirmDispatch: "dispatch.confirmed",
	domain.OpConfirmDelivery: "delivery.confirmed",
	domain.OpReleaseSettle:   "settlement.released",
	domain.OpOpenDispute:     "dispute.opened",
	domain.OpResolveDispute:  "dispute.resolved",
	domain.OpRequestApproval: "approval.requested",
	domain.OpDecideApproval:  "approval.decided",
}

// execute is the authorization/audit wrapper around every operation handler.
func (k *Kernel) execute(ctx context.Context, actor domain.Actor, op domain.OperationType, payload map[string]any, handler func(context.Context) error) error {
	spec, ok := domain.LookupOperation(op)
	if !ok {
		return fmt.Errorf("%w: unknown operation %q", domain.ErrInvalidArgument, op)
	}
	if actor.ID == "" || actor.TenantID == "" {
		return fmt.Errorf("%w: actor identity and tenant are required", domain.ErrUnauthenticated)
	}
	eventType := successEventTypes[op]

	role := domain.NormalizeRole(actor.Role)
	if role == domain.RoleUnmapped || !spec.AllowedRoles[role] {
		k.appendRejected(ctx, actor, op, eventType, payload, "ROLE_DENIED")
		return fmt.Errorf("%w: role %q not allowed for %s", domain.ErrPermissionDenied, actor.Role, op)
	}

	if err := handler(ctx); err != nil {
		k.appendRejected(ctx, actor, op, eventType, payload, sanitizeError(err))
		return err
	}

	entry, err := k.ledger.Append(ctx, actor, AppendInput{
		EventType:     eventType,
		OperationType: op,
		Status:        domain.AuditSuccess,
		Payload:       payload,
	})
	if err != nil {
		k.log.Error().Err(err).Str("tenant", actor.TenantID).Str("operation", string(op)).
			Msg("ledger append failed after handler success")
		return err
	}
	k.log.Info().Str("tenant", actor.TenantID).Str("operation", string(op)).
		Str("status", string(domain.AuditSuccess)).Int64("seq", entry.Seq).Msg("operation executed")
	return nil
}

func (k *Kernel) appendRejected(ctx context.Context, actor domain.Actor, op domain.OperationType, eventType string, payload map[string]any, reason string) {
	rejected := make(map[string]any, len(payload)+1)
	for key, value := range payload {
		rejected[key] = value
	}
	rejected["reason"] = reason
	if _, err := k.ledger.Append(ctx, actor, AppendInput{
		EventType:     eventType,
		OperationType: op,
		Status:        domain.AuditRejected,
		Payload:       rejected,
	}); err != nil {
		k.log.Error().Err(err).Str("tenant", actor.TenantID).Str("operation", string(op)).
			Msg("rejected ledger append failed")
		return
	}
	k.log.Info().Str("tenant", actor.TenantID).Str("operation", string(op)).
		Str("status", string(domain.AuditRejected)).Str("reason", reason).Msg("operation rejected")
}

// sanitizeError keeps business-rule messages and hides anything else. No
// store or stack detail leaves the kernel.
func sanitizeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrFailedPrecondition),
		errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrUnauthenticated):
		return err.Error()
	default:
		return "internal error"
	}
}

// VerifyAudit exposes ledger chain verification.
func (k *Kernel) VerifyAudit(ctx context.Context, tenantID string, opts VerifyOptions) (VerifyResult, error) {
	return k.ledger.VerifyChain(ctx, tenantID, opts)
}

func (k *Kernel) GetListing(ctx context.Context, tenantID, id string) (domain.Listing, error) {
	return k.store.Repos().Listings.Get(ctx, tenantID, id)
}

func (k *Kernel) GetOrder(ctx context.Context, tenantID, id string) (domain.Order, error) {
	return k.store.Repos().Orders.Get(ctx, tenantID, id)
}

func (k *Kernel) GetSettlement(ctx context.Context, tenantID, id string) (domain.Settlement, error) {
	return k.store.Repos().Settlements.Get(ctx, tenantID, id)
}

func (k *Kernel) GetDispute(ctx context.Context, tenantID, id string) (domain.Dispute, error) {
	return k.store.Repos().Disputes.Get(ctx, tenantID, id)
}

func (k *Kernel) ListOrderAudit(ctx context.Context, tenantID, orderID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultVerifyLimit
	}
	return k.ledger.repo.ListRecentByOrder(ctx, tenantID, domain.DefaultStream, orderID, limit)
}
