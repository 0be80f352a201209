package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ciclo/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
	}
	return err
}

func withLock(q *gorm.DB, locking bool) *gorm.DB {
	if !locking {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

type listingRepo struct {
	db      *gorm.DB
	locking bool
}

func (r *listingRepo) Get(ctx context.Context, tenantID, id string) (domain.Listing, error) {
	var model ListingModel
	err := withLock(r.db.WithContext(ctx), r.locking).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&model).Error
	if err != nil {
		return domain.Listing{}, notFound(err, "listing", id)
	}
	return listingFromModel(model), nil
}

func (r *listingRepo) Save(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	model := listingToModel(listing)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
	return listing, err
}

func listingToModel(listing domain.Listing) ListingModel {
	return ListingModel{
		ID:                listing.ID,
		TenantID:          listing.TenantID,
		Category:          string(listing.Category),
		Mode:              string(listing.Mode),
		Product:           listing.Product,
		AvailableQuantity: listing.AvailableQuantity,
		UnitPrice:         listing.UnitPrice,
		Status:            string(listing.Status),
		Domain:            listing.Domain,
		Channel:           listing.Channel,
		CreatedBy:         listing.CreatedBy,
		CreatedAt:         listing.CreatedAt,
		UpdatedAt:         listing.UpdatedAt,
	}
}

func listingFromModel(model ListingModel) domain.Listing {
	return domain.Listing{
		ID:                model.ID,
		TenantID:          model.TenantID,
		Category:          domain.ListingCategory(model.Category),
		Mode:              domain.ListingMode(model.Mode),
		Product:           model.Product,
		AvailableQuantity: model.AvailableQuantity,
		UnitPrice:         model.UnitPrice,
		Status:            domain.ListingStatus(model.Status),
		Domain:            model.Domain,
		Channel:           model.Channel,
		CreatedBy:         model.CreatedBy,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

type orderRepo struct {
	db      *gorm.DB
	locking bool
}

func (r *orderRepo) Get(ctx context.Context, tenantID, id string) (domain.Order, error) {
	var model OrderModel
	err := withLock(r.db.WithContext(ctx), r.locking).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&model).Error
	if err != nil {
		return domain.Order{}, notFound(err, "order", id)
	}
	return orderFromModel(model), nil
}

func (r *orderRepo) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	model := OrderModel{
		ID:           order.ID,
		TenantID:     order.TenantID,
		ListingID:    order.ListingID,
		Buyer:        order.Buyer,
		Quantity:     order.Quantity,
		UnitPrice:    order.UnitPrice,
		TotalAmount:  order.TotalAmount,
		Status:       string(order.Status),
		SettlementID: order.SettlementID,
		Domain:       order.Domain,
		Channel:      order.Channel,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
	return order, err
}

func orderFromModel(model OrderModel) domain.Order {
	return domain.Order{
		ID:           model.ID,
		TenantID:     model.TenantID,
		ListingID:    model.ListingID,
		Buyer:        model.Buyer,
		Quantity:     model.Quantity,
		UnitPrice:    model.UnitPrice,
		TotalAmount:  model.TotalAmount,
		Status:       domain.OrderStatus(model.Status),
		SettlementID: model.SettlementID,
		Domain:       model.Domain,
		Channel:      model.Channel,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

type contractRepo struct {
	db *gorm.DB
}

func (r *contractRepo) Get(ctx context.Context, tenantID, id string) (domain.Contract, error) {
	var model ContractModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&model).Error
	if err != nil {
		return domain.Contract{}, notFound(err, "contract", id)
	}
	return contractFromModel(model)
}

func (r *contractRepo) GetByOrder(ctx context.Context, tenantID, orderID string) (domain.Contract, error) {
	var model ContractModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Take(&model).Error
	if err != nil {
		return domain.Contract{}, notFound(err, "contract for order", orderID)
	}
	return contractFromModel(model)
}

func (r *contractRepo) Save(ctx context.Context, contract domain.Contract) (domain.Contract, error) {
	signedBy, err := json.Marshal(contract.SignedBy)
	if err != nil {
		return domain.Contract{}, err
	}
	model := ContractModel{
		ID:        contract.ID,
		TenantID:  contract.TenantID,
		OrderID:   contract.OrderID,
		Status:    string(contract.Status),
		Terms:     contract.Terms,
		SignedBy:  signedBy,
		CreatedAt: contract.CreatedAt,
		UpdatedAt: contract.UpdatedAt,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
	return contract, err
}

func contractFromModel(model ContractModel) (domain.Contract, error) {
	contract := domain.Contract{
		ID:        model.ID,
		TenantID:  model.TenantID,
		OrderID:   model.OrderID,
		Status:    domain.ContractStatus(model.Status),
		Terms:     model.Terms,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if len(model.SignedBy) > 0 {
		if err := json.Unmarshal(model.SignedBy, &contract.SignedBy); err != nil {
			return domain.Contract{}, err
		}
	}
	return contract, nil
}

type settlementRepo struct {
	db      *gorm.DB
	locking bool
}

func (r *settlementRepo) Get(ctx context.Context, tenantID, id string) (domain.Settlement, error) {
	var model SettlementModel
	err := withLock(r.db.WithContext(ctx), r.locking).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&model).Error
	if err != nil {
		return domain.Settlement{}, notFound(err, "settlement", id)
	}
	return settlementFromModel(model)
}

func (r *settlementRepo) GetByOrder(ctx context.Context, tenantID, orderID string) (domain.Settlement, error) {
	var model SettlementModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Take(&model).Error
	if err != nil {
		return domain.Settlement{}, notFound(err, "settlement for order", orderID)
	}
	return settlementFromModel(model)
}

func (r *settlementRepo) Save(ctx context.Context, settlement domain.Settlement) (domain.Settlement, error) {
	milestones, err := json.Marshal(settlement.Milestones)
	if err != nil {
		return domain.Settlement{}, err
	}
	releases, err := json.Marshal(settlement.Releases)
	if err != nil {
		return domain.Settlement{}, err
	}
	history, err := json.Marshal(settlement.SplitHistory)
	if err != nil {
		return domain.Settlement{}, err
	}
	model := SettlementModel{
		ID:           settlement.ID,
		TenantID:     settlement.TenantID,
		OrderID:      settlement.OrderID,
		TemplateCode: settlement.TemplateCode,
		EscrowAmount: settlement.EscrowAmount,
		Status:       string(settlement.Status),
		Milestones:   milestones,
		Releases:     releases,
		SplitHistory: history,
		CreatedAt:    settlement.CreatedAt,
		UpdatedAt:    settlement.UpdatedAt,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
	return settlement, err
}

func settlementFromModel(model SettlementModel) (domain.Settlement, error) {
	settlement := domain.Settlement{
		ID:           model.ID,
		TenantID:     model.TenantID,
		OrderID:      model.OrderID,
		TemplateCode: model.TemplateCode,
		EscrowAmount: model.EscrowAmount,
		Status:       domain.SettlementStatus(model.Status),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
	if len(model.Milestones) > 0 {
		if err := json.Unmarshal(model.Milestones, &settlement.Milestones); err != nil {
			return domain.Settlement{}, err
		}
	}
	if len(model.Releases) > 0 {
		if err := json.Unmarshal(model.Releases, &settlement.Releases); err != nil {
			return domain.Settlement{}, err
		}
	}
	if len(model.SplitHistory) > 0 {
		if err := json.Unmarshal(model.SplitHistory, &settlement.SplitHistory); err != nil {
			return domain.Settlement{}, err
		}
	}
	return settlement, nil
}

type disputeRepo struct {
	db *gorm.DB
}

func (r *disputeRepo) Get(ctx context.Context, tenantID, id string) (domain.Dispute, error) {
	var model DisputeModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&model).Error
	if err != nil {
		return domain.Dispute{}, notFound(err, "dispute", id)
	}
	return domain.Dispute{
		ID:         model.ID,
		TenantID:   model.TenantID,
		OrderID:    model.OrderID,
		Status:     domain.DisputeStatus(model.Status),
		Reason:     model.Reason,
		Resolution: model.Resolution,
		OpenedBy:   model.OpenedBy,
		ResolvedBy: model.ResolvedBy,
		TicketID:   model.TicketID,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}, nil
}

func (r *disputeRepo) Save(ctx context.Context, dispute domain.Dispute) (domain.Dispute, error) {
	model := DisputeModel{
		ID:         dispute.ID,
		TenantID:   dispute.TenantID,
		OrderID:    dispute.OrderID,
		Status:     string(dispute.Status),
		Reason:     dispute.Reason,
		Resolution: dispute.Resolution,
		OpenedBy:   dispute.OpenedBy,
		ResolvedBy: dispute.ResolvedBy,
		TicketID:   dispute.TicketID,
		CreatedAt:  dispute.CreatedAt,
		UpdatedAt:  dispute.UpdatedAt,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
	return dispute, err
}

type evidenceRepo struct {
	db *gorm.DB
}

func (r *evidenceRepo) Add(ctx context.Context, evidence domain.Evidence) (domain.Evidence, error) {
	gps, err := marshalOptional(evidence.GPS)
	if err != nil {
		return domain.Evidence{}, err
	}
	telemetry, err := marshalOptional(evidence.Telemetry)
	if err != nil {
		return domain.Evidence{}, err
	}
	documents, err := marshalOptional(evidence.Documents)
	if err != nil {
		return domain.Evidence{}, err
	}
	metadata, err := marshalOptional(evidence.Metadata)
	if err != nil {
		return domain.Evidence{}, err
	}
	model := EvidenceModel{
		ID:            evidence.ID,
		TenantID:      evidence.TenantID,
		OrderID:       evidence.OrderID,
		OperationType: string(evidence.OperationType),
		Type:          string(evidence.Type),
		StorageRef:    evidence.StorageRef,
		ContentHash:   evidence.ContentHash,
		GPS:           gps,
		Telemetry:     telemetry,
		Documents:     documents,
		Metadata:      metadata,
		CreatedAt:     evidence.CreatedAt,
	}
	err = r.db.WithContext(ctx).Create(&model).Error
	return evidence, err
}

func (r *evidenceRepo) ListByOrder(ctx context.Context, tenantID, orderID string) ([]domain.Evidence, error) {
	var models []EvidenceModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Evidence, 0, len(models))
	for _, model := range models {
		evidence, err := evidenceFromModel(model)
		if err != nil {
			return nil, err
		}
		out = append(out, evidence)
	}
	return out, nil
}

func evidenceFromModel(model EvidenceModel) (domain.Evidence, error) {
	evidence := domain.Evidence{
		ID:            model.ID,
		TenantID:      model.TenantID,
		OrderID:       model.OrderID,
		OperationType: domain.OperationType(model.OperationType),
		Type:          domain.EvidenceType(model.Type),
		StorageRef:    model.StorageRef,
		ContentHash:   model.ContentHash,
		CreatedAt:     model.CreatedAt,
	}
	if len(model.GPS) > 0 {
		if err := json.Unmarshal(model.GPS, &evidence.GPS); err != nil {
			return domain.Evidence{}, err
		}
	}
	if len(model.Telemetry) > 0 {
		if err := json.Unmarshal(model.Telemetry, &evidence.Telemetry); err != nil {
			return domain.Evidence{}, err
		}
	}
	if len(model.Documents) > 0 {
		if err := json.Unmarshal(model.Documents, &evidence.Documents); err != nil {
			return domain.Evidence{}, err
		}
	}
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &evidence.Metadata); err != nil {
			return domain.Evidence{}, err
		}
	}
	return evidence, nil
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

type ticketRepo struct {
	db *gorm.DB
}

func (r *ticketRepo) Get(ctx context.Context, tenantID, id string) (domain.SupportTicket, error) {
	var model SupportTicketModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&model).Error
	if err != nil {
		return domain.SupportTicket{}, notFound(err, "support ticket", id)
	}
	return domain.SupportTicket{
		ID:        model.ID,
		TenantID:  model.TenantID,
		OrderID:   model.OrderID,
		DisputeID: model.DisputeID,
		Subject:   model.Subject,
		Status:    domain.TicketStatus(model.Status),
		OpenedBy:  model.OpenedBy,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}

func (r *ticketRepo) Save(ctx context.Context, ticket domain.SupportTicket) (domain.SupportTicket, error) {
	model := SupportTicketModel{
		ID:        ticket.ID,
		TenantID:  ticket.TenantID,
		OrderID:   ticket.OrderID,
		DisputeID: ticket.DisputeID,
		Subject:   ticket.Subject,
		Status:    string(ticket.Status),
		OpenedBy:  ticket.OpenedBy,
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
	return ticket, err
}

type approvalRepo struct {
	db *gorm.DB
}

func (r *approvalRepo) Get(ctx context.Context, tenantID, id string) (domain.ApprovalRequest, error) {
	var model ApprovalRequestModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&model).Error
	if err != nil {
		return domain.ApprovalRequest{}, notFound(err, "approval request", id)
	}
	return domain.ApprovalRequest{
		ID:          model.ID,
		TenantID:    model.TenantID,
		TicketID:    model.TicketID,
		Subject:     model.Subject,
		Status:      domain.ApprovalStatus(model.Status),
		RequestedBy: model.RequestedBy,
		DecidedBy:   model.DecidedBy,
		Rationale:   model.Rationale,
		CreatedAt:   model.CreatedAt,
		DecidedAt:   model.DecidedAt,
	}, nil
}

func (r *approvalRepo) Save(ctx context.Context, approval domain.ApprovalRequest) (domain.ApprovalRequest, error) {
	model := ApprovalRequestModel{
		ID:          approval.ID,
		TenantID:    approval.TenantID,
		TicketID:    approval.TicketID,
		Subject:     approval.Subject,
		Status:      string(approval.Status),
		RequestedBy: approval.RequestedBy,
		DecidedBy:   approval.DecidedBy,
		Rationale:   approval.Rationale,
		CreatedAt:   approval.CreatedAt,
		DecidedAt:   approval.DecidedAt,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
	return approval, err
}
