package http

import (
	"time"

	"ciclo/internal/domain"
)

type ListingResponse struct {
	ID                string  `json:"id"`
	Category          string  `json:"category"`
	Mode              string  `json:"mode"`
	Product           string  `json:"product"`
	AvailableQuantity float64 `json:"available_quantity"`
	UnitPrice         float64 `json:"unit_price"`
	Status            string  `json:"status"`
	Domain            string  `json:"domain,omitempty"`
	Channel           string  `json:"channel,omitempty"`
	CreatedBy         string  `json:"created_by"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func ToListingResponse(l domain.Listing) ListingResponse {
	return ListingResponse{
		ID:                l.ID,
		Category:          string(l.Category),
		Mode:              string(l.Mode),
		Product:           l.Product,
		AvailableQuantity: l.AvailableQuantity,
		UnitPrice:         l.UnitPrice,
		Status:            string(l.Status),
		Domain:            l.Domain,
		Channel:           l.Channel,
		CreatedBy:         l.CreatedBy,
		CreatedAt:         formatTime(l.CreatedAt),
		UpdatedAt:         formatTime(l.UpdatedAt),
	}
}

type OrderResponse struct {
	ID           string  `json:"id"`
	ListingID    string  `json:"listing_id"`
	Buyer        string  `json:"buyer"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalAmount  float64 `json:"total_amount"`
	Status       string  `json:"status"`
	SettlementID string  `json:"settlement_id,omitempty"`
	Domain       string  `json:"domain,omitempty"`
	Channel      string  `json:"channel,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func ToOrderResponse(o domain.Order) OrderResponse {
	return OrderResponse{
		ID:           o.ID,
		ListingID:    o.ListingID,
		Buyer:        o.Buyer,
		Quantity:     o.Quantity,
		UnitPrice:    o.UnitPrice,
		TotalAmount:  o.TotalAmount,
		Status:       string(o.Status),
		SettlementID: o.SettlementID,
		Domain:       o.Domain,
		Channel:      o.Channel,
		CreatedAt:    formatTime(o.CreatedAt),
		UpdatedAt:    formatTime(o.UpdatedAt),
	}
}

type ContractResponse struct {
	ID        string   `json:"id"`
	OrderID   string   `json:"order_id"`
	Status    string   `json:"status"`
	Terms     string   `json:"terms,omitempty"`
	SignedBy  []string `json:"signed_by"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func ToContractResponse(c domain.Contract) ContractResponse {
	return ContractResponse{
		ID:        c.ID,
		OrderID:   c.OrderID,
		Status:    string(c.Status),
		Terms:     c.Terms,
		SignedBy:  c.SignedBy,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

type SettlementResponse struct {
	ID           string               `json:"id"`
	OrderID      string               `json:"order_id"`
	TemplateCode string               `json:"template_code"`
	EscrowAmount float64              `json:"escrow_amount"`
	Status       string               `json:"status"`
	Milestones   domain.Milestones    `json:"milestones"`
	Releases     []domain.Release     `json:"releases,omitempty"`
	SplitHistory []domain.SplitRecord `json:"split_history,omitempty"`
	CreatedAt    string               `json:"created_at"`
	UpdatedAt    string               `json:"updated_at"`
}

func ToSettlementResponse(s domain.Settlement) SettlementResponse {
	return SettlementResponse{
		ID:           s.ID,
		OrderID:      s.OrderID,
		TemplateCode: s.TemplateCode,
		EscrowAmount: s.EscrowAmount,
		Status:       string(s.Status),
		Milestones:   s.Milestones,
		Releases:     s.Releases,
		SplitHistory: s.SplitHistory,
		CreatedAt:    formatTime(s.CreatedAt),
		UpdatedAt:    formatTime(s.UpdatedAt),
	}
}

type DisputeResponse struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
	Resolution string `json:"resolution,omitempty"`
	OpenedBy   string `json:"opened_by"`
	ResolvedBy string `json:"resolved_by,omitempty"`
	TicketID   string `json:"ticket_id,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func ToDisputeResponse(d domain.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:         d.ID,
		OrderID:    d.OrderID,
		Status:     string(d.Status),
		Reason:     d.Reason,
		Resolution: d.Resolution,
		OpenedBy:   d.OpenedBy,
		ResolvedBy: d.ResolvedBy,
		TicketID:   d.TicketID,
		CreatedAt:  formatTime(d.CreatedAt),
		UpdatedAt:  formatTime(d.UpdatedAt),
	}
}

type ApprovalResponse struct {
	ID          string `json:"id"`
	TicketID    string `json:"ticket_id"`
	Subject     string `json:"subject"`
	Status      string `json:"status"`
	RequestedBy string `json:"requested_by"`
	DecidedBy   string `json:"decided_by,omitempty"`
	Rationale   string `json:"rationale,omitempty"`
	CreatedAt   string `json:"created_at"`
	DecidedAt   string `json:"decided_at,omitempty"`
}

func ToApprovalResponse(a domain.ApprovalRequest) ApprovalResponse {
	resp := ApprovalResponse{
		ID:          a.ID,
		TicketID:    a.TicketID,
		Subject:     a.Subject,
		Status:      string(a.Status),
		RequestedBy: a.RequestedBy,
		DecidedBy:   a.DecidedBy,
		Rationale:   a.Rationale,
		CreatedAt:   formatTime(a.CreatedAt),
	}
	if a.DecidedAt != nil {
		resp.DecidedAt = formatTime(*a.DecidedAt)
	}
	return resp
}

type AuditEntryResponse struct {
	Seq           int64          `json:"seq"`
	Stream        string         `json:"stream"`
	EventType     string         `json:"event_type"`
	OperationType string         `json:"operation_type"`
	Status        string         `json:"status"`
	ActorID       string         `json:"actor_id"`
	ActorRole     string         `json:"actor_role"`
	Payload       map[string]any `json:"payload"`
	PrevHash      string         `json:"prev_hash"`
	Hash          string         `json:"hash"`
	CreatedAt     string         `json:"created_at"`
}

func ToAuditEntryResponse(e domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		Seq:           e.Seq,
		Stream:        e.Stream,
		EventType:     e.EventType,
		OperationType: string(e.OperationType),
		Status:        string(e.Status),
		ActorID:       e.ActorID,
		ActorRole:     e.ActorRole,
		Payload:       e.Payload,
		PrevHash:      e.PrevHash,
		Hash:          e.Hash,
		CreatedAt:     formatTime(e.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
