package domain

import "time"

type ListingCategory string

const (
	CategoryOutputsProducer ListingCategory = "OUTPUTS_PRODUCER"
	CategoryInputsIndustry  ListingCategory = "INPUTS_INDUSTRY"
	CategoryAuctionP2P      ListingCategory = "AUCTION_P2P"
)

type ListingMode string

const (
	ModeFixedPrice ListingMode = "FIXED_PRICE"
	ModeAuction    ListingMode = "AUCTION"
)

type ListingStatus string

const (
	ListingDraft     ListingStatus = "DRAFT"
	ListingPublished ListingStatus = "PUBLISHED"
	ListingPaused    ListingStatus = "PAUSED"
	ListingClosed    ListingStatus = "CLOSED"
)

type Listing struct {
	ID                string
	TenantID          string
	Category          ListingCategory
	Mode              ListingMode
	Product           string
	AvailableQuantity float64
	UnitPrice         float64
	Status            ListingStatus
	Domain            string
	Channel           string
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type OrderStatus string

const (
	OrderCreated         OrderStatus = "CREATED"
	OrderReserved        OrderStatus = "RESERVED"
	OrderContractPending OrderStatus = "CONTRACT_PENDING"
	OrderEscrowCreated   OrderStatus = "ESCROW_CREATED"
	OrderDispatched      OrderStatus = "DISPATCHED"
	OrderDelivered       OrderStatus = "DELIVERED"
	OrderSettled         OrderStatus = "SETTLED"
	OrderClosed          OrderStatus = "CLOSED"
)

type Order struct {
	ID           string
	TenantID     string
	ListingID    string
	Buyer        string
	Quantity     float64
	UnitPrice    float64
	TotalAmount  float64
	Status       OrderStatus
	SettlementID string
	Domain       string
	Channel      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ContractStatus string

const (
	ContractDraft      ContractStatus = "DRAFT"
	ContractSigned     ContractStatus = "SIGNED"
	ContractActive     ContractStatus = "ACTIVE"
	ContractCompleted  ContractStatus = "COMPLETED"
	ContractTerminated ContractStatus = "TERMINATED"
)

type Contract struct {
	ID        string
	TenantID  string
	OrderID   string
	Status    ContractStatus
	Terms     string
	SignedBy  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SettlementStatus string

const (
	SettlementCreated         SettlementStatus = "CREATED"
	SettlementEscrowed        SettlementStatus = "ESCROWED"
	SettlementPartialReleased SettlementStatus = "PARTIAL_RELEASED"
	SettlementReleased        SettlementStatus = "RELEASED"
	SettlementFailed          SettlementStatus = "FAILED"
)

// Milestones track settlement progress: M1 escrow funded, M2 dispatch
// confirmed, M3 delivery confirmed, M4 split computed, M5 released.
type Milestones struct {
	M1 bool `json:"m1"`
	M2 bool `json:"m2"`
	M3 bool `json:"m3"`
	M4 bool `json:"m4"`
	M5 bool `json:"m5"`
}

type Release struct {
	Amount     float64   `json:"amount"`
	Partial    bool      `json:"partial"`
	ReleasedAt time.Time `json:"released_at"`
	ReleasedBy string    `json:"released_by"`
}

type SplitItem struct {
	Party  SplitParty `json:"party"`
	Share  float64    `json:"share"`
	Amount float64    `json:"amount"`
}

type SplitRecord struct {
	TemplateCode string      `json:"template_code"`
	TotalAmount  float64     `json:"total_amount"`
	Items        []SplitItem `json:"items"`
	ComputedAt   time.Time   `json:"computed_at"`
}

type Settlement struct {
	ID           string
	TenantID     string
	OrderID      string
	TemplateCode string
	EscrowAmount float64
	Status       SettlementStatus
	Milestones   Milestones
	Releases     []Release
	SplitHistory []SplitRecord
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "OPEN"
	DisputeInReview DisputeStatus = "IN_REVIEW"
	DisputeResolved DisputeStatus = "RESOLVED"
	DisputeRejected DisputeStatus = "REJECTED"
)

type Dispute struct {
	ID         string
	TenantID   string
	OrderID    string
	Status     DisputeStatus
	Reason     string
	Resolution string
	OpenedBy   string
	ResolvedBy string
	TicketID   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type TicketStatus string

const (
	TicketOpen   TicketStatus = "OPEN"
	TicketClosed TicketStatus = "CLOSED"
)

type SupportTicket struct {
	ID        string
	TenantID  string
	OrderID   string
	DisputeID string
	Subject   string
	Status    TicketStatus
	OpenedBy  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// ApprovalRequest gates ticket escalations. The deciding actor must differ
// from the requester.
type ApprovalRequest struct {
	ID          string
	TenantID    string
	TicketID    string
	Subject     string
	Status      ApprovalStatus
	RequestedBy string
	DecidedBy   string
	Rationale   string
	CreatedAt   time.Time
	DecidedAt   *time.Time
}
