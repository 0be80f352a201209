package db

import "time"

type ListingModel struct {
	ID                string    `gorm:"primaryKey"`
	TenantID          string    `gorm:"primaryKey;index"`
	Category          string    `gorm:"not null"`
	Mode              string    `gorm:"not null"`
	Product           string    `gorm:"not null"`
	AvailableQuantity float64   `gorm:"not null"`
	UnitPrice         float64   `gorm:"not null"`
	Status            string    `gorm:"not null"`
	Domain            string
	Channel           string
	CreatedBy         string
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (ListingModel) TableName() string { return "listings" }

type OrderModel struct {
	ID           string    `gorm:"primaryKey"`
	TenantID     string    `gorm:"primaryKey;index"`
	ListingID    string    `gorm:"index;not null"`
	Buyer        string    `gorm:"not null"`
	Quantity     float64   `gorm:"not null"`
	UnitPrice    float64   `gorm:"not null"`
	TotalAmount  float64   `gorm:"not null"`
	Status       string    `gorm:"not null"`
	SettlementID string
	Domain       string
	Channel      string
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (OrderModel) TableName() string { return "orders" }

type ContractModel struct {
	ID        string    `gorm:"primaryKey"`
	TenantID  string    `gorm:"primaryKey;index"`
	OrderID   string    `gorm:"index;not null"`
	Status    string    `gorm:"not null"`
	Terms     string
	SignedBy  []byte    `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (ContractModel) TableName() string { return "contracts" }

type SettlementModel struct {
	ID           string    `gorm:"primaryKey"`
	TenantID     string    `gorm:"primaryKey;index"`
	OrderID      string    `gorm:"index;not null"`
	TemplateCode string    `gorm:"not null"`
	EscrowAmount float64   `gorm:"not null"`
	Status       string    `gorm:"not null"`
	Milestones   []byte    `gorm:"type:jsonb"`
	Releases     []byte    `gorm:"type:jsonb"`
	SplitHistory []byte    `gorm:"type:jsonb"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (SettlementModel) TableName() string { return "settlements" }

type DisputeModel struct {
	ID         string    `gorm:"primaryKey"`
	TenantID   string    `gorm:"primaryKey;index"`
	OrderID    string    `gorm:"index;not null"`
	Status     string    `gorm:"not null"`
	Reason     string
	Resolution string
	OpenedBy   string
	ResolvedBy string
	TicketID   string
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (DisputeModel) TableName() string { return "disputes" }

type EvidenceModel struct {
	ID            string    `gorm:"primaryKey"`
	TenantID      string    `gorm:"primaryKey;index"`
	OrderID       string    `gorm:"index;not null"`
	OperationType string    `gorm:"not null"`
	Type          string    `gorm:"not null"`
	StorageRef    string
	ContentHash   string
	GPS           []byte    `gorm:"type:jsonb"`
	Telemetry     []byte    `gorm:"type:jsonb"`
	Documents     []byte    `gorm:"type:jsonb"`
	Metadata      []byte    `gorm:"type:jsonb"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (EvidenceModel) TableName() string { return "evidences" }

type SupportTicketModel struct {
	ID        string    `gorm:"primaryKey"`
	TenantID  string    `gorm:"primaryKey;index"`
	OrderID   string    `gorm:"index"`
	DisputeID string
	Subject   string
	Status    string    `gorm:"not null"`
	OpenedBy  string
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (SupportTicketModel) TableName() string { return "support_tickets" }

type ApprovalRequestModel struct {
	ID          string    `gorm:"primaryKey"`
	TenantID    string    `gorm:"primaryKey;index"`
	TicketID    string    `gorm:"index;not null"`
	Subject     string
	Status      string    `gorm:"not null"`
	RequestedBy string    `gorm:"not null"`
	DecidedBy   string
	Rationale   string
	CreatedAt   time.Time `gorm:"not null"`
	DecidedAt   *time.Time
}

func (ApprovalRequestModel) TableName() string { return "approval_requests" }

type AuditEntryModel struct {
	ID            string    `gorm:"primaryKey"`
	TenantID      string    `gorm:"uniqueIndex:idx_audit_stream_seq;index;not null"`
	Stream        string    `gorm:"uniqueIndex:idx_audit_stream_seq;not null"`
	Seq           int64     `gorm:"uniqueIndex:idx_audit_stream_seq;not null"`
	EventType     string    `gorm:"not null"`
	OperationType string    `gorm:"not null"`
	Status        string    `gorm:"not null"`
	ActorID       string
	ActorRole     string
	PayloadJSON   []byte    `gorm:"type:jsonb;not null"`
	OrderID       string    `gorm:"index"`
	PrevHash      string    `gorm:"not null"`
	Hash          string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (AuditEntryModel) TableName() string { return "audit_logs" }

// StreamSeqModel backs the per-tenant persisted sequence counter; it is read
// FOR UPDATE inside the append transaction so that concurrent processes agree
// on the next sequence number.
type StreamSeqModel struct {
	TenantID string `gorm:"primaryKey"`
	Stream   string `gorm:"primaryKey"`
	Seq      int64  `gorm:"not null"`
}

func (StreamSeqModel) TableName() string { return "audit_stream_seq" }
