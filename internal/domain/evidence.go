package domain

import (
	"strings"
	"time"
)

type EvidenceType string

const (
	EvidenceTypeA EvidenceType = "TYPE_A"
	EvidenceTypeB EvidenceType = "TYPE_B"
)

type EvidencePolicy string

const (
	PolicyNone                 EvidencePolicy = "NONE"
	PolicySettlementAuditGate  EvidencePolicy = "SETTLEMENT_AUDIT_GATE"
	PolicyDispatchAOrTelemetry EvidencePolicy = "DISPATCH_A_OR_TELEMETRY"
	PolicyDeliveryAOptionalB   EvidencePolicy = "DELIVERY_A_AND_OPTIONAL_B"
	PolicyContractBRequired    EvidencePolicy = "CONTRACT_B_REQUIRED"
)

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Telemetry struct {
	Source     string         `json:"source"`
	CapturedAt string         `json:"captured_at"`
	Data       map[string]any `json:"data,omitempty"`
}

type Document struct {
	Kind       string `json:"kind"`
	StorageRef string `json:"storage_ref,omitempty"`
	Hash       string `json:"hash,omitempty"`
}

// Evidence is a structured proof artifact attached to exactly one order and
// one operation type. Write-once.
type Evidence struct {
	ID            string
	TenantID      string
	OrderID       string
	OperationType OperationType
	Type          EvidenceType
	StorageRef    string
	ContentHash   string
	GPS           *GeoPoint
	Telemetry     *Telemetry
	Documents     []Document
	Metadata      map[string]any
	CreatedAt     time.Time
}

// HasStorageProof reports whether the evidence carries a storage reference or
// an externally supplied content hash.
func (e Evidence) HasStorageProof() bool {
	return strings.TrimSpace(e.StorageRef) != "" || strings.TrimSpace(e.ContentHash) != ""
}

// HasTelemetryProof reports whether the evidence carries telemetry with a
// non-empty source and capture time.
func (e Evidence) HasTelemetryProof() bool {
	if e.Telemetry == nil {
		return false
	}
	return strings.TrimSpace(e.Telemetry.Source) != "" && strings.TrimSpace(e.Telemetry.CapturedAt) != ""
}

// HasDocumentProof reports whether any attached document carries a storage
// reference or hash.
func (e Evidence) HasDocumentProof() bool {
	for _, doc := range e.Documents {
		if strings.TrimSpace(doc.StorageRef) != "" || strings.TrimSpace(doc.Hash) != "" {
			return true
		}
	}
	return false
}
