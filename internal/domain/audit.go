package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// DefaultStream is the ledger partition used when an operation does not name
// its own stream.
const DefaultStream = "marketplace"

// ZeroHash is the prev hash of the first entry in a stream.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

type AuditStatus string

const (
	AuditSuccess  AuditStatus = "SUCCESS"
	AuditRejected AuditStatus = "REJECTED"
)

// AuditEntry is one link of a per-tenant, per-stream hash chain. Immutable
// once written; Seq is monotonic starting at 1.
type AuditEntry struct {
	ID            string
	TenantID      string
	Stream        string
	Seq           int64
	EventType     string
	OperationType OperationType
	Status        AuditStatus
	ActorID       string
	ActorRole     string
	Payload       map[string]any
	PayloadJSON   []byte
	PrevHash      string
	Hash          string
	CreatedAt     time.Time
}

// ChainHash computes the hash of a ledger entry from its predecessor's hash,
// the canonicalized payload bytes, the event type and the sequence number.
func ChainHash(prevHash string, canonicalPayload []byte, eventType string, seq int64) string {
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write([]byte("|"))
	h.Write(canonicalPayload)
	h.Write([]byte("|"))
	h.Write([]byte(eventType))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatInt(seq, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
