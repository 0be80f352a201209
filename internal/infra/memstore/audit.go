package memstore

import (
	"context"
	"sync"
	"time"

	"ciclo/internal/domain"

	"github.com/google/uuid"
)

// AuditLog is an in-memory hash-chained ledger. Appends to a stream are
// serialized under one lock, so no two entries ever observe the same last
// sequence.
type AuditLog struct {
	mu      sync.Mutex
	streams map[string][]domain.AuditEntry
}

func NewAuditLog() *AuditLog {
	return &AuditLog{streams: make(map[string][]domain.AuditEntry)}
}

func streamKey(tenantID, stream string) string {
	return tenantID + "/" + stream
}

func (l *AuditLog) Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := streamKey(entry.TenantID, entry.Stream)
	chain := l.streams[k]
	prevHash := domain.ZeroHash
	if len(chain) > 0 {
		prevHash = chain[len(chain)-1].Hash
	}
	entry.Seq = int64(len(chain)) + 1
	entry.PrevHash = prevHash
	entry.Hash = domain.ChainHash(prevHash, entry.PayloadJSON, entry.EventType, entry.Seq)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	l.streams[k] = append(chain, entry)
	return entry, nil
}

func (l *AuditLog) ListRange(ctx context.Context, tenantID, stream string, startSeq, endSeq int64, limit int) ([]domain.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if startSeq < 1 {
		startSeq = 1
	}
	var out []domain.AuditEntry
	for _, entry := range l.streams[streamKey(tenantID, stream)] {
		if entry.Seq < startSeq {
			continue
		}
		if endSeq > 0 && entry.Seq > endSeq {
			break
		}
		out = append(out, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (l *AuditLog) LastSeq(ctx context.Context, tenantID, stream string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	chain := l.streams[streamKey(tenantID, stream)]
	if len(chain) == 0 {
		return 0, nil
	}
	return chain[len(chain)-1].Seq, nil
}

func (l *AuditLog) ListRecentByOrder(ctx context.Context, tenantID, stream, orderID string, limit int) ([]domain.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	chain := l.streams[streamKey(tenantID, stream)]
	var out []domain.AuditEntry
	for i := len(chain) - 1; i >= 0; i-- {
		if id, ok := chain[i].Payload["order_id"].(string); !ok || id != orderID {
			continue
		}
		out = append(out, chain[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
