package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ciclo/internal/domain"
	"ciclo/internal/infra/crypto"
)

// Ledger appends to and verifies the per-tenant hash-chained audit log.
type Ledger struct {
	repo  AuditRepository
	clock func() time.Time
}

func NewLedger(repo AuditRepository) *Ledger {
	return &Ledger{repo: repo, clock: time.Now}
}

func NewLedgerWithClock(repo AuditRepository, clock func() time.Time) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{repo: repo, clock: clock}
}

type AppendInput struct {
	EventType     string
	OperationType domain.OperationType
	Status        domain.AuditStatus
	Stream        string
	Payload       map[string]any
}

func (l *Ledger) Append(ctx context.Context, actor domain.Actor, input AppendInput) (domain.AuditEntry, error) {
	if l.repo == nil {
		return domain.AuditEntry{}, errors.New("audit repository required")
	}
	if strings.TrimSpace(input.EventType) == "" {
		return domain.AuditEntry{}, fmt.Errorf("%w: event type is required", domain.ErrInvalidArgument)
	}
	if actor.TenantID == "" {
		return domain.AuditEntry{}, fmt.Errorf("%w: tenant is required", domain.ErrInvalidArgument)
	}
	stream := input.Stream
	if stream == "" {
		stream = domain.DefaultStream
	}
	status := input.Status
	if status == "" {
		status = domain.AuditSuccess
	}
	payload := input.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	canonical, err := crypto.CanonicalizeAny(payload)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	entry := domain.AuditEntry{
		TenantID:      actor.TenantID,
		Stream:        stream,
		EventType:     input.EventType,
		OperationType: input.OperationType,
		Status:        status,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		Payload:       payload,
		PayloadJSON:   canonical,
		CreatedAt:     l.clock().UTC(),
	}
	return l.repo.Append(ctx, entry)
}

const (
	defaultVerifyLimit = 1000
	maxVerifyLimit     = 5000
)

type VerifyOptions struct {
	Stream   string
	StartSeq int64
	EndSeq   int64
	Limit    int
}

type VerifyResult struct {
	Valid          bool
	Checked        int
	FirstBrokenSeq int64
}

// VerifyChain recomputes each entry hash in the requested range from the
// previous entry's hash and the stored payload, event type and sequence, and
// compares against the stored hash. It detects payload tampering, hash
// tampering, sequence gaps or reordering, and truncation at either end of the
// range.
func (l *Ledger) VerifyChain(ctx context.Context, tenantID string, opts VerifyOptions) (VerifyResult, error) {
	if l.repo == nil {
		return VerifyResult{}, errors.New("audit repository required")
	}
	if tenantID == "" {
		return VerifyResult{}, fmt.Errorf("%w: tenant is required", domain.ErrInvalidArgument)
	}
	stream := opts.Stream
	if stream == "" {
		stream = domain.DefaultStream
	}
	start := opts.StartSeq
	if start < 1 {
		start = 1
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultVerifyLimit
	}
	if limit > maxVerifyLimit {
		limit = maxVerifyLimit
	}

	entries, err := l.repo.ListRange(ctx, tenantID, stream, start, opts.EndSeq, limit)
	if err != nil {
		return VerifyResult{}, err
	}
	if len(entries) == 0 {
		return VerifyResult{Valid: true}, nil
	}

	prevHash := domain.ZeroHash
	if start > 1 {
		anchor, err := l.repo.ListRange(ctx, tenantID, stream, start-1, start-1, 1)
		if err != nil {
			return VerifyResult{}, err
		}
		if len(anchor) != 1 || anchor[0].Seq != start-1 {
			return VerifyResult{Valid: false, FirstBrokenSeq: start}, nil
		}
		prevHash = anchor[0].Hash
	}

	expected := start
	checked := 0
	for _, entry := range entries {
		if entry.Seq != expected {
			return VerifyResult{Valid: false, Checked: checked, FirstBrokenSeq: expected}, nil
		}
		if entry.PrevHash != prevHash {
			return VerifyResult{Valid: false, Checked: checked, FirstBrokenSeq: entry.Seq}, nil
		}
		canonical, err := crypto.CanonicalizeAny(entry.Payload)
		if err != nil {
			return VerifyResult{Valid: false, Checked: checked, FirstBrokenSeq: entry.Seq}, nil
		}
		if domain.ChainHash(prevHash, canonical, entry.EventType, entry.Seq) != entry.Hash {
			return VerifyResult{Valid: false, Checked: checked, FirstBrokenSeq: entry.Seq}, nil
		}
		prevHash = entry.Hash
		expected++
		checked++
	}
	if opts.EndSeq > 0 && entries[len(entries)-1].Seq < opts.EndSeq && len(entries) < limit {
		return VerifyResult{Valid: false, Checked: checked, FirstBrokenSeq: entries[len(entries)-1].Seq + 1}, nil
	}
	return VerifyResult{Valid: true, Checked: checked}, nil
}
