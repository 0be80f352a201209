package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ciclo/internal/domain"
	"ciclo/internal/infra/crypto"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository persists the hash-chained ledger. Sequence assignment and
// the entry write share one transaction; the per-tenant counter row is read
// FOR UPDATE so concurrent appends to the same stream serialize.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(gdb *gorm.DB) *AuditRepository {
	return &AuditRepository{db: gdb}
}

func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	if r == nil || r.db == nil {
		return domain.AuditEntry{}, errDBUnavailable
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Microsecond)

	var out domain.AuditEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, prevHash, err := nextStreamSeq(ctx, tx, entry.TenantID, entry.Stream)
		if err != nil {
			return err
		}
		entry.Seq = seq
		entry.PrevHash = prevHash
		entry.Hash = domain.ChainHash(prevHash, entry.PayloadJSON, entry.EventType, seq)

		orderID, _ := entry.Payload["order_id"].(string)
		model := AuditEntryModel{
			ID:            entry.ID,
			TenantID:      entry.TenantID,
			Stream:        entry.Stream,
			Seq:           entry.Seq,
			EventType:     entry.EventType,
			OperationType: string(entry.OperationType),
			Status:        string(entry.Status),
			ActorID:       entry.ActorID,
			ActorRole:     entry.ActorRole,
			PayloadJSON:   entry.PayloadJSON,
			OrderID:       orderID,
			PrevHash:      entry.PrevHash,
			Hash:          entry.Hash,
			CreatedAt:     entry.CreatedAt,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		out = entry
		return nil
	})
	if err != nil {
		return domain.AuditEntry{}, err
	}
	return out, nil
}

func nextStreamSeq(ctx context.Context, tx *gorm.DB, tenantID, stream string) (int64, string, error) {
	if tenantID == "" || stream == "" {
		return 0, "", errors.New("tenant_id and stream are required")
	}
	if err := tx.WithContext(ctx).Exec(
		"INSERT INTO audit_stream_seq (tenant_id, stream, seq) VALUES (?, ?, 0) ON CONFLICT (tenant_id, stream) DO NOTHING",
		tenantID, stream,
	).Error; err != nil {
		return 0, "", err
	}

	var currentSeq int64
	if err := tx.WithContext(ctx).Raw(
		"SELECT seq FROM audit_stream_seq WHERE tenant_id = ? AND stream = ? FOR UPDATE",
		tenantID, stream,
	).Scan(&currentSeq).Error; err != nil {
		return 0, "", err
	}
	nextSeq := currentSeq + 1
	if err := tx.WithContext(ctx).Exec(
		"UPDATE audit_stream_seq SET seq = ? WHERE tenant_id = ? AND stream = ?",
		nextSeq, tenantID, stream,
	).Error; err != nil {
		return 0, "", err
	}

	prevHash := domain.ZeroHash
	if currentSeq > 0 {
		var prev AuditEntryModel
		if err := tx.WithContext(ctx).
			Where("tenant_id = ? AND stream = ? AND seq = ?", tenantID, stream, currentSeq).
			Take(&prev).Error; err != nil {
			return 0, "", err
		}
		prevHash = prev.Hash
	}
	if prevHash == "" {
		return 0, "", fmt.Errorf("missing previous hash for tenant %s stream %s", tenantID, stream)
	}
	return nextSeq, prevHash, nil
}

func (r *AuditRepository) ListRange(ctx context.Context, tenantID, stream string, startSeq, endSeq int64, limit int) ([]domain.AuditEntry, error) {
	if r == nil || r.db == nil {
		return nil, errDBUnavailable
	}
	if startSeq < 1 {
		startSeq = 1
	}
	q := r.db.WithContext(ctx).
		Where("tenant_id = ? AND stream = ? AND seq >= ?", tenantID, stream, startSeq).
		Order("seq ASC")
	if endSeq > 0 {
		q = q.Where("seq <= ?", endSeq)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []AuditEntryModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(models))
	for _, model := range models {
		entry, err := entryFromModel(model)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *AuditRepository) LastSeq(ctx context.Context, tenantID, stream string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errDBUnavailable
	}
	var seq int64
	err := r.db.WithContext(ctx).
		Model(&AuditEntryModel{}).
		Where("tenant_id = ? AND stream = ?", tenantID, stream).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&seq).Error
	return seq, err
}

func (r *AuditRepository) ListRecentByOrder(ctx context.Context, tenantID, stream, orderID string, limit int) ([]domain.AuditEntry, error) {
	if r == nil || r.db == nil {
		return nil, errDBUnavailable
	}
	q := r.db.WithContext(ctx).
		Where("tenant_id = ? AND stream = ? AND order_id = ?", tenantID, stream, orderID).
		Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []AuditEntryModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(models))
	for _, model := range models {
		entry, err := entryFromModel(model)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func entryFromModel(model AuditEntryModel) (domain.AuditEntry, error) {
	canonical, err := crypto.CanonicalizeJSON(model.PayloadJSON)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	var payload map[string]any
	if err := json.Unmarshal(model.PayloadJSON, &payload); err != nil {
		return domain.AuditEntry{}, err
	}
	return domain.AuditEntry{
		ID:            model.ID,
		TenantID:      model.TenantID,
		Stream:        model.Stream,
		Seq:           model.Seq,
		EventType:     model.EventType,
		OperationType: domain.OperationType(model.OperationType),
		Status:        domain.AuditStatus(model.Status),
		ActorID:       model.ActorID,
		ActorRole:     model.ActorRole,
		Payload:       payload,
		PayloadJSON:   canonical,
		PrevHash:      model.PrevHash,
		Hash:          model.Hash,
		CreatedAt:     model.CreatedAt.UTC(),
	}, nil
}
