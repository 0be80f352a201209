package usecase

import (
	"fmt"

	"ciclo/internal/domain"
	"ciclo/internal/infra/crypto"
)

// BuildEvidenceHash returns the externally supplied content hash when set,
// otherwise the hex SHA-256 of the canonicalized evidence.
func BuildEvidenceHash(evidence domain.Evidence) (string, error) {
	if evidence.ContentHash != "" {
		return evidence.ContentHash, nil
	}
	return crypto.SumCanonical(map[string]any{
		"type":        string(evidence.Type),
		"storage_ref": evidence.StorageRef,
		"gps":         gpsValue(evidence.GPS),
		"telemetry":   telemetryValue(evidence.Telemetry),
		"documents":   documentValues(evidence.Documents),
		"metadata":    evidence.Metadata,
	})
}

func gpsValue(gps *domain.GeoPoint) any {
	if gps == nil {
		return nil
	}
	return map[string]any{"lat": gps.Lat, "lng": gps.Lng}
}

func telemetryValue(t *domain.Telemetry) any {
	if t == nil {
		return nil
	}
	return map[string]any{"source": t.Source, "captured_at": t.CapturedAt, "data": t.Data}
}

func documentValues(docs []domain.Document) any {
	if len(docs) == 0 {
		return nil
	}
	out := make([]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, map[string]any{"kind": doc.Kind, "storage_ref": doc.StorageRef, "hash": doc.Hash})
	}
	return out
}

type EvidenceOptions struct {
	RequireDocumentTypeB bool
}

// ValidateEvidence checks submitted evidence against a policy. Failing a
// required check returns ErrFailedPrecondition naming the missing category;
// it never silently downgrades.
func ValidateEvidence(policy domain.EvidencePolicy, evidences []domain.Evidence, opts EvidenceOptions) error {
	switch policy {
	case domain.PolicyNone, domain.PolicySettlementAuditGate:
		// The settlement gate is enforced by the ledger, not by evidence.
		return nil
	case domain.PolicyDispatchAOrTelemetry:
		if hasGeoTaggedTypeA(evidences) || hasTelemetry(evidences) {
			return nil
		}
		return fmt.Errorf("%w: dispatch requires TYPE_A evidence with GPS or telemetry evidence", domain.ErrFailedPrecondition)
	case domain.PolicyDeliveryAOptionalB:
		if !hasGeoTaggedTypeA(evidences) {
			return fmt.Errorf("%w: delivery requires TYPE_A evidence with storage proof and GPS", domain.ErrFailedPrecondition)
		}
		if opts.RequireDocumentTypeB && !hasDocumentTypeB(evidences) {
			return fmt.Errorf("%w: delivery requires TYPE_B document evidence", domain.ErrFailedPrecondition)
		}
		return nil
	case domain.PolicyContractBRequired:
		if !hasDocumentTypeB(evidences) {
			return fmt.Errorf("%w: contract requires TYPE_B document evidence", domain.ErrFailedPrecondition)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown evidence policy %q", domain.ErrInvalidArgument, policy)
	}
}

func hasGeoTaggedTypeA(evidences []domain.Evidence) bool {
	for _, ev := range evidences {
		if ev.Type == domain.EvidenceTypeA && ev.HasStorageProof() && ev.GPS != nil {
			return true
		}
	}
	return false
}

func hasTelemetry(evidences []domain.Evidence) bool {
	for _, ev := range evidences {
		if ev.HasTelemetryProof() {
			return true
		}
	}
	return false
}

func hasDocumentTypeB(evidences []domain.Evidence) bool {
	for _, ev := range evidences {
		if ev.Type == domain.EvidenceTypeB && ev.HasDocumentProof() {
			return true
		}
	}
	return false
}
