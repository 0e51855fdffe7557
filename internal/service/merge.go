package service

import (
	"encoding/json"
	"fmt"

	"aquifer-sync-server/internal/domain"
)

// applyPayload lays a client payload over a stored record and returns the
// result as a new record. Fields present in the payload override the stored
// values; fields the payload omits are preserved. Identity fields and
// creation metadata always come from the stored record; the caller stamps
// UpdatedAt afterwards.
func applyPayload(existing domain.Record, payload json.RawMessage) (domain.Record, error) {
	kind := existing.Kind()

	base, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stored %s: %w", kind, err)
	}

	merged := domain.NewRecord(kind)
	if err := json.Unmarshal(base, merged); err != nil {
		return nil, fmt.Errorf("failed to copy stored %s: %w", kind, err)
	}
	if err := json.Unmarshal(payload, merged); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
	}

	src := existing.Meta()
	dst := merged.Meta()
	dst.ID = src.ID
	dst.RecordType = src.RecordType
	dst.LocalID = src.LocalID
	dst.DeviceID = src.DeviceID
	dst.CreatedBy = src.CreatedBy
	dst.CreatedAt = src.CreatedAt
	if src.ProjectID != "" {
		// A record never moves between projects through a payload merge.
		dst.ProjectID = src.ProjectID
	}

	return merged, nil
}
