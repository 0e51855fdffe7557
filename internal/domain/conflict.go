package domain

import (
	"encoding/json"
	"time"
)

type Resolution string

const (
	ResolutionServerWins Resolution = "SERVER_WINS"
	ResolutionLocalWins  Resolution = "LOCAL_WINS"
	ResolutionMerged     Resolution = "MERGED"
)

func (r Resolution) Valid() bool {
	switch r {
	case ResolutionServerWins, ResolutionLocalWins, ResolutionMerged:
		return true
	}
	return false
}

type ConflictReason string

const (
	// ReasonStaleWrite means the stored record was modified after the base
	// the client's mutation was built on.
	ReasonStaleWrite ConflictReason = "stale_write"
	// ReasonInvalidPayload means the mutation's data could not be decoded
	// into its declared kind.
	ReasonInvalidPayload ConflictReason = "invalid_payload"
	// ReasonStorageError means the store rejected the write for this item.
	ReasonStorageError ConflictReason = "storage_error"
	// ReasonAccessDenied means the item targets a project outside the
	// caller's membership.
	ReasonAccessDenied ConflictReason = "access_denied"
)

// Conflict is a flagged stale write, kept until a resolution decision is
// applied. ServerRecord is a snapshot of the stored record at detection time;
// ClientPayload is the mutation as submitted, replayed verbatim when the
// conflict is resolved with LOCAL_WINS.
type Conflict struct {
	ID            string          `json:"id"`
	RecordType    RecordKind      `json:"record_type"`
	RecordID      string          `json:"record_id"`
	LocalID       string          `json:"local_id,omitempty"`
	DeviceID      string          `json:"device_id,omitempty"`
	UserID        string          `json:"user_id"`
	Reason        ConflictReason  `json:"reason"`
	ServerRecord  json.RawMessage `json:"server_record,omitempty"`
	ClientPayload json.RawMessage `json:"client_payload,omitempty"`
	DetectedAt    time.Time       `json:"detected_at"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
	Resolution    Resolution      `json:"resolution,omitempty"`
}

func (c *Conflict) Resolved() bool { return c.ResolvedAt != nil }
