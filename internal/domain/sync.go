package domain

import (
	"encoding/json"
	"time"
)

// PushMutation is one client-side entity mutation inside a push batch. Data
// carries the kind-specific fields plus the client's claimed updatedAt base.
type PushMutation struct {
	LocalID    string          `json:"localId"`
	EntityType RecordKind      `json:"entityType" validate:"required"`
	Data       json.RawMessage `json:"data" validate:"required"`
}

type PushRequest struct {
	DeviceID string         `json:"deviceId" validate:"required"`
	Entities []PushMutation `json:"entities" validate:"required,min=1,dive"`
}

// PushResult reports one mutation that was applied, either as a create or as
// an update.
type PushResult struct {
	LocalID string `json:"localId,omitempty"`
	ID      string `json:"id"`
	Record  Record `json:"record,omitempty"`
}

// PushConflictEntry reports one mutation that was not applied: a genuine
// stale-write conflict, or a per-item failure downgraded so the rest of the
// batch can proceed.
type PushConflictEntry struct {
	LocalID    string          `json:"localId,omitempty"`
	EntityType RecordKind      `json:"entityType"`
	ServerID   string          `json:"serverId,omitempty"`
	Reason     ConflictReason  `json:"reason"`
	Message    string          `json:"message,omitempty"`
	Server     Record          `json:"serverRecord,omitempty"`
	Client     json.RawMessage `json:"clientPayload,omitempty"`
	ConflictID string          `json:"conflictId,omitempty"`
}

// PushResponse enumerates exactly one outcome for every submitted mutation.
type PushResponse struct {
	Created   []PushResult        `json:"created"`
	Updated   []PushResult        `json:"updated"`
	Conflicts []PushConflictEntry `json:"conflicts"`
}

type PullRequest struct {
	LastSyncTimestamp *time.Time `json:"lastSyncTimestamp,omitempty"`
	ProjectIDs        []string   `json:"projectIds,omitempty"`
}

// PullResponse is a snapshot of every record changed after the checkpoint,
// grouped by kind key (sites, boreholes, waterLevels, pumpTests,
// waterQuality). Timestamp is server-assigned and becomes the client's next
// checkpoint.
type PullResponse struct {
	Timestamp time.Time           `json:"timestamp"`
	Entities  map[string][]Record `json:"entities"`
}

type ResolveRequest struct {
	EntityType RecordKind      `json:"entityType" validate:"required"`
	EntityID   string          `json:"entityId" validate:"required"`
	Resolution Resolution      `json:"resolution" validate:"required,oneof=LOCAL_WINS SERVER_WINS MERGED"`
	MergedData json.RawMessage `json:"mergedData,omitempty"`
}

type ResolveResponse struct {
	EntityID   string     `json:"entityId"`
	Resolution Resolution `json:"resolution"`
	Record     Record     `json:"record,omitempty"`
}
