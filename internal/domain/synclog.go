package domain

import "time"

type SyncOperation string

const (
	SyncOpPush SyncOperation = "push"
	SyncOpPull SyncOperation = "pull"
)

// SyncLogEntry is an append-only audit record written once per push or pull
// call. It is diagnostic only; nothing reads it on the sync path.
type SyncLogEntry struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	DeviceID  string        `json:"device_id,omitempty"`
	Operation SyncOperation `json:"operation"`
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	CreatedAt time.Time     `json:"created_at"`
}
