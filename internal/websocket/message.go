package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// TypeRecordsChanged hints a device that another device of the same
	// user pushed record changes, so it should pull soon.
	TypeRecordsChanged MessageType = "records_changed"
	// TypeConflictFlagged notifies that a push left a conflict pending
	// explicit resolution.
	TypeConflictFlagged MessageType = "conflict_flagged"
	TypePing            MessageType = "ping"
	TypePong            MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// RecordsChangedPayload identifies the device whose push caused the hint; the
// receiving client uses its own stored checkpoint for the actual pull.
type RecordsChangedPayload struct {
	DeviceID  string    `json:"device_id,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type ConflictFlaggedPayload struct {
	ConflictID string `json:"conflict_id"`
	RecordType string `json:"record_type"`
	RecordID   string `json:"record_id"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
