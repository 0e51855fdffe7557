package domain

import (
	"encoding/json"
	"fmt"
)

// NewRecord returns an empty record of the given kind, or nil if the kind is
// not one of the trackable kinds.
func NewRecord(kind RecordKind) Record {
	switch kind {
	case KindSite:
		return &Site{}
	case KindBorehole:
		return &Borehole{}
	case KindWaterLevel:
		return &WaterLevel{}
	case KindPumpTest:
		return &PumpTest{}
	case KindWaterQuality:
		return &WaterQuality{}
	}
	return nil
}

// DecodeRecord unmarshals a raw client payload into a typed record of the
// given kind. This is the single point where the untyped wire payload becomes
// one of the closed set of record types.
func DecodeRecord(kind RecordKind, data json.RawMessage) (Record, error) {
	rec := NewRecord(kind)
	if rec == nil {
		return nil, fmt.Errorf("unknown record kind: %s", kind)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload for %s", kind)
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
	}
	rec.Meta().RecordType = string(kind)
	return rec, nil
}
