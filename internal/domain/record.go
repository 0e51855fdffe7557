package domain

import "time"

type RecordKind string

const (
	KindSite         RecordKind = "site"
	KindBorehole     RecordKind = "borehole"
	KindWaterLevel   RecordKind = "water_level"
	KindPumpTest     RecordKind = "pump_test"
	KindWaterQuality RecordKind = "water_quality"
)

// Kinds lists every trackable record kind in a fixed order, used for pull
// aggregation and store registration.
var Kinds = []RecordKind{
	KindSite,
	KindBorehole,
	KindWaterLevel,
	KindPumpTest,
	KindWaterQuality,
}

func (k RecordKind) Valid() bool {
	switch k {
	case KindSite, KindBorehole, KindWaterLevel, KindPumpTest, KindWaterQuality:
		return true
	}
	return false
}

// PluralKey is the JSON key grouping records of this kind in a pull response.
func (k RecordKind) PluralKey() string {
	switch k {
	case KindSite:
		return "sites"
	case KindBorehole:
		return "boreholes"
	case KindWaterLevel:
		return "waterLevels"
	case KindPumpTest:
		return "pumpTests"
	case KindWaterQuality:
		return "waterQuality"
	}
	return string(k)
}

// RecordMeta carries the sync fields shared by every trackable record. It is
// embedded in each concrete record type.
//
// ID is the server-issued canonical identifier, immutable once assigned.
// LocalID/DeviceID identify the client-side origin of a record created on a
// device; LocalID is unique only within one device. UpdatedAt is authoritative
// for conflict detection and is always stamped with server-observed time.
type RecordMeta struct {
	ID         string    `json:"id"`
	RecordType string    `json:"record_type"`
	LocalID    string    `json:"local_id,omitempty"`
	DeviceID   string    `json:"device_id,omitempty"`
	ProjectID  string    `json:"project_id"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (m *RecordMeta) Meta() *RecordMeta { return m }

// Record is implemented by every trackable record type via an embedded
// RecordMeta.
type Record interface {
	Meta() *RecordMeta
	Kind() RecordKind
}
