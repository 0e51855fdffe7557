package domain

import "time"

// WaterLevel is a single depth-to-water measurement in a borehole.
type WaterLevel struct {
	RecordMeta

	BoreholeID   string    `json:"borehole_id"`
	DepthToWater float64   `json:"depth_to_water"`
	MeasuredAt   time.Time `json:"measured_at"`
	Method       string    `json:"method,omitempty"`
	Remarks      string    `json:"remarks,omitempty"`
}

func (w *WaterLevel) Kind() RecordKind { return KindWaterLevel }

// PumpTest records a pumping test on a borehole. Entries are the timed
// drawdown observations taken during the test; they live inside the parent
// document and travel with it through push and pull.
type PumpTest struct {
	RecordMeta

	BoreholeID  string          `json:"borehole_id"`
	TestType    string          `json:"test_type"`
	PumpingRate float64         `json:"pumping_rate"`
	StaticLevel float64         `json:"static_level"`
	StartedAt   time.Time       `json:"started_at"`
	DurationMin int             `json:"duration_min"`
	Entries     []PumpTestEntry `json:"entries,omitempty"`
}

type PumpTestEntry struct {
	ElapsedMin float64 `json:"elapsed_min"`
	Drawdown   float64 `json:"drawdown"`
	Discharge  float64 `json:"discharge,omitempty"`
}

func (p *PumpTest) Kind() RecordKind { return KindPumpTest }

// WaterQuality is a field water-quality sample taken from a borehole.
type WaterQuality struct {
	RecordMeta

	BoreholeID      string    `json:"borehole_id"`
	SampledAt       time.Time `json:"sampled_at"`
	PH              float64   `json:"ph,omitempty"`
	ConductivityUS  float64   `json:"conductivity_us,omitempty"`
	TemperatureC    float64   `json:"temperature_c,omitempty"`
	DissolvedOxygen float64   `json:"dissolved_oxygen,omitempty"`
	TurbidityNTU    float64   `json:"turbidity_ntu,omitempty"`
	NitrateMgL      float64   `json:"nitrate_mgl,omitempty"`
	Remarks         string    `json:"remarks,omitempty"`
}

func (w *WaterQuality) Kind() RecordKind { return KindWaterQuality }
