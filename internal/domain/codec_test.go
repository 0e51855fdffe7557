package domain

import (
	"encoding/json"
	"testing"
)

func TestNewRecord(t *testing.T) {
	for _, kind := range Kinds {
		rec := NewRecord(kind)
		if rec == nil {
			t.Fatalf("NewRecord(%s) returned nil", kind)
		}
		if rec.Kind() != kind {
			t.Errorf("NewRecord(%s).Kind() = %s", kind, rec.Kind())
		}
	}

	if NewRecord("piezometer") != nil {
		t.Error("NewRecord with unknown kind should return nil")
	}
}

func TestDecodeRecord(t *testing.T) {
	data := json.RawMessage(`{"name":"Kikuyu Springs","latitude":-1.245,"longitude":36.705,"project_id":"proj-1"}`)

	rec, err := DecodeRecord(KindSite, data)
	if err != nil {
		t.Fatalf("DecodeRecord() unexpected error = %v", err)
	}

	site, ok := rec.(*Site)
	if !ok {
		t.Fatalf("DecodeRecord() returned %T, want *Site", rec)
	}
	if site.Name != "Kikuyu Springs" {
		t.Errorf("name = %q", site.Name)
	}
	if site.Meta().RecordType != string(KindSite) {
		t.Errorf("record type = %q", site.Meta().RecordType)
	}
}

func TestDecodeRecord_Invalid(t *testing.T) {
	if _, err := DecodeRecord(KindSite, json.RawMessage(`{"name":`)); err == nil {
		t.Error("expected error for malformed payload")
	}

	if _, err := DecodeRecord("piezometer", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestPluralKey(t *testing.T) {
	want := map[RecordKind]string{
		KindSite:         "sites",
		KindBorehole:     "boreholes",
		KindWaterLevel:   "waterLevels",
		KindPumpTest:     "pumpTests",
		KindWaterQuality: "waterQuality",
	}

	for kind, key := range want {
		if got := kind.PluralKey(); got != key {
			t.Errorf("PluralKey(%s) = %q, want %q", kind, got, key)
		}
	}
}
