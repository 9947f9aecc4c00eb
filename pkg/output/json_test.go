package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewJSONFormatter() returned nil")
	}
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	report := createTestReport()

	var buf bytes.Buffer
	err := f.Format(context.Background(), report, &buf)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Verify it's valid JSON
	var parsed Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.ID != report.ID {
		t.Errorf("ID = %q, want %q", parsed.ID, report.ID)
	}
	if parsed.Summary.MeasurementPoints != 2 {
		t.Errorf("MeasurementPoints = %d, want 2", parsed.Summary.MeasurementPoints)
	}
	if len(parsed.Result.EventPoints) != 3 {
		t.Errorf("EventPoints = %d, want 3", len(parsed.Result.EventPoints))
	}
	if got := parsed.Result.MeasurementPoints[0].Neighbors[0].Label; got != "A2" {
		t.Errorf("neighbor label = %q, want A2", got)
	}
}

func TestJSONFormatter_Format_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})
	report := createTestReport()

	var buf bytes.Buffer
	err := f.Format(context.Background(), report, &buf)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Quiet mode should only output summary
	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if _, ok := parsed["result"]; ok {
		t.Error("quiet output should not include the result")
	}
	if parsed["event_points"] != 3.0 {
		t.Errorf("event_points = %v, want 3", parsed["event_points"])
	}
}

func TestJSONFormatter_Format_Empty(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	report := NewReport(nil, Metadata{Kind: KindSheet})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.Metadata.Kind != KindSheet {
		t.Errorf("Kind = %q, want %q", parsed.Metadata.Kind, KindSheet)
	}
}
