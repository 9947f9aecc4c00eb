package output

import (
	"testing"
	"time"

	"github.com/ccollicutt/drivelog/pkg/decoder"
	"github.com/ccollicutt/drivelog/pkg/model"
)

func createTestResult() *model.ParseResult {
	return &model.ParseResult{
		MeasurementPoints: []model.MeasurementPoint{
			{
				Lat:          41.15,
				Lng:          -8.61,
				Time:         "10:00:00.000",
				Technology:   model.TechUMTS,
				ServingLevel: model.Float(-80),
				ServingPCI:   model.Int(100),
				CellIdentity: model.CellIdentity{Raw: "445/1234"},
				Neighbors:    []model.NeighborMeasurement{{PCI: 101, SignalLevel: -90, Label: "A2"}},
				ExtraFields:  model.Fields{"Serving RSCP": -80.0, "RRC State": "CELL_DCH"},
			},
			{
				Lat:        41.16,
				Lng:        -8.62,
				Time:       "10:00:01.000",
				Technology: model.TechUMTS,
			},
		},
		EventPoints: []model.EventPoint{
			{Lat: model.Float(41.15), Lng: model.Float(-8.61), Time: "10:00:00.500", Kind: model.EventHOCommand, Message: "ACTIVE_SET_UPDATE"},
			{Time: "10:00:02.000", Kind: model.EventCSRelease, Message: "DISCONNECT"},
			{Time: "10:00:03.000", Kind: model.EventCSRelease, Message: "RELEASE"},
		},
		SignalingPoints: []model.SignalingPoint{
			{Time: "10:00:00.500", Message: "ACTIVE_SET_UPDATE", RawLine: "RRCSM,10:00:00.500,,5,2,ACTIVE_SET_UPDATE"},
		},
		ActiveSetConfigHistory: []model.ActiveSetConfig{
			{Time: "09:59:00.000", Hysteresis: 3, Range: 5, TimeToTrigger: 640, ThresholdRSCP: model.Float(-100), MaxActiveSet: 3},
		},
		DetectedTechnology: model.Detected3G,
	}
}

func createTestReport() *Report {
	return NewReport(createTestResult(), Metadata{
		Kind:        KindTaggedLog,
		Sources:     []string{"drive.nmf"},
		RecordsRead: 42,
		ProcessedAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
	})
}

func TestSummarize(t *testing.T) {
	s := Summarize(createTestResult())

	if s.MeasurementPoints != 2 || s.EventPoints != 3 || s.SignalingPoints != 1 || s.ConfigChanges != 1 {
		t.Errorf("counts = %d/%d/%d/%d, want 2/3/1/1",
			s.MeasurementPoints, s.EventPoints, s.SignalingPoints, s.ConfigChanges)
	}
	if s.EventCounts[string(model.EventCSRelease)] != 2 {
		t.Errorf("EventCounts = %v, want 2 CS releases", s.EventCounts)
	}
	if s.Bounds == nil {
		t.Fatal("Bounds = nil, want extent")
	}
	if s.Bounds.MinLat != 41.15 || s.Bounds.MaxLat != 41.16 || s.Bounds.MinLng != -8.62 || s.Bounds.MaxLng != -8.61 {
		t.Errorf("Bounds = %+v", *s.Bounds)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(&model.ParseResult{})
	if s.Bounds != nil || s.EventCounts != nil {
		t.Errorf("Summarize(empty) = %+v, want no bounds or counts", s)
	}
	if s.DetectedTechnology != model.DetectedUnknown {
		t.Errorf("DetectedTechnology = %q, want %q", s.DetectedTechnology, model.DetectedUnknown)
	}
}

func TestNewReport(t *testing.T) {
	a := createTestReport()
	b := createTestReport()
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("report IDs %q and %q should be unique and non-empty", a.ID, b.ID)
	}
	if !a.HasData() {
		t.Error("HasData() = false, want true")
	}
	if NewReport(nil, Metadata{}).HasData() {
		t.Error("HasData() on an empty report = true")
	}
}

func TestNewDecodeReport(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	res := &decoder.Result{
		ParseResult: createTestResult(),
		Metadata: decoder.Metadata{
			Sources:      []string{"a.nmf", "b.nmf"},
			RecordsRead:  100,
			Truncated:    true,
			Unpositioned: 3,
			StartTime:    start,
			EndTime:      start.Add(2 * time.Second),
		},
	}

	r := NewDecodeReport(res, "drivelog.yaml")
	m := r.Metadata
	if m.Kind != KindTaggedLog || m.ConfigFile != "drivelog.yaml" {
		t.Errorf("Kind/ConfigFile = %s/%s", m.Kind, m.ConfigFile)
	}
	if len(m.Sources) != 2 || m.RecordsRead != 100 || !m.Truncated || m.Unpositioned != 3 {
		t.Errorf("Metadata = %+v", m)
	}
	if m.Duration != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", m.Duration)
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range Formats {
		f, err := NewFormatter(name, FormatOptions{})
		if err != nil {
			t.Errorf("NewFormatter(%q) error = %v", name, err)
			continue
		}
		if f.Name() != name {
			t.Errorf("NewFormatter(%q).Name() = %q", name, f.Name())
		}
	}
	if _, err := NewFormatter("kml", FormatOptions{}); err == nil {
		t.Error("NewFormatter(kml) should fail")
	}
}
