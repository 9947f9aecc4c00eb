package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/output"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "drivelog.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestReport(processed time.Time) *output.Report {
	return output.NewReport(&model.ParseResult{
		MeasurementPoints: []model.MeasurementPoint{
			{
				Lat:          41.15,
				Lng:          -8.61,
				Time:         "10:00:00.000",
				Technology:   model.TechUMTS,
				ServingLevel: model.Float(-80),
				ServingPCI:   model.Int(0),
				CellIdentity: model.CellIdentity{Raw: "445/1234", RNC: model.Int(445), CID: model.Int(1234)},
				Neighbors:    []model.NeighborMeasurement{{PCI: 101, FreqChannel: 10713, SignalLevel: -90, Label: "M1"}},
				ExtraFields:  model.Fields{"RRC State": "CELL_DCH", "Serving RSCP": -80.0},
			},
			{Lat: 41.16, Lng: -8.62, Time: "10:00:01.000", Technology: model.TechUMTS},
		},
		EventPoints: []model.EventPoint{
			{Lat: model.Float(41.15), Lng: model.Float(-8.61), Time: "10:00:00.500", Kind: model.EventHOCommand, Message: "ACTIVE_SET_UPDATE"},
			{Time: "10:00:02.000", Kind: model.EventCallDrop, Message: "Call Drop"},
		},
		SignalingPoints: []model.SignalingPoint{
			{Time: "10:00:00.200", Message: "MEASUREMENT_REPORT", RawLine: "RRCSM,10:00:00.200,,5,2,MEASUREMENT_REPORT"},
		},
		DetectedTechnology: model.Detected3G,
	}, output.Metadata{
		Kind:        output.KindTaggedLog,
		Sources:     []string{"a.nmf", "b.nmf"},
		RecordsRead: 12,
		ProcessedAt: processed,
		Duration:    1500 * time.Millisecond,
	})
}

func TestStore_SaveAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := newTestReport(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	newer := newTestReport(time.Date(2024, 1, 16, 10, 0, 0, 0, time.UTC))
	for _, r := range []*output.Report{older, newer} {
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	sessions, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Sessions() = %d, want 2", len(sessions))
	}
	if sessions[0].ID != newer.ID {
		t.Errorf("first session = %s, want newest %s", sessions[0].ID, newer.ID)
	}

	got := sessions[1]
	if got.Kind != output.KindTaggedLog || got.DetectedTechnology != model.Detected3G {
		t.Errorf("session = %+v", got)
	}
	if len(got.Sources) != 2 || got.Sources[1] != "b.nmf" {
		t.Errorf("Sources = %v, want [a.nmf b.nmf]", got.Sources)
	}
	if got.Measurements != 2 || got.Events != 2 || got.Signaling != 1 || got.RecordsRead != 12 {
		t.Errorf("counts = %d/%d/%d/%d, want 2/2/1/12", got.Measurements, got.Events, got.Signaling, got.RecordsRead)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", got.Duration)
	}
	if !got.ProcessedAt.Equal(older.Metadata.ProcessedAt) {
		t.Errorf("ProcessedAt = %v, want %v", got.ProcessedAt, older.Metadata.ProcessedAt)
	}
}

func TestStore_Measurements(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := newTestReport(time.Now())
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	points, err := s.Measurements(ctx, r.ID)
	if err != nil {
		t.Fatalf("Measurements() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Measurements() = %d, want 2", len(points))
	}

	p := points[0]
	if p.Lat != 41.15 || p.Technology != model.TechUMTS || p.CellIdentity.Raw != "445/1234" {
		t.Errorf("point = %+v", p)
	}
	if p.CellIdentity.RNC == nil || *p.CellIdentity.RNC != 445 || p.CellIdentity.CID == nil || *p.CellIdentity.CID != 1234 {
		t.Errorf("CellIdentity = %+v, want RNC 445 CID 1234", p.CellIdentity)
	}
	if p.CellIdentity.LAC != nil {
		t.Errorf("CellIdentity.LAC = %v, want nil", *p.CellIdentity.LAC)
	}
	if points[1].CellIdentity != (model.CellIdentity{}) {
		t.Errorf("second point CellIdentity = %+v, want empty", points[1].CellIdentity)
	}
	if p.ServingPCI == nil || *p.ServingPCI != 0 {
		t.Errorf("ServingPCI = %v, want 0 kept distinct from absent", p.ServingPCI)
	}
	if p.ServingQuality != nil {
		t.Errorf("ServingQuality = %v, want nil", *p.ServingQuality)
	}
	if len(p.Neighbors) != 1 || p.Neighbors[0].Label != "M1" {
		t.Errorf("Neighbors = %+v", p.Neighbors)
	}
	if p.ExtraFields["RRC State"] != "CELL_DCH" || p.ExtraFields["Serving RSCP"] != -80.0 {
		t.Errorf("ExtraFields = %v", p.ExtraFields)
	}

	if points[1].ServingLevel != nil || points[1].Neighbors != nil || points[1].ExtraFields != nil {
		t.Errorf("second point should carry no optional values: %+v", points[1])
	}
}

func TestStore_Measurements_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Measurements(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Measurements() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Save_DuplicateRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := newTestReport(time.Now())
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, r); err == nil {
		t.Fatal("Save() of a duplicate id should fail")
	}

	points, err := s.Measurements(ctx, r.ID)
	if err != nil {
		t.Fatalf("Measurements() error = %v", err)
	}
	if len(points) != 2 {
		t.Errorf("Measurements() = %d after failed save, want 2", len(points))
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drivelog.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Save(ctx, newTestReport(time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	sessions, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("Sessions() = %d after reopen, want 1", len(sessions))
	}
}
