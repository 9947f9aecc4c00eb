package tabular

import (
	"errors"
	"strings"
	"testing"

	"github.com/ccollicutt/drivelog/pkg/model"
)

func TestMerge_FoldsNearbyPoints(t *testing.T) {
	first := &model.ParseResult{MeasurementPoints: []model.MeasurementPoint{{
		Lat:          40.00001,
		Lng:          -8.00002,
		Time:         "10:00:00",
		ServingLevel: model.Float(-80),
		CellIdentity: model.CellIdentity{Raw: "445/1"},
		ExtraFields:  model.Fields{"A": 1.0, "X": "first"},
	}}}
	second := &model.ParseResult{MeasurementPoints: []model.MeasurementPoint{
		{
			Lat:            40.00002,
			Lng:            -8.00001,
			Time:           "10:00:05",
			ServingLevel:   model.Float(-70),
			ServingQuality: model.Float(-9),
			CellIdentity:   model.CellIdentity{Raw: "445/2"},
			ExtraFields:    model.Fields{"B": 2.0, "X": "second"},
		},
		{Lat: 41.0, Lng: -8.0, ExtraFields: model.Fields{"C": 3.0}},
	}}

	res, err := New().Merge(first, second)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(res.MeasurementPoints) != 2 {
		t.Fatalf("points = %d, want 2", len(res.MeasurementPoints))
	}

	p := res.MeasurementPoints[0]
	if p.Lat != 40.00001 || p.Lng != -8.00002 || p.Time != "10:00:00" {
		t.Errorf("geometry/time = %v,%v %s, want the first file's", p.Lat, p.Lng, p.Time)
	}
	if p.CellIdentity.Raw != "445/1" {
		t.Errorf("CellIdentity = %q, want first present 445/1", p.CellIdentity.Raw)
	}
	if *p.ServingLevel != -70 || *p.ServingQuality != -9 {
		t.Errorf("serving = %v/%v, want latest -70/-9", *p.ServingLevel, *p.ServingQuality)
	}
	if p.ExtraFields["A"] != 1.0 || p.ExtraFields["B"] != 2.0 || p.ExtraFields["X"] != "second" {
		t.Errorf("extras = %v, want union with later file winning", p.ExtraFields)
	}

	if first.MeasurementPoints[0].ExtraFields["B"] != nil {
		t.Error("Merge() modified its input extras")
	}
}

func TestMerge_Radius(t *testing.T) {
	a := &model.ParseResult{MeasurementPoints: []model.MeasurementPoint{{Lat: 40, Lng: -8}}}
	b := &model.ParseResult{MeasurementPoints: []model.MeasurementPoint{{Lat: 40.0001, Lng: -8}}}

	res, err := New().Merge(a, b)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(res.MeasurementPoints) != 2 {
		t.Errorf("points 11m apart merged at the default radius")
	}

	res, err = New(WithMergeRadius(20), WithMergePrecision(4)).Merge(a, b)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(res.MeasurementPoints) != 1 {
		t.Errorf("points = %d, want 1 with a 20m radius", len(res.MeasurementPoints))
	}
}

func TestMerge_RadiusWiderThanGridCells(t *testing.T) {
	tests := []struct {
		name string
		b    model.MeasurementPoint
	}{
		{"latitude", model.MeasurementPoint{Lat: 40.00003, Lng: -8}},
		{"longitude", model.MeasurementPoint{Lat: 40, Lng: -8.00004}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &model.ParseResult{MeasurementPoints: []model.MeasurementPoint{{Lat: 40, Lng: -8}}}
			b := &model.ParseResult{MeasurementPoints: []model.MeasurementPoint{tt.b}}

			res, err := New(WithMergeRadius(3.5)).Merge(a, b)
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if len(res.MeasurementPoints) != 1 {
				t.Errorf("points = %d, want 1 with a 3.5m radius", len(res.MeasurementPoints))
			}
		})
	}
}

func TestMerge_KeepsFirstGeometryColumns(t *testing.T) {
	p := New()
	parse := func(name, csv string) *model.ParseResult {
		t.Helper()
		sheet, err := ParseCSV(name, strings.NewReader(csv))
		if err != nil {
			t.Fatalf("ParseCSV() error = %v", err)
		}
		res, err := p.ParseSheet(sheet)
		if err != nil {
			t.Fatalf("ParseSheet() error = %v", err)
		}
		return res
	}

	a := parse("a.csv", "Time,Latitude,Longitude,Cell ID,RSCP\n10:00:00,40.00001,-8.00002,445/1,-80\n")
	b := parse("b.csv", "Time,Latitude,Longitude,Cell ID,RSCP\n10:00:05,40.00002,-8.00001,445/2,-70\n")

	res, err := p.Merge(a, b)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(res.MeasurementPoints) != 1 {
		t.Fatalf("points = %d, want 1", len(res.MeasurementPoints))
	}

	pt := res.MeasurementPoints[0]
	if pt.ExtraFields["Latitude"] != pt.Lat || pt.ExtraFields["Longitude"] != pt.Lng {
		t.Errorf("extras position = %v,%v, want %v,%v",
			pt.ExtraFields["Latitude"], pt.ExtraFields["Longitude"], pt.Lat, pt.Lng)
	}
	if pt.ExtraFields["Cell ID"] != "445/1" || pt.ExtraFields["Time"] != "10:00:00" {
		t.Errorf("extras identity/time = %v/%v, want 445/1 and 10:00:00",
			pt.ExtraFields["Cell ID"], pt.ExtraFields["Time"])
	}
	if pt.ExtraFields["RSCP"] != -70.0 {
		t.Errorf("RSCP = %v, want the later file's -70", pt.ExtraFields["RSCP"])
	}
}

func TestMerge_Empty(t *testing.T) {
	if _, err := New().Merge(nil, &model.ParseResult{}); !errors.Is(err, ErrNoData) {
		t.Errorf("Merge() error = %v, want ErrNoData", err)
	}
}
