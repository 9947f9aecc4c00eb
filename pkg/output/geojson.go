package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ccollicutt/drivelog/pkg/model"
)

// GeoJSONFormatter formats reports as a GeoJSON FeatureCollection of
// measurement points and located events.
type GeoJSONFormatter struct {
	opts FormatOptions
}

// NewGeoJSONFormatter creates a new GeoJSON formatter with the given options.
func NewGeoJSONFormatter(opts FormatOptions) *GeoJSONFormatter {
	return &GeoJSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *GeoJSONFormatter) Name() string {
	return "geojson"
}

// Format renders the report as GeoJSON. Quiet mode renders the summary as
// JSON instead.
func (f *GeoJSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return NewJSONFormatter(f.opts).Format(ctx, report, w)
	}

	data, err := json.Marshal(FeatureCollection(report.Result))
	if err != nil {
		return fmt.Errorf("encoding geojson: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing geojson: %w", err)
	}
	return nil
}

// FeatureCollection builds one point feature per measurement and per
// located event. Properties are flat scalar values.
func FeatureCollection(r *model.ParseResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if r == nil {
		return fc
	}

	for i := range r.MeasurementPoints {
		p := &r.MeasurementPoints[i]
		feat := geojson.NewFeature(p.Point())
		props := flatten(p.ExtraFields)
		props["type"] = "measurement"
		props["time"] = p.Time
		props["technology"] = string(p.Technology)
		setFloat(props, "serving_level", p.ServingLevel)
		setFloat(props, "serving_quality", p.ServingQuality)
		setFloat(props, "serving_freq", p.ServingFreq)
		if p.ServingPCI != nil {
			props["serving_pci"] = *p.ServingPCI
		}
		if p.CellIdentity.Raw != "" {
			props["cell_id"] = p.CellIdentity.Raw
		}
		props["neighbors"] = len(p.Neighbors)
		feat.Properties = props
		fc.Append(feat)
	}

	for i := range r.EventPoints {
		e := &r.EventPoints[i]
		if !e.Located() {
			continue
		}
		feat := geojson.NewFeature(orb.Point{*e.Lng, *e.Lat})
		props := flatten(e.ExtraFields)
		props["type"] = "event"
		props["time"] = e.Time
		props["kind"] = string(e.Kind)
		props["message"] = e.Message
		feat.Properties = props
		fc.Append(feat)
	}

	return fc
}

func flatten(f model.Fields) geojson.Properties {
	props := make(geojson.Properties, len(f)+8)
	for k, v := range f {
		props[k] = v
	}
	return props
}

func setFloat(p geojson.Properties, key string, v *float64) {
	if v != nil {
		p[key] = *v
	}
}
