// Package output provides formatting and output generation for decode results.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/drivelog/pkg/decoder"
	"github.com/ccollicutt/drivelog/pkg/model"
)

// Input kinds recorded in report metadata.
const (
	KindTaggedLog = "tagged_log"
	KindSheet     = "sheet"
)

// Report is the complete output of one run.
type Report struct {
	// ID identifies the run. It is also the archive session key.
	ID string `json:"id"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Result holds the decoded points.
	Result *model.ParseResult `json:"result"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	MeasurementPoints  int            `json:"measurement_points"`
	SignalingPoints    int            `json:"signaling_points"`
	EventPoints        int            `json:"event_points"`
	ConfigChanges      int            `json:"config_changes"`
	DetectedTechnology string         `json:"detected_technology"`
	EventCounts        map[string]int `json:"event_counts,omitempty"`
	Bounds             *Bounds        `json:"bounds,omitempty"`
}

// Bounds is the geographic extent of the positioned points.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Metadata provides context about the run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// Kind is the input kind: tagged_log or sheet.
	Kind string `json:"kind"`

	// Sources lists the files that were read.
	Sources []string `json:"sources"`

	// RecordsRead is the number of records or rows read.
	RecordsRead int `json:"records_read"`

	// Truncated is set when a record cap stopped reading early.
	Truncated bool `json:"truncated,omitempty"`

	// Unpositioned counts measurements dropped for lack of a position.
	Unpositioned int `json:"unpositioned,omitempty"`

	// UnknownTechnology counts measurements decoded with the generic layout.
	UnknownTechnology int `json:"unknown_technology,omitempty"`

	// ProcessedAt is when the run finished.
	ProcessedAt time.Time `json:"processed_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report with a fresh ID and a computed summary.
func NewReport(result *model.ParseResult, meta Metadata) *Report {
	if result == nil {
		result = &model.ParseResult{}
	}
	return &Report{
		ID:       uuid.NewString(),
		Summary:  Summarize(result),
		Result:   result,
		Metadata: meta,
	}
}

// NewDecodeReport creates a Report from a tagged log decode.
func NewDecodeReport(res *decoder.Result, configFile string) *Report {
	m := res.Metadata
	return NewReport(res.ParseResult, Metadata{
		ConfigFile:        configFile,
		Kind:              KindTaggedLog,
		Sources:           m.Sources,
		RecordsRead:       m.RecordsRead,
		Truncated:         m.Truncated,
		Unpositioned:      m.Unpositioned,
		UnknownTechnology: m.UnknownTechnology,
		ProcessedAt:       m.EndTime,
		Duration:          m.EndTime.Sub(m.StartTime),
	})
}

// Summarize computes the summary of a result.
func Summarize(r *model.ParseResult) Summary {
	s := Summary{
		MeasurementPoints:  len(r.MeasurementPoints),
		SignalingPoints:    len(r.SignalingPoints),
		EventPoints:        len(r.EventPoints),
		ConfigChanges:      len(r.ActiveSetConfigHistory),
		DetectedTechnology: r.DetectedTechnology,
	}
	if s.DetectedTechnology == "" {
		s.DetectedTechnology = model.DetectedUnknown
	}

	if len(r.EventPoints) > 0 {
		s.EventCounts = make(map[string]int)
		for i := range r.EventPoints {
			s.EventCounts[string(r.EventPoints[i].Kind)]++
		}
	}

	if b, ok := r.Bounds(); ok {
		s.Bounds = &Bounds{
			MinLat: b.Min.Lat(),
			MinLng: b.Min.Lon(),
			MaxLat: b.Max.Lat(),
			MaxLng: b.Max.Lon(),
		}
	}
	return s
}

// HasData returns true if anything was decoded.
func (r *Report) HasData() bool {
	return r.Summary.MeasurementPoints+r.Summary.SignalingPoints+r.Summary.EventPoints > 0
}
