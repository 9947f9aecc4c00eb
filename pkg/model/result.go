package model

import (
	"github.com/paulmach/orb"
)

// Detected technology labels.
const (
	Detected2G      = "2G (GSM)"
	Detected3G      = "3G (UMTS)"
	Detected4G      = "4G (LTE)"
	Detected5G      = "5G (NR)"
	DetectedUnknown = "Unknown"
)

// ParseResult is everything decoded from one input.
type ParseResult struct {
	MeasurementPoints      []MeasurementPoint `json:"measurement_points"`
	SignalingPoints        []SignalingPoint   `json:"signaling_points"`
	EventPoints            []EventPoint       `json:"event_points"`
	DetectedTechnology     string             `json:"detected_technology"`
	ActiveSetConfigHistory []ActiveSetConfig  `json:"active_set_config_history"`
}

// Empty reports whether nothing was decoded.
func (r *ParseResult) Empty() bool {
	return len(r.MeasurementPoints) == 0 &&
		len(r.SignalingPoints) == 0 &&
		len(r.EventPoints) == 0
}

// Bounds returns the bounding box of measurement points and located events.
// ok is false when there is no position at all.
func (r *ParseResult) Bounds() (b orb.Bound, ok bool) {
	extend := func(p orb.Point) {
		if !ok {
			b = p.Bound()
			ok = true
			return
		}
		b = b.Extend(p)
	}

	for i := range r.MeasurementPoints {
		extend(r.MeasurementPoints[i].Point())
	}
	for i := range r.EventPoints {
		e := &r.EventPoints[i]
		if e.Located() {
			extend(orb.Point{*e.Lng, *e.Lat})
		}
	}
	return b, ok
}

// LatestConfig returns the most recent active-set configuration, if any.
func (r *ParseResult) LatestConfig() (ActiveSetConfig, bool) {
	if len(r.ActiveSetConfigHistory) == 0 {
		return ActiveSetConfig{}, false
	}
	return r.ActiveSetConfigHistory[len(r.ActiveSetConfigHistory)-1], true
}
