// Package model defines the entities produced by decoding a drive-test log:
// measurement points, events, signaling points and the identity and GPS
// snapshots they are joined against.
//
// Optional numeric values are pointers. nil means "absent"; zero is a valid
// measurement and is never used to signal a parse failure.
package model

import (
	"github.com/paulmach/orb"
)

// Technology names a radio access technology as reported in records.
type Technology string

const (
	TechUnknown Technology = "Unknown"
	TechGSM     Technology = "GSM"
	TechUMTS    Technology = "UMTS"
	TechLTE     Technology = "LTE"
	TechNR      Technology = "NR"
)

// IdentityState is a snapshot of the serving-cell identity context that
// held as of Time. Fields are nil when the originating record did not carry
// them.
type IdentityState struct {
	Time       string     `json:"time"`
	Technology Technology `json:"technology,omitempty"`
	CellID     *int       `json:"cell_id,omitempty"`
	RNC        *int       `json:"rnc,omitempty"`
	LAC        *int       `json:"lac,omitempty"`
	PSC        *int       `json:"psc,omitempty"`
	Freq       *float64   `json:"freq,omitempty"`

	// Source is the record tag the snapshot came from.
	Source string `json:"source,omitempty"`

	// Synthetic marks identities reconstructed from partial hex payloads.
	// They are best-effort and never authoritative.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Inherit fills absent fields from prev and returns the result.
func (s IdentityState) Inherit(prev IdentityState) IdentityState {
	if s.Technology == "" {
		s.Technology = prev.Technology
	}
	if s.CellID == nil {
		s.CellID = prev.CellID
	}
	if s.RNC == nil {
		s.RNC = prev.RNC
	}
	if s.LAC == nil {
		s.LAC = prev.LAC
	}
	if s.PSC == nil {
		s.PSC = prev.PSC
	}
	if s.Freq == nil {
		s.Freq = prev.Freq
	}
	return s
}

// GpsSample is a position fix.
type GpsSample struct {
	Time     string   `json:"time"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Altitude *float64 `json:"altitude,omitempty"`
	SpeedKmh *float64 `json:"speed_kmh,omitempty"`
}

// Point returns the fix as an orb point (lon, lat).
func (g GpsSample) Point() orb.Point {
	return orb.Point{g.Lng, g.Lat}
}

// CellIdentity is a raw cell identifier and its decomposition.
type CellIdentity struct {
	Raw string `json:"raw,omitempty"`
	RNC *int   `json:"rnc,omitempty"`
	CID *int   `json:"cid,omitempty"`
	LAC *int   `json:"lac,omitempty"`
}

// NeighborMeasurement is one neighbor cell seen alongside the serving cell.
type NeighborMeasurement struct {
	PCI          int      `json:"pci"`
	FreqChannel  float64  `json:"freq"`
	SignalLevel  float64  `json:"level"`
	QualityLevel *float64 `json:"quality,omitempty"`
	RSSI         *float64 `json:"rssi,omitempty"`

	// RawSetType is the set-type tag from the record (0..3), when present.
	RawSetType *int `json:"raw_set_type,omitempty"`

	// Label is the derived A/M/D slot, e.g. "A2", "M1", "D3".
	Label string `json:"label,omitempty"`

	// Serving marks an entry that duplicates the serving cell.
	Serving bool `json:"serving,omitempty"`
}

// MeasurementPoint is one geolocated radio measurement.
type MeasurementPoint struct {
	Lat            float64               `json:"lat"`
	Lng            float64               `json:"lng"`
	Time           string                `json:"time"`
	Technology     Technology            `json:"technology"`
	ServingLevel   *float64              `json:"serving_level,omitempty"`
	ServingQuality *float64              `json:"serving_quality,omitempty"`
	ServingPCI     *int                  `json:"serving_pci,omitempty"`
	ServingFreq    *float64              `json:"serving_freq,omitempty"`
	Band           string                `json:"band,omitempty"`
	CellIdentity   CellIdentity          `json:"cell_identity"`
	Neighbors      []NeighborMeasurement `json:"neighbors,omitempty"`
	ExtraFields    Fields                `json:"extra_fields,omitempty"`
}

// Point returns the position as an orb point (lon, lat).
func (m *MeasurementPoint) Point() orb.Point {
	return orb.Point{m.Lng, m.Lat}
}

// EventKind names a synthesized event.
type EventKind string

const (
	EventHOCommand    EventKind = "HO Command"
	EventHOCompletion EventKind = "HO Completion"
	EventRRCRelease   EventKind = "RRC Release"
	EventCSRelease    EventKind = "CS Release"
	EventDLSyncLoss   EventKind = "DL sync loss (Interference / coverage)"
	EventULSyncLoss   EventKind = "UL sync loss (UE can't reach NodeB)"
	EventRLF          EventKind = "RLF indication"
	EventT310         EventKind = "T310"
	EventT312         EventKind = "T312"
	EventCallDrop     EventKind = "Call Drop"
	EventASAdd        EventKind = "AS Add"
	EventASRemove     EventKind = "AS Remove"
)

// EventPoint is a discrete event inferred from one or more records.
// Position is nil when no GPS fix preceded the event.
type EventPoint struct {
	Lat         *float64  `json:"lat,omitempty"`
	Lng         *float64  `json:"lng,omitempty"`
	Time        string    `json:"time"`
	Kind        EventKind `json:"kind"`
	Message     string    `json:"message"`
	ExtraFields Fields    `json:"extra_fields,omitempty"`
}

// Located reports whether the event has a position.
func (e *EventPoint) Located() bool {
	return e.Lat != nil && e.Lng != nil
}

// SignalingPoint is an unclassified RRC or L3 message.
type SignalingPoint struct {
	Lat               *float64              `json:"lat,omitempty"`
	Lng               *float64              `json:"lng,omitempty"`
	Time              string                `json:"time"`
	Message           string                `json:"message"`
	RawLine           string                `json:"raw_line"`
	Identity          *IdentityState        `json:"identity,omitempty"`
	SnapshotNeighbors []NeighborMeasurement `json:"snapshot_neighbors,omitempty"`
}

// ActiveSetConfig is a detected Event 1A (active-set add) configuration.
type ActiveSetConfig struct {
	Time          string    `json:"time"`
	Hysteresis    float64   `json:"hysteresis"`
	ThresholdRSCP *float64  `json:"threshold_rscp,omitempty"`
	Range         float64   `json:"range"`
	TimeToTrigger int       `json:"time_to_trigger"`
	FilterCoef    *float64  `json:"filter_coef,omitempty"`
	ThresholdEcNo *float64  `json:"threshold_ecno,omitempty"`
	RawValues     []float64 `json:"raw_values,omitempty"`
	MaxActiveSet  int       `json:"max_active_set"`
}

// SameSettings reports whether two configurations carry identical parameters.
func (c ActiveSetConfig) SameSettings(o ActiveSetConfig) bool {
	return c.Hysteresis == o.Hysteresis &&
		c.Range == o.Range &&
		c.TimeToTrigger == o.TimeToTrigger &&
		floatPtrEqual(c.ThresholdRSCP, o.ThresholdRSCP) &&
		floatPtrEqual(c.FilterCoef, o.FilterCoef) &&
		floatPtrEqual(c.ThresholdEcNo, o.ThresholdEcNo)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
