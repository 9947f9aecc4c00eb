package decoder

import (
	"fmt"
	"strconv"

	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/neighbor"
	"github.com/ccollicutt/drivelog/pkg/parser"
)

// swapFreqBound is the frequency value below which a "frequency" is
// recognized as a misplaced signal level.
const swapFreqBound = -50

// Decoded carries what a measurement record reported besides the point.
type Decoded struct {
	Technology        model.Technology
	KnownTechnology   bool
	ActiveSetCount    int
	MonitoredSetCount int

	// RawNeighbors are the accepted neighbor tuples before labeling,
	// including any serving-cell duplicate.
	RawNeighbors []model.NeighborMeasurement

	// Swapped is set when frequency and level were exchanged.
	Swapped bool
}

// DecodeMeasurement decodes a CELLMEAS-class record into a measurement
// point positioned at gps. identity may be nil.
//
// The technology code in field 3 selects the field layout. Implausible
// neighbor tuples are skipped. When the level is implausible while the
// frequency looks like a level the two are swapped.
func (d *Decoder) DecodeMeasurement(rec *parser.Record, identity *model.IdentityState, gps model.GpsSample) (model.MeasurementPoint, Decoded) {
	l, known := layoutFor(rec)
	s := l.read(rec)

	info := Decoded{
		Technology:        l.tech,
		KnownTechnology:   known,
		ActiveSetCount:    s.activeSetCount,
		MonitoredSetCount: s.monitoredSetCount,
		RawNeighbors:      s.neighbors,
	}

	if (s.level == nil || *s.level > d.swapLevelBound) && s.freq != nil && *s.freq < swapFreqBound {
		s.freq, s.level = s.level, s.freq
		info.Swapped = true
	}

	if s.pci == nil && identity != nil && identity.PSC != nil && l.tech == model.TechUMTS {
		s.pci = model.Int(*identity.PSC)
	}

	p := model.MeasurementPoint{
		Lat:            gps.Lat,
		Lng:            gps.Lng,
		Time:           rec.Time(),
		Technology:     l.tech,
		ServingLevel:   s.level,
		ServingQuality: s.quality,
		ServingPCI:     s.pci,
		ServingFreq:    s.freq,
		Band:           s.band,
		CellIdentity:   cellIdentity(identity),
		Neighbors: neighbor.Classify(s.neighbors, s.activeSetCount, s.monitoredSetCount,
			neighbor.WithCap(d.neighborCap)),
	}

	f := model.Fields{
		"Time":            p.Time,
		"Tech":            string(l.tech),
		"Active Set Size": s.activeSetCount,
	}
	id := p.CellIdentity
	f.SetString("Cell ID", id.Raw)
	f.SetInt("RNC", id.RNC)
	f.SetInt("CID", id.CID)
	f.SetInt("LAC", id.LAC)
	if id.RNC != nil && id.CID != nil {
		f["RNC/CID"] = fmt.Sprintf("%d/%d", *id.RNC, *id.CID)
	} else {
		f["RNC/CID"] = "N/A"
	}
	f.SetFloat("Freq", s.freq)
	f.SetFloat("Serving "+l.levelName, s.level)
	f.SetInt("Serving SC", s.pci)
	f.SetFloat(l.qualityName, s.quality)
	f.SetFloat("RSSI", s.rssi)
	f.SetString("Band", s.band)

	for _, n := range p.Neighbors {
		f[n.Label+" SC"] = n.PCI
		f[n.Label+" Freq"] = n.FreqChannel
		f[n.Label+" "+l.levelName] = n.SignalLevel
		f.SetFloat(n.Label+" "+l.qualityName, n.QualityLevel)
	}
	p.ExtraFields = f

	return p, info
}

// cellIdentity splits a snapshot cell id into RNC and 16-bit CID. The RNC
// comes from the snapshot when known, else from the high bits of a
// combined id.
func cellIdentity(identity *model.IdentityState) model.CellIdentity {
	var c model.CellIdentity
	if identity == nil {
		return c
	}
	c.LAC = identity.LAC
	c.RNC = identity.RNC

	if identity.CellID != nil {
		raw := *identity.CellID
		c.Raw = strconv.Itoa(raw)
		c.CID = model.Int(raw & 0xFFFF)
		if c.RNC == nil && raw > 0xFFFF {
			c.RNC = model.Int(raw >> 16)
		}
	}
	return c
}
