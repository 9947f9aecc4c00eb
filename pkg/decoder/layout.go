package decoder

import (
	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/parser"
)

// neighborStart is the first field of the packed neighbor block.
const neighborStart = 15

// neighborSkip is added to the scan index after an accepted tuple, giving
// a stride of nine fields.
const neighborSkip = 8

// serving is what a layout extracts from a measurement record.
type serving struct {
	freq    *float64
	level   *float64
	quality *float64
	rssi    *float64
	pci     *int
	band    string

	activeSetCount    int
	monitoredSetCount int
	neighbors         []model.NeighborMeasurement
}

// layout is a fixed field-offset contract for one technology code.
type layout struct {
	tech model.Technology

	// Display names of the serving level and quality metrics.
	levelName   string
	qualityName string

	read func(rec *parser.Record) serving
}

var layouts = map[int]layout{
	techUMTS: {
		tech:        model.TechUMTS,
		levelName:   "RSCP",
		qualityName: "EcNo",
		read:        readUMTS,
	},
	techLTE: {
		tech:        model.TechLTE,
		levelName:   "RSRP",
		qualityName: "RSRQ",
		read:        readLTE,
	},
}

var genericLayout = layout{
	tech:        model.TechUnknown,
	levelName:   "Level",
	qualityName: "Quality",
	read:        readGeneric,
}

// layoutFor returns the layout for a technology code. Unknown or missing
// codes get the generic layout.
func layoutFor(rec *parser.Record) (layout, bool) {
	code, ok := rec.Int(3)
	if !ok {
		return genericLayout, false
	}
	l, ok := layouts[code]
	if !ok {
		return genericLayout, false
	}
	return l, true
}

func optFloat(rec *parser.Record, i int) *float64 {
	if v, ok := rec.Float(i); ok {
		return model.Float(v)
	}
	return nil
}

func optInt(rec *parser.Record, i int) *int {
	if v, ok := rec.Int(i); ok {
		return model.Int(v)
	}
	return nil
}

// countOr returns field i as a count, or def when it is absent or zero.
func countOr(rec *parser.Record, i, def int) int {
	if v, ok := rec.Int(i); ok && v != 0 {
		return v
	}
	return def
}

// readUMTS: AS count 5, MS count 6, UARFCN 7, RSCP 8, SC 15, EcNo 16.
func readUMTS(rec *parser.Record) serving {
	s := serving{
		freq:              optFloat(rec, 7),
		level:             optFloat(rec, 8),
		pci:               optInt(rec, 15),
		quality:           optFloat(rec, 16),
		activeSetCount:    countOr(rec, 5, 1),
		monitoredSetCount: countOr(rec, 6, 0),
	}
	if s.freq != nil {
		s.band = umtsBand(*s.freq)
	}

	// Tuple: set type k, UARFCN k+2, SC k+3, EcNo k+4, RSCP k+6.
	for k := neighborStart; k < rec.Len()-6; k++ {
		setType, ok1 := rec.Int(k)
		freq, ok2 := rec.Float(k + 2)
		sc, ok3 := rec.Int(k + 3)
		rscp, ok4 := rec.Float(k + 6)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		if setType < 0 || setType > 3 || freq <= 2000 || sc < 0 || sc > 512 || rscp >= -20 || rscp <= -140 {
			continue
		}

		n := model.NeighborMeasurement{
			PCI:          sc,
			FreqChannel:  freq,
			SignalLevel:  rscp,
			QualityLevel: optFloat(rec, k+4),
			RawSetType:   model.Int(setType),
		}
		if s.freq != nil && s.pci != nil && abs(freq-*s.freq) < 1 && sc == *s.pci {
			n.Serving = true
			if s.quality == nil {
				s.quality = n.QualityLevel
			}
		}
		s.neighbors = append(s.neighbors, n)
		k += neighborSkip
	}

	if s.level != nil && s.quality != nil {
		s.rssi = model.Float(*s.level - *s.quality)
	}
	return s
}

// readLTE: MS count 6, EARFCN 8, PCI 10, RSSI 11, RSRP 12, RSRQ 13, band 14.
func readLTE(rec *parser.Record) serving {
	s := serving{
		freq:              optFloat(rec, 8),
		pci:               optInt(rec, 10),
		rssi:              optFloat(rec, 11),
		level:             optFloat(rec, 12),
		quality:           optFloat(rec, 13),
		activeSetCount:    1,
		monitoredSetCount: countOr(rec, 6, 0),
	}
	s.band, _ = rec.String(14)

	// Tuple: type k, EARFCN k+1, PCI k+3, RSRP k+4, RSSI k+5, RSRQ k+6.
	for k := neighborStart; k < rec.Len()-6; k++ {
		setType, ok1 := rec.Int(k)
		freq, ok2 := rec.Float(k + 1)
		pci, ok3 := rec.Int(k + 3)
		rsrp, ok4 := rec.Float(k + 4)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		if setType < 0 || setType > 3 || freq <= 100 || pci < 0 || pci > 1008 || rsrp >= -20 || rsrp <= -200 {
			continue
		}

		s.neighbors = append(s.neighbors, model.NeighborMeasurement{
			PCI:          pci,
			FreqChannel:  freq,
			SignalLevel:  rsrp,
			RSSI:         optFloat(rec, k+5),
			QualityLevel: optFloat(rec, k+6),
		})
		k += neighborSkip
	}
	return s
}

// readGeneric: AS count 5, frequency 7, level 8, optional PCI 9.
func readGeneric(rec *parser.Record) serving {
	return serving{
		freq:           optFloat(rec, 7),
		level:          optFloat(rec, 8),
		pci:            optInt(rec, 9),
		activeSetCount: countOr(rec, 5, 1),
	}
}

func umtsBand(uarfcn float64) string {
	switch {
	case uarfcn >= 10562 && uarfcn <= 10838:
		return "B1 (2100)"
	case uarfcn >= 2937 && uarfcn <= 3088:
		return "B8 (900)"
	}
	return ""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
