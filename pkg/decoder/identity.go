package decoder

import (
	"strings"

	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/parser"
	"github.com/ccollicutt/drivelog/pkg/signaling"
)

const (
	// bigCellID is the smallest value treated as a combined RNC+CID.
	bigCellID = 20000

	maxPSC = 511
)

// umtsIdentity reads a UMTS CHI record. The layout varies by tool version,
// so the record is scanned from field 6 for a combined cell id, with LAC and
// PSC in the few fields after it. Without one, the first plausible RNC and
// short CID pair is combined instead.
func umtsIdentity(rec *parser.Record) (model.IdentityState, bool) {
	id := model.IdentityState{
		Time:       rec.Time(),
		Technology: model.TechUMTS,
		Source:     "CHI",
	}

	for k := 6; k < rec.Len(); k++ {
		v, ok := rec.Int(k)
		if !ok || v <= bigCellID {
			continue
		}
		id.CellID = model.Int(v)
		id.RNC = model.Int(v >> 16)

		for j := 1; j <= 4 && k+j < rec.Len(); j++ {
			f := rec.Fields[k+j]
			if f == "" || strings.Contains(f, ".") {
				continue
			}
			c, ok := parser.ParseInt(f)
			if !ok || c <= 0 || c >= 65535 {
				continue
			}
			if id.LAC == nil {
				id.LAC = model.Int(c)
			} else if id.PSC == nil && c <= maxPSC {
				id.PSC = model.Int(c)
			}
		}
		return id, true
	}

	type candidate struct{ idx, val int }
	var cands []candidate
	for k := 6; k < rec.Len(); k++ {
		if strings.Contains(rec.Fields[k], ".") {
			continue
		}
		if v, ok := rec.Int(k); ok && v > 0 {
			cands = append(cands, candidate{k, v})
		}
	}

	rnc, cid := -1, -1
	for i, c := range cands {
		if c.val > 10 && c.val < 4096 {
			rnc = i
			break
		}
	}
	for i, c := range cands {
		if c.val > 4096 && c.val < 65535 && i != rnc {
			cid = i
			break
		}
	}
	if rnc < 0 || cid < 0 {
		return model.IdentityState{}, false
	}

	id.RNC = model.Int(cands[rnc].val)
	id.CellID = model.Int(cands[rnc].val<<16 + cands[cid].val)
	return id, true
}

// lteIdentity reads ECI (field 9) and TAC (field 10) from an LTE CHI record.
func lteIdentity(rec *parser.Record) (model.IdentityState, bool) {
	eci, ok := rec.Int(9)
	if !ok || eci == 0 {
		return model.IdentityState{}, false
	}
	id := model.IdentityState{
		Time:       rec.Time(),
		Technology: model.TechLTE,
		CellID:     model.Int(eci),
		Source:     "CHI",
	}
	if tac, ok := rec.Int(10); ok {
		id.LAC = model.Int(tac)
	}
	return id, true
}

// partialIdentity reads frequency (field 10) and PSC (field 11) from UMTS
// EDCHI and PCHI records.
func partialIdentity(rec *parser.Record) (model.IdentityState, bool) {
	if tech, _ := rec.Int(3); tech != techUMTS {
		return model.IdentityState{}, false
	}
	freq, ok := rec.Float(10)
	if !ok || freq <= 0 {
		return model.IdentityState{}, false
	}
	id := model.IdentityState{
		Time:       rec.Time(),
		Technology: model.TechUMTS,
		Freq:       model.Float(freq),
		Source:     rec.Tag(),
	}
	if psc, ok := rec.Int(11); ok {
		id.PSC = model.Int(psc)
	}
	return id, true
}

// cellReselection reads RNC (field 12) and cell id (field 13) from a UMTS
// CREL record. The technology code sits in field 10 on these records.
func cellReselection(rec *parser.Record) (model.IdentityState, bool) {
	if tech, _ := rec.Int(10); tech != techUMTS {
		return model.IdentityState{}, false
	}
	rnc, ok1 := rec.Int(12)
	cid, ok2 := rec.Int(13)
	if !ok1 || !ok2 {
		return model.IdentityState{}, false
	}
	return model.IdentityState{
		Time:       rec.Time(),
		Technology: model.TechUMTS,
		CellID:     model.Int(cid),
		RNC:        model.Int(rnc),
		Source:     "CREL",
	}, true
}

// signalingIdentity recovers a synthetic identity from a UMTS RRCSM hex
// payload (the last field). The PSC is taken from field 8.
func signalingIdentity(rec *parser.Record) (model.IdentityState, bool) {
	if tech, _ := rec.Int(3); tech != techUMTS {
		return model.IdentityState{}, false
	}
	msgType, _ := rec.String(5)
	hex := rec.Fields[rec.Len()-1]

	id, ok := signaling.RecoverIdentity(msgType, hex)
	if !ok {
		return model.IdentityState{}, false
	}
	id.Time = rec.Time()
	if psc, ok := rec.Int(8); ok {
		id.PSC = model.Int(psc)
	}
	return id, true
}

// gpsSample reads longitude (field 3), latitude (field 4), altitude (5)
// and speed (8).
func gpsSample(rec *parser.Record) (model.GpsSample, bool) {
	lng, ok1 := rec.Float(3)
	lat, ok2 := rec.Float(4)
	if !ok1 || !ok2 || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return model.GpsSample{}, false
	}
	g := model.GpsSample{Time: rec.Time(), Lat: lat, Lng: lng}
	if alt, ok := rec.Float(5); ok {
		g.Altitude = model.Float(alt)
	}
	if speed, ok := rec.Float(8); ok {
		g.SpeedKmh = model.Float(speed)
	}
	return g, true
}

// Time-to-trigger values that mark an Event 1A parameter block.
var timeToTrigger = map[int]bool{1280: true, 640: true, 320: true, 160: true, 100: true, 200: true}

// activeSetConfig scans a UMTS CHI record for an Event 1A parameter block:
// hysteresis, RSCP threshold, reporting range, time to trigger, filter
// coefficient and EcNo threshold in consecutive fields. The first block
// found wins.
func activeSetConfig(rec *parser.Record) (model.ActiveSetConfig, bool) {
	for x := 10; x < rec.Len()-5; x++ {
		hyst, ok1 := rec.Float(x)
		rng, ok3 := rec.Float(x + 2)
		ttt, ok4 := rec.Int(x + 3)
		if !ok1 || !ok3 || !ok4 || !timeToTrigger[ttt] {
			continue
		}
		if hyst < 0 || hyst > 10 || rng < 0 || rng > 10 {
			continue
		}

		cfg := model.ActiveSetConfig{
			Time:          rec.Time(),
			Hysteresis:    hyst,
			Range:         rng,
			TimeToTrigger: ttt,
			MaxActiveSet:  3,
		}
		if v, ok := rec.Float(x + 1); ok {
			cfg.ThresholdRSCP = model.Float(v)
		}
		if v, ok := rec.Float(x + 4); ok {
			cfg.FilterCoef = model.Float(v)
		}
		if v, ok := rec.Float(x + 5); ok {
			cfg.ThresholdEcNo = model.Float(v)
		}
		for i := x; i <= x+7; i++ {
			if v, ok := rec.Float(i); ok {
				cfg.RawValues = append(cfg.RawValues, v)
			}
		}
		return cfg, true
	}
	return model.ActiveSetConfig{}, false
}
