package signaling

import (
	"fmt"

	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/parser"
)

// RRCState is the coarse RRC protocol state.
type RRCState string

const (
	Idle     RRCState = "IDLE"
	CellFACH RRCState = "CELL_FACH"
	CellDCH  RRCState = "CELL_DCH"
)

// Engine tracks RRC state, release causes and active-set size over one
// decode pass. It is not safe for concurrent use; each pass owns one.
type Engine struct {
	state      RRCState
	rrcCause   string
	csCause    string
	iucsStatus string

	asSize int
	asSeen bool
}

// NewEngine returns an engine in the IDLE state.
func NewEngine() *Engine {
	return &Engine{state: Idle}
}

// State returns the current RRC state.
func (e *Engine) State() RRCState {
	return e.state
}

// Causes returns the last RRC release cause, the last CS release cause and
// the Iu-CS status. Empty values are unknown.
func (e *Engine) Causes() (rrc, cs, iucs string) {
	return e.rrcCause, e.csCause, e.iucsStatus
}

// Handles reports whether the engine has rules for the record tag.
func Handles(tag string) bool {
	switch tag {
	case TagRRCSM, TagL3SM, TagRRD, TagRRA, TagCAF:
		return true
	}
	return false
}

// Observe applies one record to the engine and returns any events it
// produced. pos is the latest GPS fix, or nil.
func (e *Engine) Observe(rec *parser.Record, pos *model.GpsSample) []model.EventPoint {
	if !Handles(rec.Tag()) {
		return nil
	}
	m := NewMessage(rec, pos)

	var events []model.EventPoint
	for _, r := range stateRules {
		if r.applies(m) {
			events = append(events, r.Apply(e, m)...)
			break
		}
	}
	for _, r := range eventRules {
		if r.applies(m) {
			events = append(events, r.Apply(e, m)...)
		}
	}
	return events
}

// ObserveActiveSet records the active-set size of a measurement. When it
// differs from the previous size an AS Add or AS Remove event is returned.
// The first observation only seeds the size.
func (e *Engine) ObserveActiveSet(size int, time string, pos *model.GpsSample) (model.EventPoint, bool) {
	prev, seen := e.asSize, e.asSeen
	e.asSize, e.asSeen = size, true
	if !seen || prev == size {
		return model.EventPoint{}, false
	}

	kind := model.EventASAdd
	if size < prev {
		kind = model.EventASRemove
	}
	ev := e.newEvent(kind, fmt.Sprintf("Size: %d -> %d", prev, size), time, pos)
	ev.ExtraFields["AS Event"] = string(kind)
	ev.ExtraFields["AS Size Before"] = prev
	ev.ExtraFields["AS Size After"] = size
	ev.ExtraFields["Details"] = fmt.Sprintf("Active Set size changed from %d to %d", prev, size)
	return ev, true
}

func (e *Engine) recordRRCRelease() {
	if e.rrcCause == "" {
		e.rrcCause = CauseNormal
	}
	e.iucsStatus = StatusReleased
}

func (e *Engine) event(kind model.EventKind, msg string, m *Message) model.EventPoint {
	return e.newEvent(kind, msg, m.Record.Time(), m.Position)
}

func (e *Engine) newEvent(kind model.EventKind, msg, time string, pos *model.GpsSample) model.EventPoint {
	ev := model.EventPoint{
		Time:    time,
		Kind:    kind,
		Message: msg,
		ExtraFields: model.Fields{
			"Event":         string(kind),
			"RRC State":     string(e.state),
			"rrc_rel_cause": orNA(e.rrcCause),
			"cs_rel_cause":  orNA(e.csCause),
			"iucs_status":   orNA(e.iucsStatus),
		},
	}
	if pos != nil {
		ev.Lat = model.Float(pos.Lat)
		ev.Lng = model.Float(pos.Lng)
	}
	return ev
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
