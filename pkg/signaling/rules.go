package signaling

import (
	"fmt"

	"github.com/ccollicutt/drivelog/pkg/model"
)

// Rule matches a signaling message and applies its effect to the engine.
// Apply may return events; it may also only change state.
type Rule struct {
	Name string

	// Tags restricts the rule to these record tags.
	Tags []string

	Match func(m *Message) bool
	Apply func(e *Engine, m *Message) []model.EventPoint
}

func (r Rule) applies(m *Message) bool {
	for _, t := range r.Tags {
		if t == m.Tag {
			return r.Match(m)
		}
	}
	return false
}

// Release causes and Iu-CS status values.
const (
	CauseNormal         = "Normal"
	CauseNormalClearing = "Normal Clearing"
	CauseReset          = "-"
	StatusConnected     = "Connected"
	StatusReleased      = "Released"
)

var dchFamily = []string{
	"RADIO_BEARER_SETUP",
	"RADIO_BEARER_RECONFIGURATION",
	"PHYSICAL_CHANNEL_RECONFIGURATION",
	"ACTIVE_SET_UPDATE",
	"MEASUREMENT_CONTROL",
}

// stateRules drive the RRC state. The first matching rule wins.
var stateRules = []Rule{
	{
		Name:  "dch",
		Tags:  []string{TagRRCSM},
		Match: func(m *Message) bool { return m.ContainsAny(dchFamily...) },
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			e.state = CellDCH
			if m.Dir == DirDownlink && !m.Contains("COMPLETE") {
				ev := e.event(model.EventHOCommand, m.Name, m)
				ev.ExtraFields["Message"] = m.Name
				return []model.EventPoint{ev}
			}
			return nil
		},
	},
	{
		Name:  "cell-update",
		Tags:  []string{TagRRCSM},
		Match: func(m *Message) bool { return m.Contains("CELL_UPDATE") },
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			e.state = CellFACH
			return nil
		},
	},
	{
		Name:  "paging",
		Tags:  []string{TagRRCSM},
		Match: func(m *Message) bool { return m.Contains("PAGING_TYPE") },
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			e.state = Idle
			return nil
		},
	},
	{
		Name:  "rrc-release",
		Tags:  []string{TagRRCSM},
		Match: func(m *Message) bool { return m.Contains("RRC_CONNECTION_RELEASE") },
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			e.state = Idle
			ev := e.event(model.EventRRCRelease, "RRC Connection Released", m)
			ev.ExtraFields["RRC Release Cause"] = "Normal (Implied)"
			ev.ExtraFields["rrc_rel_cause"] = CauseNormal
			ev.ExtraFields["iucs_status"] = StatusReleased
			e.recordRRCRelease()
			return []model.EventPoint{ev}
		},
	},
	{
		Name:  "rrc-reject",
		Tags:  []string{TagRRCSM},
		Match: func(m *Message) bool { return m.Contains("RRC_CONNECTION_REJECT") },
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			e.state = Idle
			return nil
		},
	},
}

// eventRules fire independently of each other and of the state rules.
var eventRules = []Rule{
	{
		Name:  "ho-completion",
		Tags:  []string{TagRRCSM},
		Match: func(m *Message) bool { return m.Dir == DirUplink && m.Contains("COMPLETE") },
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			ev := e.event(model.EventHOCompletion, m.Name, m)
			ev.ExtraFields["Message"] = m.Name
			return []model.EventPoint{ev}
		},
	},
	{
		Name:  "dl-sync-loss",
		Tags:  []string{TagRRCSM, TagL3SM},
		Match: func(m *Message) bool { return m.NormContains("OUT", "SYNC") },
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			return []model.EventPoint{e.event(model.EventDLSyncLoss, "Downlink Out of Sync Indication", m)}
		},
	},
	{
		Name:  "ul-sync-loss",
		Tags:  []string{TagRRCSM, TagL3SM},
		Match: func(m *Message) bool { return m.NormContains("UL", "SYNC", "LOSS") },
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			return []model.EventPoint{e.event(model.EventULSyncLoss, "Uplink Synchronization Loss", m)}
		},
	},
	{
		Name: "rlf",
		Tags: []string{TagRRCSM, TagL3SM},
		Match: func(m *Message) bool {
			return m.NormContains("RL FAILURE") ||
				m.NormContains("RADIO LINK FAILURE") ||
				m.NormContains("RLF") ||
				m.NormContains("REESTABLISHMENT")
		},
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			msg := m.Name
			if msg == "" {
				msg = "Radio Link Failure Indication"
			}
			return []model.EventPoint{e.event(model.EventRLF, msg, m)}
		},
	},
	timerRule("T310", model.EventT310),
	timerRule("T312", model.EventT312),
	{
		Name: "cs-release",
		Tags: []string{TagL3SM},
		Match: func(m *Message) bool {
			return m.Name == "RELEASE" || m.Name == "DISCONNECT"
		},
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			e.csCause = CauseNormalClearing
			e.iucsStatus = StatusReleased
			ev := e.event(model.EventCSRelease, "CS Call Released", m)
			ev.ExtraFields["CS Release Cause"] = CauseNormalClearing
			return []model.EventPoint{ev}
		},
	},
	{
		Name: "cs-connect",
		Tags: []string{TagL3SM},
		Match: func(m *Message) bool {
			return m.Name == "CONNECT" || m.Name == "SETUP"
		},
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			e.iucsStatus = StatusConnected
			e.csCause = CauseReset
			return nil
		},
	},
	{
		Name: "rrd-cause",
		Tags: []string{TagRRD},
		Match: func(m *Message) bool {
			c, _ := m.Record.String(6)
			return c == "1" || c == "5"
		},
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			c, _ := m.Record.String(6)
			kind := model.EventRLF
			if c == "1" {
				kind = model.EventCallDrop
			}
			return []model.EventPoint{e.event(kind, "RRD Release Cause "+c, m)}
		},
	},
	{
		Name: "rra-cause",
		Tags: []string{TagRRA},
		Match: func(m *Message) bool {
			c, _ := m.Record.String(5)
			_, ok := rraCauses[c]
			return ok
		},
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			c, _ := m.Record.String(5)
			msg := fmt.Sprintf("Radio Resource Alarm (RRA Cause %s)", c)
			return []model.EventPoint{e.event(rraCauses[c], msg, m)}
		},
	},
	{
		Name: "caf-cause",
		Tags: []string{TagCAF},
		Match: func(m *Message) bool {
			c, _ := m.Record.String(6)
			return c == "2"
		},
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			if m.Name == "RRC_CONNECTION_RELEASE" {
				e.recordRRCRelease()
				return nil
			}
			return []model.EventPoint{e.event(model.EventRLF, "Channel Activation Failure (CAF)", m)}
		},
	},
}

var rraCauses = map[string]model.EventKind{
	"16": model.EventRLF,
	"2":  model.EventRLF,
	"12": model.EventDLSyncLoss,
	"4":  model.EventULSyncLoss,
}

func timerRule(timer string, kind model.EventKind) Rule {
	return Rule{
		Name: timer,
		Tags: []string{TagRRCSM, TagL3SM},
		Match: func(m *Message) bool {
			return m.Contains(timer+"_EXPIRY") || m.Contains(timer+" EXPIRED")
		},
		Apply: func(e *Engine, m *Message) []model.EventPoint {
			ev := e.event(kind, "Timer "+timer+" Expired", m)
			ev.ExtraFields[timer] = "Expired"
			return []model.EventPoint{ev}
		},
	}
}
