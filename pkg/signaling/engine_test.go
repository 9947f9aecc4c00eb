package signaling

import (
	"testing"

	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/parser"
)

func rec(t *testing.T, line string) *parser.Record {
	t.Helper()
	r, ok := parser.Tokenize(line)
	if !ok {
		t.Fatalf("Tokenize(%q) rejected line", line)
	}
	return &r
}

func kinds(events []model.EventPoint) []model.EventKind {
	out := make([]model.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestEngine_StateTransitions(t *testing.T) {
	tests := []struct {
		line string
		want RRCState
	}{
		{"RRCSM,10:00:00.000,,5,1,CELL_UPDATE,10700,100", CellFACH},
		{"RRCSM,10:00:01.000,,5,1,RADIO_BEARER_SETUP_COMPLETE,10700,100", CellDCH},
		{"RRCSM,10:00:02.000,,5,2,PAGING_TYPE_1,10700,100", Idle},
		{"RRCSM,10:00:03.000,,5,2,MEASUREMENT_CONTROL,10700,100", CellDCH},
		{"RRCSM,10:00:04.000,,5,2,RRC_CONNECTION_REJECT,10700,100", Idle},
	}

	e := NewEngine()
	if e.State() != Idle {
		t.Fatalf("initial State() = %s, want IDLE", e.State())
	}
	for _, tt := range tests {
		e.Observe(rec(t, tt.line), nil)
		if e.State() != tt.want {
			t.Errorf("after %q State() = %s, want %s", tt.line, e.State(), tt.want)
		}
	}
}

func TestEngine_HandoverEvents(t *testing.T) {
	e := NewEngine()
	pos := &model.GpsSample{Lat: 41.15, Lng: -8.61}

	got := e.Observe(rec(t, "RRCSM,10:00:00.000,,5,2,ACTIVE_SET_UPDATE,10700,100"), pos)
	if len(got) != 1 || got[0].Kind != model.EventHOCommand {
		t.Fatalf("Observe() = %v, want [HO Command]", kinds(got))
	}
	if got[0].Message != "ACTIVE_SET_UPDATE" {
		t.Errorf("Message = %q, want ACTIVE_SET_UPDATE", got[0].Message)
	}
	if !got[0].Located() || *got[0].Lat != 41.15 {
		t.Errorf("event position = %v,%v; want 41.15,-8.61", got[0].Lat, got[0].Lng)
	}

	got = e.Observe(rec(t, "RRCSM,10:00:01.000,,5,1,ACTIVE_SET_UPDATE_COMPLETE,10700,100"), nil)
	if len(got) != 1 || got[0].Kind != model.EventHOCompletion {
		t.Fatalf("Observe() = %v, want [HO Completion]", kinds(got))
	}
	if got[0].Located() {
		t.Error("event without GPS should have no position")
	}

	// Downlink COMPLETE is not a command.
	got = e.Observe(rec(t, "RRCSM,10:00:02.000,,5,2,RADIO_BEARER_SETUP_COMPLETE,10700,100"), nil)
	if len(got) != 0 {
		t.Errorf("Observe() = %v, want no events", kinds(got))
	}
}

func TestEngine_ReleaseCauses(t *testing.T) {
	e := NewEngine()

	e.Observe(rec(t, "L3SM,10:00:00.000,,5,1,SETUP"), nil)
	if _, cs, iucs := e.Causes(); cs != CauseReset || iucs != StatusConnected {
		t.Errorf("after SETUP causes = %q/%q, want -/Connected", cs, iucs)
	}

	got := e.Observe(rec(t, "L3SM,10:00:05.000,,5,2,DISCONNECT"), nil)
	if len(got) != 1 || got[0].Kind != model.EventCSRelease {
		t.Fatalf("Observe() = %v, want [CS Release]", kinds(got))
	}
	if got[0].ExtraFields["cs_rel_cause"] != CauseNormalClearing {
		t.Errorf("cs_rel_cause = %v, want %s", got[0].ExtraFields["cs_rel_cause"], CauseNormalClearing)
	}

	got = e.Observe(rec(t, "RRCSM,10:00:06.000,,5,2,RRC_CONNECTION_RELEASE,10700,100"), nil)
	if len(got) != 1 || got[0].Kind != model.EventRRCRelease {
		t.Fatalf("Observe() = %v, want [RRC Release]", kinds(got))
	}
	if got[0].ExtraFields["cs_rel_cause"] != CauseNormalClearing {
		t.Errorf("RRC Release cs_rel_cause = %v, want %s", got[0].ExtraFields["cs_rel_cause"], CauseNormalClearing)
	}
	if e.State() != Idle {
		t.Errorf("State() = %s, want IDLE", e.State())
	}
	if rrc, _, iucs := e.Causes(); rrc != CauseNormal || iucs != StatusReleased {
		t.Errorf("causes = %q/%q, want Normal/Released", rrc, iucs)
	}
}

func TestEngine_FailureEvents(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []model.EventKind
	}{
		{"dl out of sync", "RRCSM,10:00:00.000,,5,2,OUT_OF_SYNC_IND", []model.EventKind{model.EventDLSyncLoss}},
		{"ul sync loss", "L3SM,10:00:00.000,,5,1,UL_SYNC_LOSS", []model.EventKind{model.EventULSyncLoss}},
		{"radio link failure", "RRCSM,10:00:00.000,,5,2,RADIO_LINK_FAILURE", []model.EventKind{model.EventRLF}},
		{"reestablishment", "L3SM,10:00:00.000,,7,1,RRC_REESTABLISHMENT_REQUEST", []model.EventKind{model.EventRLF}},
		{"t310", "RRCSM,10:00:00.000,,7,2,T310_EXPIRY", []model.EventKind{model.EventT310}},
		{"t312", "RRCSM,10:00:00.000,,7,2,T312 expired", []model.EventKind{model.EventT312}},
		{"rrd call drop", "RRD,10:00:00.000,,5,0,0,1", []model.EventKind{model.EventCallDrop}},
		{"rrd rlf", "RRD,10:00:00.000,,5,0,0,5", []model.EventKind{model.EventRLF}},
		{"rrd other", "RRD,10:00:00.000,,5,0,0,3", nil},
		{"rra rlf", "RRA,10:00:00.000,,5,0,16", []model.EventKind{model.EventRLF}},
		{"rra dl sync", "RRA,10:00:00.000,,5,0,12", []model.EventKind{model.EventDLSyncLoss}},
		{"rra ul sync", "RRA,10:00:00.000,,5,0,4", []model.EventKind{model.EventULSyncLoss}},
		{"caf", "CAF,10:00:00.000,,5,0,RADIO_BEARER_SETUP,2", []model.EventKind{model.EventRLF}},
		{"caf release", "CAF,10:00:00.000,,5,0,RRC_CONNECTION_RELEASE,2", nil},
		{"unhandled tag", "GPS,10:00:00.000,,-8.6,41.1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(NewEngine().Observe(rec(t, tt.line), nil))
			if len(got) != len(tt.want) {
				t.Fatalf("Observe() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Observe()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEngine_CAFReleaseRecordsCause(t *testing.T) {
	e := NewEngine()
	e.Observe(rec(t, "CAF,10:00:00.000,,5,0,RRC_CONNECTION_RELEASE,2"), nil)
	if rrc, _, iucs := e.Causes(); rrc != CauseNormal || iucs != StatusReleased {
		t.Errorf("causes = %q/%q, want Normal/Released", rrc, iucs)
	}
}

func TestEngine_ObserveActiveSet(t *testing.T) {
	e := NewEngine()
	sizes := []int{1, 1, 2, 3, 3, 1}
	var events []model.EventPoint
	for _, s := range sizes {
		if ev, ok := e.ObserveActiveSet(s, "10:00:00.000", nil); ok {
			events = append(events, ev)
		}
	}

	want := []model.EventKind{model.EventASAdd, model.EventASAdd, model.EventASRemove}
	got := kinds(events)
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
		before := events[i].ExtraFields["AS Size Before"]
		after := events[i].ExtraFields["AS Size After"]
		if before == after {
			t.Errorf("event %d before == after (%v)", i, before)
		}
	}
	if events[2].Message != "Size: 3 -> 1" {
		t.Errorf("Message = %q, want %q", events[2].Message, "Size: 3 -> 1")
	}
}

func TestMessageName(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"RRCSM,10:00:00.000,,5,2,MEASUREMENT_REPORT,10700", "MEASUREMENT_REPORT"},
		{"L3SM,ab,,5,2,123456,SETUP_REQ", "SETUP_REQ"},
		{"RRCSM,ab,,5,2,1234567", "Unknown"},
	}
	for _, tt := range tests {
		if got := MessageName(rec(t, tt.line)); got != tt.want {
			t.Errorf("MessageName(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestIsSignaling(t *testing.T) {
	for tag, want := range map[string]bool{
		"RRCSM": true, "L3SM": true, "rrcsm": true, "CELLMEAS": false, "GPS": false,
	} {
		if got := IsSignaling(tag); got != want {
			t.Errorf("IsSignaling(%q) = %v, want %v", tag, got, want)
		}
	}
}
