package signaling

import (
	"testing"
)

func TestRecoverIdentity(t *testing.T) {
	// Header (8) + filler + "1BD2A5" + filler.
	payload := "0A1B2C3D" + "00000000" + "1BD2A5" + "0000000000000000"

	id, ok := RecoverIdentity("RADIO_BEARER_RECONFIGURATION", payload)
	if !ok {
		t.Fatal("RecoverIdentity() found nothing")
	}
	// 0x1BD2A5 >> 12 = 0x1BD = 445, & 0xFFF = 0x2A5 = 677.
	wantCID := (445 << 16) + (677 << 4)
	if id.CellID == nil || *id.CellID != wantCID {
		t.Errorf("CellID = %v, want %d", id.CellID, wantCID)
	}
	if id.RNC == nil || *id.RNC != 445 {
		t.Errorf("RNC = %v, want 445", id.RNC)
	}
	if !id.Synthetic {
		t.Error("recovered identity should be Synthetic")
	}
}

func TestRecoverIdentity_Rejects(t *testing.T) {
	long := "0A1B2C3D" + "00000000" + "1BA123" + "0000000000000000"

	tests := []struct {
		name    string
		msgType string
		hex     string
	}{
		{"irrelevant message", "PAGING_TYPE_1", long},
		{"short payload", "CELL_UPDATE", "0A1B2C3D1BA123"},
		{"no known prefix", "CELL_UPDATE", "0A1B2C3D" + "0000000000000000000000000000"},
		{"prefix in header only", "CELL_UPDATE", "1BA12300" + "0000000000000000000000000000"},
		{"window past end", "CELL_UPDATE", "0A1B2C3D" + "00000000000000000000000001BE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := RecoverIdentity(tt.msgType, tt.hex); ok {
				t.Errorf("RecoverIdentity(%q) should find nothing", tt.msgType)
			}
		})
	}
}

func TestRecoverIdentity_PrefixOrder(t *testing.T) {
	// 1BE appears before 1BA, but 1BA is searched first.
	payload := "0A1B2C3D" + "1BE000" + "1BA000" + "0000000000000000"
	id, ok := RecoverIdentity("MEASUREMENT_CONTROL", payload)
	if !ok {
		t.Fatal("RecoverIdentity() found nothing")
	}
	if *id.RNC != 442 {
		t.Errorf("RNC = %d, want 442", *id.RNC)
	}
}
