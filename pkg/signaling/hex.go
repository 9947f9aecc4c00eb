package signaling

import (
	"strconv"
	"strings"

	"github.com/ccollicutt/drivelog/pkg/model"
)

// minHexPayload is the shortest trailing field treated as a hex payload.
const minHexPayload = 30

// hexHeaderLen is the number of leading hex characters skipped before
// scanning.
const hexHeaderLen = 8

// identityFamilies are the message types whose payloads can carry a cell
// identity.
var identityFamilies = []string{
	"RECONFIGURATION",
	"ACTIVE_SET_UPDATE",
	"MEASUREMENT_CONTROL",
	"CELL_UPDATE",
	"TRANSPORT_CHANNEL",
	"HANDOVER_FROM_UTRAN",
	"SYSTEM_INFORMATION",
}

// rncPrefixes maps hex patterns to the RNC they identify, in search order.
var rncPrefixes = []struct {
	prefix string
	rnc    int
}{
	{"1BA", 442},
	{"1BB", 443},
	{"1BC", 444},
	{"1BD", 445},
	{"1BE", 446},
}

// RecoverIdentity scans an RRC hex payload for a known RNC pattern and
// rebuilds a composite cell identity from the six hex characters found
// there.
//
// This is a best-effort fallback, not a decode: it only recognizes RNCs
// 442..446 and the synthesized cell id is (rnc<<16)+(short<<4), where rnc
// and short come from the top and bottom bits of the window. The result is
// flagged Synthetic and must only be used when no authoritative identity
// exists at that time.
func RecoverIdentity(msgType, hex string) (model.IdentityState, bool) {
	if len(hex) <= minHexPayload || !relevantFamily(msgType) {
		return model.IdentityState{}, false
	}

	payload := strings.ToUpper(hex[hexHeaderLen:])
	for _, p := range rncPrefixes {
		idx := strings.Index(payload, p.prefix)
		if idx < 0 {
			continue
		}
		if idx+6 > len(payload) {
			return model.IdentityState{}, false
		}
		v, err := strconv.ParseUint(payload[idx:idx+6], 16, 32)
		if err != nil {
			return model.IdentityState{}, false
		}

		short := int(v >> 12)
		cidShort := int(v & 0xFFF)
		return model.IdentityState{
			Technology: model.TechUMTS,
			CellID:     model.Int((short << 16) + (cidShort << 4)),
			RNC:        model.Int(p.rnc),
			Source:     TagRRCSM,
			Synthetic:  true,
		}, true
	}
	return model.IdentityState{}, false
}

func relevantFamily(msgType string) bool {
	msgType = strings.ToUpper(msgType)
	for _, f := range identityFamilies {
		if strings.Contains(msgType, f) {
			return true
		}
	}
	return false
}
