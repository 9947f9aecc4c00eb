package tabular

import (
	"strings"

	"github.com/ccollicutt/drivelog/pkg/model"
)

// DecomposeCellIdentity splits a raw cell identifier. "RNC/CID" and
// "RNC-CID" forms split on the separator; a bare integer above 65535 packs
// the RNC in its upper 16 bits; smaller integers are a CID alone.
func DecomposeCellIdentity(raw string) model.CellIdentity {
	raw = strings.TrimSpace(raw)
	id := model.CellIdentity{Raw: raw}
	if raw == "" {
		return id
	}

	for _, sep := range []string{"/", "-"} {
		if a, b, ok := strings.Cut(raw, sep); ok {
			rnc, okR := parseWhole(a)
			cid, okC := parseWhole(b)
			if okR && okC {
				id.RNC = model.Int(rnc)
				id.CID = model.Int(cid)
			}
			return id
		}
	}

	v, ok := parseWhole(raw)
	if !ok {
		return id
	}
	if v > 65535 {
		id.RNC = model.Int(v >> 16)
		id.CID = model.Int(v & 0xFFFF)
	} else {
		id.CID = model.Int(v)
	}
	return id
}

// parseWhole parses a non-negative integer, accepting a float spelling of
// a whole number as spreadsheets often store them.
func parseWhole(s string) (int, bool) {
	v, ok := ParseNumber(s)
	if !ok || v < 0 || v != float64(int(v)) {
		return 0, false
	}
	return int(v), true
}
