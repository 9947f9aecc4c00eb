package tabular

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Neighbor column metrics.
const (
	MetricPCI     = "pci"
	MetricLevel   = "level"
	MetricQuality = "quality"
	MetricFreq    = "freq"
)

// maxNeighborIndex bounds the slot number read from a neighbor header.
const maxNeighborIndex = 32

// ColumnMap holds the header index bound to each field, -1 when absent.
type ColumnMap struct {
	Time int
	Lat  int
	Lng  int

	PCI          int
	Level        int
	Quality      int
	Freq         int
	Band         int
	CellID       int
	DLThroughput int
	ULThroughput int

	// PCIFromCellID is set when no PCI column exists and the cell identity
	// column mostly holds PCI-sized values.
	PCIFromCellID bool

	// LevelName and QualityName are the headers bound to Level and Quality.
	LevelName   string
	QualityName string

	Neighbors []NeighborColumn
}

// NeighborColumn binds one metric of one numbered neighbor.
type NeighborColumn struct {
	Column   int
	Slot     int
	Metric   string
	Detected bool
}

// ResolveOptions tunes the PCI-like heuristic.
type ResolveOptions struct {
	SampleRows   int
	PCIMajority  float64
	PCIThreshold float64
}

type fieldRule struct {
	candidates []string
	exclusions []string
}

var (
	pciRule = fieldRule{
		candidates: []string{"servingcellsc", "servingsc", "primarysc", "primarypci", "dl_pci", "dl_sc", "bestsc", "bestpci", "sc", "pci", "psc", "scramblingcode", "physicalcellid", "physicalcellidentity", "phycellid"},
		exclusions: []string{"active", "set", "neighbor", "target", "candidate"},
	}
	levelRule = fieldRule{
		candidates: []string{"servingcellrsrp", "servingrsrp", "rsrp", "rscp", "level"},
		exclusions: []string{"active", "set", "neighbor"},
	}
	qualityRule = fieldRule{
		candidates: []string{"servingcellrsrq", "servingrsrq", "rsrq", "ecno", "sinr"},
		exclusions: []string{"active", "set", "neighbor"},
	}
	freqRule = fieldRule{
		candidates: []string{"servingcelldlearfcn", "earfcn", "uarfcn", "freq", "channel"},
		exclusions: []string{"active", "set", "neighbor"},
	}
	bandRule = fieldRule{
		candidates: []string{"band"},
		exclusions: []string{"active", "set", "neighbor"},
	}
	cellIDRule = fieldRule{
		candidates: []string{"enodeb id-cell id", "enodebid-cellid", "nodeb id-cell id", "cellid", "ci", "cid", "cell_id", "identity"},
		exclusions: []string{"active", "set", "neighbor", "target"},
	}
	dlRule = fieldRule{candidates: []string{"averagedlthroughput", "dlthroughput", "downlinkthroughput"}}
	ulRule = fieldRule{candidates: []string{"averageulthroughput", "ulthroughput", "uplinkthroughput"}}
)

var (
	neighborHeader = regexp.MustCompile(`\b[nd]\d`)
	monitoredSlot  = regexp.MustCompile(`n(\d+)`)
	detectedSlot   = regexp.MustCompile(`d(\d+)`)
)

// ResolveColumns binds header columns to fields. Candidates are tried in
// rank order; each is tried as an exact match before a substring match.
// sample rows feed the PCI-like heuristic.
func ResolveColumns(header []string, sample [][]string, opts ResolveOptions) ColumnMap {
	norm := normalizeAll(header)
	cm := ColumnMap{
		Time: findTime(norm),
		Lat:  findLat(norm),
		Lng:  findLng(norm),
	}

	taken := map[int]bool{}
	for _, i := range []int{cm.Time, cm.Lat, cm.Lng} {
		if i >= 0 {
			taken[i] = true
		}
	}
	bind := func(r fieldRule) int {
		i := r.find(norm, taken)
		if i >= 0 {
			taken[i] = true
		}
		return i
	}

	cm.PCI = bind(pciRule)
	cm.Level = bind(levelRule)
	cm.Quality = bind(qualityRule)
	cm.Freq = bind(freqRule)
	cm.Band = bind(bandRule)
	cm.CellID = bind(cellIDRule)
	cm.DLThroughput = bind(dlRule)
	cm.ULThroughput = bind(ulRule)

	if cm.Level >= 0 {
		cm.LevelName = strings.TrimSpace(header[cm.Level])
	}
	if cm.Quality >= 0 {
		cm.QualityName = strings.TrimSpace(header[cm.Quality])
	}

	if cm.PCI < 0 && cm.CellID >= 0 {
		cm.PCIFromCellID = pciLike(sample, cm.CellID, opts)
	}

	cm.Neighbors = neighborColumns(norm, taken)
	return cm
}

func (r fieldRule) find(norm []string, taken map[int]bool) int {
	for _, c := range r.candidates {
		c = normalize(c)
		for i, n := range norm {
			if !taken[i] && n == c && !r.excluded(n) {
				return i
			}
		}
		for i, n := range norm {
			if !taken[i] && looseMatch(n, c) && !r.excluded(n) {
				return i
			}
		}
	}
	return -1
}

// excluded rejects headers that describe a set or a neighbor rather than
// the serving cell. Headers naming the serving cell are always accepted.
func (r fieldRule) excluded(n string) bool {
	if strings.Contains(n, "serving") {
		return false
	}
	for _, ex := range r.exclusions {
		if strings.Contains(n, ex) {
			return true
		}
	}
	if strings.Contains(n, "as") && !containsAny(n, "meas", "class", "phase", "pass", "alias") {
		return true
	}
	return neighborHeader.MatchString(n)
}

// looseMatch reports whether c occurs in n. Short candidates must sit at
// the start or end of the header.
func looseMatch(n, c string) bool {
	if !strings.Contains(n, c) {
		return false
	}
	if len(c) <= 3 {
		return strings.HasPrefix(n, c) || strings.HasSuffix(n, c)
	}
	return true
}

func findTime(norm []string) int {
	return findKey(norm, []string{"time", "timestamp", "date", "datetime"}, "time")
}

func findLat(norm []string) int {
	return findKey(norm, []string{"lat", "latitude", "ycoord", "y", "cgpslat", "cgpslatitude"}, "latitude")
}

func findLng(norm []string) int {
	return findKey(norm, []string{"lon", "long", "longitude", "lng", "xcoord", "x", "cgpslon", "cgpslongitude"}, "longitude")
}

func findKey(norm []string, exact []string, contains string) int {
	for i, n := range norm {
		for _, e := range exact {
			if n == e {
				return i
			}
		}
	}
	for i, n := range norm {
		if strings.Contains(n, contains) {
			return i
		}
	}
	return -1
}

// pciLike reports whether most sampled values in column i are small enough
// to be a PCI rather than a cell identity.
func pciLike(sample [][]string, i int, opts ResolveOptions) bool {
	total, small := 0, 0
	for j, row := range sample {
		if opts.SampleRows > 0 && j >= opts.SampleRows {
			break
		}
		v, ok := ParseNumber(cell(row, i))
		if !ok {
			continue
		}
		total++
		if v < opts.PCIThreshold {
			small++
		}
	}
	return total > 0 && float64(small)/float64(total) > opts.PCIMajority
}

// neighborColumns finds numbered neighbor metrics such as "N1 RSCP" or
// "D3 SC", ordered monitored before detected and by slot.
func neighborColumns(norm []string, taken map[int]bool) []NeighborColumn {
	var cols []NeighborColumn
	for i, n := range norm {
		if taken[i] {
			continue
		}
		metric := metricOf(n)
		if metric == "" {
			continue
		}
		if m := monitoredSlot.FindStringSubmatch(n); m != nil {
			if slot, err := strconv.Atoi(m[1]); err == nil && slot >= 1 && slot <= maxNeighborIndex {
				cols = append(cols, NeighborColumn{Column: i, Slot: slot, Metric: metric})
				continue
			}
		}
		if containsAny(n, "data", "band") {
			continue
		}
		if m := detectedSlot.FindStringSubmatch(n); m != nil {
			if slot, err := strconv.Atoi(m[1]); err == nil && slot >= 1 && slot <= maxNeighborIndex {
				cols = append(cols, NeighborColumn{Column: i, Slot: slot, Metric: metric, Detected: true})
			}
		}
	}
	sort.SliceStable(cols, func(a, b int) bool {
		if cols[a].Detected != cols[b].Detected {
			return !cols[a].Detected
		}
		return cols[a].Slot < cols[b].Slot
	})
	return cols
}

// metricOf names the neighbor metric a header carries. Level names are
// checked first since "rscp" contains "sc".
func metricOf(n string) string {
	switch {
	case containsAny(n, "rscp", "rsrp"):
		return MetricLevel
	case containsAny(n, "ecno", "rsrq"):
		return MetricQuality
	case containsAny(n, "freq", "earfcn", "uarfcn"):
		return MetricFreq
	case containsAny(n, "sc", "pci", "identity"):
		return MetricPCI
	}
	return ""
}

// normalize lowercases s and strips whitespace and underscores.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

func normalizeAll(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = normalize(h)
	}
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
