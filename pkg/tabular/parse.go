// Package tabular turns spreadsheet-style drive-test exports into
// measurement points. Columns are bound to fields by ranked header
// heuristics, and several files can be merged by position.
package tabular

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ccollicutt/drivelog/pkg/decoder"
	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/neighbor"
	"github.com/ccollicutt/drivelog/pkg/parser"
)

// ErrNoData is returned when a sheet yields no positioned rows. It is the
// same value as decoder.ErrNoData.
var ErrNoData = decoder.ErrNoData

// Defaults.
const (
	DefaultSampleRows     = 20
	DefaultPCIMajority    = 0.8
	DefaultPCIThreshold   = 1000.0
	DefaultMergeRadius    = 2.0
	DefaultMergePrecision = 5
)

// Neighbor set tags given to sheet neighbors.
const (
	setMonitored = 2
	setDetected  = 3
)

// Parser converts sheets into results.
type Parser struct {
	logger         *zap.Logger
	resolve        ResolveOptions
	maxRows        int
	mergeRadius    float64
	mergePrecision int

	// pinned holds the headers ParseSheet bound to time, position or cell
	// identity. Merge keeps their first value in extra fields.
	pinned map[string]bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSampleRows sets how many rows feed the PCI-like heuristic.
func WithSampleRows(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.resolve.SampleRows = n
		}
	}
}

// WithPCIMajority sets the share of small values that marks a cell
// identity column as PCI-like.
func WithPCIMajority(v float64) Option {
	return func(p *Parser) {
		if v > 0 && v <= 1 {
			p.resolve.PCIMajority = v
		}
	}
}

// WithPCIThreshold sets the bound below which a value looks like a PCI.
func WithPCIThreshold(v float64) Option {
	return func(p *Parser) {
		if v > 0 {
			p.resolve.PCIThreshold = v
		}
	}
}

// WithMaxRows caps the data rows read per sheet. 0 is unlimited.
func WithMaxRows(n int) Option {
	return func(p *Parser) {
		if n >= 0 {
			p.maxRows = n
		}
	}
}

// WithMergeRadius sets the distance in meters within which points from
// different files merge.
func WithMergeRadius(m float64) Option {
	return func(p *Parser) {
		if m > 0 {
			p.mergeRadius = m
		}
	}
}

// WithMergePrecision sets the decimals of the merge grid.
func WithMergePrecision(d int) Option {
	return func(p *Parser) {
		if d > 0 {
			p.mergePrecision = d
		}
	}
}

// New returns a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		logger: zap.NewNop(),
		resolve: ResolveOptions{
			SampleRows:   DefaultSampleRows,
			PCIMajority:  DefaultPCIMajority,
			PCIThreshold: DefaultPCIThreshold,
		},
		mergeRadius:    DefaultMergeRadius,
		mergePrecision: DefaultMergePrecision,
		pinned:         map[string]bool{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseSheet converts every row with valid coordinates into a measurement
// point. It returns ErrNoData when no row is positioned.
func (p *Parser) ParseSheet(s *Sheet) (*model.ParseResult, error) {
	rows := s.Rows
	if p.maxRows > 0 && len(rows) > p.maxRows {
		rows = rows[:p.maxRows]
	}

	cm := ResolveColumns(s.Header, rows, p.resolve)
	p.logger.Debug("columns resolved",
		zap.String("sheet", s.Name),
		zap.Int("lat", cm.Lat),
		zap.Int("lng", cm.Lng),
		zap.Int("pci", cm.PCI),
		zap.Int("level", cm.Level),
		zap.Int("cell_id", cm.CellID),
		zap.Bool("pci_from_cell_id", cm.PCIFromCellID),
		zap.Int("neighbor_columns", len(cm.Neighbors)))

	if cm.Lat < 0 || cm.Lng < 0 {
		return nil, fmt.Errorf("%s: no coordinate columns: %w", s.Name, ErrNoData)
	}
	for _, i := range []int{cm.Time, cm.Lat, cm.Lng, cm.CellID} {
		if i >= 0 && i < len(s.Header) {
			p.pinned[strings.TrimSpace(s.Header[i])] = true
		}
	}

	tech := sheetTechnology(cm)
	points := make([]model.MeasurementPoint, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		pt, ok := p.row(s.Header, row, cm, tech)
		if !ok {
			skipped++
			continue
		}
		points = append(points, pt)
	}
	p.logger.Debug("sheet parsed",
		zap.String("sheet", s.Name),
		zap.Int("points", len(points)),
		zap.Int("skipped", skipped))

	res, err := decoder.Assemble(points, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return res, nil
}

func (p *Parser) row(header, row []string, cm ColumnMap, tech model.Technology) (model.MeasurementPoint, bool) {
	lat, okLat := ParseNumber(cell(row, cm.Lat))
	lng, okLng := ParseNumber(cell(row, cm.Lng))
	if !okLat || !okLng || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return model.MeasurementPoint{}, false
	}

	pt := model.MeasurementPoint{
		Lat:            lat,
		Lng:            lng,
		Time:           cell(row, cm.Time),
		Technology:     tech,
		ServingLevel:   numberAt(row, cm.Level),
		ServingQuality: numberAt(row, cm.Quality),
		ServingFreq:    numberAt(row, cm.Freq),
		Band:           cell(row, cm.Band),
		ExtraFields:    model.Fields{},
	}

	if v, ok := parseWhole(cell(row, cm.PCI)); ok {
		pt.ServingPCI = model.Int(v)
	}
	if cm.CellID >= 0 {
		raw := cell(row, cm.CellID)
		pt.CellIdentity = DecomposeCellIdentity(raw)
		if cm.PCIFromCellID && pt.ServingPCI == nil {
			if v, ok := parseWhole(raw); ok && float64(v) < p.resolve.PCIThreshold {
				pt.ServingPCI = model.Int(v)
			}
		}
	}

	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}
		v := cell(row, i)
		if n, ok := ParseNumber(v); ok {
			pt.ExtraFields[name] = n
		} else {
			pt.ExtraFields.SetString(name, v)
		}
	}
	if v := numberAt(row, cm.DLThroughput); v != nil {
		pt.ExtraFields["DL Throughput (kbps)"] = *v * 1000
	}
	if v := numberAt(row, cm.ULThroughput); v != nil {
		pt.ExtraFields["UL Throughput (kbps)"] = *v * 1000
	}

	pt.Neighbors = neighbors(row, cm.Neighbors)
	return pt, true
}

type slotKey struct {
	detected bool
	slot     int
}

// neighbors builds the labeled neighbors of a row in column order. A
// neighbor needs both a PCI and a level to be kept.
func neighbors(row []string, cols []NeighborColumn) []model.NeighborMeasurement {
	if len(cols) == 0 {
		return nil
	}

	type partial struct {
		n        model.NeighborMeasurement
		hasPCI   bool
		hasLevel bool
	}
	slots := map[slotKey]*partial{}
	var order []slotKey
	for _, c := range cols {
		v, ok := ParseNumber(cell(row, c.Column))
		if !ok {
			continue
		}
		k := slotKey{detected: c.Detected, slot: c.Slot}
		e, seen := slots[k]
		if !seen {
			setType := setMonitored
			if c.Detected {
				setType = setDetected
			}
			e = &partial{n: model.NeighborMeasurement{RawSetType: model.Int(setType)}}
			slots[k] = e
			order = append(order, k)
		}
		switch c.Metric {
		case MetricPCI:
			e.n.PCI = int(v)
			e.hasPCI = true
		case MetricLevel:
			e.n.SignalLevel = v
			e.hasLevel = true
		case MetricQuality:
			e.n.QualityLevel = model.Float(v)
		case MetricFreq:
			e.n.FreqChannel = v
		}
	}

	var out []model.NeighborMeasurement
	for _, k := range order {
		if e := slots[k]; e.hasPCI && e.hasLevel {
			out = append(out, e.n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return neighbor.Classify(out, 1, 0)
}

// sheetTechnology infers the technology from the serving metric headers.
func sheetTechnology(cm ColumnMap) model.Technology {
	names := normalize(cm.LevelName + cm.QualityName)
	switch {
	case containsAny(names, "rsrp", "rsrq"):
		return model.TechLTE
	case containsAny(names, "rscp", "ecno"):
		return model.TechUMTS
	}
	return model.TechUnknown
}

// ParseNumber parses a cell, accepting a decimal comma.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	return parser.ParseFloat(strings.Replace(s, ",", ".", 1))
}

func numberAt(row []string, i int) *float64 {
	if v, ok := ParseNumber(cell(row, i)); ok {
		return model.Float(v)
	}
	return nil
}
