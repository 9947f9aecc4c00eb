// Package decoder reconstructs radio state from a tagged drive-test log.
//
// Decoding takes two passes. The first builds time-sorted identity and GPS
// tracks; the second decodes each record against the identity and position
// that held as of its timestamp, runs signaling inference and assembles the
// result. Malformed records are skipped, never fatal.
package decoder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/neighbor"
	"github.com/ccollicutt/drivelog/pkg/parser"
)

// Defaults.
const (
	DefaultMaxRecords        = 2000000
	DefaultSwapLevelBound    = -15.0
	DefaultSnapshotNeighbors = 8
)

// Decoder decodes record streams. A Decoder holds only settings, so one
// value may run concurrent decodes of separate logs.
type Decoder struct {
	logger            *zap.Logger
	maxRecords        int
	neighborCap       int
	swapLevelBound    float64
	snapshotNeighbors int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMaxRecords caps the records read from a source. 0 is unlimited.
func WithMaxRecords(n int) Option {
	return func(d *Decoder) {
		if n >= 0 {
			d.maxRecords = n
		}
	}
}

// WithNeighborCap sets the total labeled neighbors per measurement.
func WithNeighborCap(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.neighborCap = n
		}
	}
}

// WithSwapLevelBound sets the level above which a serving level is
// considered implausible.
func WithSwapLevelBound(v float64) Option {
	return func(d *Decoder) {
		d.swapLevelBound = v
	}
}

// WithSnapshotNeighbors sets how many neighbors signaling points carry.
func WithSnapshotNeighbors(n int) Option {
	return func(d *Decoder) {
		if n >= 0 {
			d.snapshotNeighbors = n
		}
	}
}

// New returns a Decoder.
func New(opts ...Option) *Decoder {
	d := &Decoder{
		logger:            zap.NewNop(),
		maxRecords:        DefaultMaxRecords,
		neighborCap:       neighbor.DefaultCap,
		swapLevelBound:    DefaultSwapLevelBound,
		snapshotNeighbors: DefaultSnapshotNeighbors,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Result is a decoded log and how it was produced.
type Result struct {
	*model.ParseResult

	Metadata Metadata
}

// Metadata describes a decode pass.
type Metadata struct {
	// Sources lists the inputs records came from, in first-seen order.
	Sources []string

	// RecordsRead is the number of records tokenized.
	RecordsRead int

	// Truncated is set when the record cap stopped reading early.
	Truncated bool

	// Unpositioned counts measurement records dropped for lack of a GPS fix.
	Unpositioned int

	// UnknownTechnology counts measurements decoded with the generic layout.
	UnknownTechnology int

	StartTime time.Time
	EndTime   time.Time
}

// Decode reads every record from src and decodes them. It returns
// ErrNoData when nothing could be decoded.
func (d *Decoder) Decode(ctx context.Context, src parser.RecordSource) (*Result, error) {
	start := time.Now()

	records, truncated, err := parser.ReadAll(ctx, src, d.maxRecords)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	if truncated {
		d.logger.Warn("record limit reached, input truncated", zap.Int("limit", d.maxRecords))
	}

	res, err := d.DecodeRecords(ctx, records)
	if err != nil {
		return nil, err
	}
	res.Metadata.Truncated = truncated
	res.Metadata.StartTime = start
	return res, nil
}

// DecodeRecords decodes records already in memory, in the order given.
func (d *Decoder) DecodeRecords(ctx context.Context, records []*parser.Record) (*Result, error) {
	start := time.Now()

	tracks := BuildTracks(records)
	d.logger.Debug("tracks built",
		zap.Int("records", len(records)),
		zap.Int("identity", tracks.Identity.Len()),
		zap.Int("fallback_identity", tracks.Fallback.Len()),
		zap.Int("gps", tracks.GPS.Len()),
		zap.Int("config_changes", len(tracks.ConfigHistory)))

	s := newSession(d, tracks)
	for i, rec := range records {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		s.handle(rec)
	}

	d.logger.Debug("records decoded",
		zap.Int("measurements", len(s.points)),
		zap.Int("events", len(s.events)),
		zap.Int("signaling", len(s.signaling)),
		zap.Int("unpositioned", s.meta.Unpositioned),
		zap.Int("unknown_technology", s.meta.UnknownTechnology))

	pr, err := Assemble(s.points, s.events, s.signaling, tracks.ConfigHistory)
	if err != nil {
		return nil, err
	}

	s.meta.RecordsRead = len(records)
	s.meta.StartTime = start
	s.meta.EndTime = time.Now()
	return &Result{ParseResult: pr, Metadata: s.meta}, nil
}
