package track

import (
	"github.com/ccollicutt/drivelog/pkg/parser"
)

// Cursor answers as-of queries that arrive in non-decreasing time order in
// amortized constant time. A query earlier than the previous one falls back
// to binary search and repositions the cursor.
type Cursor[T any] struct {
	track *Track[T]
	pos   int
	last  parser.Stamp
	used  bool
}

// NewCursor returns a cursor over t. The track is sorted if it was not.
func NewCursor[T any](t *Track[T]) *Cursor[T] {
	t.Sort()
	return &Cursor[T]{track: t, pos: -1}
}

// At returns the last value at or before stamp.
func (c *Cursor[T]) At(stamp parser.Stamp) (T, bool) {
	entries := c.track.entries

	if c.used && stamp.Before(c.last) {
		c.pos = c.track.index(stamp)
	} else {
		for c.pos+1 < len(entries) && !stamp.Before(entries[c.pos+1].Stamp) {
			c.pos++
		}
	}
	c.last = stamp
	c.used = true

	if c.pos < 0 {
		var zero T
		return zero, false
	}
	return entries[c.pos].Value, true
}
