// Package track holds time-ordered snapshot sequences and answers as-of
// queries against them: "what was the value at or before time t".
package track

import (
	"sort"

	"github.com/ccollicutt/drivelog/pkg/parser"
)

// Entry is one timestamped value.
type Entry[T any] struct {
	Stamp parser.Stamp
	Value T
}

// Track is a sequence of timestamped values. Add entries in file order and
// call Sort once before querying.
type Track[T any] struct {
	entries []Entry[T]
	sorted  bool
}

// New returns an empty track.
func New[T any]() *Track[T] {
	return &Track[T]{sorted: true}
}

// Add appends a value.
func (t *Track[T]) Add(stamp parser.Stamp, v T) {
	if n := len(t.entries); n > 0 && stamp.Before(t.entries[n-1].Stamp) {
		t.sorted = false
	}
	t.entries = append(t.entries, Entry[T]{Stamp: stamp, Value: v})
}

// Sort orders entries by time. The sort is stable, so entries with equal
// stamps keep file order and the later one wins a lookup.
func (t *Track[T]) Sort() {
	if t.sorted {
		return
	}
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].Stamp.Before(t.entries[j].Stamp)
	})
	t.sorted = true
}

// Len returns the number of entries.
func (t *Track[T]) Len() int {
	return len(t.entries)
}

// Entry returns entry i in time order.
func (t *Track[T]) Entry(i int) Entry[T] {
	return t.entries[i]
}

// Values returns the values in time order.
func (t *Track[T]) Values() []T {
	out := make([]T, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Value
	}
	return out
}

// Update replaces the value at index i.
func (t *Track[T]) Update(i int, v T) {
	t.entries[i].Value = v
}

// At returns the last value whose stamp is at or before stamp.
func (t *Track[T]) At(stamp parser.Stamp) (T, bool) {
	i := t.index(stamp)
	if i < 0 {
		var zero T
		return zero, false
	}
	return t.entries[i].Value, true
}

// index returns the position of the last entry at or before stamp, or -1.
func (t *Track[T]) index(stamp parser.Stamp) int {
	t.Sort()
	n := sort.Search(len(t.entries), func(i int) bool {
		return stamp.Before(t.entries[i].Stamp)
	})
	return n - 1
}
