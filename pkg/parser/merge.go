package parser

import (
	"container/heap"
	"context"
	"io"

	"go.uber.org/multierr"
)

// MergedSource combines several RecordSources into one stream ordered by
// record stamp. Logs recorded by separate devices on the same drive can then
// be decoded as a single session.
//
// Records with equal stamps are returned in source order.
type MergedSource struct {
	sources []RecordSource
	heap    *recordHeap
	started bool
}

// NewMergedSource creates a RecordSource that merges sources by stamp.
func NewMergedSource(sources ...RecordSource) *MergedSource {
	return &MergedSource{
		sources: sources,
		heap:    &recordHeap{},
	}
}

// Next returns the earliest pending record across all sources.
// Returns io.EOF when all sources are exhausted.
func (m *MergedSource) Next(ctx context.Context) (*Record, error) {
	if !m.started {
		m.started = true
		if err := m.initHeap(ctx); err != nil {
			return nil, err
		}
	}

	if m.heap.Len() == 0 {
		return nil, io.EOF
	}

	item := heap.Pop(m.heap).(*heapItem)

	next, err := m.sources[item.sourceIdx].Next(ctx)
	switch {
	case err == nil:
		heap.Push(m.heap, &heapItem{record: next, sourceIdx: item.sourceIdx})
	case err != io.EOF:
		return nil, err
	}

	return item.record, nil
}

func (m *MergedSource) initHeap(ctx context.Context) error {
	heap.Init(m.heap)
	for i, src := range m.sources {
		rec, err := src.Next(ctx)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return err
		}
		heap.Push(m.heap, &heapItem{record: rec, sourceIdx: i})
	}
	return nil
}

// Close closes every source and returns all close errors combined.
func (m *MergedSource) Close() error {
	var err error
	for _, src := range m.sources {
		err = multierr.Append(err, src.Close())
	}
	return err
}

type heapItem struct {
	record    *Record
	sourceIdx int
}

type recordHeap []*heapItem

func (h recordHeap) Len() int { return len(h) }

func (h recordHeap) Less(i, j int) bool {
	if c := h[i].record.Stamp().Compare(h[j].record.Stamp()); c != 0 {
		return c < 0
	}
	return h[i].sourceIdx < h[j].sourceIdx
}

func (h recordHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *recordHeap) Push(x any) {
	*h = append(*h, x.(*heapItem))
}

func (h *recordHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
