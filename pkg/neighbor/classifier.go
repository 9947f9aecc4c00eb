// Package neighbor assigns Active/Monitored/Detected slot labels to the
// neighbor cells reported with a measurement.
package neighbor

import (
	"fmt"

	"github.com/ccollicutt/drivelog/pkg/model"
)

// Slot limits.
const (
	MaxActive    = 4
	MaxMonitored = 12
	MaxDetected  = 12
	DefaultCap   = 16
)

// Set type tags carried by UMTS neighbor tuples. 3 is detected.
const (
	setActive0 = 0
	setActive1 = 1
	setMonitor = 2
)

type options struct {
	cap int
}

// Option configures Classify.
type Option func(*options)

// WithCap limits the total number of labeled neighbors.
func WithCap(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cap = n
		}
	}
}

// Classify labels neighbors given the active and monitored set sizes of the
// measurement. Entries flagged as the serving cell are removed first.
//
// When every neighbor carries a raw set-type tag the tags decide the set:
// tags 0 and 1 are active candidates while activeSetCount > 1, and
// candidates beyond activeSetCount-1 are demoted to Monitored. Tag 2 is
// Monitored and anything else Detected. Without tags the labels are
// positional: the first activeSetCount-1 neighbors are Active, the next
// monitoredSetCount Monitored, and the rest Detected.
//
// Neighbors that overflow their set or the total cap are dropped, so every
// returned neighbor carries exactly one label. The input is not modified.
func Classify(neighbors []model.NeighborMeasurement, activeSetCount, monitoredSetCount int, opts ...Option) []model.NeighborMeasurement {
	o := options{cap: DefaultCap}
	for _, opt := range opts {
		opt(&o)
	}

	clean := make([]model.NeighborMeasurement, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Serving {
			continue
		}
		clean = append(clean, n)
	}

	activeSlots := activeSetCount - 1
	if activeSlots < 0 {
		activeSlots = 0
	}
	if activeSlots > MaxActive {
		activeSlots = MaxActive
	}

	var sets []set
	if allTagged(clean) {
		sets = byTag(clean, activeSetCount, activeSlots)
	} else {
		sets = byPosition(len(clean), activeSlots, monitoredSetCount)
	}

	out := make([]model.NeighborMeasurement, 0, len(clean))
	var counter labelCounter
	for i, n := range clean {
		if len(out) >= o.cap {
			break
		}
		label, ok := counter.next(sets[i])
		if !ok {
			continue
		}
		n.Label = label
		out = append(out, n)
	}
	return out
}

type set int

const (
	active set = iota
	monitored
	detected
)

func allTagged(ns []model.NeighborMeasurement) bool {
	if len(ns) == 0 {
		return false
	}
	for _, n := range ns {
		if n.RawSetType == nil {
			return false
		}
	}
	return true
}

func byTag(ns []model.NeighborMeasurement, activeSetCount, activeSlots int) []set {
	sets := make([]set, len(ns))
	used := 0
	for i, n := range ns {
		switch t := *n.RawSetType; {
		case t == setActive0 || t == setActive1:
			if activeSetCount > 1 && used < activeSlots {
				sets[i] = active
				used++
			} else {
				sets[i] = monitored
			}
		case t == setMonitor:
			sets[i] = monitored
		default:
			sets[i] = detected
		}
	}
	return sets
}

func byPosition(n, activeSlots, monitoredSetCount int) []set {
	if monitoredSetCount < 0 {
		monitoredSetCount = 0
	}
	if monitoredSetCount > MaxMonitored {
		monitoredSetCount = MaxMonitored
	}

	sets := make([]set, n)
	for i := range sets {
		switch {
		case i < activeSlots:
			sets[i] = active
		case i < activeSlots+monitoredSetCount:
			sets[i] = monitored
		default:
			sets[i] = detected
		}
	}
	return sets
}

type labelCounter struct {
	a, m, d int
}

// next returns the next free label in s, or false when the set is full.
func (c *labelCounter) next(s set) (string, bool) {
	switch s {
	case active:
		if c.a >= MaxActive {
			return "", false
		}
		c.a++
		return fmt.Sprintf("A%d", c.a+1), true
	case monitored:
		if c.m >= MaxMonitored {
			return "", false
		}
		c.m++
		return fmt.Sprintf("M%d", c.m), true
	default:
		if c.d >= MaxDetected {
			return "", false
		}
		c.d++
		return fmt.Sprintf("D%d", c.d), true
	}
}

// Kind returns the set letter of a label ("A", "M" or "D").
func Kind(label string) string {
	if label == "" {
		return ""
	}
	return label[:1]
}
