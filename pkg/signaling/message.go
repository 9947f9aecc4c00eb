// Package signaling infers protocol state and discrete events from RRC and
// L3 signaling records.
//
// Matching is keyword based: record lines are upper-cased and tested for
// fixed substrings. No ASN.1 decoding takes place, so everything produced
// here is a heuristic approximation of what the network signaled.
package signaling

import (
	"strings"

	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/parser"
)

// Record tags handled by the engine.
const (
	TagRRCSM = "RRCSM"
	TagL3SM  = "L3SM"
	TagRRD   = "RRD"
	TagRRA   = "RRA"
	TagCAF   = "CAF"
)

// Direction is the link direction of a signaling message.
type Direction int

const (
	DirUnknown Direction = iota
	DirUplink
	DirDownlink
)

// Message is a signaling record prepared for rule matching.
type Message struct {
	Record *parser.Record
	Tag    string

	// Name is field 5, the message type on RRCSM/L3SM records.
	Name string

	// Upper is the whole line upper-cased.
	Upper string

	// Norm is Upper with underscores replaced by spaces.
	Norm string

	Dir Direction

	// Position is the latest GPS fix at the record time, if any.
	Position *model.GpsSample
}

// NewMessage prepares rec for matching.
func NewMessage(rec *parser.Record, pos *model.GpsSample) *Message {
	upper := strings.ToUpper(rec.Raw)
	m := &Message{
		Record:   rec,
		Tag:      rec.Tag(),
		Upper:    upper,
		Norm:     strings.ReplaceAll(upper, "_", " "),
		Position: pos,
	}
	m.Name, _ = rec.String(5)

	switch d, _ := rec.String(4); d {
	case "1":
		m.Dir = DirUplink
	case "2":
		m.Dir = DirDownlink
	}
	return m
}

// Contains reports whether the upper-cased line contains every keyword.
func (m *Message) Contains(keywords ...string) bool {
	for _, k := range keywords {
		if !strings.Contains(m.Upper, k) {
			return false
		}
	}
	return true
}

// NormContains is Contains against the underscore-normalized line.
func (m *Message) NormContains(keywords ...string) bool {
	for _, k := range keywords {
		if !strings.Contains(m.Norm, k) {
			return false
		}
	}
	return true
}

// ContainsAny reports whether the upper-cased line contains any keyword.
func (m *Message) ContainsAny(keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(m.Upper, k) {
			return true
		}
	}
	return false
}

// IsSignaling reports whether a record tag names an RRC or L3 record.
func IsSignaling(tag string) bool {
	tag = strings.ToUpper(tag)
	return strings.Contains(tag, "RRC") || strings.Contains(tag, "L3")
}

// MessageName picks a human-readable message name from a signaling record:
// the first field from index 2 longer than five characters that is not all
// digits.
func MessageName(rec *parser.Record) string {
	for i := 2; i < rec.Len(); i++ {
		f := rec.Fields[i]
		if len(f) > 5 && !allDigits(f) {
			return f
		}
	}
	return "Unknown"
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
