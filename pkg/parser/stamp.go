package parser

import (
	"strings"
	"time"
)

// clockLayout parses HH:MM:SS; a trailing fractional second is accepted by
// time.Parse without being in the layout.
const clockLayout = "15:04:05"

// Stamp is a record timestamp. Drive-test tools log a time of day
// (HH:MM:SS.mmm) without a date.
type Stamp struct {
	// Text is the timestamp as it appeared in the record.
	Text string

	// Offset is the time since midnight. Only meaningful when Valid.
	Offset time.Duration

	// Valid is true when Text parsed as a clock time.
	Valid bool
}

// ParseStamp parses a clock timestamp. Unparseable text yields a Stamp that
// still orders lexicographically.
func ParseStamp(s string) Stamp {
	s = strings.TrimSpace(s)
	st := Stamp{Text: s}

	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return st
	}

	st.Offset = time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	st.Valid = true
	return st
}

// Compare returns -1, 0 or +1. Two valid stamps compare by offset; otherwise
// the raw text is compared.
func (s Stamp) Compare(o Stamp) int {
	if s.Valid && o.Valid {
		switch {
		case s.Offset < o.Offset:
			return -1
		case s.Offset > o.Offset:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(s.Text, o.Text)
}

// Before reports whether s is strictly earlier than o.
func (s Stamp) Before(o Stamp) bool {
	return s.Compare(o) < 0
}

// String returns the original text.
func (s Stamp) String() string {
	return s.Text
}
