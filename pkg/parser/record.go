// Package parser reads drive-test record streams and splits them into
// positional records.
//
// A record is one comma-separated line. Field 0 is the record tag (CHI, GPS,
// CELLMEAS, RRCSM, ...) and field 1 the clock timestamp. Field meaning beyond
// that depends on the tag and on a technology code, so records are accessed
// by position through typed, fallible accessors.
package parser

import (
	"math"
	"strconv"
	"strings"
)

// Record is a single tokenized line.
type Record struct {
	// Fields holds the trimmed comma-separated fields.
	Fields []string

	// Raw is the trimmed line content.
	Raw string

	// Source is the file (or stream name) the line came from.
	Source string

	// LineNum is the 1-based line number in the source.
	LineNum int

	stamp Stamp
}

// Tokenize splits a raw line into a Record.
// Blank lines, '#' comments and lines without a timestamp field are rejected.
func Tokenize(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Record{}, false
	}

	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = unquote(strings.TrimSpace(p))
	}

	if len(parts) < 2 || parts[1] == "" {
		return Record{}, false
	}

	return Record{
		Fields: parts,
		Raw:    line,
		stamp:  ParseStamp(parts[1]),
	}, true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Tag returns the upper-cased record tag.
func (r *Record) Tag() string {
	if len(r.Fields) == 0 {
		return ""
	}
	return strings.ToUpper(r.Fields[0])
}

// Time returns the raw timestamp text.
func (r *Record) Time() string {
	if len(r.Fields) < 2 {
		return ""
	}
	return r.Fields[1]
}

// Stamp returns the parsed timestamp.
func (r *Record) Stamp() Stamp {
	return r.stamp
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.Fields)
}

// Has reports whether field i exists and is non-empty.
func (r *Record) Has(i int) bool {
	return i >= 0 && i < len(r.Fields) && r.Fields[i] != ""
}

// String returns field i, or false when it is missing or empty.
func (r *Record) String(i int) (string, bool) {
	if !r.Has(i) {
		return "", false
	}
	return r.Fields[i], true
}

// Float returns field i as a finite number.
func (r *Record) Float(i int) (float64, bool) {
	s, ok := r.String(i)
	if !ok {
		return 0, false
	}
	return ParseFloat(s)
}

// Int returns field i as an integer. Integral float text such as "3.0" is
// accepted; fractional values are not.
func (r *Record) Int(i int) (int, bool) {
	s, ok := r.String(i)
	if !ok {
		return 0, false
	}
	return ParseInt(s)
}

// ParseFloat parses a finite float. NaN and infinities are treated as absent.
func ParseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseInt parses a base-10 integer, accepting integral float text.
func ParseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, ok := ParseFloat(s)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
