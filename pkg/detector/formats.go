package detector

import (
	"regexp"
)

// Kind is the broad shape of an input file.
type Kind string

const (
	// KindTaggedLog is a line-oriented log of tagged records.
	KindTaggedLog Kind = "tagged_log"
	// KindSheet is a table with a header row, as CSV or XLSX.
	KindSheet Kind = "sheet"
)

// InputFormat is a known input format.
type InputFormat struct {
	Name     string   // Human-readable name
	Kind     Kind     // Which pipeline reads it
	Command  string   // CLI command that processes it
	Examples []string // Example lines
}

// Built-in formats.
var (
	FormatTaggedLog = &InputFormat{
		Name:     "Tagged drive-test log",
		Kind:     KindTaggedLog,
		Command:  "decode",
		Examples: []string{"CELLMEAS,10:00:00.000,,5,0,1,...", "GPS,10:00:00.000,,-8.61,41.15"},
	}
	FormatDelimitedSheet = &InputFormat{
		Name:     "Delimited sheet",
		Kind:     KindSheet,
		Command:  "import",
		Examples: []string{"Time,Latitude,Longitude,RSCP,EcNo"},
	}
	FormatWorkbook = &InputFormat{
		Name:     "Excel workbook",
		Kind:     KindSheet,
		Command:  "import",
		Examples: []string{"drive.xlsx"},
	}
)

// DefaultFormats returns the built-in input formats.
func DefaultFormats() []*InputFormat {
	return []*InputFormat{FormatTaggedLog, FormatDelimitedSheet, FormatWorkbook}
}

// recordTag matches the tag field of a tagged record.
var recordTag = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// KnownTags are the record tags the decoder interprets.
var KnownTags = map[string]bool{
	"CELLMEAS": true,
	"CHI":      true,
	"EDCHI":    true,
	"PCHI":     true,
	"CREL":     true,
	"GPS":      true,
	"TXPC":     true,
	"RXPC":     true,
	"RLCBLER":  true,
	"MACBLER":  true,
	"RRCSM":    true,
	"L3SM":     true,
	"RRD":      true,
	"RRA":      true,
	"CAF":      true,
}
