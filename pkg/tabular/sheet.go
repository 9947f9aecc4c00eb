package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// headerScanRows is how many leading rows are searched for the header row.
const headerScanRows = 50

// Sheet is a table of string cells with a located header row.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ReadSheet reads a CSV or XLSX file, chosen by extension.
func ReadSheet(path string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	default:
		return ReadCSV(path)
	}
}

// ReadCSV reads a comma separated file. Quotes are parsed leniently and
// rows may have differing lengths.
func ReadCSV(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sheet: %w", err)
	}
	defer f.Close()

	return ParseCSV(filepath.Base(path), f)
}

// ParseCSV reads CSV rows from r.
func ParseCSV(name string, r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return newSheet(name, rows), nil
}

// ReadXLSX reads the first worksheet of a workbook.
func ReadXLSX(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return newSheet(filepath.Base(path), rows), nil
}

// newSheet splits rows into header and data. The header is the first row
// among the leading rows that names both coordinates; when none does, the
// first row is used.
func newSheet(name string, rows [][]string) *Sheet {
	s := &Sheet{Name: name}
	if len(rows) == 0 {
		return s
	}

	at := 0
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		norm := normalizeAll(rows[i])
		if findLat(norm) >= 0 && findLng(norm) >= 0 {
			at = i
			break
		}
	}
	s.Header = rows[at]
	s.Rows = rows[at+1:]
	return s
}

// cell returns row[i] trimmed, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
