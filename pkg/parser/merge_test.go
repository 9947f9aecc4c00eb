package parser

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func drain(t *testing.T, src RecordSource) []*Record {
	t.Helper()
	ctx := context.Background()
	var out []*Record
	for {
		rec, err := src.Next(ctx)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, rec)
	}
}

func TestMergedSource_Chronological(t *testing.T) {
	a := NewReaderSource("a", strings.NewReader(
		"GPS,10:00:00.000,a1\nGPS,10:00:02.000,a2\nGPS,10:00:04.000,a3\n"))
	b := NewReaderSource("b", strings.NewReader(
		"GPS,10:00:01.000,b1\nGPS,10:00:03.000,b2\n"))

	merged := NewMergedSource(a, b)
	defer merged.Close()

	recs := drain(t, merged)
	want := []string{"a1", "b1", "a2", "b2", "a3"}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for i, w := range want {
		if got, _ := recs[i].String(2); got != w {
			t.Errorf("record %d = %q, want %q", i, got, w)
		}
	}
}

func TestMergedSource_TiesKeepSourceOrder(t *testing.T) {
	a := NewReaderSource("a", strings.NewReader("GPS,10:00:00.000,first\n"))
	b := NewReaderSource("b", strings.NewReader("GPS,10:00:00.000,second\n"))

	recs := drain(t, NewMergedSource(a, b))
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Source != "a" || recs[1].Source != "b" {
		t.Errorf("tie order = %s,%s; want a,b", recs[0].Source, recs[1].Source)
	}
}

func TestMergedSource_Empty(t *testing.T) {
	merged := NewMergedSource()
	if _, err := merged.Next(context.Background()); err != io.EOF {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}

func TestMergedSource_OneEmptySource(t *testing.T) {
	a := NewReaderSource("a", strings.NewReader("GPS,10:00:00.000\n"))
	b := NewReaderSource("b", strings.NewReader(""))

	if got := len(drain(t, NewMergedSource(a, b))); got != 1 {
		t.Errorf("got %d records, want 1", got)
	}
}

func TestMergedSource_CloseClosesFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.nmf")
	if err := os.WriteFile(path, []byte("GPS,10:00:00.000\nGPS,10:00:01.000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path)
	merged := NewMergedSource(src)
	if _, err := merged.Next(context.Background()); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if err := merged.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if src.currentFile != nil {
		t.Error("file still open after Close()")
	}
}
