package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSource_Next(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drive.nmf")
	content := `#FF,1.0
GPS,10:00:00.000,,-8.61,41.15

CHI,10:00:01.000,,5
garbage
CELLMEAS,10:00:02.000,,5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path)
	defer src.Close()

	recs := drain(t, src)
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].LineNum != 2 {
		t.Errorf("LineNum = %d, want 2", recs[0].LineNum)
	}
	if recs[0].Source != path {
		t.Errorf("Source = %q, want %q", recs[0].Source, path)
	}
	if recs[2].Tag() != "CELLMEAS" {
		t.Errorf("Tag() = %q, want CELLMEAS", recs[2].Tag())
	}
}

func TestFileSource_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.nmf", "b.nmf"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("GPS,10:00:00.000\n"), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}

	src := NewFileSource(paths...)
	defer src.Close()

	recs := drain(t, src)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[1].Source != paths[1] {
		t.Errorf("Source = %q, want %q", recs[1].Source, paths[1])
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.nmf"))
	if _, err := src.Next(context.Background()); err == nil {
		t.Error("Next() expected error for missing file")
	}
}

func TestFileSource_ContextCancelled(t *testing.T) {
	src := NewReaderSource("mem", strings.NewReader("GPS,10:00:00.000\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.Next(ctx); err == nil {
		t.Error("Next() expected error for cancelled context")
	}
}

func TestReadAll_Limit(t *testing.T) {
	src := NewReaderSource("mem", strings.NewReader(
		"GPS,10:00:00.000\nGPS,10:00:01.000\nGPS,10:00:02.000\n"))

	recs, truncated, err := ReadAll(context.Background(), src, 2)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(recs) != 2 || !truncated {
		t.Errorf("ReadAll() = %d records, truncated %v; want 2, true", len(recs), truncated)
	}

	src = NewReaderSource("mem", strings.NewReader("GPS,10:00:00.000\nGPS,10:00:01.000\n"))
	recs, truncated, err = ReadAll(context.Background(), src, 2)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(recs) != 2 || truncated {
		t.Errorf("ReadAll() at exactly the limit = %d records, truncated %v; want 2, false", len(recs), truncated)
	}

	src = NewReaderSource("mem", strings.NewReader("GPS,10:00:00.000\n"))
	recs, truncated, err = ReadAll(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(recs) != 1 || truncated {
		t.Errorf("ReadAll() = %d records, truncated %v; want 1, false", len(recs), truncated)
	}
}

func TestReaderSource_OverlongLine(t *testing.T) {
	long := "RRCSM,10:00:01.000,,5,2," + strings.Repeat("A", 2*maxLineSize)
	input := "GPS,10:00:00.000\n" + long + "\nCELLMEAS,10:00:02.000,,5\r\n"

	recs := drain(t, NewReaderSource("mem", strings.NewReader(input)))
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[1].Tag() != "CELLMEAS" {
		t.Errorf("Tag() = %q, want CELLMEAS", recs[1].Tag())
	}
	if recs[1].LineNum != 3 {
		t.Errorf("LineNum = %d, want 3", recs[1].LineNum)
	}
}

func TestReaderSource_OverlongLastLine(t *testing.T) {
	input := "GPS,10:00:00.000\nRRCSM,10:00:01.000,,5,2," + strings.Repeat("A", 2*maxLineSize)

	recs := drain(t, NewReaderSource("mem", strings.NewReader(input)))
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
}

func TestFileSource_OverlongLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive.nmf")
	content := "GPS,10:00:00.000\nRRCSM,10:00:01.000," + strings.Repeat("B", maxLineSize+10) + "\nCHI,10:00:02.000,,5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path)
	defer src.Close()

	recs := drain(t, src)
	if len(recs) != 2 || recs[1].Tag() != "CHI" {
		t.Fatalf("got %d records, want GPS and CHI", len(recs))
	}
}
