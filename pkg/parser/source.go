package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single record line. Longer lines are dropped.
const maxLineSize = 1024 * 1024

// RecordSource provides an iterator over tokenized records.
// Implementations must be safe for sequential access (not concurrent).
type RecordSource interface {
	// Next returns the next record.
	// Returns io.EOF when no more records are available.
	// Blank, comment and timestamp-less lines are skipped.
	Next(ctx context.Context) (*Record, error)

	// Close releases any resources held by the source.
	Close() error
}

// FileSource implements RecordSource over one or more files read in order.
type FileSource struct {
	files []string

	currentFile   *os.File
	currentReader *lineReader
	currentSource string
	currentLine    int
	fileIndex      int
}

// NewFileSource creates a RecordSource that reads the given files in order.
func NewFileSource(files ...string) *FileSource {
	return &FileSource{
		files:     files,
		fileIndex: -1,
	}
}

// Next returns the next record across all files.
func (s *FileSource) Next(ctx context.Context) (*Record, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentReader == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		line, ok, err := s.currentReader.next()
		if err == io.EOF {
			if err := s.closeCurrentFile(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.currentSource, err)
		}

		s.currentLine++
		if !ok {
			continue
		}
		rec, ok := Tokenize(line)
		if !ok {
			continue
		}
		rec.Source = s.currentSource
		rec.LineNum = s.currentLine
		return &rec, nil
	}
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	s.currentFile = f
	s.currentReader = newLineReader(f)
	s.currentSource = path
	s.currentLine = 0
	return nil
}

func (s *FileSource) closeCurrentFile() error {
	s.currentReader = nil
	if s.currentFile != nil {
		err := s.currentFile.Close()
		s.currentFile = nil
		return err
	}
	return nil
}

// ReaderSource implements RecordSource over an arbitrary reader, e.g. an
// upload body or an in-memory log.
type ReaderSource struct {
	name   string
	reader *lineReader
	line   int
}

// NewReaderSource creates a RecordSource reading from r. The name is recorded
// as each record's Source.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{
		name:   name,
		reader: newLineReader(r),
	}
}

// Next returns the next record from the reader.
func (s *ReaderSource) Next(ctx context.Context) (*Record, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, ok, err := s.reader.next()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.name, err)
		}

		s.line++
		if !ok {
			continue
		}
		rec, ok := Tokenize(line)
		if !ok {
			continue
		}
		rec.Source = s.name
		rec.LineNum = s.line
		return &rec, nil
	}
}

// Close is a no-op; the caller owns the reader.
func (s *ReaderSource) Close() error {
	return nil
}

// ReadAll drains src into memory. A positive limit caps the number of records
// read; truncated reports whether records were left unread.
func ReadAll(ctx context.Context, src RecordSource, limit int) (records []*Record, truncated bool, err error) {
	for {
		rec, err := src.Next(ctx)
		if err == io.EOF {
			return records, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if limit > 0 && len(records) >= limit {
			return records, true, nil
		}
		records = append(records, rec)
	}
}

// lineReader splits input into lines, dropping lines over maxLineSize.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, maxLineSize)}
}

// next returns the next line without its terminator. ok is false for a line
// that was too long and has been discarded. The error is io.EOF once the
// input is exhausted.
func (l *lineReader) next() (line string, ok bool, err error) {
	b, err := l.r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = l.r.ReadSlice('\n')
		}
		if err != nil && err != io.EOF {
			return "", false, err
		}
		return "", false, nil
	}
	if err == io.EOF && len(b) > 0 {
		err = nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(string(b), "\r\n"), true, nil
}
