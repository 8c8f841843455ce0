package describe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileName is the name of the spreadsheet inside the destination directory.
const FileName = "description.csv"

// Sheet appends description records to a comma-delimited file in which
// every value is quoted. Appends are serialized.
type Sheet struct {
	mu     sync.Mutex
	file   io.WriteCloser
	w      *bufio.Writer
	count  int
	closed bool

	// path and tmp are set for sheets staged by CreateSheet.
	path string
	tmp  string
}

// CreateSheet stages a new spreadsheet for path and writes the header row.
// Rows go to a temporary file in the same directory; Close moves it to path
// unless path already exists and no record was appended, so a run that
// describes nothing never replaces an earlier spreadsheet.
func CreateSheet(path string) (*Sheet, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+FileName+"-*")
	if err != nil {
		return nil, fmt.Errorf("creating description spreadsheet: %w", err)
	}

	s := NewSheet(f)
	s.path = path
	s.tmp = f.Name()

	if err := s.writeRow(Header[:]); err != nil {
		f.Close()
		os.Remove(s.tmp)

		return nil, fmt.Errorf("writing spreadsheet header: %w", err)
	}

	return s, nil
}

// NewSheet wraps an open writer. No header is written.
func NewSheet(w io.WriteCloser) *Sheet {
	return &Sheet{file: w, w: bufio.NewWriter(w)}
}

// Append writes one record.
func (s *Sheet) Append(r Record) error {
	row := r.Row()

	if err := s.writeRow(row[:]); err != nil {
		return fmt.Errorf("writing record %s: %w", r.Identifier, err)
	}

	s.mu.Lock()
	s.count++
	s.mu.Unlock()

	return nil
}

// Len returns the number of records appended.
func (s *Sheet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count
}

func (s *Sheet) writeRow(fields []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return os.ErrClosed
	}

	var b strings.Builder

	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}

	b.WriteString("\r\n")

	if _, err := s.w.WriteString(b.String()); err != nil {
		return err
	}

	return s.w.Flush()
}

// Close flushes and closes the spreadsheet and, for staged sheets, puts it
// in place. Calling Close again is a no-op.
func (s *Sheet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if err := s.w.Flush(); err != nil {
		s.file.Close()
		s.discard()

		return fmt.Errorf("flushing description spreadsheet: %w", err)
	}

	if err := s.file.Close(); err != nil {
		s.discard()

		return fmt.Errorf("closing description spreadsheet: %w", err)
	}

	if s.tmp == "" {
		return nil
	}

	if s.count == 0 {
		if _, err := os.Stat(s.path); err == nil {
			s.discard()

			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			s.discard()

			return fmt.Errorf("checking description spreadsheet: %w", err)
		}
	}

	if err := os.Chmod(s.tmp, 0o644); err != nil {
		s.discard()

		return fmt.Errorf("placing description spreadsheet: %w", err)
	}

	if err := os.Rename(s.tmp, s.path); err != nil {
		s.discard()

		return fmt.Errorf("placing description spreadsheet: %w", err)
	}

	return nil
}

func (s *Sheet) discard() {
	if s.tmp != "" {
		os.Remove(s.tmp)
	}
}
