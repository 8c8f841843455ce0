package describe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// MaxFormats is how many formats a scope note lists.
const MaxFormats = 5

// Unidentified replaces blank format names.
const Unidentified = "Unidentified"

// Format report errors.
var (
	ErrReportMissing   = errors.New("format report not found")
	ErrMalformedReport = errors.New("malformed format report")
)

// ReadFormats returns up to MaxFormats format names from a format frequency
// report.
//
// The report is a CSV file whose first row is a header with a non-blank
// first column. Each following row describes one format, most frequent
// first, with the format name in the first column. Report order is kept.
func ReadFormats(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReportMissing, path)
		}

		return nil, fmt.Errorf("opening format report: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s has no header row", ErrMalformedReport, path)
		}

		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedReport, path, err)
	}

	if strings.TrimSpace(header[0]) == "" {
		return nil, fmt.Errorf("%w: %s has a blank header", ErrMalformedReport, path)
	}

	formats := make([]string, 0, MaxFormats)

	for len(formats) < MaxFormats {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedReport, path, err)
		}

		name := row[0]
		if strings.TrimSpace(name) == "" {
			name = Unidentified
		}

		formats = append(formats, name)
	}

	return formats, nil
}

// ScopeNote builds the scope and content note of a package.
func ScopeNote(name string, formats []string) string {
	return fmt.Sprintf("Files from directory titled \"%s\". Most common file formats: %s", name, strings.Join(formats, ", "))
}
