package describe

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/folderprocessor/internal/dirstat"
	"github.com/idelchi/folderprocessor/internal/sip"
)

// Logger receives description-pass entries.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Appender receives finished records.
type Appender interface {
	Append(r Record) error
}

// Description is the outcome of describing one package.
type Description struct {
	// Record is the row written to the spreadsheet.
	Record Record
	// Stats are the object tree statistics.
	Stats *dirstat.Stats
	// Warning explains a blank scope note.
	Warning string
	// Err is set when no record could be produced.
	Err error
}

// Generator describes every package in a SIPs directory.
type Generator struct {
	// SIPsDir is the directory holding the packages.
	SIPsDir string
	// Bag reports whether packages were bagged.
	Bag bool
	// Skip names packages that must not be described.
	Skip map[string]bool
	// Sheet receives the records.
	Sheet Appender
	// Log receives progress entries.
	Log Logger
	// Progress, when set, is called periodically during each tree walk.
	Progress func(files, bytes int64)
	// Debug enables walk debug output.
	Debug bool
}

// Describe writes one record per package directory, in lexicographic order
// of package names. A package whose object tree cannot be walked gets no
// record; a package whose format report is missing or malformed gets a
// record with a blank scope note. Only listing the SIPs directory or
// writing to the sheet aborts the pass.
func (g Generator) Describe(ctx context.Context) ([]Description, error) {
	entries, err := os.ReadDir(g.SIPsDir)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}

	var descriptions []Description

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()
		if g.Skip[name] {
			g.Log.Warnf("Skipping description of %s: package was not built.", name)

			continue
		}

		if err := ctx.Err(); err != nil {
			return descriptions, err
		}

		desc := g.describe(ctx, sip.NewLayout(g.SIPsDir, name, g.Bag))
		if desc.Err != nil {
			g.Log.Errorf("Could not describe %s: %v", name, desc.Err)
			descriptions = append(descriptions, desc)

			continue
		}

		if err := g.Sheet.Append(desc.Record); err != nil {
			return descriptions, err
		}

		descriptions = append(descriptions, desc)

		g.Log.Infof("Described %s successfully (%s files, %s).",
			name, humanize.Comma(desc.Stats.FileCount), desc.Record.Extent)
	}

	g.Log.Infof("All SIPs described in spreadsheet. Process complete.")

	return descriptions, nil
}

func (g Generator) describe(ctx context.Context, layout sip.Layout) Description {
	desc := Description{Record: Record{Identifier: layout.Name}}

	stats, err := dirstat.Run(ctx, dirstat.Options{Path: layout.Objects(), Debug: g.Debug}, g.Progress)
	if err != nil {
		desc.Err = fmt.Errorf("collecting statistics: %w", err)

		return desc
	}

	if stats.ErrorCount > 0 {
		g.Log.Warnf("%d entries under %s could not be inspected and are not counted.", stats.ErrorCount, layout.Objects())
	}

	desc.Stats = stats
	desc.Record.Extent = Extent(stats.FileCount, stats.TotalBytes)
	desc.Record.Dates = Dates(stats.ModTimes)

	if desc.Record.Extent == Empty {
		return desc
	}

	formats, err := ReadFormats(layout.FormatReport())
	if err != nil {
		desc.Warning = err.Error()
		g.Log.Warnf("Scope note for %s left blank: %v", layout.Name, err)

		return desc
	}

	desc.Record.Scope = ScopeNote(layout.Name, formats)

	return desc
}
