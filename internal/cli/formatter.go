package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v2"

	"github.com/idelchi/folderprocessor/internal/config"
	"github.com/idelchi/folderprocessor/internal/describe"
	"github.com/idelchi/folderprocessor/internal/sip"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2

	// SummaryFileName is the run summary written inside the destination.
	SummaryFileName = "folderprocessor-summary.yaml"
)

// Package statuses.
const (
	StatusBuilt  = "built"
	StatusFailed = "failed"
)

// Summary is the end-of-run report.
type Summary struct {
	RunID       string           `json:"run_id"      yaml:"run_id"`
	Source      string           `json:"source"      yaml:"source"`
	Destination string           `json:"destination" yaml:"destination"`
	Mode        string           `json:"mode"        yaml:"mode"`
	Packages    []PackageSummary `json:"packages"    yaml:"packages"`
	Elapsed     time.Duration    `json:"elapsed"     yaml:"elapsed"`
}

// PackageSummary reports one source directory.
type PackageSummary struct {
	Name   string `json:"name"             yaml:"name"`
	Source string `json:"source"           yaml:"source"`
	Status string `json:"status"           yaml:"status"`
	Error  string `json:"error,omitempty"  yaml:"error,omitempty"`
	Extent string `json:"extent,omitempty" yaml:"extent,omitempty"`
	Dates  string `json:"dates,omitempty"  yaml:"dates,omitempty"`
	Files  int64  `json:"files"            yaml:"files"`
	Bytes  int64  `json:"bytes"            yaml:"bytes"`
}

// Failed returns the number of failed packages.
func (s *Summary) Failed() int {
	n := 0

	for _, p := range s.Packages {
		if p.Status == StatusFailed {
			n++
		}
	}

	return n
}

func summarize(
	cfg config.Config,
	sess *session,
	builder *sip.Builder,
	failed map[string]error,
	descriptions []describe.Description,
) *Summary {
	summary := &Summary{
		RunID:       sess.id,
		Source:      cfg.Source,
		Destination: cfg.Destination,
		Mode:        "manifest",
	}

	if builder.Bag() {
		summary.Mode = "bag"
	}

	byName := make(map[string]describe.Description, len(descriptions))
	for _, d := range descriptions {
		byName[d.Record.Identifier] = d
	}

	for _, src := range sess.sources {
		p := PackageSummary{Name: builder.Layout(src).Name, Source: src, Status: StatusBuilt}

		if err, ok := failed[src]; ok {
			p.Status = StatusFailed
			p.Error = err.Error()
			summary.Packages = append(summary.Packages, p)

			continue
		}

		if d, ok := byName[p.Name]; ok {
			switch {
			case d.Err != nil:
				p.Error = d.Err.Error()
			case d.Warning != "":
				p.Error = d.Warning
			}

			p.Extent = d.Record.Extent
			p.Dates = d.Record.Dates.Statement

			if d.Stats != nil {
				p.Files = d.Stats.FileCount
				p.Bytes = d.Stats.TotalBytes
			}
		}

		summary.Packages = append(summary.Packages, p)
	}

	return summary
}

// WriteSummary stores the summary as YAML at path.
func WriteSummary(path string, summary *Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding run summary: %w", err)
	}

	if err := os.WriteFile(path, data, sip.FileMode); err != nil {
		return fmt.Errorf("writing run summary: %w", err)
	}

	return nil
}

// PrintJSON outputs the summary in JSON format.
func PrintJSON(summary *Summary, writer io.Writer) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintYAML outputs the summary in YAML format.
func PrintYAML(summary *Summary, writer io.Writer) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding YAML output: %w", err)
	}

	_, err = writer.Write(data)

	return err
}

// PrintTable outputs the summary in human-readable table format.
func PrintTable(summary *Summary, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintln(w, "\nPackages:\t\t\t\t")

	for i, p := range summary.Packages {
		detail := p.Extent
		if p.Status == StatusBuilt {
			detail = fmt.Sprintf("%s files, %s", humanize.Comma(p.Files), humanize.IBytes(uint64(p.Bytes))) //nolint:gosec // Bytes is always positive
		}

		fmt.Fprintf(w, "  %d) %s\t%s\t%s\t%s\n", i+1, p.Name, p.Status, detail, p.Dates)

		if p.Error != "" {
			fmt.Fprintf(w, "     %s\t\t\t\n", p.Error)
		}
	}

	fmt.Fprintln(w, "\nStats:\t\t\t\t")
	fmt.Fprintf(w, "Run:\t%s\n", summary.RunID)
	fmt.Fprintf(w, "Mode:\t%s\n", summary.Mode)
	fmt.Fprintf(w, "Built:\t%d\n", len(summary.Packages)-summary.Failed())
	fmt.Fprintf(w, "Failed:\t%d\n", summary.Failed())

	fmt.Fprintf(w, "\nElapsed:\t%v\n", summary.Elapsed)

	return w.Flush()
}
