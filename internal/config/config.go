// Package config holds the run-wide configuration of folderprocessor.
//
// Values come from built-in defaults, an optional TOML file and command-line
// flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
	ignore "github.com/sabhiram/go-gitignore"
)

// Copier names.
const (
	CopierRsync   = "rsync"
	CopierBuiltin = "builtin"
)

// Summary output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// DefaultExcludes lists OS-generated noise files never copied into a package.
//
//nolint:gochecknoglobals // Config constant
var DefaultExcludes = []string{".DS_Store", "._*", "Thumbs.db", "desktop.ini"}

// Tools names the external programs the package builder delegates to.
type Tools struct {
	Rsync          string `toml:"rsync"`
	Bagit          string `toml:"bagit"`
	BagitProcesses int    `toml:"bagit_processes"`
	Md5deep        string `toml:"md5deep"`
	Brunnhilde     string `toml:"brunnhilde"`
}

// Config is the complete run configuration.
type Config struct {
	// Source is the directory to package (or whose children to package).
	Source string `toml:"-"`
	// Destination receives SIPs, the run log and the description spreadsheet.
	Destination string `toml:"-"`
	// Bag selects bag mode instead of a flat checksum manifest.
	Bag bool `toml:"-"`
	// Children packages each immediate subdirectory of Source separately.
	Children bool `toml:"-"`
	// PIIScan enables the PII scan during characterization.
	PIIScan bool `toml:"-"`

	// Jobs bounds how many packages are built at once.
	Jobs int `toml:"jobs"`
	// Timeout limits each delegated tool call (0 = no limit).
	Timeout Duration `toml:"timeout"`
	// Copier selects the bulk copy implementation.
	Copier string `toml:"copier"`
	// Excludes holds gitignore-style patterns of files never copied.
	Excludes []string `toml:"excludes"`
	// Tools names the delegated programs.
	Tools Tools `toml:"tools"`

	// Output is the format of the end-of-run summary.
	Output string `toml:"-"`
	// Debug enables debug output.
	Debug bool `toml:"-"`
}

// Duration is a time.Duration that reads from TOML strings such as "90m".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}

	*d = Duration(parsed)

	return nil
}

// MarshalText renders the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Jobs:     1,
		Copier:   CopierRsync,
		Excludes: slices.Clone(DefaultExcludes),
		Tools: Tools{
			Rsync:          "rsync",
			Bagit:          "bagit.py",
			BagitProcesses: 4,
			Md5deep:        "md5deep",
			Brunnhilde:     "brunnhilde.py",
		},
		Output: OutputTable,
	}
}

// Load overlays the TOML file at path onto cfg. Keys missing from the file
// keep their current values.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %q: %w", path, err)
	}

	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Source == "" || c.Destination == "" {
		return errors.New("source and destination are required")
	}

	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}

	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}

	allowedCopiers := []string{CopierRsync, CopierBuiltin}
	if !slices.Contains(allowedCopiers, c.Copier) {
		return fmt.Errorf("invalid copier %q: must be one of %v", c.Copier, allowedCopiers)
	}

	allowedOutputs := []string{OutputTable, OutputJSON, OutputYAML}
	if !slices.Contains(allowedOutputs, c.Output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", c.Output, allowedOutputs)
	}

	if c.Tools.BagitProcesses < 1 {
		return fmt.Errorf("bagit_processes must be at least 1, got %d", c.Tools.BagitProcesses)
	}

	for _, pattern := range c.Excludes {
		if pattern == "" || pattern[0] == '!' {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	return nil
}

// ExcludeMatcher compiles Excludes into a gitignore matcher.
func (c Config) ExcludeMatcher() *ignore.GitIgnore {
	return ignore.CompileIgnoreLines(c.Excludes...)
}
