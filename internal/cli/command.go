package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idelchi/folderprocessor/internal/config"
	"github.com/idelchi/folderprocessor/internal/tools"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
	runner  tools.Runner
	stdout  io.Writer
	stderr  io.Writer
}

// Option configures a CLI.
type Option func(*CLI)

// WithRunner replaces the process runner used for delegated tools.
func WithRunner(r tools.Runner) Option {
	return func(c *CLI) {
		c.runner = r
	}
}

// WithOutput sets the writers for the run summary and for console activity.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *CLI) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// New creates a new CLI instance with the given version.
func New(version string, opts ...Option) CLI {
	c := CLI{version: version, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// flagValues holds flags whose effective value depends on the config file.
type flagValues struct {
	configPath string
	jobs       int
	timeout    time.Duration
	copier     string
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	cfg := config.Default()

	var values flagValues

	cmd := &cobra.Command{
		Use:     "folderprocessor [flags] source destination",
		Short:   "Build archival packages and a description spreadsheet from directories",
		Version: c.version,
		Long: heredoc.Doc(`
			folderprocessor turns directories of digital files into Submission
			Information Packages (SIPs) and writes a description spreadsheet with
			one row per package.

			Each package is created under destination/SIPs/<name> and receives a
			copy of the source, fixity information (a checksum manifest or, with
			--bagfiles, a bag), normalized permissions and a format report.

			Positional Arguments:
			  source                 Directory to package. With --children, each
			                         immediate subdirectory becomes its own package.
			  destination            Directory receiving SIPs, the run log and
			                         description.csv. Created if missing.

			Settings not given as flags are read from the --config TOML file.
		`),
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Source, cfg.Destination = args[0], args[1]

			resolved, err := resolve(cmd.Flags(), cfg, values)
			if err != nil {
				return err
			}

			return logic(cmd.Context(), resolved, c.runner, c.stdout, c.stderr)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&cfg.Bag, "bagfiles", "b", false, "Bag each package instead of writing a checksum manifest")
	flags.BoolVarP(&cfg.Children, "children", "c", false, "Package each immediate subdirectory of source separately")
	flags.BoolVarP(&cfg.PIIScan, "piiscan", "p", false, "Scan for personally identifiable information during characterization")
	flags.StringVar(&values.configPath, "config", "", "Path to a TOML configuration file")
	flags.IntVarP(&values.jobs, "jobs", "j", cfg.Jobs, "Number of packages to build concurrently")
	flags.DurationVar(&values.timeout, "timeout", 0, "Time limit for each delegated tool call (0=none)")
	flags.StringVar(&values.copier, "copier", cfg.Copier, "Copy implementation: rsync or builtin")
	flags.StringVarP(&cfg.Output, "output", "o", config.OutputTable, "Summary format: table, json or yaml")
	flags.BoolVar(&cfg.Debug, "debug", false, "Enable debug output")

	return cmd
}

// resolve applies the config file, then any explicitly set flags, and
// validates the result.
func resolve(flags *pflag.FlagSet, cfg config.Config, values flagValues) (config.Config, error) {
	if values.configPath != "" {
		if err := config.Load(values.configPath, &cfg); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("jobs") {
		cfg.Jobs = values.jobs
	}

	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration(values.timeout)
	}

	if flags.Changed("copier") {
		cfg.Copier = values.copier
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Execute runs the root command with styled help and errors.
func (c CLI) Execute(ctx context.Context) error {
	return fang.Execute(ctx, c.Command())
}
