package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/folderprocessor/internal/config"
	"github.com/idelchi/folderprocessor/internal/describe"
	"github.com/idelchi/folderprocessor/internal/runlog"
	"github.com/idelchi/folderprocessor/internal/sip"
	"github.com/idelchi/folderprocessor/internal/tools"
)

// ErrPackagesFailed is returned when at least one package could not be built.
var ErrPackagesFailed = errors.New("some packages failed")

// session holds the per-run artifacts opened during setup.
type session struct {
	id      string
	sipsDir string
	sources []string
	log     *runlog.Log
	sheet   *describe.Sheet
}

func (s *session) close() error {
	return errors.Join(s.sheet.Close(), s.log.Close())
}

func logic(ctx context.Context, cfg config.Config, runner tools.Runner, stdout, stderr io.Writer) error {
	start := time.Now()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := setup(cfg, stderr)
	if err != nil {
		return err
	}
	defer sess.close()

	if runner == nil {
		runner = tools.ExecRunner{Timeout: time.Duration(cfg.Timeout), Stdout: stderr, Stderr: stderr}
	}

	builder, err := newBuilder(cfg, runner, sess)
	if err != nil {
		return err
	}

	failed := build(ctx, builder, sess, cfg.Jobs)

	skip := make(map[string]bool, len(failed))
	for src := range failed {
		skip[builder.Layout(src).Name] = true
	}

	progressHook, done := progress(cfg, stderr)

	descriptions, err := describe.Generator{
		SIPsDir:  sess.sipsDir,
		Bag:      cfg.Bag,
		Skip:     skip,
		Sheet:    sess.sheet,
		Log:      sess.log,
		Progress: progressHook,
		Debug:    cfg.Debug,
	}.Describe(ctx)

	done()

	if err != nil {
		sess.log.Errorf("Description pass aborted: %v", err)

		return fmt.Errorf("describing packages: %w", err)
	}

	sess.log.Infof("Records written to %s: %d.", describe.FileName, sess.sheet.Len())

	summary := summarize(cfg, sess, builder, failed, descriptions)
	summary.Elapsed = time.Since(start)

	if err := WriteSummary(filepath.Join(cfg.Destination, SummaryFileName), summary); err != nil {
		sess.log.Errorf("%v", err)

		return err
	}

	if err := printSummary(cfg.Output, summary, stdout); err != nil {
		return err
	}

	if err := sess.close(); err != nil {
		return err
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrPackagesFailed, len(failed), len(sess.sources))
	}

	return nil
}

// setup resolves and validates the source and opens the run log and the spreadsheet.
// Nothing is packaged when setup fails.
func setup(cfg config.Config, console io.Writer) (*session, error) {
	source, err := filepath.Abs(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("resolving source: %w", err)
	}

	if name := filepath.Base(source); name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("source %q has no directory name to give its package", cfg.Source)
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("accessing source: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("source %q is not a directory", cfg.Source)
	}

	sources, err := listSources(source, cfg.Children)
	if err != nil {
		return nil, err
	}

	sipsDir := filepath.Join(cfg.Destination, sip.SIPsDir)
	if err := os.MkdirAll(sipsDir, sip.DirMode); err != nil {
		return nil, fmt.Errorf("creating SIPs directory: %w", err)
	}

	log, err := runlog.Create(filepath.Join(cfg.Destination, runlog.FileName), runlog.WithConsole(console))
	if err != nil {
		return nil, err
	}

	sess := &session{id: uuid.NewString(), sipsDir: sipsDir, sources: sources, log: log}

	log.Infof("Log file started.")
	log.Infof("Run %s", sess.id)
	log.Infof("Source of folders: %s", source)

	sess.sheet, err = describe.CreateSheet(filepath.Join(cfg.Destination, describe.FileName))
	if err != nil {
		log.Errorf("%v", err)
		log.Close()

		return nil, err
	}

	log.Infof("Description spreadsheet created.")

	if len(sources) == 0 {
		log.Warnf("No subdirectories found in %s.", source)
	}

	return sess, nil
}

// listSources returns source itself, or its immediate subdirectories in
// lexicographic order.
func listSources(source string, children bool) ([]string, error) {
	if !children {
		return []string{source}, nil
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return nil, fmt.Errorf("listing source: %w", err)
	}

	var sources []string

	for _, e := range entries {
		if e.IsDir() {
			sources = append(sources, filepath.Join(source, e.Name()))
		}
	}

	return sources, nil
}

func newBuilder(cfg config.Config, runner tools.Runner, sess *session) (*sip.Builder, error) {
	var copier sip.Copier = tools.Rsync{Runner: runner, Binary: cfg.Tools.Rsync, Excludes: cfg.Excludes}
	if cfg.Copier == config.CopierBuiltin {
		copier = tools.Builtin{Exclude: cfg.ExcludeMatcher()}
	}

	mode := sip.WithManifest(tools.Md5deep{Runner: runner, Binary: cfg.Tools.Md5deep})
	if cfg.Bag {
		mode = sip.WithBagging(tools.Bagit{Runner: runner, Binary: cfg.Tools.Bagit, Processes: cfg.Tools.BagitProcesses})
	}

	return sip.NewBuilder(sess.sipsDir,
		copier,
		tools.Brunnhilde{Runner: runner, Binary: cfg.Tools.Brunnhilde},
		sess.log,
		mode,
		sip.WithPIIScan(cfg.PIIScan),
	)
}

// build constructs every package, at most jobs at a time, and returns the
// error of each source that failed. A failure never stops the others.
func build(ctx context.Context, builder *sip.Builder, sess *session, jobs int) map[string]error {
	errs := make([]error, len(sess.sources))

	var g errgroup.Group

	g.SetLimit(max(1, jobs))

	for i, src := range sess.sources {
		g.Go(func() error {
			if _, err := builder.Build(ctx, src); err != nil {
				sess.log.Errorf("Could not process %s: %v. Skipping.", src, err)
				errs[i] = err
			}

			return nil
		})
	}

	_ = g.Wait()

	failed := make(map[string]error)

	for i, err := range errs {
		if err != nil {
			failed[sess.sources[i]] = err
		}
	}

	return failed
}

// progress returns the description walk hook and a function clearing the
// status line. The hook is nil unless stderr is a terminal and debug is off.
func progress(cfg config.Config, stderr io.Writer) (func(files, bytes int64), func()) {
	f, ok := stderr.(*os.File)

	enableProgress := ok &&
		cfg.Output != config.OutputJSON &&
		!cfg.Debug &&
		isatty.IsTerminal(f.Fd())

	if !enableProgress {
		return nil, func() {}
	}

	// Hide cursor for in-place updates; restore when done.
	fmt.Fprint(f, "\033[?25l")

	hook := func(files, bytes int64) {
		msg := fmt.Sprintf("Scanning… %d files, %s",
			files, humanize.IBytes(uint64(bytes))) //nolint:gosec // Bytes is always positive
		fmt.Fprintf(f, "\r\033[2K%s\r", msg)
	}

	return hook, func() {
		fmt.Fprint(f, "\r\033[2K\r\033[?25h")
	}
}

func printSummary(output string, summary *Summary, w io.Writer) error {
	switch output {
	case config.OutputJSON:
		return PrintJSON(summary, w)
	case config.OutputYAML:
		return PrintYAML(summary, w)
	case config.OutputTable:
		return PrintTable(summary, w)
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}
}
