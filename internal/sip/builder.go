package sip

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrPackageExists is returned when the package root is already present.
// Packages are never overwritten.
var ErrPackageExists = errors.New("package directory already exists")

// Logger receives progress entries.
type Logger interface {
	Infof(format string, args ...any)
}

// Copier copies the contents of src into dst.
type Copier interface {
	Copy(ctx context.Context, src, dst string) error
}

// Bagger bags a directory in place.
type Bagger interface {
	Bag(ctx context.Context, dir string) error
}

// Manifester writes a checksum manifest of objects to out.
type Manifester interface {
	Manifest(ctx context.Context, objects, out string) error
}

// Reporter characterizes objects into outDir under the given report name.
type Reporter interface {
	Report(ctx context.Context, objects, outDir, name string, piiScan bool) error
}

// step is one stage of package construction, logged on entry and exit.
type step struct {
	start string
	done  string
	run   func(context.Context, Layout) error
}

// Builder materializes packages. The fixity mode is fixed for the lifetime
// of a Builder so one run never mixes bags and manifests.
type Builder struct {
	sipsDir  string
	bag      bool
	piiScan  bool
	copier   Copier
	bagger   Bagger
	manifest Manifester
	reporter Reporter
	log      Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithBagging selects bag mode with the given bagger.
func WithBagging(b Bagger) Option {
	return func(bl *Builder) {
		bl.bag = true
		bl.bagger = b
	}
}

// WithManifest selects manifest mode with the given manifester.
func WithManifest(m Manifester) Option {
	return func(bl *Builder) {
		bl.bag = false
		bl.manifest = m
	}
}

// WithPIIScan enables the PII scan during characterization.
func WithPIIScan(enabled bool) Option {
	return func(bl *Builder) {
		bl.piiScan = enabled
	}
}

// NewBuilder returns a Builder writing packages into sipsDir.
func NewBuilder(sipsDir string, copier Copier, reporter Reporter, log Logger, opts ...Option) (*Builder, error) {
	b := &Builder{
		sipsDir:  sipsDir,
		copier:   copier,
		reporter: reporter,
		log:      log,
	}
	for _, opt := range opts {
		opt(b)
	}

	switch {
	case b.copier == nil || b.reporter == nil || b.log == nil:
		return nil, errors.New("builder needs a copier, a reporter and a logger")
	case b.bag && b.bagger == nil:
		return nil, errors.New("bag mode needs a bagger")
	case !b.bag && b.manifest == nil:
		return nil, errors.New("manifest mode needs a manifester")
	}

	return b, nil
}

// Bag reports whether packages are bagged.
func (b *Builder) Bag() bool {
	return b.bag
}

// Layout returns the layout of the package built from source. The package
// is named after the last element of the absolute source path.
func (b *Builder) Layout(source string) Layout {
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}

	return NewLayout(b.sipsDir, filepath.Base(source), b.bag)
}

// Build creates the package for source and returns its layout. On error the
// partially built package is left on disk for inspection.
func (b *Builder) Build(ctx context.Context, source string) (Layout, error) {
	layout := b.Layout(source)

	b.log.Infof("PROCESSING NEW DIRECTORY: %s", source)

	steps := []step{
		{
			start: fmt.Sprintf("Creating SIP directory structure for %s", source),
			done:  fmt.Sprintf("SIP directory %s created.", layout.Root),
			run:   b.createStructure,
		},
		{
			start: fmt.Sprintf("Copying %s to %s", source, layout.StagingObjects()),
			done:  fmt.Sprintf("Files successfully copied to %s.", layout.Root),
			run: func(ctx context.Context, l Layout) error {
				return b.copier.Copy(ctx, source, l.StagingObjects())
			},
		},
		b.fixityStep(layout),
		{
			start: fmt.Sprintf("Rewriting file permissions for %s", layout.Root),
			done:  "File permissions rewritten.",
			run: func(_ context.Context, l Layout) error {
				return NormalizePermissions(l.Root)
			},
		},
		{
			start: fmt.Sprintf("Running Brunnhilde on %s", layout.Root),
			done:  fmt.Sprintf("Brunnhilde report written. Finished processing %s.", source),
			run:   b.characterize,
		},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return layout, err
		}

		b.log.Infof("%s", s.start)

		if err := s.run(ctx, layout); err != nil {
			return layout, err
		}

		b.log.Infof("%s", s.done)
	}

	return layout, nil
}

func (b *Builder) fixityStep(layout Layout) step {
	if b.bag {
		return step{
			start: fmt.Sprintf("Bagging %s", layout.Root),
			done:  fmt.Sprintf("%s successfully bagged.", layout.Root),
			run: func(ctx context.Context, l Layout) error {
				return b.bagger.Bag(ctx, l.Root)
			},
		}
	}

	return step{
		start: fmt.Sprintf("Writing checksums for %s", layout.StagingObjects()),
		done:  fmt.Sprintf("Checksums for %s successfully generated and written to %s.", layout.StagingObjects(), ChecksumFile),
		run: func(ctx context.Context, l Layout) error {
			return b.manifest.Manifest(ctx, l.StagingObjects(), l.Checksums())
		},
	}
}

func (b *Builder) createStructure(_ context.Context, l Layout) error {
	if err := os.Mkdir(l.Root, DirMode); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("creating %s: %w", l.Root, ErrPackageExists)
		}

		return fmt.Errorf("creating package directory: %w", err)
	}

	for _, dir := range []string{l.StagingObjects(), l.StagingMetadata()} {
		if err := os.Mkdir(dir, DirMode); err != nil {
			return fmt.Errorf("creating package directory: %w", err)
		}
	}

	return nil
}

func (b *Builder) characterize(ctx context.Context, l Layout) error {
	if err := os.MkdirAll(l.SubmissionDocumentation(), DirMode); err != nil {
		return fmt.Errorf("creating submission documentation directory: %w", err)
	}

	return b.reporter.Report(ctx, l.Objects(), l.SubmissionDocumentation(), l.ReportName(), b.piiScan)
}
