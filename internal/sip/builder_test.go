package sip_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/folderprocessor/internal/sip"
	"github.com/idelchi/folderprocessor/internal/tools"
	"github.com/idelchi/folderprocessor/internal/tools/tooltest"
)

type memLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *memLog) Infof(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func sourceTree(t *testing.T) string {
	t.Helper()

	src := filepath.Join(t.TempDir(), "disk1")
	writeFile(t, src, "letter.doc", "dear")
	writeFile(t, src, "photos/a.jpg", "jpeg")
	writeFile(t, src, "photos/Thumbs.db", "noise")
	writeFile(t, src, ".DS_Store", "noise")

	return src
}

func newBuilder(t *testing.T, sipsDir string, runner tools.Runner, log sip.Logger, bag bool) *sip.Builder {
	t.Helper()

	mode := sip.WithManifest(tools.Md5deep{Runner: runner, Binary: tooltest.Md5deep})
	if bag {
		mode = sip.WithBagging(tools.Bagit{Runner: runner, Binary: tooltest.Bagit, Processes: 4})
	}

	b, err := sip.NewBuilder(sipsDir,
		tools.Rsync{Runner: runner, Binary: tooltest.Rsync, Excludes: []string{".DS_Store", "Thumbs.db"}},
		tools.Brunnhilde{Runner: runner, Binary: tooltest.Brunnhilde},
		log,
		mode,
	)
	require.NoError(t, err)

	return b
}

func TestBuild_ManifestMode(t *testing.T) {
	src := sourceTree(t)
	sips := t.TempDir()
	runner := &tooltest.Runner{}
	log := &memLog{}

	layout, err := newBuilder(t, sips, runner, log, false).Build(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(sips, "disk1"), layout.Root)
	assert.Equal(t, []string{tooltest.Rsync, tooltest.Md5deep, tooltest.Brunnhilde}, runner.Names())

	assert.FileExists(t, filepath.Join(layout.Root, "objects", "letter.doc"))
	assert.FileExists(t, filepath.Join(layout.Root, "objects", "photos", "a.jpg"))
	assert.NoFileExists(t, filepath.Join(layout.Root, "objects", "photos", "Thumbs.db"))
	assert.NoFileExists(t, filepath.Join(layout.Root, "objects", ".DS_Store"))
	assert.FileExists(t, filepath.Join(layout.Root, "metadata", "checksum.md5"))
	assert.NoDirExists(t, filepath.Join(layout.Root, "data"))
	assert.FileExists(t, layout.FormatReport())
	assert.Equal(t,
		filepath.Join(layout.Root, "metadata", "submissionDocumentation", "disk1_brunnhilde", "csv_reports", "formats.csv"),
		layout.FormatReport())

	manifest, err := os.ReadFile(filepath.Join(layout.Root, "metadata", "checksum.md5"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "../objects/letter.doc")

	// every step logs its start and its end
	assert.Len(t, log.entries, 11)
	assert.Equal(t, "PROCESSING NEW DIRECTORY: "+src, log.entries[0])
	assert.Contains(t, log.entries[10], "Brunnhilde report written")
}

func TestBuild_BagMode(t *testing.T) {
	src := sourceTree(t)
	sips := t.TempDir()
	runner := &tooltest.Runner{}

	layout, err := newBuilder(t, sips, runner, &memLog{}, true).Build(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []string{tooltest.Rsync, tooltest.Bagit, tooltest.Brunnhilde}, runner.Names())

	assert.FileExists(t, filepath.Join(layout.Root, "bagit.txt"))
	assert.FileExists(t, filepath.Join(layout.Root, "data", "objects", "letter.doc"))
	assert.DirExists(t, filepath.Join(layout.Root, "data", "metadata"))
	assert.NoDirExists(t, filepath.Join(layout.Root, "objects"))
	assert.NoDirExists(t, filepath.Join(layout.Root, "metadata"))
	assert.NoFileExists(t, filepath.Join(layout.Root, "data", "metadata", "checksum.md5"))
	assert.Equal(t,
		filepath.Join(layout.Root, "data", "metadata", "submissionDocumentation", "disk1_brunnhilde", "csv_reports", "formats.csv"),
		layout.FormatReport())
	assert.FileExists(t, layout.FormatReport())

	report := runner.Calls[2]
	assert.Equal(t, filepath.Join(layout.Root, "data", "objects"), report.Args[1])
}

func TestBuild_PIIScanFlag(t *testing.T) {
	runner := &tooltest.Runner{}
	b, err := sip.NewBuilder(t.TempDir(),
		tools.Rsync{Runner: runner, Binary: tooltest.Rsync},
		tools.Brunnhilde{Runner: runner, Binary: tooltest.Brunnhilde},
		&memLog{},
		sip.WithManifest(tools.Md5deep{Runner: runner, Binary: tooltest.Md5deep}),
		sip.WithPIIScan(true),
	)
	require.NoError(t, err)

	layout, err := b.Build(context.Background(), sourceTree(t))
	require.NoError(t, err)

	assert.Equal(t, "-zbw", runner.Calls[2].Args[0])
	assert.DirExists(t, filepath.Join(layout.SubmissionDocumentation(), layout.ReportName(), "bulk_extractor"))
}

func TestBuild_RefusesExistingPackage(t *testing.T) {
	src := sourceTree(t)
	sips := t.TempDir()
	b := newBuilder(t, sips, &tooltest.Runner{}, &memLog{}, false)

	_, err := b.Build(context.Background(), src)
	require.NoError(t, err)

	runner := &tooltest.Runner{}
	_, err = newBuilder(t, sips, runner, &memLog{}, false).Build(context.Background(), src)
	require.ErrorIs(t, err, sip.ErrPackageExists)
	assert.Empty(t, runner.Calls, "no tool may run against an existing package")
}

func TestBuild_FailureAbortsRemainingSteps(t *testing.T) {
	runner := &tooltest.Runner{Fail: map[string]error{tooltest.Rsync: errors.New("exit status 23")}}
	log := &memLog{}

	layout, err := newBuilder(t, t.TempDir(), runner, log, false).Build(context.Background(), sourceTree(t))

	var exitErr *tools.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, []string{tooltest.Rsync}, runner.Names())
	assert.NoFileExists(t, layout.Checksums())
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &tooltest.Runner{}
	_, err := newBuilder(t, t.TempDir(), runner, &memLog{}, false).Build(ctx, sourceTree(t))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.Calls)
}

func TestBuild_NormalizesPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions")
	}

	src := sourceTree(t)
	require.NoError(t, os.Chmod(filepath.Join(src, "photos"), 0o700))

	copier := tools.Builtin{Exclude: ignore.CompileIgnoreLines("Thumbs.db")}
	runner := &tooltest.Runner{}
	b, err := sip.NewBuilder(t.TempDir(), copier,
		tools.Brunnhilde{Runner: runner, Binary: tooltest.Brunnhilde},
		&memLog{},
		sip.WithManifest(tools.Md5deep{Runner: runner, Binary: tooltest.Md5deep}),
	)
	require.NoError(t, err)

	layout, err := b.Build(context.Background(), src)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(layout.Objects(), "letter.doc"))
	require.NoError(t, err)
	assert.Equal(t, sip.FileMode, info.Mode().Perm())

	info, err = os.Stat(filepath.Join(layout.Objects(), "photos"))
	require.NoError(t, err)
	assert.Equal(t, sip.DirMode, info.Mode().Perm())

	info, err = os.Stat(layout.Checksums())
	require.NoError(t, err)
	assert.Equal(t, sip.FileMode, info.Mode().Perm())
}

func TestNewBuilder_RequiresCollaborators(t *testing.T) {
	runner := &tooltest.Runner{}
	copier := tools.Rsync{Runner: runner, Binary: tooltest.Rsync}
	reporter := tools.Brunnhilde{Runner: runner, Binary: tooltest.Brunnhilde}

	_, err := sip.NewBuilder(t.TempDir(), copier, reporter, &memLog{})
	assert.Error(t, err, "a fixity mode is required")

	_, err = sip.NewBuilder(t.TempDir(), nil, reporter, &memLog{}, sip.WithBagging(tools.Bagit{Runner: runner}))
	assert.Error(t, err)
}

func TestNormalizePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions")
	}

	root := t.TempDir()
	writeFile(t, root, "a/b/c.txt", "x")
	require.NoError(t, os.Chmod(filepath.Join(root, "a", "b", "c.txt"), 0o400))
	require.NoError(t, os.Chmod(filepath.Join(root, "a", "b"), 0o700))

	require.NoError(t, sip.NormalizePermissions(root))

	for rel, want := range map[string]os.FileMode{
		"a":         sip.DirMode,
		"a/b":       sip.DirMode,
		"a/b/c.txt": sip.FileMode,
	} {
		info, err := os.Stat(filepath.Join(root, rel))
		require.NoError(t, err)
		assert.Equal(t, want, info.Mode().Perm(), rel)
	}
}

func TestLayout(t *testing.T) {
	manifest := sip.NewLayout("/dst/SIPs", "disk1", false)
	bagged := sip.NewLayout("/dst/SIPs", "disk1", true)

	assert.Equal(t, filepath.Join("/dst/SIPs", "disk1", "objects"), manifest.Objects())
	assert.Equal(t, filepath.Join("/dst/SIPs", "disk1", "data", "objects"), bagged.Objects())
	assert.Equal(t, manifest.StagingObjects(), bagged.StagingObjects())
	assert.Equal(t, "disk1_brunnhilde", bagged.ReportName())
}

func TestBuilder_LayoutOfRelativeSource(t *testing.T) {
	src := sourceTree(t)
	t.Chdir(src)

	b := newBuilder(t, t.TempDir(), &tooltest.Runner{}, &memLog{}, false)

	for _, source := range []string{".", "./", "photos/.."} {
		assert.Equal(t, "disk1", b.Layout(source).Name, source)
	}
}
