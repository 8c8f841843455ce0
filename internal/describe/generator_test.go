package describe_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/folderprocessor/internal/describe"
	"github.com/idelchi/folderprocessor/internal/sip"
	"github.com/idelchi/folderprocessor/internal/tools"
	"github.com/idelchi/folderprocessor/internal/tools/tooltest"
)

type memLog struct {
	infos    []string
	warnings []string
	errors   []string
}

func (l *memLog) Infof(format string, args ...any) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *memLog) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *memLog) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

type memSheet struct {
	records []describe.Record
}

func (s *memSheet) Append(r describe.Record) error {
	s.records = append(s.records, r)

	return nil
}

// source writes files of the given sizes, all modified at mtime.
func source(t *testing.T, name string, mtime time.Time, sizes map[string]int) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	for rel, size := range sizes {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	return dir
}

func build(t *testing.T, sips string, bag bool, runner *tooltest.Runner, sources ...string) {
	t.Helper()

	mode := sip.WithManifest(tools.Md5deep{Runner: runner, Binary: tooltest.Md5deep})
	if bag {
		mode = sip.WithBagging(tools.Bagit{Runner: runner, Binary: tooltest.Bagit, Processes: 1})
	}

	b, err := sip.NewBuilder(sips,
		tools.Rsync{Runner: runner, Binary: tooltest.Rsync},
		tools.Brunnhilde{Runner: runner, Binary: tooltest.Brunnhilde},
		&memLog{}, mode)
	require.NoError(t, err)

	for _, src := range sources {
		_, err := b.Build(context.Background(), src)
		require.NoError(t, err)
	}
}

func TestDescribe_EndToEnd(t *testing.T) {
	for _, bag := range []bool{false, true} {
		t.Run(fmt.Sprintf("bag=%v", bag), func(t *testing.T) {
			mtime := time.Date(2022, 4, 5, 12, 0, 0, 0, time.Local)
			src := source(t, "disk1", mtime, map[string]int{
				"a.jpg":       1000,
				"b.jpg":       1000,
				"notes/c.txt": 1000,
			})

			sips := t.TempDir()
			build(t, sips, bag, &tooltest.Runner{}, src)

			sheet := &memSheet{}
			log := &memLog{}
			gen := describe.Generator{SIPsDir: sips, Bag: bag, Sheet: sheet, Log: log}

			descriptions, err := gen.Describe(context.Background())
			require.NoError(t, err)
			require.Len(t, descriptions, 1)
			require.Len(t, sheet.records, 1)

			record := sheet.records[0]
			assert.Equal(t, "disk1", record.Identifier)
			assert.Equal(t, "3 digital files (3 KB)", record.Extent)
			assert.Equal(t, describe.DateRange{Earliest: "2022-04-05", Latest: "2022-04-05", Statement: "2022"}, record.Dates)
			assert.Equal(t, `Files from directory titled "disk1". Most common file formats: JPG, TXT`, record.Scope)
			assert.Empty(t, log.warnings)
			assert.Empty(t, log.errors)
		})
	}
}

func TestDescribe_OrderEmptyAndSkipped(t *testing.T) {
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.Local)
	sips := t.TempDir()

	build(t, sips, false, &tooltest.Runner{},
		source(t, "zeta", now, map[string]int{"x.pdf": 10}),
		source(t, "alpha", now, map[string]int{}),
		source(t, "mid", now, map[string]int{"y.pdf": 10}),
	)
	require.NoError(t, os.WriteFile(filepath.Join(sips, "stray.txt"), []byte("not a package"), 0o644))

	sheet := &memSheet{}
	log := &memLog{}
	gen := describe.Generator{SIPsDir: sips, Sheet: sheet, Log: log, Skip: map[string]bool{"mid": true}}

	_, err := gen.Describe(context.Background())
	require.NoError(t, err)

	require.Len(t, sheet.records, 2)
	assert.Equal(t, "alpha", sheet.records[0].Identifier)
	assert.Equal(t, "zeta", sheet.records[1].Identifier)

	empty := sheet.records[0]
	assert.Equal(t, "EMPTY", empty.Extent)
	assert.Empty(t, empty.Scope)
	assert.Equal(t, "N/A", empty.Dates.Statement)
	assert.Equal(t, "N/A", empty.Dates.Earliest)
	assert.Equal(t, "N/A", empty.Dates.Latest)

	assert.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "mid")
}

func TestDescribe_MissingReportLeavesScopeBlank(t *testing.T) {
	sips := t.TempDir()
	build(t, sips, false, &tooltest.Runner{SkipReport: true},
		source(t, "disk2", time.Now(), map[string]int{"a.bin": 5}))

	sheet := &memSheet{}
	log := &memLog{}

	descriptions, err := describe.Generator{SIPsDir: sips, Sheet: sheet, Log: log}.Describe(context.Background())
	require.NoError(t, err)

	require.Len(t, sheet.records, 1)
	assert.Equal(t, "1 digital file (5 bytes)", sheet.records[0].Extent)
	assert.Empty(t, sheet.records[0].Scope)
	assert.NotEmpty(t, descriptions[0].Warning)
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "disk2")
}

func TestDescribe_BrokenPackageGetsNoRecord(t *testing.T) {
	sips := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(sips, "broken", "metadata"), 0o755))

	sheet := &memSheet{}
	log := &memLog{}

	descriptions, err := describe.Generator{SIPsDir: sips, Sheet: sheet, Log: log}.Describe(context.Background())
	require.NoError(t, err)

	assert.Empty(t, sheet.records)
	require.Len(t, descriptions, 1)
	assert.Error(t, descriptions[0].Err)
	assert.Len(t, log.errors, 1)
}

func TestDescribe_MissingSIPsDir(t *testing.T) {
	gen := describe.Generator{SIPsDir: filepath.Join(t.TempDir(), "SIPs"), Sheet: &memSheet{}, Log: &memLog{}}

	_, err := gen.Describe(context.Background())
	assert.Error(t, err)
}
