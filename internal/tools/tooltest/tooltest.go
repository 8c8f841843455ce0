// Package tooltest provides a fake tools.Runner that emulates rsync,
// bagit.py, md5deep and brunnhilde.py on the local filesystem, so package
// construction can be exercised without those programs installed.
package tooltest

import (
	"context"
	"crypto/md5" //nolint:gosec // Mirrors md5deep output
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/idelchi/folderprocessor/internal/tools"
)

// Tool names recognized by the fake, matching the default configuration.
const (
	Rsync      = "rsync"
	Bagit      = "bagit.py"
	Md5deep    = "md5deep"
	Brunnhilde = "brunnhilde.py"
)

// Runner emulates the delegated tools. The zero value is ready to use.
type Runner struct {
	mu sync.Mutex
	// Fail maps a tool name to the error it returns instead of running.
	Fail map[string]error
	// FailFor maps a tool name to a path fragment; the tool fails with
	// FailErr when any argument contains the fragment.
	FailFor map[string]string
	// FailErr is returned for FailFor matches.
	FailErr error
	// SkipReport makes brunnhilde.py succeed without writing formats.csv.
	SkipReport bool
	// Calls records every command, in order.
	Calls []tools.Command
}

// Run emulates cmd.
func (r *Runner) Run(ctx context.Context, cmd tools.Command) error {
	r.mu.Lock()
	r.Calls = append(r.Calls, cmd)
	failErr := r.Fail[cmd.Name]
	fragment, hasFragment := r.FailFor[cmd.Name]
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if failErr != nil {
		return &tools.ExitError{Command: cmd, Err: failErr}
	}

	if hasFragment {
		for _, arg := range cmd.Args {
			if strings.Contains(arg, fragment) {
				return &tools.ExitError{Command: cmd, Err: r.FailErr}
			}
		}
	}

	switch cmd.Name {
	case Rsync:
		return rsync(ctx, cmd.Args)
	case Bagit:
		return bag(cmd.Args[len(cmd.Args)-1])
	case Md5deep:
		return md5deep(cmd)
	case Brunnhilde:
		if r.SkipReport {
			return nil
		}

		return brunnhilde(cmd.Args)
	default:
		return fmt.Errorf("tooltest: unknown tool %q", cmd.Name)
	}
}

// Names returns the tool names called, in order.
func (r *Runner) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		names = append(names, c.Name)
	}

	return names
}

func rsync(ctx context.Context, args []string) error {
	var excludes []string

	for _, arg := range args {
		if pattern, ok := strings.CutPrefix(arg, "--exclude="); ok {
			excludes = append(excludes, pattern)
		}
	}

	src, dst := args[len(args)-2], args[len(args)-1]

	return tools.Builtin{Exclude: ignore.CompileIgnoreLines(excludes...)}.Copy(ctx, src, dst)
}

func bag(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	data := filepath.Join(dir, "data")
	if err := os.Mkdir(data, 0o755); err != nil {
		return err
	}

	for _, e := range entries {
		if err := os.Rename(filepath.Join(dir, e.Name()), filepath.Join(data, e.Name())); err != nil {
			return err
		}
	}

	manifest, err := checksums(dir, "data")
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, "manifest-md5.txt"), []byte(manifest), 0o644); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "bagit.txt"),
		[]byte("BagIt-Version: 0.97\nTag-File-Character-Encoding: UTF-8\n"), 0o644)
}

func md5deep(cmd tools.Command) error {
	manifest, err := checksums(cmd.Dir, cmd.Args[len(cmd.Args)-1])
	if err != nil {
		return err
	}

	_, err = io.WriteString(cmd.Stdout, manifest)

	return err
}

// checksums renders "<md5>  <path>" lines for every file under base/rel.
func checksums(base, rel string) (string, error) {
	var b strings.Builder

	err := filepath.Walk(filepath.Join(base, rel), func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.Mode().IsRegular() {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		sum := md5.Sum(data) //nolint:gosec // Mirrors md5deep output
		name, _ := filepath.Rel(base, path)
		fmt.Fprintf(&b, "%s  %s\n", hex.EncodeToString(sum[:]), filepath.ToSlash(name))

		return nil
	})

	return b.String(), err
}

// brunnhilde writes a formats.csv ranking file extensions by frequency.
// Files without an extension are reported with a blank format name.
func brunnhilde(args []string) error {
	flags, objects, outDir, name := args[0], args[1], args[2], args[3]

	counts := map[string]int{}

	err := filepath.Walk(objects, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.Mode().IsRegular() {
			return err
		}

		counts[strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))]++

		return nil
	})
	if err != nil {
		return err
	}

	formats := make([]string, 0, len(counts))
	for f := range counts {
		formats = append(formats, f)
	}

	sort.Slice(formats, func(i, j int) bool {
		if counts[formats[i]] != counts[formats[j]] {
			return counts[formats[i]] > counts[formats[j]]
		}

		return formats[i] < formats[j]
	})

	reports := filepath.Join(outDir, name, "csv_reports")
	if err := os.MkdirAll(reports, 0o755); err != nil {
		return err
	}

	var b strings.Builder

	b.WriteString("Format,Count\n")

	for _, f := range formats {
		fmt.Fprintf(&b, "%s,%d\n", f, counts[f])
	}

	if strings.Contains(flags, "b") {
		if err := os.MkdirAll(filepath.Join(outDir, name, "bulk_extractor"), 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(filepath.Join(reports, "formats.csv"), []byte(b.String()), 0o644)
}
