package tools

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Rsync copies a tree with rsync.
type Rsync struct {
	Runner   Runner
	Binary   string
	Excludes []string
}

// Copy places the contents of src directly inside dst.
func (r Rsync) Copy(ctx context.Context, src, dst string) error {
	args := []string{"-avc", "--stats"}
	for _, pattern := range r.Excludes {
		args = append(args, "--exclude="+pattern)
	}

	args = append(args, withTrailingSlash(src), withTrailingSlash(dst))

	return r.Runner.Run(ctx, Command{Name: r.Binary, Args: args})
}

func withTrailingSlash(path string) string {
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return path
	}

	return path + string(filepath.Separator)
}

// Builtin copies a tree natively. Modification times are preserved, files
// matching Exclude are skipped and symbolic links are not copied.
type Builtin struct {
	Exclude *ignore.GitIgnore
}

// Copy places the contents of src directly inside dst.
func (b Builtin) Copy(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		if b.Exclude != nil && b.Exclude.MatchesPath(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			return copyFile(path, target)
		default:
			return nil
		}
	})
}

func copyFile(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}

		if err == nil {
			err = os.Chtimes(dst, info.ModTime(), info.ModTime())
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}

	return nil
}
