package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Bagit wraps a directory in place in a BagIt bag with bagit.py.
// Existing content moves under data/.
type Bagit struct {
	Runner    Runner
	Binary    string
	Processes int
}

// Bag bags dir.
func (b Bagit) Bag(ctx context.Context, dir string) error {
	processes := b.Processes
	if processes < 1 {
		processes = 1
	}

	return b.Runner.Run(ctx, Command{
		Name: b.Binary,
		Args: []string{"--processes", strconv.Itoa(processes), dir},
	})
}

// Md5deep writes a flat checksum manifest with md5deep.
type Md5deep struct {
	Runner Runner
	Binary string
}

// Manifest checksums every file under objects and writes the manifest to
// out. Paths in the manifest are relative to the directory holding out.
func (m Md5deep) Manifest(ctx context.Context, objects, out string) (err error) {
	dir := filepath.Dir(out)

	rel, err := filepath.Rel(dir, objects)
	if err != nil {
		return fmt.Errorf("resolving objects path: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating checksum file: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing checksum file: %w", cerr)
		}
	}()

	return m.Runner.Run(ctx, Command{
		Name:   m.Binary,
		Args:   []string{"-rl", rel},
		Dir:    dir,
		Stdout: f,
	})
}
