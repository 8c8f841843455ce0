package sip

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Normalized permissions applied to every package.
const (
	DirMode  fs.FileMode = 0o755
	FileMode fs.FileMode = 0o644
)

// NormalizePermissions makes every directory under root 0755 and every
// regular file 0644. Symbolic links are left alone.
func NormalizePermissions(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.Chmod(path, DirMode)
		case d.Type().IsRegular():
			return os.Chmod(path, FileMode)
		default:
			return nil
		}
	})
}
