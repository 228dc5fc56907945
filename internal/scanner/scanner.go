// Package scanner walks a file tree and yields per-file metadata for the
// indexing pipeline. Entries that vanish or become unreadable between
// discovery and stat are skipped; they never abort the walk.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/stelin41/super-fast-dumpster-diver/pkg/types"
)

// Canonical resolves a path to its canonical form: absolute with all
// symlinks resolved. Tracking-table keys are canonical paths, so the same
// physical file yields the same key across runs launched from different
// working directories or via different symlinks.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Scan walks root and calls fn once per regular file with its canonical
// descriptor. A root that is itself a file yields exactly one descriptor.
// Hidden files and directories (dot-prefixed) are skipped, as are entries
// that fail to stat. The root itself is exempt from the hidden check: an
// explicitly requested dot-named directory is scanned. An error from fn
// stops the walk.
func Scan(root string, fn func(types.FileDescriptor) error) error {
	canon, err := Canonical(root)
	if err != nil {
		return err
	}

	info, err := os.Stat(canon)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fn(describe(canon, info))
	}

	return filepath.WalkDir(canon, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable or vanished entry: skip it, keep walking.
			return nil
		}
		if path != canon && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		// Resolve per-file so symlinked entries key on their target.
		cpath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		fi, err := os.Stat(cpath)
		if err != nil || !fi.Mode().IsRegular() {
			return nil
		}
		return fn(describe(cpath, fi))
	})
}

func describe(path string, fi fs.FileInfo) types.FileDescriptor {
	return types.FileDescriptor{
		Path:    path,
		ModTime: float64(fi.ModTime().UnixNano()) / 1e9,
		Size:    fi.Size(),
		Inode:   inode(fi),
	}
}
