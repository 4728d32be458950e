// Package workspace resolves version file paths given relative to a
// repository root that is identified by its directory name.
package workspace

import (
	"path/filepath"
)

// FindAnchor walks up from dir and returns the nearest ancestor (dir
// included) whose base name is anchor.
func FindAnchor(dir, anchor string) (string, bool) {
	if anchor == "" {
		return "", false
	}
	dir = filepath.Clean(dir)
	for {
		if filepath.Base(dir) == anchor {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Resolve rewrites file, given relative to the anchor directory, into a path
// relative to cwd. The file is returned unchanged when anchor is empty, when
// file is absolute, or when cwd is not inside an anchor directory.
func Resolve(cwd, anchor, file string) string {
	if anchor == "" || filepath.IsAbs(file) {
		return file
	}
	root, ok := FindAnchor(cwd, anchor)
	if !ok {
		return file
	}
	rel, err := filepath.Rel(filepath.Clean(cwd), root)
	if err != nil {
		return file
	}
	return filepath.Join(rel, file)
}
