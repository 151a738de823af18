// Package pathutil keeps generated files inside the directories that own
// them.
package pathutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideBase is returned when a path is not contained in its base directory.
var ErrOutsideBase = errors.New("path escapes its base directory")

// RelWithin returns path relative to baseDir, failing with ErrOutsideBase
// when path is not inside baseDir. Relative paths are taken relative to
// baseDir. Symbolic links are resolved on both sides when they exist, so a
// link pointing outside baseDir is rejected.
func RelWithin(baseDir, path string) (string, error) {
	if baseDir == "" {
		return "", fmt.Errorf("base directory cannot be empty")
	}
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s to an absolute path: %w", baseDir, err)
	}
	absPath := path
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(absBase, absPath)
	}
	absPath = filepath.Clean(absPath)

	rel, err := filepath.Rel(resolve(absBase), resolve(absPath))
	if err != nil {
		return "", fmt.Errorf("%w: %s is not within %s", ErrOutsideBase, path, baseDir)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not within %s", ErrOutsideBase, path, baseDir)
	}
	return rel, nil
}

// resolve follows symbolic links in p. When p doesn't exist yet, its
// nearest existing parent is resolved instead.
func resolve(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p
	}
	return filepath.Join(resolve(parent), filepath.Base(p))
}
