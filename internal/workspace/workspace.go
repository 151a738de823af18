// Package workspace locates image definitions in the directory tree.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wellmaintained/karton/pkg/definition"
)

// ImagesDir is the directory holding one definition directory per image.
const ImagesDir = "images"

// ErrNotFound is returned when no definition exists for an image.
var ErrNotFound = errors.New("image definition not found")

// FindDefinition walks up from start looking for
// images/<image>/definition.hcl and returns the directory containing it.
func FindDefinition(start, image string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, ImagesDir, filepath.FromSlash(image))
		if info, err := os.Stat(definition.Path(candidate)); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s/%s/%s above %s", ErrNotFound, ImagesDir, image, definition.FileName, start)
		}
		dir = parent
	}
}
