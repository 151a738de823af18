// Package support locates the runtime files copied into every image.
package support

import (
	"path/filepath"
)

// ContainerDir is the directory inside the image where support files live.
const ContainerDir = "/karton"

// RuntimePackage is the distribution package the support files need to run.
// It is installed in every image.
const RuntimePackage = "python3"

// DefaultNames lists the support files copied into every image.
var DefaultNames = []string{"session_runner.py"}

// Source is a directory on the host holding support files.
type Source struct {
	Dir   string
	Names []string
}

// NewSource returns a Source for dir with the default support files.
func NewSource(dir string) Source {
	return Source{Dir: dir, Names: append([]string(nil), DefaultNames...)}
}

// Files returns the host paths of the support files.
func (s Source) Files() []string {
	paths := make([]string, len(s.Names))
	for i, name := range s.Names {
		paths[i] = filepath.Join(s.Dir, name)
	}
	return paths
}

// ContainerPath returns where the file called name is placed in the image.
func ContainerPath(name string) string {
	return ContainerDir + "/" + name
}
