// Package dockerfile turns image definition properties into a Dockerfile and
// the build context it needs.
package dockerfile

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/wellmaintained/karton/pkg/definition"
	"github.com/wellmaintained/karton/pkg/support"
)

// FileName is the name of the generated Dockerfile in the build context.
const FileName = "Dockerfile"

// CopyFile maps a file in the build context to its path in the image.
type CopyFile struct {
	// Source is relative to the build context root, with forward slashes.
	Source string
	// Target is the absolute path inside the image.
	Target string
}

// EffectivePackages returns the packages installed in the image: the ones
// requested by the definition followed by the runtime package the support
// files need. props is not modified.
func EffectivePackages(props *definition.Properties) []string {
	return append(props.Packages(), support.RuntimePackage)
}

// Render returns the Dockerfile for props. copies lists the staged files to
// copy into the image. Rendering has no side effects and the same input
// always produces the same output.
func Render(props *definition.Properties, copies []CopyFile) (string, error) {
	v := newView(props, copies)

	var parts []string
	for _, b := range blocks {
		if !b.when(v) {
			continue
		}
		var sb strings.Builder
		if err := b.tmpl.Execute(&sb, v); err != nil {
			return "", fmt.Errorf("failed to render %s block: %w", b.name, err)
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.TrimSpace(strings.Join(parts, "\n\n")) + "\n", nil
}

// Preview renders the Dockerfile Emit would write for props without touching
// the filesystem. stagingDir is where the support files would be staged,
// relative to the build context root.
func Preview(props *definition.Properties, src support.Source, stagingDir string) (string, error) {
	var copies []CopyFile
	for _, hostPath := range src.Files() {
		name := filepath.Base(hostPath)
		copies = append(copies, CopyFile{
			Source: path.Join(filepath.ToSlash(stagingDir), name),
			Target: support.ContainerPath(name),
		})
	}
	return Render(props, copies)
}

func newView(props *definition.Properties, copies []CopyFile) *view {
	maintainer, hasMaintainer := props.Maintainer()
	packages := EffectivePackages(props)

	return &view{
		Distro:        props.Distro(),
		Maintainer:    maintainer,
		HasMaintainer: hasMaintainer,
		ArchCommands:  archCommands(props.AdditionalArchs()),
		Packages:      packages,
		PackageList:   strings.Join(packages, " "),
		Username:      props.Username(),
		UserHome:      props.UserHome(),
		Copies:        copies,
	}
}

// archCommands chains one dpkg call per architecture with a shell
// continuation on every line except the last.
func archCommands(archs []string) []string {
	cmds := make([]string, len(archs))
	for i, arch := range archs {
		cmds[i] = "dpkg --add-architecture " + arch
		if i < len(archs)-1 {
			cmds[i] += ` && \`
		}
	}
	return cmds
}
