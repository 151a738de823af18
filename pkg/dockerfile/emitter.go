package dockerfile

import (
	"fmt"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/rs/zerolog"

	"github.com/wellmaintained/karton/internal/errors"
	"github.com/wellmaintained/karton/internal/pathutil"
	"github.com/wellmaintained/karton/pkg/definition"
	"github.com/wellmaintained/karton/pkg/support"
)

// Emitter writes a Dockerfile and stages the files it copies into a build
// context directory.
type Emitter struct {
	dstDir     string
	stagingDir string
	support    support.Source
	logger     zerolog.Logger
}

// NewEmitter returns an Emitter writing into dstDir. Support files are
// staged in stagingDir, which must already exist inside dstDir.
func NewEmitter(dstDir, stagingDir string, src support.Source, logger zerolog.Logger) *Emitter {
	return &Emitter{
		dstDir:     dstDir,
		stagingDir: stagingDir,
		support:    src,
		logger:     logger,
	}
}

// Emit stages the support files, renders the Dockerfile for props and
// writes it into the build context. It returns the Dockerfile content.
func (e *Emitter) Emit(props *definition.Properties) (string, error) {
	var copies []CopyFile
	for _, hostPath := range e.support.Files() {
		rel, err := e.stage(hostPath)
		if err != nil {
			return "", err
		}
		copies = append(copies, CopyFile{
			Source: filepath.ToSlash(rel),
			Target: support.ContainerPath(filepath.Base(hostPath)),
		})
	}

	content, err := Render(props, copies)
	if err != nil {
		return "", errors.NewRuntimeError("failed to render the Dockerfile", err)
	}
	e.logger.Debug().Msgf("The Dockerfile is:\n========\n%s========", content)

	dockerfilePath := filepath.Join(e.dstDir, FileName)
	if err := os.WriteFile(dockerfilePath, []byte(content), 0644); err != nil {
		return "", errors.NewRuntimeError(fmt.Sprintf("failed to write %s", dockerfilePath), err)
	}

	return content, nil
}

// stage makes the file at hostPath available to the build by hard linking
// it into the staging directory. It returns the path of the link relative to
// the build context root.
//
// Hard links need the source and the build context on the same filesystem;
// linking across filesystems fails and is reported as is.
func (e *Emitter) stage(hostPath string) (string, error) {
	linkPath, err := securejoin.SecureJoin(e.stagingDir, filepath.Base(hostPath))
	if err != nil {
		return "", errors.NewRuntimeError(fmt.Sprintf("failed to stage %s", hostPath), err)
	}

	if err := os.Link(hostPath, linkPath); err != nil {
		return "", errors.NewRuntimeError(
			fmt.Sprintf("failed to stage %s (it must be on the same filesystem as %s)", hostPath, e.dstDir), err)
	}

	rel, err := pathutil.RelWithin(e.dstDir, linkPath)
	if err != nil {
		return "", errors.NewRuntimeError(fmt.Sprintf("failed to stage %s", hostPath), err)
	}

	e.logger.Debug().Str("source", hostPath).Str("link", rel).Msg("Staged support file")
	return rel, nil
}
