// Package builder prepares the build context for an image: it evaluates the
// image definition and writes the Dockerfile and the files it needs.
package builder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/distribution/reference"
	"github.com/rs/zerolog"

	"github.com/wellmaintained/karton/internal/errors"
	"github.com/wellmaintained/karton/internal/logging"
	"github.com/wellmaintained/karton/pkg/definition"
	"github.com/wellmaintained/karton/pkg/dockerfile"
	"github.com/wellmaintained/karton/pkg/host"
	"github.com/wellmaintained/karton/pkg/support"
)

// StagingDirName is the directory in the build context holding the files
// copied into the image.
const StagingDirName = "files"

// Builder builds a Dockerfile and related files.
//
// A Builder owns its destination directory from New until Cleanup. Two
// builders must never share a destination directory.
type Builder struct {
	imageName  string
	srcDir     string
	dstDir     string
	stagingDir string
	host       host.System
	support    support.Source
	logger     zerolog.Logger

	props   *definition.Properties
	content string
}

type options struct {
	support   support.Source
	logger    zerolog.Logger
	hasLogger bool
}

// Option configures a Builder.
type Option func(*options) error

// WithSupportSource sets where the support files copied into the image are.
func WithSupportSource(src support.Source) Option {
	return func(o *options) error {
		if src.Dir == "" {
			return fmt.Errorf("support directory cannot be empty")
		}
		o.support = src
		return nil
	}
}

// WithLogger sets the logger used by the builder.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		o.hasLogger = true
		return nil
	}
}

// New creates a Builder for imageName.
//
// srcDir is the directory containing the definition file, dstDir the
// directory where the Dockerfile and related files are put. The staging
// directory inside dstDir is created immediately.
func New(imageName, srcDir, dstDir string, sys host.System, opts ...Option) (*Builder, error) {
	if err := ValidateImageName(imageName); err != nil {
		return nil, err
	}
	if sys == nil {
		return nil, errors.NewValidationError("a host system is required", nil)
	}

	o := &options{support: support.NewSource(DefaultSupportDir())}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errors.NewValidationError("invalid builder option", err)
		}
	}
	if !o.hasLogger {
		o.logger = logging.GetLogger("builder")
	}

	b := &Builder{
		imageName:  imageName,
		srcDir:     srcDir,
		dstDir:     dstDir,
		stagingDir: filepath.Join(dstDir, StagingDirName),
		host:       sys,
		support:    o.support,
		logger:     o.logger.With().Str("image", imageName).Logger(),
	}

	if err := os.MkdirAll(b.stagingDir, 0755); err != nil {
		return nil, errors.NewRuntimeError(fmt.Sprintf("failed to create %s", b.stagingDir), err)
	}

	return b, nil
}

// ValidateImageName checks that imageName is a valid docker image reference.
func ValidateImageName(imageName string) error {
	if _, err := reference.ParseNormalizedNamed(imageName); err != nil {
		return errors.NewValidationError(fmt.Sprintf("invalid image name %q", imageName), err)
	}
	return nil
}

// DefaultSupportDir returns the support directory shipped next to the karton
// executable.
func DefaultSupportDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "container-code"
	}
	return filepath.Join(filepath.Dir(exe), "container-code")
}

// Generate prepares the destination directory with the Dockerfile and all the
// other required files.
//
// Mistakes in the definition file are reported as *errors.DefinitionError.
// Whatever happens, the caller is responsible for calling Cleanup once the
// destination directory is no longer needed.
func (b *Builder) Generate() error {
	done := logging.LogOperationStart(b.logger, "generate")
	defer done()

	props, err := definition.Load(b.srcDir, b.imageName, b.host)
	if err != nil {
		return err
	}
	b.logger.Debug().Msgf("Definition properties:\n%s", props)

	emitter := dockerfile.NewEmitter(b.dstDir, b.stagingDir, b.support, b.logger)
	content, err := emitter.Emit(props)
	if err != nil {
		return err
	}

	b.props = props
	b.content = content
	b.logger.Info().Str("dockerfile", b.DockerfilePath()).Msg("Build context generated")
	return nil
}

// Cleanup removes the destination directory and everything in it. Calling it
// when the directory no longer exists is an error.
func (b *Builder) Cleanup() error {
	if _, err := os.Stat(b.dstDir); err != nil {
		return errors.NewRuntimeError(fmt.Sprintf("cannot clean up %s", b.dstDir), err)
	}
	if err := os.RemoveAll(b.dstDir); err != nil {
		return errors.NewRuntimeError(fmt.Sprintf("failed to remove %s", b.dstDir), err)
	}
	b.logger.Debug().Str("dir", b.dstDir).Msg("Build context removed")
	return nil
}

// ImageName returns the name of the image being built.
func (b *Builder) ImageName() string { return b.imageName }

// DefinitionPath returns the path of the definition file.
func (b *Builder) DefinitionPath() string { return definition.Path(b.srcDir) }

// DestinationDir returns the build context directory.
func (b *Builder) DestinationDir() string { return b.dstDir }

// StagingDir returns the directory holding the files copied into the image.
func (b *Builder) StagingDir() string { return b.stagingDir }

// DockerfilePath returns the path of the generated Dockerfile.
func (b *Builder) DockerfilePath() string { return filepath.Join(b.dstDir, dockerfile.FileName) }

// Properties returns the properties produced by the last successful
// Generate, or nil.
func (b *Builder) Properties() *definition.Properties { return b.props }

// Dockerfile returns the content written by the last successful Generate.
func (b *Builder) Dockerfile() string { return b.content }
