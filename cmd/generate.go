package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wellmaintained/karton/internal/errors"
	"github.com/wellmaintained/karton/internal/logging"
	"github.com/wellmaintained/karton/internal/ui"
	"github.com/wellmaintained/karton/pkg/builder"
	"github.com/wellmaintained/karton/pkg/host"
)

var (
	generateDefinitionDir string
	generateOutput        string
)

var generateCmd = &cobra.Command{
	Use:   "generate IMAGE [flags]",
	Short: "Generate the build context of an image",
	Long: `Generate the Dockerfile and the files it needs for IMAGE.

The definition is read from --definition-dir, or from the directory configured
for IMAGE under [images] in the configuration file. The build context is
written to --output, which must not exist yet. Without --output, the context
goes under the configured build_root and replaces any previous one.

If generation fails, the partially written build context is removed.`,
	Example: `  # Generate from an explicit definition directory
  karton generate dev --definition-dir ./images/dev --output ./build/dev

  # Generate a configured image into the default build root
  karton generate dev

  # Build the result
  docker build -t dev "$(karton generate dev)"`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		var errs []error

		if generateOutput != "" {
			if _, err := os.Stat(generateOutput); err == nil {
				errs = append(errs, fmt.Errorf("--output %s already exists (remove it or pick another directory)", generateOutput))
			}
		}
		if generateDefinitionDir != "" {
			if info, err := os.Stat(generateDefinitionDir); err != nil || !info.IsDir() {
				errs = append(errs, fmt.Errorf("--definition-dir %s is not a directory", generateDefinitionDir))
			}
		}

		return validationErrors(errs)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dst, err := runGenerate(args[0], generateDefinitionDir, generateOutput)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dst)
		return nil
	},
}

// runGenerate writes the build context of image and returns its directory.
func runGenerate(image, defDirFlag, outputFlag string) (string, error) {
	logger := logging.GetLogger("generate")

	if err := builder.ValidateImageName(image); err != nil {
		return "", err
	}

	srcDir, err := definitionDir(image, defDirFlag)
	if err != nil {
		return "", err
	}

	dstDir := outputFlag
	if dstDir == "" {
		if dstDir, err = cfg.BuildDir(image); err != nil {
			return "", errors.NewValidationError("cannot place the build context", err)
		}
		if err := os.RemoveAll(dstDir); err != nil {
			return "", errors.NewRuntimeError(fmt.Sprintf("failed to remove the previous build context %s", dstDir), err)
		}
	}
	if dstDir, err = filepath.Abs(dstDir); err != nil {
		return "", errors.NewRuntimeError("failed to resolve the output directory", err)
	}

	sys, err := host.Detect()
	if err != nil {
		return "", errors.NewRuntimeError("failed to detect the host", err)
	}
	logger.Debug().Str("host", sys.String()).Str("definition", srcDir).Str("output", dstDir).Msg("Generating")

	b, err := builder.New(image, srcDir, dstDir, sys,
		builder.WithSupportSource(supportSource()),
		builder.WithLogger(logging.GetLogger("builder")))
	if err != nil {
		return "", err
	}

	if err := b.Generate(); err != nil {
		if cleanupErr := b.Cleanup(); cleanupErr != nil {
			ui.Warning("Failed to remove %s: %v\n", dstDir, cleanupErr)
		}
		return "", err
	}

	logger.Info().
		Str("distro", b.Properties().Distro()).
		Strs("packages", b.Properties().Packages()).
		Int("bytes", len(b.Dockerfile())).
		Msg("Dockerfile written")
	ui.Success("Generated %s\n", b.DockerfilePath())
	return b.DestinationDir(), nil
}

func init() {
	generateCmd.Flags().StringVarP(&generateDefinitionDir, "definition-dir", "d", "", "Directory containing definition.hcl")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Build context directory to create")
}
