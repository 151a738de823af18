// Package cmd defines command-line interface commands for karton.
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wellmaintained/karton/internal/config"
	"github.com/wellmaintained/karton/internal/errors"
	"github.com/wellmaintained/karton/internal/logging"
	"github.com/wellmaintained/karton/internal/workspace"
	"github.com/wellmaintained/karton/pkg/builder"
	"github.com/wellmaintained/karton/pkg/support"
)

var (
	version    string
	verbosity  int
	configPath string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "karton",
	Short: "Generate Docker build contexts from image definitions",
	Long: `karton turns a declarative image definition into a Dockerfile and the
build context it needs.

An image definition is a directory containing a definition.hcl file with a
single setup_image block. Definition directories can be passed explicitly or
configured per image in the karton configuration file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return errors.NewValidationError("invalid configuration", err)
		}
		cfg = loaded

		level := verbosity
		if level == 0 {
			level = cfg.Verbosity
		}
		logging.Setup(level)
		logger := logging.GetLogger("cmd")
		logger.Debug().Str("config", cfg.Path).Msg("Configuration loaded")
		return nil
	},
}

// Execute runs the root CLI command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
	rootCmd.Version = version
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: $XDG_CONFIG_HOME/karton/config.toml)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(inspectCmd)
}

// validationErrors reports every flag problem at once.
func validationErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	combined := "Validation errors:\n"
	for _, err := range errs {
		combined += fmt.Sprintf("  - %s\n", err)
	}
	return errors.NewValidationError(combined, nil)
}

// definitionDir returns the definition directory of image: flagValue when
// set, then the configured directory, then images/<image> found by walking up
// from the working directory.
func definitionDir(image, flagValue string) (string, error) {
	if flagValue != "" {
		return filepath.Abs(flagValue)
	}
	dir, cfgErr := cfg.DefinitionDir(image)
	if cfgErr == nil {
		return dir, nil
	}
	dir, err := workspace.FindDefinition(".", image)
	if err != nil {
		return "", errors.NewValidationError("cannot locate the image definition",
			fmt.Errorf("%v; %v", cfgErr, err))
	}
	return dir, nil
}

// supportSource returns the configured support files, falling back to the
// ones shipped with karton.
func supportSource() support.Source {
	if cfg.SupportDir != "" {
		return support.NewSource(cfg.SupportDir)
	}
	return support.NewSource(builder.DefaultSupportDir())
}
