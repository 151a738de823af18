package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wellmaintained/karton/internal/errors"
	"github.com/wellmaintained/karton/internal/ui"
	"github.com/wellmaintained/karton/pkg/builder"
	"github.com/wellmaintained/karton/pkg/definition"
	"github.com/wellmaintained/karton/pkg/dockerfile"
	"github.com/wellmaintained/karton/pkg/host"
	"github.com/wellmaintained/karton/pkg/support"
)

var (
	inspectDefinitionDir string
	inspectFormat        string
	inspectDockerfile    bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect IMAGE [flags]",
	Short: "Show the properties of an image definition",
	Long: `Evaluate the definition of IMAGE and print the resulting properties.

Nothing is written to disk. With --dockerfile, the Dockerfile that generate
would write is printed as well.`,
	Example: `  # Show the properties of a configured image
  karton inspect dev

  # Show the properties and the Dockerfile as YAML
  karton inspect dev --definition-dir ./images/dev --format yaml --dockerfile`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		var errs []error

		if inspectFormat != "text" && inspectFormat != "yaml" {
			errs = append(errs, fmt.Errorf("--format must be 'text' or 'yaml', got '%s'", inspectFormat))
		}

		return validationErrors(errs)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.OutOrStdout(), args[0])
	},
}

// inspectReport is the YAML form of the inspect output.
type inspectReport struct {
	Image      string     `yaml:"image"`
	Definition string     `yaml:"definition"`
	Host       hostReport `yaml:"host"`
	Properties *yaml.Node `yaml:"properties"`
	Dockerfile string     `yaml:"dockerfile,omitempty"`
}

type hostReport struct {
	Username string `yaml:"username"`
	UserHome string `yaml:"userhome"`
	Hostname string `yaml:"hostname"`
}

func runInspect(w io.Writer, image string) error {
	srcDir, err := definitionDir(image, inspectDefinitionDir)
	if err != nil {
		return err
	}

	sys, err := host.Detect()
	if err != nil {
		return errors.NewRuntimeError("failed to detect the host", err)
	}

	return inspect(w, image, srcDir, sys, supportSource())
}

func inspect(w io.Writer, image, srcDir string, sys host.System, src support.Source) error {
	props, err := definition.Load(srcDir, image, sys)
	if err != nil {
		return err
	}

	var content string
	if inspectDockerfile {
		if content, err = dockerfile.Preview(props, src, builder.StagingDirName); err != nil {
			return errors.NewRuntimeError("failed to render the Dockerfile", err)
		}
	}

	if inspectFormat == "yaml" {
		return writeYAMLReport(w, props, content)
	}
	return writeTextReport(w, props, content)
}

func writeTextReport(w io.Writer, props *definition.Properties, content string) error {
	ui.Header(w, "Definition")
	fmt.Fprintf(w, "%s\n\n", props.DefinitionPath())

	ui.Header(w, "Properties")
	var rows [][]string
	for _, f := range props.Snapshot() {
		rows = append(rows, []string{f.Name, f.String()})
	}
	if err := ui.PrintTable(w, []string{"PROPERTY", "VALUE"}, rows); err != nil {
		return err
	}

	if content != "" {
		fmt.Fprintln(w)
		ui.Header(w, dockerfile.FileName)
		fmt.Fprint(w, content)
	}
	return nil
}

func writeYAMLReport(w io.Writer, props *definition.Properties, content string) error {
	fields := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range props.Snapshot() {
		var value yaml.Node
		if err := value.Encode(f.Value); err != nil {
			return errors.NewRuntimeError(fmt.Sprintf("failed to encode %s", f.Name), err)
		}
		fields.Content = append(fields.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.Name}, &value)
	}

	sys := props.Host()
	report := inspectReport{
		Image:      props.ImageName(),
		Definition: props.DefinitionPath(),
		Host: hostReport{
			Username: sys.Username(),
			UserHome: sys.UserHome(),
			Hostname: sys.Hostname(),
		},
		Properties: fields,
		Dockerfile: content,
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return errors.NewRuntimeError("failed to write the report", err)
	}
	return enc.Close()
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectDefinitionDir, "definition-dir", "d", "", "Directory containing definition.hcl")
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format: text or yaml")
	inspectCmd.Flags().BoolVar(&inspectDockerfile, "dockerfile", false, "Also print the Dockerfile")
}
