package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lab4/taskapi"
)

// NewGenerateConfigCommand writes a sample config with every default filled in.
func NewGenerateConfigCommand() *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate a sample configuration file",
		Long: `Generate a sample configuration file containing the root settings and
every module section with its default values. Supported formats are YAML and TOML.
Use --output - to print to standard output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sections, err := sampleSections()
			if err != nil {
				return err
			}

			if output == "" {
				output = "config." + format
			}
			if output == "-" {
				data, err := taskapi.GenerateSampleConfig(&AppConfig{}, sections, format)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			if err := taskapi.SaveSampleConfig(&AppConfig{}, sections, format, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample configuration written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or toml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default config.<format>, - for stdout)")
	return cmd
}
