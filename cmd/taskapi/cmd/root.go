package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information, set at build time with -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion returns the version line.
func PrintVersion() string {
	return fmt.Sprintf("taskapi %s (commit: %s, built on: %s)", Version, Commit, Date)
}

// NewRootCommand creates the taskapi command. Without a subcommand it serves
// the API, like "taskapi serve".
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "taskapi",
		Short:         "Task API - an in-memory task service",
		Long:          `Task API serves a CRUD API for an in-memory task list under /apiv1 and /apiv2.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *opts)
		},
	}
	cmd.SetVersionTemplate(PrintVersion() + "\n")

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "config file (.yaml, .yml or .toml); defaults to config.yaml or config.toml if present")
	flags.StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded into the environment")
	flags.StringVar(&opts.LogFormat, "log-format", "text", "log format: text or json")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewGenerateCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand prints version information.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	}
}

// NewGenerateCommand groups the generators.
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate supporting files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(NewGenerateConfigCommand())
	return cmd
}
