// Package cli provides the command-line interface for timecheck.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/timecheck/internal/cli/commands"
	"github.com/ccollicutt/timecheck/pkg/config"
)

const defaultEnvFile = ".env"

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors prevents Cobra from printing this
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Load, schema, processing or configuration error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "timecheck",
		Short: "Find rows that finished too quickly",
		Long: `timecheck reads a workbook and reports every row whose end time is less
than 60 seconds after its start time.

Run it once with "check", explain how a workbook is read with "diagnose",
or start the upload web interface with "serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Only an explicitly named env file has to exist
			required := cmd.Flags().Changed("env-file")
			if err := config.LoadEnvFile(envFile, required); err != nil {
				return fmt.Errorf("loading env file: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "File of KEY=VALUE environment settings")

	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
