package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/timecheck/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a timecheck configuration file without checking a workbook.

Checks:
  - YAML syntax
  - Server address and upload limit
  - Webhook URLs, triggers and timeouts`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Listen address: %s\n", cfg.Server.Addr)
	fmt.Fprintf(w, "  Upload limit:   %d bytes\n", cfg.Server.MaxUploadBytes)
	fmt.Fprintf(w, "  Webhooks:       %d\n", len(cfg.Webhooks))

	if len(cfg.Webhooks) == 0 {
		return nil
	}

	fmt.Fprintf(w, "\nWebhooks:\n")
	for i, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}
		fmt.Fprintf(w, "  %d. [%s] %s (timeout %s)\n", i+1, wh.Trigger, name, wh.Timeout)
	}

	return nil
}
