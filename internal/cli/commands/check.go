package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/timecheck/pkg/analyzer"
	"github.com/ccollicutt/timecheck/pkg/config"
	"github.com/ccollicutt/timecheck/pkg/output"
	"github.com/ccollicutt/timecheck/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// CheckOptions holds command-line options for the check command.
type CheckOptions struct {
	Output  string
	Verbose bool
	Quiet   bool
	Config  string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <file.xlsx>",
		Short: "Check a workbook for short time differences",
		Long: `Check a workbook for rows whose end time is less than 60 seconds after
the start time.

The sheet "Sheet1" is read with the header on row 8. Start times come from
column A and end times from column I, formatted as YYYY.MM.DD HH:MM:SS.
Rows without two valid timestamps are skipped.

Exit codes:
  0 - No violations found
  1 - Violations found
  2 - Load, schema, processing or configuration error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show skipped rows and duration statistics")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "Config file with webhook settings")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnViolations), "When to fire webhook (on_violations|always|never)")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	path := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Reject a bad format before doing any work
	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx, opts.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := analyzer.NewAnalyzer(config.DefaultPipeline())
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	result, err := a.AnalyzeFile(ctx, path)
	if err != nil {
		return err
	}

	report := output.NewReport(result)

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook failures are reported but never change the result
	sendWebhooks(ctx, cmd.ErrOrStderr(), collectWebhooks(cfg, opts), report)

	if report.HasViolations() {
		ExitCode = 1
	}

	return nil
}

func createFormatter(opts *CheckOptions) (output.Formatter, error) {
	formatOpts := output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	}

	switch opts.Output {
	case "text":
		return output.NewTextFormatter(formatOpts), nil
	case "json":
		return output.NewJSONFormatter(formatOpts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

// sendWebhooks delivers the report and logs each outcome to w.
func sendWebhooks(ctx context.Context, w io.Writer, hooks []config.WebhookConfig, report *output.Report) {
	if len(hooks) == 0 {
		return
	}

	for _, d := range webhook.NewClient().Dispatch(ctx, hooks, report) {
		if d.Response == nil {
			continue
		}
		if d.Response.Success() {
			fmt.Fprintf(w, "Webhook %s: sent (%d, %s)\n", d.Name, d.Response.StatusCode, d.Response.Duration)
		} else {
			fmt.Fprintf(w, "Webhook %s: failed (%v)\n", d.Name, d.Response.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *CheckOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnViolations
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   os.ExpandEnv(opts.WebhookToken),
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
