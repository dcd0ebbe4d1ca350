package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/timecheck/pkg/analyzer"
	"github.com/ccollicutt/timecheck/pkg/config"
	"github.com/ccollicutt/timecheck/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <file.xlsx>",
		Short: "Explain how a workbook is read",
		Long: `Explain how a workbook is read without judging it.

This command reports:
- The sheet and the header labels of the start and end columns
- How many rows were read and how many had two valid timestamps
- Every skipped row, with the reason for each time field

Example:
  timecheck diagnose shift.xlsx
  timecheck diagnose -v shift.xlsx  # include durations`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, path string, opts *DiagnoseOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := analyzer.NewAnalyzer(config.DefaultPipeline())
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}
	pipeline := a.Pipeline()

	result, err := a.AnalyzeFile(ctx, path)
	var schemaErr *parser.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		printDiagnostics(w, []DiagnosticResult{
			checkWorkbook(path, pipeline),
			{
				Check:   "Columns",
				Status:  "error",
				Message: schemaErr.Error(),
				Suggests: []string{
					fmt.Sprintf("Put the header on row %d and the data in columns A through I", pipeline.HeaderRow+1),
				},
			},
		})
		return nil
	case err != nil:
		return err
	}

	results := []DiagnosticResult{
		checkWorkbook(path, pipeline),
		checkColumns(result),
		checkTimestamps(result, pipeline),
		checkDurations(result, opts),
	}

	printDiagnostics(w, results)
	return nil
}

func checkWorkbook(path string, p config.Pipeline) DiagnosticResult {
	return DiagnosticResult{
		Check:   "Workbook",
		Status:  "ok",
		Message: fmt.Sprintf("Read sheet %q from %s", p.SheetName, path),
		Details: []string{
			fmt.Sprintf("Header row: %d", p.HeaderRow+1),
			fmt.Sprintf("First data row: %d", p.RowOffset()),
		},
	}
}

func checkColumns(result *analyzer.AnalysisResult) DiagnosticResult {
	start := result.Headers[config.StartTimeLabel]
	end := result.Headers[config.EndTimeLabel]
	return DiagnosticResult{
		Check:   "Columns",
		Status:  "ok",
		Message: fmt.Sprintf("%s from %q, %s from %q", config.StartTimeLabel, start, config.EndTimeLabel, end),
	}
}

func checkTimestamps(result *analyzer.AnalysisResult, p config.Pipeline) DiagnosticResult {
	r := DiagnosticResult{
		Check: "Timestamps",
		Message: fmt.Sprintf("%d of %d row(s) have two valid timestamps",
			len(result.Evaluated), result.Metadata.RowsRead),
	}

	if len(result.Dropped) == 0 {
		r.Status = "ok"
		return r
	}

	r.Status = "warning"
	for _, d := range result.Dropped {
		r.Details = append(r.Details, droppedReason(d))
	}
	if len(result.Evaluated) == 0 {
		r.Suggests = []string{fmt.Sprintf("Timestamps must be date cells or text formatted as %s", p.Timestamp.Layout)}
	}
	return r
}

func droppedReason(d parser.DroppedRow) string {
	switch {
	case d.StartReason != "" && d.EndReason != "":
		return fmt.Sprintf("Row %d: start: %s; end: %s", d.DisplayRowNumber, d.StartReason, d.EndReason)
	case d.StartReason != "":
		return fmt.Sprintf("Row %d: start: %s", d.DisplayRowNumber, d.StartReason)
	default:
		return fmt.Sprintf("Row %d: end: %s", d.DisplayRowNumber, d.EndReason)
	}
}

func checkDurations(result *analyzer.AnalysisResult, opts *DiagnoseOptions) DiagnosticResult {
	r := DiagnosticResult{
		Check:  "Durations",
		Status: "ok",
		Message: fmt.Sprintf("%d row(s) below %s",
			len(result.Violations), result.Metadata.MinDuration),
	}

	if opts.Verbose {
		for _, row := range result.Evaluated {
			r.Details = append(r.Details, fmt.Sprintf("Row %d: %gs", row.DisplayRowNumber, row.DurationSeconds))
		}
	}
	return r
}

func printDiagnostics(w io.Writer, results []DiagnosticResult) {
	fmt.Fprintln(w, "=== Workbook Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		for _, d := range r.Details {
			fmt.Fprintf(w, "      - %s\n", d)
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nThe workbook cannot be checked until the errors above are fixed.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nSkipped rows are not counted as violations.")
	} else {
		fmt.Fprintln(w, "\nEvery row was read.")
	}
}
