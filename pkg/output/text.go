package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ccollicutt/timecheck/pkg/analyzer"
	"github.com/ccollicutt/timecheck/pkg/config"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "timecheck: %s, %d violation(s) in %d evaluated row(s)%s\n",
		strings.ToUpper(string(report.Status)),
		report.Summary.Violations,
		report.Summary.RowsEvaluated,
		rowList(report.ViolatedRows))
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== Time Violation Report ===")
	fmt.Fprintln(w)
	if report.Metadata.Source != "" {
		fmt.Fprintf(w, "Source: %s (%s)\n", report.Metadata.Source, report.Metadata.Sheet)
		fmt.Fprintln(w)
	}

	limit := FormatSeconds(report.Summary.MinDurationSeconds)
	if report.Status == analyzer.StatusPass {
		fmt.Fprintf(w, "PASS: No violations found. All time differences are >= %s seconds.\n", limit)
	} else {
		fmt.Fprintf(w, "FAIL: %d violation(s) found. The following rows have a time difference of less than %s seconds:\n",
			report.Summary.Violations, limit)
		fmt.Fprintf(w, "Violated Row Numbers: %s\n", FormatRows(report.ViolatedRows))
		fmt.Fprintln(w)
		if err := f.formatViolations(report.Violations, w); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)

	if f.opts.Verbose && len(report.Dropped) > 0 {
		fmt.Fprintf(w, "Skipped %d row(s) without two valid timestamps:\n", len(report.Dropped))
		for _, d := range report.Dropped {
			f.formatDropped(d, w)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d rows read, %d evaluated, %d skipped, %d violations\n",
		report.Summary.RowsRead,
		report.Summary.RowsEvaluated,
		report.Summary.RowsDropped,
		report.Summary.Violations)

	if f.opts.Verbose {
		if d := report.Summary.Durations; d != nil {
			fmt.Fprintf(w, "Durations (s): min %s, max %s, mean %s, median %s\n",
				FormatSeconds(d.Min), FormatSeconds(d.Max), FormatSeconds(d.Mean), FormatSeconds(d.Median))
		}
		fmt.Fprintf(w, "Run ID: %s\n", report.Metadata.RunID)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatViolations(violations []Violation, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Row\t%s\t%s\t%s\n", config.StartTimeLabel, config.EndTimeLabel, config.TimeDifferenceLabel)
	for _, v := range violations {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", v.Row, v.StartTime, v.EndTime, FormatSeconds(v.TimeDifference))
	}
	return tw.Flush()
}

func (f *TextFormatter) formatDropped(d Dropped, w io.Writer) {
	var reasons []string
	if d.StartReason != "" {
		reasons = append(reasons, "start: "+d.StartReason)
	}
	if d.EndReason != "" {
		reasons = append(reasons, "end: "+d.EndReason)
	}
	fmt.Fprintf(w, "  - row %d: %s\n", d.Row, strings.Join(reasons, "; "))
}

// FormatSeconds renders a duration in seconds without trailing zeros.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatRows renders row numbers as a bracketed, comma separated list.
func FormatRows(rows []int) string {
	return "[" + joinRows(rows) + "]"
}

func rowList(rows []int) string {
	if len(rows) == 0 {
		return ""
	}
	return " (rows " + joinRows(rows) + ")"
}

func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ", ")
}
