// Package output provides formatting and output generation for check results.
package output

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/ccollicutt/timecheck/pkg/analyzer"
	"github.com/ccollicutt/timecheck/pkg/parser"
	"github.com/ccollicutt/timecheck/pkg/sheet"
)

// TimeLayout is how timestamps are shown in reports.
const TimeLayout = "2006-01-02 15:04:05"

// Report is the complete check output.
type Report struct {
	// Status is pass or fail.
	Status analyzer.Status `json:"status"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// ViolatedRows lists display row numbers of violations in sheet order.
	ViolatedRows []int `json:"violated_rows"`

	// Violations holds the display columns of each violating row.
	Violations []Violation `json:"violations"`

	// Dropped lists rows skipped for missing or malformed timestamps.
	Dropped []Dropped `json:"dropped,omitempty"`

	// Headers maps canonical column labels to the original header text.
	Headers map[string]string `json:"headers,omitempty"`

	// Metadata provides context about the check.
	Metadata Metadata `json:"metadata"`
}

// Violation is one row below the minimum duration.
type Violation struct {
	Row            int     `json:"row"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	TimeDifference float64 `json:"time_difference_s"`
}

// Dropped is one row excluded from the check.
type Dropped struct {
	Row         int    `json:"row"`
	StartReason string `json:"start_reason,omitempty"`
	EndReason   string `json:"end_reason,omitempty"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// RowsRead is the number of data rows below the header.
	RowsRead int `json:"rows_read"`

	// RowsEvaluated is the number of rows with both timestamps.
	RowsEvaluated int `json:"rows_evaluated"`

	// RowsDropped is the number of rows skipped for bad timestamps.
	RowsDropped int `json:"rows_dropped"`

	// Violations is the number of rows below the minimum duration.
	Violations int `json:"violations"`

	// MinDurationSeconds is the threshold used.
	MinDurationSeconds float64 `json:"min_duration_s"`

	// Durations describes evaluated durations. Nil when nothing was evaluated.
	Durations *DurationStats `json:"durations,omitempty"`
}

// DurationStats summarizes evaluated durations in seconds.
type DurationStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Metadata provides context about the check run.
type Metadata struct {
	// RunID uniquely identifies this report.
	RunID string `json:"run_id"`

	// Source names the checked input.
	Source string `json:"source"`

	// Sheet is the worksheet that was read.
	Sheet string `json:"sheet"`

	// AnalyzedAt is when the check was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the check took.
	Duration time.Duration `json:"duration_ns"`
}

// NewReport creates a Report from a check result.
func NewReport(result *analyzer.AnalysisResult) *Report {
	report := &Report{
		Status:       result.Status(),
		ViolatedRows: result.ViolationRowNumbers(),
		Violations:   make([]Violation, len(result.Violations)),
		Headers:      result.Headers,
		Summary: Summary{
			RowsRead:           result.Metadata.RowsRead,
			RowsEvaluated:      len(result.Evaluated),
			RowsDropped:        len(result.Dropped),
			Violations:         len(result.Violations),
			MinDurationSeconds: result.Metadata.MinDuration.Seconds(),
			Durations:          durationStats(result.Evaluated),
		},
		Metadata: Metadata{
			RunID:      uuid.NewString(),
			Source:     result.Metadata.Source,
			Sheet:      result.Metadata.SheetName,
			AnalyzedAt: result.Metadata.EndTime,
			Duration:   result.Metadata.EndTime.Sub(result.Metadata.StartTime),
		},
	}

	for i, v := range result.Violations {
		report.Violations[i] = Violation{
			Row:            v.DisplayRowNumber,
			StartTime:      v.Start.Format(TimeLayout),
			EndTime:        v.End.Format(TimeLayout),
			TimeDifference: v.DurationSeconds,
		}
	}

	for _, d := range result.Dropped {
		report.Dropped = append(report.Dropped, newDropped(d))
	}

	return report
}

func newDropped(d parser.DroppedRow) Dropped {
	return Dropped{
		Row:         d.DisplayRowNumber,
		StartReason: d.StartReason,
		EndReason:   d.EndReason,
	}
}

func durationStats(rows []analyzer.EvaluatedRow) *DurationStats {
	if len(rows) == 0 {
		return nil
	}

	data := make(stats.Float64Data, len(rows))
	for i, r := range rows {
		data[i] = r.DurationSeconds
	}

	// stats only errors on empty input, which is handled above
	minV, _ := data.Min()
	maxV, _ := data.Max()
	mean, _ := data.Mean()
	median, _ := data.Median()

	return &DurationStats{Min: minV, Max: maxV, Mean: mean, Median: median}
}

// HasViolations returns true if any violations were detected.
func (r *Report) HasViolations() bool {
	return r.Summary.Violations > 0
}

// ErrorKind classifies a terminal check error.
type ErrorKind string

const (
	ErrorKindLoad       ErrorKind = "load"
	ErrorKindSchema     ErrorKind = "schema"
	ErrorKindProcessing ErrorKind = "processing"
)

// ErrorReport is the output for a check that could not complete.
type ErrorReport struct {
	Status string    `json:"status"`
	Kind   ErrorKind `json:"kind"`
	Error  string    `json:"error"`
}

// NewErrorReport classifies err and carries its message verbatim.
func NewErrorReport(err error) *ErrorReport {
	return &ErrorReport{
		Status: "error",
		Kind:   ClassifyError(err),
		Error:  err.Error(),
	}
}

// ClassifyError returns the kind of a terminal check error. Anything that
// is not a load or schema error counts as a processing error.
func ClassifyError(err error) ErrorKind {
	var le *sheet.LoadError
	var se *parser.SchemaError
	switch {
	case errors.As(err, &le):
		return ErrorKindLoad
	case errors.As(err, &se):
		return ErrorKindSchema
	default:
		return ErrorKindProcessing
	}
}
