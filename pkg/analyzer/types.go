// Package analyzer runs the duration check over a workbook and reports
// rows that finish too quickly.
package analyzer

import (
	"fmt"
	"time"

	"github.com/ccollicutt/timecheck/pkg/parser"
)

// Status is the overall outcome of a check.
type Status string

const (
	// StatusPass means no row is below the minimum duration.
	StatusPass Status = "pass"

	// StatusFail means at least one violation was found.
	StatusFail Status = "fail"
)

// EvaluatedRow is a row with both timestamps and its computed duration.
type EvaluatedRow struct {
	parser.ParsedRow

	// DurationSeconds is End minus Start. Negative when End precedes Start.
	DurationSeconds float64

	// DisplayRowNumber is the 1-based row number in the source spreadsheet.
	DisplayRowNumber int
}

// AnalysisResult contains the complete check output.
type AnalysisResult struct {
	// Evaluated holds every row that had both timestamps, in sheet order.
	Evaluated []EvaluatedRow

	// Violations is the subset of Evaluated below the minimum duration.
	Violations []EvaluatedRow

	// Dropped lists rows excluded because a timestamp was absent.
	Dropped []parser.DroppedRow

	// Headers maps canonical column labels to the original header text.
	Headers map[string]string

	// Metadata provides context about the check.
	Metadata AnalysisMetadata
}

// AnalysisMetadata provides context about a check run.
type AnalysisMetadata struct {
	// Source names the checked input, usually a file name.
	Source string

	// SheetName is the worksheet that was read.
	SheetName string

	// RowsRead is the number of data rows below the header.
	RowsRead int

	// MinDuration is the threshold rows were compared against.
	MinDuration time.Duration

	// StartTime is when the check began.
	StartTime time.Time

	// EndTime is when the check completed.
	EndTime time.Time
}

// Status returns StatusPass when there are no violations.
func (r *AnalysisResult) Status() Status {
	if len(r.Violations) == 0 {
		return StatusPass
	}
	return StatusFail
}

// HasViolations returns true if any row is below the minimum duration.
func (r *AnalysisResult) HasViolations() bool {
	return len(r.Violations) > 0
}

// ViolationRowNumbers returns the display row numbers of all violations
// in sheet order.
func (r *AnalysisResult) ViolationRowNumbers() []int {
	nums := make([]int, len(r.Violations))
	for i, v := range r.Violations {
		nums[i] = v.DisplayRowNumber
	}
	return nums
}

// ProcessingError wraps an unexpected failure inside the pipeline.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing error: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
