// Package parser projects a RawTable onto the start and end time columns
// and turns their cells into timestamps.
package parser

import (
	"time"

	"github.com/ccollicutt/timecheck/pkg/sheet"
)

// CanonicalRow is a table row reduced to the two time fields.
type CanonicalRow struct {
	// SourceRowIndex is the row's 0-based position in the RawTable.
	SourceRowIndex int

	// StartRaw is the untouched start time cell.
	StartRaw sheet.Cell

	// EndRaw is the untouched end time cell.
	EndRaw sheet.Cell
}

// ParsedRow is a CanonicalRow after timestamp parsing. A field that failed
// to parse has a zero time and a non-nil error.
type ParsedRow struct {
	CanonicalRow

	Start    time.Time
	End      time.Time
	StartErr error
	EndErr   error
}

// Complete reports whether both timestamps are present.
func (r *ParsedRow) Complete() bool {
	return r.StartErr == nil && r.EndErr == nil
}

// DroppedRow records a row removed from analysis because at least one of
// its timestamps was absent.
type DroppedRow struct {
	// SourceRowIndex is the row's 0-based position in the RawTable.
	SourceRowIndex int

	// DisplayRowNumber is the spreadsheet row number. Filled in by the
	// caller, which knows the header offset.
	DisplayRowNumber int

	// StartReason is empty when the start time parsed.
	StartReason string

	// EndReason is empty when the end time parsed.
	EndReason string
}
