package parser

import (
	"fmt"

	"github.com/ccollicutt/timecheck/pkg/config"
	"github.com/ccollicutt/timecheck/pkg/sheet"
)

// SchemaError reports a table too narrow to hold the time columns.
type SchemaError struct {
	// Columns is the width of the loaded table.
	Columns int

	// Required is the minimum width needed.
	Required int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: table has %d column(s), at least %d required", e.Columns, e.Required)
}

// Resolve projects every table row onto the configured start and end
// columns, whatever their header text says. The table is not modified.
func Resolve(table *sheet.RawTable, cols config.Columns) ([]CanonicalRow, error) {
	if w, need := table.Width(), cols.Required(); w < need {
		return nil, &SchemaError{Columns: w, Required: need}
	}

	rows := make([]CanonicalRow, len(table.Rows))
	for i, r := range table.Rows {
		rows[i] = CanonicalRow{
			SourceRowIndex: r.Index,
			StartRaw:       r.Cell(cols.Start),
			EndRaw:         r.Cell(cols.End),
		}
	}
	return rows, nil
}

// HeaderLabels maps the canonical labels to the original header text of
// the selected columns.
func HeaderLabels(table *sheet.RawTable, cols config.Columns) map[string]string {
	return map[string]string{
		config.StartTimeLabel: table.Header(cols.Start),
		config.EndTimeLabel:   table.Header(cols.End),
	}
}
