// Package sheet loads a worksheet from an xlsx workbook into an in-memory table.
package sheet

import (
	"fmt"
	"time"
)

// Kind is the closed set of cell value variants.
type Kind int

const (
	// KindBlank is an empty or missing cell.
	KindBlank Kind = iota

	// KindText is a string cell.
	KindText

	// KindNumber is a numeric cell without a date or time number format.
	KindNumber

	// KindDate is a cell Excel stores as a date: a serial number with a
	// date or time number format, or an ISO 8601 date cell.
	KindDate

	// KindUnparseable is an error cell or a numeric cell whose raw value
	// could not be read as a number.
	KindUnparseable
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindUnparseable:
		return "unparseable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Cell is a single untyped spreadsheet value.
type Cell struct {
	// Kind identifies which variant this cell holds.
	Kind Kind

	// Raw is the cell content as stored in the workbook.
	Raw string

	// Number is set for KindNumber cells.
	Number float64

	// Time is set for KindDate cells, in UTC.
	Time time.Time
}

// Text returns a KindText cell.
func Text(s string) Cell {
	return Cell{Kind: KindText, Raw: s}
}

// Number returns a KindNumber cell.
func Number(raw string, v float64) Cell {
	return Cell{Kind: KindNumber, Raw: raw, Number: v}
}

// Date returns a KindDate cell.
func Date(raw string, t time.Time) Cell {
	return Cell{Kind: KindDate, Raw: raw, Time: t}
}

// Blank returns a KindBlank cell.
func Blank() Cell {
	return Cell{Kind: KindBlank}
}

// Unparseable returns a KindUnparseable cell.
func Unparseable(raw string) Cell {
	return Cell{Kind: KindUnparseable, Raw: raw}
}

// Row is one data row of a RawTable.
type Row struct {
	// Index is the 0-based position of the row after the header row.
	Index int

	// Cells holds the row's values by column position. Trailing empty
	// cells may be absent.
	Cells []Cell
}

// Cell returns the value at the given column, or a blank cell if the
// row is shorter than that.
func (r Row) Cell(col int) Cell {
	if col < 0 || col >= len(r.Cells) {
		return Blank()
	}
	return r.Cells[col]
}

// RawTable is a worksheet materialized below its header row.
type RawTable struct {
	// SheetName is the worksheet the table was read from.
	SheetName string

	// HeaderRow is the 0-based physical row that supplied Headers.
	HeaderRow int

	// Headers holds the column labels from the header row.
	Headers []string

	// Rows holds every physical row after the header row, in order.
	Rows []Row
}

// Width returns the number of columns in the table: the widest of the
// header row and every data row.
func (t *RawTable) Width() int {
	w := len(t.Headers)
	for _, r := range t.Rows {
		if len(r.Cells) > w {
			w = len(r.Cells)
		}
	}
	return w
}

// Header returns the label for a column, or a generated one when the
// header row is blank or too short at that position.
func (t *RawTable) Header(col int) string {
	if col >= 0 && col < len(t.Headers) && t.Headers[col] != "" {
		return t.Headers[col]
	}
	return fmt.Sprintf("Column_%d", col+1)
}
