// Package sheettest builds xlsx workbooks in memory for tests.
package sheettest

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// Workbook describes a single-sheet workbook laid out the way the
// checker expects: a title block, a header row, then data rows.
type Workbook struct {
	// Sheet is the worksheet name. Defaults to "Sheet1".
	Sheet string

	// HeaderRow is the 0-based physical row of the header. Defaults to 7
	// when Header is set and HeaderRow is zero; use NoTitle for row 0.
	HeaderRow int

	// NoTitle places the header at HeaderRow even when it is zero.
	NoTitle bool

	// Header holds the header labels.
	Header []any

	// Rows holds data rows written below the header. nil values are left empty.
	// time.Time values are stored as Excel dates.
	Rows [][]any

	// DateFormat is a custom number format applied to time.Time values.
	// Empty keeps the format excelize picks.
	DateFormat string
}

// DefaultHeader is a nine column header with the time columns at A and I.
func DefaultHeader() []any {
	return []any{"Begin", "Operator", "Line", "Shift", "Batch", "Qty", "Status", "Notes", "Finish"}
}

// TimeRow returns a nine column data row with start in column A and end
// in column I.
func TimeRow(start, end any) []any {
	return []any{start, "op", "L1", "A", "B-1", 10, "done", "", end}
}

// Bytes renders the workbook to xlsx bytes.
func Bytes(t testing.TB, wb Workbook) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := wb.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("renaming sheet: %v", err)
		}
	}

	headerRow := wb.HeaderRow
	if headerRow == 0 && !wb.NoTitle {
		headerRow = 7
	}

	if headerRow > 0 {
		setRow(t, f, sheet, 0, []any{"Operations log"})
	}
	if wb.Header != nil {
		setRow(t, f, sheet, headerRow, wb.Header)
	}
	dateStyle := 0
	if wb.DateFormat != "" {
		format := wb.DateFormat
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
		if err != nil {
			t.Fatalf("creating date style: %v", err)
		}
		dateStyle = id
	}

	for i, row := range wb.Rows {
		setRow(t, f, sheet, headerRow+1+i, row)
		if dateStyle != 0 {
			styleDates(t, f, sheet, headerRow+1+i, row, dateStyle)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("writing workbook: %v", err)
	}
	return buf.Bytes()
}

func setRow(t testing.TB, f *excelize.File, sheet string, row int, values []any) {
	t.Helper()
	for col, v := range values {
		if v == nil {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetCellValue(sheet, axis, v); err != nil {
			t.Fatalf("setting %s: %v", axis, err)
		}
	}
}

func styleDates(t testing.TB, f *excelize.File, sheet string, row int, values []any, style int) {
	t.Helper()
	for col, v := range values {
		if _, ok := v.(time.Time); !ok {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetCellStyle(sheet, axis, axis, style); err != nil {
			t.Fatalf("styling %s: %v", axis, err)
		}
	}
}
