package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Options selects what part of the workbook is loaded.
type Options struct {
	// SheetName is the worksheet to read.
	SheetName string

	// HeaderRow is the 0-based physical row holding column labels.
	// Rows above it are skipped.
	HeaderRow int
}

// LoadFile reads the workbook at path. See Load.
func LoadFile(ctx context.Context, path string, opts Options) (*RawTable, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, &LoadError{Source: filepath.Base(path), Err: err}
	}
	defer f.Close()

	table, err := Load(ctx, f, opts)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.Source == "" {
			le.Source = filepath.Base(path)
		}
		return nil, err
	}
	return table, nil
}

// Load reads an xlsx workbook from r and returns the rows of the
// configured sheet below the header row. Every failure is a *LoadError.
func Load(_ context.Context, r io.Reader, opts Options) (*RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("opening workbook: %w", err)}
	}
	defer f.Close()

	// GetSheetIndex ignores case; sheet names must match exactly.
	if !slices.Contains(f.GetSheetList(), opts.SheetName) {
		return nil, &LoadError{Err: fmt.Errorf("worksheet named %q not found", opts.SheetName)}
	}

	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("reading workbook properties: %w", err)}
	}
	c := &classifier{
		f:        f,
		sheet:    opts.SheetName,
		date1904: props.Date1904 != nil && *props.Date1904,
		styles:   newDateStyles(f),
	}

	rows, err := f.GetRows(opts.SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("reading sheet %q: %w", opts.SheetName, err)}
	}

	table := &RawTable{
		SheetName: opts.SheetName,
		HeaderRow: opts.HeaderRow,
	}

	if len(rows) <= opts.HeaderRow {
		// No header row means no columns; the resolver rejects the table.
		return table, nil
	}

	headers := make([]string, len(rows[opts.HeaderRow]))
	for i, h := range rows[opts.HeaderRow] {
		headers[i] = strings.TrimSpace(h)
	}
	table.Headers = headers

	data := rows[opts.HeaderRow+1:]
	table.Rows = make([]Row, len(data))
	for i, values := range data {
		physical := opts.HeaderRow + 1 + i
		cells := make([]Cell, len(values))
		for col, raw := range values {
			cell, err := c.classify(col, physical, raw)
			if err != nil {
				return nil, &LoadError{Err: err}
			}
			cells[col] = cell
		}
		table.Rows[i] = Row{Index: i, Cells: cells}
	}

	return table, nil
}

type classifier struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   *dateStyles
}

// classify maps a raw value onto the Cell variant using the cell's
// stored type and number format. col and row are 0-based.
func (c *classifier) classify(col, row int, raw string) (Cell, error) {
	if raw == "" {
		return Blank(), nil
	}

	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return Cell{}, fmt.Errorf("addressing cell at row %d column %d: %w", row+1, col+1, err)
	}

	typ, err := c.f.GetCellType(c.sheet, axis)
	if err != nil {
		return Cell{}, fmt.Errorf("reading type of cell %s: %w", axis, err)
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		// Numeric cells are stored without a type attribute.
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Unparseable(raw), nil
		}
		return c.number(axis, raw, v)
	case excelize.CellTypeDate:
		t, err := parseISODate(raw)
		if err != nil {
			return Unparseable(raw), nil
		}
		return Date(raw, t), nil
	case excelize.CellTypeError:
		return Unparseable(raw), nil
	default:
		return Text(raw), nil
	}
}

// number returns a Date cell when the cell's number format shows a date
// or time, and a Number cell otherwise.
func (c *classifier) number(axis, raw string, v float64) (Cell, error) {
	styleID, err := c.f.GetCellStyle(c.sheet, axis)
	if err != nil {
		return Cell{}, fmt.Errorf("reading style of cell %s: %w", axis, err)
	}

	isDate, err := c.styles.isDate(styleID)
	if err != nil {
		return Cell{}, fmt.Errorf("cell %s: %w", axis, err)
	}
	if !isDate {
		return Number(raw, v), nil
	}

	t, err := dateFromSerial(v, c.date1904)
	if err != nil {
		return Unparseable(raw), nil
	}
	return Date(raw, t), nil
}
