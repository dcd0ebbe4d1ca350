package sheet_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/timecheck/pkg/sheet"
	"github.com/ccollicutt/timecheck/pkg/sheet/sheettest"
)

var defaultOpts = sheet.Options{SheetName: "Sheet1", HeaderRow: 7}

func TestLoad_HeaderOffset(t *testing.T) {
	data := sheettest.Bytes(t, sheettest.Workbook{
		Header: sheettest.DefaultHeader(),
		Rows: [][]any{
			sheettest.TimeRow("2024.01.01 10:00:00", "2024.01.01 10:00:59"),
			sheettest.TimeRow("2024.01.01 11:00:00", "2024.01.01 11:05:00"),
		},
	})

	table, err := sheet.Load(context.Background(), bytes.NewReader(data), defaultOpts)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", table.SheetName)
	assert.Equal(t, "Begin", table.Header(0))
	assert.Equal(t, "Finish", table.Header(8))
	assert.Equal(t, 9, table.Width())
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, sheet.Text("2024.01.01 10:00:00"), first.Cell(0))
	assert.Equal(t, sheet.Text("2024.01.01 10:00:59"), first.Cell(8))
	assert.Equal(t, 1, table.Rows[1].Index)
}

func TestLoad_CellKinds(t *testing.T) {
	data := sheettest.Bytes(t, sheettest.Workbook{
		Header: sheettest.DefaultHeader(),
		Rows: [][]any{
			{"text", 42.5, nil, ""},
		},
	})

	table, err := sheet.Load(context.Background(), bytes.NewReader(data), defaultOpts)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	assert.Equal(t, sheet.KindText, row.Cell(0).Kind)
	assert.Equal(t, sheet.KindNumber, row.Cell(1).Kind)
	assert.InDelta(t, 42.5, row.Cell(1).Number, 1e-9)
	assert.Equal(t, sheet.KindBlank, row.Cell(2).Kind)
	assert.Equal(t, sheet.KindBlank, row.Cell(3).Kind)
	// past the end of the stored row
	assert.Equal(t, sheet.KindBlank, row.Cell(20).Kind)
}

func TestLoad_DateCells(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Second)

	tests := []struct {
		name   string
		format string
	}{
		{name: "default date format", format: ""},
		{name: "custom timestamp format", format: "yyyy.mm.dd hh:mm:ss"},
		{name: "time only format", format: "[$-409]h:mm:ss AM/PM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := sheettest.Bytes(t, sheettest.Workbook{
				Header:     sheettest.DefaultHeader(),
				Rows:       [][]any{sheettest.TimeRow(start, end)},
				DateFormat: tt.format,
			})

			table, err := sheet.Load(context.Background(), bytes.NewReader(data), defaultOpts)
			require.NoError(t, err)
			require.Len(t, table.Rows, 1)

			first := table.Rows[0].Cell(0)
			last := table.Rows[0].Cell(8)
			assert.Equal(t, sheet.KindDate, first.Kind)
			assert.Equal(t, sheet.KindDate, last.Kind)
			assert.True(t, first.Time.Equal(start), "start = %v, want %v", first.Time, start)
			assert.True(t, last.Time.Equal(end), "end = %v, want %v", last.Time, end)
		})
	}
}

func TestLoad_NumbersWithoutDateFormat(t *testing.T) {
	data := sheettest.Bytes(t, sheettest.Workbook{
		Header: sheettest.DefaultHeader(),
		Rows:   [][]any{{45292.5, "op", "L1", "A", "B-1", 10, "done", "", 45292.6}},
	})

	table, err := sheet.Load(context.Background(), bytes.NewReader(data), defaultOpts)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, sheet.KindNumber, table.Rows[0].Cell(0).Kind)
	assert.Equal(t, sheet.KindNumber, table.Rows[0].Cell(5).Kind)
}

func TestLoad_SheetNameIsExact(t *testing.T) {
	data := sheettest.Bytes(t, sheettest.Workbook{
		Sheet:  "SHEET1",
		Header: sheettest.DefaultHeader(),
		Rows:   [][]any{sheettest.TimeRow("2024.01.01 10:00:00", "2024.01.01 10:00:30")},
	})

	_, err := sheet.Load(context.Background(), bytes.NewReader(data), defaultOpts)
	require.Error(t, err)

	var le *sheet.LoadError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, err.Error(), `"Sheet1"`)
}

func TestLoad_BlankRowsKeepPositions(t *testing.T) {
	data := sheettest.Bytes(t, sheettest.Workbook{
		Header: sheettest.DefaultHeader(),
		Rows: [][]any{
			sheettest.TimeRow("2024.01.01 10:00:00", "2024.01.01 10:05:00"),
			nil,
			sheettest.TimeRow("2024.01.01 12:00:00", "2024.01.01 12:00:10"),
		},
	})

	table, err := sheet.Load(context.Background(), bytes.NewReader(data), defaultOpts)
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, sheet.KindBlank, table.Rows[1].Cell(0).Kind)
	assert.Equal(t, 2, table.Rows[2].Index)
	assert.Equal(t, "2024.01.01 12:00:00", table.Rows[2].Cell(0).Raw)
}

func TestLoad_NoHeaderRow(t *testing.T) {
	data := sheettest.Bytes(t, sheettest.Workbook{})

	table, err := sheet.Load(context.Background(), bytes.NewReader(data), defaultOpts)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Width())
	assert.Empty(t, table.Rows)
}

func TestLoad_BlankHeaderLabel(t *testing.T) {
	data := sheettest.Bytes(t, sheettest.Workbook{
		Header: []any{"Start", nil, "Third"},
	})

	table, err := sheet.Load(context.Background(), bytes.NewReader(data), defaultOpts)
	require.NoError(t, err)
	assert.Equal(t, "Column_2", table.Header(1))
	assert.Equal(t, "Column_9", table.Header(8))
}

func TestLoad_MissingSheet(t *testing.T) {
	data := sheettest.Bytes(t, sheettest.Workbook{
		Sheet:  "Data",
		Header: sheettest.DefaultHeader(),
	})

	_, err := sheet.Load(context.Background(), bytes.NewReader(data), defaultOpts)
	require.Error(t, err)

	var le *sheet.LoadError
	require.True(t, errors.As(err, &le), "error should be a *LoadError, got %T", err)
	assert.Contains(t, err.Error(), `"Sheet1"`)
}

func TestLoad_NotAWorkbook(t *testing.T) {
	_, err := sheet.Load(context.Background(), strings.NewReader("Start,End\n"), defaultOpts)
	require.Error(t, err)

	var le *sheet.LoadError
	require.True(t, errors.As(err, &le))
	assert.NotNil(t, errors.Unwrap(err))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shift.xlsx")
	data := sheettest.Bytes(t, sheettest.Workbook{
		Header: sheettest.DefaultHeader(),
		Rows:   [][]any{sheettest.TimeRow("2024.01.01 10:00:00", "2024.01.01 10:01:00")},
	})
	require.NoError(t, os.WriteFile(path, data, 0644))

	table, err := sheet.LoadFile(context.Background(), path, defaultOpts)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := sheet.LoadFile(context.Background(), filepath.Join(dir, "missing.xlsx"), defaultOpts)
	var le *sheet.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "missing.xlsx", le.Source)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "notes.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("plain text"), 0644))
	_, err = sheet.LoadFile(context.Background(), bad, defaultOpts)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "notes.xlsx", le.Source)
	assert.Contains(t, err.Error(), "notes.xlsx")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "blank", sheet.KindBlank.String())
	assert.Equal(t, "text", sheet.KindText.String())
	assert.Equal(t, "number", sheet.KindNumber.String())
	assert.Equal(t, "date", sheet.KindDate.String())
	assert.Equal(t, "unparseable", sheet.KindUnparseable.String())
	assert.Equal(t, "kind(9)", sheet.Kind(9).String())
}
