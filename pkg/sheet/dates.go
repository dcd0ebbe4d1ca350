package sheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// isoDateLayouts are the forms Excel writes into t="d" cells.
var isoDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"20060102T150405.999Z07:00",
	"20060102T150405.999",
}

// isDateNumFmt reports whether a built-in number format id renders a date
// or time.
func isDateNumFmt(id int) bool {
	switch {
	case 14 <= id && id <= 22:
		return true
	case 27 <= id && id <= 36, 45 <= id && id <= 47, 50 <= id && id <= 58, 71 <= id && id <= 81:
		return true
	default:
		return false
	}
}

// isDateFormatCode reports whether a custom number format code renders a
// date or time. Only the first section counts. Quoted literals, escaped
// characters, padding, fills and bracketed modifiers such as colors or
// locales are ignored.
func isDateFormatCode(code string) bool {
	section, _, _ := strings.Cut(code, ";")
	section = strings.ToLower(section)

	for i := 0; i < len(section); i++ {
		switch c := section[i]; c {
		case '"':
			end := strings.IndexByte(section[i+1:], '"')
			if end < 0 {
				return false
			}
			i += end + 1
		case '[':
			end := strings.IndexByte(section[i+1:], ']')
			if end < 0 {
				return false
			}
			i += end + 1
		case '\\', '_', '*':
			i++
		case 'y', 'm', 'd', 'h', 's':
			return true
		}
	}
	return false
}

// dateStyles remembers which style ids of a workbook carry a date format.
type dateStyles struct {
	f     *excelize.File
	known map[int]bool
}

func newDateStyles(f *excelize.File) *dateStyles {
	return &dateStyles{f: f, known: make(map[int]bool)}
}

func (d *dateStyles) isDate(styleID int) (bool, error) {
	if v, ok := d.known[styleID]; ok {
		return v, nil
	}

	style, err := d.f.GetStyle(styleID)
	if err != nil {
		return false, fmt.Errorf("reading style %d: %w", styleID, err)
	}

	v := isDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		v = isDateFormatCode(*style.CustomNumFmt)
	}
	d.known[styleID] = v
	return v, nil
}

// parseISODate reads the value of a t="d" cell. Values without a zone
// are taken as UTC.
func parseISODate(raw string) (time.Time, error) {
	for _, layout := range isoDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO 8601 date", raw)
}

// dateFromSerial converts an Excel serial date.
func dateFromSerial(v float64, date1904 bool) (time.Time, error) {
	t, err := excelize.ExcelDateToTime(v, date1904)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
