package parser

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/ccollicutt/timecheck/pkg/config"
	"github.com/ccollicutt/timecheck/pkg/sheet"
)

// ErrBlank is returned for an empty timestamp cell.
var ErrBlank = errors.New("cell is blank")

// TimestampParser turns cells into timestamps using one strict format.
type TimestampParser struct {
	pattern *regexp.Regexp
	layout  string
}

// NewTimestampParser creates a parser. The pattern must match the whole
// text; the layout is then used for calendar validation.
func NewTimestampParser(pattern *regexp.Regexp, layout string) *TimestampParser {
	return &TimestampParser{
		pattern: pattern,
		layout:  layout,
	}
}

// NewTimestampParserFromConfig creates a parser from validated pipeline
// settings.
func NewTimestampParserFromConfig(ts *config.Timestamp) (*TimestampParser, error) {
	if ts.CompiledPattern() == nil {
		return nil, fmt.Errorf("timestamp pattern %q is not compiled", ts.Pattern)
	}
	return NewTimestampParser(ts.CompiledPattern(), ts.Layout), nil
}

// Parse returns the timestamp held by a cell. Date cells carry their
// time already. Text cells must match the pattern exactly and be a real
// calendar time. Plain numbers are rejected. Times are in UTC.
func (p *TimestampParser) Parse(cell sheet.Cell) (time.Time, error) {
	switch cell.Kind {
	case sheet.KindText:
	case sheet.KindDate:
		return cell.Time.UTC(), nil
	case sheet.KindBlank:
		return time.Time{}, ErrBlank
	default:
		return time.Time{}, fmt.Errorf("%s cell %q is not a text timestamp", cell.Kind, cell.Raw)
	}

	if !p.pattern.MatchString(cell.Raw) {
		return time.Time{}, fmt.Errorf("%q does not match format %s", cell.Raw, p.layout)
	}

	ts, err := time.Parse(p.layout, cell.Raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", cell.Raw, err)
	}

	return ts, nil
}
