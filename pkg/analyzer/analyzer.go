package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ccollicutt/timecheck/pkg/config"
	"github.com/ccollicutt/timecheck/pkg/parser"
	"github.com/ccollicutt/timecheck/pkg/sheet"
)

// Analyzer runs the load, resolve, parse and detect stages in order.
type Analyzer struct {
	pipeline config.Pipeline
	parser   *parser.TimestampParser
	now      func() time.Time
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithClock overrides the clock used for run metadata.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer creates an analyzer for the given pipeline settings.
func NewAnalyzer(p config.Pipeline, opts ...AnalyzerOption) (*Analyzer, error) {
	if err := config.ValidatePipeline(&p); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}

	tp, err := parser.NewTimestampParserFromConfig(&p.Timestamp)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		pipeline: p,
		parser:   tp,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Pipeline returns the settings the analyzer runs with.
func (a *Analyzer) Pipeline() config.Pipeline {
	return a.pipeline
}

// AnalyzeFile checks the workbook at path.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*AnalysisResult, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, &sheet.LoadError{Source: filepath.Base(path), Err: err}
	}
	defer f.Close()

	return a.Analyze(ctx, filepath.Base(path), f)
}

// Analyze checks a workbook read from r. source names the input in the
// result and in load errors.
//
// The returned error is a *sheet.LoadError, a *parser.SchemaError or a
// *ProcessingError. Unparseable timestamps are not errors.
func (a *Analyzer) Analyze(ctx context.Context, source string, r io.Reader) (result *AnalysisResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			cause, ok := rec.(error)
			if !ok {
				cause = fmt.Errorf("%v", rec)
			}
			err = &ProcessingError{Err: cause}
		}
	}()

	started := a.now()

	table, err := sheet.Load(ctx, r, sheet.Options{
		SheetName: a.pipeline.SheetName,
		HeaderRow: a.pipeline.HeaderRow,
	})
	if err != nil {
		var le *sheet.LoadError
		if errors.As(err, &le) && le.Source == "" {
			le.Source = source
		}
		return nil, err
	}

	result, err = a.AnalyzeTable(ctx, source, table)
	if err != nil {
		return nil, err
	}
	result.Metadata.StartTime = started
	return result, nil
}

// AnalyzeTable runs the stages after loading on an already loaded table.
func (a *Analyzer) AnalyzeTable(_ context.Context, source string, table *sheet.RawTable) (*AnalysisResult, error) {
	started := a.now()

	rows, err := parser.Resolve(table, a.pipeline.Columns)
	if err != nil {
		return nil, err
	}

	kept, dropped := parser.Clean(rows, a.parser)
	offset := a.pipeline.RowOffset()
	for i := range dropped {
		dropped[i].DisplayRowNumber = dropped[i].SourceRowIndex + offset
	}

	evaluated := Evaluate(kept, offset)

	return &AnalysisResult{
		Evaluated:  evaluated,
		Violations: Violations(evaluated, a.pipeline.MinDuration),
		Dropped:    dropped,
		Headers:    parser.HeaderLabels(table, a.pipeline.Columns),
		Metadata: AnalysisMetadata{
			Source:      source,
			SheetName:   table.SheetName,
			RowsRead:    len(table.Rows),
			MinDuration: a.pipeline.MinDuration,
			StartTime:   started,
			EndTime:     a.now(),
		},
	}, nil
}

// Evaluate computes the duration and display row number of each complete
// row. Incomplete rows are skipped. rowOffset is added to SourceRowIndex.
func Evaluate(rows []parser.ParsedRow, rowOffset int) []EvaluatedRow {
	out := make([]EvaluatedRow, 0, len(rows))
	for _, r := range rows {
		if !r.Complete() {
			continue
		}
		out = append(out, EvaluatedRow{
			ParsedRow:        r,
			DurationSeconds:  elapsedSeconds(r.Start, r.End),
			DisplayRowNumber: r.SourceRowIndex + rowOffset,
		})
	}
	return out
}

// Violations returns the rows whose duration is strictly below threshold.
func Violations(rows []EvaluatedRow, threshold time.Duration) []EvaluatedRow {
	limit := threshold.Seconds()
	var out []EvaluatedRow
	for _, r := range rows {
		if r.DurationSeconds < limit {
			out = append(out, r)
		}
	}
	return out
}

// elapsedSeconds avoids time.Time.Sub, which saturates beyond ~292 years.
func elapsedSeconds(start, end time.Time) float64 {
	secs := float64(end.Unix() - start.Unix())
	nanos := float64(end.Nanosecond() - start.Nanosecond())
	return secs + nanos/1e9
}
