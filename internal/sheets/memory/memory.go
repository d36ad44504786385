// Package memory provides an in-process ReportExporter used when no
// spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"expensync/internal/core"
	"expensync/internal/sheets"
)

var _ sheets.ReportExporter = (*Exporter)(nil)

// Exporter keeps the rows of the most recent export.
type Exporter struct {
	mu       sync.Mutex
	totals   [][]any
	timeline [][]any
	exports  int
}

func New() *Exporter {
	return &Exporter{}
}

// Export replaces the stored sheets with the report.
func (e *Exporter) Export(ctx context.Context, report core.Report) (sheets.ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return sheets.ExportResult{}, err
	}
	totals := sheets.TotalsRows(report)
	timeline := sheets.TimelineRows(report)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.totals = totals
	e.timeline = timeline
	e.exports++
	return sheets.ExportResult{
		TotalsRows:   len(totals),
		TimelineRows: len(timeline),
		Destination:  "memory",
	}, nil
}

// Sheets returns copies of the last exported totals and timeline rows.
func (e *Exporter) Sheets() (totals, timeline [][]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyRows(e.totals), copyRows(e.timeline)
}

// Exports returns how many exports have completed.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}

func copyRows(in [][]any) [][]any {
	if in == nil {
		return nil
	}
	out := make([][]any, len(in))
	for i, row := range in {
		out[i] = append([]any(nil), row...)
	}
	return out
}
