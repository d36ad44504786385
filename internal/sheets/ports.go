// Package sheets publishes aggregated expense reports to spreadsheet-like
// chart consumers.
package sheets

import (
	"context"

	"expensync/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportExporter overwrites the destination with the given report.
	ReportExporter interface {
		Export(ctx context.Context, report core.Report) (ExportResult, error)
	}

	ExportResult struct {
		TotalsRows   int
		TimelineRows int
		Destination  string
	}
)

var (
	TotalsHeader   = []any{"Category", "Amount"}
	TimelineHeader = []any{"Date", "Amount"}
)

// TotalsRows lays out the category breakdown with a header and a final
// grand total row. Amounts are decimal strings so no float rounding occurs.
func TotalsRows(report core.Report) [][]any {
	rows := make([][]any, 0, len(report.ByCategory)+2)
	rows = append(rows, TotalsHeader)
	for _, c := range report.ByCategory {
		rows = append(rows, []any{c.Name, c.Amount.String()})
	}
	rows = append(rows, []any{"Total", report.Total.String()})
	return rows
}

// TimelineRows lays out one row per day in ascending order after a header.
func TimelineRows(report core.Report) [][]any {
	rows := make([][]any, 0, len(report.Timeline)+1)
	rows = append(rows, TimelineHeader)
	for _, e := range report.Timeline {
		rows = append(rows, []any{e.Date.String(), e.Amount.String()})
	}
	return rows
}
