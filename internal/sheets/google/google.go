// Package google exports expense reports to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensync/internal/core"
	"expensync/internal/log"
	"expensync/internal/sheets"
)

// Ensure interface conformance
var _ sheets.ReportExporter = (*Exporter)(nil)

// Options configures the exporter. One of CredentialsJSON or
// CredentialsFile is required unless the service is injected.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	TotalsSheet     string
	TimelineSheet   string
}

// Exporter overwrites a totals sheet and a timeline sheet on every export.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	totalsSheet   string
	timelineSheet string
	logger        *log.Logger
}

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Exporter, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	credentials, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentials),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, opts Options, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.Discard()
	}
	totals := strings.TrimSpace(opts.TotalsSheet)
	if totals == "" {
		totals = "Totals"
	}
	timeline := strings.TrimSpace(opts.TimelineSheet)
	if timeline == "" {
		timeline = "Timeline"
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		totalsSheet:   totals,
		timelineSheet: timeline,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func loadCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// Export clears both sheets and writes the report into them.
func (e *Exporter) Export(ctx context.Context, report core.Report) (sheets.ExportResult, error) {
	if e.svc == nil {
		return sheets.ExportResult{}, errors.New("sheets service not initialized")
	}
	totals := sheets.TotalsRows(report)
	timeline := sheets.TimelineRows(report)

	if err := e.overwrite(ctx, e.totalsSheet, totals); err != nil {
		return sheets.ExportResult{}, err
	}
	if err := e.overwrite(ctx, e.timelineSheet, timeline); err != nil {
		return sheets.ExportResult{}, err
	}

	e.logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		"spreadsheet_id", e.spreadsheetID,
		"totals_rows", len(totals),
		"timeline_rows", len(timeline),
	)
	return sheets.ExportResult{
		TotalsRows:   len(totals),
		TimelineRows: len(timeline),
		Destination:  "spreadsheet " + e.spreadsheetID,
	}, nil
}

func (e *Exporter) overwrite(ctx context.Context, sheetName string, rows [][]any) error {
	clearRange := quoteSheet(sheetName) + "!A:B"
	_, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	dataRange := fmt.Sprintf("%s!A1:B%d", quoteSheet(sheetName), len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", dataRange, err)
	}
	return nil
}

// quoteSheet quotes a sheet name for A1 notation; embedded quotes are doubled.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
