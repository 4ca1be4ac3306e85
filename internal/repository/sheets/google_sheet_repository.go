package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/broadcaster/internal/config"
	"github.com/mamadbah2/broadcaster/internal/domain/models"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
	ReadRecipients(ctx context.Context, sheetRange string) ([]models.Recipient, error)
	AppendReport(ctx context.Context, report models.BroadcastReport) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	reportRange   string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		reportRange:   cfg.ReportRange,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// ReadRecipients reads a contact list whose first row is a header.
func (r *GoogleSheetRepository) ReadRecipients(ctx context.Context, sheetRange string) ([]models.Recipient, error) {
	rows, err := r.ReadRange(ctx, sheetRange)
	if err != nil {
		return nil, err
	}

	recipients := ParseRecipients(rows)
	r.logger.Info("recipients loaded from sheet",
		zap.String("range", sheetRange),
		zap.Int("recipients", len(recipients)))
	return recipients, nil
}

// AppendReport writes a summary row for a finished broadcast. It is a no-op when
// no report range is configured.
func (r *GoogleSheetRepository) AppendReport(ctx context.Context, report models.BroadcastReport) error {
	if r.reportRange == "" {
		return nil
	}
	return r.WriteRow(ctx, r.reportRange, ReportRow(report))
}

// ReportRow flattens a report into spreadsheet cells.
func ReportRow(report models.BroadcastReport) []interface{} {
	return []interface{}{
		report.CompletedAt.UTC().Format(time.RFC3339),
		report.ID,
		report.TemplateName,
		report.Status,
		report.Stats.TotalContacts,
		report.Stats.SuccessCount,
		report.Stats.FailedCount,
		fmt.Sprintf("%.2f", report.Stats.ProcessingTimeSeconds),
		report.DeliveryStatus,
		report.Error,
	}
}
