// Package export turns finished reports into shared Google Docs and
// Sheets. Documents are created under the service account and then
// shared to the requesting user with writer access so they can edit
// their own copy.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidRecipient is returned before any document is created when
// the recipient address cannot receive a share.
var ErrInvalidRecipient = errors.New("export: invalid recipient email")

// SharingError reports that a document was created but could not be
// shared with the recipient. The file exists and may need manual
// cleanup or re-sharing.
type SharingError struct {
	FileID string
	Err    error
}

func (e *SharingError) Error() string {
	return fmt.Sprintf("export: file %s created but not shared: %v", e.FileID, e.Err)
}

func (e *SharingError) Unwrap() error { return e.Err }

// DocsService creates documents and fills them with text.
type DocsService interface {
	CreateDocument(ctx context.Context, title string) (string, error)
	InsertText(ctx context.Context, documentID, text string) error
}

// SheetsService creates spreadsheets and writes cell values.
type SheetsService interface {
	CreateSpreadsheet(ctx context.Context, title string) (string, error)
	WriteValues(ctx context.Context, spreadsheetID string, values [][]interface{}) error
}

// DriveService grants file access to users.
type DriveService interface {
	ShareWithUser(ctx context.Context, fileID, email string) error
}

// DocsExporter writes report text into a new Google Doc and shares it.
type DocsExporter struct {
	docs  DocsService
	drive DriveService
	now   func() time.Time
	log   *zap.Logger
}

func NewDocsExporter(docs DocsService, drive DriveService, log *zap.Logger) *DocsExporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocsExporter{docs: docs, drive: drive, now: time.Now, log: log}
}

// Export creates a titled document containing content, shares it with
// recipient, and returns the edit URL. The recipient is validated
// before anything is created.
func (e *DocsExporter) Export(ctx context.Context, content, reportTitle, recipient string) (string, error) {
	if err := validateRecipient(recipient); err != nil {
		return "", err
	}

	title := stampTitle(reportTitle, e.now())
	e.log.Info("creating doc export", zap.String("title", title), zap.String("recipient", recipient))

	docID, err := e.docs.CreateDocument(ctx, title)
	if err != nil {
		return "", fmt.Errorf("export: create document: %w", err)
	}
	if err := e.docs.InsertText(ctx, docID, content); err != nil {
		return "", fmt.Errorf("export: insert content: %w", err)
	}
	if err := e.drive.ShareWithUser(ctx, docID, recipient); err != nil {
		return "", &SharingError{FileID: docID, Err: err}
	}

	return fmt.Sprintf("https://docs.google.com/document/d/%s/edit", docID), nil
}

// SheetsExporter writes tabular report data into a new spreadsheet and
// shares it.
type SheetsExporter struct {
	sheets SheetsService
	drive  DriveService
	now    func() time.Time
	log    *zap.Logger
}

func NewSheetsExporter(sheets SheetsService, drive DriveService, log *zap.Logger) *SheetsExporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &SheetsExporter{sheets: sheets, drive: drive, now: time.Now, log: log}
}

// Export parses csvData into rows, writes them into a new spreadsheet
// starting at A1, shares it with recipient, and returns the edit URL.
func (e *SheetsExporter) Export(ctx context.Context, csvData, reportTitle, recipient string) (string, error) {
	if err := validateRecipient(recipient); err != nil {
		return "", err
	}

	values := parseCSVValues(csvData)
	title := stampTitle(reportTitle, e.now())
	e.log.Info("creating sheet export", zap.String("title", title), zap.String("recipient", recipient))

	sheetID, err := e.sheets.CreateSpreadsheet(ctx, title)
	if err != nil {
		return "", fmt.Errorf("export: create spreadsheet: %w", err)
	}
	if err := e.sheets.WriteValues(ctx, sheetID, values); err != nil {
		return "", fmt.Errorf("export: write values: %w", err)
	}
	if err := e.drive.ShareWithUser(ctx, sheetID, recipient); err != nil {
		return "", &SharingError{FileID: sheetID, Err: err}
	}

	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", sheetID), nil
}

func validateRecipient(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, email)
	}
	return nil
}

func stampTitle(reportTitle string, at time.Time) string {
	return fmt.Sprintf("%s - %s", reportTitle, at.Format("2006-01-02 15:04"))
}

// parseCSVValues turns CSV text into a cell grid. Malformed input falls
// back to one single-column row per line so the export still succeeds
// with whatever the pipeline produced.
func parseCSVValues(csvData string) [][]interface{} {
	trimmed := strings.TrimSpace(csvData)
	r := csv.NewReader(strings.NewReader(trimmed))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		var values [][]interface{}
		for _, line := range strings.Split(trimmed, "\n") {
			values = append(values, []interface{}{line})
		}
		return values
	}

	values := make([][]interface{}, len(records))
	for i, rec := range records {
		row := make([]interface{}, len(rec))
		for j, cell := range rec {
			row[j] = cell
		}
		values[i] = row
	}
	return values
}
