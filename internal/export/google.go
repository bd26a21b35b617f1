package export

import (
	"context"
	"fmt"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleServices bundles the Workspace API backends used by the
// exporters, all authenticated with the same credentials.
type GoogleServices struct {
	Docs   DocsService
	Sheets SheetsService
	Drive  DriveService
}

// NewGoogleServices builds Docs, Sheets, and Drive services.
// Credentials come from the provided client options, typically
// option.WithCredentialsFile for a service account.
func NewGoogleServices(ctx context.Context, opts ...option.ClientOption) (*GoogleServices, error) {
	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("export: docs service: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("export: sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("export: drive service: %w", err)
	}
	return &GoogleServices{
		Docs:   &googleDocs{svc: docsSvc},
		Sheets: &googleSheets{svc: sheetsSvc},
		Drive:  &googleDrive{svc: driveSvc},
	}, nil
}

type googleDocs struct {
	svc *docs.Service
}

func (g *googleDocs) CreateDocument(ctx context.Context, title string) (string, error) {
	doc, err := g.svc.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return doc.DocumentId, nil
}

func (g *googleDocs) InsertText(ctx context.Context, documentID, text string) error {
	// Index 1 is the first insertable position in a fresh document body.
	req := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     text,
			},
		}},
	}
	_, err := g.svc.Documents.BatchUpdate(documentID, req).Context(ctx).Do()
	return err
}

type googleSheets struct {
	svc *sheets.Service
}

func (g *googleSheets) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	ss, err := g.svc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return ss.SpreadsheetId, nil
}

func (g *googleSheets) WriteValues(ctx context.Context, spreadsheetID string, values [][]interface{}) error {
	_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, "Sheet1!A1", &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

type googleDrive struct {
	svc *drive.Service
}

func (g *googleDrive) ShareWithUser(ctx context.Context, fileID, email string) error {
	_, err := g.svc.Permissions.Create(fileID, &drive.Permission{
		Type:         "user",
		Role:         "writer",
		EmailAddress: email,
	}).Fields("id").Context(ctx).Do()
	return err
}
