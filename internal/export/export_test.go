package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocs struct {
	createdTitle string
	insertedText string
	createErr    error
	insertErr    error
	calls        int
}

func (f *fakeDocs) CreateDocument(ctx context.Context, title string) (string, error) {
	f.calls++
	f.createdTitle = title
	if f.createErr != nil {
		return "", f.createErr
	}
	return "doc-123", nil
}

func (f *fakeDocs) InsertText(ctx context.Context, documentID, text string) error {
	f.insertedText = text
	return f.insertErr
}

type fakeSheets struct {
	createdTitle string
	gotValues    [][]interface{}
	calls        int
}

func (f *fakeSheets) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	f.calls++
	f.createdTitle = title
	return "sheet-456", nil
}

func (f *fakeSheets) WriteValues(ctx context.Context, spreadsheetID string, values [][]interface{}) error {
	f.gotValues = values
	return nil
}

type fakeDrive struct {
	sharedWith string
	err        error
}

func (f *fakeDrive) ShareWithUser(ctx context.Context, fileID, email string) error {
	f.sharedWith = email
	return f.err
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func TestDocsExporter_Export(t *testing.T) {
	docs := &fakeDocs{}
	drive := &fakeDrive{}
	e := NewDocsExporter(docs, drive, nil)
	e.now = fixedClock

	url, err := e.Export(context.Background(), "full report text", "Market Analysis", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/document/d/doc-123/edit", url)
	assert.Equal(t, "Market Analysis - 2026-03-14 09:30", docs.createdTitle)
	assert.Equal(t, "full report text", docs.insertedText)
	assert.Equal(t, "ana@example.com", drive.sharedWith)
}

func TestDocsExporter_InvalidRecipientBeforeCreation(t *testing.T) {
	docs := &fakeDocs{}
	e := NewDocsExporter(docs, &fakeDrive{}, nil)

	for _, email := range []string{"", "not-an-email"} {
		_, err := e.Export(context.Background(), "text", "Report", email)
		assert.ErrorIs(t, err, ErrInvalidRecipient)
	}
	assert.Zero(t, docs.calls, "no document should be created for a bad recipient")
}

func TestDocsExporter_SharingFailureIsDistinct(t *testing.T) {
	e := NewDocsExporter(&fakeDocs{}, &fakeDrive{err: errors.New("permission api down")}, nil)

	_, err := e.Export(context.Background(), "text", "Report", "ana@example.com")
	var shareErr *SharingError
	require.ErrorAs(t, err, &shareErr)
	assert.Equal(t, "doc-123", shareErr.FileID)
}

func TestSheetsExporter_Export(t *testing.T) {
	sheets := &fakeSheets{}
	e := NewSheetsExporter(sheets, &fakeDrive{}, nil)
	e.now = fixedClock

	url, err := e.Export(context.Background(), "company,revenue\nAcme,1200", "Q1 Numbers", "bo@example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-456/edit", url)
	assert.Equal(t, "Q1 Numbers - 2026-03-14 09:30", sheets.createdTitle)
	require.Len(t, sheets.gotValues, 2)
	assert.Equal(t, []interface{}{"company", "revenue"}, sheets.gotValues[0])
	assert.Equal(t, []interface{}{"Acme", "1200"}, sheets.gotValues[1])
}

func TestSheetsExporter_InvalidRecipientBeforeCreation(t *testing.T) {
	sheets := &fakeSheets{}
	e := NewSheetsExporter(sheets, &fakeDrive{}, nil)

	_, err := e.Export(context.Background(), "a,b", "Report", "nope")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Zero(t, sheets.calls)
}

func TestParseCSVValues_RaggedRows(t *testing.T) {
	values := parseCSVValues("a,b,c\nd,e\nf")
	require.Len(t, values, 3)
	assert.Len(t, values[0], 3)
	assert.Len(t, values[1], 2)
	assert.Len(t, values[2], 1)
}

func TestParseCSVValues_MalformedFallsBackToLines(t *testing.T) {
	// A bare quote makes the csv reader bail, so each line becomes a
	// single cell.
	values := parseCSVValues("good line\n\"broken quote\nlast line")
	require.Len(t, values, 3)
	for _, row := range values {
		assert.Len(t, row, 1)
	}
	assert.Equal(t, "good line", values[0][0])
}
