package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenthub/internal/agents"
	"agenthub/internal/analytics"
	"agenthub/internal/export"
	"agenthub/internal/orchestrator"
)

type fakeGen struct{ reply string }

func (f *fakeGen) Complete(ctx context.Context, prompt string) (string, error) {
	return f.reply, nil
}

func (f *fakeGen) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.reply, nil
}

type fakeAnalytics struct {
	report *analytics.Report
	err    error
}

func (f *fakeAnalytics) Analyze(ctx context.Context, query string, opts analytics.Options) (*analytics.Report, error) {
	return f.report, f.err
}

type fakeExporter struct {
	link string
	err  error
	got  string
}

func (f *fakeExporter) Export(ctx context.Context, content, reportTitle, recipient string) (string, error) {
	f.got = content
	return f.link, f.err
}

func newTestServer(fa *fakeAnalytics, docsExp, sheetsExp *fakeExporter) *Server {
	if fa == nil {
		fa = &fakeAnalytics{report: &analytics.Report{}}
	}
	orch := orchestrator.New(orchestrator.Deps{
		Generator: &fakeGen{reply: "GENERAL_CHAT"},
		General:   agents.NewGeneralAgent(&fakeGen{reply: "hello from the hub"}),
		Analytics: fa,
	}, nil)
	if docsExp == nil {
		docsExp = &fakeExporter{}
	}
	if sheetsExp == nil {
		sheetsExp = &fakeExporter{}
	}
	return New(orchestrator.NewHub(orch, nil), fa, docsExp, sheetsExp, nil)
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleChat(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	rec := postJSON(t, srv.Handler(), "/api/chat",
		`{"query": "hi", "user": {"name": "Ana", "email": "ana@example.com", "role": "EMPLOYEE"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp orchestrator.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hi", resp.Query)
	assert.Equal(t, "hello from the hub", resp.Response)
	assert.NotEmpty(t, resp.SessionID)
}

func TestHandleChat_MissingQuery(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	rec := postJSON(t, srv.Handler(), "/api/chat", `{"user": {"role": "PUBLIC"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_BadBody(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	rec := postJSON(t, srv.Handler(), "/api/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyze(t *testing.T) {
	fa := &fakeAnalytics{report: &analytics.Report{
		Summary:  "Revenue up 25%.",
		GraphURL: "https://bucket.example/c.png",
		CSVData:  "a,b\n1,2",
		RawData:  "raw",
	}}
	srv := newTestServer(fa, nil, nil)
	rec := postJSON(t, srv.Handler(), "/api/analytics/analyze",
		`{"query": "revenue trends", "user": {"email": "ana@example.com", "role": "EMPLOYEE"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Revenue up 25%.", resp.Summary)
	assert.Equal(t, "https://bucket.example/c.png", resp.GraphURL)
	assert.Equal(t, "raw", resp.RawData1)
}

func TestHandleAnalyze_SafetyRejected(t *testing.T) {
	srv := newTestServer(&fakeAnalytics{err: analytics.ErrSafetyRejected}, nil, nil)
	rec := postJSON(t, srv.Handler(), "/api/analytics/analyze", `{"query": "bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "rephrase")
}

func TestHandleAnalyze_PipelineError(t *testing.T) {
	srv := newTestServer(&fakeAnalytics{err: errors.New("boom")}, nil, nil)
	rec := postJSON(t, srv.Handler(), "/api/analytics/analyze", `{"query": "q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleExport_Docs(t *testing.T) {
	docsExp := &fakeExporter{link: "https://docs.google.com/document/d/abc/edit"}
	srv := newTestServer(nil, docsExp, nil)
	rec := postJSON(t, srv.Handler(), "/api/analytics/export",
		`{"export_type": "docs", "content": "report text", "user": {"email": "ana@example.com"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "document/d/abc")
	assert.Equal(t, "report text", docsExp.got)
}

func TestHandleExport_UnknownType(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	rec := postJSON(t, srv.Handler(), "/api/analytics/export", `{"export_type": "pdf"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExport_InvalidRecipient(t *testing.T) {
	docsExp := &fakeExporter{err: export.ErrInvalidRecipient}
	srv := newTestServer(nil, docsExp, nil)
	rec := postJSON(t, srv.Handler(), "/api/analytics/export", `{"export_type": "docs"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
