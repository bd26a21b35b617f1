// Package server exposes the hub over HTTP. It is a thin JSON adapter:
// decode, dispatch, encode. All behavior lives behind it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"agenthub/internal/analytics"
	"agenthub/internal/export"
	"agenthub/internal/orchestrator"
)

// Exporter publishes report content and returns a shareable link.
type Exporter interface {
	Export(ctx context.Context, content, reportTitle, recipient string) (string, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	hub       *orchestrator.Hub
	analytics orchestrator.AnalyticsRunner
	docs      Exporter
	sheets    Exporter
	log       *zap.Logger
}

func New(hub *orchestrator.Hub, analyticsRunner orchestrator.AnalyticsRunner, docs, sheets Exporter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{hub: hub, analytics: analyticsRunner, docs: docs, sheets: sheets, log: log}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/analytics/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/analytics/export", s.handleExport)
	return mux
}

type userPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u userPayload) toUser() orchestrator.User {
	return orchestrator.User{Name: u.Name, Email: u.Email, Role: orchestrator.Role(u.Role)}
}

type chatRequest struct {
	Query     string      `json:"query"`
	SessionID string      `json:"session_id"`
	User      userPayload `json:"user"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.hub.Handle(r.Context(), req.User.toUser(), req.Query, req.SessionID)
	if err != nil {
		if errors.Is(err, orchestrator.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "Missing query")
			return
		}
		s.log.Error("chat failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "chat failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type analyzeRequest struct {
	Query           string      `json:"query"`
	UseInternalData bool        `json:"use_internal_data"`
	SQLQuery        string      `json:"sql_query"`
	User            userPayload `json:"user"`
}

type analyzeResponse struct {
	Summary  string `json:"summary"`
	GraphURL string `json:"graph_url"`
	CSVData  string `json:"csv_data"`
	RawData1 string `json:"raw_data_1"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Missing query")
		return
	}

	report, err := s.analytics.Analyze(r.Context(), req.Query, analytics.Options{
		UseInternalData: req.UseInternalData,
		CustomSQL:       req.SQLQuery,
	})
	if err != nil {
		if errors.Is(err, analytics.ErrSafetyRejected) {
			writeError(w, http.StatusBadRequest, "AI Safety Filter triggered. Please rephrase your query.")
			return
		}
		s.log.Error("analytics pipeline failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Summary:  report.Summary,
		GraphURL: report.GraphURL,
		CSVData:  report.CSVData,
		RawData1: report.RawData,
	})
}

type exportRequest struct {
	ExportType string      `json:"export_type"`
	Content    string      `json:"content"`
	User       userPayload `json:"user"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		link string
		err  error
	)
	switch req.ExportType {
	case "docs":
		link, err = s.docs.Export(r.Context(), req.Content, "Analytics Export", req.User.Email)
	case "sheets":
		link, err = s.sheets.Export(r.Context(), req.Content, "Analytics Data", req.User.Email)
	default:
		writeError(w, http.StatusBadRequest, "export_type must be 'docs' or 'sheets'")
		return
	}
	if err != nil {
		if errors.Is(err, export.ErrInvalidRecipient) {
			writeError(w, http.StatusBadRequest, "invalid recipient email")
			return
		}
		s.log.Error("export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"link": link})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
