package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apex-data/race.engineer/internal/ai"
	"github.com/apex-data/race.engineer/internal/db"
	"github.com/apex-data/race.engineer/internal/monitoring"
	"github.com/apex-data/race.engineer/internal/report"
	"github.com/apex-data/race.engineer/internal/telemetry"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server exposes the live engine state and the question endpoint over HTTP.
// The store may be nil when session recording is disabled.
type Server struct {
	engine    *telemetry.Engine
	client    ai.Client
	prompt    *ai.PromptBuilder
	store     *db.DB
	sessionID string
	units     string
}

func NewServer(engine *telemetry.Engine, client ai.Client, prompt *ai.PromptBuilder, store *db.DB, units string) *Server {
	return &Server{
		engine: engine,
		client: client,
		prompt: prompt,
		store:  store,
		units:  units,
	}
}

// SetSessionID binds exchanges recorded via /api/ask to a session.
func (s *Server) SetSessionID(id string) {
	s.sessionID = id
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.showHealth)
	mux.HandleFunc("/api/context", s.showContext)
	mux.HandleFunc("/api/summary", s.showSummary)
	mux.HandleFunc("/api/ask", s.askHandler)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/sessions/", s.sessionRoutes)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) showHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	health := map[string]interface{}{
		"status":       "ok",
		"ai_available": s.client.IsAvailable(r.Context()),
		"samples_seen": s.engine.Context().HistoryLen,
		"dropped":      s.engine.Dropped(),
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write health")
		return
	}
}

func (s *Server) showContext(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := json.NewEncoder(w).Encode(s.engine.Context()); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write context")
		return
	}
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	summary := map[string]string{"summary": s.engine.Summary()}
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write summary")
		return
	}
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Fallback bool   `json:"fallback"`
}

func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'question' field")
		return
	}

	// Snapshot once, then call the model outside any engine locking.
	prompt := s.prompt.Build(req.Question, s.engine.Context())

	resp := askResponse{Question: req.Question}
	answer, err := s.client.Generate(r.Context(), prompt)
	if err != nil {
		monitoring.Logf("ask: model call failed: %v", err)
		resp.Answer = ai.FallbackResponse
		resp.Fallback = true
	} else {
		resp.Answer = answer
	}

	if s.store != nil && s.sessionID != "" {
		if err := s.store.RecordExchange(s.sessionID, req.Question, resp.Answer); err != nil {
			monitoring.Logf("ask: failed to record exchange: %v", err)
		}
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write answer")
		return
	}
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.store == nil {
		s.writeJSONError(w, http.StatusNotFound, "Session recording is disabled")
		return
	}

	sessions, err := s.store.ListSessions()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	if err := json.NewEncoder(w).Encode(sessions); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write sessions")
		return
	}
}

// sessionRoutes dispatches /api/sessions/{id}/chart.
func (s *Server) sessionRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.store == nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, "Session recording is disabled")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "chart" {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}
	s.showSessionChart(w, r, parts[0])
}

func (s *Server) showSessionChart(w http.ResponseWriter, r *http.Request, sessionID string) {
	samples, err := s.store.SessionSamples(sessionID)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to load samples: %v", err))
		return
	}
	if len(samples) == 0 {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, "No samples for session")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderSessionChart(w, sessionID, samples, s.units); err != nil {
		monitoring.Logf("chart: render failed: %v", err)
	}
}

// Serve blocks running the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: LoggingMiddleware(s.ServeMux()),
	}

	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
