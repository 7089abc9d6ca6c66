// Package gateway exposes the skill executor over HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/skillbox/internal/events"
	"github.com/dohr-michael/skillbox/internal/skill"
	"github.com/dohr-michael/skillbox/internal/storage"
)

// Server is the skillbox gateway HTTP server.
type Server struct {
	httpServer *http.Server
	executor   *skill.Executor
	bus        *events.Bus
	store      *storage.ExecStore
	hub        *eventHub
	host       string
	port       int
}

// NewServer creates a new gateway server. store may be nil, in which case
// the executions endpoint reports an empty history.
func NewServer(executor *skill.Executor, bus *events.Bus, store *storage.ExecStore, host string, port int) *Server {
	s := &Server{
		executor: executor,
		bus:      bus,
		store:    store,
		hub:      newEventHub(bus),
		host:     host,
		port:     port,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/skills", s.handleListSkills)
	r.Get("/api/skills/{name}", s.handleSkillInfo)
	r.Post("/api/cache/clear", s.handleClearCache)
	r.Post("/api/execute", s.handleExecute)
	r.Post("/api/execute/batch", s.handleExecuteBatch)
	r.Get("/api/executions", s.handleExecutions)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/events/ws", s.hub.ServeWS)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: r,
	}

	return s
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("skillbox gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	if err := s.executor.EnsureLoaded(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var tags []string
	if tag := r.URL.Query().Get("tag"); tag != "" {
		tags = []string{tag}
	}
	writeJSON(w, http.StatusOK, s.executor.ListSkills(tags))
}

func (s *Server) handleSkillInfo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	info, err := s.executor.SkillInfo(r.Context(), name)
	if err != nil {
		status := http.StatusInternalServerError
		var notFound *skill.NotFoundError
		if errors.As(err, &notFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.executor.ClearCache(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type executeRequest struct {
	Skill   string         `json:"skill"`
	Input   map[string]any `json:"input"`
	TraceID string         `json:"trace_id,omitempty"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Skill == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("skill is required"))
		return
	}

	ectx := &skill.Context{TraceID: req.TraceID}
	result := s.executor.Execute(r.Context(), req.Skill, req.Input, ectx)
	writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	Executions []skill.Request `json:"executions"`
}

func (s *Server) handleExecuteBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	results := s.executor.ExecuteBatch(r.Context(), req.Executions)
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleExecutions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []*storage.ExecutionRecord{})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	records, err := s.store.Recent(r.Context(), r.URL.Query().Get("skill"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []*storage.ExecutionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	history := s.bus.History(limit)

	type eventJSON struct {
		ID        string             `json:"id"`
		TraceID   string             `json:"trace_id,omitempty"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			TraceID:   e.TraceID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
