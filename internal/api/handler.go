// Package api provides the HTTP API for the discovery service.
// It exposes REST endpoints for triggering runs and reading registry
// status, plus SSE for run progress streaming.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mcpdex/mcpdex/internal/discovery"
	"github.com/mcpdex/mcpdex/internal/log"
	"github.com/mcpdex/mcpdex/internal/pubsub"
	"github.com/mcpdex/mcpdex/internal/registry/domain"
)

// Runner triggers discovery runs and exposes their progress stream.
// *discovery.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context) (*discovery.Report, error)
	Events() *pubsub.Broker[discovery.ProgressEvent]
}

// Handler provides HTTP endpoints for the discovery service.
type Handler struct {
	runner Runner
	store  domain.ServerRepository
	token  string

	// running guards against concurrent runs; triggering while a run is
	// in flight returns 409.
	running atomic.Bool
}

// HandlerConfig configures the API handler.
type HandlerConfig struct {
	// Runner executes discovery runs (required).
	Runner Runner
	// Store reads registry aggregates and answers health checks (required).
	Store domain.ServerRepository
	// Token, when non-empty, is required as a bearer token on every
	// endpoint except /health.
	Token string
}

// NewHandler creates a new API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		runner: cfg.Runner,
		store:  cfg.Store,
		token:  cfg.Token,
	}
}

// Routes returns an http.Handler with all API routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /discovery/runs", h.guard(h.TriggerRun))
	mux.HandleFunc("GET /discovery/events", h.guard(h.StreamEvents))
	mux.HandleFunc("GET /registry/status", h.guard(h.RegistryStatus))

	// Health is unauthenticated so load balancers can probe it.
	mux.HandleFunc("GET /health", h.Health)

	return mux
}

// === Request/Response Types ===

// StatusResponse is the response body for registry status.
type StatusResponse struct {
	Total      int `json:"total"`
	Verified   int `json:"verified"`
	AddedToday int `json:"added_today"`
	AddedWeek  int `json:"added_week"`
}

// HealthResponse is the response body for the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the response body for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// === Handlers ===

// TriggerRun starts a discovery run and blocks until it completes,
// returning the run report. Only one run may be in flight at a time.
// POST /discovery/runs
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if !h.running.CompareAndSwap(false, true) {
		h.writeError(w, http.StatusConflict, "run_in_progress", "A discovery run is already in progress", "")
		return
	}
	defer h.running.Store(false)

	report, err := h.runner.Run(r.Context())
	if err != nil {
		var fatal *discovery.FatalStoreError
		if errors.As(err, &fatal) {
			h.writeError(w, http.StatusServiceUnavailable, "store_unavailable", "Registry store is unreachable", fatal.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "run_failed", "Discovery run failed", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// RegistryStatus returns aggregate registry counts.
// GET /registry/status
func (h *Handler) RegistryStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.AggregateCounts(r.Context(), time.Now())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "status_failed", "Failed to read registry status", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, StatusResponse{
		Total:      counts.Total,
		Verified:   counts.Verified,
		AddedToday: counts.AddedToday,
		AddedWeek:  counts.AddedWeek,
	})
}

// Health reports whether the service and its store are reachable.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// StreamEvents streams run progress events via SSE.
// GET /discovery/events
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "streaming_unsupported", "Streaming not supported", "")
		return
	}

	ctx := r.Context()
	events := h.runner.Events().Subscribe(ctx)

	_, _ = fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	// Heartbeat keeps idle connections alive through proxies.
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(progressToJSON(event.Payload))
			if err != nil {
				log.Error(log.CatHTTP, "Failed to marshal event", "error", err)
				continue
			}

			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Payload.Stage, data)
			flusher.Flush()
		}
	}
}

// === Helpers ===

func progressToJSON(ev discovery.ProgressEvent) map[string]any {
	result := map[string]any{
		"run_id": ev.RunID,
		"stage":  string(ev.Stage),
	}
	if ev.Candidate.Owner != "" {
		result["candidate"] = ev.Candidate.String()
	}
	if ev.Outcome != "" {
		result["outcome"] = string(ev.Outcome)
	}
	if ev.Reason != "" {
		result["reason"] = ev.Reason
	}
	if ev.Stage == discovery.StageAggregated {
		result["count"] = ev.Count
	}
	return result
}

// guard wraps a handler with the optional bearer-token check.
func (h *Handler) guard(next http.HandlerFunc) http.HandlerFunc {
	if h.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+h.token {
			h.writeError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid token", "")
			return
		}
		next(w, r)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error(log.CatHTTP, "Failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// Server wraps the Handler with an http.Server for lifecycle management.
type Server struct {
	server   *http.Server
	listener net.Listener
	port     int
}

// ServerConfig configures the API server.
type ServerConfig struct {
	// Addr is the address to listen on (e.g., ":8480").
	Addr string
	// Handler serves the API routes (required).
	Handler *Handler
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration
}

// NewServer creates a new API server. If Addr uses port 0 the OS assigns
// one; use Port() after NewServer to read it.
func NewServer(cfg ServerConfig) (*Server, error) {
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}

	// Create the listener first so the actual port is known before Start.
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	port := 0
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	return &Server{
		listener: listener,
		port:     port,
		server: &http.Server{
			Handler:           cfg.Handler.Routes(),
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			// No write timeout: runs and SSE streams are long-lived.
			WriteTimeout: 0,
		},
	}, nil
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	log.Info(log.CatHTTP, "Starting API server", "addr", s.listener.Addr().String(), "port", s.port)
	return s.server.Serve(s.listener)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	log.Info(log.CatHTTP, "Stopping API server")
	return s.server.Shutdown(ctx)
}

// Port returns the actual port the server is listening on.
func (s *Server) Port() int {
	return s.port
}
