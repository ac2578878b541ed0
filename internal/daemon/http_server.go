package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/relbuilder/internal/history"
	"git.home.luguber.info/inful/relbuilder/internal/logfields"
	"git.home.luguber.info/inful/relbuilder/internal/metrics"
)

// HTTPServer exposes the daemon's trigger and status endpoints.
type HTTPServer struct {
	daemon *Daemon
	server *http.Server
}

// NewHTTPServer creates the HTTP surface for a daemon.
func NewHTTPServer(d *Daemon) *HTTPServer {
	return &HTTPServer{daemon: d}
}

// Start binds the listen address and begins serving.
func (s *HTTPServer) Start() error {
	addr := s.daemon.config().Daemon.ListenAddr

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/runs/{id}/events", s.handleRunEvents)
	mux.HandleFunc("POST /api/dispatch", s.handleDispatch)
	mux.HandleFunc("POST /webhook/push", s.handlePush)
	if s.daemon.registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(s.daemon.registry))
	}

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", logfields.Error(err))
		}
	}()

	slog.Info("HTTP server started", slog.String("addr", addr))
	return nil
}

// Stop gracefully shuts down the server.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status is the /status response payload.
type Status struct {
	Uptime      string `json:"uptime"`
	QueueLength int    `json:"queue_length"`
	ActiveRuns  []*Job `json:"active_runs"`
	Pipelines   int    `json:"pipelines"`
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Status{
		Uptime:      s.daemon.Uptime().Round(time.Second).String(),
		QueueLength: s.daemon.queue.Length(),
		ActiveRuns:  s.daemon.queue.ActiveJobs(),
		Pipelines:   len(s.daemon.config().Pipelines),
	})
}

func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := s.daemon.config().Daemon.HistoryLimit

	var (
		runs []history.RunSummary
		err  error
	)
	if raw := r.URL.Query().Get("since"); raw != "" {
		window, perr := time.ParseDuration(raw)
		if perr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid since duration"})
			return
		}
		runs, err = s.daemon.historyStore.RunsSince(r.Context(), time.Now().Add(-window), limit)
	} else {
		runs, err = s.daemon.historyStore.RecentRuns(r.Context(), limit)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []history.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// runEvent is the /api/runs/{id}/events item payload.
type runEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (s *HTTPServer) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.daemon.historyStore.EventsByRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if len(evs) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no events recorded for run"})
		return
	}

	out := make([]runEvent, len(evs))
	for i, ev := range evs {
		out[i] = runEvent{Type: ev.Type, Timestamp: ev.Timestamp, Payload: json.RawMessage(ev.Payload)}
	}
	writeJSON(w, http.StatusOK, out)
}

type dispatchRequest struct {
	Pipeline string `json:"pipeline"`
}

func (s *HTTPServer) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Pipeline == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pipeline is required"})
		return
	}

	id, err := s.daemon.DispatchManual(req.Pipeline)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": id})
}

func (s *HTTPServer) handlePush(w http.ResponseWriter, r *http.Request) {
	var ev PushEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid push payload"})
		return
	}

	ids, err := s.daemon.HandlePush(ev)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"run_ids": ids})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", logfields.Error(err))
	}
}
