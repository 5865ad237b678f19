// Package timerd exposes a timer Owner to other processes over HTTP on a
// unix socket, and provides the matching client.
package timerd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sadopc/planr/internal/timer"
)

type StartRequest struct {
	TaskID    string `json:"taskId"`
	TaskTitle string `json:"taskTitle"`
}

type SessionRequest struct {
	TaskID     string `json:"taskId"`
	TaskTitle  string `json:"taskTitle"`
	DurationMs int64  `json:"durationMs"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Handler implements the timer API over a Controller.
type Handler struct {
	ctl     timer.Controller
	version string
}

func NewHandler(ctl timer.Controller, version string) *Handler {
	return &Handler{ctl: ctl, version: version}
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/timer", h.State)
		r.Post("/timer/start", h.Start)
		r.Post("/timer/stop", h.Stop)
		r.Post("/timer/reset", h.Reset)
		r.Post("/timer/finish", h.Finish)
		r.Post("/sessions", h.SaveSession)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctl.State(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Start handles POST /v1/timer/start. An empty body resumes a paused timer.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteProblem(w, r, http.StatusBadRequest, typeUnknown, fmt.Sprintf("Invalid JSON: %s", err))
		return
	}
	st, err := h.ctl.Start(r.Context(), req.TaskID, req.TaskTitle)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctl.Stop(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctl.Reset(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	sess, err := h.ctl.Finish(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, typeUnknown, fmt.Sprintf("Invalid JSON: %s", err))
		return
	}
	if req.DurationMs <= 0 {
		WriteProblem(w, r, http.StatusUnprocessableEntity, typeUnknown, "durationMs must be positive")
		return
	}
	d := time.Duration(req.DurationMs) * time.Millisecond
	sess, err := h.ctl.SaveSession(r.Context(), req.TaskID, req.TaskTitle, d)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// ErrAlreadyRunning is returned by Listen when another daemon answers on
// the socket.
var ErrAlreadyRunning = errors.New("timer daemon already running")

// Listen opens the unix socket at path. A stale socket file left by a dead
// daemon is removed; a live one is reported as ErrAlreadyRunning.
func Listen(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if conn, err := net.DialTimeout("unix", path, time.Second); err == nil {
			conn.Close()
			return nil, fmt.Errorf("%w on %s", ErrAlreadyRunning, path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return ln, nil
}

// Serve runs handler on ln until ctx is done, then drains in-flight requests.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("timerd listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
