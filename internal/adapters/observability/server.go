package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/eleven-am/panther/internal/adapters/view"
	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/xjson"
)

const shutdownTimeout = 5 * time.Second

// StatusSource is the part of the manager the status server reports on.
type StatusSource interface {
	Runs() []domain.WorkflowRun
	History() []domain.WorkflowRun
	IsAcquiringToken() bool
}

type JournalSource interface {
	Journal() []view.Signal
}

type Server struct {
	addr      string
	status    StatusSource
	journal   JournalSource
	logger    *slog.Logger
	startTime time.Time
}

type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Uptime         string    `json:"uptime"`
	LiveRuns       int       `json:"live_runs"`
	AcquiringToken bool      `json:"acquiring_token"`
	NumGoroutine   int       `json:"num_goroutine"`
}

type RunsResponse struct {
	Live     []domain.WorkflowRun `json:"live"`
	Finished []domain.WorkflowRun `json:"finished"`
}

func NewServer(addr string, status StatusSource, journal JournalSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:      addr,
		status:    status,
		journal:   journal,
		logger:    logger.With("component", "status-server"),
		startTime: time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/runs", s.handleRuns)
	mux.HandleFunc("/journal", s.handleJournal)
	return s.withLogging(mux)
}

// Start serves until ctx is done, then shuts the listener down.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting status server", "addr", s.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down status server")
	return server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthResponse{
		Status:         "ok",
		Timestamp:      time.Now(),
		Uptime:         time.Since(s.startTime).String(),
		LiveRuns:       len(s.status.Runs()),
		AcquiringToken: s.status.IsAcquiringToken(),
		NumGoroutine:   runtime.NumGoroutine(),
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, RunsResponse{
		Live:     s.status.Runs(),
		Finished: s.status.History(),
	})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.journal.Journal())
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := xjson.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		http.Error(w, "encoding failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
