// Package health serves liveness, readiness, and metrics endpoints for the
// long-running ingestion daemon.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/fairline/internal/metrics"
)

// Check reports on one dependency. A nil error means the dependency is
// usable; the error message is surfaced verbatim in the readiness response.
type Check func(ctx context.Context) error

// statusResponse is the JSON body for /health and /live.
type statusResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Uptime    string `json:"uptime,omitempty"`
}

// readyResponse is the JSON body for /ready.
type readyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Server exposes the daemon's health surface on its own listener, kept
// separate from any data-plane traffic.
type Server struct {
	serviceName string
	version     string
	commit      string
	port        string
	metricsPath string
	startedAt   time.Time
	server      *http.Server
	logger      *logrus.Logger

	mu     sync.RWMutex
	ready  bool
	checks map[string]Check
}

// Config holds the health server configuration.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        string
	MetricsPath string // when set, serves Prometheus metrics at this path
	Logger      *logrus.Logger
}

// NewServer creates a health server. Readiness checks are registered
// separately with RegisterCheck before Start.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	return &Server{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		commit:      cfg.Commit,
		port:        port,
		metricsPath: cfg.MetricsPath,
		startedAt:   time.Now().UTC(),
		logger:      cfg.Logger,
		checks:      make(map[string]Check),
	}
}

// RegisterCheck adds a named readiness check. Registering the same name
// twice replaces the earlier check.
func (s *Server) RegisterCheck(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// SetReady flips the top-level readiness gate. Dependency checks still run
// while the gate is closed so /ready shows why the daemon is not serving.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns the state of the readiness gate.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start begins serving in the background and shuts down when ctx is done.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)
	if s.metricsPath != "" {
		mux.Handle(s.metricsPath, metrics.Handler())
	}

	s.server = &http.Server{
		Addr:         ":" + s.port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"port":    s.port,
				"service": s.serviceName,
			}).Info("Health server starting")
		}

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.WithError(err).Error("Health server error")
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.Info("Health server shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Commit:    s.commit,
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Service: s.serviceName,
	})
}

// handleReady runs every registered check plus the readiness gate; any
// failure yields 503 with the failing checks named.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	results := make(map[string]string)
	healthy := true

	if s.IsReady() {
		results["service"] = "ok"
	} else {
		healthy = false
		results["service"] = "not_ready"
	}

	s.mu.RLock()
	checks := make(map[string]Check, len(s.checks))
	for name, check := range s.checks {
		checks[name] = check
	}
	s.mu.RUnlock()

	for name, check := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		if err := check(ctx); err != nil {
			healthy = false
			results[name] = fmt.Sprintf("error: %v", err)
		} else {
			results[name] = "ok"
		}
		cancel()
	}

	response := readyResponse{
		Service:  s.serviceName,
		Checks:   results,
		Duration: time.Since(start).String(),
	}

	if healthy {
		response.Status = "ok"
		writeJSON(w, http.StatusOK, response)
	} else {
		response.Status = "not_ready"
		writeJSON(w, http.StatusServiceUnavailable, response)
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
