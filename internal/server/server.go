// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Processor interface {
	Process(ctx context.Context, text, sessionID string) *models.Response
}

type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, bool, error)
	Delete(ctx context.Context, id string) error
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	processor  Processor
	sessions   SessionStore
	phones     CatalogBrowser
	brands     BrandLister
	readiness  map[string]Pinger
	timeout    time.Duration
	errHandler *commonerrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func New(processor Processor, sessions SessionStore, readiness map[string]Pinger, log logger.Logger) *Server {
	log = log.With(map[string]interface{}{"component": "http"})
	return &Server{
		processor:  processor,
		sessions:   sessions,
		readiness:  readiness,
		errHandler: commonerrors.NewErrorHandler(log),
		logger:     log,
		now:        time.Now,
	}
}

// WithRequestTimeout bounds each chat turn. Zero leaves the request context as is.
func (s *Server) WithRequestTimeout(d time.Duration) *Server {
	s.timeout = d
	return s
}

// RequestTimeoutFor leaves a tenth of the write timeout for encoding and sending the
// reply, so a turn ends before the connection's write deadline.
func RequestTimeoutFor(writeTimeout time.Duration) time.Duration {
	if writeTimeout <= 0 {
		return 0
	}
	return writeTimeout - writeTimeout/10
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "POST /api/chat", s.handleChat)
	s.handle(mux, "GET /api/sessions/{id}", s.handleGetSession)
	s.handle(mux, "DELETE /api/sessions/{id}", s.handleDeleteSession)
	if s.phones != nil {
		s.handle(mux, "GET /api/phones", s.handleListPhones)
		s.handle(mux, "GET /api/phones/{id}", s.handleGetPhone)
	}
	if s.brands != nil {
		s.handle(mux, "GET /api/brands", s.handleListBrands)
	}
	s.handle(mux, "GET /health", s.handleHealth)
	s.handle(mux, "GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, instrument(pattern, h))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		metrics.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.readiness))
	status := http.StatusOK
	for name, p := range s.readiness {
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("Readiness check failed", map[string]interface{}{"dependency": name, "error": err.Error()})
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   s.now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
