package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haloscope/amp-service/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and on-demand prediction
// HTTP endpoints.
type Server struct {
	httpServer *http.Server
	predictor  *domain.Predictor
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /v1/predict routes.
func NewServer(addr string, ready ReadinessChecker, predictor *domain.Predictor, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor: predictor,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/predict", s.handlePredict)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// predictResponse is the JSON body for /v1/predict. Numeric fields are
// present only for the rate outcome, the message only for warning and error.
type predictResponse struct {
	Date        string         `json:"date"`
	Outcome     domain.Outcome `json:"outcome"`
	SignalRate  *float64       `json:"signal_rate,omitempty"`
	Density     *float64       `json:"density,omitempty"`
	Probability *float64       `json:"probability,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// handlePredict evaluates the model for a single ?date=YYYY-MM-DD query.
// The tagged error outcome maps to 400; warning and rate outcomes are
// well-formed evaluations and return 200.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing date query parameter"})
		return
	}

	prediction := s.predictor.Predict(date)

	resp := predictResponse{
		Date:    date,
		Outcome: prediction.Outcome,
		Message: prediction.Message,
	}

	status := http.StatusOK
	switch prediction.Outcome {
	case domain.OutcomeRate:
		resp.SignalRate = &prediction.SignalRate
		resp.Density = &prediction.Density
		resp.Probability = &prediction.Probability
	case domain.OutcomeError:
		status = http.StatusBadRequest
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
