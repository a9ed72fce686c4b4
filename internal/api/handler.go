// Package api exposes the decision engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/engine"
)

// maxBodyBytes caps request bodies; threads are short.
const maxBodyBytes = 1 << 20

// Handler serves the triage API.
type Handler struct {
	engine   *engine.Engine
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewHandler creates a handler over e. gatherer may be nil, in which case
// /metrics is not served.
func NewHandler(e *engine.Engine, gatherer prometheus.Gatherer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: e, gatherer: gatherer, logger: logger}
}

// Routes returns the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/decide", h.Decide)
		r.Post("/outcomes", h.RecordOutcome)
		r.Post("/corrections", h.CaptureCorrection)
		r.Post("/sends", h.ObserveSend)
		r.Get("/trust/{app}", h.ListTrust)
		r.Get("/trust/{app}/{category}", h.GetTrust)
	})

	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// fail maps an engine error onto a status code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var precondition *common.PreconditionError
	switch {
	case errors.As(err, &precondition):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrRateLimit):
		Error(w, http.StatusTooManyRequests, err.Error())
	default:
		h.logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
