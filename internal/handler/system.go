package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/englishhub/englishhub/internal/openapi"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// readyTimeout bounds the storage ping behind /readyz.
const readyTimeout = 2 * time.Second

// SystemHandler serves probes and the API document.
type SystemHandler struct {
	backend Pinger
	version string
	logger  *slog.Logger

	docOnce sync.Once
	doc     []byte
	docErr  error
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(backend Pinger, version string, logger *slog.Logger) *SystemHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SystemHandler{backend: backend, version: version, logger: logger}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is the liveness probe.
func (h *SystemHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Readyz pings the storage backend.
func (h *SystemHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.backend.Ping(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status: "degraded",
			Checks: map[string]string{"storage": "unreachable"},
		})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Checks: map[string]string{"storage": "ok"},
	})
}

// OpenAPI serves the API document. It is built once, on first request.
// GET /openapi.json
func (h *SystemHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	h.docOnce.Do(func() {
		h.doc, h.docErr = json.Marshal(openapi.Document("", h.version))
	})
	if h.docErr != nil {
		writeServiceError(w, r, h.logger, "render openapi", h.docErr)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(h.doc)
}
