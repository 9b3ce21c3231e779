package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/worldland/spark-gateway/internal/domain"
	"github.com/worldland/spark-gateway/internal/status"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse for error cases
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// FleetChecker defines operations needed from the fleet aggregator
type FleetChecker interface {
	Snapshot(ctx context.Context) domain.FleetSnapshot
	Service(ctx context.Context, name string) (domain.ServiceStatus, error)
}

// Decider defines operations needed from the availability engine
type Decider interface {
	Decide(ctx context.Context, capability string, mode domain.Mode) domain.AvailabilityDecision
}

// GatewayHandler handles HTTP requests for the status gateway
type GatewayHandler struct {
	telemetry domain.TelemetryProvider
	fleet     FleetChecker
	decider   Decider
	now       func() time.Time
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(telemetry domain.TelemetryProvider, fleet FleetChecker, decider Decider) *GatewayHandler {
	return &GatewayHandler{
		telemetry: telemetry,
		fleet:     fleet,
		decider:   decider,
		now:       time.Now,
	}
}

// Register installs the gateway routes on mux
func (h *GatewayHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/gpu", h.HandleGPU)
	mux.HandleFunc("/services", h.HandleServices)
	mux.HandleFunc("/services/{name}", h.HandleService)
	mux.HandleFunc("/available/{capability_type}", h.HandleAvailable)
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/", h.handleNotFound)
}

// Routes returns a mux serving every gateway route
func (h *GatewayHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

// HandleGPU handles GET /gpu
func (h *GatewayHandler) HandleGPU(w http.ResponseWriter, r *http.Request) {
	if !h.allowGet(w, r) {
		return
	}

	snap, err := h.telemetry.Snapshot(r.Context())
	if err != nil {
		slog.Warn("telemetry query failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "telemetry query failed: "+err.Error(), "TELEMETRY_UNAVAILABLE")
		return
	}

	h.writeJSON(w, http.StatusOK, snap)
}

// HandleServices handles GET /services
func (h *GatewayHandler) HandleServices(w http.ResponseWriter, r *http.Request) {
	if !h.allowGet(w, r) {
		return
	}

	h.writeJSON(w, http.StatusOK, h.fleet.Snapshot(r.Context()))
}

// HandleService handles GET /services/{name}
func (h *GatewayHandler) HandleService(w http.ResponseWriter, r *http.Request) {
	if !h.allowGet(w, r) {
		return
	}

	name := r.PathValue("name")
	svc, err := h.fleet.Service(r.Context(), name)
	if err != nil {
		if errors.Is(err, status.ErrUnknownService) {
			h.writeError(w, http.StatusNotFound, "service '"+name+"' not found", "SERVICE_NOT_FOUND")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return
	}

	h.writeJSON(w, http.StatusOK, svc)
}

// HandleAvailable handles GET /available/{capability_type}?mode=waterfall|queue
func (h *GatewayHandler) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	if !h.allowGet(w, r) {
		return
	}

	capability := r.PathValue("capability_type")
	mode := domain.ParseMode(r.URL.Query().Get("mode"))

	h.writeJSON(w, http.StatusOK, h.decider.Decide(r.Context(), capability, mode))
}

// HandleHealth handles GET /health. It reports process liveness only.
func (h *GatewayHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.allowGet(w, r) {
		return
	}

	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Timestamp: h.now().UTC()})
}

func (h *GatewayHandler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusNotFound, "no route for "+r.URL.Path, "NOT_FOUND")
}

func (h *GatewayHandler) allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	h.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
	return false
}

// writeJSON writes a JSON response
func (h *GatewayHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

// writeError writes an error response
func (h *GatewayHandler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
