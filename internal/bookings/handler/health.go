package handler

import (
	"context"
	"net/http"
	"time"

	httputil "lodge/pkg/http"
	"lodge/pkg/logger"
	"lodge/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const (
	HealthPath = "/api/health"
	ReadyPath  = "/api/ready"

	readyTimeout = 2 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	storage Pinger
	log     *logger.Logger
}

func NewHealthHandler(storage Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		log:     log,
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(HealthPath, h.Health)
	router.GET(ReadyPath, h.Ready)
}

// Health answers as long as the process is serving.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, httputil.AckResponse{OK: true}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.log.Error("Storage readiness check failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		if writeErr := httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.AckResponse{
			OK:    false,
			Error: "Storage unavailable",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, httputil.AckResponse{OK: true}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}
