package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/utils"
)

// Pinger is implemented by the storage client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	storage Pinger
	version string
}

func NewHealthHandler(storage Pinger, version string) *HealthHandler {
	return &HealthHandler{storage: storage, version: version}
}

func (h *HealthHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "ok"
	storageStatus := "ok"
	if err := h.storage.Ping(ctx); err != nil {
		logger.L.Error("Health check: storage unreachable", "error", err)
		storageStatus = "unreachable"
		overall = "degraded"
		status = http.StatusServiceUnavailable
	}

	utils.SendJSON(w, status, map[string]interface{}{
		"status":    overall,
		"storage":   storageStatus,
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
