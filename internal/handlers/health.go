package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/logging"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB Pinger
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload := map[string]string{
		"status":   "ok",
		"database": "skipped",
	}

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := h.DB.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Error("database ping failed", slog.Any("error", err))
			payload["status"] = "degraded"
			payload["database"] = "unreachable"
			respondJSON(r.Context(), w, http.StatusServiceUnavailable, payload)
			return
		}
		payload["database"] = "ok"
	}

	respondJSON(r.Context(), w, http.StatusOK, payload)
}
