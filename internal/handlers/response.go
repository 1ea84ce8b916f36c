package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
)

// envelope is the uniform response body of every API endpoint.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", slog.Int("status", status), slog.Any("error", err))
	}
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	respondJSON(ctx, w, status, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// respondError translates err into its status code and client-safe message. The
// full error, including causes, only reaches the log.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	message := apperr.Message(err)

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", slog.Int("status", status), slog.Any("error", err))
	default:
		logger.Warn("request rejected", slog.Int("status", status), slog.Any("error", err))
	}

	respondJSON(ctx, w, status, envelope{StatusCode: status, Message: message})
}

func respondStatus(ctx context.Context, w http.ResponseWriter, status int, message string) {
	logging.FromContext(ctx).Warn("request rejected", slog.Int("status", status), slog.String("reason", message))
	respondJSON(ctx, w, status, envelope{StatusCode: status, Message: message})
}
