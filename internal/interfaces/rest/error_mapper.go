package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/church-donations/internal/application"
)

type Response struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError maps application errors to HTTP responses. Internal failures
// are logged in full and reported to the caller with a generic message.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode := application.ToHTTPStatus(err)
	errorCode := application.ToErrorCode(err)

	if statusCode >= http.StatusInternalServerError {
		logger.Error("request failed", "code", errorCode, "status", statusCode, "error", err)
	} else {
		logger.Debug("request rejected", "code", errorCode, "status", statusCode, "error", err)
	}

	writeJSON(w, statusCode, Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    errorCode,
			Message: application.ToMessage(err),
		},
	}, logger)
}

// WriteData wraps data in the success envelope.
func WriteData(w http.ResponseWriter, statusCode int, data any, logger *slog.Logger) {
	writeJSON(w, statusCode, Response{Success: true, Data: data}, logger)
}

func writeJSON(w http.ResponseWriter, statusCode int, body Response, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
