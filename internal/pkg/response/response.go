package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Can't change response at this point, just log
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// Error logs err and writes an ErrorResponse with the given status
func Error(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}

	body := entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}
	if err != nil {
		body.Message = message + ": " + err.Error()
	}

	JSON(w, status, body)
}

// FromError maps a use case error to an HTTP status
func FromError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		Error(ctx, w, http.StatusNotFound, "session not found", err)
	case errors.Is(err, entity.ErrNoTranscript):
		Error(ctx, w, http.StatusNotFound, "transcript not available", err)
	case errors.Is(err, entity.ErrValidation),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidFormat),
		errors.Is(err, entity.ErrInvalidParameter):
		Error(ctx, w, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, entity.ErrRunFailed),
		errors.Is(err, entity.ErrNoResponse),
		errors.Is(err, entity.ErrUpstream):
		Error(ctx, w, http.StatusBadGateway, "model service error", err)
	case errors.Is(err, context.DeadlineExceeded):
		Error(ctx, w, http.StatusGatewayTimeout, "request timed out", err)
	default:
		Error(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}

// Success writes a success response
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}
