package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
)

// ApiResponse is the success envelope for every JSON endpoint.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// errorMapping ties a sentinel to its HTTP status and error code.
type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: more specific sentinels come first.
var serviceErrors = []errorMapping{
	{apperrors.ErrSpreadNotFound, http.StatusNotFound, "spread_not_found"},
	{apperrors.ErrCardNotFound, http.StatusNotFound, "card_not_found"},
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperrors.ErrInvalidTopic, http.StatusBadRequest, "invalid_topic"},
	{apperrors.ErrInvalidQuestion, http.StatusBadRequest, "invalid_question"},
	{apperrors.ErrInvalidRating, http.StatusBadRequest, "invalid_rating"},
	{apperrors.ErrInvalidDate, http.StatusBadRequest, "invalid_date"},
	{apperrors.ErrPremiumRequired, http.StatusForbidden, "premium_required"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict"},
}

// writeServiceError maps a service error to an HTTP response. Known
// sentinels carry their message to the client; anything else is logged
// and reported as an internal error.
func writeServiceError(w http.ResponseWriter, err error, logger *zap.Logger, action string) {
	status, code, message := http.StatusInternalServerError, "internal_error", "An internal error occurred"
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			status, code, message = m.status, m.code, err.Error()
			break
		}
	}

	if status == http.StatusInternalServerError {
		logger.Error("Failed to "+action, zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.String("action", action), zap.String("code", code), zap.Error(err))
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

func writeData(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	if err := WriteJSON(w, status, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
