package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lingopath/backend/internal/apperrors"
	"go.uber.org/zap"
)

type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses. Typed
// errors keep their message; anything else is logged and hidden behind a
// generic 500.
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrForbidden):
		h.respondError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("failed to "+operation, zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to "+operation)
	}
}

// decodeJSON parses a request body, rejecting unknown or trailing content
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return apperrors.Validationf("invalid request body")
	}
	return nil
}
