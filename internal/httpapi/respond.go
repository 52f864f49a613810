package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joseph-ayodele/ticket-ingest/internal/common"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps sentinel causes onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrRejected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes err using its AppError message; unexpected errors stay generic.
func (r *Router) respondErr(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	msg := "internal error"
	var appErr *common.AppError
	if errors.As(err, &appErr) && status != http.StatusInternalServerError {
		msg = appErr.Message
	}
	if status == http.StatusInternalServerError {
		r.logger.Error("http.request.failed",
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", common.RequestIDFromContext(req.Context()),
			"error", err,
		)
	}
	respondError(w, status, msg)
}
