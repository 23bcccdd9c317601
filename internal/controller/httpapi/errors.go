package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

type quotaErrorResponse struct {
	Error           string  `json:"error"`
	HoursUsed       float64 `json:"hours_used"`
	AttemptingToAdd float64 `json:"attempting_to_add"`
	WeeklyLimit     int     `json:"weekly_limit"`
}

type validationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the mapped status. Internal errors are
// logged and hidden from the client.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)

	var quotaErr *service.QuotaExceededError
	if errors.As(err, &quotaErr) {
		writeJSON(w, code, quotaErrorResponse{
			Error:           "weekly hourly limit exceeded",
			HoursUsed:       quotaErr.HoursUsed,
			AttemptingToAdd: quotaErr.AttemptingToAdd,
			WeeklyLimit:     quotaErr.WeeklyLimit,
		})
		return
	}

	if code == http.StatusInternalServerError {
		a.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, code, "internal error")
		return
	}

	writeError(w, code, err.Error())
}
