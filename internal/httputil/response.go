package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/redmonkez12/sstove-api/internal/apperr"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondError sends a JSON error response with the given message and status code.
func RespondError(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message}, statusCode)
}

// RespondErrorWithCode sends a JSON error response with a machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, message string, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}

// StatusForKind maps an application error kind to its HTTP status.
func StatusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondAppError renders err. Classified errors keep their message and kind;
// anything else becomes an opaque 500 so internals never leak.
// It returns the status written.
func RespondAppError(w http.ResponseWriter, err error) int {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		RespondErrorWithCode(w, "internal server error", CodeInternalError, http.StatusInternalServerError)
		return http.StatusInternalServerError
	}

	status := StatusForKind(appErr.Kind)
	RespondJSON(w, ErrorResponse{
		Error:  appErr.Message,
		Code:   string(appErr.Kind),
		Fields: appErr.Fields,
	}, status)
	return status
}
