package server

import (
	"encoding/json"
	"net/http"

	"github.com/sudoCommit/alumnium/internal/logging"
)

// apiVersion is stamped on every response envelope.
const apiVersion = "v1"

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	APIVersion string `json:"api_version"`
	Error      string `json:"error"`
	Detail     string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Component("server").Error().Err(err).Msg("failed to encode response")
	}
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, ErrorResponse{
		APIVersion: apiVersion,
		Error:      message,
		Detail:     detail,
	})
}

// notFound writes the unknown-session error.
func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Session not found", "")
}

// validationError writes a 422 for malformed or incomplete request bodies.
func validationError(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusUnprocessableEntity, "Validation failed", detail)
}

// internalError logs and writes a 500 with the downstream detail.
func internalError(w http.ResponseWriter, message string, err error) {
	logging.Component("server").Error().Err(err).Msg(message)
	writeError(w, http.StatusInternalServerError, message, err.Error())
}
