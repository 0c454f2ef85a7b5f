// Package response defines the JSON envelope shared by every API endpoint.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JSON writes a success envelope with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	write(w, r, status, envelope{Success: true, Data: data})
}

// Error writes an error envelope with a machine-readable code.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	write(w, r, status, envelope{Success: false, Error: &apiError{Code: code, Message: message}})
}

// ErrorWithDetails writes an error envelope carrying structured details,
// used for field-level validation failures.
func ErrorWithDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	write(w, r, status, envelope{Success: false, Error: &apiError{Code: code, Message: message, Details: details}})
}

func write(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "encode response", "error", err)
	}
}
