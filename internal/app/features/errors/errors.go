// Package errors renders uniform JSON error responses.
//
// Access failures are deliberately indistinguishable: a story that does
// not exist and a story the caller may not see both produce the same
// "access denied" body, so the API never confirms which private story
// IDs exist. NotFound is rendered only after a positive visibility
// decision.
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

func render(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// RenderForbidden writes the uniform "access denied" response. It never
// explains why access was denied.
func RenderForbidden(w http.ResponseWriter) {
	render(w, http.StatusForbidden, "access denied")
}

// RenderNotFound writes a 404. Use only when the caller was already
// allowed to see the resource if it existed.
func RenderNotFound(w http.ResponseWriter) {
	render(w, http.StatusNotFound, "not found")
}

// RenderConflict writes a 409 with a caller-safe reason.
func RenderConflict(w http.ResponseWriter, msg string) {
	render(w, http.StatusConflict, msg)
}

// RenderInvalid writes a 422 for malformed or unprocessable input.
func RenderInvalid(w http.ResponseWriter, msg string) {
	render(w, http.StatusUnprocessableEntity, msg)
}

// RenderBadRequest writes a 400.
func RenderBadRequest(w http.ResponseWriter, msg string) {
	render(w, http.StatusBadRequest, msg)
}

// RenderInternal writes a 500 with no detail; the detail belongs in the
// server log, not the response.
func RenderInternal(w http.ResponseWriter) {
	render(w, http.StatusInternalServerError, "internal error")
}

// ErrorLogger wraps zap for handler-side failure logging so handlers
// log and render consistently.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Internal logs err and renders a 500.
func (e *ErrorLogger) Internal(w http.ResponseWriter, op string, err error) {
	e.log.Error("handler error", zap.String("op", op), zap.Error(err))
	RenderInternal(w)
}

// Invariant logs an invariant violation at error level and renders a
// 500. These indicate a transaction-atomicity bug, not a user mistake,
// and must be loud.
func (e *ErrorLogger) Invariant(w http.ResponseWriter, op string, err error) {
	e.log.Error("invariant violation", zap.String("op", op), zap.Error(err))
	RenderInternal(w)
}
