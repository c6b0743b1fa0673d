// Package errors writes the JSON error and toast responses shared by every
// feature, and maps upstream API failures onto them.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/htmlsanitize"
	"go.uber.org/zap"
)

// SessionExpiredMessage is the toast text for an upstream 401.
const SessionExpiredMessage = "session expired"

// response is the envelope every hrdesk JSON endpoint answers with.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes {success: true, data}.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, response{Success: true, Data: data})
}

// Toast writes {success: false, message} with HTML stripped from msg.
func Toast(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, response{Success: false, Message: htmlsanitize.Text(msg)})
}

// Handler serves the router-level error responses.
type Handler struct {
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sm, Log: logger}
}

// Forbidden answers 403.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	Toast(w, http.StatusForbidden, "You don't have permission to do that.")
}

// Unauthorized answers 401.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	Toast(w, http.StatusUnauthorized, "Please sign in to continue.")
}

// NotFound answers 404 for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	Toast(w, http.StatusNotFound, "Not found.")
}

// MethodNotAllowed answers 405.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Toast(w, http.StatusMethodNotAllowed, "Method not allowed.")
}

// Upstream turns a failed upstream call into a toast. A 401 ends the session
// (global logout) before answering. fallback is shown for errors that carry
// no upstream message.
func (h *Handler) Upstream(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ve *hrapi.ValidationError
	switch {
	case errors.Is(err, hrapi.ErrUnauthorized), errors.Is(err, hrapi.ErrNoToken):
		if h.Sessions != nil {
			h.Sessions.Expire(w, r)
		}
		Toast(w, http.StatusUnauthorized, SessionExpiredMessage)
	case errors.As(err, &ve):
		Toast(w, http.StatusUnprocessableEntity, hrapi.Message(err, fallback))
	case errors.Is(err, hrapi.ErrNotFound):
		Toast(w, http.StatusNotFound, hrapi.Message(err, fallback))
	case errors.Is(err, context.DeadlineExceeded):
		h.Log.Warn("upstream call timed out", zap.String("path", r.URL.Path), zap.Error(err))
		Toast(w, http.StatusGatewayTimeout, fallback)
	default:
		h.Log.Error("upstream call failed", zap.String("path", r.URL.Path), zap.Error(err))
		Toast(w, http.StatusBadGateway, hrapi.Message(err, fallback))
	}
}
