package hrapi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the upstream API rejected the bearer token (HTTP 401).
	// Callers treat it as a global logout.
	ErrUnauthorized = errors.New("hrapi: unauthorized")

	// ErrNotFound means the endpoint or resource does not exist upstream
	// (404, 405 or 501). Count sources read it as "feature not available".
	ErrNotFound = errors.New("hrapi: not found")

	// ErrNoToken is returned when a session is requested without an access token.
	ErrNoToken = errors.New("hrapi: missing access token")
)

// ValidationError is a 400/422 response. Message is the upstream text, suitable
// for a toast after sanitizing.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("hrapi: validation failed (%d): %s", e.Status, e.Message)
}

// APIError is any other non-2xx response or an envelope with success=false.
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hrapi: %s returned %d", e.Path, e.Status)
	}
	return fmt.Sprintf("hrapi: %s returned %d: %s", e.Path, e.Status, e.Message)
}

// Message extracts the best user-facing message from err. It falls back to
// fallback for transport failures and unknown errors.
func Message(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if errors.Is(err, ErrUnauthorized) {
		return "session expired"
	}
	if errors.Is(err, ErrNotFound) {
		return "this feature is not available"
	}
	return fallback
}
