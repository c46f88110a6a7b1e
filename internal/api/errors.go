package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Error describes a failed backend call. Status is zero for transport failures
// (refused connections, timeouts, cancelled contexts).
type Error struct {
	Status  int
	Method  string
	Path    string
	Message string          // backend-provided error text, or a caller fallback
	Body    json.RawMessage // backend error payload when it was JSON
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Status > 0:
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Status > 0:
		return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("api %s %s: %v", e.Method, e.Path, e.Err)
	default:
		return "api request failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// HasPayload reports whether the backend supplied its own error text.
func (e *Error) HasPayload() bool {
	return len(e.Body) > 0 && e.Message != ""
}

func newStatusError(method, path string, status int, body []byte) *Error {
	e := &Error{Status: status, Method: method, Path: path}
	if len(body) > 0 && gjson.ValidBytes(body) {
		e.Body = json.RawMessage(append([]byte(nil), body...))
		for _, field := range []string{"error", "message"} {
			if msg := strings.TrimSpace(gjson.GetBytes(body, field).String()); msg != "" {
				e.Message = msg
				break
			}
		}
	}
	return e
}

// WithFallback returns err as an *Error whose Message is the backend payload
// message, or fallback when the backend supplied none.
func WithFallback(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return &Error{Message: fallback, Err: err}
	}
	if apiErr.HasPayload() {
		return apiErr
	}
	dup := *apiErr
	dup.Message = fallback
	return &dup
}

// Message returns the user-facing text for err: the backend message when
// present, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err came from a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
