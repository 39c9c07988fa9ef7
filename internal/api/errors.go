package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vidx/internal/shared"
)

// StatusError is a non-2xx backend response.
//
// Message carries the backend's own error text when the body provides one.
// RetryAfter is non-zero only for 429 responses that include a cooldown hint.
type StatusError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the shared error taxonomy.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return shared.ErrAuthRejected
	case e.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case e.StatusCode >= 500:
		return shared.ErrServer
	default:
		return shared.ErrAPIRequest
	}
}

// newStatusError builds a StatusError from a response, pulling the message
// out of `{"error": ...}` or `{"detail": ...}` bodies and the Retry-After
// header when present.
func newStatusError(statusCode int, body []byte, headers http.Header) *StatusError {
	e := &StatusError{StatusCode: statusCode}

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			e.Message = payload.Error
		} else if payload.Detail != "" {
			e.Message = payload.Detail
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}

	if statusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(headers.Get("Retry-After")); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	}

	return e
}
