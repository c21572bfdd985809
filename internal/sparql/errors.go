package sparql

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for responses that arrived but could not be used
var (
	ErrEmptyResponse     = errors.New("empty response from SPARQL endpoint")
	ErrMalformedResponse = errors.New("malformed response from SPARQL endpoint")
)

// QueryError represents a failed request to the SPARQL endpoint
type QueryError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Message    string
	Cause      error
}

func (e *QueryError) Error() string {
	msg := fmt.Sprintf("sparql query to %s failed", e.Endpoint)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" with status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure is transient. Transport failures,
// rate limiting, server errors and unusable bodies are retryable; other client
// errors point at the query itself.
func (e *QueryError) Retryable() bool {
	if errors.Is(e.Cause, ErrEmptyResponse) || errors.Is(e.Cause, ErrMalformedResponse) {
		return true
	}
	return isRetryableStatus(e.StatusCode)
}

// isRetryableStatus returns true for HTTP status codes worth retrying.
func isRetryableStatus(code int) bool {
	switch code {
	case 0, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
