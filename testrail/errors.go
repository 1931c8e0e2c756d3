package testrail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorPrefix starts every error message produced by the client.
const ErrorPrefix = "TestRail API error"

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid testrail configuration")
	// ErrNoResponse indicates the request never produced an HTTP response
	ErrNoResponse = errors.New("no response received")
	// ErrMalformedResponse indicates a successful response whose body is not valid JSON
	ErrMalformedResponse = errors.New("malformed response body")
)

// APIError represents a failed TestRail API call. StatusCode is zero when no
// response was received.
type APIError struct {
	StatusCode int
	StatusText string
	Body       string

	kind  error
	cause error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.kind == ErrNoResponse {
		detail := ""
		if e.cause != nil {
			detail = e.cause.Error()
		}
		return fmt.Sprintf("%s: No response received. %s", ErrorPrefix, detail)
	}
	return fmt.Sprintf("%s: %d %s - %s", ErrorPrefix, e.StatusCode, e.StatusText, e.Body)
}

// Unwrap exposes the error kind sentinel and the underlying cause.
func (e *APIError) Unwrap() []error {
	var errs []error
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// newStatusError builds the error for a non-2xx response.
func newStatusError(resp *http.Response, body []byte) *APIError {
	return &APIError{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Body:       renderBody(body),
	}
}

func newNoResponseError(cause error) *APIError {
	return &APIError{kind: ErrNoResponse, cause: cause}
}

func newMalformedError(resp *http.Response, body []byte, cause error) *APIError {
	return &APIError{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Body:       string(body),
		kind:       ErrMalformedResponse,
		cause:      cause,
	}
}

// statusText returns the reason phrase sent by the server, falling back to
// the standard text for the code.
func statusText(resp *http.Response) string {
	prefix := fmt.Sprintf("%d ", resp.StatusCode)
	if len(resp.Status) > len(prefix) && resp.Status[:len(prefix)] == prefix {
		return resp.Status[len(prefix):]
	}
	return http.StatusText(resp.StatusCode)
}

// renderBody returns compact JSON when the body parses as JSON and the raw
// text otherwise.
func renderBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	}
	return string(body)
}
