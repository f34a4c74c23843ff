package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	gojson "github.com/goccy/go-json"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	// Detail is the backend's human-readable message, empty when the body
	// carried none.
	Detail string
	Body   []byte
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Detail)
}

// TransportError means no response reached the client.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means a 2xx response body could not be decoded.
type DecodeError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response (status %d): %v", e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func newAPIError(status int, body []byte) *APIError {
	return &APIError{StatusCode: status, Detail: parseDetail(body), Body: body}
}

// parseDetail understands both {"detail": "text"} and the validation form
// {"detail": [{"msg": "..."}]}.
func parseDetail(body []byte) string {
	var env struct {
		Detail gojson.RawMessage `json:"detail"`
	}
	if err := gojson.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return ""
	}

	var text string
	if err := gojson.Unmarshal(env.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := gojson.Unmarshal(env.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return strings.Trim(string(env.Detail), `"`)
}

// StatusCode extracts the HTTP status from err, 0 when there is none.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return decErr.StatusCode
	}
	return 0
}

// IsTransport reports whether err means the backend was never reached.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// IsUnauthorized reports a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden reports a 403 from the backend.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
