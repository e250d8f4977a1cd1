package chat

import (
	"encoding/json"
	"fmt"
)

// Placeholder is shown when a reply carries no "response" field.
const Placeholder = "No answer returned"

// TransportError covers connection failures, non-2xx statuses and
// response-parsing failures.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s failed", e.Method, e.URL)
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is the cause of a TransportError for non-2xx replies.
type StatusError struct {
	Status string // e.g. "500 Internal Server Error"
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %s", e.Status)
	}
	return fmt.Sprintf("http %s: %s", e.Status, e.Body)
}

// Result is either a decoded JSON object (success) or a TransportError
// (failure). The zero Result is a success with an empty payload.
type Result struct {
	payload map[string]any
	err     *TransportError
}

// Success wraps a decoded reply.
func Success(payload map[string]any) Result {
	return Result{payload: payload}
}

// Failure wraps a transport error.
func Failure(err *TransportError) Result {
	return Result{err: err}
}

// Failed reports whether the exchange failed.
func (r Result) Failed() bool {
	return r.err != nil
}

// Err returns the transport error, or nil on success.
func (r Result) Err() *TransportError {
	return r.err
}

// Message returns the failure description, or "" on success.
func (r Result) Message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// Payload returns the decoded reply, or nil on failure.
func (r Result) Payload() map[string]any {
	return r.payload
}

// Response returns the reply's "response" field rendered as text. The second
// value is false when the field is absent or null.
func (r Result) Response() (string, bool) {
	return field(r.payload, "response")
}

// ServiceError returns the reply's "error" field, which the service may set
// on an otherwise successful reply. The key's presence alone counts, so a
// null value is reported as "null".
func (r Result) ServiceError() (string, bool) {
	v, ok := r.payload["error"]
	if !ok {
		return "", false
	}
	return render(v), true
}

func field(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key]
	if !ok || v == nil {
		return "", false
	}
	return render(v), true
}

// render returns strings as-is and anything else in its JSON form.
func render(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
