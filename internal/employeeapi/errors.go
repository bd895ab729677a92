package employeeapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Op names an employee service operation.
type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpPing   Op = "ping"
)

var defaultMessages = map[Op]string{
	OpList:   "Failed to fetch employees.",
	OpGet:    "Failed to load employee data.",
	OpCreate: "Failed to add the employee.",
	OpUpdate: "Failed to update the employee.",
	OpDelete: "Failed to delete the employee.",
	OpPing:   "Employee service is not responding.",
}

// DefaultMessage is the message used when the service gives no usable payload.
func DefaultMessage(op Op) string {
	if m, ok := defaultMessages[op]; ok {
		return m
	}
	return "Request to the employee service failed."
}

// RequestFailure is returned by every Client method on network or server errors.
type RequestFailure struct {
	Op         Op
	StatusCode int // 0 when no response was received
	Message    string
	Payload    []byte

	cause error
}

func newRequestFailure(op Op, status int, payload []byte, cause error) *RequestFailure {
	return &RequestFailure{
		Op:         op,
		StatusCode: status,
		Message:    messageFromPayload(payload, DefaultMessage(op)),
		Payload:    payload,
		cause:      cause,
	}
}

func (e *RequestFailure) Error() string {
	return e.Message
}

func (e *RequestFailure) Unwrap() error {
	return e.cause
}

// NotFound reports whether the service answered 404.
func (e *RequestFailure) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// messageFromPayload prefers a plain string payload, then a "message" or
// "error" string in a JSON object, then the raw body text.
func messageFromPayload(payload []byte, fallback string) string {
	body := strings.TrimSpace(string(payload))
	if body == "" || !utf8.ValidString(body) {
		return fallback
	}

	var s string
	if err := json.Unmarshal([]byte(body), &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return fallback
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err == nil {
		for _, key := range []string{"message", "error"} {
			if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return fallback
	}

	if json.Valid([]byte(body)) || strings.HasPrefix(body, "<") {
		return fallback
	}
	return body
}
