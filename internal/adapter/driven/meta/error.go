package meta

import (
	"encoding/json"
	"fmt"
)

// APIError is a non-2xx response from the Graph API. It carries the decoded
// Graph error payload when one was present, and the raw body otherwise, so
// the upstream failure is never swallowed.
type APIError struct {
	Path       string
	StatusCode int
	Message    string
	Type       string
	Code       int
	FBTraceID  string
	RawBody    string
}

// graphErrorEnvelope is the standard Graph API error body.
type graphErrorEnvelope struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

func newAPIError(path string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Path:       path,
		StatusCode: statusCode,
		RawBody:    string(body),
	}

	var envelope graphErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Type = envelope.Error.Type
		apiErr.Code = envelope.Error.Code
		apiErr.FBTraceID = envelope.Error.FBTraceID
	}

	return apiErr
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("graph api %s: status %d: %s (type=%s, code=%d)", e.Path, e.StatusCode, e.Message, e.Type, e.Code)
	}
	return fmt.Sprintf("graph api %s: status %d: %s", e.Path, e.StatusCode, e.RawBody)
}

// Detail returns the most useful human-readable description of the failure
// for error responses: the Graph message when decoded, the raw body otherwise.
func (e *APIError) Detail() string {
	if e.Message != "" {
		return e.Message
	}
	return e.RawBody
}
