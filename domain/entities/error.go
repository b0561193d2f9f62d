package entities

import "fmt"

// ErrorDetail provides structured error information.
// It is the shape guests receive over the wire when a bridge call fails.
// Error Types: "interop", "host", "validation", "config", "internal"
type ErrorDetail struct {
	// Details contains additional error context (signal payloads, arity bounds).
	Details map[string]any `json:"details,omitempty"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// Code is a machine-readable error code. For interop errors it is the signal kind.
	Code string `json:"code"`

	// Boundary names the bridge operation that failed (TargetType.operation).
	Boundary string `json:"boundary,omitempty"`
}

// Error implements the error interface.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Type != "" && e.Type != "internal" {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	if e.Boundary != "" {
		msg = fmt.Sprintf("%s (at %s)", msg, e.Boundary)
	}
	return msg
}

// IsInterop reports whether the detail describes an expected interop failure.
func (e *ErrorDetail) IsInterop() bool {
	return e != nil && e.Type == "interop"
}

// NewErrorDetail creates a new ErrorDetail with the given type and message.
func NewErrorDetail(errorType, message string) *ErrorDetail {
	return &ErrorDetail{
		Type:    errorType,
		Message: message,
	}
}

// WithDetails returns the ErrorDetail with the given details attached.
func (e *ErrorDetail) WithDetails(details map[string]any) *ErrorDetail {
	e.Details = details
	return e
}

// WithCode returns the ErrorDetail with the given code attached.
func (e *ErrorDetail) WithCode(code string) *ErrorDetail {
	e.Code = code
	return e
}

// WithBoundary returns the ErrorDetail tagged with a boundary name.
func (e *ErrorDetail) WithBoundary(boundary string) *ErrorDetail {
	e.Boundary = boundary
	return e
}
