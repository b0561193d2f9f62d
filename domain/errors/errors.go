// Package errors provides the error taxonomy of the guest-to-host bridge.
//
// Guests only ever observe two kinds of failure: a *Signal, an expected
// interop failure that is part of an operation's contract, and a *HostError,
// the single opaque shape every other host failure is normalized into.
// All error types support unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
	"runtime/debug"

	"github.com/reglet-dev/hostbridge/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// ErrArgumentVector is returned when a bridge unit is invoked with fewer than
// the two mandatory leading arguments (context handle and receiver).
var ErrArgumentVector = stdErrors.New("invalid argument vector")

// DetailedError is an interface for error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
// Signals map to "interop", normalized host errors to "host", anything else to "internal".
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	// The outermost DetailedError decides the type, so a HostError keeps
	// "host" whatever its cause carries.
	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// SignalKind enumerates the expected interop failure modes.
type SignalKind string

const (
	// SignalUnsupportedMessage: the receiver does not support the operation.
	SignalUnsupportedMessage SignalKind = "unsupported_message"
	// SignalUnsupportedType: an argument has a type the operation cannot accept.
	SignalUnsupportedType SignalKind = "unsupported_type"
	// SignalArity: wrong number of arguments.
	SignalArity SignalKind = "arity"
	// SignalUnknownIdentifier: the receiver has no member with the given name.
	SignalUnknownIdentifier SignalKind = "unknown_identifier"
	// SignalInvalidArrayIndex: index outside the receiver's array bounds.
	SignalInvalidArrayIndex SignalKind = "invalid_array_index"
	// SignalUnknownKey: the receiver's hash has no entry for the key.
	SignalUnknownKey SignalKind = "unknown_key"
	// SignalInvalidBufferOffset: byte offset/length outside the receiver's buffer.
	SignalInvalidBufferOffset SignalKind = "invalid_buffer_offset"
	// SignalStopIteration: the receiver iterator is exhausted.
	SignalStopIteration SignalKind = "stop_iteration"
)

// Kinds returns every signal kind in declaration order.
func Kinds() []SignalKind {
	return []SignalKind{
		SignalUnsupportedMessage,
		SignalUnsupportedType,
		SignalArity,
		SignalUnknownIdentifier,
		SignalInvalidArrayIndex,
		SignalUnknownKey,
		SignalInvalidBufferOffset,
		SignalStopIteration,
	}
}

// Signal is an expected interop failure. Bridge units pass it through to the
// guest unmodified; it is never wrapped into a HostError.
type Signal struct {
	// Payload carries kind-specific data: the offending values, index or key.
	Payload any
	Kind    SignalKind
	// Identifier is the member name for SignalUnknownIdentifier.
	Identifier string
	Message    string
	// ExpectedMin/ExpectedMax/Actual describe SignalArity. ExpectedMax < 0 means unbounded.
	ExpectedMin int
	ExpectedMax int
	Actual      int
}

func (e *Signal) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("interop %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("interop %s", e.Kind)
}

// ToErrorDetail implements DetailedError.
func (e *Signal) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "interop", Code: string(e.Kind)}
	switch e.Kind {
	case SignalArity:
		detail.Details = map[string]any{"expected_min": e.ExpectedMin, "expected_max": e.ExpectedMax, "actual": e.Actual}
	case SignalUnknownIdentifier:
		detail.Details = map[string]any{"identifier": e.Identifier}
	case SignalInvalidArrayIndex, SignalUnknownKey, SignalInvalidBufferOffset:
		detail.Details = map[string]any{"value": e.Payload}
	}
	return detail
}

// NewUnsupportedMessage creates a SignalUnsupportedMessage.
func NewUnsupportedMessage(format string, args ...any) *Signal {
	return &Signal{Kind: SignalUnsupportedMessage, Message: fmt.Sprintf(format, args...)}
}

// NewUnsupportedType creates a SignalUnsupportedType carrying the rejected values.
func NewUnsupportedType(message string, values ...any) *Signal {
	return &Signal{Kind: SignalUnsupportedType, Message: message, Payload: values}
}

// NewArity creates a SignalArity. Pass max < 0 for variadic operations.
func NewArity(minArgs, maxArgs, actual int) *Signal {
	var msg string
	switch {
	case maxArgs < 0:
		msg = fmt.Sprintf("expected at least %d arguments, got %d", minArgs, actual)
	case minArgs == maxArgs:
		msg = fmt.Sprintf("expected %d arguments, got %d", minArgs, actual)
	default:
		msg = fmt.Sprintf("expected %d to %d arguments, got %d", minArgs, maxArgs, actual)
	}
	return &Signal{Kind: SignalArity, Message: msg, ExpectedMin: minArgs, ExpectedMax: maxArgs, Actual: actual}
}

// NewUnknownIdentifier creates a SignalUnknownIdentifier for a missing member.
func NewUnknownIdentifier(identifier string) *Signal {
	return &Signal{
		Kind:       SignalUnknownIdentifier,
		Identifier: identifier,
		Message:    fmt.Sprintf("unknown member %q", identifier),
	}
}

// NewInvalidArrayIndex creates a SignalInvalidArrayIndex.
func NewInvalidArrayIndex(index int64) *Signal {
	return &Signal{Kind: SignalInvalidArrayIndex, Payload: index, Message: fmt.Sprintf("index %d out of bounds", index)}
}

// NewUnknownKey creates a SignalUnknownKey.
func NewUnknownKey(key any) *Signal {
	return &Signal{Kind: SignalUnknownKey, Payload: key, Message: fmt.Sprintf("unknown key %v", key)}
}

// NewInvalidBufferOffset creates a SignalInvalidBufferOffset.
func NewInvalidBufferOffset(offset, length int64) *Signal {
	return &Signal{
		Kind:    SignalInvalidBufferOffset,
		Payload: [2]int64{offset, length},
		Message: fmt.Sprintf("offset %d length %d out of bounds", offset, length),
	}
}

// NewStopIteration creates a SignalStopIteration.
func NewStopIteration() *Signal {
	return &Signal{Kind: SignalStopIteration}
}

// AsSignal reports whether err is, or wraps, a Signal.
func AsSignal(err error) (*Signal, bool) {
	var s *Signal
	if stdErrors.As(err, &s) {
		return s, true
	}
	return nil, false
}

// IsSignalKind reports whether err carries a Signal of the given kind.
func IsSignalKind(err error, kind SignalKind) bool {
	s, ok := AsSignal(err)
	return ok && s.Kind == kind
}

// HostError is the normalized form of every unexpected host failure.
// It carries the execution-context handle the failing call was made from so
// the guest runtime can attribute it to the right session.
type HostError struct {
	// Context is the opaque execution-context handle from argument index 0.
	Context any
	Cause   error
	// Boundary is the TargetType.operation name of the failing bridge unit.
	Boundary string
}

// NewHostError wraps cause for the given execution context and boundary.
func NewHostError(context any, boundary string, cause error) *HostError {
	return &HostError{Context: context, Boundary: boundary, Cause: cause}
}

func (e *HostError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("host error in %s", e.Boundary)
	}
	return fmt.Sprintf("host error in %s: %v", e.Boundary, e.Cause)
}

func (e *HostError) Unwrap() error {
	return e.Cause
}

// ToErrorDetail implements DetailedError.
// The cause's message is kept but its concrete type never crosses the
// boundary. Panic stacks stay on the host.
func (e *HostError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "host", Boundary: e.Boundary}
	var pe *PanicError
	if stdErrors.As(e.Cause, &pe) {
		detail.Code = "panic"
	}
	return detail
}

// AsHostError reports whether err is, or wraps, a HostError.
func AsHostError(err error) (*HostError, bool) {
	var h *HostError
	if stdErrors.As(err, &h) {
		return h, true
	}
	return nil, false
}

// PanicError records a panic recovered inside a host operation.
type PanicError struct {
	Value any
	Stack []byte
}

// NewPanicError captures the current goroutine stack for a recovered value.
func NewPanicError(value any) *PanicError {
	return &PanicError{Value: value, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	switch v := e.Value.(type) {
	case error:
		return "panic: " + v.Error()
	case string:
		return "panic: " + v
	default:
		return fmt.Sprintf("panic: %v", v)
	}
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// WireFormatError represents a wire format encoding/decoding error.
type WireFormatError struct {
	Err       error
	Operation string
	Type      string
}

func (e *WireFormatError) Error() string {
	return fmt.Sprintf("wire format %s failed for %s: %v", e.Operation, e.Type, e.Err)
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *WireFormatError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: "wire_format"}
}
