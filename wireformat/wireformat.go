// Package wireformat defines the JSON wire format exchanged between WASM
// guests and the bridge host module. These types define the ABI contract and
// must remain backward compatible.
package wireformat

import (
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/domain/errors"
)

// Error types carried in ErrorDetail.Type.
const (
	ErrorTypeInterop    = "interop"
	ErrorTypeHost       = "host"
	ErrorTypeValidation = "validation"
	ErrorTypeInternal   = "internal"
)

// CallRequest is the JSON wire format for a guest-to-host call. Receiver is a
// handle into the calling session's receiver table; Args are the
// operation-specific arguments that follow the receiver in the argument vector.
type CallRequest struct {
	Args     []any  `json:"args,omitempty"`
	Receiver uint32 `json:"receiver"`
}

// CallResponse is the JSON wire format for the result of a guest-to-host call.
// Exactly one of Result and Error is meaningful.
type CallResponse struct {
	Result any                   `json:"result,omitempty"`
	Error  *entities.ErrorDetail `json:"error,omitempty"`
}

// DecodeRequest parses a CallRequest. Numbers decode as float64, matching what
// a JSON guest sends.
func DecodeRequest(data []byte) (*CallRequest, error) {
	var req CallRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &errors.WireFormatError{Operation: "decode", Type: "CallRequest", Err: err}
	}
	return &req, nil
}

// EncodeResponse serializes a CallResponse.
func EncodeResponse(resp *CallResponse) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, &errors.WireFormatError{Operation: "encode", Type: "CallResponse", Err: err}
	}
	return data, nil
}

// ResultResponse wraps a successful call result.
func ResultResponse(result any) *CallResponse {
	return &CallResponse{Result: result}
}

// ErrorResponse converts err into a response carrying structured error
// details tagged with the failing boundary.
func ErrorResponse(boundary string, err error) *CallResponse {
	detail := errors.ToErrorDetail(err)
	if detail != nil && detail.Boundary == "" {
		detail.Boundary = boundary
	}
	return &CallResponse{Error: detail}
}

// ValidationResponse reports a malformed or rejected request.
func ValidationResponse(format string, args ...any) *CallResponse {
	return &CallResponse{Error: entities.NewErrorDetail(ErrorTypeValidation, fmt.Sprintf(format, args...))}
}
