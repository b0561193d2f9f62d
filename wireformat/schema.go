package wireformat

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema creates a JSON schema (Draft 2020-12) from a Go struct by
// reflection. Struct definitions are expanded inline.
func Schema(v any) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(v)

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

// RequestSchema returns the JSON schema of CallRequest.
func RequestSchema() ([]byte, error) {
	return Schema(&CallRequest{})
}

// ResponseSchema returns the JSON schema of CallResponse.
func ResponseSchema() ([]byte, error) {
	return Schema(&CallResponse{})
}
