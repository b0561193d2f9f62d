package entities

import (
	"fmt"
	"strings"
)

// BoundaryKey identifies one host operation reachable from guest code.
// It is the deduplication key of the bridge registry.
type BoundaryKey struct {
	// TargetType names the host type family the operation bridges into.
	TargetType string `json:"target_type" yaml:"target_type"`

	// Operation is the operation name within the target type.
	Operation string `json:"operation" yaml:"operation"`
}

// NewBoundaryKey creates a BoundaryKey.
func NewBoundaryKey(targetType, operation string) BoundaryKey {
	return BoundaryKey{TargetType: targetType, Operation: operation}
}

// String returns the diagnostic boundary name: TargetType.Operation.
func (k BoundaryKey) String() string {
	return k.TargetType + "." + k.Operation
}

// Validate checks that both halves of the key are present and that the
// operation name does not contain the separator.
func (k BoundaryKey) Validate() error {
	if k.TargetType == "" {
		return fmt.Errorf("target type cannot be empty")
	}
	if k.Operation == "" {
		return fmt.Errorf("operation name cannot be empty")
	}
	if strings.Contains(k.Operation, ".") {
		return fmt.Errorf("operation name %q must not contain '.'", k.Operation)
	}
	return nil
}

// ParseBoundaryKey splits a boundary name at its last '.'.
// Target types may themselves be dotted (package.Type); operation names may not.
func ParseBoundaryKey(name string) (BoundaryKey, error) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return BoundaryKey{}, fmt.Errorf("invalid boundary name %q", name)
	}
	return BoundaryKey{TargetType: name[:i], Operation: name[i+1:]}, nil
}
