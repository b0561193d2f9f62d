package bridge

// Bundle is a pre-configured set of related operations for one target type.
// Bundles allow registering multiple operations at once.
type Bundle interface {
	// Operations returns a map of operation names to Operation implementations.
	Operations() map[string]Operation
}

// staticBundle implements Bundle with a fixed set of operations.
type staticBundle struct {
	ops map[string]Operation
}

func (b *staticBundle) Operations() map[string]Operation {
	return b.ops
}

// NewBundle creates a Bundle from a fixed map of operations.
func NewBundle(ops map[string]Operation) Bundle {
	return &staticBundle{ops: ops}
}

// compositeBundle combines multiple bundles into one. Later bundles win on
// name collisions.
type compositeBundle struct {
	bundles []Bundle
}

func (b *compositeBundle) Operations() map[string]Operation {
	result := make(map[string]Operation)
	for _, bundle := range b.bundles {
		for name, op := range bundle.Operations() {
			result[name] = op
		}
	}
	return result
}

// Compose returns a bundle containing every operation of the given bundles.
func Compose(bundles ...Bundle) Bundle {
	return &compositeBundle{bundles: bundles}
}
