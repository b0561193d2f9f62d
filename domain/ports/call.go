package ports

// Root is an executable unit a call target can run.
// bridge.Unit is the only Root the bridge core creates.
type Root interface {
	// Execute runs the unit against a full invocation argument vector.
	Execute(args []any) (any, error)

	// Name returns a stable diagnostic name.
	Name() string

	// Instrumentable reports whether debugging or instrumentation may attach to the root.
	Instrumentable() bool

	// CloningAllowed reports whether the infrastructure may duplicate the root
	// (for example to specialize it per call site).
	CloningAllowed() bool
}

// CallTarget is the cached, invocable artifact created once per Root.
type CallTarget interface {
	// Call performs a boundary call: a new, independent frame executes the root.
	Call(args ...any) (any, error)

	// Root returns the root this target executes.
	Root() Root
}

// Node is a position in the guest program that issues calls.
// It is used for inlining and profiling decisions only.
type Node interface {
	// Parent returns the enclosing node, or nil for a top-level node.
	Parent() Node
}

// CallInfrastructure is the call-target creation and invocation capability
// supplied by the embedding runtime.
type CallInfrastructure interface {
	// CreateCallTarget builds the executable handle for a root.
	CreateCallTarget(root Root) CallTarget

	// CallInlined executes target in the caller's frame on behalf of node.
	CallInlined(node Node, target CallTarget, args ...any) (any, error)

	// MakeSharable marks root as safe to reuse across execution contexts.
	MakeSharable(root Root)

	// EncapsulatingNode resolves the node that should be charged for a call made at node.
	EncapsulatingNode(node Node) Node
}
