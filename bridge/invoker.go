package bridge

import (
	"fmt"

	"github.com/reglet-dev/hostbridge/domain/ports"
)

// Mode selects how a bridge unit is invoked.
type Mode int

const (
	// ModeBoundary performs a full call-stack transition into the call target.
	ModeBoundary Mode = iota
	// ModeInlined executes the unit in the caller's frame.
	ModeInlined
)

func (m Mode) String() string {
	switch m {
	case ModeBoundary:
		return "boundary"
	case ModeInlined:
		return "inlined"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Handle pairs a Unit with the call target created for it.
// Handles are created once by a Registry and reused for every call.
type Handle struct {
	unit   *Unit
	target ports.CallTarget
}

// NewHandle creates the call target for u. Prefer Registry.Get, which
// guarantees a single handle per operation.
func NewHandle(infra ports.CallInfrastructure, u *Unit) *Handle {
	return &Handle{unit: u, target: infra.CreateCallTarget(u)}
}

// Unit returns the bridge unit behind the handle.
func (h *Handle) Unit() *Unit { return h.unit }

// Target returns the executable call target.
func (h *Handle) Target() ports.CallTarget { return h.target }

// Invoker issues calls into bridge units. It is stateless apart from the
// call infrastructure it was built with and is safe for concurrent use.
type Invoker struct {
	infra ports.CallInfrastructure
}

// NewInvoker creates an Invoker over the given call infrastructure.
func NewInvoker(infra ports.CallInfrastructure) *Invoker {
	return &Invoker{infra: infra}
}

// Call performs a boundary call. args must start with the execution-context
// handle and the receiver.
func (i *Invoker) Call(h *Handle, args ...any) (any, error) {
	if h == nil {
		return nil, fmt.Errorf("bridge: call on nil handle")
	}
	return h.target.Call(args...)
}

// CallInlined executes the unit in the caller's frame. node is the calling
// node; the infrastructure charges the call to its encapsulating node.
func (i *Invoker) CallInlined(node ports.Node, h *Handle, args ...any) (any, error) {
	if h == nil {
		return nil, fmt.Errorf("bridge: inlined call on nil handle")
	}
	return i.infra.CallInlined(i.infra.EncapsulatingNode(node), h.target, args...)
}

// Invoke dispatches to Call or CallInlined according to mode.
func (i *Invoker) Invoke(mode Mode, node ports.Node, h *Handle, args ...any) (any, error) {
	if mode == ModeInlined {
		return i.CallInlined(node, h, args...)
	}
	return i.Call(h, args...)
}
