package calltarget

import (
	"sync/atomic"

	"github.com/reglet-dev/hostbridge/domain/ports"
)

// Frame is the activation record of a boundary call.
type Frame struct {
	// Arguments is the frame's own copy of the invocation argument vector.
	Arguments []any
}

// NewFrame copies args into a fresh frame so the callee never aliases the
// caller's slice.
func NewFrame(args []any) *Frame {
	frameArgs := make([]any, len(args))
	copy(frameArgs, args)
	return &Frame{Arguments: frameArgs}
}

// Target is the call target created for one root.
type Target struct {
	root    ports.Root
	calls   atomic.Int64
	inlined atomic.Int64
}

var _ ports.CallTarget = (*Target)(nil)

// Call implements ports.CallTarget as a boundary call.
func (t *Target) Call(args ...any) (any, error) {
	t.calls.Add(1)
	frame := NewFrame(args)
	return t.root.Execute(frame.Arguments)
}

// Root implements ports.CallTarget.
func (t *Target) Root() ports.Root { return t.root }

// CallCount returns the number of boundary calls made through the target.
func (t *Target) CallCount() int64 { return t.calls.Load() }

// InlinedCount returns the number of inlined calls made through the target.
func (t *Target) InlinedCount() int64 { return t.inlined.Load() }
