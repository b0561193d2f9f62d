package bridge

import (
	"fmt"

	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
)

// ArgumentOffset is the index of the first operation-specific argument.
const ArgumentOffset = 2

// Operation is the host-side routine of a bridge unit.
// It receives the receiver (args[1]) and the full argument vector, and may
// return an *errors.Signal for expected failures.
type Operation interface {
	Execute(receiver any, args []any) (any, error)
}

// OperationFunc adapts a plain function to Operation.
type OperationFunc func(receiver any, args []any) (any, error)

// Execute implements Operation.
func (f OperationFunc) Execute(receiver any, args []any) (any, error) {
	return f(receiver, args)
}

// noCopy makes `go vet` report value copies of Unit.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Unit is a shareable, context-agnostic description of one host operation.
// All fields are set at construction and never change.
type Unit struct {
	noCopy       noCopy
	op           Operation
	key          entities.BoundaryKey
	boundaryName string
}

var _ ports.Root = (*Unit)(nil)

// NewUnit creates a Unit and registers it with infra as sharable.
// Registration happens exactly once, here.
func NewUnit(infra ports.CallInfrastructure, targetType, operationName string, op Operation) (*Unit, error) {
	key := entities.NewBoundaryKey(targetType, operationName)
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("operation for %s cannot be nil", key)
	}
	if infra == nil {
		return nil, fmt.Errorf("call infrastructure for %s cannot be nil", key)
	}

	u := &Unit{
		op:           op,
		key:          key,
		boundaryName: key.String(),
	}
	infra.MakeSharable(u)
	return u, nil
}

// TargetType returns the host type family the unit bridges into.
func (u *Unit) TargetType() string { return u.key.TargetType }

// OperationName returns the operation name.
func (u *Unit) OperationName() string { return u.key.Operation }

// Key returns the registry key of the unit.
func (u *Unit) Key() entities.BoundaryKey { return u.key }

// BoundaryName returns TargetType.OperationName, for diagnostics only.
func (u *Unit) BoundaryName() string { return u.boundaryName }

// Name implements ports.Root.
func (u *Unit) Name() string { return u.boundaryName }

// Instrumentable implements ports.Root. Bridge units are infrastructure and
// are never visible to guest debuggers.
func (u *Unit) Instrumentable() bool { return false }

// CloningAllowed implements ports.Root. There is exactly one unit per operation.
func (u *Unit) CloningAllowed() bool { return false }

// Execute dispatches one call and classifies its outcome.
//
// args[1] is handed to the operation as receiver together with the full
// vector. A returned Signal is passed through as-is. Any other error, or a
// panic, is wrapped in an *errors.HostError tagged with args[0]. This is the
// only place args[0] is read.
func (u *Unit) Execute(args []any) (result any, err error) {
	if len(args) < ArgumentOffset {
		return nil, fmt.Errorf("%w: %s requires context and receiver, got %d arguments",
			errors.ErrArgumentVector, u.boundaryName, len(args))
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			if rerr, ok := r.(error); ok {
				if _, isSignal := errors.AsSignal(rerr); isSignal {
					err = rerr
					return
				}
			}
			err = errors.NewHostError(args[0], u.boundaryName, errors.NewPanicError(r))
		}
	}()

	result, err = u.op.Execute(args[1], args)
	if err != nil {
		return nil, u.normalize(args[0], err)
	}
	return result, nil
}

// normalize sorts err into one of the two guest-visible buckets.
func (u *Unit) normalize(context any, err error) error {
	if _, ok := errors.AsSignal(err); ok {
		return err
	}
	if _, ok := errors.AsHostError(err); ok {
		// Raised by a nested bridge call; already classified.
		return err
	}
	return errors.NewHostError(context, u.boundaryName, err)
}

// String returns the boundary name.
func (u *Unit) String() string { return u.boundaryName }
