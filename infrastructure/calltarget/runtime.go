package calltarget

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/reglet-dev/hostbridge/domain/ports"
	"go.uber.org/zap"
)

// Runtime is the default ports.CallInfrastructure.
// It is safe for concurrent use; all bookkeeping is lock-free.
type Runtime struct {
	logger       *zap.Logger
	shared       sync.Map // ports.Root -> struct{}
	inlineCounts sync.Map // ports.Node -> *atomic.Int64
}

var _ ports.CallInfrastructure = (*Runtime)(nil)

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// NewRuntime creates a Runtime.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// CreateCallTarget implements ports.CallInfrastructure.
func (rt *Runtime) CreateCallTarget(root ports.Root) ports.CallTarget {
	rt.logger.Debug("call target created",
		zap.String("root", root.Name()),
		zap.Bool("shared", rt.IsShared(root)))
	return &Target{root: root}
}

// MakeSharable implements ports.CallInfrastructure. Registering the same root
// twice is harmless.
func (rt *Runtime) MakeSharable(root ports.Root) {
	if _, loaded := rt.shared.LoadOrStore(root, struct{}{}); loaded {
		rt.logger.Debug("root already sharable", zap.String("root", root.Name()))
	}
}

// IsShared reports whether root was registered through MakeSharable.
func (rt *Runtime) IsShared(root ports.Root) bool {
	_, ok := rt.shared.Load(root)
	return ok
}

// CallInlined implements ports.CallInfrastructure. The root runs directly on
// the caller's argument slice and goroutine; no frame is created. The call is
// charged to node.
func (rt *Runtime) CallInlined(node ports.Node, target ports.CallTarget, args ...any) (any, error) {
	if target == nil {
		return nil, fmt.Errorf("calltarget: inlined call on nil target")
	}
	if node != nil {
		rt.counter(node).Add(1)
	}
	if t, ok := target.(*Target); ok {
		t.inlined.Add(1)
	}
	return target.Root().Execute(args)
}

// EncapsulatingNode implements ports.CallInfrastructure. Transparent nodes are
// skipped in favour of their nearest non-transparent ancestor.
func (rt *Runtime) EncapsulatingNode(node ports.Node) ports.Node {
	for n := node; n != nil; n = n.Parent() {
		if t, ok := n.(interface{ Transparent() bool }); ok && t.Transparent() {
			continue
		}
		return n
	}
	return nil
}

// InlineCount returns how many inlined calls were charged to node.
func (rt *Runtime) InlineCount(node ports.Node) int64 {
	v, ok := rt.inlineCounts.Load(node)
	if !ok {
		return 0
	}
	return v.(*atomic.Int64).Load()
}

func (rt *Runtime) counter(node ports.Node) *atomic.Int64 {
	if v, ok := rt.inlineCounts.Load(node); ok {
		return v.(*atomic.Int64)
	}
	v, _ := rt.inlineCounts.LoadOrStore(node, new(atomic.Int64))
	return v.(*atomic.Int64)
}
