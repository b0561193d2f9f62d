package goja

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/reglet-dev/hostbridge/bridge"
	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"github.com/reglet-dev/hostbridge/infrastructure/calltarget"
	"go.uber.org/zap"
)

const (
	// DefaultGlobalName is the name of the installed host object.
	DefaultGlobalName = "host"

	// DefaultInlineThreshold is the number of boundary calls a site makes
	// before switching to inlined calls.
	DefaultInlineThreshold = 8
)

// Binder installs bridge registries into goja runtimes.
type Binder struct {
	registry   *bridge.Registry
	logger     *zap.Logger
	globalName string
	threshold  int
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithInlineThreshold sets how many boundary calls a site makes before
// switching to inlined calls. Zero disables inlining.
func WithInlineThreshold(n int) BinderOption {
	return func(b *Binder) {
		b.threshold = n
	}
}

// WithGlobalName sets the name of the installed host object.
func WithGlobalName(name string) BinderOption {
	return func(b *Binder) {
		b.globalName = name
	}
}

// WithLogger sets the binder logger.
func WithLogger(logger *zap.Logger) BinderOption {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBinder creates a Binder over registry.
func NewBinder(registry *bridge.Registry, opts ...BinderOption) (*Binder, error) {
	if registry == nil {
		return nil, fmt.Errorf("bridge registry cannot be nil")
	}
	b := &Binder{
		registry:   registry,
		logger:     zap.NewNop(),
		globalName: DefaultGlobalName,
		threshold:  DefaultInlineThreshold,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.globalName == "" {
		return nil, fmt.Errorf("global name cannot be empty")
	}
	if b.threshold < 0 {
		return nil, fmt.Errorf("inline threshold must be >= 0, got %d", b.threshold)
	}
	return b, nil
}

// Binding is the host object installed into one runtime. A goja runtime is
// single-threaded, so neither is a Binding.
type Binding struct {
	binder  *Binder
	rt      *goja.Runtime
	context any
	root    *calltarget.Node
	sites   map[string]*site
}

type site struct {
	node  *calltarget.Node
	calls int
}

// Install creates the host object in rt. context is the execution-context
// handle every call from rt carries; host errors are attributed to it.
func (b *Binder) Install(rt *goja.Runtime, context any) (*Binding, error) {
	if rt == nil {
		return nil, fmt.Errorf("goja runtime cannot be nil")
	}
	bd := &Binding{
		binder:  b,
		rt:      rt,
		context: context,
		root:    calltarget.NewTransparentNode(b.globalName, nil),
		sites:   make(map[string]*site),
	}

	obj := rt.NewObject()
	_ = obj.Set("call", bd.call)
	_ = obj.Set("has", func(call goja.FunctionCall) goja.Value {
		return rt.ToValue(b.registry.Has(call.Argument(0).String()))
	})
	_ = obj.Set("boundaries", func(goja.FunctionCall) goja.Value {
		return rt.ToValue(b.registry.Names())
	})
	if err := rt.Set(b.globalName, obj); err != nil {
		return nil, fmt.Errorf("failed to install %s: %w", b.globalName, err)
	}
	return bd, nil
}

// Context returns the execution-context handle of the binding.
func (bd *Binding) Context() any { return bd.context }

// Site returns the call-site node for boundary, or nil if it was never called.
func (bd *Binding) Site(boundary string) ports.Node {
	if s, ok := bd.sites[boundary]; ok {
		return s.node
	}
	return nil
}

// Mode returns the mode the next call to boundary will use.
func (bd *Binding) Mode(boundary string) bridge.Mode {
	s := bd.sites[boundary]
	if s != nil && bd.binder.threshold > 0 && s.calls >= bd.binder.threshold {
		return bridge.ModeInlined
	}
	return bridge.ModeBoundary
}

func (bd *Binding) site(boundary string) *site {
	s, ok := bd.sites[boundary]
	if !ok {
		s = &site{node: calltarget.NewNode(boundary, bd.root)}
		bd.sites[boundary] = s
	}
	return s
}

// call implements host.call(boundary, receiver, ...args).
func (bd *Binding) call(call goja.FunctionCall) goja.Value {
	rt := bd.rt
	if len(call.Arguments) < 2 {
		panic(rt.NewTypeError("host.call: expected boundary and receiver"))
	}
	boundary := call.Argument(0).String()
	h, err := bd.binder.registry.Lookup(boundary)
	if err != nil {
		panic(rt.NewTypeError(fmt.Sprintf("host.call: %v", err)))
	}

	vector := make([]any, 0, len(call.Arguments))
	vector = append(vector, bd.context)
	for _, arg := range call.Arguments[1:] {
		vector = append(vector, export(arg))
	}

	mode := bd.Mode(boundary)
	s := bd.site(boundary)
	s.calls++

	result, err := bd.binder.registry.Invoker().Invoke(mode, s.node, h, vector...)
	if err != nil {
		panic(bd.throwable(boundary, err))
	}
	return rt.ToValue(result)
}

// throwable converts a bridge failure into the JS value thrown to the script.
// Signals become TypeErrors; host errors become Errors.
func (bd *Binding) throwable(boundary string, err error) *goja.Object {
	rt := bd.rt
	if sig, ok := errors.AsSignal(err); ok {
		obj := rt.NewTypeError(sig.Error())
		_ = obj.Set("kind", string(sig.Kind))
		_ = obj.Set("boundary", boundary)
		_ = obj.Set("interop", true)
		if sig.Identifier != "" {
			_ = obj.Set("identifier", sig.Identifier)
		}
		return obj
	}

	bd.binder.logger.Debug("host error thrown to script", zap.String("boundary", boundary), zap.Error(err))
	// A plain Error carrying only the message: the Go error value stays on
	// the host.
	obj, cerr := rt.New(rt.Get("Error"), rt.ToValue(err.Error()))
	if cerr != nil {
		obj = rt.NewObject()
		_ = obj.Set("message", err.Error())
	}
	_ = obj.Set("boundary", boundary)
	_ = obj.Set("interop", false)
	return obj
}

// export converts a JS argument to the Go value handed to host operations.
// Undefined and null both become nil.
func export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}
