package host

import (
	"context"
	"fmt"

	"github.com/reglet-dev/hostbridge/bridge"
	"github.com/reglet-dev/hostbridge/hostops"
	"github.com/reglet-dev/hostbridge/infrastructure/calltarget"
	bridgewazero "github.com/reglet-dev/hostbridge/infrastructure/wazero"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
)

// DefaultTargetType is the target type the default registry exposes the
// hostops bundle under.
const DefaultTargetType = "hostops.Object"

// Executor manages the lifecycle of WASM guests.
type Executor struct {
	runtime     wazero.Runtime
	registry    *bridge.Registry
	adapter     *bridgewazero.Adapter
	logger      *zap.Logger
	adapterOpts []bridgewazero.AdapterOption
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	if e.registry == nil {
		reg, err := DefaultRegistry(e.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}

	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	adapterOpts := append([]bridgewazero.AdapterOption{
		bridgewazero.WithLogger(e.logger),
		bridgewazero.WithCustomHandler(bridgewazero.CustomHandler{
			Name:        "log_message",
			Handler:     e.logMessage,
			ParamTypes:  []api.ValueType{api.ValueTypeI64},
			ResultTypes: []api.ValueType{},
		}),
	}, e.adapterOpts...)

	adapter, err := bridgewazero.RegisterWithRuntime(ctx, rt, e.registry, adapterOpts...)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}
	e.adapter = adapter

	return e, nil
}

// DefaultRegistry builds a registry exposing the hostops bundle with
// invocation logging.
func DefaultRegistry(logger *zap.Logger) (*bridge.Registry, error) {
	return bridge.NewRegistry(calltarget.NewRuntime(calltarget.WithLogger(logger)),
		bridge.WithLogger(logger),
		bridge.WithMiddleware(bridge.LoggingMiddleware(logger)),
		bridge.WithBundle(DefaultTargetType, hostops.Bundle()),
	)
}

// Registry returns the bridge registry exported to guests.
func (e *Executor) Registry() *bridge.Registry { return e.registry }

// Adapter returns the host-module adapter.
func (e *Executor) Adapter() *bridgewazero.Adapter { return e.adapter }

// Close releases resources held by the executor.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Module represents an instantiated WASM guest and its session.
type Module struct {
	module   api.Module
	session  *bridgewazero.Session
	sessions *bridgewazero.SessionStore
}

// LoadModule instantiates a WASM module under name. Module names are unique
// per executor; the name also keys the guest's session.
func (e *Executor) LoadModule(ctx context.Context, name string, wasmBytes []byte) (*Module, error) {
	if name == "" {
		return nil, fmt.Errorf("module name cannot be empty")
	}
	if e.runtime.Module(name) != nil {
		return nil, fmt.Errorf("module %q already loaded", name)
	}

	sessions := e.adapter.Sessions()
	session := sessions.Get(name)
	ctx = bridgewazero.WithSession(ctx, session)

	cfg := wazero.NewModuleConfig().WithName(name)
	mod, err := e.runtime.InstantiateWithConfig(ctx, wasmBytes, cfg)
	if err != nil {
		sessions.Delete(name)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			sessions.Delete(name)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	e.logger.Debug("module loaded", zap.String("name", name))
	return &Module{module: mod, session: session, sessions: sessions}, nil
}

// Name returns the module name.
func (m *Module) Name() string { return m.module.Name() }

// Session returns the module's session.
func (m *Module) Session() *bridgewazero.Session { return m.session }

// Bind exposes receiver to the guest and returns its handle.
func (m *Module) Bind(receiver any) uint32 { return m.session.Bind(receiver) }

// Call invokes a guest export taking and returning packed ptr+len buffers.
// Host calls the guest makes meanwhile run in the module's session.
func (m *Module) Call(ctx context.Context, export string, input []byte) ([]byte, error) {
	ctx = bridgewazero.WithSession(ctx, m.session)
	packed, err := m.callRaw(ctx, export, input)
	if err != nil {
		return nil, err
	}
	return m.readPacked(packed)
}

// Close closes the guest module and drops its session.
func (m *Module) Close(ctx context.Context) error {
	m.sessions.Delete(m.module.Name())
	return m.module.Close(ctx)
}
