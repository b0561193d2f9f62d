package wazero

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/hostbridge/bridge"
	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/wireformat"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

const (
	// DefaultModuleName is the host module guests import bridge functions from.
	DefaultModuleName = "bridge_host"

	// DefaultMaxRequestSize limits a single request read from guest memory.
	DefaultMaxRequestSize uint32 = 1 << 20
)

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Logger receives adapter diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// Guard restricts which boundaries a session may call. Nil allows all.
	Guard Guard

	// Sessions backs guests whose call context carries no session.
	Sessions *SessionStore

	// ModuleName is the host module name (default: "bridge_host").
	ModuleName string

	// CustomHandlers allows adding additional wazero handlers that
	// don't fit the packed i64 request/response pattern.
	CustomHandlers []CustomHandler

	// MaxRequestSize limits the size of incoming requests from guest memory.
	// Default is 1MB.
	MaxRequestSize uint32
}

// CustomHandler represents a custom wazero handler that doesn't use the standard
// packed i64 request/response pattern.
type CustomHandler struct {
	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// Name is the exported function name.
	Name string

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "bridge_host").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the maximum request size from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

// WithLogger sets the adapter logger.
func WithLogger(logger *zap.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithGuard restricts the boundaries guests may call.
func WithGuard(g Guard) AdapterOption {
	return func(c *AdapterConfig) {
		c.Guard = g
	}
}

// WithSessionStore shares a session store with the adapter.
func WithSessionStore(store *SessionStore) AdapterOption {
	return func(c *AdapterConfig) {
		if store != nil {
			c.Sessions = store
		}
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     DefaultModuleName,
		MaxRequestSize: DefaultMaxRequestSize,
		Logger:         zap.NewNop(),
	}
}

// Adapter exports the units of a bridge registry as wazero host functions.
type Adapter struct {
	registry *bridge.Registry
	logger   *zap.Logger
	cfg      AdapterConfig
}

// NewAdapter creates an adapter over registry.
func NewAdapter(registry *bridge.Registry, opts ...AdapterOption) (*Adapter, error) {
	if registry == nil {
		return nil, fmt.Errorf("bridge registry cannot be nil")
	}
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Sessions == nil {
		cfg.Sessions = NewSessionStore()
	}
	if cfg.ModuleName == "" {
		return nil, fmt.Errorf("host module name cannot be empty")
	}
	return &Adapter{
		registry: registry,
		logger:   cfg.Logger.With(zap.String("module", cfg.ModuleName)),
		cfg:      cfg,
	}, nil
}

// ModuleName returns the host module name guests import from.
func (a *Adapter) ModuleName() string { return a.cfg.ModuleName }

// Sessions returns the adapter's fallback session store.
func (a *Adapter) Sessions() *SessionStore { return a.cfg.Sessions }

// RegisterWithRuntime creates an adapter and registers every operation of the
// registry with a wazero runtime. It creates a host module with the
// configured name (default: "bridge_host") exporting one function per
// boundary name.
//
// Each function is wrapped to:
//   - Read request bytes from guest memory using the packed i64 ptr+len format
//   - Dispatch the call through the bridge unit in the caller's session
//   - Allocate response memory in the guest using the "allocate" export
//   - Write response bytes to guest memory
//   - Return packed i64 ptr+len of the response
//
// Example:
//
//	registry, _ := bridge.NewRegistry(calltarget.NewRuntime(),
//	    bridge.WithBundle("hostops.Object", hostops.Bundle()),
//	)
//	adapter, err := wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithModuleName("bridge_host"),
//	)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *bridge.Registry, opts ...AdapterOption) (*Adapter, error) {
	a, err := NewAdapter(registry, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.Register(ctx, runtime); err != nil {
		return nil, err
	}
	return a, nil
}

// Register instantiates the host module in runtime.
func (a *Adapter) Register(ctx context.Context, runtime wazero.Runtime) error {
	builder := runtime.NewHostModuleBuilder(a.cfg.ModuleName)

	for _, name := range a.registry.Names() {
		boundary := name
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				a.handleCall(ctx, mod, stack, boundary)
			}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
			Export(boundary)
	}

	for _, ch := range a.cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("failed to instantiate host module %s: %w", a.cfg.ModuleName, err)
	}
	a.logger.Debug("host module registered", zap.Int("functions", len(a.registry.Names())))
	return nil
}

// handleCall handles a host function call from WASM.
// It reads the request from guest memory, dispatches it, and writes the response.
func (a *Adapter) handleCall(ctx context.Context, mod api.Module, stack []uint64, boundary string) {
	ptr, length := unpackPtrLen(stack[0])
	session := resolveSession(ctx, mod, a.cfg.Sessions)

	if length > a.cfg.MaxRequestSize {
		a.logger.Error("request too large", zap.String("boundary", boundary), zap.Uint32("size", length))
		stack[0] = a.writeResponse(ctx, mod, a.encode(boundary, a.oversized(length)))
		return
	}

	payload, ok := mod.Memory().Read(ptr, length)
	if !ok {
		a.logger.Error("failed to read request from guest memory", zap.String("boundary", boundary))
		resp := &wireformat.CallResponse{Error: errors.ToErrorDetail(fmt.Errorf("failed to read request from guest memory"))}
		stack[0] = a.writeResponse(ctx, mod, a.encode(boundary, resp))
		return
	}

	stack[0] = a.writeResponse(ctx, mod, a.Dispatch(session, boundary, payload))
}

// Dispatch decodes a request, calls the bridge unit for boundary within
// session and returns the encoded response. The guest only ever observes a
// result, an interop signal or a normalized host error.
func (a *Adapter) Dispatch(session *Session, boundary string, payload []byte) []byte {
	return a.encode(boundary, a.dispatch(session, boundary, payload))
}

func (a *Adapter) dispatch(session *Session, boundary string, payload []byte) *wireformat.CallResponse {
	if uint64(len(payload)) > uint64(a.cfg.MaxRequestSize) {
		return wireformat.ValidationResponse("request size %d exceeds maximum %d bytes", len(payload), a.cfg.MaxRequestSize)
	}
	if session == nil {
		return wireformat.ValidationResponse("call to %s has no session", boundary)
	}
	if a.cfg.Guard != nil {
		if err := a.cfg.Guard.Allow(session, boundary); err != nil {
			a.logger.Warn("boundary denied", zap.String("boundary", boundary), zap.String("session", session.ID()))
			return wireformat.ErrorResponse(boundary, err)
		}
	}

	h, err := a.registry.Lookup(boundary)
	if err != nil {
		a.logger.Error("unknown boundary", zap.String("boundary", boundary), zap.Error(err))
		return wireformat.ErrorResponse(boundary, err)
	}

	req, err := wireformat.DecodeRequest(payload)
	if err != nil {
		return wireformat.ErrorResponse(boundary, err)
	}

	receiver, ok := session.Receiver(req.Receiver)
	if !ok {
		return wireformat.ErrorResponse(boundary, errors.NewUnknownKey(req.Receiver))
	}

	args := make([]any, 0, bridge.ArgumentOffset+len(req.Args))
	args = append(args, session, receiver)
	args = append(args, req.Args...)

	result, err := a.registry.Invoker().Call(h, args...)
	if err != nil {
		var pe *errors.PanicError
		if stdErrors.As(err, &pe) {
			a.logger.Error("host operation panicked",
				zap.String("boundary", boundary),
				zap.String("session", session.ID()),
				zap.ByteString("stack", pe.Stack))
		}
		return wireformat.ErrorResponse(boundary, err)
	}
	return wireformat.ResultResponse(result)
}

func (a *Adapter) oversized(size uint32) *wireformat.CallResponse {
	return wireformat.ValidationResponse("request size %d exceeds maximum %d bytes", size, a.cfg.MaxRequestSize)
}

// encode serializes resp. A result that cannot be encoded is reported to the
// guest as a host error.
func (a *Adapter) encode(boundary string, resp *wireformat.CallResponse) []byte {
	data, err := wireformat.EncodeResponse(resp)
	if err == nil {
		return data
	}
	a.logger.Warn("failed to encode response", zap.String("boundary", boundary), zap.Error(err))
	data, err = wireformat.EncodeResponse(wireformat.ErrorResponse(boundary, err))
	if err != nil {
		return []byte(`{"error":{"message":"response encoding failed","type":"internal","code":""}}`)
	}
	return data
}

// writeResponse allocates memory in the guest and writes the response bytes.
// Returns packed ptr+len or 0 on failure.
func (a *Adapter) writeResponse(ctx context.Context, mod api.Module, data []byte) uint64 {
	allocateFn := mod.ExportedFunction("allocate")
	if allocateFn == nil {
		a.logger.Error("guest module missing 'allocate' export", zap.String("guest", mod.Name()))
		return 0
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil {
		a.logger.Error("failed to call guest allocate", zap.String("guest", mod.Name()), zap.Error(err))
		return 0
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit

	if !mod.Memory().Write(ptr, data) {
		a.logger.Error("failed to write response to guest memory", zap.String("guest", mod.Name()))
		return 0
	}

	return packPtrLen(ptr, uint32(len(data))) //nolint:gosec // G115: Data length is bounded by config
}

// packPtrLen packs a pointer and length into a single i64.
// Upper 32 bits: pointer, lower 32 bits: length.
func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

// unpackPtrLen unpacks a pointer and length from a packed i64.
func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: Packed format stores 32-bit values
	return ptr, length
}
