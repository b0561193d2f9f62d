package bridge

import (
	stdErrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/domain/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrOperationNotFound is returned when a boundary name has no declared operation.
var ErrOperationNotFound = stdErrors.New("bridge operation not found")

// OperationFactory lazily builds the routine of a bridge unit.
type OperationFactory func() (Operation, error)

// Registry is the process-scoped cache of bridge units and their call targets.
//
// It deduplicates strictly: at most one Handle ever exists per
// (targetType, operationName). Concurrent first use of a key collapses into a
// single creation; every caller observes the same Handle.
type Registry struct {
	infra      ports.CallInfrastructure
	logger     *zap.Logger
	invoker    *Invoker
	declared   map[entities.BoundaryKey]OperationFactory
	handles    map[entities.BoundaryKey]*Handle
	middleware []Middleware
	group      singleflight.Group
	mu         sync.RWMutex
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	declared   map[entities.BoundaryKey]OperationFactory
	logger     *zap.Logger
	middleware []Middleware
	errors     []error
}

// NewRegistry creates a Registry backed by infra.
// Returns an error if any operation is declared twice or has an invalid name.
//
// Example usage:
//
//	registry, err := NewRegistry(infra,
//	    WithLogger(logger),
//	    WithMiddleware(LoggingMiddleware(logger)),
//	    WithBundle("hostops.Object", hostops.Bundle()),
//	)
func NewRegistry(infra ports.CallInfrastructure, opts ...RegistryOption) (*Registry, error) {
	if infra == nil {
		return nil, fmt.Errorf("call infrastructure cannot be nil")
	}

	b := &registryBuilder{
		declared: make(map[entities.BoundaryKey]OperationFactory),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	return &Registry{
		infra:      infra,
		logger:     b.logger,
		invoker:    NewInvoker(infra),
		declared:   b.declared,
		handles:    make(map[entities.BoundaryKey]*Handle),
		middleware: b.middleware,
	}, nil
}

// Invoker returns an Invoker sharing the registry's call infrastructure.
func (r *Registry) Invoker() *Invoker {
	return r.invoker
}

// Get returns the handle of a declared operation, creating it on first use.
func (r *Registry) Get(targetType, operationName string) (*Handle, error) {
	key := entities.NewBoundaryKey(targetType, operationName)
	if h, ok := r.cached(key); ok {
		return h, nil
	}
	factory, ok := r.declared[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, key)
	}
	return r.create(key, factory)
}

// GetOrCreate returns the handle for (targetType, operationName), building
// it from factory if no handle exists yet. A handle created earlier, by any
// factory, always wins.
func (r *Registry) GetOrCreate(targetType, operationName string, factory OperationFactory) (*Handle, error) {
	key := entities.NewBoundaryKey(targetType, operationName)
	if h, ok := r.cached(key); ok {
		return h, nil
	}
	if factory == nil {
		return nil, fmt.Errorf("operation factory for %s cannot be nil", key)
	}
	return r.create(key, factory)
}

// Lookup resolves a boundary name (TargetType.operation) to its handle.
func (r *Registry) Lookup(boundaryName string) (*Handle, error) {
	key, err := entities.ParseBoundaryKey(boundaryName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperationNotFound, err)
	}
	return r.Get(key.TargetType, key.Operation)
}

// Has reports whether boundaryName is declared or already created.
func (r *Registry) Has(boundaryName string) bool {
	key, err := entities.ParseBoundaryKey(boundaryName)
	if err != nil {
		return false
	}
	if _, ok := r.declared[key]; ok {
		return true
	}
	_, ok := r.cached(key)
	return ok
}

// Names returns the sorted boundary names of all declared and created operations.
func (r *Registry) Names() []string {
	seen := make(map[string]struct{}, len(r.declared))
	for key := range r.declared {
		seen[key.String()] = struct{}{}
	}
	r.mu.RLock()
	for key := range r.handles {
		seen[key.String()] = struct{}{}
	}
	r.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of handles created so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

func (r *Registry) cached(key entities.BoundaryKey) (*Handle, bool) {
	r.mu.RLock()
	h, ok := r.handles[key]
	r.mu.RUnlock()
	return h, ok
}

func (r *Registry) create(key entities.BoundaryKey, factory OperationFactory) (*Handle, error) {
	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		// A previous flight for the same key may have finished between the
		// caller's cache miss and this flight starting.
		if h, ok := r.cached(key); ok {
			return h, nil
		}

		op, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to build operation %s: %w", key, err)
		}
		unit, err := NewUnit(r.infra, key.TargetType, key.Operation, chain(key, op, r.middleware))
		if err != nil {
			return nil, err
		}
		h := NewHandle(r.infra, unit)

		r.mu.Lock()
		r.handles[key] = h
		r.mu.Unlock()

		r.logger.Debug("bridge unit created", zap.String("boundary", key.String()))
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// declare registers a factory under key.
// Returns an error if the key is invalid or already declared.
func (b *registryBuilder) declare(key entities.BoundaryKey, factory OperationFactory) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("operation factory for %s cannot be nil", key)
	}
	if _, exists := b.declared[key]; exists {
		return fmt.Errorf("duplicate operation: %q", key.String())
	}
	b.declared[key] = factory
	return nil
}

// WithOperation declares an operation. Its unit is created on first use.
func WithOperation(targetType, operationName string, op Operation) RegistryOption {
	return func(b *registryBuilder) {
		if op == nil {
			b.errors = append(b.errors, fmt.Errorf("operation %s.%s cannot be nil", targetType, operationName))
			return
		}
		factory := func() (Operation, error) { return op, nil }
		if err := b.declare(entities.NewBoundaryKey(targetType, operationName), factory); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithOperationFactory declares an operation whose routine is built lazily.
func WithOperationFactory(targetType, operationName string, factory OperationFactory) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.declare(entities.NewBoundaryKey(targetType, operationName), factory); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithBundle declares every operation of bundle under targetType.
func WithBundle(targetType string, bundle Bundle) RegistryOption {
	return func(b *registryBuilder) {
		for name, op := range bundle.Operations() {
			WithOperation(targetType, name, op)(b)
		}
	}
}

// WithMiddleware adds middleware applied to every unit the registry creates.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// WithLogger sets the registry logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(b *registryBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}
