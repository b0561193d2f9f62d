package host

import (
	"github.com/reglet-dev/hostbridge/bridge"
	bridgewazero "github.com/reglet-dev/hostbridge/infrastructure/wazero"
	"go.uber.org/zap"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithRegistry configures the executor with a bridge registry. Without it the
// executor exposes the reflective hostops bundle.
func WithRegistry(registry *bridge.Registry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithLogger sets the executor logger. Guest log messages are written to it.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAdapterOptions passes options to the wazero host-module adapter.
func WithAdapterOptions(opts ...bridgewazero.AdapterOption) Option {
	return func(e *Executor) {
		e.adapterOpts = append(e.adapterOpts, opts...)
	}
}
