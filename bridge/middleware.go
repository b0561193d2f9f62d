package bridge

import (
	"github.com/reglet-dev/hostbridge/domain/entities"
	"github.com/reglet-dev/hostbridge/domain/errors"
	"go.uber.org/zap"
)

// Middleware wraps an Operation to add cross-cutting behavior.
// It runs inside the unit's classification boundary, so anything it returns
// or panics with is normalized like the operation's own failures.
// Middleware executes in FIFO order (first registered wraps outermost).
//
// Example usage:
//
//	timing := func(key entities.BoundaryKey, next Operation) Operation {
//	    return OperationFunc(func(receiver any, args []any) (any, error) {
//	        start := time.Now()
//	        defer func() { observe(key.String(), time.Since(start)) }()
//	        return next.Execute(receiver, args)
//	    })
//	}
type Middleware func(key entities.BoundaryKey, next Operation) Operation

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*registryBuilder)

// chain applies middleware so that the first one wraps outermost.
func chain(key entities.BoundaryKey, op Operation, mw []Middleware) Operation {
	wrapped := op
	for i := len(mw) - 1; i >= 0; i-- {
		wrapped = mw[i](key, wrapped)
	}
	return wrapped
}

// LoggingMiddleware logs each invocation at debug level and failures at
// debug (signals) or warn (anything else).
// It never logs the execution-context handle or argument values.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(key entities.BoundaryKey, next Operation) Operation {
		boundary := zap.String("boundary", key.String())
		return OperationFunc(func(receiver any, args []any) (any, error) {
			logger.Debug("invoking host operation", boundary, zap.Int("argc", len(args)-ArgumentOffset))
			result, err := next.Execute(receiver, args)
			if err != nil {
				if sig, ok := errors.AsSignal(err); ok {
					logger.Debug("host operation signalled", boundary, zap.String("kind", string(sig.Kind)))
				} else {
					logger.Warn("host operation failed", boundary, zap.Error(err))
				}
			}
			return result, err
		})
	}
}
