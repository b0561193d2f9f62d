// Package bridge implements the guest-to-host call bridge.
//
// A Unit describes one host operation reachable from guest code. It is
// immutable, holds no per-call state and can back calls from any number of
// execution contexts at once. Every call crosses the boundary with the same
// argument layout:
//
//	args[0]  execution-context handle (opaque, read only to tag errors)
//	args[1]  receiver the operation acts upon
//	args[2:] operation-specific arguments
//
// Failures leave a Unit in exactly one of two shapes: an *errors.Signal the
// operation raised, returned unmodified, or an *errors.HostError wrapping
// anything else (including panics) together with args[0].
//
// Units are obtained from a Registry, which deduplicates them by
// (targetType, operationName) and caches their call targets, and invoked
// through an Invoker in either boundary or inlined mode.
package bridge
