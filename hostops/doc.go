// Package hostops provides reflective host operations over arbitrary Go
// values, ready to be registered as bridge units.
//
// Every operation follows the bridge calling convention: args[0] is the
// execution-context handle (ignored here), args[1] the receiver and args[2:]
// the operation arguments. Expected failures (missing members, wrong arity,
// unconvertible arguments, out-of-range indices) are reported as interop
// signals; errors returned by the receiver's own code are passed back
// unchanged for the bridge to normalize.
//
// Struct fields are visible under their Go name unless renamed with a
// `host:"name"` tag; `host:"-"` hides a field.
package hostops
