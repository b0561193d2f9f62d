// Package goja binds bridge units into JavaScript guests running on the
// goja engine.
//
// A Binder installs a global host object into a *goja.Runtime for one
// execution context:
//
//	host.call(boundary, receiver, ...args) // invoke a bridge unit
//	host.has(boundary)                     // is the boundary registered
//	host.boundaries()                      // sorted boundary names
//
// Interop signals are thrown as TypeError objects carrying kind, boundary
// and interop=true, so scripts can catch and branch on them. Host errors are
// thrown as plain Error objects with boundary and interop=false; the Go error
// value is not reachable from the script.
//
// Every boundary name used from a binding is a call site. Once a site has
// made InlineThreshold boundary calls, later calls from it run inlined.
package goja
