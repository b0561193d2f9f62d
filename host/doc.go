// Package host provides the runtime environment for executing WASM guests
// that call into Go through bridge units.
//
// It abstracts the underlying WASM engine (wazero), manages guest lifecycle,
// and handles the low-level ABI interactions (memory allocation, data
// packing/unpacking). Each loaded module gets its own session, which is both
// its receiver table and the execution context bridge units attribute host
// errors to.
package host
