// Package wazero exports bridge units to WebAssembly guests running in the
// wazero runtime.
//
// Every operation of a bridge.Registry becomes one function of a host module
// (default "bridge_host"), exported under its boundary name
// (TargetType.operation). Functions take and return a packed i64 pointer+length
// referencing a JSON document in guest memory:
//
//   - Request: wireformat.CallRequest, the receiver handle plus arguments
//   - Response: wireformat.CallResponse, the result or an ErrorDetail
//
// Receivers are addressed through the handle table of the calling guest's
// Session. The session is also the execution-context handle the bridge unit
// receives, so host errors are attributed to the guest that caused them.
//
// # Basic Usage
//
//	registry, err := bridge.NewRegistry(calltarget.NewRuntime(),
//	    bridge.WithBundle("hostops.Object", hostops.Bundle()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//	adapter, err := wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithModuleName("bridge_host"),
//	)
//
//	session := wazero.NewSession("guest-1")
//	handle := session.Bind(receiver)
//	ctx = wazero.WithSession(ctx, session)
//
// # Custom Handlers
//
// For functions that don't fit the request/response pattern (like logging),
// use WithCustomHandler:
//
//	wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithCustomHandler(wazero.CustomHandler{
//	        Name:        "log_message",
//	        Handler:     logMessageHandler,
//	        ParamTypes:  []api.ValueType{api.ValueTypeI64},
//	        ResultTypes: []api.ValueType{},
//	    }),
//	)
package wazero
