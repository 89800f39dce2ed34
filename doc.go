// Package opawasm embeds Open Policy Agent policies compiled to WebAssembly.
//
// The library loads an OPA-compiled WASM module, injects data and input
// documents, invokes its entrypoints, and implements the host side of the
// OPA WASM ABI, including the library of builtin functions policies may
// call back into.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	opawasm/        Root package with core Memory and GuestAllocator interfaces
//	├── runtime/    Loading, boot sequence, builtin dispatch and evaluation
//	├── value/      The boundary value domain and its canonical JSON codec
//	├── builtins/   The builtin registry, evaluation context and handlers
//	├── loader/     OPA bundle (tar.gz) reading
//	└── errors/     Structured error types for debugging
//
// # Quick Start
//
// Load and evaluate a policy:
//
//	rt, err := runtime.New(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	policy, err := rt.WithData(ctx, data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := policy.Evaluate(ctx, "example/allow", input)
//
// # Thread Safety
//
// A Runtime owns one WASM store (linear memory plus evaluation context)
// and is NOT safe for concurrent use. For parallel evaluation, load one
// Runtime per goroutine.
//
// # Memory Model
//
// All values cross the guest boundary as NUL-terminated JSON text in linear
// memory, referenced by 32-bit addresses obtained from the guest allocator.
// Every allocation made by the host is released before the call that made
// it returns, on success and error paths alike.
package opawasm
