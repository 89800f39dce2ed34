// Package runtime loads OPA policy WASM modules and evaluates them.
//
// Boot instantiates the module with its env imports bound to the builtin
// dispatcher, reads the module's builtin and entrypoint name tables, and
// produces a Runtime. Injecting a data document turns it into a Policy,
// which evaluates entrypoints against per-call inputs:
//
//	rt, err := runtime.New(ctx, wasmBytes)
//	policy, err := rt.WithData(ctx, data)
//	result, err := policy.Evaluate(ctx, "example/allow", input)
//
// A Runtime owns one WASM store (its linear memory and evaluation
// context) and is NOT safe for concurrent use. Load one Runtime per
// goroutine for parallel evaluation.
package runtime
