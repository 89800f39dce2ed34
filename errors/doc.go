// Package errors provides structured error types for the OPA WASM runtime.
//
// Errors carry a Phase (where in processing the failure occurred) and a
// Kind (what category of failure it is), so callers can match with
// errors.Is without string comparison:
//
//	if errors.Is(err, &oerrors.Error{Phase: oerrors.PhaseBuiltin, Kind: oerrors.KindTypeMismatch}) { ... }
//
// Builtin handlers report soft errors (type mismatch, domain, parse,
// unsupported). The dispatcher converts soft errors into an undefined
// result instead of aborting the evaluation; every other error is fatal
// to the call that produced it.
package errors
