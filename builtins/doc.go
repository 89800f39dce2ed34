// Package builtins implements the host side of the OPA builtin function
// library: a registry of named handlers the runtime dispatches to when
// the policy module calls back into the host.
//
// Handlers are uniform: they take an evaluation Context and 0–4 decoded
// boundary values, and return a value or a structured error. Soft errors
// (type mismatch, domain, parse, unsupported) surface to the policy as an
// undefined result; everything else aborts the evaluation.
//
// The registry is composed from feature groups (strings, time, crypto,
// yaml, ...). A registry built with Without keeps the group's names
// registered but replaces the handlers with stubs reporting an
// unsupported error, so a slim build still loads every policy and fails
// only when an omitted builtin is actually called.
package builtins
