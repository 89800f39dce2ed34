// Package value implements the boundary value domain exchanged with OPA
// WASM modules: null, booleans, arbitrary-precision numbers, strings,
// ordered arrays, insertion-ordered objects with keys of any kind, and
// sets deduplicated by structural equality.
//
// Values carry a canonical total order (null < false < true < numbers <
// strings < arrays < objects < sets) used for set ordering and sorting
// builtins, and a canonical JSON codec: Marshal renders sets as arrays in
// canonical order and objects in insertion order; Parse preserves object
// insertion order and number source text.
package value
