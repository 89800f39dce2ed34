package builtins

import (
	"github.com/coreos/go-semver/semver"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func semverBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "semver.compare", Arity: 2, Fn: builtinSemverCompare},
		{Name: "semver.is_valid", Arity: 1, Fn: builtinSemverIsValid},
	}
}

func builtinSemverCompare(_ *Context, args []value.Value) (value.Value, error) {
	a, err := stringOperand("semver.compare", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := stringOperand("semver.compare", args, 1)
	if err != nil {
		return nil, err
	}

	va, parseErr := semver.NewVersion(a)
	if parseErr != nil {
		return nil, errors.Parse("semver.compare", "operand 1: %v", parseErr)
	}
	vb, parseErr := semver.NewVersion(b)
	if parseErr != nil {
		return nil, errors.Parse("semver.compare", "operand 2: %v", parseErr)
	}

	return value.Int64(int64(va.Compare(*vb))), nil
}

func builtinSemverIsValid(_ *Context, args []value.Value) (value.Value, error) {
	// Total: any non-string input is simply not a valid version.
	s, ok := args[0].(value.String)
	if !ok {
		return value.Bool(false), nil
	}
	_, parseErr := semver.NewVersion(string(s))
	return value.Bool(parseErr == nil), nil
}
