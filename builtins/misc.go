package builtins

import (
	"os"
	"strings"

	"github.com/wippyai/opa-wasm-runtime/value"
)

func miscBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "trace", Arity: 1, Fn: builtinTrace},
		{Name: "opa.runtime", Arity: 0, Fn: builtinOPARuntime},
	}
}

// builtinTrace accepts the note and succeeds; the host has no query
// explanation channel to attach it to.
func builtinTrace(_ *Context, args []value.Value) (value.Value, error) {
	if _, err := stringOperand("trace", args, 0); err != nil {
		return nil, err
	}
	return value.Bool(true), nil
}

func builtinOPARuntime(_ *Context, _ []value.Value) (value.Value, error) {
	env := value.NewObject()
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		env.Put(value.String(k), value.String(v))
	}

	out := value.NewObject()
	out.Put(value.String("env"), env)
	out.Put(value.String("version"), value.String(""))
	out.Put(value.String("commit"), value.String(""))
	return out, nil
}
