package builtins

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func globBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "glob.match", Arity: 3, Fn: builtinGlobMatch},
		{Name: "glob.quote_meta", Arity: 1, Fn: builtinGlobQuoteMeta},
	}
}

func builtinGlobMatch(_ *Context, args []value.Value) (value.Value, error) {
	pattern, err := stringOperand("glob.match", args, 0)
	if err != nil {
		return nil, err
	}

	// Null means the default delimiter "."; an empty array means none.
	var delims []rune
	switch t := args[1].(type) {
	case value.Null:
		delims = []rune{'.'}
	case *value.Array:
		for _, e := range t.Elems() {
			s, ok := e.(value.String)
			if !ok {
				return nil, errors.TypeMismatch("glob.match", "delimiters must be strings, got %s", e.Kind())
			}
			r := []rune(string(s))
			if len(r) != 1 {
				return nil, errors.Domain("glob.match", "delimiters must be single characters, got %q", string(s))
			}
			delims = append(delims, r[0])
		}
	default:
		return nil, errors.TypeMismatch("glob.match", "operand 2 must be array or null, got %s", args[1].Kind())
	}

	match, err := stringOperand("glob.match", args, 2)
	if err != nil {
		return nil, err
	}

	g, compileErr := glob.Compile(pattern, delims...)
	if compileErr != nil {
		return nil, errors.Parse("glob.match", "invalid glob: %v", compileErr)
	}
	return value.Bool(g.Match(match)), nil
}

func builtinGlobQuoteMeta(_ *Context, args []value.Value) (value.Value, error) {
	pattern, err := stringOperand("glob.quote_meta", args, 0)
	if err != nil {
		return nil, err
	}

	if !strings.ContainsAny(pattern, `*?\[]{}`) {
		return value.String(pattern), nil
	}

	var b strings.Builder
	b.Grow(len(pattern))
	for _, r := range pattern {
		switch r {
		case '*', '?', '\\', '[', ']', '{', '}':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return value.String(b.String()), nil
}
