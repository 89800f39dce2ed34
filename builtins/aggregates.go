package builtins

import (
	"sort"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func aggregateBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "count", Arity: 1, Fn: builtinCount},
		{Name: "sum", Arity: 1, Fn: builtinSum},
		{Name: "product", Arity: 1, Fn: builtinProduct},
		{Name: "max", Arity: 1, Fn: builtinMax},
		{Name: "min", Arity: 1, Fn: builtinMin},
		{Name: "sort", Arity: 1, Fn: builtinSort},
		{Name: "all", Arity: 1, Fn: builtinAll},
		{Name: "any", Arity: 1, Fn: builtinAny},
	}
}

func builtinCount(_ *Context, args []value.Value) (value.Value, error) {
	switch t := args[0].(type) {
	case value.String:
		return value.Int64(int64(utf8.RuneCountInString(string(t)))), nil
	case *value.Array:
		return value.Int64(int64(t.Len())), nil
	case *value.Set:
		return value.Int64(int64(t.Len())), nil
	case *value.Object:
		return value.Int64(int64(t.Len())), nil
	}
	return nil, errors.TypeMismatch("count", "operand 1 must be collection or string, got %s", args[0].Kind())
}

func numericFold(name string, args []value.Value, acc decimal.Decimal, op func(acc, d decimal.Decimal) decimal.Decimal) (value.Value, error) {
	elems, err := collectionOperand(name, args, 0)
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		n, ok := e.(value.Number)
		if !ok {
			return nil, errors.TypeMismatch(name, "operand 1 must be collection of numbers, found %s", e.Kind())
		}
		d, err := n.Decimal()
		if err != nil {
			return nil, errors.TypeMismatch(name, "invalid number %s", string(n))
		}
		acc = op(acc, d)
	}
	return value.FromDecimal(acc), nil
}

func builtinSum(_ *Context, args []value.Value) (value.Value, error) {
	return numericFold("sum", args, decimal.Zero, decimal.Decimal.Add)
}

func builtinProduct(_ *Context, args []value.Value) (value.Value, error) {
	return numericFold("product", args, decimal.NewFromInt(1), decimal.Decimal.Mul)
}

func builtinMax(_ *Context, args []value.Value) (value.Value, error) {
	elems, err := collectionOperand("max", args, 0)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, errors.Domain("max", "empty collection")
	}
	best := elems[0]
	for _, e := range elems[1:] {
		if value.Compare(e, best) > 0 {
			best = e
		}
	}
	return best, nil
}

func builtinMin(_ *Context, args []value.Value) (value.Value, error) {
	elems, err := collectionOperand("min", args, 0)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, errors.Domain("min", "empty collection")
	}
	best := elems[0]
	for _, e := range elems[1:] {
		if value.Compare(e, best) < 0 {
			best = e
		}
	}
	return best, nil
}

func builtinSort(_ *Context, args []value.Value) (value.Value, error) {
	elems, err := collectionOperand("sort", args, 0)
	if err != nil {
		return nil, err
	}
	sorted := make([]value.Value, len(elems))
	copy(sorted, elems)
	sort.SliceStable(sorted, func(i, j int) bool {
		return value.Compare(sorted[i], sorted[j]) < 0
	})
	return value.NewArray(sorted...), nil
}

func builtinAll(_ *Context, args []value.Value) (value.Value, error) {
	elems, err := collectionOperand("all", args, 0)
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		if b, ok := e.(value.Bool); !ok || !bool(b) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func builtinAny(_ *Context, args []value.Value) (value.Value, error) {
	elems, err := collectionOperand("any", args, 0)
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		if b, ok := e.(value.Bool); ok && bool(b) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}
