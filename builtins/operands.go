package builtins

import (
	"github.com/shopspring/decimal"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

// Operand coercion helpers. Positions in error messages are 1-based to
// match the reference engine's diagnostics.

func stringOperand(name string, args []value.Value, i int) (string, error) {
	s, ok := args[i].(value.String)
	if !ok {
		return "", errors.TypeMismatch(name, "operand %d must be string, got %s", i+1, args[i].Kind())
	}
	return string(s), nil
}

func numberOperand(name string, args []value.Value, i int) (value.Number, error) {
	n, ok := args[i].(value.Number)
	if !ok {
		return "", errors.TypeMismatch(name, "operand %d must be number, got %s", i+1, args[i].Kind())
	}
	return n, nil
}

func decimalOperand(name string, args []value.Value, i int) (decimal.Decimal, error) {
	n, err := numberOperand(name, args, i)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := n.Decimal()
	if err != nil {
		return decimal.Decimal{}, errors.TypeMismatch(name, "operand %d is not a valid number", i+1)
	}
	return d, nil
}

func intOperand(name string, args []value.Value, i int) (int64, error) {
	n, err := numberOperand(name, args, i)
	if err != nil {
		return 0, err
	}
	v, ok := n.Int()
	if !ok {
		return 0, errors.TypeMismatch(name, "operand %d must be integer number, got %s", i+1, string(n))
	}
	return v, nil
}

func arrayOperand(name string, args []value.Value, i int) (*value.Array, error) {
	a, ok := args[i].(*value.Array)
	if !ok {
		return nil, errors.TypeMismatch(name, "operand %d must be array, got %s", i+1, args[i].Kind())
	}
	return a, nil
}

func objectOperand(name string, args []value.Value, i int) (*value.Object, error) {
	o, ok := args[i].(*value.Object)
	if !ok {
		return nil, errors.TypeMismatch(name, "operand %d must be object, got %s", i+1, args[i].Kind())
	}
	return o, nil
}

func setOperand(name string, args []value.Value, i int) (*value.Set, error) {
	switch t := args[i].(type) {
	case *value.Set:
		return t, nil
	case *value.Array:
		// The guest serializes sets as arrays; recover the set by position.
		return value.NewSet(t.Elems()...), nil
	}
	return nil, errors.TypeMismatch(name, "operand %d must be set, got %s", i+1, args[i].Kind())
}

// collectionOperand accepts an array or a set and returns its elements.
func collectionOperand(name string, args []value.Value, i int) ([]value.Value, error) {
	switch t := args[i].(type) {
	case *value.Array:
		return t.Elems(), nil
	case *value.Set:
		return t.Elems(), nil
	}
	return nil, errors.TypeMismatch(name, "operand %d must be array or set, got %s", i+1, args[i].Kind())
}
