package builtins

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func numberBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "abs", Arity: 1, Fn: builtinAbs},
		{Name: "ceil", Arity: 1, Fn: builtinCeil},
		{Name: "floor", Arity: 1, Fn: builtinFloor},
		{Name: "round", Arity: 1, Fn: builtinRound},
		{Name: "numbers.range", Arity: 2, Fn: builtinNumbersRange},
	}
}

func bitsBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "bits.and", Arity: 2, Fn: bitsBinary("bits.and", func(a, b *big.Int) *big.Int { return new(big.Int).And(a, b) })},
		{Name: "bits.or", Arity: 2, Fn: bitsBinary("bits.or", func(a, b *big.Int) *big.Int { return new(big.Int).Or(a, b) })},
		{Name: "bits.xor", Arity: 2, Fn: bitsBinary("bits.xor", func(a, b *big.Int) *big.Int { return new(big.Int).Xor(a, b) })},
		{Name: "bits.negate", Arity: 1, Fn: builtinBitsNegate},
		{Name: "bits.lsh", Arity: 2, Fn: builtinBitsLsh},
		{Name: "bits.rsh", Arity: 2, Fn: builtinBitsRsh},
	}
}

// Arithmetic runs on the decimal representation, not the float
// approximation, so policy numerics keep their precision.

func builtinAbs(_ *Context, args []value.Value) (value.Value, error) {
	d, err := decimalOperand("abs", args, 0)
	if err != nil {
		return nil, err
	}
	return value.FromDecimal(d.Abs()), nil
}

func builtinCeil(_ *Context, args []value.Value) (value.Value, error) {
	d, err := decimalOperand("ceil", args, 0)
	if err != nil {
		return nil, err
	}
	return value.FromDecimal(d.Ceil()), nil
}

func builtinFloor(_ *Context, args []value.Value) (value.Value, error) {
	d, err := decimalOperand("floor", args, 0)
	if err != nil {
		return nil, err
	}
	return value.FromDecimal(d.Floor()), nil
}

func builtinRound(_ *Context, args []value.Value) (value.Value, error) {
	d, err := decimalOperand("round", args, 0)
	if err != nil {
		return nil, err
	}
	// Half away from zero, like the reference engine.
	return value.FromDecimal(d.Round(0)), nil
}

func builtinNumbersRange(_ *Context, args []value.Value) (value.Value, error) {
	from, err := intOperand("numbers.range", args, 0)
	if err != nil {
		return nil, err
	}
	to, err := intOperand("numbers.range", args, 1)
	if err != nil {
		return nil, err
	}

	out := value.NewArray()
	if from <= to {
		for i := from; i <= to; i++ {
			out.Append(value.Int64(i))
		}
	} else {
		for i := from; i >= to; i-- {
			out.Append(value.Int64(i))
		}
	}
	return out, nil
}

func bigIntOperand(name string, args []value.Value, i int) (*big.Int, error) {
	d, err := decimalOperand(name, args, i)
	if err != nil {
		return nil, err
	}
	if !d.IsInteger() {
		return nil, errors.TypeMismatch(name, "operand %d must be integer number, got %s", i+1, d.String())
	}
	return d.BigInt(), nil
}

func bitsBinary(name string, op func(a, b *big.Int) *big.Int) Handler {
	return func(_ *Context, args []value.Value) (value.Value, error) {
		a, err := bigIntOperand(name, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := bigIntOperand(name, args, 1)
		if err != nil {
			return nil, err
		}
		return value.FromDecimal(decimal.NewFromBigInt(op(a, b), 0)), nil
	}
}

func builtinBitsNegate(_ *Context, args []value.Value) (value.Value, error) {
	a, err := bigIntOperand("bits.negate", args, 0)
	if err != nil {
		return nil, err
	}
	return value.FromDecimal(decimal.NewFromBigInt(new(big.Int).Not(a), 0)), nil
}

func shiftOperands(name string, args []value.Value) (*big.Int, uint, error) {
	a, err := bigIntOperand(name, args, 0)
	if err != nil {
		return nil, 0, err
	}
	n, err := intOperand(name, args, 1)
	if err != nil {
		return nil, 0, err
	}
	if n < 0 {
		return nil, 0, errors.Domain(name, "shift count must not be negative")
	}
	return a, uint(n), nil
}

func builtinBitsLsh(_ *Context, args []value.Value) (value.Value, error) {
	a, n, err := shiftOperands("bits.lsh", args)
	if err != nil {
		return nil, err
	}
	return value.FromDecimal(decimal.NewFromBigInt(new(big.Int).Lsh(a, n), 0)), nil
}

func builtinBitsRsh(_ *Context, args []value.Value) (value.Value, error) {
	a, n, err := shiftOperands("bits.rsh", args)
	if err != nil {
		return nil, err
	}
	return value.FromDecimal(decimal.NewFromBigInt(new(big.Int).Rsh(a, n), 0)), nil
}
