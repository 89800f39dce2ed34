package builtins

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func unitsBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "units.parse", Arity: 1, Fn: builtinUnitsParse},
		{Name: "units.parse_bytes", Arity: 1, Fn: builtinUnitsParseBytes},
	}
}

var decimalMultipliers = map[byte]int32{
	'k': 3, 'm': 6, 'g': 9, 't': 12, 'p': 15, 'e': 18,
}

func pow1024(n int) decimal.Decimal {
	out := decimal.NewFromInt(1)
	k := decimal.NewFromInt(1024)
	for i := 0; i < n; i++ {
		out = out.Mul(k)
	}
	return out
}

// splitNumber cuts a size string into its numeric prefix and unit suffix.
func splitNumber(s string) (num, unit string) {
	i := 0
	for i < len(s) && (s[i] == '+' || s[i] == '-' || s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// builtinUnitsParse converts strings like "10G", "5K" and "1500m" into a
// number, decimal SI units only. The suffix is case-insensitive except
// for m/M: lowercase m is milli, uppercase M is mega. An optional
// trailing b/B is tolerated.
func builtinUnitsParse(_ *Context, args []value.Value) (value.Value, error) {
	x, err := stringOperand("units.parse", args, 0)
	if err != nil {
		return nil, err
	}

	num, unit := splitNumber(strings.TrimSpace(x))
	d, parseErr := decimal.NewFromString(num)
	if parseErr != nil {
		return nil, errors.Parse("units.parse", "could not parse %q", x)
	}

	if len(unit) > 1 && (unit[len(unit)-1] == 'b' || unit[len(unit)-1] == 'B') {
		unit = unit[:len(unit)-1]
	}

	switch {
	case unit == "":
		return value.FromDecimal(d), nil
	case unit == "m":
		return value.FromDecimal(d.Shift(-3)), nil
	case len(unit) == 1:
		exp, ok := decimalMultipliers[lowerByte(unit[0])]
		if !ok {
			return nil, errors.Parse("units.parse", "unknown unit %q", unit)
		}
		return value.FromDecimal(d.Shift(exp)), nil
	}
	return nil, errors.Parse("units.parse", "unknown unit %q", unit)
}

// builtinUnitsParseBytes converts strings like "10GB", "5K" and "4mb"
// into an integer number of bytes. SI suffixes are decimal, Ki/Mi/...
// are binary, everything is case-insensitive and the trailing b/B is
// optional.
func builtinUnitsParseBytes(_ *Context, args []value.Value) (value.Value, error) {
	x, err := stringOperand("units.parse_bytes", args, 0)
	if err != nil {
		return nil, err
	}

	num, unit := splitNumber(strings.TrimSpace(x))
	d, parseErr := decimal.NewFromString(num)
	if parseErr != nil {
		return nil, errors.Parse("units.parse_bytes", "could not parse %q", x)
	}

	u := strings.ToLower(unit)
	u = strings.TrimSuffix(u, "b")

	var scaled decimal.Decimal
	switch {
	case u == "":
		scaled = d
	case len(u) == 2 && u[1] == 'i':
		exp, ok := decimalMultipliers[u[0]]
		if !ok {
			return nil, errors.Parse("units.parse_bytes", "unknown unit %q", unit)
		}
		scaled = d.Mul(pow1024(int(exp / 3)))
	case len(u) == 1:
		exp, ok := decimalMultipliers[u[0]]
		if !ok {
			return nil, errors.Parse("units.parse_bytes", "unknown unit %q", unit)
		}
		scaled = d.Shift(exp)
	default:
		return nil, errors.Parse("units.parse_bytes", "unknown unit %q", unit)
	}

	return value.FromDecimal(scaled.Truncate(0)), nil
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
