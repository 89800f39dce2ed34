package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func TestNumbers(t *testing.T) {
	tests := []struct {
		name string
		args []value.Value
		want string
	}{
		{"abs", []value.Value{num("-1.5")}, `1.5`},
		{"abs", []value.Value{num("3")}, `3`},
		{"ceil", []value.Value{num("1.01")}, `2`},
		{"ceil", []value.Value{num("-1.9")}, `-1`},
		{"floor", []value.Value{num("1.99")}, `1`},
		{"floor", []value.Value{num("-1.1")}, `-2`},
		{"round", []value.Value{num("1.5")}, `2`},
		{"round", []value.Value{num("-1.5")}, `-2`},
		{"round", []value.Value{num("1.4")}, `1`},
		{"numbers.range", []value.Value{num("1"), num("4")}, `[1,2,3,4]`},
		{"numbers.range", []value.Value{num("3"), num("1")}, `[3,2,1]`},
		{"numbers.range", []value.Value{num("2"), num("2")}, `[2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCall(t, tt.name, tt.args...))
		})
	}
}

func TestNumbers_DecimalPrecision(t *testing.T) {
	// The float approximation of this value would round to 1; the decimal
	// representation must survive.
	assert.Equal(t, `0.99999999999999999`, mustCall(t, "abs", num("-0.99999999999999999")))

	// 128-bit integer stays exact.
	big := "170141183460469231731687303715884105727"
	assert.Equal(t, big, mustCall(t, "abs", num(big)))
}

func TestBits(t *testing.T) {
	tests := []struct {
		name string
		args []value.Value
		want string
	}{
		{"bits.and", []value.Value{num("12"), num("10")}, `8`},
		{"bits.or", []value.Value{num("12"), num("10")}, `14`},
		{"bits.xor", []value.Value{num("12"), num("10")}, `6`},
		{"bits.negate", []value.Value{num("0")}, `-1`},
		{"bits.lsh", []value.Value{num("1"), num("8")}, `256`},
		{"bits.rsh", []value.Value{num("256"), num("4")}, `16`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCall(t, tt.name, tt.args...))
		})
	}

	// Shifts wider than 64 bits must not overflow.
	assert.Equal(t, `18446744073709551616`, mustCall(t, "bits.lsh", num("1"), num("64")))
}

func TestBits_Errors(t *testing.T) {
	_, err := call(t, "bits.and", num("1.5"), num("1"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))

	_, err = call(t, "bits.lsh", num("1"), num("-1"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}

func TestAggregates(t *testing.T) {
	tests := []struct {
		name string
		args []value.Value
		want string
	}{
		{"count", []value.Value{str("héllo")}, `5`},
		{"count", []value.Value{arr(num("1"), num("2"))}, `2`},
		{"count", []value.Value{parse(t, `{"a":1,"b":2,"c":3}`)}, `3`},
		{"sum", []value.Value{arr(num("0.1"), num("0.2"))}, `0.3`},
		{"sum", []value.Value{arr()}, `0`},
		{"product", []value.Value{arr(num("2"), num("3"), num("4"))}, `24`},
		{"product", []value.Value{arr()}, `1`},
		{"max", []value.Value{arr(num("1"), num("3"), num("2"))}, `3`},
		{"min", []value.Value{arr(str("b"), str("a"))}, `"a"`},
		{"sort", []value.Value{arr(num("3"), num("1"), num("2"))}, `[1,2,3]`},
		{"all", []value.Value{arr(value.Bool(true), value.Bool(true))}, `true`},
		{"all", []value.Value{arr(value.Bool(true), value.Bool(false))}, `false`},
		{"all", []value.Value{arr()}, `true`},
		{"any", []value.Value{arr(value.Bool(false), value.Bool(true))}, `true`},
		{"any", []value.Value{arr()}, `false`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCall(t, tt.name, tt.args...))
		})
	}
}

func TestAggregates_EmptyMax(t *testing.T) {
	_, err := call(t, "max", arr())
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}
