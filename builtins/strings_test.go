package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func TestStrings_Basic(t *testing.T) {
	tests := []struct {
		name string
		args []value.Value
		want string
	}{
		{"concat", []value.Value{str(", "), arr(str("a"), str("b"))}, `"a, b"`},
		{"concat", []value.Value{str("/"), value.NewSet(str("b"), str("a"))}, `"a/b"`},
		{"contains", []value.Value{str("abcdef"), str("cde")}, `true`},
		{"contains", []value.Value{str("abcdef"), str("xyz")}, `false`},
		{"endswith", []value.Value{str("abc"), str("bc")}, `true`},
		{"startswith", []value.Value{str("abc"), str("ab")}, `true`},
		{"format_int", []value.Value{num("255"), num("16")}, `"ff"`},
		{"format_int", []value.Value{num("-7.9"), num("2")}, `"-111"`},
		{"indexof", []value.Value{str("héllo"), str("llo")}, `2`},
		{"indexof", []value.Value{str("abc"), str("z")}, `-1`},
		{"indexof_n", []value.Value{str("aXaXa"), str("a")}, `[0,2,4]`},
		{"lower", []value.Value{str("AbC")}, `"abc"`},
		{"upper", []value.Value{str("AbC")}, `"ABC"`},
		{"replace", []value.Value{str("a-b-c"), str("-"), str("+")}, `"a+b+c"`},
		{"strings.reverse", []value.Value{str("héllo")}, `"olléh"`},
		{"split", []value.Value{str("a,b,,c"), str(",")}, `["a","b","","c"]`},
		{"substring", []value.Value{str("héllo"), num("1"), num("3")}, `"éll"`},
		{"substring", []value.Value{str("héllo"), num("2"), num("-1")}, `"llo"`},
		{"substring", []value.Value{str("abc"), num("10"), num("2")}, `""`},
		{"trim", []value.Value{str("xxabcxx"), str("x")}, `"abc"`},
		{"trim_left", []value.Value{str("xxabc"), str("x")}, `"abc"`},
		{"trim_right", []value.Value{str("abcxx"), str("x")}, `"abc"`},
		{"trim_prefix", []value.Value{str("prefix-rest"), str("prefix-")}, `"rest"`},
		{"trim_suffix", []value.Value{str("rest-suffix"), str("-suffix")}, `"rest"`},
		{"trim_space", []value.Value{str("  padded\t")}, `"padded"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCall(t, tt.name, tt.args...))
		})
	}
}

func TestStrings_ReplaceN(t *testing.T) {
	patterns := value.NewObject()
	patterns.Put(str("a"), str("1"))
	patterns.Put(str("b"), str("2"))
	assert.Equal(t, `"1-2-c"`, mustCall(t, "strings.replace_n", patterns, str("a-b-c")))
}

func TestStrings_SubstringNegativeOffset(t *testing.T) {
	_, err := call(t, "substring", str("abc"), num("-1"), num("2"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}

func TestStrings_TypeErrors(t *testing.T) {
	_, err := call(t, "upper", num("1"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))

	_, err = call(t, "concat", str(","), arr(num("1")))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}

func TestSprintf(t *testing.T) {
	tests := []struct {
		format string
		args   *value.Array
		want   string
	}{
		{"hello %s", arr(str("world")), `"hello world"`},
		{"%d-%d", arr(num("1"), num("2")), `"1-2"`},
		{"%.2f", arr(num("1.2345")), `"1.23"`},
		{"%v", arr(num("42")), `"42"`},
		{"%v", arr(parse(t, `{"a":1}`)), `"{\"a\":1}"`},
		{"100%%", arr(), `"100%"`},
		{"%x", arr(num("255")), `"ff"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCall(t, "sprintf", str(tt.format), tt.args))
		})
	}
}

func TestSprintf_Malformed(t *testing.T) {
	cases := []struct {
		format string
		args   *value.Array
	}{
		{"%d", arr()},                    // missing operand
		{"%d %d", arr(num("1"))},         // not enough operands
		{"no verbs", arr(num("1"))},      // extra operand
		{"%", arr()},                     // trailing percent
		{"%z", arr(num("1"))},            // unknown verb
		{"%d", arr(str("not-a-number"))}, // verb/operand mismatch
	}

	for _, tt := range cases {
		t.Run(tt.format, func(t *testing.T) {
			_, err := call(t, "sprintf", str(tt.format), tt.args)
			require.Error(t, err)
			assert.True(t, errors.IsSoft(err), "sprintf errors must not abort evaluation")
		})
	}
}
