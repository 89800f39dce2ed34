package builtins

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/opa-wasm-runtime/errors"
)

func TestBase64(t *testing.T) {
	assert.Equal(t, `"aGVsbG8="`, mustCall(t, "base64.encode", str("hello")))
	assert.Equal(t, `"hello"`, mustCall(t, "base64.decode", str("aGVsbG8=")))
	// Padding is optional on decode.
	assert.Equal(t, `"hello"`, mustCall(t, "base64.decode", str("aGVsbG8")))
	assert.Equal(t, `true`, mustCall(t, "base64.is_valid", str("aGVsbG8=")))
	assert.Equal(t, `false`, mustCall(t, "base64.is_valid", str("not base64!")))
}

func TestBase64_RejectsURLAlphabet(t *testing.T) {
	// "?>" encodes to "Pz4" std, "Pz4" url-safe is "Pz4"; use bytes that
	// produce - and _ in the url alphabet.
	encoded := mustCall(t, "base64url.encode_no_pad", str("\xfb\xff"))
	require.Equal(t, `"-_8"`, encoded)

	_, err := call(t, "base64.decode", str("-_8"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}

func TestBase64URL(t *testing.T) {
	assert.Equal(t, `"aGVsbG8="`, mustCall(t, "base64url.encode", str("hello")))

	noPad := mustCall(t, "base64url.encode_no_pad", str("hello"))
	assert.Equal(t, `"aGVsbG8"`, noPad)
	assert.False(t, strings.Contains(noPad, "="))

	// Decode accepts either form.
	assert.Equal(t, `"hello"`, mustCall(t, "base64url.decode", str("aGVsbG8=")))
	assert.Equal(t, `"hello"`, mustCall(t, "base64url.decode", str("aGVsbG8")))
}

func TestHex(t *testing.T) {
	assert.Equal(t, `"68656c6c6f"`, mustCall(t, "hex.encode", str("hello")))
	assert.Equal(t, `"hello"`, mustCall(t, "hex.decode", str("68656c6c6f")))

	_, err := call(t, "hex.decode", str("zz"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}

func TestJSON(t *testing.T) {
	assert.Equal(t, `"{\"a\":[1,2]}"`, mustCall(t, "json.marshal", parse(t, `{"a":[1,2]}`)))
	assert.Equal(t, `{"a":[1,2]}`, mustCall(t, "json.unmarshal", str(`{"a":[1,2]}`)))
	assert.Equal(t, `true`, mustCall(t, "json.is_valid", str(`{"a":1}`)))
	assert.Equal(t, `false`, mustCall(t, "json.is_valid", str(`{`)))

	_, err := call(t, "json.unmarshal", str(`{`))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}

func TestJSONPatch(t *testing.T) {
	doc := parse(t, `{"a":{"foo":1}}`)
	patch := parse(t, `[{"op":"add","path":"/a/bar","value":2}]`)
	assert.Equal(t, `{"a":{"foo":1,"bar":2}}`, mustCall(t, "json.patch", doc, patch))

	// test op that matches.
	patch = parse(t, `[{"op":"test","path":"/a/foo","value":1}]`)
	assert.Equal(t, `{"a":{"foo":1}}`, mustCall(t, "json.patch", doc, patch))

	// test op that fails: the result is undefined, not a partial patch.
	patch = parse(t, `[{"op":"test","path":"/a/foo","value":99}]`)
	_, err := call(t, "json.patch", doc, patch)
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))

	// remove, replace, move, copy.
	doc = parse(t, `{"a":1,"b":2}`)
	patch = parse(t, `[{"op":"remove","path":"/a"},{"op":"replace","path":"/b","value":3}]`)
	assert.Equal(t, `{"b":3}`, mustCall(t, "json.patch", doc, patch))

	doc = parse(t, `{"a":1}`)
	patch = parse(t, `[{"op":"copy","from":"/a","path":"/b"},{"op":"move","from":"/a","path":"/c"}]`)
	assert.Equal(t, `{"b":1,"c":1}`, mustCall(t, "json.patch", doc, patch))
}

func TestYAML(t *testing.T) {
	assert.Equal(t, `true`, mustCall(t, "yaml.is_valid", str("a: 1")))
	assert.Equal(t, `false`, mustCall(t, "yaml.is_valid", str("a: [unclosed")))

	assert.Equal(t, `{"a":1,"b":["x","y"]}`, mustCall(t, "yaml.unmarshal", str("a: 1\nb:\n  - x\n  - y\n")))

	// Mappings marshal in block style, preserving insertion order.
	out := mustCall(t, "yaml.marshal", parse(t, `{"b":1,"a":{"c":[1,2]}}`))
	assert.Equal(t, `"b: 1\na:\n  c:\n    - 1\n    - 2\n"`, out)
}

func TestYAML_Empty(t *testing.T) {
	assert.Equal(t, `null`, mustCall(t, "yaml.unmarshal", str("")))
}
