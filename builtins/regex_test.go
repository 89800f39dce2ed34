package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func TestRegexMatch(t *testing.T) {
	assert.Equal(t, `true`, mustCall(t, "regex.match", str("^a+$"), str("aaa")))
	assert.Equal(t, `false`, mustCall(t, "regex.match", str("^a+$"), str("ab")))

	_, err := call(t, "regex.match", str("("), str("x"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}

func TestRegexIsValid(t *testing.T) {
	// Total, even for garbage patterns.
	assert.Equal(t, `true`, mustCall(t, "regex.is_valid", str("a+")))
	assert.Equal(t, `false`, mustCall(t, "regex.is_valid", str("(")))
	// Lookaround is not part of the dialect.
	assert.Equal(t, `false`, mustCall(t, "regex.is_valid", str("(?=x)")))
}

func TestRegexSplit(t *testing.T) {
	assert.Equal(t, `["a","b","c"]`, mustCall(t, "regex.split", str(","), str("a,b,c")))
	// Splitting the empty string yields exactly one empty string.
	assert.Equal(t, `[""]`, mustCall(t, "regex.split", str("/"), str("")))
	assert.Equal(t, `["",""]`, mustCall(t, "regex.split", str("x"), str("x")))
}

func TestRegexFindN(t *testing.T) {
	assert.Equal(t, `["1","22"]`, mustCall(t, "regex.find_n", str(`\d+`), str("a1b22c333"), num("2")))
	// -1 means unbounded.
	assert.Equal(t, `["1","22","333"]`, mustCall(t, "regex.find_n", str(`\d+`), str("a1b22c333"), num("-1")))
	// 0 yields the empty sequence.
	assert.Equal(t, `[]`, mustCall(t, "regex.find_n", str(`\d+`), str("a1b2"), num("0")))
}

func TestRegexFindAllSubmatchN(t *testing.T) {
	out := mustCall(t, "regex.find_all_string_submatch_n", str(`(\w+)=(\d+)`), str("a=1 b=2"), num("-1"))
	assert.Equal(t, `[["a=1","a","1"],["b=2","b","2"]]`, out)
}

func TestRegexReplace(t *testing.T) {
	assert.Equal(t, `"X-X-X"`, mustCall(t, "regex.replace", str("1-22-333"), str(`\d+`), str("X")))
}

func TestRegexGlobsMatch(t *testing.T) {
	assert.Equal(t, `true`, mustCall(t, "regex.globs_match", str("a.a."), str(".b.b")))
	assert.Equal(t, `false`, mustCall(t, "regex.globs_match", str("[a-z]*"), str("[0-9]*")))
}

func TestRegexTemplateMatch(t *testing.T) {
	assert.Equal(t, `true`, mustCall(t, "regex.template_match",
		str("urn:foo:{.*}"), str("urn:foo:bar:baz"), str("{"), str("}")))
	assert.Equal(t, `false`, mustCall(t, "regex.template_match",
		str("urn:foo:{\\d+}"), str("urn:foo:abc"), str("{"), str("}")))
	// Literal text outside delimiters is not regex.
	assert.Equal(t, `false`, mustCall(t, "regex.template_match",
		str("a.c{.*}"), str("axc"), str("{"), str("}")))

	_, err := call(t, "regex.template_match", str("x{y}"), str("xy"), str("{{"), str("}"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}

func TestGlobMatch(t *testing.T) {
	// Default delimiter "." applies when delimiters is null.
	assert.Equal(t, `true`, mustCall(t, "glob.match", str("*.example.com"), value.Null{}, str("api.example.com")))
	assert.Equal(t, `false`, mustCall(t, "glob.match", str("*.example.com"), value.Null{}, str("a.b.example.com")))

	// No delimiters: * crosses everything.
	assert.Equal(t, `true`, mustCall(t, "glob.match", str("*.example.com"), arr(), str("a.b.example.com")))

	// Custom delimiter.
	assert.Equal(t, `true`, mustCall(t, "glob.match", str("a:*"), arr(str(":")), str("a:b")))
	assert.Equal(t, `false`, mustCall(t, "glob.match", str("*"), arr(str(":")), str("a:b")))
}

func TestGlobQuoteMeta(t *testing.T) {
	assert.Equal(t, `"plain"`, mustCall(t, "glob.quote_meta", str("plain")))
	assert.Equal(t, `"\\*.domain.com"`, mustCall(t, "glob.quote_meta", str("*.domain.com")))
	assert.Equal(t, `"a\\{b\\}"`, mustCall(t, "glob.quote_meta", str("a{b}")))
}
