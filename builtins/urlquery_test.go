package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wippyai/opa-wasm-runtime/value"
)

func TestURLQuery_EncodeDecode(t *testing.T) {
	assert.Equal(t, `"a%3Db+c%26d"`, mustCall(t, "urlquery.encode", str("a=b c&d")))
	assert.Equal(t, `"?foo=1&bar=test"`, mustCall(t, "urlquery.decode", str("%3Ffoo%3D1%26bar%3Dtest")))
	assert.Equal(t, `"a b"`, mustCall(t, "urlquery.decode", str("a+b")))
}

func TestURLQuery_EncodeObject(t *testing.T) {
	obj := value.NewObject()
	obj.Put(str("z"), str("last"))
	obj.Put(str("a"), str("first"))
	// Keys come out sorted regardless of insertion order.
	assert.Equal(t, `"a=first&z=last"`, mustCall(t, "urlquery.encode_object", obj))

	// Multi-valued keys emit repeated pairs; sets in canonical order.
	obj = value.NewObject()
	obj.Put(str("k"), value.NewSet(str("b"), str("a")))
	obj.Put(str("j"), arr(str("2"), str("1")))
	assert.Equal(t, `"j=2&j=1&k=a&k=b"`, mustCall(t, "urlquery.encode_object", obj))

	// Escaping applies to keys and values.
	obj = value.NewObject()
	obj.Put(str("a b"), str("c&d"))
	assert.Equal(t, `"a+b=c%26d"`, mustCall(t, "urlquery.encode_object", obj))
}

func TestURLQuery_DecodeObject(t *testing.T) {
	assert.Equal(t, `{"a":["1"],"b":["2"]}`, mustCall(t, "urlquery.decode_object", str("a=1&b=2")))

	// Repeated keys collect into a sequence.
	assert.Equal(t, `{"a":["1","2"]}`, mustCall(t, "urlquery.decode_object", str("a=1&a=2")))

	// Tolerant of empty components and =-only components.
	assert.Equal(t, `{}`, mustCall(t, "urlquery.decode_object", str("====")))
	assert.Equal(t, `{}`, mustCall(t, "urlquery.decode_object", str("&&&")))
	assert.Equal(t, `{"a":[""]}`, mustCall(t, "urlquery.decode_object", str("&&a=&&")))
	assert.Equal(t, `{"a":["b c"]}`, mustCall(t, "urlquery.decode_object", str("a=b+c")))
}
