package builtins

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"

	"github.com/wippyai/opa-wasm-runtime/value"
)

func cryptoBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "crypto.md5", Arity: 1, Fn: digestBuiltin("crypto.md5", md5.New)},
		{Name: "crypto.sha1", Arity: 1, Fn: digestBuiltin("crypto.sha1", sha1.New)},
		{Name: "crypto.sha256", Arity: 1, Fn: digestBuiltin("crypto.sha256", sha256.New)},
		{Name: "crypto.sha512", Arity: 1, Fn: digestBuiltin("crypto.sha512", sha512.New)},
		{Name: "crypto.hmac.md5", Arity: 2, Fn: hmacBuiltin("crypto.hmac.md5", md5.New)},
		{Name: "crypto.hmac.sha1", Arity: 2, Fn: hmacBuiltin("crypto.hmac.sha1", sha1.New)},
		{Name: "crypto.hmac.sha256", Arity: 2, Fn: hmacBuiltin("crypto.hmac.sha256", sha256.New)},
		{Name: "crypto.hmac.sha512", Arity: 2, Fn: hmacBuiltin("crypto.hmac.sha512", sha512.New)},
	}
}

// Digests return lowercase hex.

func digestBuiltin(name string, newHash func() hash.Hash) Handler {
	return func(_ *Context, args []value.Value) (value.Value, error) {
		s, err := stringOperand(name, args, 0)
		if err != nil {
			return nil, err
		}
		h := newHash()
		h.Write([]byte(s))
		return value.String(hex.EncodeToString(h.Sum(nil))), nil
	}
}

func hmacBuiltin(name string, newHash func() hash.Hash) Handler {
	return func(_ *Context, args []value.Value) (value.Value, error) {
		s, err := stringOperand(name, args, 0)
		if err != nil {
			return nil, err
		}
		key, err := stringOperand(name, args, 1)
		if err != nil {
			return nil, err
		}
		mac := hmac.New(newHash, []byte(key))
		mac.Write([]byte(s))
		return value.String(hex.EncodeToString(mac.Sum(nil))), nil
	}
}
