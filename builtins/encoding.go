package builtins

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func encodingBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "base64.encode", Arity: 1, Fn: builtinBase64Encode},
		{Name: "base64.decode", Arity: 1, Fn: builtinBase64Decode},
		{Name: "base64.is_valid", Arity: 1, Fn: builtinBase64IsValid},
		{Name: "base64url.encode", Arity: 1, Fn: builtinBase64URLEncode},
		{Name: "base64url.encode_no_pad", Arity: 1, Fn: builtinBase64URLEncodeNoPad},
		{Name: "base64url.decode", Arity: 1, Fn: builtinBase64URLDecode},
		{Name: "hex.encode", Arity: 1, Fn: builtinHexEncode},
		{Name: "hex.decode", Arity: 1, Fn: builtinHexDecode},
		{Name: "json.marshal", Arity: 1, Fn: builtinJSONMarshal},
		{Name: "json.unmarshal", Arity: 1, Fn: builtinJSONUnmarshal},
		{Name: "json.is_valid", Arity: 1, Fn: builtinJSONIsValid},
	}
}

func builtinBase64Encode(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("base64.encode", args, 0)
	if err != nil {
		return nil, err
	}
	return value.String(base64.StdEncoding.EncodeToString([]byte(s))), nil
}

// stdBase64Decode accepts standard-alphabet input with or without
// padding. The URL-safe alphabet is rejected.
func stdBase64Decode(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func builtinBase64Decode(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("base64.decode", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := stdBase64Decode(s)
	if err != nil {
		return nil, errors.Parse("base64.decode", "invalid base64: %v", err)
	}
	return value.String(b), nil
}

func builtinBase64IsValid(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("base64.is_valid", args, 0)
	if err != nil {
		return nil, err
	}
	_, decodeErr := stdBase64Decode(s)
	return value.Bool(decodeErr == nil), nil
}

func builtinBase64URLEncode(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("base64url.encode", args, 0)
	if err != nil {
		return nil, err
	}
	return value.String(base64.URLEncoding.EncodeToString([]byte(s))), nil
}

func builtinBase64URLEncodeNoPad(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("base64url.encode_no_pad", args, 0)
	if err != nil {
		return nil, err
	}
	return value.String(base64.RawURLEncoding.EncodeToString([]byte(s))), nil
}

func builtinBase64URLDecode(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("base64url.decode", args, 0)
	if err != nil {
		return nil, err
	}
	// Padding is optional for url-safe input.
	b, decodeErr := base64.URLEncoding.DecodeString(s)
	if decodeErr != nil {
		b, decodeErr = base64.RawURLEncoding.DecodeString(s)
	}
	if decodeErr != nil {
		return nil, errors.Parse("base64url.decode", "invalid base64url: %v", decodeErr)
	}
	return value.String(b), nil
}

func builtinHexEncode(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("hex.encode", args, 0)
	if err != nil {
		return nil, err
	}
	return value.String(hex.EncodeToString([]byte(s))), nil
}

func builtinHexDecode(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("hex.decode", args, 0)
	if err != nil {
		return nil, err
	}
	b, decodeErr := hex.DecodeString(s)
	if decodeErr != nil {
		return nil, errors.Parse("hex.decode", "invalid hexadecimal: %v", decodeErr)
	}
	return value.String(b), nil
}

func builtinJSONMarshal(_ *Context, args []value.Value) (value.Value, error) {
	s, err := value.MarshalString(args[0])
	if err != nil {
		return nil, errors.TypeMismatch("json.marshal", "%v", err)
	}
	return value.String(s), nil
}

func builtinJSONUnmarshal(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("json.unmarshal", args, 0)
	if err != nil {
		return nil, err
	}
	v, parseErr := value.Parse([]byte(s))
	if parseErr != nil {
		return nil, errors.Parse("json.unmarshal", "invalid JSON: %v", parseErr)
	}
	return v, nil
}

func builtinJSONIsValid(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("json.is_valid", args, 0)
	if err != nil {
		return nil, err
	}
	return value.Bool(json.Valid([]byte(s))), nil
}
