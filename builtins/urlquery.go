package builtins

import (
	"net/url"
	"sort"
	"strings"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func urlqueryBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "urlquery.encode", Arity: 1, Fn: builtinURLQueryEncode},
		{Name: "urlquery.decode", Arity: 1, Fn: builtinURLQueryDecode},
		{Name: "urlquery.encode_object", Arity: 1, Fn: builtinURLQueryEncodeObject},
		{Name: "urlquery.decode_object", Arity: 1, Fn: builtinURLQueryDecodeObject},
	}
}

func builtinURLQueryEncode(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("urlquery.encode", args, 0)
	if err != nil {
		return nil, err
	}
	return value.String(url.QueryEscape(s)), nil
}

func builtinURLQueryDecode(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("urlquery.decode", args, 0)
	if err != nil {
		return nil, err
	}
	decoded, decodeErr := url.QueryUnescape(s)
	if decodeErr != nil {
		return nil, errors.Parse("urlquery.decode", "invalid query escape: %v", decodeErr)
	}
	return value.String(decoded), nil
}

func builtinURLQueryEncodeObject(_ *Context, args []value.Value) (value.Value, error) {
	obj, err := objectOperand("urlquery.encode_object", args, 0)
	if err != nil {
		return nil, err
	}

	type pair struct {
		key    string
		values []string
	}
	pairs := make([]pair, 0, obj.Len())

	iterErr := obj.Iter(func(k, v value.Value) error {
		ks, ok := k.(value.String)
		if !ok {
			return errors.TypeMismatch("urlquery.encode_object", "object keys must be strings, got %s", k.Kind())
		}
		p := pair{key: string(ks)}
		switch t := v.(type) {
		case value.String:
			p.values = []string{string(t)}
		case *value.Array:
			for _, e := range t.Elems() {
				es, ok := e.(value.String)
				if !ok {
					return errors.TypeMismatch("urlquery.encode_object", "multi-value entries must be strings, got %s", e.Kind())
				}
				p.values = append(p.values, string(es))
			}
		case *value.Set:
			// Set elements come out in canonical order.
			for _, e := range t.Elems() {
				es, ok := e.(value.String)
				if !ok {
					return errors.TypeMismatch("urlquery.encode_object", "multi-value entries must be strings, got %s", e.Kind())
				}
				p.values = append(p.values, string(es))
			}
		default:
			return errors.TypeMismatch("urlquery.encode_object", "object values must be strings or collections of strings, got %s", v.Kind())
		}
		pairs = append(pairs, p)
		return nil
	})
	if iterErr != nil {
		return nil, iterErr
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	var b strings.Builder
	for _, p := range pairs {
		for _, v := range p.values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(p.key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return value.String(b.String()), nil
}

func builtinURLQueryDecodeObject(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("urlquery.decode_object", args, 0)
	if err != nil {
		return nil, err
	}

	// Tolerant parse: consecutive separators, empty components and
	// components with an empty key are skipped rather than rejected.
	out := value.NewObject()
	for _, component := range strings.FieldsFunc(s, func(r rune) bool { return r == '&' || r == ';' }) {
		key, val, _ := strings.Cut(component, "=")
		if key == "" {
			continue
		}
		dk, decodeErr := url.QueryUnescape(key)
		if decodeErr != nil {
			return nil, errors.Parse("urlquery.decode_object", "invalid query escape: %v", decodeErr)
		}
		dv, decodeErr := url.QueryUnescape(val)
		if decodeErr != nil {
			return nil, errors.Parse("urlquery.decode_object", "invalid query escape: %v", decodeErr)
		}

		if existing, ok := out.Get(value.String(dk)); ok {
			existing.(*value.Array).Append(value.String(dv))
			continue
		}
		out.Put(value.String(dk), value.NewArray(value.String(dv)))
	}
	return out, nil
}
