package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"
)

// Marshal renders v as canonical JSON text: objects in insertion order,
// sets as arrays in the canonical order, numbers without exponent
// notation when integer-shaped.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalString is Marshal returning a string.
func MarshalString(v Value) (string, error) {
	b, err := Marshal(v)
	return string(b), err
}

func appendJSON(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case nil:
		return fmt.Errorf("nil value")

	case Null:
		buf.WriteString("null")

	case Bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}

	case Number:
		s, err := t.canonical()
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", string(t), err)
		}
		buf.WriteString(s)

	case String:
		appendString(buf, string(t))

	case *Array:
		buf.WriteByte('[')
		for i, e := range t.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	case *Object:
		buf.WriteByte('{')
		for i, e := range t.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			if e.key.Kind() == KindString {
				appendString(buf, string(e.key.(String)))
			} else {
				// Non-string keys are serialized as their JSON text,
				// quoted, matching the guest's dump format.
				inner, err := Marshal(e.key)
				if err != nil {
					return err
				}
				appendString(buf, string(inner))
			}
			buf.WriteByte(':')
			if err := appendJSON(buf, e.val); err != nil {
				return err
			}
		}
		buf.WriteByte('}')

	case *Set:
		buf.WriteByte('[')
		for i, e := range t.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	default:
		return fmt.Errorf("unknown value type %T", v)
	}
	return nil
}

const hexDigits = "0123456789abcdef"

// appendString writes s as a JSON string: control characters as \uXXXX,
// non-ASCII passed through as UTF-8.
func appendString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"':
				buf.WriteString(`\"`)
			case c == '\\':
				buf.WriteString(`\\`)
			case c == '\n':
				buf.WriteString(`\n`)
			case c == '\r':
				buf.WriteString(`\r`)
			case c == '\t':
				buf.WriteString(`\t`)
			case c < 0x20:
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
			default:
				buf.WriteByte(c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteString(`�`)
			i++
			continue
		}
		buf.WriteString(s[i : i+size])
		i += size
	}
	buf.WriteByte('"')
}

// Parse decodes JSON text into a value, preserving object insertion order
// and number source text. The guest never emits set markers; set recovery
// is a caller decision made through AsSet.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t.String()), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			arr := NewArray()
			for dec.More() {
				e, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Append(e)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				// First occurrence wins on duplicate keys in source text.
				if _, exists := obj.Get(String(key)); !exists {
					obj.Put(String(key), val)
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

// AsSet reinterprets an array as a set. Values of other kinds are
// returned unchanged.
func AsSet(v Value) Value {
	arr, ok := v.(*Array)
	if !ok {
		return v
	}
	return NewSet(arr.elems...)
}

// FromNative converts a Go value (as produced by encoding/json) into a
// boundary value. Map iteration order is not deterministic in Go, so map
// keys are inserted in sorted order.
func FromNative(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t.String()), nil
	case int:
		return Int64(int64(t)), nil
	case int64:
		return Int64(t), nil
	case float64:
		return Float(t)
	case string:
		return String(t), nil
	case []any:
		arr := NewArray()
		for _, e := range t {
			ev, err := FromNative(e)
			if err != nil {
				return nil, err
			}
			arr.Append(ev)
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			ev, err := FromNative(t[k])
			if err != nil {
				return nil, err
			}
			obj.Put(String(k), ev)
		}
		return obj, nil
	}
	return nil, fmt.Errorf("cannot convert %T to a boundary value", v)
}

// ToNative converts a boundary value into plain Go types: nil, bool,
// json.Number, string, []any and map[string]any. Sets become []any in
// canonical order; non-string object keys become their JSON text.
func ToNative(v Value) any {
	switch t := v.(type) {
	case Null:
		return nil
	case Bool:
		return bool(t)
	case Number:
		return json.Number(t)
	case String:
		return string(t)
	case *Array:
		out := make([]any, len(t.elems))
		for i, e := range t.elems {
			out[i] = ToNative(e)
		}
		return out
	case *Set:
		out := make([]any, len(t.elems))
		for i, e := range t.elems {
			out[i] = ToNative(e)
		}
		return out
	case *Object:
		out := make(map[string]any, len(t.entries))
		for _, e := range t.entries {
			var key string
			if e.key.Kind() == KindString {
				key = string(e.key.(String))
			} else {
				key = keyString(e.key)
			}
			out[key] = ToNative(e.val)
		}
		return out
	}
	return nil
}
