package builtins

import (
	"fmt"
	"strings"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func stringBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "concat", Arity: 2, Fn: builtinConcat},
		{Name: "contains", Arity: 2, Fn: builtinContains},
		{Name: "endswith", Arity: 2, Fn: builtinEndsWith},
		{Name: "startswith", Arity: 2, Fn: builtinStartsWith},
		{Name: "format_int", Arity: 2, Fn: builtinFormatInt},
		{Name: "indexof", Arity: 2, Fn: builtinIndexOf},
		{Name: "indexof_n", Arity: 2, Fn: builtinIndexOfN},
		{Name: "lower", Arity: 1, Fn: builtinLower},
		{Name: "upper", Arity: 1, Fn: builtinUpper},
		{Name: "replace", Arity: 3, Fn: builtinReplace},
		{Name: "strings.replace_n", Arity: 2, Fn: builtinReplaceN},
		{Name: "strings.reverse", Arity: 1, Fn: builtinStringReverse},
		{Name: "split", Arity: 2, Fn: builtinSplit},
		{Name: "sprintf", Arity: 2, Fn: builtinSprintf},
		{Name: "substring", Arity: 3, Fn: builtinSubstring},
		{Name: "trim", Arity: 2, Fn: builtinTrim},
		{Name: "trim_left", Arity: 2, Fn: builtinTrimLeft},
		{Name: "trim_right", Arity: 2, Fn: builtinTrimRight},
		{Name: "trim_prefix", Arity: 2, Fn: builtinTrimPrefix},
		{Name: "trim_suffix", Arity: 2, Fn: builtinTrimSuffix},
		{Name: "trim_space", Arity: 1, Fn: builtinTrimSpace},
	}
}

func builtinConcat(_ *Context, args []value.Value) (value.Value, error) {
	delim, err := stringOperand("concat", args, 0)
	if err != nil {
		return nil, err
	}
	elems, err := collectionOperand("concat", args, 1)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		s, ok := e.(value.String)
		if !ok {
			return nil, errors.TypeMismatch("concat", "operand 2 must be array or set of strings, found %s", e.Kind())
		}
		parts[i] = string(s)
	}
	return value.String(strings.Join(parts, delim)), nil
}

func builtinContains(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("contains", args, 0)
	if err != nil {
		return nil, err
	}
	substr, err := stringOperand("contains", args, 1)
	if err != nil {
		return nil, err
	}
	return value.Bool(strings.Contains(s, substr)), nil
}

func builtinEndsWith(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("endswith", args, 0)
	if err != nil {
		return nil, err
	}
	suffix, err := stringOperand("endswith", args, 1)
	if err != nil {
		return nil, err
	}
	return value.Bool(strings.HasSuffix(s, suffix)), nil
}

func builtinStartsWith(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("startswith", args, 0)
	if err != nil {
		return nil, err
	}
	prefix, err := stringOperand("startswith", args, 1)
	if err != nil {
		return nil, err
	}
	return value.Bool(strings.HasPrefix(s, prefix)), nil
}

func builtinFormatInt(_ *Context, args []value.Value) (value.Value, error) {
	d, err := decimalOperand("format_int", args, 0)
	if err != nil {
		return nil, err
	}
	base, err := intOperand("format_int", args, 1)
	if err != nil {
		return nil, err
	}
	switch base {
	case 2, 8, 10, 16:
	default:
		return nil, errors.Domain("format_int", "operand 2 must be one of {2, 8, 10, 16}")
	}
	// The fractional part is truncated, matching the reference engine.
	return value.String(d.Truncate(0).BigInt().Text(int(base))), nil
}

func runeIndex(s, substr string) int {
	byteIdx := strings.Index(s, substr)
	if byteIdx < 0 {
		return -1
	}
	return len([]rune(s[:byteIdx]))
}

func builtinIndexOf(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("indexof", args, 0)
	if err != nil {
		return nil, err
	}
	substr, err := stringOperand("indexof", args, 1)
	if err != nil {
		return nil, err
	}
	if substr == "" {
		return nil, errors.Domain("indexof", "empty search character")
	}
	return value.Int64(int64(runeIndex(s, substr))), nil
}

func builtinIndexOfN(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("indexof_n", args, 0)
	if err != nil {
		return nil, err
	}
	substr, err := stringOperand("indexof_n", args, 1)
	if err != nil {
		return nil, err
	}
	if substr == "" {
		return nil, errors.Domain("indexof_n", "empty search character")
	}

	out := value.NewArray()
	runes := []rune(s)
	search := []rune(substr)
	for i := 0; i+len(search) <= len(runes); i++ {
		if string(runes[i:i+len(search)]) == substr {
			out.Append(value.Int64(int64(i)))
		}
	}
	return out, nil
}

func builtinLower(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("lower", args, 0)
	if err != nil {
		return nil, err
	}
	return value.String(strings.ToLower(s)), nil
}

func builtinUpper(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("upper", args, 0)
	if err != nil {
		return nil, err
	}
	return value.String(strings.ToUpper(s)), nil
}

func builtinReplace(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("replace", args, 0)
	if err != nil {
		return nil, err
	}
	old, err := stringOperand("replace", args, 1)
	if err != nil {
		return nil, err
	}
	new_, err := stringOperand("replace", args, 2)
	if err != nil {
		return nil, err
	}
	return value.String(strings.ReplaceAll(s, old, new_)), nil
}

func builtinReplaceN(_ *Context, args []value.Value) (value.Value, error) {
	patterns, err := objectOperand("strings.replace_n", args, 0)
	if err != nil {
		return nil, err
	}
	s, err := stringOperand("strings.replace_n", args, 1)
	if err != nil {
		return nil, err
	}

	keys := patterns.Keys()
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		ks, ok := k.(value.String)
		if !ok {
			return nil, errors.TypeMismatch("strings.replace_n", "pattern keys must be strings, got %s", k.Kind())
		}
		v, _ := patterns.Get(k)
		vs, ok := v.(value.String)
		if !ok {
			return nil, errors.TypeMismatch("strings.replace_n", "pattern values must be strings, got %s", v.Kind())
		}
		pairs = append(pairs, string(ks), string(vs))
	}
	return value.String(strings.NewReplacer(pairs...).Replace(s)), nil
}

func builtinStringReverse(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("strings.reverse", args, 0)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return value.String(runes), nil
}

func builtinSplit(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("split", args, 0)
	if err != nil {
		return nil, err
	}
	delim, err := stringOperand("split", args, 1)
	if err != nil {
		return nil, err
	}
	out := value.NewArray()
	for _, part := range strings.Split(s, delim) {
		out.Append(value.String(part))
	}
	return out, nil
}

// sprintf verbs the reference engine supports.
const sprintfVerbs = "vtbcdoqxXeEfFgGsp"

func builtinSprintf(_ *Context, args []value.Value) (value.Value, error) {
	format, err := stringOperand("sprintf", args, 0)
	if err != nil {
		return nil, err
	}
	operands, err := arrayOperand("sprintf", args, 1)
	if err != nil {
		return nil, err
	}

	fmtArgs := make([]any, operands.Len())
	for i := 0; i < operands.Len(); i++ {
		fmtArgs[i] = sprintfOperand(operands.Elem(i))
	}

	if err := checkFormat(format, len(fmtArgs)); err != nil {
		return nil, err
	}

	out := fmt.Sprintf(format, fmtArgs...)
	if strings.Contains(out, "%!") {
		return nil, errors.Parse("sprintf", "format %q does not match operands", format)
	}
	return value.String(out), nil
}

// sprintfOperand converts a boundary value to the Go value fmt should
// see: integer-shaped numbers as int64, other numbers as float64, and
// composite values as their canonical JSON text.
func sprintfOperand(v value.Value) any {
	switch t := v.(type) {
	case value.Bool:
		return bool(t)
	case value.String:
		return string(t)
	case value.Number:
		if i, ok := t.Int(); ok {
			return i
		}
		f, _ := t.Float64()
		return f
	}
	s, err := value.MarshalString(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return s
}

// checkFormat counts verbs and validates them against the operand count.
func checkFormat(format string, operands int) error {
	verbs := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		if i >= len(format) {
			return errors.Parse("sprintf", "format ends with %%")
		}
		if format[i] == '%' {
			continue
		}
		// Skip flags, width and precision.
		for i < len(format) && strings.ContainsRune("+-# 0123456789.", rune(format[i])) {
			i++
		}
		if i >= len(format) {
			return errors.Parse("sprintf", "format ends inside a verb")
		}
		if !strings.ContainsRune(sprintfVerbs, rune(format[i])) {
			return errors.Parse("sprintf", "unsupported verb %%%c", format[i])
		}
		verbs++
	}
	if verbs != operands {
		return errors.Parse("sprintf", "format has %d verbs but %d operands given", verbs, operands)
	}
	return nil
}

func builtinSubstring(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("substring", args, 0)
	if err != nil {
		return nil, err
	}
	start, err := intOperand("substring", args, 1)
	if err != nil {
		return nil, err
	}
	length, err := intOperand("substring", args, 2)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		return nil, errors.Domain("substring", "negative offset")
	}

	runes := []rune(s)
	if start >= int64(len(runes)) {
		return value.String(""), nil
	}
	if length < 0 {
		return value.String(runes[start:]), nil
	}
	end := start + length
	if end > int64(len(runes)) {
		end = int64(len(runes))
	}
	return value.String(runes[start:end]), nil
}

func builtinTrim(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("trim", args, 0)
	if err != nil {
		return nil, err
	}
	cutset, err := stringOperand("trim", args, 1)
	if err != nil {
		return nil, err
	}
	return value.String(strings.Trim(s, cutset)), nil
}

func builtinTrimLeft(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("trim_left", args, 0)
	if err != nil {
		return nil, err
	}
	cutset, err := stringOperand("trim_left", args, 1)
	if err != nil {
		return nil, err
	}
	return value.String(strings.TrimLeft(s, cutset)), nil
}

func builtinTrimRight(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("trim_right", args, 0)
	if err != nil {
		return nil, err
	}
	cutset, err := stringOperand("trim_right", args, 1)
	if err != nil {
		return nil, err
	}
	return value.String(strings.TrimRight(s, cutset)), nil
}

func builtinTrimPrefix(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("trim_prefix", args, 0)
	if err != nil {
		return nil, err
	}
	prefix, err := stringOperand("trim_prefix", args, 1)
	if err != nil {
		return nil, err
	}
	return value.String(strings.TrimPrefix(s, prefix)), nil
}

func builtinTrimSuffix(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("trim_suffix", args, 0)
	if err != nil {
		return nil, err
	}
	suffix, err := stringOperand("trim_suffix", args, 1)
	if err != nil {
		return nil, err
	}
	return value.String(strings.TrimSuffix(s, suffix)), nil
}

func builtinTrimSpace(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("trim_space", args, 0)
	if err != nil {
		return nil, err
	}
	return value.String(strings.TrimSpace(s)), nil
}
