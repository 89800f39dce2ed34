package builtins

import (
	"regexp"
	"strings"

	gintersect "github.com/yashtewari/glob-intersection"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func regexBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "regex.match", Arity: 2, Fn: builtinRegexMatch},
		{Name: "regex.is_valid", Arity: 1, Fn: builtinRegexIsValid},
		{Name: "regex.split", Arity: 2, Fn: builtinRegexSplit},
		{Name: "regex.find_n", Arity: 3, Fn: builtinRegexFindN},
		{Name: "regex.find_all_string_submatch_n", Arity: 3, Fn: builtinRegexFindAllSubmatchN},
		{Name: "regex.replace", Arity: 3, Fn: builtinRegexReplace},
		{Name: "regex.globs_match", Arity: 2, Fn: builtinRegexGlobsMatch},
		{Name: "regex.template_match", Arity: 4, Fn: builtinRegexTemplateMatch},
	}
}

func compilePattern(name, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Parse(name, "invalid pattern: %v", err)
	}
	return re, nil
}

func builtinRegexMatch(_ *Context, args []value.Value) (value.Value, error) {
	pattern, err := stringOperand("regex.match", args, 0)
	if err != nil {
		return nil, err
	}
	s, err := stringOperand("regex.match", args, 1)
	if err != nil {
		return nil, err
	}
	re, err := compilePattern("regex.match", pattern)
	if err != nil {
		return nil, err
	}
	return value.Bool(re.MatchString(s)), nil
}

func builtinRegexIsValid(_ *Context, args []value.Value) (value.Value, error) {
	// Total: any non-string input is simply not a valid pattern.
	pattern, ok := args[0].(value.String)
	if !ok {
		return value.Bool(false), nil
	}
	_, compileErr := regexp.Compile(string(pattern))
	return value.Bool(compileErr == nil), nil
}

func builtinRegexSplit(_ *Context, args []value.Value) (value.Value, error) {
	pattern, err := stringOperand("regex.split", args, 0)
	if err != nil {
		return nil, err
	}
	s, err := stringOperand("regex.split", args, 1)
	if err != nil {
		return nil, err
	}
	re, err := compilePattern("regex.split", pattern)
	if err != nil {
		return nil, err
	}
	// Splitting the empty string yields one empty string.
	out := value.NewArray()
	for _, part := range re.Split(s, -1) {
		out.Append(value.String(part))
	}
	return out, nil
}

func builtinRegexFindN(_ *Context, args []value.Value) (value.Value, error) {
	pattern, err := stringOperand("regex.find_n", args, 0)
	if err != nil {
		return nil, err
	}
	s, err := stringOperand("regex.find_n", args, 1)
	if err != nil {
		return nil, err
	}
	n, err := intOperand("regex.find_n", args, 2)
	if err != nil {
		return nil, err
	}
	re, err := compilePattern("regex.find_n", pattern)
	if err != nil {
		return nil, err
	}
	// n == -1 means unbounded; n == 0 yields the empty sequence.
	out := value.NewArray()
	for _, m := range re.FindAllString(s, int(n)) {
		out.Append(value.String(m))
	}
	return out, nil
}

func builtinRegexFindAllSubmatchN(_ *Context, args []value.Value) (value.Value, error) {
	pattern, err := stringOperand("regex.find_all_string_submatch_n", args, 0)
	if err != nil {
		return nil, err
	}
	s, err := stringOperand("regex.find_all_string_submatch_n", args, 1)
	if err != nil {
		return nil, err
	}
	n, err := intOperand("regex.find_all_string_submatch_n", args, 2)
	if err != nil {
		return nil, err
	}
	re, err := compilePattern("regex.find_all_string_submatch_n", pattern)
	if err != nil {
		return nil, err
	}

	out := value.NewArray()
	for _, match := range re.FindAllStringSubmatch(s, int(n)) {
		group := value.NewArray()
		for _, m := range match {
			group.Append(value.String(m))
		}
		out.Append(group)
	}
	return out, nil
}

func builtinRegexReplace(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("regex.replace", args, 0)
	if err != nil {
		return nil, err
	}
	pattern, err := stringOperand("regex.replace", args, 1)
	if err != nil {
		return nil, err
	}
	replacement, err := stringOperand("regex.replace", args, 2)
	if err != nil {
		return nil, err
	}
	re, err := compilePattern("regex.replace", pattern)
	if err != nil {
		return nil, err
	}
	return value.String(re.ReplaceAllString(s, replacement)), nil
}

func builtinRegexGlobsMatch(_ *Context, args []value.Value) (value.Value, error) {
	glob1, err := stringOperand("regex.globs_match", args, 0)
	if err != nil {
		return nil, err
	}
	glob2, err := stringOperand("regex.globs_match", args, 1)
	if err != nil {
		return nil, err
	}
	nonEmpty, matchErr := gintersect.NonEmpty(glob1, glob2)
	if matchErr != nil {
		return nil, errors.Parse("regex.globs_match", "invalid glob: %v", matchErr)
	}
	return value.Bool(nonEmpty), nil
}

func builtinRegexTemplateMatch(_ *Context, args []value.Value) (value.Value, error) {
	pattern, err := stringOperand("regex.template_match", args, 0)
	if err != nil {
		return nil, err
	}
	s, err := stringOperand("regex.template_match", args, 1)
	if err != nil {
		return nil, err
	}
	dstart, err := stringOperand("regex.template_match", args, 2)
	if err != nil {
		return nil, err
	}
	dend, err := stringOperand("regex.template_match", args, 3)
	if err != nil {
		return nil, err
	}
	if len([]rune(dstart)) != 1 || len([]rune(dend)) != 1 {
		return nil, errors.Domain("regex.template_match", "delimiters must be a single character each")
	}

	re, err := compileTemplate("regex.template_match", pattern, []rune(dstart)[0], []rune(dend)[0])
	if err != nil {
		return nil, err
	}
	return value.Bool(re.MatchString(s)), nil
}

// compileTemplate builds a full-string regex from a template whose
// delimited segments are inline patterns and whose remaining text is
// literal, e.g. "urn:foo:{.*}" with "{" and "}".
func compileTemplate(name, pattern string, dstart, dend rune) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	depth := 0
	var literal, inner strings.Builder
	for _, r := range pattern {
		switch {
		case r == dstart:
			if depth == 0 {
				b.WriteString(regexp.QuoteMeta(literal.String()))
				literal.Reset()
			} else {
				inner.WriteRune(r)
			}
			depth++
		case r == dend:
			depth--
			if depth < 0 {
				return nil, errors.Parse(name, "unbalanced delimiters in %q", pattern)
			}
			if depth == 0 {
				b.WriteString("(")
				b.WriteString(inner.String())
				b.WriteString(")")
				inner.Reset()
			} else {
				inner.WriteRune(r)
			}
		case depth > 0:
			inner.WriteRune(r)
		default:
			literal.WriteRune(r)
		}
	}
	if depth != 0 {
		return nil, errors.Parse(name, "unbalanced delimiters in %q", pattern)
	}
	b.WriteString(regexp.QuoteMeta(literal.String()))
	b.WriteString("$")

	return compilePattern(name, b.String())
}
