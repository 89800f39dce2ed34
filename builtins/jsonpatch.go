package builtins

import (
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func jsonPatchBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "json.patch", Arity: 2, Fn: builtinJSONPatch},
	}
}

// builtinJSONPatch applies an RFC 6902 patch. The patch is atomic: a
// failing operation, including a failing "test", yields an undefined
// result rather than a partial document.
func builtinJSONPatch(_ *Context, args []value.Value) (value.Value, error) {
	doc, err := value.Marshal(args[0])
	if err != nil {
		return nil, errors.TypeMismatch("json.patch", "%v", err)
	}
	ops, err := value.Marshal(args[1])
	if err != nil {
		return nil, errors.TypeMismatch("json.patch", "%v", err)
	}

	patch, patchErr := jsonpatch.DecodePatch(ops)
	if patchErr != nil {
		return nil, errors.Parse("json.patch", "invalid patch: %v", patchErr)
	}

	patched, patchErr := patch.Apply(doc)
	if patchErr != nil {
		return nil, errors.Domain("json.patch", "patch failed: %v", patchErr)
	}

	out, parseErr := value.Parse(patched)
	if parseErr != nil {
		return nil, errors.Parse("json.patch", "patched document: %v", parseErr)
	}
	return out, nil
}
