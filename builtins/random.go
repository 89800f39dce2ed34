package builtins

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func uuidBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "uuid.rfc4122", Arity: 1, Fn: builtinUUIDRFC4122},
	}
}

func randBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "rand.intn", Arity: 2, Fn: builtinRandIntN},
	}
}

// builtinUUIDRFC4122 returns a v4 UUID that is stable per key for the
// duration of one evaluation; a fresh evaluation draws fresh randomness.
func builtinUUIDRFC4122(bctx *Context, args []value.Value) (value.Value, error) {
	k, err := stringOperand("uuid.rfc4122", args, 0)
	if err != nil {
		return nil, err
	}

	cacheKey := "uuid.rfc4122/" + k
	if cached, ok := bctx.CacheGet(cacheKey); ok {
		return cached, nil
	}

	id, genErr := uuid.NewRandomFromReader(bctx.Rand())
	if genErr != nil {
		return nil, errors.Domain("uuid.rfc4122", "generate: %v", genErr)
	}
	out := value.String(id.String())
	bctx.CacheSet(cacheKey, out)
	return out, nil
}

// builtinRandIntN samples uniformly from [0, n), stable per name for the
// duration of one evaluation.
func builtinRandIntN(bctx *Context, args []value.Value) (value.Value, error) {
	name, err := stringOperand("rand.intn", args, 0)
	if err != nil {
		return nil, err
	}
	n, err := intOperand("rand.intn", args, 1)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.Domain("rand.intn", "n must not be negative")
	}

	cacheKey := fmt.Sprintf("rand.intn/%s/%d", name, n)
	if cached, ok := bctx.CacheGet(cacheKey); ok {
		return cached, nil
	}

	var out value.Value = value.Int64(0)
	if n > 0 {
		out = value.Int64(bctx.Rand().Int63n(n))
	}
	bctx.CacheSet(cacheKey, out)
	return out, nil
}
