package builtins

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func TestUUID_StableWithinEvaluation(t *testing.T) {
	bctx := NewTestContext()

	one, err := callWith(t, bctx, "uuid.rfc4122", str("k"))
	require.NoError(t, err)
	two, err := callWith(t, bctx, "uuid.rfc4122", str("k"))
	require.NoError(t, err)
	assert.Equal(t, one, two)

	// A different key draws a different UUID.
	other, err := callWith(t, bctx, "uuid.rfc4122", str("other"))
	require.NoError(t, err)
	assert.NotEqual(t, one, other)

	// A fresh evaluation draws fresh randomness.
	bctx.BeginEvaluation()
	three, err := callWith(t, bctx, "uuid.rfc4122", str("k"))
	require.NoError(t, err)
	assert.NotEqual(t, one, three)
}

func TestUUID_ValidV4(t *testing.T) {
	bctx := NewTestContext()
	v, err := callWith(t, bctx, "uuid.rfc4122", str("k"))
	require.NoError(t, err)

	parsed, parseErr := uuid.Parse(string(v.(value.String)))
	require.NoError(t, parseErr)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestRandIntN(t *testing.T) {
	bctx := NewTestContext()

	one, err := callWith(t, bctx, "rand.intn", str("k"), num("1000"))
	require.NoError(t, err)
	two, err := callWith(t, bctx, "rand.intn", str("k"), num("1000"))
	require.NoError(t, err)
	// Stable per (name, n) within one evaluation.
	assert.Equal(t, one, two)

	n, ok := one.(value.Number).Int()
	require.True(t, ok)
	assert.GreaterOrEqual(t, n, int64(0))
	assert.Less(t, n, int64(1000))

	// n == 0 always yields 0.
	zero, err := callWith(t, bctx, "rand.intn", str("z"), num("0"))
	require.NoError(t, err)
	assert.Equal(t, value.Int64(0), zero)

	_, err = callWith(t, bctx, "rand.intn", str("neg"), num("-1"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}
