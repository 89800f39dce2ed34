package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/opa-wasm-runtime/errors"
)

func TestCIDRContains(t *testing.T) {
	assert.Equal(t, `true`, mustCall(t, "net.cidr_contains", str("10.0.0.0/8"), str("10.1.2.3")))
	assert.Equal(t, `false`, mustCall(t, "net.cidr_contains", str("10.0.0.0/8"), str("11.0.0.1")))

	// A CIDR second operand means full containment.
	assert.Equal(t, `true`, mustCall(t, "net.cidr_contains", str("10.0.0.0/8"), str("10.1.0.0/16")))
	assert.Equal(t, `false`, mustCall(t, "net.cidr_contains", str("10.1.0.0/16"), str("10.0.0.0/8")))

	_, err := call(t, "net.cidr_contains", str("bogus"), str("10.0.0.1"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}

func TestCIDRIntersects(t *testing.T) {
	assert.Equal(t, `true`, mustCall(t, "net.cidr_intersects", str("192.168.0.0/16"), str("192.168.1.0/24")))
	assert.Equal(t, `false`, mustCall(t, "net.cidr_intersects", str("192.168.0.0/24"), str("192.169.0.0/24")))
}

func TestCIDRExpand(t *testing.T) {
	assert.Equal(t, `["192.168.1.0","192.168.1.1","192.168.1.2","192.168.1.3"]`,
		mustCall(t, "net.cidr_expand", str("192.168.1.0/30")))

	// Unmasked host bits are masked off before expansion.
	assert.Equal(t, `["10.0.0.0","10.0.0.1"]`, mustCall(t, "net.cidr_expand", str("10.0.0.1/31")))

	_, err := call(t, "net.cidr_expand", str("10.0.0.0/8"))
	require.Error(t, err)
	assert.True(t, errors.IsSoft(err))
}

func TestCIDRIsValid(t *testing.T) {
	assert.Equal(t, `true`, mustCall(t, "net.cidr_is_valid", str("10.0.0.0/8")))
	assert.Equal(t, `true`, mustCall(t, "net.cidr_is_valid", str("2001:db8::/32")))
	assert.Equal(t, `false`, mustCall(t, "net.cidr_is_valid", str("10.0.0.0")))
	assert.Equal(t, `false`, mustCall(t, "net.cidr_is_valid", num("8")))
}
