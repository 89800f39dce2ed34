package builtins

import (
	"net/netip"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func netBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "net.cidr_contains", Arity: 2, Fn: builtinCIDRContains},
		{Name: "net.cidr_intersects", Arity: 2, Fn: builtinCIDRIntersects},
		{Name: "net.cidr_expand", Arity: 1, Fn: builtinCIDRExpand},
		{Name: "net.cidr_is_valid", Arity: 1, Fn: builtinCIDRIsValid},
	}
}

// Address enumeration stops here; a larger prefix is almost certainly a
// policy bug and would exhaust memory.
const maxExpandedHosts = 1 << 17

func prefixOperand(name string, args []value.Value, i int) (netip.Prefix, error) {
	s, err := stringOperand(name, args, i)
	if err != nil {
		return netip.Prefix{}, err
	}
	p, parseErr := netip.ParsePrefix(s)
	if parseErr != nil {
		return netip.Prefix{}, errors.Parse(name, "operand %d: invalid CIDR %q", i+1, s)
	}
	return p, nil
}

func builtinCIDRContains(_ *Context, args []value.Value) (value.Value, error) {
	p, err := prefixOperand("net.cidr_contains", args, 0)
	if err != nil {
		return nil, err
	}
	s, err := stringOperand("net.cidr_contains", args, 1)
	if err != nil {
		return nil, err
	}

	// The second operand may be an address or another CIDR.
	if addr, parseErr := netip.ParseAddr(s); parseErr == nil {
		return value.Bool(p.Contains(addr)), nil
	}
	inner, parseErr := netip.ParsePrefix(s)
	if parseErr != nil {
		return nil, errors.Parse("net.cidr_contains", "operand 2: invalid CIDR or IP %q", s)
	}
	return value.Bool(p.Overlaps(inner) && p.Bits() <= inner.Bits()), nil
}

func builtinCIDRIntersects(_ *Context, args []value.Value) (value.Value, error) {
	a, err := prefixOperand("net.cidr_intersects", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := prefixOperand("net.cidr_intersects", args, 1)
	if err != nil {
		return nil, err
	}
	return value.Bool(a.Overlaps(b)), nil
}

func builtinCIDRExpand(_ *Context, args []value.Value) (value.Value, error) {
	p, err := prefixOperand("net.cidr_expand", args, 0)
	if err != nil {
		return nil, err
	}

	hostBits := p.Addr().BitLen() - p.Bits()
	if hostBits > 17 {
		return nil, errors.Domain("net.cidr_expand", "prefix %s expands to more than %d hosts", p, maxExpandedHosts)
	}

	out := value.NewSet()
	addr := p.Masked().Addr()
	for p.Contains(addr) {
		out.Add(value.String(addr.String()))
		addr = addr.Next()
		if !addr.IsValid() {
			break
		}
	}
	return out, nil
}

func builtinCIDRIsValid(_ *Context, args []value.Value) (value.Value, error) {
	// Total: any non-string input is simply not a valid CIDR.
	s, ok := args[0].(value.String)
	if !ok {
		return value.Bool(false), nil
	}
	_, parseErr := netip.ParsePrefix(string(s))
	return value.Bool(parseErr == nil), nil
}
