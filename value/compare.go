package value

import "strings"

// kindRank positions each kind in the canonical total order:
// null < false < true < numbers < strings < arrays < objects < sets.
// Booleans order within their kind.
func kindRank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindBoolean:
		return 1
	case KindNumber:
		return 2
	case KindString:
		return 3
	case KindArray:
		return 4
	case KindObject:
		return 5
	case KindSet:
		return 6
	}
	return 7
}

// Compare orders two values in the canonical total order. It returns a
// negative number if a < b, zero if equal, positive if a > b.
func Compare(a, b Value) int {
	ra, rb := kindRank(a.Kind()), kindRank(b.Kind())
	if ra != rb {
		return ra - rb
	}

	switch av := a.(type) {
	case Null:
		return 0

	case Bool:
		bv := b.(Bool)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}

	case Number:
		bv := b.(Number)
		da, erra := av.Decimal()
		db, errb := bv.Decimal()
		if erra != nil || errb != nil {
			// Malformed number text never comes out of Parse or the
			// constructors; fall back to text ordering.
			return strings.Compare(string(av), string(bv))
		}
		return da.Cmp(db)

	case String:
		return strings.Compare(string(av), string(b.(String)))

	case *Array:
		bv := b.(*Array)
		return compareSlices(av.elems, bv.elems)

	case *Object:
		bv := b.(*Object)
		ae, be := av.sortedEntries(), bv.sortedEntries()
		for i := 0; i < len(ae) && i < len(be); i++ {
			if c := Compare(ae[i].key, be[i].key); c != 0 {
				return c
			}
			if c := Compare(ae[i].val, be[i].val); c != 0 {
				return c
			}
		}
		return len(ae) - len(be)

	case *Set:
		return compareSlices(av.elems, b.(*Set).elems)
	}

	return 0
}

func compareSlices(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// Equal reports structural equality in the canonical order.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}
