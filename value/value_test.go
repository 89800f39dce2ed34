package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_Order(t *testing.T) {
	// Ascending in the canonical total order.
	ordered := []Value{
		Null{},
		Bool(false),
		Bool(true),
		Number("-3"),
		Number("0"),
		Number("0.5"),
		Number("100"),
		String(""),
		String("a"),
		String("b"),
		NewArray(),
		NewArray(Number("1")),
		NewArray(Number("1"), Number("2")),
		NewObject(),
		NewSet(),
		NewSet(Number("1")),
	}

	for i := range ordered {
		for j := range ordered {
			c := Compare(ordered[i], ordered[j])
			switch {
			case i < j:
				assert.Negative(t, c, "expected %v < %v", ordered[i], ordered[j])
			case i > j:
				assert.Positive(t, c, "expected %v > %v", ordered[i], ordered[j])
			default:
				assert.Zero(t, c)
			}
		}
	}
}

func TestCompare_NumbersByDecimalValue(t *testing.T) {
	assert.True(t, Equal(Number("1e2"), Number("100")))
	assert.True(t, Equal(Number("1.0"), Number("1")))
	assert.False(t, Equal(Number("1.00000000000000001"), Number("1")))
}

func TestCompare_Objects(t *testing.T) {
	a := NewObject()
	a.Put(String("x"), Number("1"))
	a.Put(String("y"), Number("2"))

	// Same pairs, different insertion order: still equal.
	b := NewObject()
	b.Put(String("y"), Number("2"))
	b.Put(String("x"), Number("1"))

	assert.True(t, Equal(a, b))

	c := NewObject()
	c.Put(String("x"), Number("1"))
	assert.False(t, Equal(a, c))
}

func TestObject_PutKeepsPosition(t *testing.T) {
	o := NewObject()
	o.Put(String("a"), Number("1"))
	o.Put(String("b"), Number("2"))
	o.Put(String("a"), Number("3"))

	keys := o.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, String("a"), keys[0])
	assert.Equal(t, String("b"), keys[1])

	v, ok := o.Get(String("a"))
	require.True(t, ok)
	assert.Equal(t, Number("3"), v)
}

func TestObject_InsertDuplicate(t *testing.T) {
	o := NewObject()
	require.NoError(t, o.Insert(String("a"), Number("1")))
	require.Error(t, o.Insert(String("a"), Number("2")))
}

func TestObject_NonStringKeys(t *testing.T) {
	o := NewObject()
	o.Put(Number("1"), String("one"))
	o.Put(NewArray(Number("1"), Number("2")), String("pair"))

	v, ok := o.Get(Number("1"))
	require.True(t, ok)
	assert.Equal(t, String("one"), v)

	v, ok = o.Get(NewArray(Number("1"), Number("2")))
	require.True(t, ok)
	assert.Equal(t, String("pair"), v)
}

func TestObject_Delete(t *testing.T) {
	o := NewObject()
	o.Put(String("a"), Number("1"))
	o.Put(String("b"), Number("2"))
	o.Put(String("c"), Number("3"))
	o.Delete(String("b"))

	assert.Equal(t, 2, o.Len())
	_, ok := o.Get(String("b"))
	assert.False(t, ok)

	// Index stays consistent after the shift.
	v, ok := o.Get(String("c"))
	require.True(t, ok)
	assert.Equal(t, Number("3"), v)
}

func TestSet_DedupAndOrder(t *testing.T) {
	s := NewSet(Number("3"), Number("1"), Number("3"), Number("2"), Number("1.0"))

	require.Equal(t, 3, s.Len())
	elems := s.Elems()
	assert.Equal(t, Number("1"), elems[0])
	assert.Equal(t, Number("2"), elems[1])
	assert.Equal(t, Number("3"), elems[2])

	assert.True(t, s.Contains(Number("2")))
	assert.True(t, s.Contains(Number("2.0")))
	assert.False(t, s.Contains(Number("4")))
}

func TestEmptyObjectAndSetDistinct(t *testing.T) {
	assert.False(t, Equal(NewObject(), NewSet()))
	assert.Negative(t, Compare(NewObject(), NewSet()))
}

func TestNumber_Int(t *testing.T) {
	i, ok := Number("42").Int()
	require.True(t, ok)
	assert.Equal(t, int64(42), i)

	_, ok = Number("1.5").Int()
	assert.False(t, ok)

	// Wider than int64.
	_, ok = Number("170141183460469231731687303715884105727").Int()
	assert.False(t, ok)
}

func TestFloat_NonFinite(t *testing.T) {
	_, err := Float(1.0)
	require.NoError(t, err)

	inf := 1.0
	for i := 0; i < 2000; i++ {
		inf *= 10
	}
	_, err = Float(inf)
	require.Error(t, err)
}
