package builtins

import (
	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func collectionBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "array.concat", Arity: 2, Fn: builtinArrayConcat},
		{Name: "array.slice", Arity: 3, Fn: builtinArraySlice},
		{Name: "array.reverse", Arity: 1, Fn: builtinArrayReverse},
		{Name: "object.get", Arity: 3, Fn: builtinObjectGet},
		{Name: "object.keys", Arity: 1, Fn: builtinObjectKeys},
		{Name: "object.remove", Arity: 2, Fn: builtinObjectRemove},
		{Name: "object.filter", Arity: 2, Fn: builtinObjectFilter},
		{Name: "object.union", Arity: 2, Fn: builtinObjectUnion},
		{Name: "object.union_n", Arity: 1, Fn: builtinObjectUnionN},
		{Name: "intersection", Arity: 1, Fn: builtinIntersection},
		{Name: "union", Arity: 1, Fn: builtinUnion},
	}
}

func builtinArrayConcat(_ *Context, args []value.Value) (value.Value, error) {
	a, err := arrayOperand("array.concat", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := arrayOperand("array.concat", args, 1)
	if err != nil {
		return nil, err
	}
	out := value.NewArray()
	for _, e := range a.Elems() {
		out.Append(e)
	}
	for _, e := range b.Elems() {
		out.Append(e)
	}
	return out, nil
}

func builtinArraySlice(_ *Context, args []value.Value) (value.Value, error) {
	a, err := arrayOperand("array.slice", args, 0)
	if err != nil {
		return nil, err
	}
	start, err := intOperand("array.slice", args, 1)
	if err != nil {
		return nil, err
	}
	stop, err := intOperand("array.slice", args, 2)
	if err != nil {
		return nil, err
	}
	return a.Slice(int(start), int(stop)), nil
}

func builtinArrayReverse(_ *Context, args []value.Value) (value.Value, error) {
	a, err := arrayOperand("array.reverse", args, 0)
	if err != nil {
		return nil, err
	}
	out := value.NewArray()
	for i := a.Len() - 1; i >= 0; i-- {
		out.Append(a.Elem(i))
	}
	return out, nil
}

func builtinObjectGet(_ *Context, args []value.Value) (value.Value, error) {
	obj, err := objectOperand("object.get", args, 0)
	if err != nil {
		return nil, err
	}
	key := args[1]
	fallback := args[2]

	// An array key is a path into nested objects and arrays.
	if path, ok := key.(*value.Array); ok {
		var cur value.Value = obj
		for _, step := range path.Elems() {
			switch node := cur.(type) {
			case *value.Object:
				v, ok := node.Get(step)
				if !ok {
					return fallback, nil
				}
				cur = v
			case *value.Array:
				i, ok := step.(value.Number)
				if !ok {
					return fallback, nil
				}
				idx, ok := i.Int()
				if !ok || idx < 0 || idx >= int64(node.Len()) {
					return fallback, nil
				}
				cur = node.Elem(int(idx))
			default:
				return fallback, nil
			}
		}
		return cur, nil
	}

	if v, ok := obj.Get(key); ok {
		return v, nil
	}
	return fallback, nil
}

func builtinObjectKeys(_ *Context, args []value.Value) (value.Value, error) {
	obj, err := objectOperand("object.keys", args, 0)
	if err != nil {
		return nil, err
	}
	return value.NewSet(obj.Keys()...), nil
}

func keySet(name string, arg value.Value) (*value.Set, error) {
	switch t := arg.(type) {
	case *value.Set:
		return t, nil
	case *value.Array:
		return value.NewSet(t.Elems()...), nil
	case *value.Object:
		return value.NewSet(t.Keys()...), nil
	}
	return nil, errors.TypeMismatch(name, "operand 2 must be array, set or object, got %s", arg.Kind())
}

func builtinObjectRemove(_ *Context, args []value.Value) (value.Value, error) {
	obj, err := objectOperand("object.remove", args, 0)
	if err != nil {
		return nil, err
	}
	keys, err := keySet("object.remove", args[1])
	if err != nil {
		return nil, err
	}
	out := value.NewObject()
	err = obj.Iter(func(k, v value.Value) error {
		if !keys.Contains(k) {
			out.Put(k, v)
		}
		return nil
	})
	return out, err
}

func builtinObjectFilter(_ *Context, args []value.Value) (value.Value, error) {
	obj, err := objectOperand("object.filter", args, 0)
	if err != nil {
		return nil, err
	}
	keys, err := keySet("object.filter", args[1])
	if err != nil {
		return nil, err
	}
	out := value.NewObject()
	err = obj.Iter(func(k, v value.Value) error {
		if keys.Contains(k) {
			out.Put(k, v)
		}
		return nil
	})
	return out, err
}

// mergeObjects merges b into a recursively, b winning on conflicts.
func mergeObjects(a, b *value.Object) *value.Object {
	out := value.NewObject()
	a.Iter(func(k, v value.Value) error {
		out.Put(k, v)
		return nil
	})
	b.Iter(func(k, v value.Value) error {
		if existing, ok := out.Get(k); ok {
			ao, aok := existing.(*value.Object)
			bo, bok := v.(*value.Object)
			if aok && bok {
				out.Put(k, mergeObjects(ao, bo))
				return nil
			}
		}
		out.Put(k, v)
		return nil
	})
	return out
}

func builtinObjectUnion(_ *Context, args []value.Value) (value.Value, error) {
	a, err := objectOperand("object.union", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := objectOperand("object.union", args, 1)
	if err != nil {
		return nil, err
	}
	return mergeObjects(a, b), nil
}

func builtinObjectUnionN(_ *Context, args []value.Value) (value.Value, error) {
	objs, err := arrayOperand("object.union_n", args, 0)
	if err != nil {
		return nil, err
	}
	// Left-to-right shallow merge: later keys overwrite earlier ones at
	// the top level.
	out := value.NewObject()
	for i := 0; i < objs.Len(); i++ {
		obj, ok := objs.Elem(i).(*value.Object)
		if !ok {
			return nil, errors.TypeMismatch("object.union_n", "operand 1 must be array of objects, found %s", objs.Elem(i).Kind())
		}
		obj.Iter(func(k, v value.Value) error {
			out.Put(k, v)
			return nil
		})
	}
	return out, nil
}

func builtinIntersection(_ *Context, args []value.Value) (value.Value, error) {
	sets, err := setOperand("intersection", args, 0)
	if err != nil {
		return nil, err
	}
	if sets.Len() == 0 {
		return value.NewSet(), nil
	}

	var acc *value.Set
	for _, e := range sets.Elems() {
		s, err := innerSet("intersection", e)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = value.NewSet(s.Elems()...)
			continue
		}
		next := value.NewSet()
		for _, x := range acc.Elems() {
			if s.Contains(x) {
				next.Add(x)
			}
		}
		acc = next
	}
	return acc, nil
}

func builtinUnion(_ *Context, args []value.Value) (value.Value, error) {
	sets, err := setOperand("union", args, 0)
	if err != nil {
		return nil, err
	}
	out := value.NewSet()
	for _, e := range sets.Elems() {
		s, err := innerSet("union", e)
		if err != nil {
			return nil, err
		}
		for _, x := range s.Elems() {
			out.Add(x)
		}
	}
	return out, nil
}

func innerSet(name string, v value.Value) (*value.Set, error) {
	switch t := v.(type) {
	case *value.Set:
		return t, nil
	case *value.Array:
		return value.NewSet(t.Elems()...), nil
	}
	return nil, errors.TypeMismatch(name, "operand 1 must be set of sets, found %s", v.Kind())
}
