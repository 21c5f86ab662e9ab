package jsondb

import (
	"slices"
)

type optionalKind[V any] struct {
	elem Kind[V]
}

// Optional makes a kind nullable. nil encodes as JSON null, and both null and
// an absent key decode to nil.
func Optional[V any](elem Kind[V]) Kind[*V] {
	if elem == nil {
		panic("Optional: nil element kind")
	}
	return optionalKind[V]{elem}
}

func (k optionalKind[V]) Variant() Variant  { return VariantOptional }
func (k optionalKind[V]) String() string    { return "optional<" + k.elem.String() + ">" }
func (k optionalKind[V]) Elem() Descriptor  { return k.elem }
func (optionalKind[V]) Members() []any      { return nil }
func (optionalKind[V]) Fields() []FieldInfo { return nil }

func (k optionalKind[V]) encode(p *V) (any, error) {
	if p == nil {
		return nil, nil
	}
	return k.elem.encode(*p)
}

func (k optionalKind[V]) decode(raw any) (*V, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := k.elem.decode(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// coerce lets criteria name an optional value by its element type.
func (k optionalKind[V]) coerce(x any) (*V, bool) {
	if v, ok := x.(V); ok {
		return &v, true
	}
	return nil, false
}

type sliceKind[V any] struct {
	elem Kind[V]
}

// SliceOf is an ordered sequence of elem. A nil slice encodes as an empty
// array; decoding always yields a non-nil slice.
func SliceOf[V any](elem Kind[V]) Kind[[]V] {
	if elem == nil {
		panic("SliceOf: nil element kind")
	}
	return sliceKind[V]{elem}
}

func (k sliceKind[V]) Variant() Variant  { return VariantSequence }
func (k sliceKind[V]) String() string    { return "sequence<" + k.elem.String() + ">" }
func (k sliceKind[V]) Elem() Descriptor  { return k.elem }
func (sliceKind[V]) Members() []any      { return nil }
func (sliceKind[V]) Fields() []FieldInfo { return nil }

func (k sliceKind[V]) encode(vs []V) (any, error) {
	out := make([]any, len(vs))
	for i, v := range vs {
		enc, err := k.elem.encode(v)
		if err != nil {
			return nil, errorAt(err, indexSeg(i))
		}
		out[i] = enc
	}
	return out, nil
}

func (k sliceKind[V]) decode(raw any) ([]V, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, mismatch("array", raw)
	}
	out := make([]V, len(items))
	for i, item := range items {
		v, err := k.elem.decode(item)
		if err != nil {
			return nil, errorAt(err, indexSeg(i))
		}
		out[i] = v
	}
	return out, nil
}

type mapKind[V any] struct {
	elem Kind[V]
}

// MapOf is a string-keyed map of elem, persisted as a JSON object with keys
// in sorted order.
func MapOf[V any](elem Kind[V]) Kind[map[string]V] {
	if elem == nil {
		panic("MapOf: nil element kind")
	}
	return mapKind[V]{elem}
}

func (k mapKind[V]) Variant() Variant  { return VariantMap }
func (k mapKind[V]) String() string    { return "map<" + k.elem.String() + ">" }
func (k mapKind[V]) Elem() Descriptor  { return k.elem }
func (mapKind[V]) Members() []any      { return nil }
func (mapKind[V]) Fields() []FieldInfo { return nil }

func (k mapKind[V]) encode(m map[string]V) (any, error) {
	out := make(map[string]any, len(m))
	for _, key := range sortedKeys(m) {
		enc, err := k.elem.encode(m[key])
		if err != nil {
			return nil, errorAt(err, keySeg(key))
		}
		out[key] = enc
	}
	return out, nil
}

func (k mapKind[V]) decode(raw any) (map[string]V, error) {
	switch raw := raw.(type) {
	case map[string]any:
		out := make(map[string]V, len(raw))
		for _, key := range sortedKeys(raw) {
			v, err := k.elem.decode(raw[key])
			if err != nil {
				return nil, errorAt(err, keySeg(key))
			}
			out[key] = v
		}
		return out, nil
	case Object:
		out := make(map[string]V, len(raw))
		for _, m := range raw {
			v, err := k.elem.decode(m.Value)
			if err != nil {
				return nil, errorAt(err, keySeg(m.Name))
			}
			out[m.Name] = v
		}
		return out, nil
	default:
		return nil, mismatch("object", raw)
	}
}

type nestedKind[V any] struct {
	shape *Shape[V]
}

// Nested embeds a record of another shape, persisted as a JSON object.
func Nested[V any](shape *Shape[V]) Kind[V] {
	if shape == nil {
		panic("Nested: nil shape")
	}
	return nestedKind[V]{shape}
}

func (k nestedKind[V]) Variant() Variant    { return VariantNested }
func (k nestedKind[V]) String() string      { return k.shape.name }
func (nestedKind[V]) Elem() Descriptor      { return nil }
func (nestedKind[V]) Members() []any        { return nil }
func (k nestedKind[V]) Fields() []FieldInfo { return k.shape.Fields() }

func (k nestedKind[V]) encode(v V) (any, error) {
	obj, err := k.shape.encode(&v)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (k nestedKind[V]) decode(raw any) (V, error) {
	return k.shape.decode(raw)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
