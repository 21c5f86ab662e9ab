package jsondb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Shape is the explicit description of record type T: its fields in
// declaration order, each with a name, a kind and an accessor.
type Shape[T any] struct {
	name   string
	fields []*field[T]
	byName map[string]*field[T]
}

type field[T any] struct {
	name     string
	kind     Descriptor
	optional bool

	encode    func(rec *T) (any, error)
	decode    func(rec *T, raw any) error
	value     func(rec *T) any
	normalize func(v any) (any, error)
}

// FieldInfo describes one field of a shape.
type FieldInfo struct {
	Name string
	Kind Descriptor
}

type ShapeBuilder[T any] struct {
	shape *Shape[T]
}

// DefineShape builds a shape by calling f, which declares fields via Field.
// Declaration errors are programmer errors and panic.
func DefineShape[T any](name string, f func(b *ShapeBuilder[T])) *Shape[T] {
	if name == "" {
		panic("DefineShape: empty name")
	}
	s := &Shape[T]{
		name:   name,
		byName: make(map[string]*field[T]),
	}
	f(&ShapeBuilder[T]{s})
	if len(s.fields) == 0 {
		panic(fmt.Sprintf("DefineShape(%s): no fields", name))
	}
	return s
}

// Field declares a field called name whose value lives at ptr(rec).
func Field[T, V any](b *ShapeBuilder[T], name string, kind Kind[V], ptr func(rec *T) *V) {
	s := b.shape
	if name == "" {
		panic(fmt.Sprintf("DefineShape(%s): empty field name", s.name))
	}
	if kind == nil || ptr == nil {
		panic(fmt.Sprintf("DefineShape(%s): field %s needs a kind and an accessor", s.name, name))
	}
	if s.byName[name] != nil {
		panic(fmt.Sprintf("DefineShape(%s): duplicate field %s", s.name, name))
	}
	fld := &field[T]{
		name:     name,
		kind:     kind,
		optional: kind.Variant() == VariantOptional,
		encode: func(rec *T) (any, error) {
			return kind.encode(*ptr(rec))
		},
		decode: func(rec *T, raw any) error {
			v, err := kind.decode(raw)
			if err != nil {
				return err
			}
			*ptr(rec) = v
			return nil
		},
		value: func(rec *T) any {
			return *ptr(rec)
		},
		normalize: func(x any) (any, error) {
			v, ok := x.(V)
			if !ok {
				if c, isCoercer := kind.(coercer[V]); isCoercer {
					v, ok = c.coerce(x)
				}
			}
			if !ok {
				var err error
				v, err = kind.decode(x)
				if err != nil {
					return nil, err
				}
			}
			return kind.encode(v)
		},
	}
	s.fields = append(s.fields, fld)
	s.byName[name] = fld
}

func (s *Shape[T]) Name() string {
	return s.name
}

func (s *Shape[T]) Fields() []FieldInfo {
	out := make([]FieldInfo, len(s.fields))
	for i, fld := range s.fields {
		out[i] = FieldInfo{fld.name, fld.kind}
	}
	return out
}

func (s *Shape[T]) Lookup(name string) (FieldInfo, bool) {
	fld := s.byName[name]
	if fld == nil {
		return FieldInfo{}, false
	}
	return FieldInfo{fld.name, fld.kind}, true
}

// Encode converts rec into its value tree.
func (s *Shape[T]) Encode(rec *T) (Object, error) {
	return s.encode(rec)
}

// Decode builds a record from a value tree: an Object or a map[string]any
// as produced by encoding/json. Keys that are not fields are ignored.
func (s *Shape[T]) Decode(raw any) (T, error) {
	return s.decode(raw)
}

func (s *Shape[T]) Marshal(rec *T) ([]byte, error) {
	obj, err := s.encode(rec)
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

func (s *Shape[T]) Unmarshal(data []byte) (T, error) {
	var zero T
	raw, err := parseJSON(data)
	if err != nil {
		return zero, err
	}
	return s.decode(raw)
}

// Clone returns a deep copy of rec. Records implementing Cloner are copied
// by their Clone method; the rest go through an encode/decode round trip.
func (s *Shape[T]) Clone(rec *T) (T, error) {
	if c, ok := any(rec).(Cloner[T]); ok {
		return c.Clone(), nil
	}
	obj, err := s.encode(rec)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.decode(obj)
}

// coercer is implemented by kinds that accept more Go types than V in
// criteria.
type coercer[V any] interface {
	coerce(x any) (V, bool)
}

// Cloner is implemented by records that know how to deep-copy themselves.
type Cloner[T any] interface {
	Clone() T
}

func (s *Shape[T]) encode(rec *T) (Object, error) {
	obj := make(Object, len(s.fields))
	for i, fld := range s.fields {
		v, err := fld.encode(rec)
		if err != nil {
			return nil, errorAt(err, fld.name)
		}
		obj[i] = Member{fld.name, v}
	}
	return obj, nil
}

func (s *Shape[T]) decode(raw any) (T, error) {
	var rec T
	get, err := memberLookup(raw)
	if err != nil {
		return rec, err
	}
	for _, fld := range s.fields {
		v, ok := get(fld.name)
		if !ok {
			if fld.optional {
				continue
			}
			return rec, errorAt(decodeErrf("missing required field of %s", s.name), fld.name)
		}
		if err := fld.decode(&rec, v); err != nil {
			return rec, errorAt(err, fld.name)
		}
	}
	return rec, nil
}

func memberLookup(raw any) (func(name string) (any, bool), error) {
	switch raw := raw.(type) {
	case Object:
		return raw.Get, nil
	case map[string]any:
		return func(name string) (any, bool) {
			v, ok := raw[name]
			return v, ok
		}, nil
	default:
		return nil, mismatch("object", raw)
	}
}

func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if err == io.EOF {
			return nil, &Error{Kind: ErrMalformed, Msg: "empty content"}
		}
		return nil, &Error{Kind: ErrMalformed, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &Error{Kind: ErrMalformed, Msg: "trailing data after the top-level value"}
	}
	return v, nil
}
