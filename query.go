package jsondb

import (
	"fmt"
)

// Criteria maps field names to expected values. A record matches when every
// named field equals its expected value. Values may be given either as the
// field's Go type or in encoded form (a UUID as a string, an enum by its
// stored value, a time as an RFC 3339 string); equality is decided on the
// encoded form.
type Criteria map[string]any

type query[T any] struct {
	terms []term[T]
}

type term[T any] struct {
	field *field[T]
	want  any
}

func (s *Shape[T]) compile(c Criteria) (*query[T], error) {
	if len(c) == 0 {
		return nil, &Error{Kind: ErrQuery, Msg: "at least one criterion is required, use All to list every record"}
	}
	q := &query[T]{terms: make([]term[T], 0, len(c))}
	for _, name := range sortedKeys(c) {
		fld := s.byName[name]
		if fld == nil {
			return nil, &Error{Kind: ErrQuery, Field: name, Msg: fmt.Sprintf("not a field of %s", s.name)}
		}
		want, err := fld.normalize(c[name])
		if err != nil {
			return nil, &Error{Kind: ErrQuery, Field: name, Msg: fmt.Sprintf("value does not fit %s", fld.kind), Err: err}
		}
		q.terms = append(q.terms, term[T]{fld, want})
	}
	return q, nil
}

func (q *query[T]) match(rec *T) (bool, error) {
	for _, t := range q.terms {
		got, err := t.field.encode(rec)
		if err != nil {
			return false, errorAt(err, t.field.name)
		}
		if !equalTree(got, t.want) {
			return false, nil
		}
	}
	return true, nil
}

// Find returns copies of the records matching every criterion, in collection
// order. Empty criteria are rejected; use All instead.
func (s *Store[T]) Find(c Criteria) ([]T, error) {
	q, err := s.shape.compile(c)
	if err != nil {
		return nil, err
	}
	var out []T
	for i := range s.rows {
		ok, err := q.match(&s.rows[i])
		if err != nil {
			return nil, withPath(err, s.path)
		}
		if ok {
			out = append(out, s.clone(&s.rows[i]))
		}
	}
	return out, nil
}
