package jsondb

import (
	"fmt"
	"log/slog"
	"slices"
)

// IndexedStore is a Store whose records are unique by a primary-key field of
// type K. It maintains a key to position index, so lookups, updates and
// removals by key do not scan the collection.
type IndexedStore[T any, K comparable] struct {
	store *Store[T]
	pk    *field[T]
	index map[K]int
}

// OpenIndexed is Open with a primary key. pkField must name a required
// field of shape whose Go type is K. Loading fails with ErrDuplicateKey if
// the persisted records repeat a key.
func OpenIndexed[T any, K comparable](shape *Shape[T], path string, pkField string, opt Options[T]) (*IndexedStore[T, K], error) {
	if shape == nil {
		return nil, &Error{Kind: ErrConfig, Msg: "nil shape"}
	}
	pk := shape.byName[pkField]
	if pk == nil {
		return nil, &Error{Kind: ErrSchema, Field: pkField, Msg: fmt.Sprintf("primary key not found in %s fields", shape.name)}
	}
	if pk.optional {
		return nil, &Error{Kind: ErrSchema, Field: pkField, Msg: "primary key cannot be optional"}
	}
	var zero T
	if v, ok := pk.value(&zero).(K); !ok {
		return nil, &Error{Kind: ErrSchema, Field: pkField, Msg: fmt.Sprintf("primary key is %T, not %T", pk.value(&zero), v)}
	}

	s, err := newStore(shape, path, opt)
	if err != nil {
		return nil, err
	}
	is := &IndexedStore[T, K]{
		store: s,
		pk:    pk,
		index: make(map[K]int),
	}
	s.validate = is.reindex
	if err := s.Load(); err != nil {
		return nil, err
	}
	return is, nil
}

func (is *IndexedStore[T, K]) key(rec *T) K {
	return is.pk.value(rec).(K)
}

// reindex rebuilds the index for rows, leaving the current one intact on
// failure.
func (is *IndexedStore[T, K]) reindex(rows []T) error {
	index := make(map[K]int, len(rows))
	for i := range rows {
		k := is.key(&rows[i])
		if prev, dup := index[k]; dup {
			return &Error{
				Kind:  ErrDuplicateKey,
				Field: is.pk.name,
				Key:   k,
				Msg:   fmt.Sprintf("records %d and %d share a primary key", prev, i),
			}
		}
		index[k] = i
	}
	is.index = index
	return nil
}

func (is *IndexedStore[T, K]) Shape() *Shape[T] {
	return is.store.shape
}

func (is *IndexedStore[T, K]) Path() string {
	return is.store.path
}

func (is *IndexedStore[T, K]) PrimaryKey() string {
	return is.pk.name
}

func (is *IndexedStore[T, K]) Len() int {
	return is.store.Len()
}

func (is *IndexedStore[T, K]) Has(key K) bool {
	_, ok := is.index[key]
	return ok
}

// Get returns a copy of the record with the given key.
func (is *IndexedStore[T, K]) Get(key K) (T, bool) {
	pos, ok := is.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return is.store.clone(&is.store.rows[pos]), true
}

// Keys returns primary keys in collection order.
func (is *IndexedStore[T, K]) Keys() []K {
	rows := is.store.rows
	out := make([]K, len(rows))
	for i := range rows {
		out[i] = is.key(&rows[i])
	}
	return out
}

// Add appends rec unless its key is already taken, in which case it fails
// with ErrDuplicateKey and nothing changes.
func (is *IndexedStore[T, K]) Add(rec T) (T, error) {
	var zero T
	s := is.store
	stored, err := s.prepare(&rec, true)
	if err != nil {
		return zero, err
	}
	k := is.key(&stored)
	if _, dup := is.index[k]; dup {
		return zero, is.errf(ErrDuplicateKey, k, "already exists")
	}
	if err := s.commit(append(slices.Clip(s.rows), stored)); err != nil {
		return zero, err
	}
	is.index[k] = len(s.rows) - 1
	s.log("added", slog.Any("key", k))
	return s.clone(&stored), nil
}

// Update replaces the record that has rec's key. It fails with ErrNotFound
// if there is none.
func (is *IndexedStore[T, K]) Update(rec T) (T, error) {
	var zero T
	s := is.store
	stored, err := s.prepare(&rec, false)
	if err != nil {
		return zero, err
	}
	k := is.key(&stored)
	pos, ok := is.index[k]
	if !ok {
		return zero, is.errf(ErrNotFound, k, "not found")
	}
	rows := slices.Clone(s.rows)
	rows[pos] = stored
	if err := s.commit(rows); err != nil {
		return zero, err
	}
	s.log("updated", slog.Any("key", k))
	return s.clone(&stored), nil
}

// Remove deletes the record with the given key, preserving the order of the
// rest. It fails with ErrNotFound if there is none.
func (is *IndexedStore[T, K]) Remove(key K) error {
	s := is.store
	pos, ok := is.index[key]
	if !ok {
		return is.errf(ErrNotFound, key, "not found")
	}
	rows := slices.Concat(s.rows[:pos], s.rows[pos+1:])
	if err := s.commit(rows); err != nil {
		return err
	}
	delete(is.index, key)
	for i := pos; i < len(rows); i++ {
		is.index[is.key(&rows[i])] = i
	}
	s.log("removed", slog.Any("key", key))
	return nil
}

// Find is Store.Find, answered from the index when the only criterion is the
// primary key given as a K.
func (is *IndexedStore[T, K]) Find(c Criteria) ([]T, error) {
	if len(c) == 1 {
		if k, ok := c[is.pk.name].(K); ok {
			rec, found := is.Get(k)
			if !found {
				return nil, nil
			}
			return []T{rec}, nil
		}
	}
	return is.store.Find(c)
}

func (is *IndexedStore[T, K]) FindFunc(pred func(rec *T) bool) []T {
	return is.store.FindFunc(pred)
}

func (is *IndexedStore[T, K]) All() []T {
	return is.store.All()
}

func (is *IndexedStore[T, K]) Save() error {
	return is.store.Save()
}

// Load replaces the in-memory collection and index with the persisted ones.
func (is *IndexedStore[T, K]) Load() error {
	return is.store.Load()
}

func (is *IndexedStore[T, K]) errf(kind error, key K, msg string) error {
	return &Error{Kind: kind, Path: is.store.path, Field: is.pk.name, Key: key, Msg: msg}
}
