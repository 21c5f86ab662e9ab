package jsondb

import (
	"time"
)

// Hook observes records on their way into a store. Hooks run on the store's
// private copy of the record, in registration order, before anything is
// persisted; an error aborts the mutation.
type Hook[T any] interface {
	BeforeAdd(rec *T) error
	BeforeUpdate(rec *T) error
}

// HookFuncs adapts plain functions to Hook. Nil functions are skipped.
type HookFuncs[T any] struct {
	Add    func(rec *T) error
	Update func(rec *T) error
}

func (h HookFuncs[T]) BeforeAdd(rec *T) error {
	if h.Add == nil {
		return nil
	}
	return h.Add(rec)
}

func (h HookFuncs[T]) BeforeUpdate(rec *T) error {
	if h.Update == nil {
		return nil
	}
	return h.Update(rec)
}

// Timestamped is implemented by records that carry creation and
// modification times. Embedding Timestamps is the easy way to get it.
type Timestamped interface {
	SetCreatedAt(t time.Time)
	SetUpdatedAt(t time.Time)
}

// TimestampPolicy stamps Timestamped records: both times on add, the
// modification time on update. Other records pass through untouched.
type TimestampPolicy[T any] struct {
	Now func() time.Time
}

func (p TimestampPolicy[T]) BeforeAdd(rec *T) error {
	if ts, ok := any(rec).(Timestamped); ok {
		now := p.now()
		ts.SetCreatedAt(now)
		ts.SetUpdatedAt(now)
	}
	return nil
}

func (p TimestampPolicy[T]) BeforeUpdate(rec *T) error {
	if ts, ok := any(rec).(Timestamped); ok {
		ts.SetUpdatedAt(p.now())
	}
	return nil
}

func (p TimestampPolicy[T]) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

type Timestamps struct {
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (ts *Timestamps) SetCreatedAt(t time.Time) {
	ts.CreatedAt = &t
}

func (ts *Timestamps) SetUpdatedAt(t time.Time) {
	ts.UpdatedAt = &t
}

// TimestampFields declares optional "created_at" and "updated_at" fields
// backed by the Timestamps at ptr(rec).
func TimestampFields[T any](b *ShapeBuilder[T], ptr func(rec *T) *Timestamps) {
	Field(b, "created_at", Optional(Time), func(rec *T) **time.Time { return &ptr(rec).CreatedAt })
	Field(b, "updated_at", Optional(Time), func(rec *T) **time.Time { return &ptr(rec).UpdatedAt })
}
