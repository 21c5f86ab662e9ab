package jsondb

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

type (
	Status string
	Level  uint8

	Item struct {
		ID     string
		Name   string
		Price  float64
		Status Status
	}

	Address struct {
		Street string
		City   string
		Zip    *string
	}

	Person struct {
		ID      uuid.UUID
		Name    string
		Age     int
		Born    *time.Time
		Tags    []string
		Meta    map[string]string
		Home    Address
		Offices []Address
		Active  bool
		Level   Level
		Score   *float64
	}

	Note struct {
		ID   int64
		Text string
		Timestamps
	}
)

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"

	LevelLow  Level = 1
	LevelMid  Level = 5
	LevelHigh Level = 10
)

var (
	statusKind = StringEnum("Status", StatusActive, StatusInactive, StatusPending)
	levelKind  = IntEnum("Level", LevelLow, LevelMid, LevelHigh)

	itemShape = DefineShape("Item", func(b *ShapeBuilder[Item]) {
		Field(b, "id", String, func(r *Item) *string { return &r.ID })
		Field(b, "name", String, func(r *Item) *string { return &r.Name })
		Field(b, "price", Float64, func(r *Item) *float64 { return &r.Price })
		Field(b, "status", statusKind, func(r *Item) *Status { return &r.Status })
	})

	addressShape = DefineShape("Address", func(b *ShapeBuilder[Address]) {
		Field(b, "street", String, func(r *Address) *string { return &r.Street })
		Field(b, "city", String, func(r *Address) *string { return &r.City })
		Field(b, "zip", Optional(String), func(r *Address) **string { return &r.Zip })
	})

	personShape = DefineShape("Person", func(b *ShapeBuilder[Person]) {
		Field(b, "id", UUID, func(r *Person) *uuid.UUID { return &r.ID })
		Field(b, "name", String, func(r *Person) *string { return &r.Name })
		Field(b, "age", Int, func(r *Person) *int { return &r.Age })
		Field(b, "born", Optional(Time), func(r *Person) **time.Time { return &r.Born })
		Field(b, "tags", SliceOf(String), func(r *Person) *[]string { return &r.Tags })
		Field(b, "meta", MapOf(String), func(r *Person) *map[string]string { return &r.Meta })
		Field(b, "home", Nested(addressShape), func(r *Person) *Address { return &r.Home })
		Field(b, "offices", SliceOf(Nested(addressShape)), func(r *Person) *[]Address { return &r.Offices })
		Field(b, "active", Bool, func(r *Person) *bool { return &r.Active })
		Field(b, "level", levelKind, func(r *Person) *Level { return &r.Level })
		Field(b, "score", Optional(Float64), func(r *Person) **float64 { return &r.Score })
	})

	noteShape = DefineShape("Note", func(b *ShapeBuilder[Note]) {
		Field(b, "id", Int64, func(r *Note) *int64 { return &r.ID })
		Field(b, "text", String, func(r *Note) *string { return &r.Text })
		TimestampFields(b, func(r *Note) *Timestamps { return &r.Timestamps })
	})
)

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func ptr[T any](v T) *T {
	return &v
}

func samplePerson() Person {
	return Person{
		ID:   uuid.MustParse("6f1c2a3e-8d4b-4c5a-9e7f-0a1b2c3d4e5f"),
		Name: "Ada",
		Age:  36,
		Born: ptr(time.Date(1815, 12, 10, 8, 30, 0, 123456789, time.UTC)),
		Tags: []string{"math", "engines"},
		Meta: map[string]string{"dept": "R&D", "floor": "2"},
		Home: Address{Street: "1 St James's Sq", City: "London", Zip: ptr("SW1Y")},
		Offices: []Address{
			{Street: "Somerset House", City: "London"},
		},
		Active: true,
		Level:  LevelHigh,
	}
}

func memStore[T any](t testing.TB, shape *Shape[T]) (*Store[T], *MemStorage) {
	t.Helper()
	st := NewMemStorage()
	s, err := Open(shape, "db.json", Options[T]{Storage: st})
	ok(t, err)
	return s, st
}

func memItems(t testing.TB) (*IndexedStore[Item, string], *MemStorage) {
	t.Helper()
	st := NewMemStorage()
	s, err := OpenIndexed[Item, string](itemShape, "items.json", "id", Options[Item]{Storage: st})
	ok(t, err)
	return s, st
}

func tempPath(t testing.TB) string {
	return filepath.Join(t.TempDir(), "db.json")
}

func deepEqual[T any](t testing.TB, a, e T) {
	if diff := cmp.Diff(e, a); diff != "" {
		t.Helper()
		t.Errorf("** mismatch (-wanted +got):\n%s", diff)
	}
}

func ok(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("** unexpected error: %v", err)
	}
}

func isErr(t testing.TB, err, kind error) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("** err = nil, wanted %v", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("** err = %v, wanted %v", err, kind)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("** err = %T, wanted *Error", err)
	}
	return e
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	fn()
}
