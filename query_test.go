package jsondb

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seedItems(t testing.TB, s interface{ Add(Item) (Item, error) }) {
	t.Helper()
	for _, it := range []Item{
		{ID: "1", Name: "alpha", Price: 10, Status: StatusActive},
		{ID: "2", Name: "beta", Price: 20, Status: StatusInactive},
		{ID: "3", Name: "gamma", Price: 10, Status: StatusActive},
		{ID: "4", Name: "delta", Price: 30, Status: StatusPending},
	} {
		_, err := s.Add(it)
		ok(t, err)
	}
}

func ids(items []Item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestFind(t *testing.T) {
	s, _ := memStore(t, itemShape)
	seedItems(t, s)

	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"enum value", Criteria{"status": StatusActive}, []string{"1", "3"}},
		{"enum stored form", Criteria{"status": "active"}, []string{"1", "3"}},
		{"float", Criteria{"price": 10.0}, []string{"1", "3"}},
		{"float from int form", Criteria{"price": json.Number("10")}, []string{"1", "3"}},
		{"conjunction", Criteria{"status": StatusActive, "name": "gamma"}, []string{"3"}},
		{"no match", Criteria{"name": "omega"}, nil},
		{"contradiction", Criteria{"status": StatusInactive, "price": 10.0}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Find(tt.c)
			ok(t, err)
			deepEqual(t, ids(got), tt.want)
		})
	}
}

func TestFindErrors(t *testing.T) {
	s, _ := memStore(t, itemShape)
	seedItems(t, s)

	_, err := s.Find(nil)
	isErr(t, err, ErrQuery)
	_, err = s.Find(Criteria{})
	isErr(t, err, ErrQuery)

	_, err = s.Find(Criteria{"colour": "red"})
	e := isErr(t, err, ErrQuery)
	if e.Field != "colour" || e.Msg != "not a field of Item" {
		t.Errorf("err = %v", err)
	}

	_, err = s.Find(Criteria{"status": "archived"})
	isErr(t, err, ErrQuery)
	_, err = s.Find(Criteria{"price": "ten"})
	isErr(t, err, ErrQuery)
}

func TestFindCompoundFields(t *testing.T) {
	s, _ := memStore(t, personShape)
	p1 := samplePerson()
	p2 := samplePerson()
	p2.ID = uuid.MustParse("00000000-0000-4000-8000-000000000002")
	p2.Name = "Charles"
	p2.Born = nil
	p2.Tags = nil
	_, err := s.Add(p1)
	ok(t, err)
	_, err = s.Add(p2)
	ok(t, err)

	names := func(ps []Person) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}
	find := func(c Criteria) []string {
		t.Helper()
		got, err := s.Find(c)
		ok(t, err)
		return names(got)
	}

	deepEqual(t, find(Criteria{"id": p2.ID}), []string{"Charles"})
	deepEqual(t, find(Criteria{"id": p2.ID.String()}), []string{"Charles"})
	deepEqual(t, find(Criteria{"born": nil}), []string{"Charles"})
	deepEqual(t, find(Criteria{"born": (*time.Time)(nil)}), []string{"Charles"})
	deepEqual(t, find(Criteria{"born": p1.Born}), []string{"Ada"})
	deepEqual(t, find(Criteria{"born": *p1.Born}), []string{"Ada"})
	deepEqual(t, find(Criteria{"born": "1815-12-10T08:30:00.123456789Z"}), []string{"Ada"})
	deepEqual(t, find(Criteria{"tags": []string{}}), []string{"Charles"})
	deepEqual(t, find(Criteria{"tags": []string{"math", "engines"}}), []string{"Ada"})
	deepEqual(t, find(Criteria{"home": p1.Home}), []string{"Ada", "Charles"})
	deepEqual(t, find(Criteria{"meta": map[string]string{"floor": "2", "dept": "R&D"}}), []string{"Ada", "Charles"})
	deepEqual(t, find(Criteria{"level": LevelHigh, "active": true}), []string{"Ada", "Charles"})
	deepEqual(t, find(Criteria{"level": LevelLow}), nil)
}

func TestEqualTree(t *testing.T) {
	tests := []struct {
		a, b any
		eq   bool
	}{
		{nil, nil, true},
		{nil, "", false},
		{"a", "a", true},
		{int64(1), int64(1), true},
		{int64(1), uint64(1), false},
		{[]any{"a"}, []any{"a"}, true},
		{[]any{"a"}, []any{"a", "b"}, false},
		{[]any{}, "x", false},
		{map[string]any{"k": int64(1)}, map[string]any{"k": int64(1)}, true},
		{map[string]any{"k": int64(1)}, map[string]any{"j": int64(1)}, false},
		{Object{{"a", nil}}, Object{{"a", nil}}, true},
		{Object{{"a", nil}}, Object{{"b", nil}}, false},
		{"x", []any{"x"}, false},
	}
	for _, tt := range tests {
		if got := equalTree(tt.a, tt.b); got != tt.eq {
			t.Errorf("equalTree(%#v, %#v) = %v, wanted %v", tt.a, tt.b, got, tt.eq)
		}
	}
}
