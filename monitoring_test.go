package jsondb

import (
	"strings"
	"testing"
)

func TestStats(t *testing.T) {
	s, st := memItems(t)
	deepEqual(t, s.Stats(), Stats{})
	seedItems(t, s)
	ok(t, s.Remove("1"))

	data := must(st.ReadFile("items.json"))
	deepEqual(t, s.Stats(), Stats{Records: 3, Keys: 3, Saves: 5, FileSize: len(data)})

	plain, _ := memStore(t, itemShape)
	seedItems(t, plain)
	if st := plain.Stats(); st.Keys != 0 || st.Records != 4 || st.Saves != 4 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestDump(t *testing.T) {
	s, _ := memItems(t)
	_, err := s.Add(Item{ID: "a", Name: "A", Price: 1.5, Status: StatusActive})
	ok(t, err)
	_, err = s.Add(Item{ID: "b", Name: "B", Status: StatusPending})
	ok(t, err)

	var buf strings.Builder
	ok(t, s.Dump(&buf, DumpRecords))
	e := `Item[0] = {"id":"a","name":"A","price":1.5,"status":"active"}
Item[1] = {"id":"b","name":"B","price":0,"status":"pending"}
`
	if buf.String() != e {
		t.Errorf("Dump =\n%s\nwanted\n%s", buf.String(), e)
	}

	buf.Reset()
	ok(t, s.Dump(&buf, DumpAll))
	out := buf.String()
	if !strings.Contains(out, "Item (2 records) @ items.json\n") || !strings.Contains(out, "Item.stats: keys = 2, saves = 2,") {
		t.Errorf("Dump(DumpAll) =\n%s", out)
	}
	if !DumpAll.Contains(DumpStats) || DumpRecords.Contains(DumpHeader) {
		t.Errorf("DumpFlags.Contains is broken")
	}
}
