package jsondb

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type Stats struct {
	Records int
	Keys    int // entries in the primary-key index, zero for plain stores

	Saves    int // successful writes since open
	FileSize int // bytes of the last file read or written
}

func (s *Store[T]) Stats() Stats {
	return Stats{
		Records:  len(s.rows),
		Saves:    s.saves,
		FileSize: s.fileSize,
	}
}

func (is *IndexedStore[T, K]) Stats() Stats {
	st := is.store.Stats()
	st.Keys = len(is.index)
	return st
}

type DumpFlags uint64

const (
	DumpHeader = DumpFlags(1 << iota)
	DumpStats
	DumpRecords

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var dumpSep = strings.Repeat("=", 80)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump writes a human-readable listing of the store, one record per line.
func (s *Store[T]) Dump(w io.Writer, f DumpFlags) error {
	return s.dump(w, f, s.Stats())
}

func (is *IndexedStore[T, K]) Dump(w io.Writer, f DumpFlags) error {
	return is.store.dump(w, f, is.Stats())
}

func (s *Store[T]) dump(w io.Writer, f DumpFlags, st Stats) error {
	prefix := s.shape.name
	if f.Contains(DumpHeader) {
		fmt.Fprintln(w, dumpSep)
		fmt.Fprintf(w, "%s (%d records) @ %s\n", prefix, st.Records, s.path)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: keys = %d, saves = %d, file_size = %d\n", prefix, st.Keys, st.Saves, st.FileSize)
	}
	if f.Contains(DumpRecords) {
		for i := range s.rows {
			obj, err := s.shape.encode(&s.rows[i])
			if err != nil {
				return withPath(errorAt(err, indexSeg(i)), s.path)
			}
			data, err := json.Marshal(obj)
			if err != nil {
				return &Error{Kind: ErrEncode, Path: s.path, Field: indexSeg(i), Err: err}
			}
			if _, err := fmt.Fprintf(w, "%s[%d] = %s\n", prefix, i, data); err != nil {
				return err
			}
		}
	}
	return nil
}
