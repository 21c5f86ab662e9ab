package jsondb

import (
	"bytes"
	"io/fs"
	"sync"
)

// MemStorage keeps files in memory. Intended for tests.
type MemStorage struct {
	mu       sync.Mutex
	files    map[string][]byte
	writes   int
	writeErr error
}

func NewMemStorage() *MemStorage {
	return &MemStorage{files: make(map[string][]byte)}
}

func (st *MemStorage) ReadFile(path string) ([]byte, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	data, ok := st.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return bytes.Clone(data), nil
}

func (st *MemStorage) WriteFile(path string, data []byte) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.writeErr != nil {
		return st.writeErr
	}
	st.files[path] = append([]byte{}, data...)
	st.writes++
	return nil
}

// FailWrites makes every following WriteFile return err without touching
// the stored content. Pass nil to resume normal operation.
func (st *MemStorage) FailWrites(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.writeErr = err
}

// Writes returns the number of successful writes so far.
func (st *MemStorage) Writes() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.writes
}

func (st *MemStorage) Has(path string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.files[path]
	return ok
}
