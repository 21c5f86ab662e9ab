package jsondb

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// Storage reads and writes whole files by path.
type Storage interface {
	// ReadFile returns the content at path, or an error satisfying
	// errors.Is(err, fs.ErrNotExist) when nothing was ever written there.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the content at path. Implementations must never
	// leave partially written content visible to ReadFile.
	WriteFile(path string, data []byte) error
}

// OSStorage keeps files on the local file system. Writes go to a temporary
// file in the same directory which is then renamed over the target.
type OSStorage struct {
	// Perm is applied to written files; zero means 0644.
	Perm fs.FileMode
}

func (OSStorage) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (st OSStorage) WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	perm := st.Perm
	if perm == 0 {
		perm = 0o644
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()
	if _, err = f.Write(data); err != nil {
		return err
	}
	// the mode must be final before the file becomes visible under path
	if err = f.Chmod(perm); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return atomic.ReplaceFile(tmp, path)
}
