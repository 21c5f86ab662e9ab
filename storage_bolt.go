package jsondb

import (
	"bytes"
	"io/fs"
	"time"

	"go.etcd.io/bbolt"
)

var boltFilesBucket = []byte("files")

// BoltStorage keeps files as values of a Bolt bucket, keyed by path. Each
// WriteFile is a single Bolt transaction.
type BoltStorage struct {
	db *bbolt.DB
}

func OpenBoltStorage(path string) (*BoltStorage, error) {
	db, err := bbolt.Open(path, 0o666, &bbolt.Options{
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return NewBoltStorage(db), nil
}

func NewBoltStorage(db *bbolt.DB) *BoltStorage {
	return &BoltStorage{db: db}
}

func (st *BoltStorage) DB() *bbolt.DB {
	return st.db
}

func (st *BoltStorage) Close() error {
	return st.db.Close()
}

func (st *BoltStorage) ReadFile(path string) ([]byte, error) {
	var data []byte
	err := st.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltFilesBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(path)); v != nil {
			data = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return data, nil
}

func (st *BoltStorage) WriteFile(path string, data []byte) error {
	return st.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(boltFilesBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(path), data)
	})
}
