package jsondb

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"slices"
	"time"
)

type Options[T any] struct {
	// Storage defaults to OSStorage.
	Storage  Storage
	Encoding Encoding

	// Lenient accepts comments and trailing commas in JSON files. Saved
	// files are always standard JSON.
	Lenient bool

	// Compact writes JSON on a single line instead of indenting by two spaces.
	Compact bool

	// Logger defaults to slog.Default(). Mutations are logged at debug level,
	// or at info level with Verbose.
	Logger  *slog.Logger
	Verbose bool

	// NoTimestamps disables the built-in TimestampPolicy.
	NoTimestamps bool
	Now          func() time.Time

	// Hooks run after the timestamp policy.
	Hooks []Hook[T]
}

// Store is an ordered collection of records persisted as one file. The whole
// collection is held in memory and written back in full after every change.
//
// Records are copied on the way in and on the way out, so callers never
// share memory with the store. A Store does no locking.
type Store[T any] struct {
	shape    *Shape[T]
	path     string
	storage  Storage
	enc      Encoding
	lenient  bool
	indent   string
	logger   *slog.Logger
	logLevel slog.Level
	hooks    []Hook[T]

	rows []T

	// validate runs on freshly read records before they replace the
	// current ones.
	validate func(rows []T) error

	saves    int
	fileSize int
}

// Open creates a store bound to path and loads the records persisted there.
// A missing file yields an empty store; no file is created until the first
// change.
func Open[T any](shape *Shape[T], path string, opt Options[T]) (*Store[T], error) {
	s, err := newStore(shape, path, opt)
	if err != nil {
		return nil, err
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore[T any](shape *Shape[T], path string, opt Options[T]) (*Store[T], error) {
	if shape == nil {
		return nil, &Error{Kind: ErrConfig, Msg: "nil shape"}
	}
	if path == "" {
		return nil, &Error{Kind: ErrConfig, Msg: "empty path"}
	}
	if opt.Encoding != JSON && opt.Encoding != MsgPack {
		return nil, &Error{Kind: ErrConfig, Path: path, Msg: "unsupported encoding " + opt.Encoding.String()}
	}
	s := &Store[T]{
		shape:    shape,
		path:     path,
		storage:  opt.Storage,
		enc:      opt.Encoding,
		lenient:  opt.Lenient,
		indent:   "  ",
		logger:   opt.Logger,
		logLevel: slog.LevelDebug,
		rows:     []T{},
	}
	if s.storage == nil {
		s.storage = OSStorage{}
	}
	if opt.Compact {
		s.indent = ""
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if opt.Verbose {
		s.logLevel = slog.LevelInfo
	}
	if !opt.NoTimestamps {
		s.hooks = append(s.hooks, TimestampPolicy[T]{Now: opt.Now})
	}
	s.hooks = append(s.hooks, opt.Hooks...)
	return s, nil
}

func (s *Store[T]) Shape() *Shape[T] {
	return s.shape
}

func (s *Store[T]) Path() string {
	return s.path
}

func (s *Store[T]) Len() int {
	return len(s.rows)
}

// Add appends a copy of rec and persists the collection. It returns the
// record as stored, after hooks ran.
func (s *Store[T]) Add(rec T) (T, error) {
	var zero T
	stored, err := s.prepare(&rec, true)
	if err != nil {
		return zero, err
	}
	if err := s.commit(append(slices.Clip(s.rows), stored)); err != nil {
		return zero, err
	}
	s.log("added", slog.Int("pos", len(s.rows)-1))
	return s.clone(&stored), nil
}

// All returns copies of every record in collection order.
func (s *Store[T]) All() []T {
	out := make([]T, len(s.rows))
	for i := range s.rows {
		out[i] = s.clone(&s.rows[i])
	}
	return out
}

// FindFunc returns copies of the records for which pred returns true. pred
// must not modify the record it is given.
func (s *Store[T]) FindFunc(pred func(rec *T) bool) []T {
	var out []T
	for i := range s.rows {
		if pred(&s.rows[i]) {
			out = append(out, s.clone(&s.rows[i]))
		}
	}
	return out
}

// Save persists the current collection.
func (s *Store[T]) Save() error {
	return s.write(s.rows)
}

// Load replaces the in-memory collection with the persisted one. On failure
// the current records stay as they were.
func (s *Store[T]) Load() error {
	rows, size, err := s.read()
	if err != nil {
		return err
	}
	if s.validate != nil {
		if err := s.validate(rows); err != nil {
			return withPath(err, s.path)
		}
	}
	s.rows = rows
	s.fileSize = size
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "jsondb: loaded", slog.String("path", s.path), slog.Int("records", len(rows)), slog.Int("bytes", size))
	return nil
}

func (s *Store[T]) read() ([]T, int, error) {
	data, err := s.storage.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, 0, nil
	} else if err != nil {
		return nil, 0, &Error{Kind: ErrUnreadable, Path: s.path, Err: err}
	}
	raws, err := ParseRecords(data, s.enc, s.lenient)
	if err != nil {
		return nil, 0, withPath(err, s.path)
	}
	rows := make([]T, len(raws))
	for i, raw := range raws {
		rec, err := s.shape.decode(raw)
		if err != nil {
			return nil, 0, &Error{
				Kind:  ErrMalformed,
				Path:  s.path,
				Field: indexSeg(i),
				Msg:   "record does not match " + s.shape.name,
				Err:   err,
			}
		}
		rows[i] = rec
	}
	return rows, len(data), nil
}

// prepare returns the private copy of rec that will be stored, with hooks
// applied.
func (s *Store[T]) prepare(rec *T, adding bool) (T, error) {
	c, err := s.shape.Clone(rec)
	if err != nil {
		return c, withPath(err, s.path)
	}
	for _, h := range s.hooks {
		if adding {
			err = h.BeforeAdd(&c)
		} else {
			err = h.BeforeUpdate(&c)
		}
		if err != nil {
			return c, &Error{Kind: ErrRejected, Path: s.path, Err: err}
		}
	}
	return c, nil
}

// commit persists rows and, only if that succeeds, makes them current.
func (s *Store[T]) commit(rows []T) error {
	if err := s.write(rows); err != nil {
		return err
	}
	s.rows = rows
	return nil
}

func (s *Store[T]) write(rows []T) error {
	objs := make([]Object, len(rows))
	for i := range rows {
		obj, err := s.shape.encode(&rows[i])
		if err != nil {
			return withPath(errorAt(err, indexSeg(i)), s.path)
		}
		objs[i] = obj
	}
	data, err := s.enc.marshal(objs, s.indent)
	if err != nil {
		return &Error{Kind: ErrEncode, Path: s.path, Err: err}
	}
	if err := s.storage.WriteFile(s.path, data); err != nil {
		return &Error{Kind: ErrWrite, Path: s.path, Err: err}
	}
	s.saves++
	s.fileSize = len(data)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "jsondb: saved", slog.String("path", s.path), slog.Int("records", len(rows)), slog.Int("bytes", len(data)))
	return nil
}

func (s *Store[T]) clone(rec *T) T {
	return must(s.shape.Clone(rec))
}

func (s *Store[T]) log(msg string, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("path", s.path))
	s.logger.LogAttrs(context.Background(), s.logLevel, "jsondb: "+msg, attrs...)
}
