package jsondb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnreadable   = errors.New("file unreadable")
	ErrMalformed    = errors.New("malformed content")
	ErrDecode       = errors.New("value does not match field kind")
	ErrEncode       = errors.New("value cannot be encoded")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("not found")
	ErrQuery        = errors.New("invalid query")
	ErrSchema       = errors.New("invalid schema")
	ErrConfig       = errors.New("invalid configuration")
	ErrWrite        = errors.New("write failed")
	ErrRejected     = errors.New("rejected by hook")
)

// Error is the only error type returned by this package.
//
// Kind is one of the Err* sentinels; errors.Is(err, ErrNotFound) and friends
// match against it. The remaining fields carry whatever context is known.
type Error struct {
	Kind  error
	Path  string // file path
	Field string // field path within a record, like "items[2].name"
	Key   any    // primary key value
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	var buf strings.Builder
	buf.WriteString("jsondb: ")
	e.format(&buf)
	return buf.String()
}

func (e *Error) format(buf *strings.Builder) {
	if e.Path != "" {
		buf.WriteString(e.Path)
		buf.WriteString(": ")
	}
	if e.Field != "" {
		buf.WriteString(e.Field)
		buf.WriteString(": ")
	}
	if e.Msg != "" {
		buf.WriteString(e.Msg)
	} else if e.Kind != nil {
		buf.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		buf.WriteString(": ")
		if inner, ok := e.Err.(*Error); ok {
			inner.format(buf)
		} else {
			buf.WriteString(e.Err.Error())
		}
	}
	if e.Key != nil {
		fmt.Fprintf(buf, " (key=%v)", e.Key)
	}
}

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func decodeErrf(format string, args ...any) error {
	return &Error{Kind: ErrDecode, Msg: fmt.Sprintf(format, args...)}
}

func encodeErrf(format string, args ...any) error {
	return &Error{Kind: ErrEncode, Msg: fmt.Sprintf(format, args...)}
}

func mismatch(want string, raw any) error {
	return decodeErrf("expected %s, got %s", want, describeRaw(raw))
}

// errorAt prefixes the field path of err with seg, which is either a field
// name or an index/key selector like "[3]".
func errorAt(err error, seg string) error {
	e, ok := err.(*Error)
	if !ok {
		return &Error{Kind: ErrDecode, Field: seg, Err: err}
	}
	e.Field = joinField(seg, e.Field)
	return e
}

func indexSeg(i int) string {
	return fmt.Sprintf("[%d]", i)
}

func keySeg(k string) string {
	return fmt.Sprintf("[%q]", k)
}

func joinField(seg, rest string) string {
	switch {
	case rest == "":
		return seg
	case strings.HasPrefix(rest, "["):
		return seg + rest
	default:
		return seg + "." + rest
	}
}

func withPath(err error, path string) error {
	if e, ok := err.(*Error); ok {
		if e.Path == "" {
			e.Path = path
		}
		return e
	}
	return &Error{Kind: ErrWrite, Path: path, Err: err}
}
