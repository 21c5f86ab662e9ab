package jsondb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tailscale/hujson"
	"github.com/vmihailenco/msgpack/v5"
)

// Encoding selects the on-disk representation of a collection.
type Encoding int

const (
	JSON Encoding = iota
	MsgPack
)

func (enc Encoding) String() string {
	switch enc {
	case JSON:
		return "json"
	case MsgPack:
		return "msgpack"
	default:
		return fmt.Sprintf("Encoding(%d)", int(enc))
	}
}

// Object is an encoded record: its members in field declaration order.
type Object []Member

type Member struct {
	Name  string
	Value any
}

func (o Object) Get(name string) (any, bool) {
	for _, m := range o {
		if m.Name == name {
			return m.Value, true
		}
	}
	return nil, false
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o Object) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(o)); err != nil {
		return err
	}
	for _, m := range o {
		if err := enc.EncodeString(m.Name); err != nil {
			return err
		}
		if err := enc.Encode(m.Value); err != nil {
			return err
		}
	}
	return nil
}

func (enc Encoding) marshal(objs []Object, indent string) ([]byte, error) {
	if objs == nil {
		objs = []Object{}
	}
	switch enc {
	case JSON:
		if indent == "" {
			return json.Marshal(objs)
		}
		data, err := json.MarshalIndent(objs, "", indent)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case MsgPack:
		var buf bytes.Buffer
		e := msgpack.GetEncoder()
		e.Reset(&buf)
		e.SetSortMapKeys(true)
		err := e.Encode(objs)
		msgpack.PutEncoder(e)
		if err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		panic("unsupported encoding")
	}
}

// ParseRecords parses persisted collection content into one raw value tree
// per record. With lenient set, JSON input may contain comments and trailing
// commas. Content that is not a single array is ErrMalformed.
func ParseRecords(data []byte, enc Encoding, lenient bool) ([]any, error) {
	var top any
	switch enc {
	case JSON:
		if lenient {
			std, err := hujson.Standardize(bytes.Clone(data))
			if err != nil {
				return nil, &Error{Kind: ErrMalformed, Err: err}
			}
			data = std
		}
		v, err := parseJSON(data)
		if err != nil {
			return nil, err
		}
		top = v
	case MsgPack:
		if len(data) == 0 {
			return nil, &Error{Kind: ErrMalformed, Msg: "empty content"}
		}
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, &Error{Kind: ErrMalformed, Err: err}
		}
		if _, err := dec.PeekCode(); err != io.EOF {
			return nil, &Error{Kind: ErrMalformed, Msg: "trailing data after the top-level value"}
		}
		top = v
	default:
		return nil, &Error{Kind: ErrConfig, Msg: fmt.Sprintf("unsupported encoding %v", enc)}
	}
	items, ok := top.([]any)
	if !ok {
		return nil, &Error{Kind: ErrMalformed, Msg: fmt.Sprintf("top-level value is %s, not an array", describeRaw(top))}
	}
	return items, nil
}
