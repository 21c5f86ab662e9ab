package jsondb

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Variant int

const (
	VariantString Variant = iota + 1
	VariantInteger
	VariantFloat
	VariantBool
	VariantUUID
	VariantEnum
	VariantTime
	VariantOptional
	VariantSequence
	VariantMap
	VariantNested
)

var variantNames = [...]string{"", "string", "integer", "float", "bool", "uuid", "enum", "time", "optional", "sequence", "map", "nested"}

func (v Variant) String() string {
	if v > 0 && int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// Descriptor is the untyped view of a field kind.
type Descriptor interface {
	Variant() Variant
	String() string

	// Elem returns the element kind of optional, sequence and map kinds.
	Elem() Descriptor

	// Members returns the stored values of an enum kind, in declaration order.
	Members() []any

	// Fields returns the fields of a nested kind.
	Fields() []FieldInfo
}

// Kind describes how values of type V are encoded into a JSON value tree and
// decoded back. The set of kinds is closed; use the constructors in this
// package.
type Kind[V any] interface {
	Descriptor
	encode(v V) (any, error)
	decode(raw any) (V, error)
}

type IntegerValue interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type FloatValue interface {
	~float32 | ~float64
}

var (
	String  = Text[string]()
	Int     = Integer[int]()
	Int64   = Integer[int64]()
	Float64 = Real[float64]()
	Bool    = Boolean[bool]()

	UUID Kind[uuid.UUID] = uuidKind{scalarKind{VariantUUID, "uuid"}}
	Time Kind[time.Time] = timeKind{scalarKind{VariantTime, "time"}}
)

type scalarKind struct {
	variant Variant
	name    string
}

func (k scalarKind) Variant() Variant  { return k.variant }
func (k scalarKind) String() string    { return k.name }
func (scalarKind) Elem() Descriptor    { return nil }
func (scalarKind) Members() []any      { return nil }
func (scalarKind) Fields() []FieldInfo { return nil }

type textKind[V ~string] struct{ scalarKind }

func Text[V ~string]() Kind[V] {
	return textKind[V]{scalarKind{VariantString, "string"}}
}

func (textKind[V]) encode(v V) (any, error) {
	return string(v), nil
}

func (textKind[V]) decode(raw any) (V, error) {
	s, ok := raw.(string)
	if !ok {
		return "", mismatch("string", raw)
	}
	return V(s), nil
}

type intKind[V IntegerValue] struct{ scalarKind }

func Integer[V IntegerValue]() Kind[V] {
	return intKind[V]{scalarKind{VariantInteger, "integer"}}
}

func isSigned[V IntegerValue]() bool {
	var zero V
	return zero-1 < zero
}

func (intKind[V]) encode(v V) (any, error) {
	if isSigned[V]() {
		return int64(v), nil
	}
	return uint64(v), nil
}

func (intKind[V]) decode(raw any) (V, error) {
	if isSigned[V]() {
		n, err := toInt64(raw)
		if err != nil {
			return 0, err
		}
		v := V(n)
		if int64(v) != n {
			return 0, decodeErrf("%d overflows %T", n, v)
		}
		return v, nil
	}
	n, err := toUint64(raw)
	if err != nil {
		return 0, err
	}
	v := V(n)
	if uint64(v) != n {
		return 0, decodeErrf("%d overflows %T", n, v)
	}
	return v, nil
}

// 2^63 as a float64; anything at or above it does not fit int64.
const twoTo63 = 9223372036854775808.0

func toInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return toInt64(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, decodeErrf("%d is out of range", n)
		}
		return int64(n), nil
	case float32:
		return toInt64(float64(n))
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, decodeErrf("expected integer, got %v", n)
		}
		if n < -twoTo63 || n >= twoTo63 {
			return 0, decodeErrf("%v is out of range", n)
		}
		return int64(n), nil
	case json.Number:
		if v, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return v, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, decodeErrf("%s is out of range", n)
		}
		return toInt64(f)
	default:
		return 0, mismatch("integer", raw)
	}
}

func toUint64(raw any) (uint64, error) {
	switch n := raw.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case float32:
		return toUint64(float64(n))
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, decodeErrf("expected integer, got %v", n)
		}
		if n < 0 || n >= 2*twoTo63 {
			return 0, decodeErrf("%v is out of range", n)
		}
		return uint64(n), nil
	case json.Number:
		if v, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return v, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, decodeErrf("%s is out of range", n)
		}
		return toUint64(f)
	default:
		v, err := toInt64(raw)
		if err != nil {
			return 0, err
		}
		if v < 0 {
			return 0, decodeErrf("%d is negative", v)
		}
		return uint64(v), nil
	}
}

type floatKind[V FloatValue] struct{ scalarKind }

func Real[V FloatValue]() Kind[V] {
	return floatKind[V]{scalarKind{VariantFloat, "float"}}
}

func (floatKind[V]) encode(v V) (any, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, encodeErrf("%v is not a finite number", f)
	}
	return f, nil
}

func (floatKind[V]) decode(raw any) (V, error) {
	switch n := raw.(type) {
	case float64:
		return finite[V](n, raw)
	case float32:
		return finite[V](float64(n), raw)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, decodeErrf("%s is out of range", n)
		}
		return finite[V](f, raw)
	case string, bool, nil:
		return 0, mismatch("number", raw)
	}
	if i, err := toInt64(raw); err == nil {
		return V(i), nil
	}
	if u, err := toUint64(raw); err == nil {
		return V(u), nil
	}
	return 0, mismatch("number", raw)
}

// finite rejects values that do not fit V, including ones that overflow a
// float32 to infinity.
func finite[V FloatValue](f float64, raw any) (V, error) {
	v := V(f)
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0, decodeErrf("%v is out of range", raw)
	}
	return v, nil
}

type boolKind[V ~bool] struct{ scalarKind }

func Boolean[V ~bool]() Kind[V] {
	return boolKind[V]{scalarKind{VariantBool, "bool"}}
}

func (boolKind[V]) encode(v V) (any, error) {
	return bool(v), nil
}

func (boolKind[V]) decode(raw any) (V, error) {
	b, ok := raw.(bool)
	if !ok {
		return false, mismatch("boolean", raw)
	}
	return V(b), nil
}

type uuidKind struct{ scalarKind }

func (uuidKind) encode(v uuid.UUID) (any, error) {
	return v.String(), nil
}

func (uuidKind) decode(raw any) (uuid.UUID, error) {
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, mismatch("uuid string", raw)
	}
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, &Error{Kind: ErrDecode, Msg: fmt.Sprintf("invalid uuid %q", s), Err: err}
	}
	return v, nil
}

type timeKind struct{ scalarKind }

// Times are written in UTC: RFC 3339 offsets cannot carry seconds, which
// historical zone offsets sometimes have.
func (timeKind) encode(v time.Time) (any, error) {
	v = v.UTC()
	if y := v.Year(); y < 0 || y > 9999 {
		return nil, encodeErrf("year %d is outside of [0,9999]", y)
	}
	return v.Format(time.RFC3339Nano), nil
}

func (timeKind) decode(raw any) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, mismatch("time string", raw)
	}
	v, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, &Error{Kind: ErrDecode, Msg: fmt.Sprintf("invalid time %q", s), Err: err}
	}
	return v, nil
}

// enumKind persists members by their stored value, never by Go identifier.
type enumKind[V comparable] struct {
	scalarKind
	base    Kind[V]
	members []V
}

// StringEnum defines an enumeration stored as strings. Decoding anything
// outside of members fails.
func StringEnum[V ~string](name string, members ...V) Kind[V] {
	return newEnumKind(name, Text[V](), members)
}

// IntEnum defines an enumeration stored as integers.
func IntEnum[V IntegerValue](name string, members ...V) Kind[V] {
	return newEnumKind(name, Integer[V](), members)
}

func newEnumKind[V comparable](name string, base Kind[V], members []V) Kind[V] {
	if name == "" {
		panic("enum: empty name")
	}
	if len(members) == 0 {
		panic(fmt.Sprintf("enum %s: no members", name))
	}
	for i, m := range members {
		if slices.Index(members, m) != i {
			panic(fmt.Sprintf("enum %s: duplicate member %v", name, m))
		}
	}
	return enumKind[V]{
		scalarKind: scalarKind{VariantEnum, name},
		base:       base,
		members:    slices.Clone(members),
	}
}

func (k enumKind[V]) Members() []any {
	out := make([]any, len(k.members))
	for i, m := range k.members {
		out[i] = must(k.base.encode(m))
	}
	return out
}

func (k enumKind[V]) encode(v V) (any, error) {
	if !slices.Contains(k.members, v) {
		return nil, encodeErrf("%v is not a member of %s", v, k.name)
	}
	return k.base.encode(v)
}

func (k enumKind[V]) decode(raw any) (V, error) {
	v, err := k.base.decode(raw)
	if err != nil {
		return v, err
	}
	if !slices.Contains(k.members, v) {
		var zero V
		return zero, decodeErrf("%v is not a member of %s", v, k.name)
	}
	return v, nil
}

func describeRaw(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any, Object:
		return "object"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
