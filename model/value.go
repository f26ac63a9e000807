// Package model defines the closed set of value shapes the cache stores.
//
// A Value is immutable once constructed: constructors copy caller-owned
// slices and maps, and collection accessors return internal state which
// must not be modified by the caller.
package model

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrKindMismatch is returned when a typed accessor is called on a Value
// holding a different variant.
var ErrKindMismatch = errors.New("value kind mismatch")

// Kind enumerates the variants a Value can hold.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindBytes
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// bytesMarker is the reserved single-key object used to keep byte payloads
// distinguishable from text across JSON round trips.
const bytesMarker = "$bytes"

// Value is a tagged union over {nil, bool, int, float, text, bytes, list,
// string-keyed map}. The zero Value is the nil variant.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
	list []Value
	dict map[string]Value
}

// Nil - returns the nil variant.
func Nil() Value { return Value{kind: KindNil} }

// Bool - wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int - wraps a signed integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float - wraps a float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Text - wraps a string.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Bytes - wraps a byte payload. The slice is copied.
func Bytes(p []byte) Value {
	cp := make([]byte, len(p))
	copy(cp, p)
	return Value{kind: KindBytes, raw: cp}
}

// List - wraps an ordered list of values. The items are copied.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Map - wraps a string-keyed mapping of values. The map is copied.
func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, dict: cp}
}

// Kind - reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNil - reports whether the value is the nil variant.
func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch(KindBool, v.kind)
	}
	return v.b, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, mismatch(KindInt, v.kind)
	}
	return v.i, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, mismatch(KindFloat, v.kind)
	}
	return v.f, nil
}

func (v Value) AsText() (string, error) {
	if v.kind != KindText {
		return "", mismatch(KindText, v.kind)
	}
	return v.s, nil
}

func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, mismatch(KindBytes, v.kind)
	}
	return v.raw, nil
}

func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, mismatch(KindList, v.kind)
	}
	return v.list, nil
}

func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, mismatch(KindMap, v.kind)
	}
	return v.dict, nil
}

// Ints - narrows a homogeneous integer list to []int64.
func (v Value) Ints() ([]int64, error) {
	items, err := v.AsList()
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(items))
	for n, item := range items {
		i, err := item.AsInt()
		if err != nil {
			return nil, err
		}
		out[n] = i
	}
	return out, nil
}

// Floats - narrows a homogeneous numeric list to []float64. Integer elements
// are widened: JSON round trips decode integral floats as ints.
func (v Value) Floats() ([]float64, error) {
	items, err := v.AsList()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for n, item := range items {
		switch item.kind {
		case KindFloat:
			out[n] = item.f
		case KindInt:
			out[n] = float64(item.i)
		default:
			return nil, mismatch(KindFloat, item.kind)
		}
	}
	return out, nil
}

// Strings - narrows a homogeneous text list to []string.
func (v Value) Strings() ([]string, error) {
	items, err := v.AsList()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for n, item := range items {
		s, err := item.AsText()
		if err != nil {
			return nil, err
		}
		out[n] = s
	}
	return out, nil
}

// Equal - deep comparison. Float NaN is never equal to anything.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for n := range v.list {
			if !v.list[n].Equal(o.list[n]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.dict) != len(o.dict) {
			return false
		}
		for k, item := range v.dict {
			other, ok := o.dict[k]
			if !ok || !item.Equal(other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler. Byte payloads are written as a
// single-key {"$bytes": "<base64>"} object so they survive a round trip.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toAny())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) toAny() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBytes:
		return map[string]string{bytesMarker: base64.StdEncoding.EncodeToString(v.raw)}
	case KindList:
		items := make([]any, len(v.list))
		for n, item := range v.list {
			items[n] = item.toAny()
		}
		return items
	case KindMap:
		m := make(map[string]any, len(v.dict))
		for k, item := range v.dict {
			m[k] = item.toAny()
		}
		return m
	default:
		return nil
	}
}

// FromAny - converts loosely typed data (JSON decoder output included) into
// a Value. Numbers decoded with json.Decoder.UseNumber keep their int-ness.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Nil(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		return fromNumber(t)
	case string:
		return Text(t), nil
	case []byte:
		return Bytes(t), nil
	case []Value:
		return List(t...), nil
	case map[string]Value:
		return Map(t), nil
	case []any:
		items := make([]Value, len(t))
		for n, item := range t {
			parsed, err := FromAny(item)
			if err != nil {
				return Nil(), err
			}
			items[n] = parsed
		}
		return Value{kind: KindList, list: items}, nil
	case map[string]any:
		if payload, ok := decodeBytesMarker(t); ok {
			return Value{kind: KindBytes, raw: payload}, nil
		}
		m := make(map[string]Value, len(t))
		for k, item := range t {
			parsed, err := FromAny(item)
			if err != nil {
				return Nil(), err
			}
			m[k] = parsed
		}
		return Value{kind: KindMap, dict: m}, nil
	default:
		return Nil(), fmt.Errorf("unsupported value type %T", raw)
	}
}

func fromNumber(num json.Number) (Value, error) {
	s := num.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := num.Float64()
	if err != nil {
		return Nil(), fmt.Errorf("parse number %q: %w", s, err)
	}
	return Float(f), nil
}

func decodeBytesMarker(m map[string]any) ([]byte, bool) {
	if len(m) != 1 {
		return nil, false
	}
	encoded, ok := m[bytesMarker].(string)
	if !ok {
		return nil, false
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	return payload, true
}

func mismatch(want, have Kind) error {
	return fmt.Errorf("%w: want %s, have %s", ErrKindMismatch, want, have)
}
