package decode

import (
	"encoding/json"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindHex
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindHex:
		return "hex"
	default:
		return "unknown"
	}
}

// Value is a decoded scalar. The zero Value is the empty string.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// IntValue returns a KindInt value.
func IntValue(n int64) Value {
	return Value{kind: KindInt, i: n}
}

// FloatValue returns a KindFloat value.
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// StringValue returns a KindString value.
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

// HexValue returns a KindHex value; raw keeps the text it was parsed from.
func HexValue(n int64, raw string) Value {
	return Value{kind: KindHex, i: n, s: raw}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer for KindInt and KindHex values.
func (v Value) Int() (int64, bool) {
	if v.kind == KindInt || v.kind == KindHex {
		return v.i, true
	}
	return 0, false
}

// Float returns the float for KindFloat values.
func (v Value) Float() (float64, bool) {
	if v.kind == KindFloat {
		return v.f, true
	}
	return 0, false
}

// Str returns the text for KindString values.
func (v Value) Str() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}

// Interface returns the value as int64, float64 or string.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt, KindHex:
		return v.i
	case KindFloat:
		return v.f
	default:
		return v.s
	}
}

// String renders the value as text. Hex values keep their original spelling.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return v.s
	}
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindHex:
		return v.i == o.i && v.s == o.s
	default:
		return v.s == o.s
	}
}

// MarshalJSON encodes ints and hex values as JSON numbers, floats as numbers
// and strings as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt, KindHex:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return json.Marshal(v.f)
	default:
		return json.Marshal(v.s)
	}
}
