package domain

import (
	"strconv"
)

// ValueKind identifies which scalar a Value holds.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
)

// String returns the kind name used in logs.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "null"
	}
}

// Value is a single cell of a Table. The zero Value is Null.
type Value struct {
	Kind ValueKind `json:"kind"`
	Str  string    `json:"str,omitempty"`
	Num  float64   `json:"num,omitempty"`
}

// NullValue returns the Null value.
func NullValue() Value {
	return Value{}
}

// StringValue wraps a string cell.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NumberValue wraps a numeric cell.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// String renders the value for CSV output. Null renders as the empty string and
// numbers use the shortest decimal form that round-trips.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}
