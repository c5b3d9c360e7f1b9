package lang

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Type indicates the type of a [Value].
type Type int

const (
	// TypeInvalid is the type of the zero Value.
	TypeInvalid Type = iota

	// TypeString represents a string value.
	TypeString

	// TypeNumber represents a 64-bit floating point number.
	TypeNumber

	// TypeBool represents a boolean value.
	TypeBool

	// TypeSequence represents an ordered sequence of values.
	TypeSequence
)

// String returns a string representation of the value type.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeSequence:
		return "sequence"
	default:
		return "invalid"
	}
}

// Value is an immutable runtime value. Sequence values own their elements;
// constructors and accessors copy.
type Value struct {
	seq []Value
	str string
	num float64
	typ Type
	b   bool
}

// NewString returns a string value.
func NewString(s string) Value { return Value{typ: TypeString, str: s} }

// NewNumber returns a number value.
func NewNumber(f float64) Value { return Value{typ: TypeNumber, num: f} }

// NewBool returns a boolean value.
func NewBool(b bool) Value { return Value{typ: TypeBool, b: b} }

// NewSequence returns a sequence holding a copy of elems.
func NewSequence(elems ...Value) Value {
	return Value{typ: TypeSequence, seq: append(make([]Value, 0, len(elems)), elems...)}
}

// Type returns the type of v.
func (v Value) Type() Type { return v.typ }

// IsValid reports whether v was constructed, as opposed to the zero Value.
func (v Value) IsValid() bool { return v.typ != TypeInvalid }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.str, v.typ == TypeString }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.num, v.typ == TypeNumber }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == TypeBool }

// AsSequence returns a copy of the elements held by v.
func (v Value) AsSequence() ([]Value, bool) {
	if v.typ != TypeSequence {
		return nil, false
	}

	return append([]Value(nil), v.seq...), true
}

// Len returns the number of elements of a sequence, or 0.
func (v Value) Len() int { return len(v.seq) }

// Equal reports whether v and o have the same type and contents.
// Numbers compare with ==, so NaN is not equal to itself.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}

	switch v.typ {
	case TypeString:
		return v.str == o.str
	case TypeNumber:
		return v.num == o.num
	case TypeBool:
		return v.b == o.b
	case TypeSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}

		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}

		return true
	default:
		return true
	}
}

// Text returns v as it appears when concatenated to a string: strings
// unquoted, numbers without a trailing ".0", sequences in literal form.
func (v Value) Text() string {
	switch v.typ {
	case TypeString:
		return v.str
	case TypeNumber:
		return formatNumber(v.num)
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeSequence:
		return v.String()
	default:
		return ""
	}
}

// String renders v as a literal: strings are quoted, sequences bracketed.
func (v Value) String() string {
	switch v.typ {
	case TypeString:
		return quote(v.str)
	case TypeSequence:
		var sb strings.Builder

		sb.WriteByte('[')

		for i, e := range v.seq {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(e.String())
		}

		sb.WriteByte(']')

		return sb.String()
	case TypeInvalid:
		return "<invalid>"
	default:
		return v.Text()
	}
}

// ToNative converts v to string, float64, bool, or []any.
func (v Value) ToNative() any {
	switch v.typ {
	case TypeString:
		return v.str
	case TypeNumber:
		return v.num
	case TypeBool:
		return v.b
	case TypeSequence:
		out := make([]any, len(v.seq))
		for i, e := range v.seq {
			out[i] = e.ToNative()
		}

		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler. Non-finite numbers, which JSON
// cannot represent, are encoded as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return json.Marshal(formatNumber(v.num))
		}

		return json.Marshal(v.num)
	case TypeSequence:
		if v.seq == nil {
			return []byte("[]"), nil
		}

		return json.Marshal(v.seq)
	default:
		return json.Marshal(v.ToNative())
	}
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (v Value) MarshalYAML() (any, error) { return v.ToNative(), nil }

// quote wraps s in double quotes. Strings that a string literal can spell
// verbatim are left as is, so the result lexes back to the same value;
// others are escaped.
func quote(s string) string {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			return strconv.Quote(s)
		case '\\':
			if i++; i == len(s) {
				return strconv.Quote(s)
			}
		}
	}

	return `"` + s + `"`
}

// formatNumber renders f in plain decimal notation when that stays short,
// and in exponent notation otherwise.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	if abs := math.Abs(f); f == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}

// parseNumber converts number literal text.
func parseNumber(text string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(text), 64)
}
