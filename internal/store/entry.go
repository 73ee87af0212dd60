// Package store holds the in-memory configuration state: a concurrent
// key-value map of tagged entries. Values carry an explicit kind tag so the
// concrete type survives a JSON round-trip instead of collapsing to strings.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/conneroisu/bindcfg/internal/errors"
)

// Kind identifies the concrete type of a Value.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindFloat  Kind = "float"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindInt, KindBool, KindFloat:
		return true
	default:
		return false
	}
}

// Value is a tagged variant. The zero value is an empty string value.
type Value struct {
	kind Kind
	str  string
	i    int64
	b    bool
	f    float64
}

// StringValue returns a string-kinded Value.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// IntValue returns an int-kinded Value.
func IntValue(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// BoolValue returns a bool-kinded Value.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// FloatValue returns a float-kinded Value.
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// ParseValue constructs a Value of the given kind from its text form.
func ParseValue(kind Kind, text string) (Value, error) {
	switch kind {
	case KindString:
		return StringValue(text), nil
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, errors.NewValidationError("BAD_INT", fmt.Sprintf("%q is not an integer", text)).WithCause(err)
		}
		return IntValue(i), nil
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, errors.NewValidationError("BAD_BOOL", fmt.Sprintf("%q is not a boolean", text)).WithCause(err)
		}
		return BoolValue(b), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, errors.NewValidationError("BAD_FLOAT", fmt.Sprintf("%q is not a float", text)).WithCause(err)
		}
		return FloatValue(f), nil
	default:
		return Value{}, errors.NewValidationError("BAD_KIND", fmt.Sprintf("unknown value kind %q", kind))
	}
}

// Kind returns the value's kind tag.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindString
	}
	return v.kind
}

// Text returns the canonical text form of the value, as displayed by a
// bound field.
func (v Value) Text() string {
	switch v.Kind() {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.str
	}
}

// Int returns the int payload. Only meaningful for KindInt.
func (v Value) Int() int64 { return v.i }

// Bool returns the bool payload. Only meaningful for KindBool.
func (v Value) Bool() bool { return v.b }

// Float returns the float payload. Only meaningful for KindFloat.
func (v Value) Float() float64 { return v.f }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindInt:
		return v.i == other.i
	case KindBool:
		return v.b == other.b
	case KindFloat:
		return v.f == other.f
	default:
		return v.str == other.str
	}
}

// valueJSON is the persisted wire form of a Value.
type valueJSON struct {
	Kind  Kind            `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"kind": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch v.Kind() {
	case KindInt:
		payload = v.i
	case KindBool:
		payload = v.b
	case KindFloat:
		payload = v.f
	default:
		payload = v.str
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(valueJSON{Kind: v.Kind(), Value: raw})
}

// UnmarshalJSON decodes a tagged value, rejecting unknown kinds so a load
// never silently degrades a typed value to a string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var wire valueJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if !wire.Kind.Valid() {
		return errors.NewCodecError("BAD_KIND", fmt.Sprintf("unknown value kind %q", wire.Kind), nil)
	}

	switch wire.Kind {
	case KindInt:
		var i int64
		if err := json.Unmarshal(wire.Value, &i); err != nil {
			return err
		}
		*v = IntValue(i)
	case KindBool:
		var b bool
		if err := json.Unmarshal(wire.Value, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case KindFloat:
		var f float64
		if err := json.Unmarshal(wire.Value, &f); err != nil {
			return err
		}
		*v = FloatValue(f)
	default:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	}

	return nil
}

// Entry is a single named configuration value. The key is fixed at
// construction; the value is replaced wholesale on every publish.
type Entry struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// NewEntry constructs an entry for key holding value.
func NewEntry(key string, value Value) Entry {
	return Entry{Key: key, Value: value}
}

// TextEntry constructs a string-kinded entry, the form a text field
// publishes.
func TextEntry(key, text string) Entry {
	return Entry{Key: key, Value: StringValue(text)}
}
