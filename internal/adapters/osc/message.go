// Package osc implements the subset of the Open Sound Control 1.0 wire format
// the score stations speak: flat messages with float32, int32 and string
// arguments.
package osc

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind is the OSC type tag of an argument.
type Kind byte

const (
	KindFloat  Kind = 'f'
	KindInt    Kind = 'i'
	KindString Kind = 's'
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Argument is a single typed OSC argument. The zero value is invalid.
type Argument struct {
	kind Kind
	f    float32
	i    int32
	s    string
}

// Float returns a float32 argument.
func Float(v float32) Argument { return Argument{kind: KindFloat, f: v} }

// Int returns an int32 argument.
func Int(v int32) Argument { return Argument{kind: KindInt, i: v} }

// String returns a string argument.
func String(v string) Argument { return Argument{kind: KindString, s: v} }

// Kind reports the argument type tag.
func (a Argument) Kind() Kind { return a.kind }

// IsNumeric reports whether the argument is a float or an int.
func (a Argument) IsNumeric() bool { return a.kind == KindFloat || a.kind == KindInt }

// Numeric returns the value of a numeric argument as float32.
func (a Argument) Numeric() (float32, bool) {
	switch a.kind {
	case KindFloat:
		return a.f, true
	case KindInt:
		return float32(a.i), true
	default:
		return 0, false
	}
}

// Text returns the value of a string argument.
func (a Argument) Text() (string, bool) {
	if a.kind != KindString {
		return "", false
	}
	return a.s, true
}

func (a Argument) String() string {
	switch a.kind {
	case KindFloat:
		return strconv.FormatFloat(float64(a.f), 'g', -1, 32)
	case KindInt:
		return strconv.FormatInt(int64(a.i), 10)
	case KindString:
		return strconv.Quote(a.s)
	default:
		return "<invalid>"
	}
}

// MarshalJSON renders numbers as JSON numbers and strings as JSON strings.
func (a Argument) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case KindFloat:
		return json.Marshal(a.f)
	case KindInt:
		return json.Marshal(a.i)
	case KindString:
		return json.Marshal(a.s)
	default:
		return []byte("null"), nil
	}
}

// Message is a decoded OSC message. A fresh Message is built for every
// datagram and is not mutated afterwards.
type Message struct {
	Address   string
	Arguments []Argument
}

// NewMessage returns a Message for addr with the given arguments.
func NewMessage(addr string, args ...Argument) *Message {
	return &Message{Address: addr, Arguments: args}
}

// TypeTags returns the type tag string, e.g. ",fs".
func (m *Message) TypeTags() string {
	var b strings.Builder
	b.WriteByte(',')
	for _, a := range m.Arguments {
		b.WriteByte(byte(a.kind))
	}
	return b.String()
}

// String implements fmt.Stringer, e.g. `/score ,fs 1 "True100"`.
func (m *Message) String() string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.Address)
	if len(m.Arguments) == 0 {
		return b.String()
	}
	b.WriteByte(' ')
	b.WriteString(m.TypeTags())
	for _, a := range m.Arguments {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	return b.String()
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Message) MarshalBinary() ([]byte, error) {
	return Encode(m.Address, m.Arguments...)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Message) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}
