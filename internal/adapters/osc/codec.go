package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	bit32Size = 4

	// MaxPacketSize is the largest datagram the codec reads or writes.
	MaxPacketSize = 65507
)

// Decode parses a single OSC message from a datagram.
func Decode(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, decodeErr(0, "empty datagram")
	}
	if len(data)%bit32Size != 0 {
		return nil, decodeErr(len(data), "length %d is not a multiple of 4", len(data))
	}
	if data[0] != '/' {
		return nil, decodeErr(0, "address must start with '/'")
	}

	addr, n, err := readPaddedString(data, 0)
	if err != nil {
		return nil, err
	}
	msg := &Message{Address: addr}

	// OSC 1.0 allows older senders to omit the type tag string.
	if n == len(data) {
		return msg, nil
	}
	if data[n] != ',' {
		return nil, decodeErr(n, "type tag string must start with ','")
	}
	tags, off, err := readPaddedString(data, n)
	if err != nil {
		return nil, err
	}

	for _, tag := range []byte(tags[1:]) {
		switch Kind(tag) {
		case KindFloat:
			if off+bit32Size > len(data) {
				return nil, decodeErr(off, "truncated float argument")
			}
			msg.Arguments = append(msg.Arguments, Float(math.Float32frombits(binary.BigEndian.Uint32(data[off:]))))
			off += bit32Size
		case KindInt:
			if off+bit32Size > len(data) {
				return nil, decodeErr(off, "truncated int argument")
			}
			msg.Arguments = append(msg.Arguments, Int(int32(binary.BigEndian.Uint32(data[off:]))))
			off += bit32Size
		case KindString:
			s, next, err := readPaddedString(data, off)
			if err != nil {
				return nil, err
			}
			if !utf8.ValidString(s) {
				return nil, decodeErr(off, "string argument is not valid UTF-8")
			}
			msg.Arguments = append(msg.Arguments, String(s))
			off = next
		default:
			return nil, decodeErr(n, "unsupported type tag %q", tag)
		}
	}
	if off != len(data) {
		return nil, decodeErr(off, "%d trailing bytes after arguments", len(data)-off)
	}
	return msg, nil
}

// Encode serializes an OSC message. Strings are NUL terminated and padded to a
// 4 byte boundary; numbers are big-endian.
func Encode(address string, args ...Argument) ([]byte, error) {
	if !strings.HasPrefix(address, "/") {
		return nil, fmt.Errorf("%w: address %q must start with '/'", ErrEncode, address)
	}
	if strings.IndexByte(address, 0) >= 0 {
		return nil, fmt.Errorf("%w: address contains NUL", ErrEncode)
	}

	var b bytes.Buffer
	writePaddedString(&b, address)

	tags := make([]byte, 0, len(args)+1)
	tags = append(tags, ',')
	for i, a := range args {
		switch a.kind {
		case KindFloat, KindInt, KindString:
			tags = append(tags, byte(a.kind))
		default:
			return nil, fmt.Errorf("%w: argument %d has no type", ErrEncode, i)
		}
	}
	writePaddedString(&b, string(tags))

	var num [bit32Size]byte
	for i, a := range args {
		switch a.kind {
		case KindFloat:
			binary.BigEndian.PutUint32(num[:], math.Float32bits(a.f))
			b.Write(num[:])
		case KindInt:
			binary.BigEndian.PutUint32(num[:], uint32(a.i))
			b.Write(num[:])
		case KindString:
			if strings.IndexByte(a.s, 0) >= 0 {
				return nil, fmt.Errorf("%w: string argument %d contains NUL", ErrEncode, i)
			}
			writePaddedString(&b, a.s)
		}
	}

	if b.Len() > MaxPacketSize {
		return nil, fmt.Errorf("%w: packet too large: %d", ErrEncode, b.Len())
	}
	return b.Bytes(), nil
}

// readPaddedString reads a NUL terminated string starting at off and returns
// it with the offset of the next 4 byte aligned field.
func readPaddedString(data []byte, off int) (string, int, error) {
	pos := bytes.IndexByte(data[off:], 0)
	if pos == -1 {
		return "", 0, decodeErr(off, "string is not NUL terminated")
	}
	end := off + pos + 1
	next := end + padBytesNeeded(pos+1)
	if next > len(data) {
		return "", 0, decodeErr(end, "string padding truncated")
	}
	for i := end; i < next; i++ {
		if data[i] != 0 {
			return "", 0, decodeErr(i, "non-zero padding byte")
		}
	}
	return string(data[off : off+pos]), next, nil
}

func writePaddedString(b *bytes.Buffer, s string) {
	b.WriteString(s)
	b.WriteByte(0)
	for i := padBytesNeeded(len(s) + 1); i > 0; i-- {
		b.WriteByte(0)
	}
}

// padBytesNeeded determines how many bytes are needed to fill up to the next 4
// byte length.
func padBytesNeeded(elementLen int) int {
	return (bit32Size - (elementLen % bit32Size)) % bit32Size
}
