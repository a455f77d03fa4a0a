package binstream

import (
	"bytes"
	"fmt"
	"strconv"
	"unsafe"
)

// Framing selects how the extent of a string or slice is marked on the wire.
type Framing uint8

const (
	// NullTerminated values are followed by a single zero byte, or zero element, and have no length field.
	// The value itself must not contain one.
	NullTerminated Framing = iota

	// FixedPrefix values are preceded by their element count as a 4 byte little endian integer.
	FixedPrefix

	// VarintPrefix values are preceded by their element count as a varint.
	VarintPrefix
)

func (f Framing) String() string {
	switch f {
	case NullTerminated:
		return "null-terminated"
	case FixedPrefix:
		return "fixed-prefix"
	case VarintPrefix:
		return "varint-prefix"
	default:
		return "Framing(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseFraming parses the String form of a Framing. "null", "fixed" and "varint" are accepted as well.
func ParseFraming(s string) (Framing, bool) {
	switch s {
	case "null-terminated", "null", "cstring":
		return NullTerminated, true
	case "fixed-prefix", "fixed", "prefixed":
		return FixedPrefix, true
	case "varint-prefix", "varint":
		return VarintPrefix, true
	}
	return NullTerminated, false
}

// PutText writes str with framing f.
func (s *Stream[B]) PutText(str string, f Framing) error {
	return s.PutBytes(unsafe.Slice(unsafe.StringData(str), len(str)), f)
}

// GetText reads a string written with framing f.
func (s *Stream[B]) GetText(f Framing) (string, error) {
	p, err := s.GetBytes(f)
	return string(p), err
}

// PutBytes writes p with framing f.
func (s *Stream[B]) PutBytes(p []byte, f Framing) error {
	if f == NullTerminated {
		if i := bytes.IndexByte(p, 0); i >= 0 {
			if s.state != StateOK {
				return s.failure()
			}
			return s.malformed(fmt.Sprintf("terminator at %v of %v byte null-terminated value", i, len(p)))
		}
		if err := s.write(p); err != nil || s.state != StateOK {
			return err
		}
		return s.write([]byte{0})
	}

	if err := s.putCount(f, len(p)); err != nil || s.state != StateOK {
		return err
	}
	return s.write(p)
}

// GetBytes reads a byte slice written with framing f into newly allocated memory.
func (s *Stream[B]) GetBytes(f Framing) ([]byte, error) {
	var n int
	if f == NullTerminated {
		if s.state != StateOK {
			return nil, s.failure()
		}
		n = s.buf.IndexByte(0)
		if n < 0 {
			// No terminator yet; fault as a read of everything buffered plus the missing terminator.
			s.reserve(s.buf.Len() + 1)
			return nil, s.failure()
		}
		if !s.reserve(n + 1) {
			return nil, s.failure()
		}
	} else {
		count, err := s.getFramed(f, 1)
		if err != nil || s.state != StateOK {
			return nil, err
		}
		n = count
	}

	p := make([]byte, n)
	if err := s.read(p); err != nil || s.state != StateOK {
		return nil, err
	}
	if f == NullTerminated {
		if err := s.skip(1); err != nil || s.state != StateOK {
			return nil, err
		}
	}
	return p, nil
}

// PutCString writes str followed by a zero byte.
func (s *Stream[B]) PutCString(str string) error { return s.PutText(str, NullTerminated) }

// GetCString reads a zero terminated string, leaving the stream just past the terminator.
// If no terminator is buffered, the read faults with StateBufferUnderrun and nothing is consumed.
func (s *Stream[B]) GetCString() (string, error) { return s.GetText(NullTerminated) }

// PutPrefixed writes str preceded by its length as a 4 byte little endian integer.
func (s *Stream[B]) PutPrefixed(str string) error { return s.PutText(str, FixedPrefix) }

// GetPrefixed reads a string written by PutPrefixed.
func (s *Stream[B]) GetPrefixed() (string, error) { return s.GetText(FixedPrefix) }

// PutVarPrefixed writes str preceded by its length as a varint.
func (s *Stream[B]) PutVarPrefixed(str string) error { return s.PutText(str, VarintPrefix) }

// GetVarPrefixed reads a string written by PutVarPrefixed.
func (s *Stream[B]) GetVarPrefixed() (string, error) { return s.GetText(VarintPrefix) }

// GetString reads exactly n bytes as a string, with no framing.
func (s *Stream[B]) GetString(n int) (string, error) {
	if !s.reserve(n) {
		return "", s.failure()
	}
	p := make([]byte, n)
	if err := s.read(p); err != nil || s.state != StateOK {
		return "", err
	}
	return string(p), nil
}
