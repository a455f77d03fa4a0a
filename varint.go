package binstream

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/stewi1014/binstream/encio"
)

// PutUvarint writes v as a varint; 7 bits per byte, least significant group first.
func (s *Stream[B]) PutUvarint(v uint64) error {
	var buff encio.Uvarint
	return s.write(buff.Encode(v))
}

// PutVarint writes v zigzag encoded as a varint, so small negative numbers stay small.
func (s *Stream[B]) PutVarint(v int64) error {
	return s.PutUvarint(encio.ZigZag(v))
}

// GetUvarint reads a varint.
// A varint cut short by the end of the buffer faults like any other short read, and nothing is consumed.
func (s *Stream[B]) GetUvarint() (uint64, error) {
	v, n, err := s.peekUvarint()
	if err != nil || s.state != StateOK {
		return 0, err
	}
	if err := s.skip(n); err != nil || s.state != StateOK {
		return 0, err
	}
	return v, nil
}

// GetVarint reads a zigzag encoded varint.
func (s *Stream[B]) GetVarint() (int64, error) {
	u, err := s.GetUvarint()
	return encio.UnZigZag(u), err
}

// peekUvarint decodes the varint at the head of the buffer without consuming it, returning its value and length.
func (s *Stream[B]) peekUvarint() (uint64, int, error) {
	if s.state != StateOK {
		return 0, 0, s.failure()
	}

	var buff [encio.MaxVarintLen64]byte
	peeked := s.buf.Copy(buff[:])
	v, n := encio.DecodeUvarint(buff[:peeked])
	switch {
	case n == 0:
		// Unterminated; ask for one more byte than there is so the fault carries the right counts.
		s.reserve(peeked + 1)
		return 0, 0, s.failure()
	case n < 0:
		return 0, 0, s.malformed(fmt.Sprintf("varint longer than %v bytes", encio.MaxVarintLen64))
	}
	return v, n, nil
}

// peekCount decodes the element count at the head of the buffer without consuming it,
// returning the count and the length of its prefix.
// Counts of elements of the given size that could not possibly fit in memory are rejected.
func (s *Stream[B]) peekCount(f Framing, elemSize int) (int, int, error) {
	if s.state != StateOK {
		return 0, 0, s.failure()
	}

	var count uint64
	var n int
	switch f {
	case FixedPrefix:
		var buff [4]byte
		if s.buf.Copy(buff[:]) < len(buff) {
			s.reserve(len(buff))
			return 0, 0, s.failure()
		}
		count = uint64(binary.LittleEndian.Uint32(buff[:]))
		n = len(buff)
	case VarintPrefix:
		c, l, err := s.peekUvarint()
		if err != nil || s.state != StateOK {
			return 0, 0, err
		}
		count, n = c, l
	default:
		return 0, 0, encio.NewError(encio.ErrCapability, fmt.Sprintf("%v framing has no count", f), 1)
	}

	if elemSize < 1 {
		elemSize = 1
	}
	if count > uint64(encio.TooBig/elemSize) {
		return 0, 0, s.malformed(fmt.Sprintf("count of %v elements is too big", count))
	}
	return int(count), n, nil
}

// getCount reads an element count.
func (s *Stream[B]) getCount(f Framing, elemSize int) (int, error) {
	count, n, err := s.peekCount(f, elemSize)
	if err != nil || s.state != StateOK {
		return 0, err
	}
	if err := s.skip(n); err != nil || s.state != StateOK {
		return 0, err
	}
	return count, nil
}

// getFramed consumes the prefix of a run of count*elemSize payload bytes, after checking the payload can be read too,
// so a rejected read consumes nothing. It returns the element count.
func (s *Stream[B]) getFramed(f Framing, elemSize int) (int, error) {
	count, n, err := s.peekCount(f, elemSize)
	if err != nil || s.state != StateOK {
		return 0, err
	}
	if !s.reserve(n + count*elemSize) {
		return 0, s.failure()
	}
	if err := s.skip(n); err != nil || s.state != StateOK {
		return 0, err
	}
	return count, nil
}

// putCount writes a count with the given framing.
func (s *Stream[B]) putCount(f Framing, count int) error {
	switch f {
	case FixedPrefix:
		if uint64(count) > math.MaxUint32 {
			return s.malformed(fmt.Sprintf("count of %v does not fit a 4 byte prefix", count))
		}
		return PutOrder(s, uint32(count), encio.LittleEndian)
	case VarintPrefix:
		return s.PutUvarint(uint64(count))
	default:
		return encio.NewError(encio.ErrCapability, fmt.Sprintf("%v framing has no count", f), 1)
	}
}
