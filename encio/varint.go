package encio

import (
	"fmt"
	"io"
	"math/bits"
)

const (
	// MaxVarintLen64 is the longest a varint encoded uint64 can be.
	MaxVarintLen64 = 10

	varintMore    = 0x80
	varintPayload = 0x7f
)

// Uvarint provides methods for encoding and decoding uint64s in variable-length format.
// Each byte carries 7 bits of the value, least significant group first,
// with the top bit set on every byte but the last.
type Uvarint [MaxVarintLen64]byte

// Encode returns the encoding of n. The returned slice aliases buff and is valid until the next call.
func (buff *Uvarint) Encode(n uint64) []byte {
	return buff[:PutUvarint(buff[:], n)]
}

// Decode reads a uint64 from r, one byte at a time.
// Errors from r are returned as they are; a sequence that does not fit a uint64 returns ErrMalformed.
func (buff *Uvarint) Decode(r io.ByteReader) (uint64, error) {
	var n uint64
	for i := 0; i < MaxVarintLen64; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		buff[i] = b

		if i == MaxVarintLen64-1 && b > 1 {
			return 0, NewError(ErrMalformed, fmt.Sprintf("varint overflows uint64: % x", buff[:i+1]), 0)
		}

		n |= uint64(b&varintPayload) << (7 * i)
		if b&varintMore == 0 {
			return n, nil
		}
	}
	return 0, NewError(ErrMalformed, fmt.Sprintf("unterminated varint: % x", buff[:]), 0)
}

// UvarintLen returns the number of bytes n is encoded with; 1 for 0.
func UvarintLen(n uint64) int {
	return (bits.Len64(n|1) + 6) / 7
}

// PutUvarint encodes n into buff and returns the number of bytes written.
// buff must have room for UvarintLen(n) bytes.
func PutUvarint(buff []byte, n uint64) int {
	i := 0
	for n >= varintMore {
		buff[i] = byte(n) | varintMore
		n >>= 7
		i++
	}
	buff[i] = byte(n)
	return i + 1
}

// DecodeUvarint decodes a uint64 from the start of buff.
// It returns the value and the number of bytes consumed.
// If buff ends mid-sequence it returns 0, 0; if the value overflows it returns 0 and -(bytes read).
func DecodeUvarint(buff []byte) (uint64, int) {
	var n uint64
	for i, b := range buff {
		if i == MaxVarintLen64 {
			return 0, -(i + 1)
		}
		if i == MaxVarintLen64-1 && b > 1 {
			return 0, -(i + 1)
		}
		n |= uint64(b&varintPayload) << (7 * i)
		if b&varintMore == 0 {
			return n, i + 1
		}
	}
	return 0, 0
}

// ZigZag maps signed integers onto unsigned ones so small magnitudes stay small.
func ZigZag(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63)
}

// UnZigZag reverses ZigZag.
func UnZigZag(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}
