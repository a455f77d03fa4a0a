package encio

import (
	"math/bits"
	"strconv"
	"unsafe"
)

// Scalar is the set of trivially copyable types a stream moves with a raw byte copy.
type Scalar interface {
	~bool |
		~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint | ~uintptr |
		~float32 | ~float64
}

// ByteOrder selects the byte layout of a scalar on the wire.
type ByteOrder uint8

const (
	// Native is the byte order of the host. Data written in Native order
	// only reads back correctly on hosts with the same order.
	Native ByteOrder = iota
	LittleEndian
	BigEndian
)

// HostOrder is the resolved byte order of this machine; LittleEndian or BigEndian.
var HostOrder = func() ByteOrder {
	x := uint16(1)
	if *(*byte)(unsafe.Pointer(&x)) == 1 {
		return LittleEndian
	}
	return BigEndian
}()

// Resolve returns o, with Native replaced by HostOrder.
func (o ByteOrder) Resolve() ByteOrder {
	if o == Native {
		return HostOrder
	}
	return o
}

func (o ByteOrder) String() string {
	switch o {
	case Native:
		return "native"
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	default:
		return "ByteOrder(" + strconv.Itoa(int(o)) + ")"
	}
}

// ParseByteOrder parses the String form of a ByteOrder.
func ParseByteOrder(s string) (ByteOrder, bool) {
	switch s {
	case "native", "":
		return Native, true
	case "little", "le":
		return LittleEndian, true
	case "big", "be":
		return BigEndian, true
	}
	return Native, false
}

// Swap reverses the bytes of v.
func Swap[T Scalar](v T) T {
	p := unsafe.Pointer(&v)
	switch unsafe.Sizeof(v) {
	case 2:
		*(*uint16)(p) = bits.ReverseBytes16(*(*uint16)(p))
	case 4:
		*(*uint32)(p) = bits.ReverseBytes32(*(*uint32)(p))
	case 8:
		*(*uint64)(p) = bits.ReverseBytes64(*(*uint64)(p))
	}
	return v
}

// ToOrder converts v from host order to order o.
// Conversion is its own inverse, so it also converts a value read in order o back to host order.
func ToOrder[T Scalar](v T, o ByteOrder) T {
	if o.Resolve() == HostOrder {
		return v
	}
	return Swap(v)
}

// Bytes returns the memory of *v as a byte slice.
func Bytes[T Scalar](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// SliceBytes returns the backing memory of s as a byte slice.
func SliceBytes[T Scalar](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

// SizeOf returns the encoded size of T.
func SizeOf[T Scalar]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
