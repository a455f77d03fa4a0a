package binstream

import (
	"github.com/stewi1014/binstream/buffer"
	"github.com/stewi1014/binstream/encio"
)

// Put writes v in the stream's default byte order.
func Put[T encio.Scalar, B buffer.Readable](s *Stream[B], v T) error {
	return PutOrder(s, v, s.opts.order)
}

// Get reads a T written in the stream's default byte order.
// On failure the zero value is returned and nothing is consumed.
func Get[T encio.Scalar, B buffer.Readable](s *Stream[B]) (T, error) {
	return GetOrder[T](s, s.opts.order)
}

// PutOrder writes v in byte order o.
func PutOrder[T encio.Scalar, B buffer.Readable](s *Stream[B], v T, o encio.ByteOrder) error {
	v = encio.ToOrder(v, o)
	return s.write(encio.Bytes(&v))
}

// GetOrder reads a T written in byte order o.
func GetOrder[T encio.Scalar, B buffer.Readable](s *Stream[B], o encio.ByteOrder) (T, error) {
	var v T
	if err := s.read(encio.Bytes(&v)); err != nil || s.state != StateOK {
		var zero T
		return zero, err
	}
	return encio.ToOrder(v, o), nil
}

// Endian pairs a scalar with the byte order it travels in.
// It can be given to Stream.Put, or a pointer to one to Stream.Get.
//
//	size := binstream.BE(uint16(0))
//	err := s.Get(&size)
type Endian[T encio.Scalar] struct {
	Value T
	Order encio.ByteOrder
}

// LE wraps v to be written or read little endian.
func LE[T encio.Scalar](v T) Endian[T] { return Endian[T]{Value: v, Order: encio.LittleEndian} }

// BE wraps v to be written or read big endian.
func BE[T encio.Scalar](v T) Endian[T] { return Endian[T]{Value: v, Order: encio.BigEndian} }

// Native wraps v to be written or read in host order, regardless of the stream's default.
func Native[T encio.Scalar](v T) Endian[T] { return Endian[T]{Value: v, Order: encio.Native} }

// MarshalStream implements Marshaler.
func (e Endian[T]) MarshalStream(w Writer) error {
	v := encio.ToOrder(e.Value, e.Order)
	return w.PutRaw(encio.Bytes(&v))
}

// UnmarshalStream implements Unmarshaler.
func (e *Endian[T]) UnmarshalStream(r Reader) error {
	var v T
	if err := r.GetRaw(encio.Bytes(&v)); err != nil || !r.Good() {
		return err
	}
	e.Value = encio.ToOrder(v, e.Order)
	return nil
}
