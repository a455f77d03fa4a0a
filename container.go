package binstream

import (
	"fmt"

	"github.com/stewi1014/binstream/buffer"
	"github.com/stewi1014/binstream/encio"
)

// PutSlice writes the elements of v in the stream's default byte order, framed by f.
// When no byte swapping is needed the elements are copied in a single write.
// Under NullTerminated framing a zero element ends the slice, so v must not contain one.
func PutSlice[T encio.Scalar, B buffer.Readable](s *Stream[B], v []T, f Framing) error {
	if s.state != StateOK {
		return s.failure()
	}

	if f == NullTerminated {
		var zero T
		for i, e := range v {
			if e == zero {
				return s.malformed(fmt.Sprintf("zero element at %v of %v element null-terminated slice", i, len(v)))
			}
		}
	} else if err := s.putCount(f, len(v)); err != nil || s.state != StateOK {
		return err
	}

	if err := putElements(s, v); err != nil || s.state != StateOK {
		return err
	}

	if f == NullTerminated {
		var zero T
		return s.write(encio.Bytes(&zero))
	}
	return nil
}

func putElements[T encio.Scalar, B buffer.Readable](s *Stream[B], v []T) error {
	if s.opts.order.Resolve() == encio.HostOrder || encio.SizeOf[T]() == 1 {
		return s.write(encio.SliceBytes(v))
	}

	swapped := make([]T, len(v))
	for i, e := range v {
		swapped[i] = encio.Swap(e)
	}
	return s.write(encio.SliceBytes(swapped))
}

// GetSlice reads a slice written by PutSlice with the same framing.
// Prefixed slices are read with a single bounds check covering the prefix and every element,
// so a slice that is not fully buffered faults without consuming anything.
func GetSlice[T encio.Scalar, B buffer.Readable](s *Stream[B], f Framing) ([]T, error) {
	if s.state != StateOK {
		return nil, s.failure()
	}

	size := encio.SizeOf[T]()
	if f == NullTerminated {
		return getTerminated[T](s, size)
	}

	count, err := s.getFramed(f, size)
	if err != nil || s.state != StateOK {
		return nil, err
	}

	v := make([]T, count)
	if err := s.read(encio.SliceBytes(v)); err != nil || s.state != StateOK {
		return nil, err
	}
	if s.opts.order.Resolve() != encio.HostOrder && size > 1 {
		for i := range v {
			v[i] = encio.Swap(v[i])
		}
	}
	return v, nil
}

// terminatorScan is the number of elements copied by the first pass of a terminator scan.
const terminatorScan = 64

// getTerminated reads elements up to a zero element.
// The buffer is scanned before anything is consumed; if no zero element is buffered the read faults.
func getTerminated[T encio.Scalar, B buffer.Readable](s *Stream[B], size int) ([]T, error) {
	if size == 1 {
		count := s.buf.IndexByte(0)
		if count < 0 {
			s.reserve(s.buf.Len() + 1)
			return nil, s.failure()
		}
		if !s.reserve(count + 1) {
			return nil, s.failure()
		}
		v := make([]T, count)
		if err := s.read(encio.SliceBytes(v)); err != nil || s.state != StateOK {
			return nil, err
		}
		if err := s.skip(1); err != nil || s.state != StateOK {
			return nil, err
		}
		return v, nil
	}

	// Elements are only aligned from the head, so scan a growing copy of it.
	avail := s.buf.Len() - s.buf.Len()%size
	scan := make([]byte, min(avail, terminatorScan*size))
	count, off := -1, 0
	for {
		s.buf.Copy(scan)
		for ; off < len(scan); off += size {
			if isZero(scan[off : off+size]) {
				count = off / size
				break
			}
		}
		if count >= 0 || len(scan) == avail {
			break
		}
		scan = make([]byte, min(avail, 2*len(scan)))
	}

	if count < 0 {
		s.reserve(s.buf.Len() + size)
		return nil, s.failure()
	}
	if !s.reserve((count + 1) * size) {
		return nil, s.failure()
	}

	v := make([]T, count)
	copy(encio.SliceBytes(v), scan[:count*size])
	if err := s.skip((count + 1) * size); err != nil || s.state != StateOK {
		return nil, err
	}
	if s.opts.order.Resolve() != encio.HostOrder {
		for i := range v {
			v[i] = encio.Swap(v[i])
		}
	}
	return v, nil
}

func isZero(p []byte) bool {
	for _, b := range p {
		if b != 0 {
			return false
		}
	}
	return true
}

// PutSliceFunc writes the elements of v one at a time with put, framed by f.
// NullTerminated framing is not available for elements without a fixed zero form.
func PutSliceFunc[T any, B buffer.Readable](s *Stream[B], v []T, f Framing, put func(*Stream[B], T) error) error {
	if err := s.putCount(f, len(v)); err != nil || s.state != StateOK {
		return err
	}
	for _, e := range v {
		if err := put(s, e); err != nil || s.state != StateOK {
			return err
		}
	}
	return nil
}

// GetSliceFunc reads a slice written by PutSliceFunc, reading each element with get.
func GetSliceFunc[T any, B buffer.Readable](s *Stream[B], f Framing, get func(*Stream[B]) (T, error)) ([]T, error) {
	count, err := s.getCount(f, 1)
	if err != nil || s.state != StateOK {
		return nil, err
	}

	v := make([]T, 0, min(count, s.buf.Len()))
	for i := 0; i < count; i++ {
		e, err := get(s)
		if err != nil || s.state != StateOK {
			return nil, err
		}
		v = append(v, e)
	}
	return v, nil
}

// PutSerializers writes each element of v with its MarshalStream method, framed by f.
func PutSerializers[T Marshaler, B buffer.Readable](s *Stream[B], v []T, f Framing) error {
	return PutSliceFunc(s, v, f, func(s *Stream[B], e T) error {
		return e.MarshalStream(s)
	})
}

// GetSerializers reads a slice written by PutSerializers, decoding each element with its UnmarshalStream method.
func GetSerializers[T any, PT interface {
	*T
	Unmarshaler
}, B buffer.Readable](s *Stream[B], f Framing) ([]T, error) {
	return GetSliceFunc(s, f, func(s *Stream[B]) (T, error) {
		var e T
		err := PT(&e).UnmarshalStream(s)
		return e, err
	})
}
