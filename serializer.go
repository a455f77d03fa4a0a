package binstream

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/stewi1014/binstream/buffer"
	"github.com/stewi1014/binstream/encio"
)

// Writer is the write side of a stream, as seen by a Marshaler.
type Writer interface {
	Put(vs ...any) error
	PutRaw(p []byte) error
	PutUvarint(v uint64) error
	PutVarint(v int64) error
	PutText(str string, f Framing) error
	PutBytes(p []byte, f Framing) error
	Good() bool
}

// Reader is the read side of a stream, as seen by an Unmarshaler.
type Reader interface {
	Get(ptrs ...any) error
	GetRaw(p []byte) error
	GetUvarint() (uint64, error)
	GetVarint() (int64, error)
	GetText(f Framing) (string, error)
	GetBytes(f Framing) ([]byte, error)
	Skip(n int) error
	Good() bool
}

// Marshaler is implemented by types that write themselves to a stream.
// Errors from the stream should be returned as they are; under the Tolerant policy they are nil
// and the stream's state carries the fault.
type Marshaler interface {
	MarshalStream(w Writer) error
}

// Unmarshaler is implemented by types that read themselves from a stream.
type Unmarshaler interface {
	UnmarshalStream(r Reader) error
}

// Serializer is a type that can both write and read itself.
type Serializer interface {
	Marshaler
	Unmarshaler
}

var (
	_ Writer = (*Any)(nil)
	_ Reader = (*Any)(nil)
)

// Put writes each of vs in order, stopping at the first fault.
//
// Marshalers write themselves. Scalars are written in the stream's byte order,
// strings with its string framing and slices with its slice framing
// (VarintPrefix is used for slices other than []byte when the slice framing is NullTerminated).
// Arrays are written element by element without framing, structs field by field, skipping unexported fields,
// and pointers are followed.
// Values of any other kind return an error wrapping encio.ErrUnsupportedType before anything is written.
func (s *Stream[B]) Put(vs ...any) error {
	for _, v := range vs {
		if err := s.putAny(v); err != nil || s.state != StateOK {
			return err
		}
	}
	return nil
}

// Get reads into each of ptrs in order, stopping at the first fault. ptrs must be non-nil pointers.
// It reads what Put writes for the pointed to types.
// Values decoded before a fault keep their new contents; the value being decoded at the fault is left unchanged.
func (s *Stream[B]) Get(ptrs ...any) error {
	for _, p := range ptrs {
		if err := s.getAny(p); err != nil || s.state != StateOK {
			return err
		}
	}
	return nil
}

func (s *Stream[B]) putAny(v any) error {
	if s.state != StateOK {
		return s.failure()
	}

	switch v := v.(type) {
	case Marshaler:
		return v.MarshalStream(s)
	case bool:
		return Put(s, v)
	case int8:
		return Put(s, v)
	case uint8:
		return Put(s, v)
	case int16:
		return Put(s, v)
	case uint16:
		return Put(s, v)
	case int32:
		return Put(s, v)
	case uint32:
		return Put(s, v)
	case int64:
		return Put(s, v)
	case uint64:
		return Put(s, v)
	case float32:
		return Put(s, v)
	case float64:
		return Put(s, v)
	case string:
		return s.PutText(v, s.opts.stringFraming)
	case []byte:
		return s.PutBytes(v, s.opts.sliceFraming)
	case nil:
		return encio.NewError(encio.ErrUnsupportedType, "cannot put nil", 2)
	}

	rv := reflect.ValueOf(v)
	if err := checkType(rv.Type(), marshalDir); err != nil {
		return err
	}
	return s.putValue(addressable(rv))
}

func (s *Stream[B]) getAny(p any) error {
	if s.state != StateOK {
		return s.failure()
	}

	switch p := p.(type) {
	case Unmarshaler:
		return p.UnmarshalStream(s)
	case *bool:
		return getInto(s, p)
	case *int8:
		return getInto(s, p)
	case *uint8:
		return getInto(s, p)
	case *int16:
		return getInto(s, p)
	case *uint16:
		return getInto(s, p)
	case *int32:
		return getInto(s, p)
	case *uint32:
		return getInto(s, p)
	case *int64:
		return getInto(s, p)
	case *uint64:
		return getInto(s, p)
	case *float32:
		return getInto(s, p)
	case *float64:
		return getInto(s, p)
	case *string:
		str, err := s.GetText(s.opts.stringFraming)
		if err != nil || s.state != StateOK {
			return err
		}
		*p = str
		return nil
	case *[]byte:
		b, err := s.GetBytes(s.opts.sliceFraming)
		if err != nil || s.state != StateOK {
			return err
		}
		*p = b
		return nil
	case nil:
		return encio.NewError(encio.ErrUnsupportedType, "cannot get into nil", 2)
	}

	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return encio.NewError(encio.ErrUnsupportedType, fmt.Sprintf("cannot get into non-pointer %T", p), 2)
	}
	if err := checkType(rv.Type().Elem(), unmarshalDir); err != nil {
		return err
	}
	return s.getValue(rv.Elem())
}

func getInto[T encio.Scalar, B buffer.Readable](s *Stream[B], p *T) error {
	v, err := Get[T](s)
	if err != nil || s.state != StateOK {
		return err
	}
	*p = v
	return nil
}

// sliceFraming is the framing of slices other than []byte.
func (s *Stream[B]) sliceFraming() Framing {
	if s.opts.sliceFraming == NullTerminated {
		return VarintPrefix
	}
	return s.opts.sliceFraming
}

var (
	marshalerType   = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
)

func (s *Stream[B]) putValue(rv reflect.Value) error {
	if s.state != StateOK {
		return s.failure()
	}

	t := rv.Type()
	if t.Implements(marshalerType) {
		if k := rv.Kind(); (k == reflect.Pointer || k == reflect.Interface) && rv.IsNil() {
			return encio.NewError(encio.ErrUnsupportedType, "cannot put nil "+t.String(), 1)
		}
		return rv.Interface().(Marshaler).MarshalStream(s)
	}
	if rv.CanAddr() && reflect.PointerTo(t).Implements(marshalerType) {
		return rv.Addr().Interface().(Marshaler).MarshalStream(s)
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Put(s, rv.Bool())
	case reflect.Int:
		return Put(s, int(rv.Int()))
	case reflect.Int8:
		return Put(s, int8(rv.Int()))
	case reflect.Int16:
		return Put(s, int16(rv.Int()))
	case reflect.Int32:
		return Put(s, int32(rv.Int()))
	case reflect.Int64:
		return Put(s, rv.Int())
	case reflect.Uint:
		return Put(s, uint(rv.Uint()))
	case reflect.Uint8:
		return Put(s, uint8(rv.Uint()))
	case reflect.Uint16:
		return Put(s, uint16(rv.Uint()))
	case reflect.Uint32:
		return Put(s, uint32(rv.Uint()))
	case reflect.Uint64:
		return Put(s, rv.Uint())
	case reflect.Uintptr:
		return Put(s, uintptr(rv.Uint()))
	case reflect.Float32:
		return Put(s, float32(rv.Float()))
	case reflect.Float64:
		return Put(s, rv.Float())

	case reflect.String:
		return s.PutText(rv.String(), s.opts.stringFraming)

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !isSerializer(t.Elem()) {
			return s.PutBytes(rv.Bytes(), s.opts.sliceFraming)
		}
		if err := s.putCount(s.sliceFraming(), rv.Len()); err != nil || s.state != StateOK {
			return err
		}
		return s.putElements(rv)

	case reflect.Array:
		return s.putElements(rv)

	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if !serializedField(t.Field(i)) {
				continue
			}
			if err := s.putValue(rv.Field(i)); err != nil || s.state != StateOK {
				return err
			}
		}
		return nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return encio.NewError(encio.ErrUnsupportedType, "cannot put nil "+t.String(), 1)
		}
		elem := rv.Elem()
		if rv.Kind() == reflect.Interface {
			if err := checkType(elem.Type(), marshalDir); err != nil {
				return err
			}
			elem = addressable(elem)
		}
		return s.putValue(elem)
	}

	return encio.NewError(encio.ErrUnsupportedType, t.String(), 1)
}

// addressable returns rv, or an addressable copy of it,
// so methods with pointer receivers can be found on it and its fields.
func addressable(rv reflect.Value) reflect.Value {
	if rv.CanAddr() {
		return rv
	}
	c := reflect.New(rv.Type()).Elem()
	c.Set(rv)
	return c
}

// putElements writes the elements of a slice or array, in one write when their memory can be copied as is.
func (s *Stream[B]) putElements(rv reflect.Value) error {
	if raw, ok := s.rawElements(rv); ok {
		return s.write(raw)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := s.putValue(rv.Index(i)); err != nil || s.state != StateOK {
			return err
		}
	}
	return nil
}

// rawElements returns the memory of a slice or addressable array of scalars whose wire form is their memory.
func (s *Stream[B]) rawElements(rv reflect.Value) ([]byte, bool) {
	elem := rv.Type().Elem()
	if !scalarKind(elem.Kind()) || isSerializer(elem) || rv.Len() == 0 {
		return nil, false
	}
	if elem.Size() > 1 && s.opts.order.Resolve() != encio.HostOrder {
		return nil, false
	}

	var ptr unsafe.Pointer
	switch {
	case rv.Kind() == reflect.Slice:
		ptr = rv.UnsafePointer()
	case rv.CanAddr():
		ptr = rv.Addr().UnsafePointer()
	default:
		return nil, false
	}
	return unsafe.Slice((*byte)(ptr), rv.Len()*int(elem.Size())), true
}

func (s *Stream[B]) getValue(rv reflect.Value) error {
	if s.state != StateOK {
		return s.failure()
	}

	t := rv.Type()
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler).UnmarshalStream(s)
	}

	switch rv.Kind() {
	case reflect.Bool:
		v, err := Get[bool](s)
		if err != nil || s.state != StateOK {
			return err
		}
		rv.SetBool(v)
		return nil
	case reflect.Int:
		return getInt[int](s, rv)
	case reflect.Int8:
		return getInt[int8](s, rv)
	case reflect.Int16:
		return getInt[int16](s, rv)
	case reflect.Int32:
		return getInt[int32](s, rv)
	case reflect.Int64:
		return getInt[int64](s, rv)
	case reflect.Uint:
		return getUint[uint](s, rv)
	case reflect.Uint8:
		return getUint[uint8](s, rv)
	case reflect.Uint16:
		return getUint[uint16](s, rv)
	case reflect.Uint32:
		return getUint[uint32](s, rv)
	case reflect.Uint64:
		return getUint[uint64](s, rv)
	case reflect.Uintptr:
		return getUint[uintptr](s, rv)
	case reflect.Float32:
		return getFloat[float32](s, rv)
	case reflect.Float64:
		return getFloat[float64](s, rv)

	case reflect.String:
		str, err := s.GetText(s.opts.stringFraming)
		if err != nil || s.state != StateOK {
			return err
		}
		rv.SetString(str)
		return nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !isSerializer(t.Elem()) {
			b, err := s.GetBytes(s.opts.sliceFraming)
			if err != nil || s.state != StateOK {
				return err
			}
			rv.SetBytes(b)
			return nil
		}

		elemSize := int(t.Elem().Size())
		if scalarKind(t.Elem().Kind()) && !isSerializer(t.Elem()) {
			count, err := s.getFramed(s.sliceFraming(), elemSize)
			if err != nil || s.state != StateOK {
				return err
			}
			sl := reflect.MakeSlice(t, count, count)
			if err := s.getElements(sl); err != nil || s.state != StateOK {
				return err
			}
			rv.Set(sl)
			return nil
		}

		count, err := s.getCount(s.sliceFraming(), elemSize)
		if err != nil || s.state != StateOK {
			return err
		}

		// The wire size of these elements is unknown until they are decoded,
		// so the slice grows as they arrive rather than trusting count.
		sl := reflect.MakeSlice(t, 0, min(count, s.buf.Len()))
		zero := reflect.Zero(t.Elem())
		for i := 0; i < count; i++ {
			sl = reflect.Append(sl, zero)
			if err := s.getValue(sl.Index(i)); err != nil || s.state != StateOK {
				return err
			}
		}
		rv.Set(sl)
		return nil

	case reflect.Array:
		arr := reflect.New(t).Elem()
		if err := s.getElements(arr); err != nil || s.state != StateOK {
			return err
		}
		rv.Set(arr)
		return nil

	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if !serializedField(t.Field(i)) {
				continue
			}
			if err := s.getValue(rv.Field(i)); err != nil || s.state != StateOK {
				return err
			}
		}
		return nil

	case reflect.Pointer:
		if rv.IsNil() {
			v := reflect.New(t.Elem())
			if err := s.getValue(v.Elem()); err != nil || s.state != StateOK {
				return err
			}
			rv.Set(v)
			return nil
		}
		return s.getValue(rv.Elem())

	case reflect.Interface:
		// Only an interface already holding a non-nil pointer can be decoded into.
		if !rv.IsNil() && rv.Elem().Kind() == reflect.Pointer && !rv.Elem().IsNil() {
			if err := checkType(rv.Elem().Type().Elem(), unmarshalDir); err != nil {
				return err
			}
			return s.getValue(rv.Elem().Elem())
		}
	}

	return encio.NewError(encio.ErrUnsupportedType, t.String(), 1)
}

// getElements reads the elements of an addressable array or a slice.
func (s *Stream[B]) getElements(rv reflect.Value) error {
	if raw, ok := s.rawElements(rv); ok {
		return s.read(raw)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := s.getValue(rv.Index(i)); err != nil || s.state != StateOK {
			return err
		}
	}
	return nil
}

func getInt[T int | int8 | int16 | int32 | int64, B buffer.Readable](s *Stream[B], rv reflect.Value) error {
	v, err := Get[T](s)
	if err != nil || s.state != StateOK {
		return err
	}
	rv.SetInt(int64(v))
	return nil
}

func getUint[T uint | uint8 | uint16 | uint32 | uint64 | uintptr, B buffer.Readable](s *Stream[B], rv reflect.Value) error {
	v, err := Get[T](s)
	if err != nil || s.state != StateOK {
		return err
	}
	rv.SetUint(uint64(v))
	return nil
}

func getFloat[T float32 | float64, B buffer.Readable](s *Stream[B], rv reflect.Value) error {
	v, err := Get[T](s)
	if err != nil || s.state != StateOK {
		return err
	}
	rv.SetFloat(float64(v))
	return nil
}

func scalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isSerializer(t reflect.Type) bool {
	p := reflect.PointerTo(t)
	return t.Implements(marshalerType) || p.Implements(marshalerType) || p.Implements(unmarshalerType)
}

func serializedField(f reflect.StructField) bool {
	return f.IsExported() && f.Name != "_"
}

type direction uint8

const (
	marshalDir direction = iota
	unmarshalDir
)

type typeKey struct {
	t   reflect.Type
	dir direction
}

// checked caches the result of checkType; typeKey to error.
var checked sync.Map

// checkType returns an error wrapping encio.ErrUnsupportedType if values of t cannot be written or read.
// Interface values are checked again when their dynamic type is known.
func checkType(t reflect.Type, dir direction) error {
	key := typeKey{t: t, dir: dir}
	if err, ok := checked.Load(key); ok {
		if err == nil {
			return nil
		}
		return err.(error)
	}

	err := walkType(t, dir, make(map[reflect.Type]bool))
	checked.Store(key, err)
	return err
}

func walkType(t reflect.Type, dir direction, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true

	p := reflect.PointerTo(t)
	switch dir {
	case marshalDir:
		if t.Implements(marshalerType) || p.Implements(marshalerType) {
			return nil
		}
	case unmarshalDir:
		if p.Implements(unmarshalerType) {
			return nil
		}
	}

	switch k := t.Kind(); {
	case scalarKind(k), k == reflect.String, k == reflect.Interface:
		return nil
	case k == reflect.Slice, k == reflect.Array, k == reflect.Pointer:
		return walkType(t.Elem(), dir, seen)
	case k == reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !serializedField(f) {
				continue
			}
			if err := walkType(f.Type, dir, seen); err != nil {
				return fmt.Errorf("field %v of %v: %w", f.Name, t, err)
			}
		}
		return nil
	}
	return encio.NewError(encio.ErrUnsupportedType, t.String(), 0)
}
