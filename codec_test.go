package binstream_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/binstream"
	"github.com/stewi1014/binstream/buffer"
	"github.com/stewi1014/binstream/encio"
)

func TestCString(t *testing.T) {
	b := buffer.NewBytes(nil)
	s := binstream.New(b)

	td.CmpNoError(t, s.PutCString("abc"))
	td.Cmp(t, b.Bytes(), []byte{0x61, 0x62, 0x63, 0x00})
	td.CmpNoError(t, binstream.Put(s, uint8(0x7f)))

	str, err := s.GetCString()
	td.CmpNoError(t, err)
	td.Cmp(t, str, "abc")
	td.Cmp(t, s.TotalRead(), uint64(4))
	td.Cmp(t, b.Bytes(), []byte{0x7f}, "positioned just past the terminator")
}

func TestCStringErrors(t *testing.T) {
	t.Run("unterminated", func(t *testing.T) {
		b := buffer.NewBytes([]byte("abc"))
		s := binstream.New(b)

		_, err := s.GetCString()
		td.Cmp(t, err, &encio.BoundsError{
			Err:       encio.ErrBufferUnderrun,
			Requested: 4,
			Consumed:  0,
			Available: 3,
		})
		td.Cmp(t, b.Len(), 3)
	})

	t.Run("embedded terminator", func(t *testing.T) {
		b := buffer.NewBytes(nil)
		s := binstream.New(b)

		err := s.PutCString("a\x00b")
		td.CmpTrue(t, errors.Is(err, encio.ErrMalformed))
		td.Cmp(t, s.State(), binstream.StateMalformed)
		td.Cmp(t, b.Len(), 0)
	})

	t.Run("read limit", func(t *testing.T) {
		s := binstream.New(buffer.NewBytes([]byte("hello\x00")), binstream.WithReadLimit(5))

		_, err := s.GetCString()
		td.CmpTrue(t, errors.Is(err, encio.ErrReadLimit), "the terminator counts towards the limit")
	})
}

func TestPrefixedStrings(t *testing.T) {
	b := buffer.NewBytes(nil)
	s := binstream.New(b)

	td.CmpNoError(t, s.PutPrefixed("hi"))
	td.Cmp(t, b.Bytes(), []byte{2, 0, 0, 0, 'h', 'i'})
	got, err := s.GetPrefixed()
	td.CmpNoError(t, err)
	td.Cmp(t, got, "hi")

	long := string(make([]byte, 300))
	td.CmpNoError(t, s.PutVarPrefixed(long))
	td.Cmp(t, b.Bytes()[:2], []byte{0xac, 0x02})
	td.Cmp(t, b.Len(), 302)
	got, err = s.GetVarPrefixed()
	td.CmpNoError(t, err)
	td.Cmp(t, got, long)

	td.CmpNoError(t, s.PutRaw([]byte("fixed")))
	got, err = s.GetString(5)
	td.CmpNoError(t, err)
	td.Cmp(t, got, "fixed")
}

func TestPrefixedAtomic(t *testing.T) {
	b := buffer.NewBytes([]byte{10, 0, 0, 0, 'a', 'b', 'c'})
	s := binstream.New(b)

	_, err := s.GetPrefixed()
	td.Cmp(t, err, &encio.BoundsError{
		Err:       encio.ErrBufferUnderrun,
		Requested: 14,
		Consumed:  0,
		Available: 7,
	})
	td.Cmp(t, b.Len(), 7, "prefix is not consumed when the payload is short")
}

func TestOversizedPrefix(t *testing.T) {
	b := buffer.NewBytes([]byte{0xff, 0xff, 0xff, 0xff, 0x0f})
	s := binstream.New(b)

	_, err := s.GetVarPrefixed()
	td.CmpTrue(t, errors.Is(err, encio.ErrMalformed))
	td.Cmp(t, s.State(), binstream.StateMalformed)
	td.Cmp(t, b.Len(), 5)
}

func TestOversizedCounts(t *testing.T) {
	prefixes := map[binstream.Framing][]byte{
		binstream.FixedPrefix:  {0xff, 0xff, 0xff, 0xff},
		binstream.VarintPrefix: {0xff, 0xff, 0xff, 0xff, 0x0f},
	}
	gets := map[string]func(s *binstream.Stream[*buffer.Bytes], f binstream.Framing) error{
		"GetSlice": func(s *binstream.Stream[*buffer.Bytes], f binstream.Framing) error {
			_, err := binstream.GetSlice[uint32](s, f)
			return err
		},
		"Get uint64s": func(s *binstream.Stream[*buffer.Bytes], f binstream.Framing) error {
			var v []uint64
			return s.Get(&v)
		},
		"Get strings": func(s *binstream.Stream[*buffer.Bytes], f binstream.Framing) error {
			var v []string
			return s.Get(&v)
		},
	}

	for f, prefix := range prefixes {
		for name, get := range gets {
			t.Run(f.String()+"/"+name, func(t *testing.T) {
				b := buffer.NewBytes(append([]byte(nil), prefix...))
				s := binstream.New(b, binstream.WithSliceFraming(f))

				err := get(s, f)
				td.CmpTrue(t, errors.Is(err, encio.ErrMalformed))
				td.Cmp(t, s.State(), binstream.StateMalformed)
				td.Cmp(t, b.Len(), len(prefix), "nothing is consumed")
			})
		}
	}
}

func TestFramingBytes(t *testing.T) {
	for _, f := range []binstream.Framing{binstream.NullTerminated, binstream.FixedPrefix, binstream.VarintPrefix} {
		t.Run(f.String(), func(t *testing.T) {
			s := binstream.New(newDynamic(t, 4))
			td.CmpNoError(t, s.PutBytes([]byte("payload"), f))
			td.CmpNoError(t, s.PutText("", f))

			p, err := s.GetBytes(f)
			td.CmpNoError(t, err)
			td.Cmp(t, p, []byte("payload"))
			str, err := s.GetText(f)
			td.CmpNoError(t, err)
			td.Cmp(t, str, "")
			td.CmpTrue(t, s.Empty())

			parsed, ok := binstream.ParseFraming(f.String())
			td.CmpTrue(t, ok)
			td.Cmp(t, parsed, f)
		})
	}
}

func TestVarint(t *testing.T) {
	b := buffer.NewBytes(nil)
	s := binstream.New(b)

	td.CmpNoError(t, s.PutUvarint(0))
	td.CmpNoError(t, s.PutUvarint(300))
	td.CmpNoError(t, s.PutVarint(-3))
	td.Cmp(t, b.Bytes(), []byte{0x00, 0xac, 0x02, 0x05})

	u, err := s.GetUvarint()
	td.CmpNoError(t, err)
	td.Cmp(t, u, uint64(0))
	u, err = s.GetUvarint()
	td.CmpNoError(t, err)
	td.Cmp(t, u, uint64(300))
	i, err := s.GetVarint()
	td.CmpNoError(t, err)
	td.Cmp(t, i, int64(-3))
	td.Cmp(t, s.TotalRead(), uint64(4))
}

func TestVarintErrors(t *testing.T) {
	t.Run("truncated", func(t *testing.T) {
		b := buffer.NewBytes([]byte{0x80, 0x80})
		s := binstream.New(b)

		_, err := s.GetUvarint()
		td.Cmp(t, err, &encio.BoundsError{
			Err:       encio.ErrBufferUnderrun,
			Requested: 3,
			Consumed:  0,
			Available: 2,
		})
		td.Cmp(t, b.Len(), 2, "nothing consumed mid-sequence")
	})

	t.Run("overlong", func(t *testing.T) {
		over := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}
		s := binstream.New(buffer.NewBytes(over))

		_, err := s.GetUvarint()
		td.CmpTrue(t, errors.Is(err, encio.ErrMalformed))
		td.Cmp(t, s.State(), binstream.StateMalformed)
	})

	t.Run("read limit", func(t *testing.T) {
		s := binstream.New(buffer.NewBytes([]byte{0xac, 0x02}), binstream.WithReadLimit(1))

		_, err := s.GetUvarint()
		td.CmpTrue(t, errors.Is(err, encio.ErrReadLimit))
	})
}

func TestVarintPrefixedSlice(t *testing.T) {
	d := newDynamic(t, 8)
	s := binstream.New(d)

	td.CmpNoError(t, binstream.PutSlice(s, []uint32{1, 2, 3, 4, 5}, binstream.VarintPrefix))
	td.Cmp(t, d.Len(), 1+5*4)

	got, err := binstream.GetSlice[uint32](s, binstream.VarintPrefix)
	td.CmpNoError(t, err)
	td.Cmp(t, got, []uint32{1, 2, 3, 4, 5})
	td.CmpTrue(t, d.Empty())
}

func TestSliceFramings(t *testing.T) {
	for _, order := range []encio.ByteOrder{encio.LittleEndian, encio.BigEndian} {
		for _, f := range []binstream.Framing{binstream.NullTerminated, binstream.FixedPrefix, binstream.VarintPrefix} {
			t.Run(order.String()+"/"+f.String(), func(t *testing.T) {
				s := binstream.New(newDynamic(t, 16), binstream.WithByteOrder(order))
				in := []int16{-1, 2, 0x0102, -300}

				td.CmpNoError(t, binstream.PutSlice(s, in, f))
				td.CmpNoError(t, binstream.PutSlice(s, []int16{}, f))

				got, err := binstream.GetSlice[int16](s, f)
				td.CmpNoError(t, err)
				td.Cmp(t, got, in)
				got, err = binstream.GetSlice[int16](s, f)
				td.CmpNoError(t, err)
				td.CmpLen(t, got, 0)
				td.CmpTrue(t, s.Empty())
			})
		}
	}
}

func TestLongNullTerminatedSlice(t *testing.T) {
	for _, n := range []int{63, 64, 65, 200} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			d := newDynamic(t, 8)
			s := binstream.New(d, binstream.WithByteOrder(encio.BigEndian))

			in := make([]uint32, n)
			for i := range in {
				in[i] = uint32(i + 1)
			}
			td.CmpNoError(t, binstream.PutSlice(s, in, binstream.NullTerminated))
			td.CmpNoError(t, s.PutRaw([]byte{7}))

			got, err := binstream.GetSlice[uint32](s, binstream.NullTerminated)
			td.CmpNoError(t, err)
			td.Cmp(t, got, in)
			td.Cmp(t, d.Len(), 1)
		})
	}

	t.Run("unterminated", func(t *testing.T) {
		d := newDynamic(t, 8)
		s := binstream.New(d)
		for i := 0; i < 150; i++ {
			td.CmpNoError(t, binstream.PutOrder(s, uint32(1), encio.LittleEndian))
		}
		// A zero run that does not fill an element is not a terminator.
		td.CmpNoError(t, s.PutRaw([]byte{0, 0}))

		_, err := binstream.GetSlice[uint32](s, binstream.NullTerminated)
		td.CmpTrue(t, errors.Is(err, encio.ErrBufferUnderrun))
		td.Cmp(t, d.Len(), 602, "nothing is consumed")
	})
}

func TestSliceLayout(t *testing.T) {
	b := buffer.NewBytes(nil)
	s := binstream.New(b, binstream.WithByteOrder(encio.BigEndian))

	td.CmpNoError(t, binstream.PutSlice(s, []uint16{0x0102, 0x0304}, binstream.FixedPrefix))
	td.Cmp(t, b.Bytes(), []byte{2, 0, 0, 0, 1, 2, 3, 4}, "counts are always little endian")
	b.Reset()

	td.CmpNoError(t, binstream.PutSlice(s, []uint16{0x0102}, binstream.NullTerminated))
	td.Cmp(t, b.Bytes(), []byte{1, 2, 0, 0})
	b.Reset()

	err := binstream.PutSlice(s, []uint16{1, 0, 2}, binstream.NullTerminated)
	td.CmpTrue(t, errors.Is(err, encio.ErrMalformed))
	td.Cmp(t, b.Len(), 0)
}

func TestSliceShort(t *testing.T) {
	b := buffer.NewBytes([]byte{3, 1, 0, 0, 0, 2, 0, 0, 0})
	s := binstream.New(b)

	_, err := binstream.GetSlice[uint32](s, binstream.VarintPrefix)
	td.CmpTrue(t, errors.Is(err, encio.ErrBufferUnderrun))
	td.Cmp(t, b.Len(), 9)
}

// point writes itself as two big endian int16s.
type point struct {
	X, Y int16
}

func (p point) MarshalStream(w binstream.Writer) error {
	return w.Put(binstream.BE(p.X), binstream.BE(p.Y))
}

func (p *point) UnmarshalStream(r binstream.Reader) error {
	x, y := binstream.BE(int16(0)), binstream.BE(int16(0))
	if err := r.Get(&x, &y); err != nil || !r.Good() {
		return err
	}
	p.X, p.Y = x.Value, y.Value
	return nil
}

func TestSerializers(t *testing.T) {
	b := buffer.NewBytes(nil)
	s := binstream.New(b)

	in := []point{{1, 2}, {-1, 300}}
	td.CmpNoError(t, binstream.PutSerializers(s, in, binstream.FixedPrefix))
	td.Cmp(t, b.Bytes(), []byte{2, 0, 0, 0, 0, 1, 0, 2, 0xff, 0xff, 0x01, 0x2c})

	got, err := binstream.GetSerializers[point](s, binstream.FixedPrefix)
	td.CmpNoError(t, err)
	td.Cmp(t, got, in)
}

func TestSliceFunc(t *testing.T) {
	s := binstream.New(newDynamic(t, 8))
	in := []string{"one", "two", "three"}

	err := binstream.PutSliceFunc(s, in, binstream.VarintPrefix, func(s *binstream.Stream[*buffer.Dynamic], v string) error {
		return s.PutVarPrefixed(v)
	})
	td.CmpNoError(t, err)

	got, err := binstream.GetSliceFunc(s, binstream.VarintPrefix, func(s *binstream.Stream[*buffer.Dynamic]) (string, error) {
		return s.GetVarPrefixed()
	})
	td.CmpNoError(t, err)
	td.Cmp(t, got, in)

	err = binstream.PutSliceFunc(s, in, binstream.NullTerminated, func(s *binstream.Stream[*buffer.Dynamic], v string) error {
		return s.PutCString(v)
	})
	td.CmpTrue(t, errors.Is(err, encio.ErrCapability))
}
