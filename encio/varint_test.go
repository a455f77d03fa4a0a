package encio_test

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/binstream/encio"
)

var uvarintCases = []uint64{
	0, 1, 2, 3, 4,
	126, 127, 128, 129, 255, 256,
	1<<14 - 1, 1 << 14, 1<<21 - 1, 1 << 21,
	1 << 28, 1<<32 - 1, 1 << 35, 1 << 42, 1 << 49, 1 << 56, 1 << 63,
	math.MaxUint64,
}

func TestUvarint(t *testing.T) {
	enc := encio.Uvarint{}

	for _, tC := range uvarintCases {
		t.Run(fmt.Sprint(tC), func(t *testing.T) {
			encoded := enc.Encode(tC)

			want := (bits.Len64(tC) + 6) / 7
			if want == 0 {
				want = 1
			}
			if len(encoded) != want {
				t.Fatalf("encoded %v in %v bytes, wanted %v", tC, len(encoded), want)
			}
			if encio.UvarintLen(tC) != want {
				t.Fatalf("UvarintLen(%v) = %v, wanted %v", tC, encio.UvarintLen(tC), want)
			}

			buff := bytes.NewBuffer(append([]byte(nil), encoded...))
			var dec encio.Uvarint
			n, err := dec.Decode(buff)
			if err != nil {
				t.Fatal(err)
			}

			if n != tC {
				t.Fatalf("Wrong number, wanted: %v, got %v", tC, n)
			}

			if buff.Len() != 0 {
				t.Fatalf("data remaining in buffer %v", buff.Bytes())
			}

			got, size := encio.DecodeUvarint(encoded)
			td.Cmp(t, got, tC)
			td.Cmp(t, size, len(encoded))
		})
	}
}

func TestUvarintLayout(t *testing.T) {
	var enc encio.Uvarint
	td.Cmp(t, enc.Encode(0), []byte{0x00})
	td.Cmp(t, enc.Encode(1), []byte{0x01})
	td.Cmp(t, enc.Encode(127), []byte{0x7f})
	td.Cmp(t, enc.Encode(128), []byte{0x80, 0x01})
	td.Cmp(t, enc.Encode(300), []byte{0xac, 0x02})
}

func TestUvarintMalformed(t *testing.T) {
	t.Run("truncated", func(t *testing.T) {
		var dec encio.Uvarint
		_, err := dec.Decode(bytes.NewReader([]byte{0x80, 0x80}))
		if err == nil {
			t.Fatal("expected error decoding truncated varint")
		}

		got, n := encio.DecodeUvarint([]byte{0x80, 0x80})
		td.Cmp(t, got, uint64(0))
		td.Cmp(t, n, 0)
	})

	t.Run("overflow", func(t *testing.T) {
		overflow := bytes.Repeat([]byte{0xff}, 9)
		overflow = append(overflow, 0x02)

		var dec encio.Uvarint
		_, err := dec.Decode(bytes.NewReader(overflow))
		if !errors.Is(err, encio.ErrMalformed) {
			t.Fatalf("wanted ErrMalformed, got %v", err)
		}

		_, n := encio.DecodeUvarint(overflow)
		if n >= 0 {
			t.Fatalf("wanted negative size for overflow, got %v", n)
		}
	})
}

func TestZigZag(t *testing.T) {
	testCases := []struct {
		in   int64
		want uint64
	}{
		{0, 0}, {-1, 1}, {1, 2}, {-2, 3}, {2, 4},
		{math.MaxInt64, math.MaxUint64 - 1}, {math.MinInt64, math.MaxUint64},
	}

	for _, tC := range testCases {
		td.Cmp(t, encio.ZigZag(tC.in), tC.want, "ZigZag(%v)", tC.in)
		td.Cmp(t, encio.UnZigZag(tC.want), tC.in, "UnZigZag(%v)", tC.want)
	}
}

func BenchmarkUvarint(b *testing.B) {
	var enc encio.Uvarint
	for i := 0; i < b.N; i++ {
		encoded := enc.Encode(uint64(i))
		encio.DecodeUvarint(encoded)
	}
}
