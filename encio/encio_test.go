package encio_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/binstream/encio"
)

// trickleWriter writes at most n bytes per call.
type trickleWriter struct {
	bytes.Buffer
	n int
}

func (w *trickleWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		p = p[:w.n]
	}
	return w.Buffer.Write(p)
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 1, io.ErrClosedPipe
}

func TestWriteFull(t *testing.T) {
	payload := []byte("the quick brown fox")

	t.Run("short writes", func(t *testing.T) {
		w := &trickleWriter{n: 3}
		if err := encio.WriteFull(payload, w); err != nil {
			t.Fatal(err)
		}
		td.Cmp(t, w.Bytes(), payload)
	})

	t.Run("failing writer", func(t *testing.T) {
		err := encio.WriteFull(payload, failWriter{})
		td.CmpTrue(t, errors.Is(err, io.ErrClosedPipe))
		td.CmpTrue(t, errors.Is(err, encio.ErrWriteFailure))
	})
}

func TestBoundsError(t *testing.T) {
	var err error = &encio.BoundsError{
		Err:       encio.ErrReadLimit,
		Requested: 4,
		Consumed:  6,
		Available: 8,
	}

	td.CmpTrue(t, errors.Is(err, encio.ErrReadLimit))
	td.CmpFalse(t, errors.Is(err, encio.ErrBufferUnderrun))

	var bounds *encio.BoundsError
	if !errors.As(err, &bounds) {
		t.Fatal("errors.As failed for *BoundsError")
	}
	td.Cmp(t, bounds.Requested, 4)
	td.Cmp(t, err.Error(), "read limit exceeded: read of 4 bytes with 6 of 8 already read")
}

func TestError(t *testing.T) {
	err := encio.NewError(encio.ErrMalformed, "bad prefix", 0)
	td.CmpTrue(t, errors.Is(err, encio.ErrMalformed))
	td.CmpRe(t, err.Error(), `TestError: malformed \(bad prefix\)$`, nil)
}
