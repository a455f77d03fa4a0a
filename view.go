package binstream

import (
	"github.com/stewi1014/binstream/encio"
)

// View returns the bytes up to the next term and consumes them along with the terminator.
// The returned slice aliases the buffer and is only valid until the buffer is next written or reset.
// The buffer must be contiguous. If term is not buffered, the read faults with StateBufferUnderrun and nothing is consumed.
func (s *Stream[B]) View(term byte) ([]byte, error) {
	if s.state != StateOK {
		return nil, s.failure()
	}
	if s.contig == nil {
		return nil, encio.NewError(encio.ErrCapability, "buffer is not contiguous", 1)
	}

	n := s.buf.IndexByte(term)
	if n < 0 {
		s.reserve(s.buf.Len() + 1)
		return nil, s.failure()
	}
	if !s.reserve(n + 1) {
		return nil, s.failure()
	}

	view := s.contig.Bytes()[:n:n]
	if err := s.skip(n + 1); err != nil || s.state != StateOK {
		return nil, err
	}
	return view, nil
}

// Span returns the next n bytes and consumes them.
// As with View, the slice aliases the buffer and the buffer must be contiguous.
func (s *Stream[B]) Span(n int) ([]byte, error) {
	if s.state != StateOK {
		return nil, s.failure()
	}
	if s.contig == nil {
		return nil, encio.NewError(encio.ErrCapability, "buffer is not contiguous", 1)
	}
	if !s.reserve(n) {
		return nil, s.failure()
	}

	span := s.contig.Bytes()[:n:n]
	if err := s.skip(n); err != nil || s.state != StateOK {
		return nil, err
	}
	return span, nil
}
