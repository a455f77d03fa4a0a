// Package binstream reads and writes typed binary data through byte buffers.
//
// A Stream borrows one buffer and moves scalars, strings, slices and user types in and out of it.
// Every read is bounds checked before any byte is consumed, against both the bytes buffered and an optional
// lifetime read limit, so a rejected read never leaves a value half decoded.
//
// Faults move the stream into a sticky error state. Under the Strict policy the failing call returns a structured
// error; under Tolerant it returns nil and the caller checks Good or Err after a batch of calls.
//
// Streams are generic over the buffer. Stream[*buffer.Dynamic] calls the buffer's methods directly, while
// Stream[buffer.Readable] (Any) holds any buffer behind an interface. Both share the implementation below.
//
// Scalars without an explicit byte order are written in the stream's default order, which is the host's
// unless WithByteOrder says otherwise. Formats that cross machines should set one.
package binstream

import (
	"errors"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"

	"github.com/stewi1014/binstream/buffer"
	"github.com/stewi1014/binstream/encio"
)

// InvalidTotal is the TotalRead of a stream that has been moved from.
const InvalidTotal = math.MaxUint64

// Any is a stream over a buffer known only by its capabilities.
type Any = Stream[buffer.Readable]

// New returns a stream reading from and, if it is writable, writing to b.
// The stream borrows b; it must not be used after b is released.
func New[B buffer.Readable](b B, opts ...Option) *Stream[B] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = encio.Log
	}

	s := &Stream[B]{
		buf:  b,
		opts: o,
		caps: buffer.CapsOf(b),
	}

	var iface interface{} = b
	if s.caps.Has(buffer.CapWrite) {
		s.w = iface.(buffer.Writable)
	}
	if s.caps.Has(buffer.CapSeek) {
		s.seek = iface.(buffer.Seekable)
	}
	if s.caps.Has(buffer.CapContiguous) {
		s.contig = iface.(buffer.Contiguous)
	}
	return s
}

// Stream performs bounds checked typed reads and writes on a buffer.
// A Stream is not safe for concurrent use.
type Stream[B buffer.Readable] struct {
	buf  B
	opts options
	caps buffer.Caps

	w      buffer.Writable
	seek   buffer.Seekable
	contig buffer.Contiguous

	totalRead  uint64
	totalWrite uint64
	// wpos is the write cursor relative to the first byte the stream wrote. It only differs from totalWrite after a seek.
	wpos uint64

	state State
	err   error
}

// Buffer returns the stream's buffer.
func (s *Stream[B]) Buffer() B { return s.buf }

// Caps returns the capabilities of the stream's buffer.
func (s *Stream[B]) Caps() buffer.Caps { return s.caps }

// CanWriteSeek reports whether the buffer supports WriteSeek.
func (s *Stream[B]) CanWriteSeek() bool { return s.seek != nil }

// Len returns the number of bytes buffered and not yet read.
func (s *Stream[B]) Len() int { return s.buf.Len() }

// Empty reports whether the buffer has nothing left to read.
func (s *Stream[B]) Empty() bool { return s.buf.Empty() }

// TotalRead returns the number of bytes read through the stream, or InvalidTotal if it was moved from.
func (s *Stream[B]) TotalRead() uint64 { return s.totalRead }

// TotalWrite returns the number of bytes written through the stream, not counting bytes overwritten after a seek.
func (s *Stream[B]) TotalWrite() uint64 { return s.totalWrite }

// ReadLimit returns the read limit given at construction; zero if there is none.
func (s *Stream[B]) ReadLimit() uint64 { return s.opts.readLimit }

// ReadMax returns how many bytes can be read before a read faults.
func (s *Stream[B]) ReadMax() int {
	n := s.buf.Len()
	if l := s.opts.readLimit; l != 0 {
		var left uint64
		if s.totalRead < l {
			left = l - s.totalRead
		}
		if left < uint64(n) {
			n = int(left)
		}
	}
	return n
}

// Policy returns the stream's fault policy.
func (s *Stream[B]) Policy() Policy { return s.opts.policy }

// ByteOrder returns the order of scalars written without an explicit order.
func (s *Stream[B]) ByteOrder() encio.ByteOrder { return s.opts.order }

// State returns the stream's state.
func (s *Stream[B]) State() State { return s.state }

// Good reports whether the stream is in StateOK.
func (s *Stream[B]) Good() bool { return s.state == StateOK }

// Err returns the error that moved the stream out of StateOK, or nil.
func (s *Stream[B]) Err() error { return s.err }

// ClearErrorState returns the stream to StateOK. It has no effect on an invalid stream.
func (s *Stream[B]) ClearErrorState() {
	if s.state == StateInvalid {
		return
	}
	s.state = StateOK
	s.err = nil
}

// SetErrorState moves the stream into StateUserDefinedError, aborting whatever chain of calls is in progress.
func (s *Stream[B]) SetErrorState() {
	if s.state == StateInvalid {
		return
	}
	s.fault(StateUserDefinedError, encio.NewError(encio.ErrUserDefined, "error state set by caller", 1))
}

// Move returns a new stream taking over s's buffer, counters and state.
// s is left in StateInvalid with TotalRead InvalidTotal, and every call on it fails.
func (s *Stream[B]) Move() *Stream[B] {
	moved := *s
	s.totalRead = InvalidTotal
	s.state = StateInvalid
	s.err = encio.NewError(encio.ErrInvalidStream, "stream was moved", 1)
	return &moved
}

// fault moves the stream into state, reporting err.
func (s *Stream[B]) fault(state State, err error) {
	s.state = state
	s.err = err
	s.opts.log.Debug("stream fault",
		zap.Stringer("state", state),
		zap.Uint64("total_read", s.totalRead),
		zap.Uint64("total_write", s.totalWrite),
		zap.Error(err),
	)
	if s.opts.onFault != nil {
		s.opts.onFault(err)
	}
}

// failure is what a call returns when the stream is not in StateOK.
func (s *Stream[B]) failure() error {
	if s.opts.policy == Tolerant && s.state != StateInvalid {
		return nil
	}
	return s.err
}

// malformed faults with StateMalformed.
func (s *Stream[B]) malformed(message string) error {
	s.fault(StateMalformed, encio.NewError(encio.ErrMalformed, message, 1))
	return s.failure()
}

// reserve checks that n more bytes may be read, faulting if not.
// The read limit is checked first, so a read that breaks both reports the limit.
func (s *Stream[B]) reserve(n int) bool {
	if s.state != StateOK {
		return false
	}

	if l := s.opts.readLimit; l != 0 && (n < 0 || s.totalRead+uint64(n) > l) {
		s.fault(StateReadLimitExceeded, &encio.BoundsError{
			Err:       encio.ErrReadLimit,
			Requested: n,
			Consumed:  int(s.totalRead),
			Available: int(l),
		})
		return false
	}

	if avail := s.buf.Len(); n < 0 || n > avail {
		s.fault(StateBufferUnderrun, &encio.BoundsError{
			Err:       encio.ErrBufferUnderrun,
			Requested: n,
			Consumed:  int(s.totalRead),
			Available: avail,
		})
		return false
	}
	return true
}

// read fills p from the buffer, or consumes nothing.
func (s *Stream[B]) read(p []byte) error {
	if !s.reserve(len(p)) {
		return s.failure()
	}
	if len(p) == 0 {
		return nil
	}

	n, err := s.buf.Read(p)
	s.consumed(n)
	if n != len(p) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		s.fault(StateBufferUnderrun, fmt.Errorf("%w: buffer gave %v of %v reserved bytes: %w",
			encio.ErrBufferUnderrun, n, len(p), err))
		return s.failure()
	}
	return nil
}

// skip consumes n bytes.
func (s *Stream[B]) skip(n int) error {
	if !s.reserve(n) {
		return s.failure()
	}
	got := s.buf.Skip(n)
	s.consumed(got)
	if got != n {
		s.fault(StateBufferUnderrun, fmt.Errorf("%w: buffer skipped %v of %v reserved bytes",
			encio.ErrBufferUnderrun, got, n))
		return s.failure()
	}
	return nil
}

// write hands p to the buffer.
func (s *Stream[B]) write(p []byte) error {
	if s.state != StateOK {
		return s.failure()
	}
	if s.w == nil {
		return encio.NewError(encio.ErrCapability, "buffer is not writable", 1)
	}
	if len(p) == 0 {
		return nil
	}

	n, err := s.w.Write(p)
	s.advance(n)
	if n != len(p) || err != nil {
		switch {
		case err == nil:
			err = encio.NewIOError(io.ErrShortWrite, fmt.Sprintf("buffer took %v of %v bytes", n, len(p)))
		case !errors.Is(err, encio.ErrWriteFailure):
			err = encio.NewIOError(err, fmt.Sprintf("buffer took %v of %v bytes", n, len(p)))
		}
		s.fault(StateWriteError, err)
		return s.failure()
	}
	return nil
}

// consumed counts n bytes read.
// A read that passes a rewound write cursor drags the cursor along with it, as the buffer does.
func (s *Stream[B]) consumed(n int) {
	s.totalRead += uint64(n)
	if l := uint64(s.buf.Len()); s.totalWrite-s.wpos > l {
		s.wpos = s.totalWrite - l
	}
}

// advance moves the write cursor over n written bytes.
func (s *Stream[B]) advance(n int) {
	s.wpos += uint64(n)
	if s.wpos > s.totalWrite {
		s.totalWrite = s.wpos
	}
}

// Skip discards n bytes.
func (s *Stream[B]) Skip(n int) error {
	return s.skip(n)
}

// PutRaw writes p verbatim.
func (s *Stream[B]) PutRaw(p []byte) error {
	return s.write(p)
}

// GetRaw fills p with the next len(p) bytes.
func (s *Stream[B]) GetRaw(p []byte) error {
	return s.read(p)
}

// Fill writes n copies of c.
func (s *Stream[B]) Fill(n int, c byte) error {
	var chunk [64]byte
	if c != 0 {
		for i := range chunk {
			chunk[i] = c
		}
	}
	for n > 0 {
		k := n
		if k > len(chunk) {
			k = len(chunk)
		}
		if err := s.write(chunk[:k]); err != nil || s.state != StateOK {
			return err
		}
		n -= k
	}
	return nil
}
