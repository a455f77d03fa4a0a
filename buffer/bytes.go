package buffer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/stewi1014/binstream/encio"
)

// NewBytes returns a Bytes buffer whose unread data is p. The buffer takes ownership of p.
func NewBytes(p []byte) *Bytes {
	return &Bytes{buff: p}
}

// Bytes is a contiguous growable buffer. It operates similar to bytes.Buffer,
// but supports write seeking and never returns an error from Write.
type Bytes struct {
	buff []byte
	off  int
	back int
}

var (
	_ Buffer     = (*Bytes)(nil)
	_ Seekable   = (*Bytes)(nil)
	_ Contiguous = (*Bytes)(nil)
)

// Read implements io.Reader.
func (b *Bytes) Read(p []byte) (int, error) {
	if b.Empty() && len(p) > 0 {
		return 0, io.EOF
	}
	n := copy(p, b.buff[b.off:])
	b.consumed(n)
	return n, nil
}

// ReadByte implements io.ByteReader.
func (b *Bytes) ReadByte() (byte, error) {
	if b.Empty() {
		return 0, io.EOF
	}
	c := b.buff[b.off]
	b.consumed(1)
	return c, nil
}

// Write implements io.Writer.
func (b *Bytes) Write(p []byte) (int, error) {
	n := 0
	if b.back > 0 {
		n = copy(b.buff[len(b.buff)-b.back:], p)
		b.back -= n
		p = p[n:]
	}
	if len(p) > 0 {
		n += copy(b.buff[b.grow(len(p)):], p)
	}
	return n, nil
}

// WriteByte implements io.ByteWriter.
func (b *Bytes) WriteByte(c byte) error {
	if b.back > 0 {
		b.buff[len(b.buff)-b.back] = c
		b.back--
		return nil
	}
	b.buff[b.grow(1)] = c
	return nil
}

// Len implements Readable.
func (b *Bytes) Len() int { return len(b.buff) - b.off }

// Empty implements Readable.
func (b *Bytes) Empty() bool { return b.Len() == 0 }

// Copy implements Readable.
func (b *Bytes) Copy(p []byte) int { return copy(p, b.buff[b.off:]) }

// Skip implements Readable.
func (b *Bytes) Skip(n int) int {
	if l := b.Len(); n > l {
		n = l
	}
	b.consumed(n)
	return n
}

// IndexByte implements Readable.
func (b *Bytes) IndexByte(c byte) int {
	return bytes.IndexByte(b.buff[b.off:], c)
}

// Bytes implements Contiguous.
// The returned slice aliases the buffer and is only valid until the next write.
func (b *Bytes) Bytes() []byte { return b.buff[b.off:] }

// WriteSeek implements Seekable.
func (b *Bytes) WriteSeek(whence encio.Whence, offset int) error {
	size := b.Len()
	pos := size - b.back
	target := pos
	switch whence {
	case encio.SeekAbsolute:
		target = offset
	case encio.SeekForward:
		target += offset
	case encio.SeekBackward:
		target -= offset
	default:
		return encio.NewError(encio.ErrSeekRange, "buffers cannot seek "+whence.String(), 0)
	}

	if target < 0 || target > size {
		return encio.NewError(encio.ErrSeekRange,
			fmt.Sprintf("%v seek by %v from %v; written region is [0, %v]", whence, offset, pos, size), 0)
	}
	b.back = size - target
	return nil
}

// Reset empties the buffer, keeping its storage.
func (b *Bytes) Reset() {
	b.buff = b.buff[:0]
	b.off = 0
	b.back = 0
}

func (b *Bytes) consumed(n int) {
	b.off += n
	if l := b.Len(); b.back > l {
		b.back = l
	}
	if b.off == len(b.buff) {
		b.Reset()
	}
}

// grow extends the buffer by n bytes, returning the index of the first new byte.
func (b *Bytes) grow(n int) int {
	l := len(b.buff)
	if l+n <= cap(b.buff) {
		b.buff = b.buff[:l+n]
		return l
	}

	l -= b.off
	c := cap(b.buff)
	if (l+n)*8 <= c { // let cap grow to 8 times the size so we're not always sliding.
		copy(b.buff, b.buff[b.off:])
		b.buff = b.buff[:l+n]
		b.off = 0
		return l
	}

	nb := make([]byte, l+n, c*2+n)
	copy(nb, b.buff[b.off:])
	b.buff = nb
	b.off = 0
	return l
}
