// Package buffer defines the capability contract streams read and write through,
// and the buffers that implement it.
//
// A buffer is a FIFO byte queue. What else it can do is advertised by the interfaces it implements:
// Writable buffers accept data, Seekable buffers can rewind their write cursor over data already written,
// and Contiguous buffers hold their unread bytes in one slice that can be viewed without copying.
// CapsOf reports the set for any value.
package buffer

import "github.com/stewi1014/binstream/encio"

// NotFound is returned by IndexByte when the byte is not in the buffer.
const NotFound = -1

// Readable is the capability every buffer has.
type Readable interface {
	// Len returns the number of unread bytes.
	Len() int

	// Empty reports whether Len() == 0.
	Empty() bool

	// Read consumes up to len(p) bytes into p. It implements io.Reader.
	Read(p []byte) (int, error)

	// Copy copies up to len(p) unread bytes into p without consuming them.
	Copy(p []byte) int

	// Skip consumes up to n bytes without copying them, returning the number consumed.
	Skip(n int) int

	// IndexByte returns the offset of the first c in the unread bytes, or NotFound.
	IndexByte(c byte) int
}

// Writable buffers accept data.
type Writable interface {
	// Write appends p. An error means the buffer could not take all of it.
	Write(p []byte) (int, error)
}

// Seekable buffers can move their write cursor within the data already written and not yet read,
// so fields can be patched after the fact.
// Absolute offsets count from the first unread byte. Seeking outside [0, Len()] returns encio.ErrSeekRange.
type Seekable interface {
	WriteSeek(whence encio.Whence, offset int) error
}

// Contiguous buffers hold all unread bytes in a single slice.
type Contiguous interface {
	// Bytes returns the unread bytes. The slice aliases the buffer and is valid until its next mutation.
	Bytes() []byte
}

// Buffer is a readable and writable buffer.
type Buffer interface {
	Readable
	Writable
}

// Caps is a set of buffer capabilities.
type Caps uint8

const (
	CapRead Caps = 1 << iota
	CapWrite
	CapSeek
	CapContiguous
)

// Has reports whether all of want are in c.
func (c Caps) Has(want Caps) bool { return c&want == want }

func (c Caps) String() string {
	names := []string{"read", "write", "seek", "contiguous"}
	str := ""
	for i, name := range names {
		if c&(1<<i) != 0 {
			if str != "" {
				str += "|"
			}
			str += name
		}
	}
	if str == "" {
		return "none"
	}
	return str
}

// CapsOf returns the capabilities of b, found by the interfaces it implements.
// A wrapper hides a capability by not having the method.
func CapsOf(b interface{}) Caps {
	var c Caps
	if _, ok := b.(Readable); ok {
		c |= CapRead
	}
	if _, ok := b.(Writable); ok {
		c |= CapWrite
	}
	if _, ok := b.(Seekable); ok && c.Has(CapWrite) {
		c |= CapSeek
	}
	if _, ok := b.(Contiguous); ok {
		c |= CapContiguous
	}
	return c
}
