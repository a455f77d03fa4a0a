package buffer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/stewi1014/binstream/chunk"
	"github.com/stewi1014/binstream/encio"
)

// NewDynamic returns an empty Dynamic buffer drawing blocks from alloc.
// If alloc is nil, the buffer gets a private pool of chunk.DefaultBlockSize blocks.
func NewDynamic(alloc chunk.Allocator) *Dynamic {
	if alloc == nil {
		alloc = chunk.NewPool(chunk.Config{})
	}
	return &Dynamic{
		alloc: alloc,
		chain: chunk.NewChain(),
	}
}

// Dynamic is a growable byte queue built from a chain of blocks.
//
// Writes fill the tail block and acquire new blocks as needed, so a single write can span many blocks.
// Reads consume from the head, and under recycling reads drained blocks are released back to the allocator
// as soon as they empty. Len is O(1).
//
// Dynamic is not safe for concurrent use.
type Dynamic struct {
	alloc chunk.Allocator
	chain chunk.Chain
	size  int

	// back is the distance from the write cursor to the end of the written data.
	// It is non-zero only after a backward write seek.
	back int
}

var (
	_ Buffer   = (*Dynamic)(nil)
	_ Seekable = (*Dynamic)(nil)
)

// Allocator returns the allocator the buffer draws blocks from.
func (d *Dynamic) Allocator() chunk.Allocator { return d.alloc }

// Len implements Readable.
func (d *Dynamic) Len() int { return d.size }

// Empty implements Readable.
func (d *Dynamic) Empty() bool { return d.size == 0 }

// Blocks returns the number of blocks attached to the buffer.
func (d *Dynamic) Blocks() int { return d.chain.Len() }

// Layout returns the unread byte count of each attached block, head first.
// Drained blocks kept by non-recycling reads show as zero.
func (d *Dynamic) Layout() []int {
	sizes := make([]int, 0, d.chain.Len())
	for b := d.head(); b != nil; b = d.next(b) {
		sizes = append(sizes, b.Size())
	}
	return sizes
}

// Write implements Writable.
// If the allocator cannot supply a block, Write returns the number of bytes taken and an error wrapping the allocator's.
func (d *Dynamic) Write(p []byte) (int, error) {
	n := 0
	if d.back > 0 {
		n = d.overwrite(p)
		p = p[n:]
	}

	for len(p) > 0 {
		tail := d.tail()
		if tail == nil || tail.Free() == 0 {
			b, err := d.alloc.Acquire()
			if err != nil {
				return n, encio.NewIOError(err, fmt.Sprintf("acquiring block after %v of %v bytes", n, n+len(p)))
			}
			d.chain.PushBack(d.alloc, b)
			tail = b
		}

		w := tail.Write(p)
		p = p[w:]
		n += w
		d.size += w
	}
	return n, nil
}

// overwrite writes p over the data following the write cursor, returning the number of bytes overwritten.
func (d *Dynamic) overwrite(p []byte) int {
	b, off := d.locate(d.size - d.back)

	n := 0
	for b != nil && d.back > 0 && n < len(p) {
		k := b.Size() - off
		if k > d.back {
			k = d.back
		}
		if k > len(p)-n {
			k = len(p) - n
		}

		if k > 0 {
			r, w := b.Offsets()
			b.WriteSeek(encio.SeekAbsolute, r+off)
			b.Write(p[n : n+k])
			b.WriteSeek(encio.SeekAbsolute, w)
			n += k
			d.back -= k
		}

		b, off = d.next(b), 0
	}
	return n
}

// locate returns the block holding the byte at offset pos from the first unread byte, and pos's offset within the block's unread data.
// It walks back from the tail, as patched fields are usually close to the end.
func (d *Dynamic) locate(pos int) (*chunk.Block, int) {
	remaining := d.size - pos
	for b := d.tail(); b != nil; b = d.prev(b) {
		s := b.Size()
		if remaining <= s && s > 0 {
			return b, s - remaining
		}
		remaining -= s
	}
	return nil, 0
}

// Read implements Readable. Drained blocks are released.
func (d *Dynamic) Read(p []byte) (int, error) {
	if d.size == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return d.ReadOpt(p, true), nil
}

// ReadOpt consumes up to len(p) bytes into p.
// If recycle is set, blocks left drained are released to the allocator; otherwise they stay attached,
// keeping views into them valid, until the next recycling read or skip.
func (d *Dynamic) ReadOpt(p []byte, recycle bool) int {
	return d.consume(p, len(p), recycle)
}

// Skip implements Readable. Drained blocks are released.
func (d *Dynamic) Skip(n int) int {
	return d.SkipOpt(n, true)
}

// SkipOpt consumes up to n bytes without copying them, recycling as ReadOpt does.
func (d *Dynamic) SkipOpt(n int, recycle bool) int {
	return d.consume(nil, n, recycle)
}

// consume reads n bytes into p, or skips them if p is nil.
func (d *Dynamic) consume(p []byte, n int, recycle bool) int {
	done := 0
	b := d.head()
	for b != nil {
		next := d.next(b)

		if done < n {
			var k int
			if p != nil {
				k = b.Read(p[done:n], false)
			} else {
				k = b.Skip(n-done, false)
			}
			done += k
		}

		if b.Size() != 0 {
			break
		}
		if recycle {
			d.chain.Remove(d.alloc, b)
			d.alloc.Release(b)
		}
		b = next
	}

	d.size -= done
	if d.back > d.size {
		d.back = d.size
	}
	return done
}

// Copy implements Readable.
func (d *Dynamic) Copy(p []byte) int {
	n := 0
	for b := d.head(); b != nil && n < len(p); b = d.next(b) {
		n += b.Copy(p[n:])
	}
	return n
}

// IndexByte implements Readable. Blocks are scanned in order without assembling the buffer's contents.
func (d *Dynamic) IndexByte(c byte) int {
	off := 0
	for b := d.head(); b != nil; b = d.next(b) {
		data := b.ReadData()
		if i := bytes.IndexByte(data, c); i >= 0 {
			return off + i
		}
		off += len(data)
	}
	return NotFound
}

// WriteSeek implements Seekable.
// A rewound cursor overwrites the data after it in place; once it reaches the end of the written data, writes append again.
func (d *Dynamic) WriteSeek(whence encio.Whence, offset int) error {
	pos := d.size - d.back
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

	if target < 0 || target > d.size {
		return encio.NewError(encio.ErrSeekRange,
			fmt.Sprintf("%v seek by %v from %v; written region is [0, %v]", whence, offset, pos, d.size), 0)
	}

	d.back = d.size - target
	return nil
}

// WriteTo drains the buffer into w, releasing blocks as they empty. It implements io.WriterTo.
func (d *Dynamic) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for b := d.head(); b != nil; b = d.head() {
		data := b.ReadData()
		if err := encio.WriteFull(data, w); err != nil {
			return n, err
		}
		n += int64(len(data))
		d.Skip(len(data))
	}
	return n, nil
}

// ReadFrom appends everything r yields until io.EOF, reading straight into block storage. It implements io.ReaderFrom.
func (d *Dynamic) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		if d.back > 0 {
			n, err := d.readFromSlow(r)
			total += n
			if err == io.EOF {
				return total, nil
			}
			if err != nil {
				return total, err
			}
			continue
		}

		tail := d.tail()
		if tail == nil || tail.Free() == 0 {
			b, err := d.alloc.Acquire()
			if err != nil {
				return total, encio.NewIOError(err, "acquiring block")
			}
			d.chain.PushBack(d.alloc, b)
			tail = b
		}

		n, err := r.Read(tail.WriteData())
		tail.AdvanceWrite(n)
		d.size += n
		total += int64(n)

		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// readFromSlow reads one block's worth through Write, for when the cursor is rewound.
func (d *Dynamic) readFromSlow(r io.Reader) (int64, error) {
	buff := make([]byte, d.alloc.BlockSize())
	n, err := r.Read(buff)
	if _, werr := d.Write(buff[:n]); werr != nil {
		return int64(n), werr
	}
	return int64(n), err
}

// Reset releases every block and empties the buffer.
func (d *Dynamic) Reset() {
	for b := d.chain.PopFront(d.alloc); b != nil; b = d.chain.PopFront(d.alloc) {
		d.alloc.Release(b)
	}
	d.size = 0
	d.back = 0
}

// Close implements io.Closer. It is the same as Reset.
func (d *Dynamic) Close() error {
	d.Reset()
	return nil
}

func (d *Dynamic) head() *chunk.Block { return d.block(d.chain.Head()) }
func (d *Dynamic) tail() *chunk.Block { return d.block(d.chain.Tail()) }

func (d *Dynamic) next(b *chunk.Block) *chunk.Block { return d.block(b.Next()) }
func (d *Dynamic) prev(b *chunk.Block) *chunk.Block { return d.block(b.Prev()) }

func (d *Dynamic) block(h chunk.Handle) *chunk.Block {
	if h == chunk.NoBlock {
		return nil
	}
	return d.alloc.Block(h)
}
