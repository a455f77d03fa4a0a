// Package chunk provides fixed-size storage blocks and the allocators that recycle them.
//
// Blocks live in an arena owned by a Pool and are addressed by Handle.
// A block is a member of exactly one list at a time, either its pool's free-list
// or the Chain of the buffer using it, and is linked through its own next/prev handles
// so moving it between lists never allocates.
package chunk

import (
	"fmt"

	"github.com/stewi1014/binstream/encio"
)

// Handle is the stable address of a block within its pool's arena.
type Handle int32

// NoBlock is the Handle of no block; the end of a list.
const NoBlock Handle = -1

// Block is a fixed-capacity byte chunk with independent read and write cursors.
//
// 0 <= read offset <= write offset <= capacity always holds.
// Operations that move bytes cap at what is available and report the count actually moved;
// a short count is not an error.
type Block struct {
	read, write int
	storage     []byte

	handle     Handle
	next, prev Handle
	linked     bool
	pool       *Pool
}

// Handle returns the block's address in its pool.
func (b *Block) Handle() Handle { return b.handle }

// Next returns the handle of the following block in the list the block is on.
func (b *Block) Next() Handle { return b.next }

// Prev returns the handle of the preceding block in the list the block is on.
func (b *Block) Prev() Handle { return b.prev }

// Cap returns the capacity of the block.
func (b *Block) Cap() int { return len(b.storage) }

// Size returns the number of unread bytes in the block.
func (b *Block) Size() int { return b.write - b.read }

// Free returns the number of bytes that can still be written to the block.
func (b *Block) Free() int { return len(b.storage) - b.write }

// Offsets returns the read and write offsets.
func (b *Block) Offsets() (read, write int) { return b.read, b.write }

// Clear resets both cursors. Contents are not erased, but should be treated as such.
func (b *Block) Clear() {
	b.read = 0
	b.write = 0
}

// Write copies up to Free() bytes of p into the block, returning the number copied.
func (b *Block) Write(p []byte) int {
	n := copy(b.storage[b.write:], p)
	b.write += n
	return n
}

// Copy copies up to Size() unread bytes into p without advancing the read cursor.
func (b *Block) Copy(p []byte) int {
	return copy(p, b.storage[b.read:b.write])
}

// Read copies up to Size() unread bytes into p and advances the read cursor.
// If recycle is set and the block is left drained, both cursors are reset so the whole block can be written again.
func (b *Block) Read(p []byte, recycle bool) int {
	n := b.Copy(p)
	b.read += n
	b.recycle(recycle)
	return n
}

// Skip advances the read cursor by up to Size() bytes, with the same recycling as Read.
func (b *Block) Skip(n int, recycle bool) int {
	if s := b.Size(); n > s {
		n = s
	}
	b.read += n
	b.recycle(recycle)
	return n
}

func (b *Block) recycle(recycle bool) {
	if recycle && b.read == b.write {
		b.Clear()
	}
}

// WriteSeek moves the write cursor.
// The caller must keep the cursor within [read offset, capacity]; leaving it panics.
func (b *Block) WriteSeek(whence encio.Whence, offset int) {
	pos := b.write
	switch whence {
	case encio.SeekAbsolute:
		pos = offset
	case encio.SeekForward:
		pos += offset
	case encio.SeekBackward:
		pos -= offset
	default:
		panic(fmt.Errorf("chunk: blocks cannot seek %v", whence))
	}

	if pos < b.read || pos > len(b.storage) {
		panic(fmt.Errorf("chunk: %v write seek by %v to %v outside block [%v, %v]",
			whence, offset, pos, b.read, len(b.storage)))
	}
	b.write = pos
}

// AdvanceWrite moves the write cursor forward by up to Free() bytes, for data placed directly into WriteData().
func (b *Block) AdvanceWrite(n int) int {
	if f := b.Free(); n > f {
		n = f
	}
	b.write += n
	return n
}

// ReadData returns the unread bytes of the block.
// It aliases the block's storage and is only valid until the block is next written, recycled or released.
func (b *Block) ReadData() []byte { return b.storage[b.read:b.write] }

// WriteData returns the free space of the block.
func (b *Block) WriteData() []byte { return b.storage[b.write:] }
