package chunk_test

import (
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/binstream/chunk"
	"github.com/stewi1014/binstream/encio"
)

// countingSource counts outstanding storage.
type countingSource struct {
	allocs, frees int
}

func (s *countingSource) Alloc(size int) []byte {
	s.allocs++
	return make([]byte, size)
}

func (s *countingSource) Free(buff []byte) {
	s.frees++
}

func TestPoolReuse(t *testing.T) {
	src := &countingSource{}
	p := chunk.NewPool(chunk.Config{BlockSize: 16, Source: src})

	a, err := p.Acquire()
	td.CmpNoError(t, err)
	b, err := p.Acquire()
	td.CmpNoError(t, err)
	td.Cmp(t, src.allocs, 2)
	td.Cmp(t, p.Stats(), chunk.Stats{Blocks: 2, Free: 0})

	a.Write([]byte("data"))
	p.Release(a)
	p.Release(b)
	td.Cmp(t, p.Stats(), chunk.Stats{Blocks: 2, Free: 2})
	td.Cmp(t, a.Size(), 0, "released blocks are cleared")

	got, err := p.Acquire()
	td.CmpNoError(t, err)
	td.CmpShallow(t, got, b, "most recently released first")
	got, err = p.Acquire()
	td.CmpNoError(t, err)
	td.CmpShallow(t, got, a)

	td.Cmp(t, src.allocs, 2, "no new storage for reused blocks")
	td.Cmp(t, p.Block(a.Handle()), a)
}

func TestPoolBounded(t *testing.T) {
	p := chunk.NewPool(chunk.Config{BlockSize: 8, MaxBlocks: 2})

	a, err := p.Acquire()
	td.CmpNoError(t, err)
	_, err = p.Acquire()
	td.CmpNoError(t, err)

	_, err = p.Acquire()
	if !errors.Is(err, encio.ErrExhausted) {
		t.Fatalf("wanted ErrExhausted, got %v", err)
	}

	p.Release(a)
	_, err = p.Acquire()
	td.CmpNoError(t, err, "released block satisfies a bounded pool")
}

func TestPoolMisuse(t *testing.T) {
	p1 := chunk.NewPool(chunk.Config{BlockSize: 8})
	p2 := chunk.NewPool(chunk.Config{BlockSize: 8})

	b, err := p1.Acquire()
	td.CmpNoError(t, err)

	td.CmpPanic(t, func() { p2.Release(b) }, td.Ignore(), "cross-pool release")

	p1.Release(b)
	td.CmpPanic(t, func() { p1.Release(b) }, td.Ignore(), "double release")
}

func TestPoolClose(t *testing.T) {
	src := &countingSource{}
	p := chunk.NewPool(chunk.Config{BlockSize: 8, Source: src})

	a, _ := p.Acquire()
	b, _ := p.Acquire()
	p.Release(a)

	p.Close()
	td.Cmp(t, src.frees, 1, "free blocks are returned on close")
	td.Cmp(t, p.Stats(), chunk.Stats{Blocks: 1, Free: 0})

	p.Release(b)
	td.Cmp(t, src.frees, 2, "in-use blocks are returned as they are released")

	_, err := p.Acquire()
	td.CmpTrue(t, errors.Is(err, encio.ErrExhausted))
}

func TestChain(t *testing.T) {
	p := chunk.NewPool(chunk.Config{BlockSize: 8})
	c := chunk.NewChain()

	var blocks []*chunk.Block
	for i := 0; i < 3; i++ {
		b, err := p.Acquire()
		td.CmpNoError(t, err)
		blocks = append(blocks, b)
		c.PushBack(p, b)
	}
	td.Cmp(t, c.Len(), 3)
	td.Cmp(t, c.Head(), blocks[0].Handle())
	td.Cmp(t, c.Tail(), blocks[2].Handle())
	td.Cmp(t, blocks[0].Next(), blocks[1].Handle())
	td.Cmp(t, blocks[2].Prev(), blocks[1].Handle())

	td.CmpPanic(t, func() { c.PushBack(p, blocks[1]) }, td.Ignore(), "block on two lists")

	c.Remove(p, blocks[1])
	td.Cmp(t, blocks[0].Next(), blocks[2].Handle())

	td.CmpShallow(t, c.PopFront(p), blocks[0])
	td.CmpShallow(t, c.PopFront(p), blocks[2])
	td.CmpNil(t, c.PopFront(p))
	td.Cmp(t, c.Head(), chunk.NoBlock)
}
