package chunk

import "fmt"

// Resolver maps handles to blocks.
type Resolver interface {
	Block(h Handle) *Block
}

// Chain is a doubly linked list of blocks threaded through the blocks' own link fields.
// The zero value is not ready; use NewChain.
type Chain struct {
	head, tail Handle
	len        int
}

// NewChain returns an empty chain.
func NewChain() Chain {
	return Chain{head: NoBlock, tail: NoBlock}
}

// Len returns the number of blocks in the chain.
func (c *Chain) Len() int { return c.len }

// Head returns the handle of the first block, or NoBlock.
func (c *Chain) Head() Handle { return c.head }

// Tail returns the handle of the last block, or NoBlock.
func (c *Chain) Tail() Handle { return c.tail }

// PushBack appends b to the chain.
func (c *Chain) PushBack(r Resolver, b *Block) {
	c.link(b)
	b.prev = c.tail
	b.next = NoBlock
	if c.tail != NoBlock {
		r.Block(c.tail).next = b.handle
	} else {
		c.head = b.handle
	}
	c.tail = b.handle
}

// PushFront prepends b to the chain.
func (c *Chain) PushFront(r Resolver, b *Block) {
	c.link(b)
	b.next = c.head
	b.prev = NoBlock
	if c.head != NoBlock {
		r.Block(c.head).prev = b.handle
	} else {
		c.tail = b.handle
	}
	c.head = b.handle
}

// PopFront unlinks and returns the first block, or nil if the chain is empty.
func (c *Chain) PopFront(r Resolver) *Block {
	if c.head == NoBlock {
		return nil
	}
	b := r.Block(c.head)
	c.Remove(r, b)
	return b
}

// Remove unlinks b, which must be in this chain.
func (c *Chain) Remove(r Resolver, b *Block) {
	if !b.linked {
		panic(fmt.Errorf("chunk: removing unlinked block %v", b.handle))
	}

	if b.prev != NoBlock {
		r.Block(b.prev).next = b.next
	} else {
		c.head = b.next
	}
	if b.next != NoBlock {
		r.Block(b.next).prev = b.prev
	} else {
		c.tail = b.prev
	}

	b.next, b.prev = NoBlock, NoBlock
	b.linked = false
	c.len--
}

func (c *Chain) link(b *Block) {
	if b.linked {
		panic(fmt.Errorf("chunk: block %v is already on a list", b.handle))
	}
	b.linked = true
	c.len++
}
