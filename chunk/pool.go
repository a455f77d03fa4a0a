package chunk

import (
	"fmt"

	"github.com/bytedance/gopkg/lang/mcache"
	"go.uber.org/zap"

	"github.com/stewi1014/binstream/encio"
)

// DefaultBlockSize is the block size used when Config.BlockSize is zero.
const DefaultBlockSize = 4096

// Allocator supplies and reclaims blocks of one fixed size.
type Allocator interface {
	Resolver

	// Acquire returns a cleared block that is on no list.
	// A bounded allocator returns an error wrapping encio.ErrExhausted instead of growing past its bound.
	Acquire() (*Block, error)

	// Release clears b and returns it for reuse. b must have come from this allocator and be on no list.
	Release(b *Block)

	// BlockSize returns the capacity of the blocks the allocator hands out.
	BlockSize() int
}

// Source provides the raw storage behind new blocks.
type Source interface {
	Alloc(size int) []byte
	Free(buff []byte)
}

// Config configures a Pool or Shared allocator.
type Config struct {
	// BlockSize is the capacity of every block. Zero means DefaultBlockSize.
	BlockSize int

	// MaxBlocks bounds the number of blocks the pool will ever create. Zero means unbounded.
	MaxBlocks int

	// Source provides block storage. If nil, storage comes from size-classed caches in mcache.
	Source Source

	// Logger receives growth and exhaustion events. If nil, encio.Log is used.
	Logger *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.BlockSize <= 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.Source == nil {
		c.Source = heapSource{}
	}
	if c.Logger == nil {
		c.Logger = encio.Log
	}
	return c
}

type heapSource struct{}

func (heapSource) Alloc(size int) []byte { return mcache.Malloc(size) }
func (heapSource) Free(buff []byte)      { mcache.Free(buff) }

// Stats is a snapshot of an allocator's block counts.
type Stats struct {
	// Blocks is the number of blocks ever materialized and not yet closed.
	Blocks int
	// Free is the number of blocks waiting on the free-list.
	Free int
}

// InUse returns the number of blocks currently handed out.
func (s Stats) InUse() int { return s.Blocks - s.Free }

// NewPool returns a pool configured by cfg.
//
// A Pool has no internal locking. It is meant to be owned by one goroutine;
// use Shared to hand blocks or storage between goroutines.
func NewPool(cfg Config) *Pool {
	cfg = cfg.withDefaults()
	return &Pool{
		cfg:  cfg,
		free: NewChain(),
		log:  cfg.Logger.With(zap.Int("block_size", cfg.BlockSize)),
	}
}

// Pool is an arena of blocks with a LIFO free-list.
// It grows by materializing new storage when the free-list is empty and does not shrink until closed.
type Pool struct {
	cfg    Config
	blocks []*Block
	free   Chain
	closed bool
	log    *zap.Logger
}

// Block implements Resolver.
func (p *Pool) Block(h Handle) *Block {
	return p.blocks[h]
}

// BlockSize implements Allocator.
func (p *Pool) BlockSize() int { return p.cfg.BlockSize }

// Acquire implements Allocator.
// The most recently released block is handed out first.
func (p *Pool) Acquire() (*Block, error) {
	if b := p.free.PopFront(p); b != nil {
		return b, nil
	}

	if p.closed {
		return nil, encio.NewError(encio.ErrExhausted, "pool is closed", 0)
	}

	if p.cfg.MaxBlocks > 0 && len(p.blocks) >= p.cfg.MaxBlocks {
		p.log.Warn("pool exhausted", zap.Int("max_blocks", p.cfg.MaxBlocks))
		return nil, encio.NewError(encio.ErrExhausted, fmt.Sprintf("all %v blocks in use", p.cfg.MaxBlocks), 0)
	}

	b := &Block{
		storage: p.cfg.Source.Alloc(p.cfg.BlockSize)[:p.cfg.BlockSize],
		handle:  Handle(len(p.blocks)),
		next:    NoBlock,
		prev:    NoBlock,
		pool:    p,
	}
	p.blocks = append(p.blocks, b)
	p.log.Debug("pool grew", zap.Int("blocks", len(p.blocks)))
	return b, nil
}

// Release implements Allocator.
// Releasing a block from another pool, or one that is still on a list, panics.
func (p *Pool) Release(b *Block) {
	if b.pool != p {
		panic(fmt.Errorf("chunk: block %v released to a pool that does not own it", b.handle))
	}
	if b.linked {
		panic(fmt.Errorf("chunk: block %v released while still on a list", b.handle))
	}

	b.Clear()
	if p.closed {
		p.freeStorage(b)
		return
	}
	p.free.PushFront(p, b)
}

// Stats returns the pool's block counts.
func (p *Pool) Stats() Stats {
	blocks := 0
	for _, b := range p.blocks {
		if b.storage != nil {
			blocks++
		}
	}
	return Stats{Blocks: blocks, Free: p.free.Len()}
}

// Close hands the storage of every free block back to the pool's source.
// Blocks still in use are freed as they are released. A closed pool hands out no new blocks.
func (p *Pool) Close() {
	p.closed = true
	for b := p.free.PopFront(p); b != nil; b = p.free.PopFront(p) {
		p.freeStorage(b)
	}
	p.log.Debug("pool closed", zap.Int("in_use", p.Stats().InUse()))
}

func (p *Pool) freeStorage(b *Block) {
	p.cfg.Source.Free(b.storage)
	b.storage = nil
}
