package chunk

import (
	"sync"

	"go.uber.org/zap"
)

// NewShared returns a Shared allocator configured by cfg.
func NewShared(cfg Config) *Shared {
	cfg = cfg.withDefaults()
	s := &Shared{
		cfg: cfg,
		src: cfg.Source,
	}

	inner := cfg
	inner.Source = lockedReservoir{s}
	s.pool = NewPool(inner)
	return s
}

// Shared is an allocator that may be used from many goroutines.
//
// It is a Pool behind a mutex, and also a reservoir of block storage for goroutine-confined pools
// created with Local. Confined pools never exchange blocks with each other;
// storage only moves between them by being handed back to the reservoir when a confined pool closes.
type Shared struct {
	mu     sync.Mutex
	cfg    Config
	src    Source
	pool   *Pool
	spare  [][]byte
	closed bool
}

// Block implements Resolver.
func (s *Shared) Block(h Handle) *Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Block(h)
}

// BlockSize implements Allocator.
func (s *Shared) BlockSize() int { return s.cfg.BlockSize }

// Acquire implements Allocator.
func (s *Shared) Acquire() (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Acquire()
}

// Release implements Allocator.
func (s *Shared) Release(b *Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool.Release(b)
}

// Stats returns the block counts of the shared pool, not including blocks of confined pools.
func (s *Shared) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Stats()
}

// Spare returns the number of storage slabs waiting in the reservoir.
func (s *Shared) Spare() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spare)
}

// Local returns a new pool for use by a single goroutine.
// It takes storage from the reservoir before allocating, and returns all of its storage there when closed.
// MaxBlocks applies to each confined pool separately.
func (s *Shared) Local() *Pool {
	cfg := s.cfg
	cfg.Source = reservoir{s}
	p := NewPool(cfg)
	p.log = p.log.With(zap.Bool("local", true))
	return p
}

// Close closes the shared pool and frees the reservoir's storage.
// Storage handed back afterwards is freed immediately.
func (s *Shared) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pool.Close()
	s.closed = true
	for i, buff := range s.spare {
		s.src.Free(buff)
		s.spare[i] = nil
	}
	s.spare = s.spare[:0]
}

// reservoir is the Source confined pools draw storage from.
type reservoir struct{ s *Shared }

func (r reservoir) Alloc(size int) []byte {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.take(size)
}

func (r reservoir) Free(buff []byte) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.put(buff)
}

// lockedReservoir is the shared pool's own Source. Its calls arrive with the mutex already held.
type lockedReservoir struct{ s *Shared }

func (r lockedReservoir) Alloc(size int) []byte { return r.s.take(size) }
func (r lockedReservoir) Free(buff []byte)      { r.s.put(buff) }

// mutex must be held
func (s *Shared) take(size int) []byte {
	if l := len(s.spare); l > 0 {
		buff := s.spare[l-1]
		s.spare[l-1] = nil
		s.spare = s.spare[:l-1]
		return buff
	}
	return s.src.Alloc(size)
}

// mutex must be held
func (s *Shared) put(buff []byte) {
	if s.closed {
		s.src.Free(buff)
		return
	}
	s.spare = append(s.spare, buff)
}
