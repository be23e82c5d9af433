// Package poolfront implements a size-classed cache of pre-allocated
// regions in front of a buddy.BuddyAllocator, replaying the shape of the
// teacher repository's mpool.MemoryPool: pre-allocate a fixed number of
// blocks per size class at construction, serve Allocate/Free from the
// class's free list, and spill to the underlying allocator whenever a
// class is exhausted or a request doesn't fit any configured class.
//
// Unlike the teacher's three hard-coded tiers, the classes here are
// configurable, so a caller can shape the pool to its own working set.
package poolfront

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/shenjiangwei/buddyheap/buddy"
)

// ErrNoMatchingClass names the case of an address that belongs to no
// configured size class. No function in this package returns it: Free has
// no error result and hands any such address to the underlying allocator.
var ErrNoMatchingClass = errors.New("poolfront: address does not belong to any size class")

// ClassConfig describes one size class: Bound is the largest request
// routed to it, and Prealloc is how many blocks of exactly Bound bytes are
// obtained from the allocator up front.
type ClassConfig struct {
	Bound    uintptr
	Prealloc int
}

// Stats mirrors the counters the teacher's mpool.PoolStats tracked.
type Stats struct {
	TotalAllocations uint64
	PoolHits         uint64
	PoolMisses       uint64
	TotalFrees       uint64
	PoolFreeHits     uint64
	PoolFreeMisses   uint64
}

type block struct {
	ptr  unsafe.Pointer
	used bool
}

type class struct {
	bound  uintptr
	blocks []block
}

// Pool is a size-classed front door over a buddy.BuddyAllocator.
type Pool struct {
	mu        sync.Mutex
	allocator *buddy.BuddyAllocator
	classes   []class
	stats     Stats
}

// New pre-allocates every configured class's blocks from allocator and
// returns the ready-to-use pool. Classes must be given in ascending Bound
// order; New does not sort them.
func New(allocator *buddy.BuddyAllocator, classes []ClassConfig) (*Pool, error) {
	p := &Pool{allocator: allocator}

	for _, cc := range classes {
		c := class{bound: cc.Bound, blocks: make([]block, 0, cc.Prealloc)}
		for i := 0; i < cc.Prealloc; i++ {
			ptr, ok := allocator.Alloc(cc.Bound)
			if !ok {
				return nil, fmt.Errorf("poolfront: failed to pre-allocate block %d/%d for class bound %d", i+1, cc.Prealloc, cc.Bound)
			}
			c.blocks = append(c.blocks, block{ptr: ptr})
		}
		p.classes = append(p.classes, c)
	}

	return p, nil
}

func (p *Pool) classFor(size uintptr) int {
	for i := range p.classes {
		if size <= p.classes[i].bound {
			return i
		}
	}
	return -1
}

// Allocate serves size from the smallest class it fits, falling back to
// the underlying allocator on a class miss or when size fits no class.
func (p *Pool) Allocate(size uintptr) (unsafe.Pointer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.TotalAllocations++

	if ci := p.classFor(size); ci >= 0 {
		c := &p.classes[ci]
		for i := range c.blocks {
			if !c.blocks[i].used {
				c.blocks[i].used = true
				p.stats.PoolHits++
				return c.blocks[i].ptr, true
			}
		}
	}

	p.stats.PoolMisses++
	return p.allocator.Alloc(size)
}

// Free returns addr to the pool if it matches a pre-allocated block,
// otherwise it is handed back to the underlying allocator.
func (p *Pool) Free(addr unsafe.Pointer, size uintptr) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.TotalFrees++

	if ci := p.classFor(size); ci >= 0 {
		c := &p.classes[ci]
		for i := range c.blocks {
			if c.blocks[i].ptr == addr {
				c.blocks[i].used = false
				p.stats.PoolFreeHits++
				return
			}
		}
	}

	p.stats.PoolFreeMisses++
	p.allocator.Free(addr)
}

// Stats returns a snapshot of the pool's hit/miss counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Close releases every pre-allocated block back to the underlying
// allocator. It does not close the allocator itself.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.classes {
		for _, b := range c.blocks {
			p.allocator.Free(b.ptr)
		}
	}
}
