// Package buddy implements a buddy-system memory allocator: it manages
// large, coarsely-sourced regions obtained from a pluggable SystemAllocator
// and satisfies smaller variable-size requests by splitting and coalescing
// chunks tagged with an in-band-style descriptor held in a side table.
package buddy

import "unsafe"

// ChunkState is the lifecycle state of a chunk.
type ChunkState uint8

const (
	// StateFree marks a chunk available in the pool; it may be split or merged.
	StateFree ChunkState = iota
	// StateArena marks a chunk currently handed out to a caller.
	StateArena
	// StateHuge marks a chunk that bypassed the pool entirely.
	StateHuge
)

func (s ChunkState) String() string {
	switch s {
	case StateFree:
		return "FREE"
	case StateArena:
		return "ARENA"
	case StateHuge:
		return "HUGE"
	default:
		return "UNKNOWN"
	}
}

const (
	// descriptorOverhead is the number of bytes reserved at the base of every
	// chunk for the (logically in-band) descriptor and trailing guard, even
	// though this implementation keeps the authoritative copy in a side
	// table rather than writing a struct into the chunk itself. Requests are
	// padded by this much before alignment so the accounting in Invariant 1
	// of the spec (total_size = descriptor + payload + trailing guard) holds
	// without ever touching the reserved bytes.
	descriptorOverhead = 64

	// DefaultMinChunkSize is used when a Config leaves MinChunkSize unset.
	DefaultMinChunkSize = 256
	// DefaultMaxChunkSize is used when a Config leaves MaxChunkSize unset.
	DefaultMaxChunkSize = 4 << 20 // 4MiB
)

// Config carries the tunables named in the allocator's external interface.
type Config struct {
	// MinChunkSize is the allocation alignment and the minimum viable split
	// residual; requests are rounded up to a multiple of it.
	MinChunkSize uintptr
	// MaxChunkSize is the ceiling past which a request is routed directly to
	// the System Allocator as a HUGE chunk instead of going through the pool.
	MaxChunkSize uintptr
	// InitialDeviceAllocBytes sizes the first refill when the System
	// Allocator reports device memory and the pool is still empty.
	InitialDeviceAllocBytes uintptr
	// DeviceReallocBytes overrides the size of every refill after the first
	// on a device-memory allocator. Zero means: on the first post-initial
	// refill memoize MaxChunkSize and reuse it from then on (a larger
	// request still gets a region of its own size).
	DeviceReallocBytes uintptr
}

func (c Config) withDefaults() Config {
	if c.MinChunkSize == 0 {
		c.MinChunkSize = DefaultMinChunkSize
	}
	if c.MaxChunkSize == 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	return c
}

// SystemAllocator is the pluggable lower-level supplier of raw regions. The
// core owns the instance it is constructed with and releases it on Close.
type SystemAllocator interface {
	// Alloc returns a raw region of at least bytes length, along with an
	// opaque index stable for the region's lifetime, or ok=false on refusal.
	Alloc(bytes uintptr) (base unsafe.Pointer, index uint64, ok bool)
	// Free releases a region previously returned by Alloc.
	Free(base unsafe.Pointer, bytes uintptr, index uint64)
	// UseGpu reports whether regions returned by Alloc are device memory.
	UseGpu() bool
}

// descriptor is the metadata every chunk carries: state, its source region,
// sizes, physical-neighbor links within that region, and integrity guards.
// Physical-neighbor links are addresses used purely as cache keys, never
// dereferenced directly — recovering a neighbor always goes through the
// cache's checked lookup.
type descriptor struct {
	state ChunkState
	index uint64
	// totalSize is the full chunk size including the reserved header and
	// trailing-guard bytes. size is the usable payload length.
	totalSize uintptr
	size      uintptr

	prev, next uintptr // 0 means "no neighbor"

	leadingGuard, trailingGuard uint64
}
