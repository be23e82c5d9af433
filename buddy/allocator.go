package buddy

import (
	"sync"
	"unsafe"
)

// BuddyAllocator is the buddy-system core: it holds the free pool, the
// running used/free counters, the injected System Allocator, the size
// bounds, and the single mutex guarding all of it.
type BuddyAllocator struct {
	mu sync.Mutex

	sys   SystemAllocator
	cache *metadataCache
	pool  *freePool

	minChunkSize uintptr
	maxChunkSize uintptr

	totalUsed uintptr
	totalFree uintptr

	// deviceReallocSize memoizes the size used for every refill after the
	// first, when the System Allocator reports device memory and no
	// explicit DeviceReallocBytes override is configured.
	deviceReallocSize uintptr
	cfg               Config

	closed bool
}

// NewBuddyAllocator constructs an allocator over sys with the given
// bounds. It takes ownership of sys for its lifetime. Regions go back to
// sys when a HUGE chunk is freed; pool chunks go back only on Close.
func NewBuddyAllocator(sys SystemAllocator, cfg Config) *BuddyAllocator {
	cfg = cfg.withDefaults()
	Info("creating buddy allocator: min=%d max=%d device=%v", cfg.MinChunkSize, cfg.MaxChunkSize, sys.UseGpu())
	return &BuddyAllocator{
		sys:          sys,
		cache:        newMetadataCache(sys.UseGpu()),
		pool:         newFreePool(),
		minChunkSize: cfg.MinChunkSize,
		maxChunkSize: cfg.MaxChunkSize,
		cfg:          cfg,
	}
}

func alignUp(size, alignment uintptr) uintptr {
	remainder := size % alignment
	if remainder == 0 {
		return size
	}
	return size + (alignment - remainder)
}

// Alloc satisfies a request for at least unalignedSize usable bytes. It
// returns the payload pointer and true on success, or (nil, false) if the
// System Allocator refused to supply more memory. Alloc never partially
// succeeds.
func (b *BuddyAllocator) Alloc(unalignedSize uintptr) (unsafe.Pointer, bool) {
	size := alignUp(unalignedSize+descriptorOverhead, b.minChunkSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		fatal(0, "Alloc called on a closed allocator", "")
	}

	if size > b.maxChunkSize {
		Debug("routing %d bytes to system allocator (huge)", size)
		return b.systemAlloc(size)
	}

	idx, found := b.findExistChunk(size)
	if !found {
		var ok bool
		idx, ok = b.refillPool(size)
		if !ok {
			// Nothing was committed yet on this path, so no counters need
			// rolling back: refillPool only mutates totalFree and the pool
			// itself after a successful System Allocator call.
			return nil, false
		}
	}

	addr := b.splitToAlloc(idx, size)

	// Charge the served block's full size: when splitChunk leaves no
	// residual the block is larger than size, and Free credits back
	// exactly the block's total size.
	served := b.cache.loadDesc(addr).totalSize
	b.totalUsed += served
	b.totalFree -= served

	return b.payloadPointer(addr), true
}

// Free returns a payload pointer previously handed out by Alloc. Integrity
// failures during Free are fatal; Free itself never returns an error.
func (b *BuddyAllocator) Free(ptr unsafe.Pointer) {
	addr := uintptr(ptr) - descriptorOverhead

	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.cache.loadDesc(addr)

	if d.state == StateHuge {
		Debug("freeing huge chunk at 0x%x directly", addr)
		b.sys.Free(unsafe.Pointer(addr), d.totalSize, d.index)
		b.cache.invalidate(addr)
		return
	}

	markAsFree(b.cache, addr)
	b.totalUsed -= d.totalSize
	b.totalFree += d.totalSize

	block := addr
	desc := d

	if right, ok := getRightBuddy(b.cache, block); ok {
		rd := b.cache.loadDesc(right)
		if rd.state == StateFree {
			Debug("merging 0x%x with right buddy 0x%x", block, right)
			b.pool.erase(poolKey{index: rd.index, totalSize: rd.totalSize, addr: right})
			mergeChunks(b.cache, block, right)
		}
	}

	if left, ok := getLeftBuddy(b.cache, block); ok {
		ld := b.cache.loadDesc(left)
		if ld.state == StateFree {
			Debug("merging 0x%x with left buddy 0x%x", block, left)
			b.pool.erase(poolKey{index: ld.index, totalSize: ld.totalSize, addr: left})
			mergeChunks(b.cache, left, block)
			block = left
			desc = ld
		}
	}

	b.pool.insert(poolKey{index: desc.index, totalSize: desc.totalSize, addr: block})
}

// Used reports the number of bytes currently handed out to callers. It
// takes the allocator's mutex, so it observes the state between operations.
func (b *BuddyAllocator) Used() uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalUsed
}

// GetMinChunkSize returns the configured allocation alignment.
func (b *BuddyAllocator) GetMinChunkSize() uintptr { return b.minChunkSize }

// GetMaxChunkSize returns the configured HUGE-chunk threshold.
func (b *BuddyAllocator) GetMaxChunkSize() uintptr { return b.maxChunkSize }

// Close walks the pool, releasing every FREE chunk back to the System
// Allocator, and invalidates each descriptor. Outstanding ARENA
// allocations at the time of Close are a contract violation by the
// caller; this implementation does not attempt to detect them beyond what
// the integrity checks already catch incidentally.
func (b *BuddyAllocator) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.pool.len() > 0 {
		k := b.pool.at(0)
		d := b.cache.loadDesc(k.addr)
		Debug("releasing chunk (0x%x, %d) back to system allocator", k.addr, d.totalSize)
		b.sys.Free(unsafe.Pointer(k.addr), d.totalSize, d.index)
		b.cache.invalidate(k.addr)
		b.pool.erase(k)
	}
	b.closed = true
}

func (b *BuddyAllocator) payloadPointer(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr + descriptorOverhead)
}

// findExistChunk iterates source-region indices in ascending order,
// asking the pool for a lower bound at (index, size, 0) each time. If the
// match is in region `index`, the pool's ordering guarantees it is the
// smallest chunk in that region with total size >= size, and it is
// returned. If the match is in a larger region, the search index jumps
// forward to it and retries, skipping empty intermediate regions. This
// packs allocations within the lowest-index region that has room before
// spilling into a higher one.
func (b *BuddyAllocator) findExistChunk(size uintptr) (int, bool) {
	var index uint64
	for {
		i := b.pool.lowerBound(poolKey{index: index, totalSize: size, addr: 0})
		if i >= b.pool.len() {
			return 0, false
		}
		k := b.pool.at(i)
		if k.index > index {
			index = k.index
			continue
		}
		return i, true
	}
}

// splitToAlloc removes the pool entry at idx, splits it down to size,
// marks the served block ARENA, and reinserts the residual (if any) into
// the pool. It returns the address of the served (ARENA) block.
func (b *BuddyAllocator) splitToAlloc(idx int, size uintptr) uintptr {
	k := b.pool.at(idx)
	b.pool.erase(k)

	addr := k.addr
	splitChunk(b.cache, addr, size, b.minChunkSize)

	d := b.cache.loadDesc(addr)
	d.state = StateArena
	refreshGuards(d)

	if right, ok := getRightBuddy(b.cache, addr); ok {
		rd := b.cache.loadDesc(right)
		if rd.state == StateFree {
			b.pool.insert(poolKey{index: rd.index, totalSize: rd.totalSize, addr: right})
		}
	}

	return addr
}

// refillPool obtains a fresh region from the System Allocator sized per
// the policy in spec.md §4.4, installs it as a single FREE chunk, and
// inserts it into the pool. It returns the pool index of the new entry,
// or (0, false) on System Allocator refusal.
func (b *BuddyAllocator) refillPool(requestBytes uintptr) (int, bool) {
	allocateBytes := b.maxChunkSize

	if b.sys.UseGpu() {
		if b.totalUsed+b.totalFree == 0 {
			allocateBytes = max(b.cfg.InitialDeviceAllocBytes, requestBytes)
		} else {
			reallocSize := b.cfg.DeviceReallocBytes
			if reallocSize == 0 {
				if b.deviceReallocSize == 0 {
					b.deviceReallocSize = b.maxChunkSize
				}
				reallocSize = b.deviceReallocSize
			}
			allocateBytes = max(reallocSize, requestBytes)
		}
	} else if requestBytes > allocateBytes {
		allocateBytes = requestBytes
	}

	base, index, ok := b.sys.Alloc(allocateBytes)
	if !ok {
		Error("system allocator refused refill of %d bytes", allocateBytes)
		return 0, false
	}

	addr := uintptr(base)
	Debug("refilled pool with region 0x%x (%d bytes, index %d)", addr, allocateBytes, index)
	initDescriptor(b.cache, addr, StateFree, index, allocateBytes, 0, 0)

	b.totalFree += allocateBytes

	k := poolKey{index: index, totalSize: allocateBytes, addr: addr}
	b.pool.insert(k)
	return b.pool.lowerBound(k), true
}

// systemAlloc is the direct pass-through for HUGE requests.
func (b *BuddyAllocator) systemAlloc(size uintptr) (unsafe.Pointer, bool) {
	base, index, ok := b.sys.Alloc(size)
	if !ok {
		Error("system allocator refused huge allocation of %d bytes", size)
		return nil, false
	}
	addr := uintptr(base)
	Debug("allocated huge chunk 0x%x (%d bytes, index %d)", addr, size, index)
	initDescriptor(b.cache, addr, StateHuge, index, size, 0, 0)
	return b.payloadPointer(addr), true
}
