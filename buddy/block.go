package buddy

// This file implements the block-metadata operations of spec.md §4.1
// against the side-table model: a "chunk" is identified by its base
// address, and every mutation goes through the metadataCache rather than
// an in-band header. Physical-neighbor links (prev/next) are addresses
// used only as cache keys.

// initDescriptor writes a fresh descriptor for the chunk at addr and
// registers it in the cache. prev/next are the physical neighbors within
// the same source region, 0 if none exist yet.
func initDescriptor(cache *metadataCache, addr uintptr, state ChunkState, index uint64, totalSize uintptr, prev, next uintptr) *descriptor {
	d := &descriptor{
		state:     state,
		index:     index,
		totalSize: totalSize,
		size:      totalSize - descriptorOverhead,
		prev:      prev,
		next:      next,
	}
	refreshGuards(d)
	cache.store(addr, d)

	if prev != 0 {
		if pd, ok := cache.tryLoadDesc(prev); ok {
			pd.next = addr
			refreshGuards(pd)
		}
	}
	if next != 0 {
		if nd, ok := cache.tryLoadDesc(next); ok {
			nd.prev = addr
			refreshGuards(nd)
		}
	}
	return d
}

// splitChunk splits the FREE chunk at addr so that its total size shrinks
// to requestedTotal, carving a new FREE chunk out of the residual bytes if
// there is room for one. It returns the address of the residual chunk, or
// 0 if no split occurred (the whole block goes to the caller).
//
// Precondition: the descriptor at addr is FREE and totalSize >=
// requestedTotal. A residual is carved only when it is at least
// descriptorOverhead + minChunkSize bytes.
func splitChunk(cache *metadataCache, addr uintptr, requestedTotal uintptr, minChunkSize uintptr) uintptr {
	d := cache.loadDesc(addr)

	residual := d.totalSize - requestedTotal
	if residual < descriptorOverhead+minChunkSize {
		// Not enough left over for a viable chunk; hand over the whole block.
		return 0
	}

	residualAddr := addr + requestedTotal
	oldNext := d.next

	d.totalSize = requestedTotal
	d.size = requestedTotal - descriptorOverhead
	d.next = residualAddr
	refreshGuards(d)

	initDescriptor(cache, residualAddr, StateFree, d.index, residual, addr, oldNext)

	return residualAddr
}

// mergeChunks absorbs right into self: self.totalSize grows by right's,
// right's descriptor is invalidated, and the physical-neighbor chain is
// fixed up to skip over right.
//
// Precondition: self and right are physical neighbors, both FREE.
func mergeChunks(cache *metadataCache, self, right uintptr) {
	sd := cache.loadDesc(self)
	rd := cache.loadDesc(right)

	sd.totalSize += rd.totalSize
	sd.size = sd.totalSize - descriptorOverhead
	sd.next = rd.next
	refreshGuards(sd)

	if rd.next != 0 {
		if nd, ok := cache.tryLoadDesc(rd.next); ok {
			nd.prev = self
			refreshGuards(nd)
		}
	}

	cache.invalidate(right)
}

// markAsFree flips an ARENA chunk back to FREE and refreshes its guards.
func markAsFree(cache *metadataCache, addr uintptr) *descriptor {
	d := cache.loadDesc(addr)
	if DebugChecks && d.state != StateArena {
		fatal(addr, "double free or freeing a non-ARENA chunk", d.state.String())
	}
	d.state = StateFree
	refreshGuards(d)
	return d
}

// getLeftBuddy returns the physical predecessor of addr within the same
// source region, or (0, false) if there is none.
func getLeftBuddy(cache *metadataCache, addr uintptr) (uintptr, bool) {
	d := cache.loadDesc(addr)
	if d.prev == 0 {
		return 0, false
	}
	pd, ok := cache.tryLoadDesc(d.prev)
	if !ok || pd.index != d.index {
		return 0, false
	}
	return d.prev, true
}

// getRightBuddy returns the physical successor of addr within the same
// source region, or (0, false) if there is none.
func getRightBuddy(cache *metadataCache, addr uintptr) (uintptr, bool) {
	d := cache.loadDesc(addr)
	if d.next == 0 {
		return 0, false
	}
	nd, ok := cache.tryLoadDesc(d.next)
	if !ok || nd.index != d.index {
		return 0, false
	}
	return d.next, true
}
