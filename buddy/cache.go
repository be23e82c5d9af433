package buddy

// metadataCache maps a chunk's base address to the authoritative copy of
// its descriptor. For host-memory allocators this is effectively just an
// indirection in front of what would otherwise be an in-band header; for
// device-memory allocators (where reading device memory from the host is
// slow or unsupported) it is the read path, shadowing descriptors entirely
// in host memory. isDeviceMemory is recorded but not consulted: the
// cache's lookup semantics are identical either way, since this
// implementation never reads the descriptor back out of the chunk's
// reserved bytes at all, and the refill-sizing policy asks the System
// Allocator's UseGpu directly (see refillPool).
type metadataCache struct {
	entries         map[uintptr]*descriptor
	isDeviceMemory  bool
}

func newMetadataCache(isDeviceMemory bool) *metadataCache {
	return &metadataCache{
		entries:        make(map[uintptr]*descriptor),
		isDeviceMemory: isDeviceMemory,
	}
}

// store write-through installs (or replaces) the descriptor for addr.
func (c *metadataCache) store(addr uintptr, d *descriptor) {
	c.entries[addr] = d
}

// loadDesc returns the authoritative descriptor for addr. A missing entry
// or a guard mismatch is a fatal integrity error: every live chunk must
// have a valid cache entry.
func (c *metadataCache) loadDesc(addr uintptr) *descriptor {
	d, ok := c.entries[addr]
	if !ok {
		fatal(addr, "missing cache entry for live chunk", "")
	}
	if !validateGuards(d) {
		fatal(addr, "descriptor guard mismatch", "possible corruption or double free")
	}
	return d
}

// tryLoadDesc is like loadDesc but returns ok=false on a missing entry
// instead of aborting, for call sites that are merely probing whether a
// physical neighbor exists (absence there is expected, not corruption).
func (c *metadataCache) tryLoadDesc(addr uintptr) (*descriptor, bool) {
	if addr == 0 {
		return nil, false
	}
	d, ok := c.entries[addr]
	if !ok {
		return nil, false
	}
	if !validateGuards(d) {
		fatal(addr, "descriptor guard mismatch", "possible corruption or double free")
	}
	return d, true
}

// invalidate removes addr from the cache. Called on chunk destruction or
// when a chunk is absorbed by merge.
func (c *metadataCache) invalidate(addr uintptr) {
	delete(c.entries, addr)
}
