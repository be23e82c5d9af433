package buddy

import "sort"

// poolKey is the composite key the free pool orders on: (source-region
// index, total chunk size, address). Lexicographic order on this triple
// means lowerBound((index, size, 0)) yields the smallest chunk from region
// index whose size is at least size — see FindExistChunk.
type poolKey struct {
	index     uint64
	totalSize uintptr
	addr      uintptr
}

func (a poolKey) less(b poolKey) bool {
	if a.index != b.index {
		return a.index < b.index
	}
	if a.totalSize != b.totalSize {
		return a.totalSize < b.totalSize
	}
	return a.addr < b.addr
}

// freePool is an ordered set of poolKeys. It is implemented as a sorted
// slice with binary-search insert/erase/lowerBound, mirroring the
// teacher's own preference for slice-backed free lists (one per order)
// over pulling in an external ordered-container library — the corpus has
// no sorted-container dependency to reach for, and a composite-keyed
// binary search over a slice is the natural extension of that idiom to a
// pool that is no longer bucketed by a single power-of-two order.
type freePool struct {
	entries []poolKey
}

func newFreePool() *freePool {
	return &freePool{}
}

func (p *freePool) search(k poolKey) int {
	return sort.Search(len(p.entries), func(i int) bool {
		return !p.entries[i].less(k)
	})
}

// insert adds k to the pool. k must not already be present.
func (p *freePool) insert(k poolKey) {
	i := p.search(k)
	p.entries = append(p.entries, poolKey{})
	copy(p.entries[i+1:], p.entries[i:])
	p.entries[i] = k
}

// erase removes k from the pool. It is a fatal integrity error for k to be
// absent: callers only erase keys they just observed in the pool.
func (p *freePool) erase(k poolKey) {
	i := p.search(k)
	if i >= len(p.entries) || p.entries[i] != k {
		fatal(k.addr, "free pool erase of missing key", "")
	}
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
}

// lowerBound returns the index of the first entry >= k, or len(p.entries)
// if none qualifies.
func (p *freePool) lowerBound(k poolKey) int {
	return p.search(k)
}

func (p *freePool) len() int {
	return len(p.entries)
}

func (p *freePool) at(i int) poolKey {
	return p.entries[i]
}
