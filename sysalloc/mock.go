// Package sysalloc provides concrete implementations of the
// buddy.SystemAllocator capability: a real mmap-backed host allocator and
// an in-memory mock used by tests and the device-memory refill-policy
// scenarios.
package sysalloc

import (
	"sync"
	"unsafe"
)

// Mock is an in-memory SystemAllocator with unlimited capacity by default,
// matching spec.md §8's "mock System Allocator with unlimited capacity".
// It backs every region with a plain Go byte slice kept alive in
// regions, so nothing is ever actually freed at the OS level — Free just
// forgets the slice, which is sufficient for driving the allocator's own
// bookkeeping tests.
//
// Device and FailAfter let the same mock drive both host- and
// device-memory refill-policy tests and the simulated-OOM scenario.
type Mock struct {
	mu      sync.Mutex
	regions map[uint64][]byte
	nextIdx uint64

	// Device makes UseGpu report true, switching the core's refill-sizing
	// policy to the device-memory branch.
	Device bool
	// FailAfter, if nonzero, makes the (FailAfter+1)-th and every later
	// call to Alloc return ok=false, simulating a System Allocator that
	// has run out of memory.
	FailAfter int

	allocCount int
}

// NewMock returns a Mock with unlimited capacity.
func NewMock() *Mock {
	return &Mock{regions: make(map[uint64][]byte)}
}

// Alloc implements buddy.SystemAllocator.
func (m *Mock) Alloc(bytes uintptr) (unsafe.Pointer, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocCount++
	if m.FailAfter > 0 && m.allocCount > m.FailAfter {
		return nil, 0, false
	}

	buf := make([]byte, bytes)
	idx := m.nextIdx
	m.nextIdx++
	m.regions[idx] = buf
	return unsafe.Pointer(&buf[0]), idx, true
}

// Free implements buddy.SystemAllocator.
func (m *Mock) Free(_ unsafe.Pointer, _ uintptr, index uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.regions, index)
}

// UseGpu implements buddy.SystemAllocator.
func (m *Mock) UseGpu() bool { return m.Device }

// LiveRegions reports how many regions have been Alloc'd but not yet
// Free'd — useful for asserting a test cleaned up after itself.
func (m *Mock) LiveRegions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.regions)
}
