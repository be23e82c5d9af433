//go:build !linux && !darwin

package sysalloc

import (
	"sync"
	"unsafe"
)

// Host on platforms without an mmap syscall this package targets falls
// back to plain heap-backed regions, the same "mmap where we can, plain
// buffer otherwise" split joshuapare-hivekit draws between its
// loader_unix.go and loader_other.go.
type Host struct {
	mu      sync.Mutex
	regions map[uint64][]byte
	nextIdx uint64
}

// NewHost returns a host-memory SystemAllocator.
func NewHost() *Host {
	return &Host{regions: make(map[uint64][]byte)}
}

// Alloc implements buddy.SystemAllocator.
func (h *Host) Alloc(bytes uintptr) (unsafe.Pointer, uint64, bool) {
	buf := make([]byte, bytes)

	h.mu.Lock()
	idx := h.nextIdx
	h.nextIdx++
	h.regions[idx] = buf
	h.mu.Unlock()

	return unsafe.Pointer(&buf[0]), idx, true
}

// Free implements buddy.SystemAllocator.
func (h *Host) Free(_ unsafe.Pointer, _ uintptr, index uint64) {
	h.mu.Lock()
	delete(h.regions, index)
	h.mu.Unlock()
}

// UseGpu implements buddy.SystemAllocator.
func (h *Host) UseGpu() bool { return false }
