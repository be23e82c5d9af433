//go:build linux || darwin

package sysalloc

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Host supplies raw regions via anonymous mmap, the same mechanism
// joshuapare-hivekit's loader_unix.go uses for its (file-backed) buffers,
// adapted here to anonymous, not-file-backed mappings. UseGpu always
// reports false: this is host memory.
type Host struct {
	mu      sync.Mutex
	regions map[uint64][]byte
	nextIdx uint64
}

// NewHost returns a host-memory SystemAllocator backed by mmap.
func NewHost() *Host {
	return &Host{regions: make(map[uint64][]byte)}
}

// Alloc implements buddy.SystemAllocator.
func (h *Host) Alloc(bytes uintptr) (unsafe.Pointer, uint64, bool) {
	data, err := unix.Mmap(-1, 0, int(bytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, 0, false
	}

	h.mu.Lock()
	idx := h.nextIdx
	h.nextIdx++
	h.regions[idx] = data
	h.mu.Unlock()

	return unsafe.Pointer(&data[0]), idx, true
}

// Free implements buddy.SystemAllocator.
func (h *Host) Free(_ unsafe.Pointer, _ uintptr, index uint64) {
	h.mu.Lock()
	data, ok := h.regions[index]
	delete(h.regions, index)
	h.mu.Unlock()

	if ok {
		_ = unix.Munmap(data)
	}
}

// UseGpu implements buddy.SystemAllocator.
func (h *Host) UseGpu() bool { return false }
