// Command buddybench hammers a buddy.BuddyAllocator with concurrent,
// randomly-sized Alloc/Free pairs and reports used bytes, operation
// count, and wall time — replaying the shape of the teacher repository's
// main.go disk-allocation stress test, but over the buddy allocator core
// and fanned out with errgroup instead of a raw sync.WaitGroup.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/shenjiangwei/buddyheap/buddy"
	"github.com/shenjiangwei/buddyheap/sysalloc"
)

const (
	minRequestSize = 4 * 1024
	maxRequestSize = 4 * 1024 * 1024
	workers        = 10
	opsPerWorker   = 100000
)

func main() {
	allocator := buddy.NewBuddyAllocator(sysalloc.NewMock(), buddy.Config{
		MinChunkSize: 256,
		MaxChunkSize: 4 << 20,
	})
	defer allocator.Close()

	var mu sync.Mutex
	live := make(map[uintptr]unsafe.Pointer)

	start := time.Now()

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(w)))
			for i := 0; i < opsPerWorker; i++ {
				if rng.Float64() < 0.7 {
					size := uintptr(rng.IntN(maxRequestSize-minRequestSize) + minRequestSize)
					ptr, ok := allocator.Alloc(size)
					if ok {
						mu.Lock()
						live[uintptr(ptr)] = ptr
						mu.Unlock()
					}
					continue
				}

				mu.Lock()
				var victim unsafe.Pointer
				for addr, ptr := range live {
					victim = ptr
					delete(live, addr)
					break
				}
				mu.Unlock()

				if victim != nil {
					allocator.Free(victim)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	duration := time.Since(start)
	fmt.Printf("workers=%d ops/worker=%d used=%d duration=%s\n", workers, opsPerWorker, allocator.Used(), duration)
}
