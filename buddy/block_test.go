package buddy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitAndMergeRoundTrip(t *testing.T) {
	cache := newMetadataCache(false)
	const base uintptr = 0x1000
	initDescriptor(cache, base, StateFree, 0, 4096, 0, 0)

	residual := splitChunk(cache, base, 256, 256)
	require.NotZero(t, residual)

	left := cache.loadDesc(base)
	right := cache.loadDesc(residual)
	require.Equal(t, uintptr(256), left.totalSize)
	require.Equal(t, uintptr(4096-256), right.totalSize)
	require.Equal(t, base, right.prev)
	require.Equal(t, residual, left.next)

	mergeChunks(cache, base, residual)
	merged := cache.loadDesc(base)
	require.Equal(t, uintptr(4096), merged.totalSize)

	_, ok := cache.tryLoadDesc(residual)
	require.False(t, ok, "merged-away chunk must be invalidated")
}

func TestSplitRefusesWhenResidualTooSmall(t *testing.T) {
	cache := newMetadataCache(false)
	const base uintptr = 0x2000
	initDescriptor(cache, base, StateFree, 0, 300, 0, 0)

	residual := splitChunk(cache, base, 256, 256)
	require.Zero(t, residual, "residual of 44 bytes is below descriptorOverhead+minChunkSize")

	d := cache.loadDesc(base)
	require.Equal(t, uintptr(300), d.totalSize, "no split means the whole block stays intact")
}

func TestBuddyLookupRespectsRegionBoundaries(t *testing.T) {
	cache := newMetadataCache(false)
	// Two chunks physically adjacent but from different source regions are
	// not buddies (spec.md §3 invariant 3).
	initDescriptor(cache, 0x1000, StateFree, 0, 256, 0, 0x1100)
	initDescriptor(cache, 0x1100, StateFree, 1, 256, 0x1000, 0)

	_, ok := getRightBuddy(cache, 0x1000)
	require.False(t, ok, "neighbor from a different source region is not a buddy")
}

func TestMarkAsFreeRejectsNonArenaWhenDebugChecksEnabled(t *testing.T) {
	if !DebugChecks {
		t.Skip("built with nodebugchecks")
	}

	cache := newMetadataCache(false)
	initDescriptor(cache, 0x3000, StateFree, 0, 256, 0, 0)

	require.Panics(t, func() {
		markAsFree(cache, 0x3000)
	})
}

func TestGuardMismatchIsFatal(t *testing.T) {
	cache := newMetadataCache(false)
	initDescriptor(cache, 0x4000, StateFree, 0, 256, 0, 0)

	d := cache.entries[0x4000]
	d.size = 9999 // corrupt a field without refreshing guards

	require.Panics(t, func() {
		cache.loadDesc(0x4000)
	})
}
