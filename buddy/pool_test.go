package buddy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreePoolOrdering(t *testing.T) {
	p := newFreePool()

	p.insert(poolKey{index: 0, totalSize: 512, addr: 100})
	p.insert(poolKey{index: 0, totalSize: 256, addr: 50})
	p.insert(poolKey{index: 1, totalSize: 128, addr: 10})
	p.insert(poolKey{index: 0, totalSize: 512, addr: 40})

	require.Equal(t, 4, p.len())
	// Lexicographic: (index, totalSize, addr) ascending.
	require.Equal(t, poolKey{0, 256, 50}, p.at(0))
	require.Equal(t, poolKey{0, 512, 40}, p.at(1))
	require.Equal(t, poolKey{0, 512, 100}, p.at(2))
	require.Equal(t, poolKey{1, 128, 10}, p.at(3))
}

func TestFreePoolLowerBoundSkipsToNextRegion(t *testing.T) {
	p := newFreePool()
	p.insert(poolKey{index: 3, totalSize: 4096, addr: 1})

	i := p.lowerBound(poolKey{index: 0, totalSize: 256, addr: 0})
	require.Equal(t, 0, i)
	require.Equal(t, uint64(3), p.at(i).index, "lower_bound should surface the next nonempty region")
}

func TestFreePoolLowerBoundMiss(t *testing.T) {
	p := newFreePool()
	p.insert(poolKey{index: 0, totalSize: 256, addr: 1})

	i := p.lowerBound(poolKey{index: 0, totalSize: 4096, addr: 0})
	require.Equal(t, p.len(), i)
}

func TestFreePoolEraseMissingKeyIsFatal(t *testing.T) {
	p := newFreePool()
	require.Panics(t, func() {
		p.erase(poolKey{index: 0, totalSize: 256, addr: 1})
	})
}
