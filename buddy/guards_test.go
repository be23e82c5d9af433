package buddy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardsValidateAfterRefresh(t *testing.T) {
	d := &descriptor{state: StateFree, index: 3, totalSize: 4096, size: 4032}
	refreshGuards(d)
	require.True(t, validateGuards(d))
}

func TestGuardsCatchFieldMutation(t *testing.T) {
	d := &descriptor{state: StateFree, index: 3, totalSize: 4096, size: 4032}
	refreshGuards(d)

	d.totalSize = 8192
	require.False(t, validateGuards(d), "mutating a guarded field without refreshing must be detected")
}

func TestGuardsDifferByState(t *testing.T) {
	a := &descriptor{state: StateFree, index: 1, totalSize: 256, size: 192}
	b := &descriptor{state: StateArena, index: 1, totalSize: 256, size: 192}
	require.NotEqual(t, computeLeadingGuard(a), computeLeadingGuard(b))
}
