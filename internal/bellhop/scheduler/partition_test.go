package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionMapCoversEveryIndexExactlyOnce(t *testing.T) {
	pm := NewPartitionMap(4, 17)
	seen := make(map[int]bool, 17)
	for n := 0; n < pm.ParallelDegree; n++ {
		kMin, kMax := pm.GetBucketRange(n)
		for k := kMin; k < kMax; k++ {
			require.False(t, seen[k], "index %d claimed by more than one bucket", k)
			seen[k] = true
		}
	}
	require.Len(t, seen, 17)
}

func TestPartitionMapBalancesWithinOneJob(t *testing.T) {
	pm := NewPartitionMap(4, 17)
	var maxSize, minSize int
	for n := 0; n < pm.ParallelDegree; n++ {
		kMin, kMax := pm.GetBucketRange(n)
		size := kMax - kMin
		if n == 0 || size > maxSize {
			maxSize = size
		}
		if n == 0 || size < minSize {
			minSize = size
		}
	}
	require.LessOrEqual(t, maxSize-minSize, 1)
}

func TestPartitionMapSingleWorkerOwnsWholeRange(t *testing.T) {
	pm := NewPartitionMap(1, 9)
	kMin, kMax := pm.GetBucketRange(0)
	require.Equal(t, 0, kMin)
	require.Equal(t, 9, kMax)
}
