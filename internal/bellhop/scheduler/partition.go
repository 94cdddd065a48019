package scheduler

// PartitionMap splits a flat index space into contiguous per-worker ranges.
// The first dispatch pass (component H) pulls jobs from an atomic counter
// instead, since its job space is large and open-ended; PartitionMap backs
// the eigenray retrace pass instead, whose hit list is small and fully
// known up front, so a static contiguous split needs no further
// coordination between workers.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int
}

func NewPartitionMap(parallelDegree, maxIndex int) *PartitionMap {
	pm := &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: parallelDegree,
		Partitions:     make([][2]int, parallelDegree),
	}
	for n := 0; n < parallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return pm
}

// Split1D divides MaxIndex into ParallelDegree contiguous buckets with a
// maximum imbalance of one job.
func (pm *PartitionMap) Split1D(threadNum int) [2]int {
	nPart := pm.MaxIndex / pm.ParallelDegree
	remainder := pm.MaxIndex % pm.ParallelDegree
	var startAdd, endAdd int
	if remainder != 0 {
		if threadNum+1 > remainder {
			startAdd, endAdd = remainder, 0
		} else {
			startAdd, endAdd = threadNum, 1
		}
	}
	var bucket [2]int
	bucket[0] = threadNum*nPart + startAdd
	bucket[1] = bucket[0] + nPart + endAdd
	return bucket
}

// GetBucketRange returns the [kMin, kMax) index range owned by bucketNum.
func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}
