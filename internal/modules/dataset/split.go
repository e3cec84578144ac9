package dataset

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// StratifiedSplit draws trainSize and testSize samples without overlap,
// keeping each class's share of both splits proportional to its share of
// ds. A testSize of 0 puts every remaining sample in the test split. The
// shuffle is fully determined by seed.
func StratifiedSplit(ds *Dataset, trainSize, testSize int, seed uint64) (train, test *Dataset, err error) {
	n := ds.Len()
	if n == 0 {
		return nil, nil, ErrEmpty
	}
	if testSize == 0 {
		testSize = n - trainSize
	}
	if trainSize <= 0 || testSize <= 0 || trainSize+testSize > n {
		return nil, nil, fmt.Errorf("%w: train %d + test %d of %d samples", ErrSplitSize, trainSize, testSize, n)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	byClass := make(map[int][]int)
	for i, y := range ds.Y {
		byClass[y] = append(byClass[y], i)
	}
	classes := ds.Classes()
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	}

	sizes := make(map[int]int, len(classes))
	capacity := make(map[int]int, len(classes))
	for _, c := range classes {
		sizes[c] = len(byClass[c])
		capacity[c] = sizes[c]
	}
	trainAlloc := allocate(classes, sizes, capacity, n, trainSize)
	for _, c := range classes {
		capacity[c] -= trainAlloc[c]
	}
	testAlloc := allocate(classes, sizes, capacity, n, testSize)

	var trainIdx, testIdx []int
	for _, c := range classes {
		idx := byClass[c]
		trainIdx = append(trainIdx, idx[:trainAlloc[c]]...)
		testIdx = append(testIdx, idx[trainAlloc[c]:trainAlloc[c]+testAlloc[c]]...)
	}
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })

	return ds.Subset(trainIdx), ds.Subset(testIdx), nil
}

// allocate splits want samples across classes in proportion to their size
// in a population of total, using largest remainders and never exceeding a
// class's remaining capacity.
func allocate(classes []int, sizes, capacity map[int]int, total, want int) map[int]int {
	type share struct {
		class     int
		remainder float64
	}
	alloc := make(map[int]int, len(classes))
	shares := make([]share, 0, len(classes))
	assigned := 0
	for _, c := range classes {
		exact := float64(want) * float64(sizes[c]) / float64(total)
		base := int(exact)
		if base > capacity[c] {
			base = capacity[c]
		}
		alloc[c] = base
		assigned += base
		shares = append(shares, share{class: c, remainder: exact - float64(base)})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].remainder > shares[j].remainder })
	for assigned < want {
		progressed := false
		for _, s := range shares {
			if assigned == want {
				break
			}
			if alloc[s.class] < capacity[s.class] {
				alloc[s.class]++
				assigned++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return alloc
}
