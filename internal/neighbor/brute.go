package neighbor

import (
	"runtime"
	"sync"

	"github.com/san-kum/mdsim/internal/system"
)

// BruteForce scans every ordered pair i < j. Quadratic, but it works for any
// cell shape including unbounded axes, and it is the oracle the other
// finders are checked against.
type BruteForce struct {
	cutoff2 float64
	workers int
}

func NewBruteForce(cutoff float64) *BruteForce {
	return &BruteForce{cutoff2: cutoff * cutoff, workers: runtime.NumCPU()}
}

func (b *BruteForce) Name() string { return "brute" }

func (b *BruteForce) Rebuild(sys *system.System, list *List) {
	list.Reset()
	n := sys.N()
	if n < 64 || b.workers < 2 {
		b.scanRange(sys, 0, n, list)
		return
	}

	// Split the outer index range across workers, each appending to a
	// private list. Merge order does not matter: the list is a set.
	local := make([]*List, b.workers)
	chunk := (n + b.workers - 1) / b.workers

	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			start := worker * chunk
			end := start + chunk
			if end > n {
				end = n
			}
			local[worker] = NewList()
			b.scanRange(sys, start, end, local[worker])
		}(w)
	}
	wg.Wait()

	for _, l := range local {
		list.append(l.pairs...)
	}
}

func (b *BruteForce) scanRange(sys *system.System, start, end int, out *List) {
	for i := start; i < end; i++ {
		pi := sys.Pos[i]
		for j := i + 1; j < sys.N(); j++ {
			if !sys.Eligible.Get(i, j) {
				continue
			}
			if sys.Cell.Distance2(pi, sys.Pos[j]) <= b.cutoff2 {
				out.append(Pair{I: i, J: j, Special: sys.Special.Get(i, j)})
			}
		}
	}
}
