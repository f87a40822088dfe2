package neighbor

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/system"
)

// CellList partitions the cell into a grid of bins at least one cutoff wide
// and scans only same-bin and adjacent-bin pairs. The bin structure persists
// across rebuilds to amortize allocation; counts are reset, capacity is kept.
type CellList struct {
	cutoff  float64
	cutoff2 float64
	workers int

	dims     [3]int
	bins     [][]int
	nbrCells [][]int
}

// NewCellList rejects unbounded axes up front: the grid needs a finite extent
// on every axis. This is a configuration error, not something to retry.
func NewCellList(cell *geom.Cell, cutoff float64) (*CellList, error) {
	if cutoff <= 0 {
		return nil, fmt.Errorf("cell list cutoff must be positive, got %f", cutoff)
	}
	if !cell.FullyPeriodic() {
		return nil, fmt.Errorf("cell list requires a fully periodic cell; use the brute-force finder for unbounded axes")
	}
	return &CellList{cutoff: cutoff, cutoff2: cutoff * cutoff, workers: runtime.NumCPU()}, nil
}

func (c *CellList) Name() string { return "cell" }

func (c *CellList) Rebuild(sys *system.System, list *List) {
	list.Reset()
	c.assign(sys)

	nc := len(c.bins)
	if sys.N() < 256 || c.workers < 2 || nc < c.workers {
		c.scanCells(sys, 0, nc, list)
		return
	}

	// Split the grid into contiguous batches of bins, one private output
	// buffer per worker, concatenated after the barrier.
	local := make([]*List, c.workers)
	chunk := (nc + c.workers - 1) / c.workers

	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			start := worker * chunk
			end := start + chunk
			if end > nc {
				end = nc
			}
			local[worker] = NewList()
			c.scanCells(sys, start, end, local[worker])
		}(w)
	}
	wg.Wait()

	for _, l := range local {
		list.append(l.pairs...)
	}
}

// assign recomputes grid dimensions and re-bins every particle.
func (c *CellList) assign(sys *system.System) {
	w := sys.Cell.PerpWidths()
	var dims [3]int
	for ax := 0; ax < 3; ax++ {
		dims[ax] = int(w[ax] / c.cutoff)
		if dims[ax] < 1 {
			dims[ax] = 1
		}
	}

	total := dims[0] * dims[1] * dims[2]
	if dims != c.dims || len(c.bins) != total {
		c.dims = dims
		c.bins = make([][]int, total)
		c.nbrCells = nil
	}
	for i := range c.bins {
		c.bins[i] = c.bins[i][:0]
	}
	if c.nbrCells == nil {
		c.buildNeighborCells()
	}

	for i := range sys.Pos {
		s := sys.Cell.Fractional(sys.Pos[i])
		var idx [3]int
		for ax := 0; ax < 3; ax++ {
			// Wrap into [0, 1); clamping would misfile points whose raw
			// fractional coordinate falls outside the primary image.
			f := s[ax] - math.Floor(s[ax])
			k := int(f * float64(c.dims[ax]))
			if k >= c.dims[ax] {
				k = c.dims[ax] - 1
			}
			idx[ax] = k
		}
		bin := c.flat(idx[0], idx[1], idx[2])
		c.bins[bin] = append(c.bins[bin], i)
	}
}

func (c *CellList) flat(x, y, z int) int {
	return (z*c.dims[1]+y)*c.dims[0] + x
}

// buildNeighborCells precomputes, for each bin, the distinct wrapped
// neighbor bins. Duplicates from small grids (one or two bins per axis) are
// folded out so a pair is never visited twice.
func (c *CellList) buildNeighborCells() {
	c.nbrCells = make([][]int, len(c.bins))
	for z := 0; z < c.dims[2]; z++ {
		for y := 0; y < c.dims[1]; y++ {
			for x := 0; x < c.dims[0]; x++ {
				bin := c.flat(x, y, z)
				seen := map[int]bool{}
				for dz := -1; dz <= 1; dz++ {
					for dy := -1; dy <= 1; dy++ {
						for dx := -1; dx <= 1; dx++ {
							nx := mod(x+dx, c.dims[0])
							ny := mod(y+dy, c.dims[1])
							nz := mod(z+dz, c.dims[2])
							nb := c.flat(nx, ny, nz)
							if !seen[nb] {
								seen[nb] = true
								c.nbrCells[bin] = append(c.nbrCells[bin], nb)
							}
						}
					}
				}
			}
		}
	}
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

// scanCells emits pairs whose lower-indexed bin lies in [start, end). Within
// a bin only i < j is taken; across bins only the lower bin id initiates, so
// every pair appears exactly once.
func (c *CellList) scanCells(sys *system.System, start, end int, out *List) {
	for bin := start; bin < end; bin++ {
		members := c.bins[bin]
		for _, nb := range c.nbrCells[bin] {
			if nb < bin {
				continue
			}
			if nb == bin {
				for a := 0; a < len(members); a++ {
					for b := a + 1; b < len(members); b++ {
						c.tryPair(sys, members[a], members[b], out)
					}
				}
				continue
			}
			for _, i := range members {
				for _, j := range c.bins[nb] {
					c.tryPair(sys, i, j, out)
				}
			}
		}
	}
}

func (c *CellList) tryPair(sys *system.System, i, j int, out *List) {
	if i > j {
		i, j = j, i
	}
	if !sys.Eligible.Get(i, j) {
		return
	}
	if sys.Cell.Distance2(sys.Pos[i], sys.Pos[j]) <= c.cutoff2 {
		out.append(Pair{I: i, J: j, Special: sys.Special.Get(i, j)})
	}
}
