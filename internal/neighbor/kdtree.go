package neighbor

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/system"
)

const treeLeafSize = 8

// Tree is a balanced kd-tree over wrapped coordinates with a periodic
// point-to-box metric. The tree cannot be updated incrementally, so every
// rebuild constructs it from scratch; the node and index buffers are reused.
type Tree struct {
	cutoff2 float64
	workers int

	lengths geom.Vec3
	nodes   []treeNode
	idx     []int
	wrapped []geom.Vec3
}

type treeNode struct {
	bbMin, bbMax geom.Vec3
	left, right  int // -1 for leaves
	start, end   int // index range into idx for leaves
}

// NewTree rejects unbounded axes (the periodic box metric needs a finite
// period) and triclinic cells (per-axis pruning assumes an orthogonal
// basis). Both are configuration errors raised before any step runs.
func NewTree(cell *geom.Cell, cutoff float64) (*Tree, error) {
	if cutoff <= 0 {
		return nil, fmt.Errorf("tree cutoff must be positive, got %f", cutoff)
	}
	if !cell.FullyPeriodic() {
		return nil, fmt.Errorf("tree finder requires a fully periodic cell; use the brute-force finder for unbounded axes")
	}
	if cell.Triclinic() {
		return nil, fmt.Errorf("tree finder requires an orthorhombic cell; use the cell-list finder for triclinic cells")
	}
	return &Tree{cutoff2: cutoff * cutoff, workers: runtime.NumCPU(), lengths: cell.Lengths()}, nil
}

func (t *Tree) Name() string { return "tree" }

func (t *Tree) Rebuild(sys *system.System, list *List) {
	list.Reset()
	n := sys.N()
	if n == 0 {
		return
	}

	t.build(sys)

	// Every particle queries the tree; only j < i hits are kept, so each
	// pair appears exactly once no matter which side initiates.
	if n < 64 || t.workers < 2 {
		t.queryRange(sys, 0, n, list)
		return
	}

	local := make([]*List, t.workers)
	chunk := (n + t.workers - 1) / t.workers

	var wg sync.WaitGroup
	for w := 0; w < t.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			start := worker * chunk
			end := start + chunk
			if end > n {
				end = n
			}
			local[worker] = NewList()
			t.queryRange(sys, start, end, local[worker])
		}(w)
	}
	wg.Wait()

	for _, l := range local {
		list.append(l.pairs...)
	}
}

func (t *Tree) build(sys *system.System) {
	n := sys.N()
	if cap(t.idx) < n {
		t.idx = make([]int, n)
		t.wrapped = make([]geom.Vec3, n)
	}
	t.idx = t.idx[:n]
	t.wrapped = t.wrapped[:n]
	t.nodes = t.nodes[:0]

	for i := 0; i < n; i++ {
		t.idx[i] = i
		t.wrapped[i] = sys.Cell.Wrap(sys.Pos[i])
	}
	t.buildNode(0, n)
}

// buildNode lays out the subtree over idx[start:end) and returns its node
// index in the flat node slice.
func (t *Tree) buildNode(start, end int) int {
	node := treeNode{
		bbMin: geom.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)},
		bbMax: geom.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
		left:  -1, right: -1,
		start: start, end: end,
	}
	for _, p := range t.idx[start:end] {
		for ax := 0; ax < 3; ax++ {
			c := t.wrapped[p][ax]
			if c < node.bbMin[ax] {
				node.bbMin[ax] = c
			}
			if c > node.bbMax[ax] {
				node.bbMax[ax] = c
			}
		}
	}

	id := len(t.nodes)
	t.nodes = append(t.nodes, node)

	if end-start <= treeLeafSize {
		return id
	}

	// Split the widest axis at the median.
	axis := 0
	for ax := 1; ax < 3; ax++ {
		if node.bbMax[ax]-node.bbMin[ax] > node.bbMax[axis]-node.bbMin[axis] {
			axis = ax
		}
	}
	sub := t.idx[start:end]
	sort.Slice(sub, func(a, b int) bool {
		return t.wrapped[sub[a]][axis] < t.wrapped[sub[b]][axis]
	})
	mid := start + (end-start)/2

	left := t.buildNode(start, mid)
	right := t.buildNode(mid, end)
	t.nodes[id].left = left
	t.nodes[id].right = right
	return id
}

func (t *Tree) queryRange(sys *system.System, start, end int, out *List) {
	for i := start; i < end; i++ {
		t.query(sys, i, 0, out)
	}
}

func (t *Tree) query(sys *system.System, i, nodeID int, out *List) {
	node := &t.nodes[nodeID]
	if t.boxDist2(t.wrapped[i], node) > t.cutoff2 {
		return
	}
	if node.left < 0 {
		for _, j := range t.idx[node.start:node.end] {
			if j >= i || !sys.Eligible.Get(j, i) {
				continue
			}
			if sys.Cell.Distance2(sys.Pos[j], sys.Pos[i]) <= t.cutoff2 {
				out.append(Pair{I: j, J: i, Special: sys.Special.Get(j, i)})
			}
		}
		return
	}
	t.query(sys, i, node.left, out)
	t.query(sys, i, node.right, out)
}

// boxDist2 is the squared minimum distance from q to the node's bounding box
// under the periodic per-axis metric: the nearest of the box's images along
// each axis counts.
func (t *Tree) boxDist2(q geom.Vec3, node *treeNode) float64 {
	sum := 0.0
	for ax := 0; ax < 3; ax++ {
		d := axisIntervalDist(q[ax], node.bbMin[ax], node.bbMax[ax], t.lengths[ax])
		sum += d * d
	}
	return sum
}

func axisIntervalDist(q, lo, hi, period float64) float64 {
	best := math.Inf(1)
	for k := -1.0; k <= 1; k++ {
		l := lo + k*period
		h := hi + k*period
		d := 0.0
		if q < l {
			d = l - q
		} else if q > h {
			d = q - h
		}
		if d < best {
			best = d
		}
	}
	return best
}
