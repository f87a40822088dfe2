package neighbor

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/system"
)

func makeSystem(t *testing.T, cell *geom.Cell, pos []geom.Vec3) *system.System {
	t.Helper()
	parts := make([]system.Particle, len(pos))
	for i := range parts {
		parts[i] = system.Particle{Mass: 1}
	}
	sys, err := system.New(parts, pos, make([]geom.Vec3, len(pos)), cell, nil, nil)
	require.NoError(t, err)
	return sys
}

func sortedPairs(l *List) []Pair {
	ps := append([]Pair(nil), l.Pairs()...)
	sort.Slice(ps, func(a, b int) bool {
		if ps[a].I != ps[b].I {
			return ps[a].I < ps[b].I
		}
		return ps[a].J < ps[b].J
	})
	return ps
}

func TestBruteForce_CutoffBoundaryIncluded(t *testing.T) {
	cell, _ := geom.NewCubic(10)
	sys := makeSystem(t, cell, []geom.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2.0000001, 0}})

	list := NewList()
	NewBruteForce(2.0).Rebuild(sys, list)

	// Pair at exactly the cutoff is in; the one just beyond is out.
	require.Equal(t, 1, list.Len())
	assert.Equal(t, Pair{I: 0, J: 1}, list.Pairs()[0])
}

func TestBruteForce_EligibilityAndSpecial(t *testing.T) {
	cell, _ := geom.NewCubic(10)
	sys := makeSystem(t, cell, []geom.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}})
	sys.Eligible.Set(0, 1, false)
	sys.Special.Set(1, 2, true)

	list := NewList()
	NewBruteForce(1.5).Rebuild(sys, list)

	require.Equal(t, 1, list.Len())
	assert.Equal(t, Pair{I: 1, J: 2, Special: true}, list.Pairs()[0])
}

func TestBruteForce_MinimumImage(t *testing.T) {
	cell, _ := geom.NewCubic(10)
	sys := makeSystem(t, cell, []geom.Vec3{{0.2, 5, 5}, {9.8, 5, 5}})

	list := NewList()
	NewBruteForce(1.0).Rebuild(sys, list)

	require.Equal(t, 1, list.Len(), "pair across the periodic boundary must be found")
}

func TestFinderConfigErrors(t *testing.T) {
	open, err := geom.NewOrthorhombic(geom.Vec3{10, 10, math.Inf(1)})
	require.NoError(t, err)

	_, err = NewCellList(open, 2.0)
	assert.Error(t, err, "cell list must reject unbounded axes")

	_, err = NewTree(open, 2.0)
	assert.Error(t, err, "tree must reject unbounded axes")

	tri, err := geom.NewTriclinic(geom.Vec3{10, 0, 0}, geom.Vec3{1, 10, 0}, geom.Vec3{0, 1, 10})
	require.NoError(t, err)

	_, err = NewTree(tri, 2.0)
	assert.Error(t, err, "tree must reject triclinic cells")

	_, err = NewCellList(tri, 2.0)
	assert.NoError(t, err, "cell list handles triclinic cells")

	cube, _ := geom.NewCubic(10)
	_, err = NewCellList(cube, 0)
	assert.Error(t, err)
	_, err = NewTree(cube, -1)
	assert.Error(t, err)
}

// The three collinear particles of the cross-strategy scenario: every finder
// must report the identical neighbor set.
func TestFinders_CollinearAgreement(t *testing.T) {
	cell, _ := geom.NewCubic(12)
	pos := []geom.Vec3{{3, 6, 6}, {6, 6, 6}, {9, 6, 6}}
	sys := makeSystem(t, cell, pos)

	cutoff := 4.0
	cellFinder, err := NewCellList(cell, cutoff)
	require.NoError(t, err)
	treeFinder, err := NewTree(cell, cutoff)
	require.NoError(t, err)

	finders := []Finder{NewBruteForce(cutoff), cellFinder, treeFinder}
	var sets [][]Pair
	for _, f := range finders {
		list := NewList()
		f.Rebuild(sys, list)
		sets = append(sets, sortedPairs(list))
	}

	// 0-1 and 1-2 are 3 apart, 0-2 is 6 apart but also 6 across the
	// boundary: at cutoff 4 only the two short pairs qualify.
	want := []Pair{{I: 0, J: 1}, {I: 1, J: 2}}
	for i, f := range finders {
		assert.Equal(t, want, sets[i], "finder %s", f.Name())
	}
}

func TestFinders_RandomAgreement(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cell, _ := geom.NewOrthorhombic(geom.Vec3{8, 10, 12})

	n := 150
	pos := make([]geom.Vec3, n)
	for i := range pos {
		pos[i] = geom.Vec3{rng.Float64() * 8, rng.Float64() * 10, rng.Float64() * 12}
	}
	sys := makeSystem(t, cell, pos)

	// Sprinkle in exclusions and special pairs.
	for k := 0; k < 40; k++ {
		i, j := rng.Intn(n), rng.Intn(n)
		if i == j {
			continue
		}
		if k%2 == 0 {
			sys.Eligible.Set(i, j, false)
		} else {
			sys.Special.Set(i, j, true)
		}
	}

	cutoff := 2.5
	cellFinder, err := NewCellList(cell, cutoff)
	require.NoError(t, err)
	treeFinder, err := NewTree(cell, cutoff)
	require.NoError(t, err)

	brute := NewList()
	NewBruteForce(cutoff).Rebuild(sys, brute)
	want := sortedPairs(brute)
	require.NotEmpty(t, want)

	for _, f := range []Finder{cellFinder, treeFinder} {
		list := NewList()
		f.Rebuild(sys, list)
		assert.Equal(t, want, sortedPairs(list), "finder %s disagrees with brute force", f.Name())
	}
}

func TestFinders_TriclinicCellListAgreement(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cell, err := geom.NewTriclinic(geom.Vec3{9, 0, 0}, geom.Vec3{2, 9, 0}, geom.Vec3{1, 1, 9})
	require.NoError(t, err)

	n := 80
	pos := make([]geom.Vec3, n)
	for i := range pos {
		p := geom.Vec3{rng.Float64() * 12, rng.Float64() * 10, rng.Float64() * 9}
		pos[i] = cell.Wrap(p)
	}
	sys := makeSystem(t, cell, pos)

	cutoff := 2.0
	cellFinder, err := NewCellList(cell, cutoff)
	require.NoError(t, err)

	brute := NewList()
	NewBruteForce(cutoff).Rebuild(sys, brute)

	list := NewList()
	cellFinder.Rebuild(sys, list)
	assert.Equal(t, sortedPairs(brute), sortedPairs(list))
}

func TestFinders_TriclinicCellListYTilt(t *testing.T) {
	// Tilt in the y component of c: points near the top of the b axis have a
	// raw y coordinate outside [0, b[1]) even when inside the primary image,
	// so binning must go through wrapped fractional coordinates.
	rng := rand.New(rand.NewSource(0))
	cell, err := geom.NewTriclinic(geom.Vec3{18, 0, 0}, geom.Vec3{0, 18, 0}, geom.Vec3{0, 8, 18})
	require.NoError(t, err)

	n := 120
	pos := make([]geom.Vec3, n)
	for i := range pos {
		s := geom.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}
		pos[i] = cell.Wrap(cell.FromFractional(s))
	}
	sys := makeSystem(t, cell, pos)

	cutoff := 4.0
	cellFinder, err := NewCellList(cell, cutoff)
	require.NoError(t, err)

	brute := NewList()
	NewBruteForce(cutoff).Rebuild(sys, brute)
	require.NotEmpty(t, brute.Pairs())

	list := NewList()
	cellFinder.Rebuild(sys, list)
	assert.Equal(t, sortedPairs(brute), sortedPairs(list))
}

func TestRebuild_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cell, _ := geom.NewCubic(10)
	pos := make([]geom.Vec3, 60)
	for i := range pos {
		pos[i] = geom.Vec3{rng.Float64() * 10, rng.Float64() * 10, rng.Float64() * 10}
	}
	sys := makeSystem(t, cell, pos)

	cellFinder, err := NewCellList(cell, 2.0)
	require.NoError(t, err)

	list := NewList()
	cellFinder.Rebuild(sys, list)
	first := append([]Pair(nil), sortedPairs(list)...)

	// Unchanged coordinates: identical set, and the buffer is reused.
	cellFinder.Rebuild(sys, list)
	assert.Equal(t, first, sortedPairs(list))
}

func TestList_ResetKeepsCapacity(t *testing.T) {
	l := NewList()
	l.append(Pair{I: 0, J: 1}, Pair{I: 0, J: 2})
	c := cap(l.pairs)
	l.Reset()
	assert.Zero(t, l.Len())
	assert.Equal(t, c, cap(l.pairs))
}

func TestFinders_NoSelfOrDuplicatePairs(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	cell, _ := geom.NewCubic(6)
	pos := make([]geom.Vec3, 100)
	for i := range pos {
		pos[i] = geom.Vec3{rng.Float64() * 6, rng.Float64() * 6, rng.Float64() * 6}
	}
	sys := makeSystem(t, cell, pos)

	cellFinder, err := NewCellList(cell, 2.9)
	require.NoError(t, err)
	treeFinder, err := NewTree(cell, 2.9)
	require.NoError(t, err)

	for _, f := range []Finder{NewBruteForce(2.9), cellFinder, treeFinder} {
		list := NewList()
		f.Rebuild(sys, list)
		seen := map[[2]int]bool{}
		for _, p := range list.Pairs() {
			require.Less(t, p.I, p.J, "finder %s emitted unordered or self pair", f.Name())
			key := [2]int{p.I, p.J}
			require.False(t, seen[key], "finder %s emitted duplicate pair %v", f.Name(), key)
			seen[key] = true
		}
	}
}
