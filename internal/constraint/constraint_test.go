package constraint

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/system"
)

func TestBuildClusters_Partition(t *testing.T) {
	// Two separate chains and one isolated pair: 0-1-2, 4-5, 7-8-9 (star).
	cons := []Constraint{
		{I: 0, J: 1, Target: 1},
		{I: 1, J: 2, Target: 1},
		{I: 4, J: 5, Target: 1},
		{I: 8, J: 7, Target: 1},
		{I: 8, J: 9, Target: 1},
	}
	clusters := BuildClusters(10, cons)
	require.Len(t, clusters, 3)

	sizes := []int{}
	edges := 0
	for _, cl := range clusters {
		sizes = append(sizes, cl.Atoms)
		edges += len(cl.Constraints)
	}
	sort.Ints(sizes)
	assert.Equal(t, []int{2, 3, 3}, sizes)
	assert.Equal(t, len(cons), edges, "every edge lands in exactly one cluster")

	// No atom may appear in two clusters.
	seen := map[int]int{}
	for ci, cl := range clusters {
		for _, c := range cl.Constraints {
			for _, atom := range []int{c.I, c.J} {
				if prev, ok := seen[atom]; ok {
					assert.Equal(t, prev, ci, "atom %d crosses clusters", atom)
				}
				seen[atom] = ci
			}
		}
	}
}

func TestNewSolver_Validation(t *testing.T) {
	_, err := NewSolver(3, []Constraint{{I: 0, J: 3, Target: 1}})
	assert.Error(t, err, "out of range index")

	_, err = NewSolver(3, []Constraint{{I: 1, J: 1, Target: 1}})
	assert.Error(t, err, "self constraint")

	_, err = NewSolver(3, []Constraint{{I: 0, J: 1, Target: 0}})
	assert.Error(t, err, "non-positive target")

	s, err := NewSolver(3, nil)
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func constrainedSystem(t *testing.T, pos []geom.Vec3, masses []float64) *system.System {
	t.Helper()
	cell, err := geom.NewCubic(20)
	require.NoError(t, err)
	parts := make([]system.Particle, len(pos))
	for i := range parts {
		parts[i] = system.Particle{Mass: masses[i]}
	}
	sys, err := system.New(parts, pos, make([]geom.Vec3, len(pos)), cell, nil, nil)
	require.NoError(t, err)
	return sys
}

func TestShake_RestoresTargetDistance(t *testing.T) {
	// Reference at the target length; the update stretched the pair.
	ref := []geom.Vec3{{5, 5, 5}, {6, 5, 5}}
	sys := constrainedSystem(t, []geom.Vec3{{4.9, 5, 5}, {6.25, 5.1, 5}}, []float64{1, 1})

	s, err := NewSolver(2, []Constraint{{I: 0, J: 1, Target: 1}})
	require.NoError(t, err)

	require.True(t, s.Shake(sys, ref))

	d := sys.Cell.Displacement(sys.Pos[0], sys.Pos[1]).Norm()
	assert.InDelta(t, 1.0, d, s.Tolerance*10)
}

func TestShake_ConservesMomentum(t *testing.T) {
	ref := []geom.Vec3{{5, 5, 5}, {6, 5, 5}}
	pos := []geom.Vec3{{4.8, 5.05, 5}, {6.3, 5, 5.1}}
	masses := []float64{2, 5}
	sys := constrainedSystem(t, pos, masses)

	var before geom.Vec3
	for i := range pos {
		before = before.Add(sys.Pos[i].Scale(masses[i]))
	}

	s, err := NewSolver(2, []Constraint{{I: 0, J: 1, Target: 1}})
	require.NoError(t, err)
	require.True(t, s.Shake(sys, ref))

	var after geom.Vec3
	for i := range pos {
		after = after.Add(sys.Pos[i].Scale(masses[i]))
	}
	assert.InDelta(t, 0.0, after.Sub(before).Norm(), 1e-9,
		"mass-weighted position sum (center of mass) must not move")
}

func TestShake_Chain(t *testing.T) {
	// Three atoms with two shared constraints: a coupled cluster that needs
	// several sweeps.
	ref := []geom.Vec3{{5, 5, 5}, {6, 5, 5}, {7, 5, 5}}
	sys := constrainedSystem(t,
		[]geom.Vec3{{4.9, 5.02, 5}, {6.1, 4.95, 5.03}, {7.15, 5.04, 4.96}},
		[]float64{1, 12, 1})

	s, err := NewSolver(3, []Constraint{
		{I: 0, J: 1, Target: 1},
		{I: 1, J: 2, Target: 1},
	})
	require.NoError(t, err)
	require.Len(t, s.Clusters, 1)
	require.True(t, s.Shake(sys, ref))

	for _, c := range s.Clusters[0].Constraints {
		d := sys.Cell.Displacement(sys.Pos[c.I], sys.Pos[c.J]).Norm()
		assert.InDelta(t, c.Target, d, s.Tolerance*100, "constraint %d-%d", c.I, c.J)
	}
}

func TestShake_NonConvergenceReported(t *testing.T) {
	ref := []geom.Vec3{{5, 5, 5}, {6, 5, 5}}
	sys := constrainedSystem(t, []geom.Vec3{{4.9, 5, 5}, {6.2, 5, 5}}, []float64{1, 1})

	s, err := NewSolver(2, []Constraint{{I: 0, J: 1, Target: 1}})
	require.NoError(t, err)
	s.MaxIter = 0

	assert.False(t, s.Shake(sys, ref), "zero sweeps cannot converge")
}

func TestRattle_RemovesRadialVelocity(t *testing.T) {
	sys := constrainedSystem(t, []geom.Vec3{{5, 5, 5}, {6, 5, 5}}, []float64{1, 3})
	sys.Vel[0] = geom.Vec3{1, 0.5, 0}
	sys.Vel[1] = geom.Vec3{-2, 0.1, 0.3}

	s, err := NewSolver(2, []Constraint{{I: 0, J: 1, Target: 1}})
	require.NoError(t, err)
	require.True(t, s.Rattle(sys))

	rd := sys.Cell.Displacement(sys.Pos[0], sys.Pos[1])
	dv := sys.Vel[0].Sub(sys.Vel[1])
	assert.InDelta(t, 0.0, dv.Dot(rd), 1e-10,
		"relative velocity must be orthogonal to the bond")

	// Momentum unchanged.
	p := sys.Vel[0].Scale(1).Add(sys.Vel[1].Scale(3))
	want := geom.Vec3{1, 0.5, 0}.Scale(1).Add(geom.Vec3{-2, 0.1, 0.3}.Scale(3))
	assert.InDelta(t, 0.0, p.Sub(want).Norm(), 1e-12)
}

func TestRattle_Chain(t *testing.T) {
	sys := constrainedSystem(t,
		[]geom.Vec3{{5, 5, 5}, {6, 5, 5}, {6.5, 5.87, 5}},
		[]float64{1, 2, 1})
	sys.Vel[0] = geom.Vec3{0.3, -0.2, 0.1}
	sys.Vel[1] = geom.Vec3{-0.4, 0.6, 0}
	sys.Vel[2] = geom.Vec3{0.2, 0.2, -0.5}

	s, err := NewSolver(3, []Constraint{
		{I: 0, J: 1, Target: 1},
		{I: 1, J: 2, Target: 1},
	})
	require.NoError(t, err)
	require.True(t, s.Rattle(sys))

	for _, c := range s.Clusters[0].Constraints {
		rd := sys.Cell.Displacement(sys.Pos[c.I], sys.Pos[c.J])
		dv := sys.Vel[c.I].Sub(sys.Vel[c.J])
		assert.InDelta(t, 0.0, math.Abs(dv.Dot(rd))/rd.Norm(), s.VelTolerance*100)
	}
}

func TestSolver_Pairs(t *testing.T) {
	s, err := NewSolver(4, []Constraint{
		{I: 0, J: 1, Target: 1},
		{I: 2, J: 3, Target: 0.5},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, [][2]int{{0, 1}, {2, 3}}, s.Pairs())
}
