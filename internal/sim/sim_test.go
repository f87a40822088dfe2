package sim

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/geom"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Particles.Count = 27
	cfg.Cell.Length = 6
	cfg.Run.Steps = 20
	return cfg
}

func TestBuildDefaultPipeline(t *testing.T) {
	simulator, runCfg, err := Build(smallConfig())
	require.NoError(t, err)
	require.NotNil(t, simulator)
	assert.Equal(t, 20, runCfg.Steps)
	assert.Equal(t, config.DefaultDt, runCfg.Dt)

	sys := simulator.System()
	assert.Equal(t, 27, sys.N())

	// Lattice positions all land inside the cell.
	for _, p := range sys.Pos {
		f := sys.Cell.Fractional(p)
		for ax := 0; ax < 3; ax++ {
			assert.GreaterOrEqual(t, f[ax], 0.0)
			assert.Less(t, f[ax], 1.0)
		}
	}

	// Velocity seeding removes net momentum.
	var sum geom.Vec3
	for _, v := range sys.Vel {
		sum = sum.Add(v)
	}
	assert.Less(t, sum.Norm(), 1e-10)
}

func TestBuildRunsAndConservesParticles(t *testing.T) {
	simulator, runCfg, err := Build(smallConfig())
	require.NoError(t, err)

	res, err := simulator.Run(context.Background(), runCfg)
	require.NoError(t, err)
	assert.Equal(t, 20, res.StepsTaken)
	assert.Contains(t, res.Metrics, "mean_temperature")
	assert.Contains(t, res.Metrics, "energy_drift")

	for _, p := range simulator.System().Pos {
		for ax := 0; ax < 3; ax++ {
			assert.False(t, math.IsNaN(p[ax]))
		}
	}
}

func TestBuildAlternatingCharges(t *testing.T) {
	cfg := config.GetPreset("salt-melt")
	cfg.Particles.Count = 16
	cfg.Run.Steps = 5
	simulator, _, err := Build(cfg)
	require.NoError(t, err)

	total := 0.0
	for _, p := range simulator.System().Particles {
		total += p.Charge
	}
	assert.InDelta(t, 0, total, 1e-12, "alternating charges should neutralize")
}

func TestBuildFinderIncludesSkin(t *testing.T) {
	// A 3x3x3 lattice in a cubic 6 cell has spacing 2: nearest neighbors at
	// 2.0, face diagonals at 2.83. With cutoff 2.5 only the 81 nearest pairs
	// fit; a skin of 1.0 must pull the diagonals into the candidate list.
	pairCount := func(skin float64) int {
		cfg := smallConfig()
		cfg.Particles.InitTemp = 0
		cfg.Neighbor.Skin = skin
		cfg.Run.Steps = 1
		simulator, runCfg, err := Build(cfg)
		require.NoError(t, err)
		_, err = simulator.Run(context.Background(), runCfg)
		require.NoError(t, err)
		return len(simulator.Neighbors())
	}

	bare := pairCount(0)
	assert.Equal(t, 81, bare)
	assert.Greater(t, pairCount(1.0), bare)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Neighbor.Finder = "octree"
	_, _, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuildSeedDeterminism(t *testing.T) {
	a, _, err := Build(smallConfig())
	require.NoError(t, err)
	b, _, err := Build(smallConfig())
	require.NoError(t, err)

	for i := range a.System().Vel {
		assert.Equal(t, a.System().Vel[i], b.System().Vel[i])
	}

	cfg := smallConfig()
	cfg.Particles.Seed = 7
	c, _, err := Build(cfg)
	require.NoError(t, err)
	same := true
	for i := range a.System().Vel {
		if a.System().Vel[i] != c.System().Vel[i] {
			same = false
			break
		}
	}
	assert.False(t, same, "different seeds should give different velocities")
}

func TestEnsembleRunsIndependentSeeds(t *testing.T) {
	cfg := smallConfig()
	cfg.Run.Steps = 10
	ens := NewEnsemble(cfg, 3, 100)

	results, err := ens.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.Equal(t, 10, res.StepsTaken)
	}
	// Different seeds should spread the mean temperature at least slightly.
	assert.NotEqual(t, results[0].Metrics["mean_temperature"], results[1].Metrics["mean_temperature"])
}

func TestEnsemblePropagatesBuildErrors(t *testing.T) {
	cfg := smallConfig()
	cfg.Integrator = "rk4"
	ens := NewEnsemble(cfg, 2, 0)
	_, err := ens.Run(context.Background())
	assert.Error(t, err)
}
