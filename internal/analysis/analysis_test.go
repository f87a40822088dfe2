package analysis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/storage"
	"github.com/san-kum/mdsim/internal/system"
)

func uniformGas(t *testing.T, n int, l float64, seed int64) *system.System {
	t.Helper()
	cell, err := geom.NewCubic(l)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	particles := make([]system.Particle, n)
	pos := make([]geom.Vec3, n)
	for i := range particles {
		particles[i] = system.Particle{Mass: 1}
		pos[i] = geom.Vec3{rng.Float64() * l, rng.Float64() * l, rng.Float64() * l}
	}
	sys, err := system.New(particles, pos, make([]geom.Vec3, n), cell, nil, nil)
	require.NoError(t, err)
	return sys
}

func TestRDFUniformGasNearOne(t *testing.T) {
	sys := uniformGas(t, 1000, 10, 3)
	rdf, err := ComputeRDF(sys, 20, 4)
	require.NoError(t, err)
	require.Len(t, rdf.Bins, 20)

	// Outer bins hold many samples for an ideal gas, so g(r) should sit
	// near 1 there. Inner bins are noisy and skipped.
	for b := 10; b < 20; b++ {
		assert.InDelta(t, 1.0, rdf.Bins[b], 0.3, "bin %d", b)
	}
}

func TestRDFLatticePeak(t *testing.T) {
	// Simple cubic lattice with spacing 2: nearest neighbors all at r=2.
	cell, err := geom.NewCubic(8)
	require.NoError(t, err)
	var particles []system.Particle
	var pos []geom.Vec3
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			for z := 0; z < 4; z++ {
				particles = append(particles, system.Particle{Mass: 1})
				pos = append(pos, geom.Vec3{float64(2 * x), float64(2 * y), float64(2 * z)})
			}
		}
	}
	sys, err := system.New(particles, pos, make([]geom.Vec3, len(pos)), cell, nil, nil)
	require.NoError(t, err)

	rdf, err := ComputeRDF(sys, 25, 2.5)
	require.NoError(t, err)

	centers := rdf.BinCenters()
	peak := 0
	for i := range rdf.Bins {
		if rdf.Bins[i] > rdf.Bins[peak] {
			peak = i
		}
	}
	assert.InDelta(t, 2.0, centers[peak], 0.1, "nearest-neighbor peak should sit at the lattice spacing")

	// No pairs closer than the lattice spacing.
	for i, c := range centers {
		if c < 1.8 {
			assert.Zero(t, rdf.Bins[i], "bin at r=%.2f", c)
		}
	}
}

func TestRDFValidation(t *testing.T) {
	sys := uniformGas(t, 10, 10, 1)
	_, err := ComputeRDF(sys, 0, 3)
	assert.Error(t, err)
	_, err = ComputeRDF(sys, 10, 6) // beyond half the cell
	assert.Error(t, err)
}

func TestMeanSquaredDisplacement(t *testing.T) {
	frames := []storage.Frame{
		{Step: 0, Positions: [][3]float64{{0, 0, 0}, {1, 1, 1}}},
		{Step: 10, Positions: [][3]float64{{1, 0, 0}, {1, 1, 2}}},
		{Step: 20, Positions: [][3]float64{{2, 0, 0}, {1, 1, 3}}},
	}
	msd, err := MeanSquaredDisplacement(frames)
	require.NoError(t, err)
	assert.InDelta(t, 0, msd[0], 1e-12)
	assert.InDelta(t, 1, msd[1], 1e-12)
	assert.InDelta(t, 4, msd[2], 1e-12)
}

func TestMeanSquaredDisplacementMismatch(t *testing.T) {
	frames := []storage.Frame{
		{Positions: [][3]float64{{0, 0, 0}}},
		{Positions: [][3]float64{{0, 0, 0}, {1, 1, 1}}},
	}
	_, err := MeanSquaredDisplacement(frames)
	assert.Error(t, err)
}

func TestDominantFrequency(t *testing.T) {
	// 5 Hz sine sampled at 100 Hz for 2 seconds.
	dt := 0.01
	n := 200
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*5*float64(i)*dt)
	}
	freq, err := DominantFrequency(data, dt)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, freq, 0.5)
}

func TestDominantFrequencyErrors(t *testing.T) {
	_, err := DominantFrequency([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
	_, err = DominantFrequency([]float64{1}, 0.01)
	assert.Error(t, err)
}
