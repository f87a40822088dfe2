package system

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/geom"
)

// Particle carries the per-atom parameters that never change during a run.
// Positions and velocities live on the System, index-aligned with Particles.
type Particle struct {
	Index   int
	Mass    float64
	Charge  float64
	Sigma   float64
	Epsilon float64
}

// System is the mutable simulation state: particles, their coordinates and
// velocities, the periodic cell, and the pair bookkeeping derived from the
// bonded topology.
type System struct {
	Particles []Particle
	Pos       []geom.Vec3
	Vel       []geom.Vec3
	Cell      *geom.Cell

	// Eligible marks pairs allowed to interact non-bonded; Special marks
	// eligible pairs that use the reduced 1-4 interaction weight.
	Eligible *PairMatrix
	Special  *PairMatrix
}

// New builds a System and validates that every index-aligned slice agrees on
// the particle count. A nil eligibility matrix means all distinct pairs
// interact.
func New(particles []Particle, pos, vel []geom.Vec3, cell *geom.Cell, eligible, special *PairMatrix) (*System, error) {
	n := len(particles)
	if len(pos) != n {
		return nil, fmt.Errorf("positions length %d does not match %d particles", len(pos), n)
	}
	if len(vel) != n {
		return nil, fmt.Errorf("velocities length %d does not match %d particles", len(vel), n)
	}
	if cell == nil {
		return nil, fmt.Errorf("system requires a cell")
	}
	if eligible == nil {
		eligible = NewPairMatrix(n)
		eligible.Fill(true)
	}
	if eligible.N() != n {
		return nil, fmt.Errorf("eligibility matrix is %dx%d, want %dx%d", eligible.N(), eligible.N(), n, n)
	}
	if special == nil {
		special = NewPairMatrix(n)
	}
	if special.N() != n {
		return nil, fmt.Errorf("special-pair matrix is %dx%d, want %dx%d", special.N(), special.N(), n, n)
	}
	for i := range particles {
		particles[i].Index = i
		if particles[i].Mass <= 0 {
			return nil, fmt.Errorf("particle %d has non-positive mass %f", i, particles[i].Mass)
		}
	}
	return &System{
		Particles: particles,
		Pos:       pos,
		Vel:       vel,
		Cell:      cell,
		Eligible:  eligible,
		Special:   special,
	}, nil
}

func (s *System) N() int { return len(s.Particles) }

// KineticEnergy returns the total kinetic energy of the system.
func (s *System) KineticEnergy() float64 {
	ke := 0.0
	for i := range s.Particles {
		ke += 0.5 * s.Particles[i].Mass * s.Vel[i].Norm2()
	}
	return ke
}

// WrapPositions folds every coordinate into the primary cell image.
func (s *System) WrapPositions() {
	for i := range s.Pos {
		s.Pos[i] = s.Cell.Wrap(s.Pos[i])
	}
}
