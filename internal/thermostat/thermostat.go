// Package thermostat provides weak velocity couplings toward a target
// temperature. Thermostats touch velocities only; they never move positions,
// so constraint geometry survives their application untouched.
package thermostat

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/system"
)

// Boltzmann is the gas constant in kJ/(mol K), matching the energy and mass
// units used throughout.
const Boltzmann = 0.00831446

func kinetic(vel []geom.Vec3, particles []system.Particle) float64 {
	ke := 0.0
	for i := range particles {
		ke += 0.5 * particles[i].Mass * vel[i].Norm2()
	}
	return ke
}

// Temperature converts kinetic energy to an instantaneous temperature with
// 3N degrees of freedom.
func Temperature(vel []geom.Vec3, particles []system.Particle) float64 {
	n := len(particles)
	if n == 0 {
		return 0
	}
	return 2 * kinetic(vel, particles) / (3 * float64(n) * Boltzmann)
}

// Rescale multiplies every velocity so the instantaneous temperature lands
// exactly on Target. It is the bluntest possible coupling and is mainly
// useful for equilibration.
type Rescale struct {
	Target float64
	Every  int
}

func NewRescale(target float64, every int) (*Rescale, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target temperature must be positive, got %f", target)
	}
	if every <= 0 {
		every = 1
	}
	return &Rescale{Target: target, Every: every}, nil
}

func (r *Rescale) Name() string { return "rescale" }

func (r *Rescale) Apply(step int, dt float64, vel []geom.Vec3, particles []system.Particle) {
	if step%r.Every != 0 {
		return
	}
	cur := Temperature(vel, particles)
	if cur <= 0 {
		return
	}
	lambda := math.Sqrt(r.Target / cur)
	for i := range vel {
		vel[i] = vel[i].Scale(lambda)
	}
}

// Berendsen relaxes the instantaneous temperature toward Target with time
// constant Tau. The scaling factor per step is
//
//	lambda^2 = 1 + (dt/tau)(T0/T - 1)
//
// which reduces to plain rescaling when tau equals dt.
type Berendsen struct {
	Target float64
	Tau    float64
}

func NewBerendsen(target, tau float64) (*Berendsen, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target temperature must be positive, got %f", target)
	}
	if tau <= 0 {
		return nil, fmt.Errorf("coupling time constant must be positive, got %f", tau)
	}
	return &Berendsen{Target: target, Tau: tau}, nil
}

func (b *Berendsen) Name() string { return "berendsen" }

func (b *Berendsen) Apply(step int, dt float64, vel []geom.Vec3, particles []system.Particle) {
	cur := Temperature(vel, particles)
	if cur <= 0 {
		return
	}
	ratio := dt / b.Tau
	if ratio > 1 {
		ratio = 1
	}
	lambda2 := 1 + ratio*(b.Target/cur-1)
	if lambda2 < 0 {
		lambda2 = 0
	}
	lambda := math.Sqrt(lambda2)
	for i := range vel {
		vel[i] = vel[i].Scale(lambda)
	}
}
