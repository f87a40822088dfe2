// Package sim turns validated configurations into runnable simulations:
// cell and particle construction, kernel and finder selection, and the
// wiring of constraints, thermostats and metrics.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/mdsim/internal/bonded"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/constraint"
	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/metrics"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/system"
	"github.com/san-kum/mdsim/internal/thermostat"
)

// Build constructs the full pipeline described by cfg. The returned run
// config carries the step count, timestep and rebuild cadence.
func Build(cfg *config.Config) (*md.Simulator, md.Config, error) {
	runCfg := md.Config{
		Dt:           cfg.Run.Dt,
		Steps:        cfg.Run.Steps,
		RebuildEvery: cfg.Neighbor.RebuildEvery,
	}
	if err := cfg.Validate(); err != nil {
		return nil, runCfg, err
	}

	cell, err := buildCell(cfg.Cell)
	if err != nil {
		return nil, runCfg, err
	}
	sys, err := buildSystem(cfg, cell)
	if err != nil {
		return nil, runCfg, err
	}
	finder, err := buildFinder(cfg.Neighbor, cell, cfg.Forces.Cutoff)
	if err != nil {
		return nil, runCfg, err
	}
	pair := force.NewEvaluator(buildKernels(cfg.Forces)...)
	bond := buildBonded(cfg.Bonds)
	cons, err := buildConstraints(cfg.Constraints, sys.N())
	if err != nil {
		return nil, runCfg, err
	}
	integ, err := buildIntegrator(cfg.Integrator)
	if err != nil {
		return nil, runCfg, err
	}

	simulator, err := md.New(sys, finder, pair, bond, cons, integ)
	if err != nil {
		return nil, runCfg, err
	}

	th, err := buildThermostat(cfg.Thermostat)
	if err != nil {
		return nil, runCfg, err
	}
	if th != nil {
		if err := simulator.SetThermostat(th); err != nil {
			return nil, runCfg, err
		}
	}
	for _, m := range metrics.Standard() {
		simulator.AddMetric(m)
	}
	return simulator, runCfg, nil
}

func buildCell(c config.CellConfig) (*geom.Cell, error) {
	switch c.Kind {
	case "cubic":
		return geom.NewCubic(c.Length)
	case "orthorhombic":
		return geom.NewOrthorhombic(geom.Vec3(c.Lengths))
	case "triclinic":
		return geom.NewTriclinic(geom.Vec3(c.A), geom.Vec3(c.B), geom.Vec3(c.C))
	default:
		return nil, fmt.Errorf("unknown cell kind %q", c.Kind)
	}
}

// buildSystem places particles on a cubic lattice inside the cell and draws
// initial velocities from a Gaussian at the requested temperature, with the
// net momentum removed.
func buildSystem(cfg *config.Config, cell *geom.Cell) (*system.System, error) {
	n := cfg.Particles.Count
	particles := make([]system.Particle, n)
	for i := range particles {
		particles[i] = system.Particle{
			Mass:    cfg.Particles.Mass,
			Charge:  cfg.Particles.Charge,
			Sigma:   cfg.Particles.Sigma,
			Epsilon: cfg.Particles.Epsilon,
		}
		if cfg.Particles.Alternate && i%2 == 1 {
			particles[i].Charge = -cfg.Particles.Charge
		}
	}

	pos := latticePositions(n, cell)
	vel := thermalVelocities(n, cfg.Particles, rand.New(rand.NewSource(cfg.Particles.Seed)))

	sys, err := system.New(particles, pos, vel, cell, nil, nil)
	if err != nil {
		return nil, err
	}
	return sys, nil
}

// latticePositions fills the cell with a simple cubic lattice, fractional
// along the lattice vectors so triclinic cells work unchanged.
func latticePositions(n int, cell *geom.Cell) []geom.Vec3 {
	side := int(math.Ceil(math.Cbrt(float64(n))))
	pos := make([]geom.Vec3, 0, n)
	for x := 0; x < side && len(pos) < n; x++ {
		for y := 0; y < side && len(pos) < n; y++ {
			for z := 0; z < side && len(pos) < n; z++ {
				fx := (float64(x) + 0.5) / float64(side)
				fy := (float64(y) + 0.5) / float64(side)
				fz := (float64(z) + 0.5) / float64(side)
				p := cell.FromFractional(geom.Vec3{fx, fy, fz})
				pos = append(pos, p)
			}
		}
	}
	return pos
}

func thermalVelocities(n int, pc config.ParticleConfig, rng *rand.Rand) []geom.Vec3 {
	vel := make([]geom.Vec3, n)
	if pc.InitTemp <= 0 {
		return vel
	}
	// sigma_v per component from equipartition.
	sigma := math.Sqrt(thermostat.Boltzmann * pc.InitTemp / pc.Mass)
	var sum geom.Vec3
	for i := range vel {
		vel[i] = geom.Vec3{
			rng.NormFloat64() * sigma,
			rng.NormFloat64() * sigma,
			rng.NormFloat64() * sigma,
		}
		sum = sum.Add(vel[i])
	}
	drift := sum.Scale(1 / float64(n))
	for i := range vel {
		vel[i] = vel[i].Sub(drift)
	}
	return vel
}

func buildKernels(fc config.ForceConfig) []force.Kernel {
	mixing := force.MixGeometric
	if fc.Mixing == "arithmetic" {
		mixing = force.MixArithmetic
	}
	wrap := func(k force.Kernel) force.Kernel {
		switch fc.CutoffPolicy {
		case "hard":
			return force.HardCutoff(k, fc.Cutoff)
		case "shift_potential":
			return force.ShiftedPotential(k, fc.Cutoff)
		case "shift_force":
			return force.ShiftedForce(k, fc.Cutoff)
		default:
			return force.NoCutoff(k)
		}
	}

	var kernels []force.Kernel
	if fc.LennardJones {
		lj := force.NewLennardJones()
		lj.Mixing = mixing
		kernels = append(kernels, wrap(lj))
	}
	if fc.SoftSphere {
		ss := force.NewSoftSphere()
		ss.Mixing = mixing
		kernels = append(kernels, wrap(ss))
	}
	if fc.Coulomb {
		dielectric := fc.Dielectric
		if dielectric <= 0 {
			dielectric = 1
		}
		c := force.NewCoulomb(fc.Cutoff, dielectric)
		if fc.Weight14 > 0 {
			c.Weight14 = fc.Weight14
		}
		if fc.Mode14 == "scaled" {
			c.Mode14 = force.RFScaled
		}
		// The reaction-field form already vanishes at the cutoff, so only
		// the hard truncation applies on top of it.
		kernels = append(kernels, force.HardCutoff(c, fc.Cutoff))
	}
	return kernels
}

// buildFinder widens the force cutoff by the skin so pairs drifting inward
// between rebuilds are already listed; the kernels still truncate at the
// force cutoff.
func buildFinder(nc config.NeighborConfig, cell *geom.Cell, cutoff float64) (neighbor.Finder, error) {
	listCutoff := cutoff + nc.Skin
	switch nc.Finder {
	case "brute":
		return neighbor.NewBruteForce(listCutoff), nil
	case "cell":
		return neighbor.NewCellList(cell, listCutoff)
	case "tree":
		return neighbor.NewTree(cell, listCutoff)
	default:
		return nil, fmt.Errorf("unknown neighbor finder %q", nc.Finder)
	}
}

func buildBonded(bonds []config.BondConfig) *bonded.Evaluator {
	ev := &bonded.Evaluator{}
	for _, b := range bonds {
		ev.Bonds = append(ev.Bonds, bonded.HarmonicBond{I: b.I, J: b.J, K: b.K, R0: b.R0})
	}
	return ev
}

func buildConstraints(cc config.ConstraintConfig, n int) (*constraint.Solver, error) {
	if len(cc.Pairs) == 0 {
		return nil, nil
	}
	cons := make([]constraint.Constraint, len(cc.Pairs))
	for i, p := range cc.Pairs {
		cons[i] = constraint.Constraint{I: p.I, J: p.J, Target: p.R0}
	}
	solver, err := constraint.NewSolver(n, cons)
	if err != nil {
		return nil, err
	}
	if cc.Tolerance > 0 {
		solver.Tolerance = cc.Tolerance
		solver.VelTolerance = cc.Tolerance
	}
	if cc.MaxIter > 0 {
		solver.MaxIter = cc.MaxIter
	}
	return solver, nil
}

func buildIntegrator(name string) (md.Integrator, error) {
	switch name {
	case "velocity-verlet":
		return md.NewVelocityVerlet(), nil
	case "stormer":
		return md.NewStormer(), nil
	default:
		return nil, fmt.Errorf("unknown integrator %q", name)
	}
}

func buildThermostat(tc config.ThermostatConfig) (md.Thermostat, error) {
	switch tc.Kind {
	case "", "none":
		return nil, nil
	case "rescale":
		return thermostat.NewRescale(tc.Target, tc.Every)
	case "berendsen":
		return thermostat.NewBerendsen(tc.Target, tc.Tau)
	default:
		return nil, fmt.Errorf("unknown thermostat %q", tc.Kind)
	}
}
