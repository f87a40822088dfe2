// Package md owns the per-step pipeline: neighbor rebuild, force
// accumulation, kinematic update, wrapping, constraint correction, and the
// thermostat hook, in that order. Force evaluation always completes before
// any coordinate changes, and constraint correction completes before the
// next step's rebuild check.
package md

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/bonded"
	"github.com/san-kum/mdsim/internal/constraint"
	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/system"
)

type Simulator struct {
	sys        *system.System
	finder     neighbor.Finder
	pair       *force.Evaluator
	bonded     *bonded.Evaluator
	cons       *constraint.Solver
	integrator Integrator
	thermostat Thermostat
	observers  []Observer
	metrics    []Metric

	list      *neighbor.List
	forces    force.Buffer
	ref       []geom.Vec3
	potential float64
}

// New wires the pipeline and applies the topology-derived eligibility rules:
// bonded pairs, angle end pairs, and every constraint edge are excluded from
// non-bonded evaluation before the first step.
func New(sys *system.System, finder neighbor.Finder, pair *force.Evaluator, bond *bonded.Evaluator, cons *constraint.Solver, integ Integrator) (*Simulator, error) {
	if sys == nil || finder == nil || integ == nil {
		return nil, fmt.Errorf("simulator requires a system, a neighbor finder and an integrator")
	}
	if pair == nil {
		pair = force.NewEvaluator()
	}
	if bond == nil {
		bond = &bonded.Evaluator{}
	}

	if cons != nil && !cons.Empty() {
		if _, ok := integ.(*Stormer); ok {
			return nil, fmt.Errorf("the störmer integrator does not support constraints")
		}
		// Atoms locked at short fixed distances must never see each other's
		// pairwise kernel.
		sys.Eligible.ExcludeBonded(cons.Pairs())
	}
	sys.Eligible.ExcludeBonded(bond.BondedPairs())

	return &Simulator{
		sys:        sys,
		finder:     finder,
		pair:       pair,
		bonded:     bond,
		cons:       cons,
		integrator: integ,
		list:       neighbor.NewList(),
		forces:     force.NewBuffer(sys.N()),
		ref:        make([]geom.Vec3, sys.N()),
	}, nil
}

// SetThermostat installs the velocity coupling hook.
func (s *Simulator) SetThermostat(th Thermostat) error {
	if _, ok := s.integrator.(*Stormer); ok && th != nil {
		return fmt.Errorf("the störmer integrator does not support thermostats")
	}
	s.thermostat = th
	return nil
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }

// System exposes the simulated state for setup and inspection.
func (s *Simulator) System() *system.System { return s.sys }

// Neighbors returns the current candidate pair triples, for external force
// logging or analysis.
func (s *Simulator) Neighbors() []neighbor.Pair { return s.list.Pairs() }

// accumulate zeroes the force buffer and sums pairwise plus bonded
// contributions, recording the total potential energy.
func (s *Simulator) accumulate() force.Buffer {
	s.forces.Zero()
	e := s.pair.Accumulate(s.sys, s.list, s.forces)
	e += s.bonded.Accumulate(s.sys, s.forces)
	s.potential = e
	return s.forces
}

// Run advances the configured number of steps. The run is a two-state
// machine: running until the step count is exhausted, then complete. The
// context is only consulted between steps; a step never retries and is
// deterministic given its inputs.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Times:     make([]float64, 0, cfg.Steps),
		Kinetic:   make([]float64, 0, cfg.Steps),
		Potential: make([]float64, 0, cfg.Steps),
		Metrics:   make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	if init, ok := s.integrator.(interface {
		Init(sys *system.System, dt float64)
	}); ok {
		init.Init(s.sys, cfg.Dt)
	}

	s.finder.Rebuild(s.sys, s.list)
	s.accumulate()
	initialEnergy := s.sys.KineticEnergy() + s.potential

	for step := 0; step < cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if step > 0 && step%cfg.RebuildEvery == 0 {
			s.finder.Rebuild(s.sys, s.list)
		}

		// Forces at the current positions, then the kinematic update with a
		// recompute at the new positions in the middle.
		s.accumulate()
		copy(s.ref, s.sys.Pos)
		s.integrator.Step(s.sys, s.forces, func() force.Buffer {
			s.sys.WrapPositions()
			return s.accumulate()
		}, cfg.Dt)
		s.sys.WrapPositions()

		if s.cons != nil && !s.cons.Empty() {
			if !s.cons.Shake(s.sys, s.ref) {
				result.ShakeFailures++
				result.Errors = append(result.Errors, StepError{Step: step, Message: "shake did not converge"})
			}
			if !s.cons.Rattle(s.sys) {
				result.RattleFailures++
				result.Errors = append(result.Errors, StepError{Step: step, Message: "rattle did not converge"})
			}
		}

		if s.thermostat != nil {
			s.thermostat.Apply(step, cfg.Dt, s.sys.Vel, s.sys.Particles)
		}

		snap := Snapshot{
			Step:      step,
			Time:      float64(step+1) * cfg.Dt,
			Kinetic:   s.sys.KineticEnergy(),
			Potential: s.potential,
			Sys:       s.sys,
			List:      s.list,
		}
		for _, m := range s.metrics {
			m.Observe(snap)
		}
		for _, o := range s.observers {
			o.OnStep(snap)
		}

		result.StepsTaken++
		result.Times = append(result.Times, snap.Time)
		result.Kinetic = append(result.Kinetic, snap.Kinetic)
		result.Potential = append(result.Potential, snap.Potential)
	}

	finalEnergy := s.sys.KineticEnergy() + s.potential
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.ForceClamps = s.pair.Clamps()

	return result, nil
}
