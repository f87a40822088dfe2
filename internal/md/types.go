package md

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/system"
)

// Config drives one run: a fixed, pre-declared number of steps.
type Config struct {
	Dt           float64
	Steps        int
	RebuildEvery int // neighbor-list rebuild cadence in steps
}

func DefaultConfig() Config {
	return Config{Dt: 0.002, Steps: 1000, RebuildEvery: 10}
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if c.RebuildEvery <= 0 {
		return fmt.Errorf("rebuild cadence must be positive, got %d", c.RebuildEvery)
	}
	return nil
}

// Snapshot is the read-only view handed to observers and metrics once per
// completed step.
type Snapshot struct {
	Step      int
	Time      float64
	Kinetic   float64
	Potential float64
	Sys       *system.System
	List      *neighbor.List
}

// Observer sees every completed step.
type Observer interface {
	OnStep(s Snapshot)
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

// Thermostat is the external coupling hook, invoked after constraint
// correction with mutable access to velocities only.
type Thermostat interface {
	Name() string
	Apply(step int, dt float64, vel []geom.Vec3, particles []system.Particle)
}

// Integrator advances the kinematic state for one step. The recompute
// callback re-evaluates forces at the freshly updated positions and returns
// the refilled buffer; velocity-Verlet calls it exactly once per step.
type Integrator interface {
	Name() string
	Step(sys *system.System, forces force.Buffer, recompute func() force.Buffer, dt float64)
}

// Result summarizes a completed run.
type Result struct {
	StepsTaken  int
	Times       []float64
	Kinetic     []float64
	Potential   []float64
	Metrics     map[string]float64
	EnergyDrift float64

	// Numerical-anomaly counters. None of these abort a run; they exist so
	// divergence is observable instead of silent.
	ShakeFailures  int
	RattleFailures int
	ForceClamps    int64

	Errors []error
}

// StepError records a step-scoped problem on the Result.
type StepError struct {
	Step    int
	Message string
}

func (e StepError) Error() string {
	return fmt.Sprintf("step %d: %s", e.Step, e.Message)
}
