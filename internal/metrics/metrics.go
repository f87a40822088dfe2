// Package metrics implements run observables over per-step snapshots.
package metrics

import (
	"math"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/thermostat"
)

// MeanTemperature averages the instantaneous temperature over the run.
type MeanTemperature struct {
	name    string
	sum     float64
	samples int
}

func NewMeanTemperature() *MeanTemperature {
	return &MeanTemperature{name: "mean_temperature"}
}

func (m *MeanTemperature) Name() string { return m.name }

func (m *MeanTemperature) Observe(s md.Snapshot) {
	m.sum += thermostat.Temperature(s.Sys.Vel, s.Sys.Particles)
	m.samples++
}

func (m *MeanTemperature) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanTemperature) Reset() {
	m.sum = 0
	m.samples = 0
}

// EnergyDrift tracks the worst relative deviation of total energy from its
// first observed value.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s md.Snapshot) {
	total := s.Kinetic + s.Potential
	if e.samples == 0 {
		e.initial = total
	}
	e.samples++
	if e.initial == 0 {
		return
	}
	drift := math.Abs(total-e.initial) / math.Abs(e.initial)
	if drift > e.maxDrift {
		e.maxDrift = drift
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// MeanPairCount averages the neighbor-list size over the run, a cheap proxy
// for density and cutoff sanity.
type MeanPairCount struct {
	name    string
	sum     float64
	samples int
}

func NewMeanPairCount() *MeanPairCount {
	return &MeanPairCount{name: "mean_pair_count"}
}

func (m *MeanPairCount) Name() string { return m.name }

func (m *MeanPairCount) Observe(s md.Snapshot) {
	if s.List == nil {
		return
	}
	m.sum += float64(len(s.List.Pairs()))
	m.samples++
}

func (m *MeanPairCount) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanPairCount) Reset() {
	m.sum = 0
	m.samples = 0
}

// MaxSpeed records the fastest particle speed seen over the run. A runaway
// value usually means the timestep is too large for the steepest interaction.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{name: "max_speed"} }

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(s md.Snapshot) {
	for i := range s.Sys.Vel {
		v := s.Sys.Vel[i].Norm()
		if v > m.max {
			m.max = v
		}
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }

// Standard returns the default metric set attached to every run.
func Standard() []md.Metric {
	return []md.Metric{
		NewMeanTemperature(),
		NewEnergyDrift(),
		NewMeanPairCount(),
		NewMaxSpeed(),
	}
}
