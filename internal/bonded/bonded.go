// Package bonded evaluates fixed-topology interaction terms: 2-body bonds,
// 3-body angles, and 4-body torsions. Every term distributes its forces so
// the group's net force and net torque vanish. Bonded work is small next to
// the pairwise sum, so evaluation is single threaded; the accumulation
// contract (add into a force buffer, return energy) matches the pairwise
// evaluator.
package bonded

import (
	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/system"
)

// Evaluator walks the explicit interaction lists built from the topology.
type Evaluator struct {
	Bonds    []HarmonicBond
	Angles   []HarmonicAngle
	Torsions []PeriodicTorsion
}

// Accumulate adds all bonded forces into buf and returns the bonded
// potential energy.
func (e *Evaluator) Accumulate(sys *system.System, buf force.Buffer) float64 {
	energy := 0.0
	for i := range e.Bonds {
		energy += e.Bonds[i].accumulate(sys, buf)
	}
	for i := range e.Angles {
		energy += e.Angles[i].accumulate(sys, buf)
	}
	for i := range e.Torsions {
		energy += e.Torsions[i].accumulate(sys, buf)
	}
	return energy
}

// Empty reports whether there is no bonded topology at all.
func (e *Evaluator) Empty() bool {
	return len(e.Bonds) == 0 && len(e.Angles) == 0 && len(e.Torsions) == 0
}

// BondedPairs lists the atom pairs of all 2-body terms plus the end atoms of
// every angle, the pairs a topology excludes from non-bonded evaluation.
func (e *Evaluator) BondedPairs() [][2]int {
	pairs := make([][2]int, 0, len(e.Bonds)+len(e.Angles))
	for _, b := range e.Bonds {
		pairs = append(pairs, [2]int{b.I, b.J})
	}
	for _, a := range e.Angles {
		pairs = append(pairs, [2]int{a.I, a.K})
	}
	return pairs
}
