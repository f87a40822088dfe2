// Package force evaluates non-bonded pair interactions. Kernels are a closed
// set of interaction kinds behind a two-operation interface; cutoff policies
// wrap kernels; a pluggable backend walks the neighbor list and accumulates
// per-particle forces through private worker buffers.
package force

import (
	"math"

	"github.com/san-kum/mdsim/internal/system"
)

// DefaultMaxForce caps the scalar radial force a kernel may report. Close
// contacts drive the r^-13 terms toward overflow long before the integrator
// could recover; the cap trades physical exactness for a finite number. It is
// a stability fudge, not a fix, and clamp events are counted so callers can
// see it happening.
const DefaultMaxForce = 1e8

// PairContext carries one candidate pair into a kernel. R and R2 are the
// minimum-image distance and its square.
type PairContext struct {
	R, R2   float64
	A, B    *system.Particle
	Special bool
}

// Kernel is one non-bonded interaction kind. Force returns the scalar radial
// force (positive repulsive) acting along the pair axis; Energy returns the
// pair potential energy. New interaction kinds are added as new kernel types,
// not by open-ended subtyping.
type Kernel interface {
	Name() string
	Force(ctx PairContext) float64
	Energy(ctx PairContext) float64
}

// ClampCounter is implemented by kernels that record force-clamp events.
type ClampCounter interface {
	Clamps() int64
}

// SigmaMixing selects the combining rule for pair diameters. Well depths are
// always mixed geometrically.
type SigmaMixing int

const (
	MixGeometric SigmaMixing = iota
	MixArithmetic
)

func mixSigma(m SigmaMixing, a, b float64) float64 {
	if m == MixArithmetic {
		return 0.5 * (a + b)
	}
	return math.Sqrt(a * b)
}

func mixEpsilon(a, b float64) float64 {
	return math.Sqrt(a * b)
}

func clampForce(f, max float64) (float64, bool) {
	if f > max {
		return max, true
	}
	if f < -max {
		return -max, true
	}
	return f, false
}
