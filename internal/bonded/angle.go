package bonded

import (
	"math"

	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/system"
)

// HarmonicAngle is a 3-body term about the central atom J:
// V = ½·K·(θ − Theta0)².
type HarmonicAngle struct {
	I, J, K int     // J is the vertex
	Stiff   float64 // angular stiffness
	Theta0  float64 // equilibrium angle in radians
}

func (a *HarmonicAngle) accumulate(sys *system.System, buf force.Buffer) float64 {
	rij := sys.Cell.Displacement(sys.Pos[a.I], sys.Pos[a.J])
	rkj := sys.Cell.Displacement(sys.Pos[a.K], sys.Pos[a.J])
	lij, lkj := rij.Norm(), rkj.Norm()
	if lij == 0 || lkj == 0 {
		return 0
	}

	// Round-off can push the cosine a hair outside [-1, 1]; acos would
	// return NaN, so clamp first.
	cos := rij.Dot(rkj) / (lij * lkj)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	theta := math.Acos(cos)
	delta := theta - a.Theta0

	sin := math.Sqrt(1 - cos*cos)
	if sin < 1e-8 {
		// Collinear: the angle gradient direction is undefined; skip the
		// force, keep the energy.
		return 0.5 * a.Stiff * delta * delta
	}

	// F = (K·Δθ/sinθ)·∇cosθ, with the vertex taking the negative sum so the
	// group's net force is zero.
	coef := a.Stiff * delta / sin
	fi := rkj.Scale(1 / (lij * lkj)).Sub(rij.Scale(cos / (lij * lij))).Scale(coef)
	fk := rij.Scale(1 / (lij * lkj)).Sub(rkj.Scale(cos / (lkj * lkj))).Scale(coef)

	buf.Add(a.I, fi)
	buf.Add(a.K, fk)
	buf.Add(a.J, fi.Add(fk).Scale(-1))

	return 0.5 * a.Stiff * delta * delta
}
