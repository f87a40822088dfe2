package bonded

import (
	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/system"
)

// HarmonicBond is a 2-body spring: V = ½·K·(r − R0)².
type HarmonicBond struct {
	I, J int
	K    float64 // stiffness
	R0   float64 // equilibrium length
}

func (b *HarmonicBond) accumulate(sys *system.System, buf force.Buffer) float64 {
	dr := sys.Cell.Displacement(sys.Pos[b.I], sys.Pos[b.J])
	r := dr.Norm()
	if r == 0 {
		return 0
	}
	delta := r - b.R0

	// Equal and opposite along the bond axis.
	f := dr.Scale(-b.K * delta / r)
	buf.Add(b.I, f)
	buf.Add(b.J, f.Scale(-1))

	return 0.5 * b.K * delta * delta
}
