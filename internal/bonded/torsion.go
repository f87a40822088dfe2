package bonded

import (
	"math"

	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/system"
)

// PeriodicTorsion is a 4-body Fourier term over the dihedral angle of the
// planes (I,J,K) and (J,K,L): V = Kphi·(1 + cos(N·φ − Phase)).
type PeriodicTorsion struct {
	I, J, K, L int
	Kphi       float64
	N          int
	Phase      float64
}

func (tr *PeriodicTorsion) accumulate(sys *system.System, buf force.Buffer) float64 {
	b1 := sys.Cell.Displacement(sys.Pos[tr.J], sys.Pos[tr.I])
	b2 := sys.Cell.Displacement(sys.Pos[tr.K], sys.Pos[tr.J])
	b3 := sys.Cell.Displacement(sys.Pos[tr.L], sys.Pos[tr.K])

	m := b1.Cross(b2)
	n := b2.Cross(b3)
	m2, n2 := m.Norm2(), n.Norm2()
	lb2 := b2.Norm()
	if m2 == 0 || n2 == 0 || lb2 == 0 {
		return 0
	}

	// Two-argument arctangent keeps sign and quadrant right across the full
	// [-π, π] range, where an acos form would fold.
	phi := math.Atan2(b1.Dot(n)*lb2, m.Dot(n))

	nf := float64(tr.N)
	energy := tr.Kphi * (1 + math.Cos(nf*phi-tr.Phase))
	dEdPhi := -tr.Kphi * nf * math.Sin(nf*phi-tr.Phase)

	// Outer atoms take forces along the plane normals; the inner pair
	// absorbs the remainder through the torque-balance construction.
	dPhi1 := m.Scale(-lb2 / m2)
	dPhi4 := n.Scale(lb2 / n2)
	s12 := b1.Dot(b2) / (lb2 * lb2)
	s32 := b3.Dot(b2) / (lb2 * lb2)
	dPhi2 := dPhi1.Scale(-(1 + s12)).Add(dPhi4.Scale(s32))
	dPhi3 := dPhi1.Add(dPhi2).Add(dPhi4).Scale(-1)

	for _, c := range []struct {
		idx  int
		dPhi geom.Vec3
	}{
		{tr.I, dPhi1},
		{tr.J, dPhi2},
		{tr.K, dPhi3},
		{tr.L, dPhi4},
	} {
		buf.Add(c.idx, c.dPhi.Scale(-dEdPhi))
	}

	return energy
}
