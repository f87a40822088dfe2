package force

import "sync/atomic"

// RFMode selects how the reaction-field correction treats scaled 1-4 pairs.
type RFMode int

const (
	// RFZeroed drops the correction entirely for special pairs: they see the
	// plain scaled Coulomb term.
	RFZeroed RFMode = iota
	// RFScaled keeps the correction and multiplies it by the 1-4 weight.
	RFScaled
)

// Coulomb evaluates truncated electrostatics under the reaction-field
// approximation: the medium beyond the cutoff is treated as a dielectric
// continuum, adding a pair-independent correction so the truncated sum
// approximates the full one.
type Coulomb struct {
	Const             float64 // Coulomb constant in the configured unit system
	Cutoff            float64
	SolventDielectric float64
	Weight14          float64 // interaction weight for special pairs
	Mode14            RFMode
	MaxForce          float64

	krf, crf float64
	clamps   atomic.Int64
}

// CoulombConst is the default Coulomb constant in kJ mol⁻¹ nm e⁻².
const CoulombConst = 138.935458

// NewCoulomb precomputes the reaction-field coefficients for the given
// cutoff and solvent dielectric.
func NewCoulomb(cutoff, solventDielectric float64) *Coulomb {
	c := &Coulomb{
		Const:             CoulombConst,
		Cutoff:            cutoff,
		SolventDielectric: solventDielectric,
		Weight14:          0.5,
		Mode14:            RFZeroed,
		MaxForce:          DefaultMaxForce,
	}
	c.krf = (1 / (cutoff * cutoff * cutoff)) * ((solventDielectric - 1) / (2*solventDielectric + 1))
	c.crf = (1 / cutoff) * (3 * solventDielectric / (2*solventDielectric + 1))
	return c
}

func (c *Coulomb) Name() string { return "coulomb-rf" }

func (c *Coulomb) Clamps() int64 { return c.clamps.Load() }

func (c *Coulomb) terms(ctx PairContext) (qq, krf, crf float64) {
	qq = c.Const * ctx.A.Charge * ctx.B.Charge
	krf, crf = c.krf, c.crf
	if ctx.Special {
		qq *= c.Weight14
		if c.Mode14 == RFZeroed {
			krf, crf = 0, 0
		}
	}
	return qq, krf, crf
}

func (c *Coulomb) Force(ctx PairContext) float64 {
	qq, krf, _ := c.terms(ctx)
	f := qq * (1/ctx.R2 - 2*krf*ctx.R)
	f, clamped := clampForce(f, c.MaxForce)
	if clamped {
		c.clamps.Add(1)
	}
	return f
}

func (c *Coulomb) Energy(ctx PairContext) float64 {
	qq, krf, crf := c.terms(ctx)
	return qq * (1/ctx.R + krf*ctx.R2 - crf)
}
