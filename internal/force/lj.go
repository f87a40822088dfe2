package force

import "sync/atomic"

// LennardJones is the 12-6 kernel V(r) = 4ε[(σ/r)¹² − (σ/r)⁶] with
// configurable σ mixing. A pair where either particle carries σ = 0 is
// treated as non-interacting unless ZeroSigmaInteracts is set.
type LennardJones struct {
	Mixing             SigmaMixing
	MaxForce           float64
	ZeroSigmaInteracts bool

	clamps atomic.Int64
}

func NewLennardJones() *LennardJones {
	return &LennardJones{Mixing: MixGeometric, MaxForce: DefaultMaxForce}
}

func (lj *LennardJones) Name() string { return "lennard-jones" }

func (lj *LennardJones) Clamps() int64 { return lj.clamps.Load() }

func (lj *LennardJones) params(ctx PairContext) (sigma, epsilon float64, ok bool) {
	if !lj.ZeroSigmaInteracts && (ctx.A.Sigma == 0 || ctx.B.Sigma == 0) {
		return 0, 0, false
	}
	return mixSigma(lj.Mixing, ctx.A.Sigma, ctx.B.Sigma), mixEpsilon(ctx.A.Epsilon, ctx.B.Epsilon), true
}

func (lj *LennardJones) Force(ctx PairContext) float64 {
	sigma, epsilon, ok := lj.params(ctx)
	if !ok {
		return 0
	}
	sr2 := sigma * sigma / ctx.R2
	sr6 := sr2 * sr2 * sr2
	f := 24 * epsilon * (2*sr6*sr6 - sr6) / ctx.R
	f, clamped := clampForce(f, lj.MaxForce)
	if clamped {
		lj.clamps.Add(1)
	}
	return f
}

func (lj *LennardJones) Energy(ctx PairContext) float64 {
	sigma, epsilon, ok := lj.params(ctx)
	if !ok {
		return 0
	}
	sr2 := sigma * sigma / ctx.R2
	sr6 := sr2 * sr2 * sr2
	return 4 * epsilon * (sr6*sr6 - sr6)
}
