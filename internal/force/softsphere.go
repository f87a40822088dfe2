package force

import "sync/atomic"

// SoftSphere is the purely repulsive r⁻¹² kernel V(r) = ε(σ/r)¹². Useful for
// excluded-volume-only particles and as a short-ranged kernel safe to run
// without any cutoff policy.
type SoftSphere struct {
	Mixing             SigmaMixing
	MaxForce           float64
	ZeroSigmaInteracts bool

	clamps atomic.Int64
}

func NewSoftSphere() *SoftSphere {
	return &SoftSphere{Mixing: MixGeometric, MaxForce: DefaultMaxForce}
}

func (ss *SoftSphere) Name() string { return "soft-sphere" }

func (ss *SoftSphere) Clamps() int64 { return ss.clamps.Load() }

func (ss *SoftSphere) params(ctx PairContext) (sigma, epsilon float64, ok bool) {
	if !ss.ZeroSigmaInteracts && (ctx.A.Sigma == 0 || ctx.B.Sigma == 0) {
		return 0, 0, false
	}
	return mixSigma(ss.Mixing, ctx.A.Sigma, ctx.B.Sigma), mixEpsilon(ctx.A.Epsilon, ctx.B.Epsilon), true
}

func (ss *SoftSphere) Force(ctx PairContext) float64 {
	sigma, epsilon, ok := ss.params(ctx)
	if !ok {
		return 0
	}
	sr2 := sigma * sigma / ctx.R2
	sr6 := sr2 * sr2 * sr2
	f := 12 * epsilon * sr6 * sr6 / ctx.R
	f, clamped := clampForce(f, ss.MaxForce)
	if clamped {
		ss.clamps.Add(1)
	}
	return f
}

func (ss *SoftSphere) Energy(ctx PairContext) float64 {
	sigma, epsilon, ok := ss.params(ctx)
	if !ok {
		return 0
	}
	sr2 := sigma * sigma / ctx.R2
	sr6 := sr2 * sr2 * sr2
	return epsilon * sr6 * sr6
}
