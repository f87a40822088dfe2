package force

// Cutoff policies wrap a kernel in a distance truncation scheme. All three
// compose with any kernel:
//
//   - NoCutoff: the raw kernel everywhere; only safe for kernels that decay
//     fast on their own.
//   - HardCutoff: zero beyond the boundary, discontinuous energy at it.
//   - ShiftedPotential / ShiftedForce: subtract the boundary value (and for
//     the force variant a linear term) so energy, and optionally force, go to
//     zero continuously at the cutoff.
//
// The pair at exactly the cutoff distance is evaluated (closed interval),
// matching the neighbor finders.

// NoCutoff returns the kernel unmodified.
func NoCutoff(k Kernel) Kernel { return k }

type hardCutoff struct {
	Kernel
	r2 float64
}

// HardCutoff truncates the kernel beyond rc.
func HardCutoff(k Kernel, rc float64) Kernel {
	return &hardCutoff{Kernel: k, r2: rc * rc}
}

func (h *hardCutoff) Name() string { return h.Kernel.Name() + "/hard" }

func (h *hardCutoff) Clamps() int64 {
	if cc, ok := h.Kernel.(ClampCounter); ok {
		return cc.Clamps()
	}
	return 0
}

func (h *hardCutoff) Force(ctx PairContext) float64 {
	if ctx.R2 > h.r2 {
		return 0
	}
	return h.Kernel.Force(ctx)
}

func (h *hardCutoff) Energy(ctx PairContext) float64 {
	if ctx.R2 > h.r2 {
		return 0
	}
	return h.Kernel.Energy(ctx)
}

type shifted struct {
	Kernel
	rc         float64
	r2         float64
	shiftForce bool
}

// ShiftedPotential subtracts the kernel's energy at the cutoff so the energy
// is continuous there. The force is left unmodified inside the cutoff. The
// shift depends on the pair parameters, so it is evaluated per interaction
// configuration at the cutoff distance.
func ShiftedPotential(k Kernel, rc float64) Kernel {
	return &shifted{Kernel: k, rc: rc, r2: rc * rc}
}

// ShiftedForce additionally subtracts the boundary force, making the force
// continuous at the cutoff as well; the energy gains the matching linear
// term.
func ShiftedForce(k Kernel, rc float64) Kernel {
	return &shifted{Kernel: k, rc: rc, r2: rc * rc, shiftForce: true}
}

func (s *shifted) Name() string {
	if s.shiftForce {
		return s.Kernel.Name() + "/shift-force"
	}
	return s.Kernel.Name() + "/shift"
}

func (s *shifted) Clamps() int64 {
	if cc, ok := s.Kernel.(ClampCounter); ok {
		return cc.Clamps()
	}
	return 0
}

func (s *shifted) boundary(ctx PairContext) PairContext {
	ctx.R = s.rc
	ctx.R2 = s.r2
	return ctx
}

func (s *shifted) Force(ctx PairContext) float64 {
	if ctx.R2 > s.r2 {
		return 0
	}
	f := s.Kernel.Force(ctx)
	if s.shiftForce {
		f -= s.Kernel.Force(s.boundary(ctx))
	}
	return f
}

func (s *shifted) Energy(ctx PairContext) float64 {
	if ctx.R2 > s.r2 {
		return 0
	}
	e := s.Kernel.Energy(ctx) - s.Kernel.Energy(s.boundary(ctx))
	if s.shiftForce {
		e += s.Kernel.Force(s.boundary(ctx)) * (ctx.R - s.rc)
	}
	return e
}
