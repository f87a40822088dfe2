package force

import (
	"math"
	"runtime"
	"sync"

	"github.com/san-kum/mdsim/internal/neighbor"
)

// CPUBackend evaluates pair forces on a bounded worker pool. The pair list
// is split into contiguous chunks; every worker accumulates into a private
// force buffer and a private energy sum, and the reduction runs only after
// the barrier. No locks are involved.
type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{workers: runtime.NumCPU()}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }

func (c *CPUBackend) PairForces(k Kernel, in PairInput, buf Buffer) float64 {
	n := len(in.Pairs)
	if n == 0 {
		return 0
	}
	if n < 256 || c.workers < 2 {
		return c.evalChunk(k, in, in.Pairs, buf)
	}

	local := make([]Buffer, c.workers)
	energies := make([]float64, c.workers)
	chunk := (n + c.workers - 1) / c.workers

	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			start := worker * chunk
			end := start + chunk
			if end > n {
				end = n
			}
			if start >= end {
				local[worker] = NewBuffer(0)
				return
			}
			local[worker] = NewBuffer(len(buf))
			energies[worker] = c.evalChunk(k, in, in.Pairs[start:end], local[worker])
		}(w)
	}
	wg.Wait()

	energy := 0.0
	for w := 0; w < c.workers; w++ {
		energy += energies[w]
		if len(local[w]) == len(buf) {
			buf.Reduce([]Buffer{local[w]})
		}
	}
	return energy
}

func (c *CPUBackend) evalChunk(k Kernel, in PairInput, pairs []neighbor.Pair, buf Buffer) float64 {
	energy := 0.0
	for _, p := range pairs {
		dr := in.Cell.Displacement(in.Pos[p.I], in.Pos[p.J])
		r2 := dr.Norm2()
		if r2 == 0 {
			continue
		}
		ctx := PairContext{
			R2:      r2,
			R:       math.Sqrt(r2),
			A:       &in.Particles[p.I],
			B:       &in.Particles[p.J],
			Special: p.Special,
		}

		f := k.Force(ctx)
		energy += k.Energy(ctx)

		// dr points from j to i, so +f repels i from j and j from i equally:
		// Newton's third law by construction.
		fv := dr.Scale(f / ctx.R)
		buf.Add(p.I, fv)
		buf.Add(p.J, fv.Scale(-1))
	}
	return energy
}
