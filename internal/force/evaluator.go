package force

import (
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/system"
)

// Evaluator runs a set of kernels over the current neighbor list. Kernels
// are evaluated independently and their contributions summed, so a system
// can combine, say, Lennard-Jones and reaction-field Coulomb terms.
type Evaluator struct {
	kernels []Kernel
	backend Backend
}

func NewEvaluator(kernels ...Kernel) *Evaluator {
	return &Evaluator{kernels: kernels, backend: GetBackend()}
}

func (e *Evaluator) Kernels() []Kernel { return e.kernels }

// Accumulate adds pair forces for every kernel into buf and returns the
// total pair potential energy.
func (e *Evaluator) Accumulate(sys *system.System, list *neighbor.List, buf Buffer) float64 {
	in := PairInput{
		Pairs:     list.Pairs(),
		Pos:       sys.Pos,
		Particles: sys.Particles,
		Cell:      sys.Cell,
	}
	energy := 0.0
	for _, k := range e.kernels {
		energy += e.backend.PairForces(k, in, buf)
	}
	return energy
}

// Clamps sums force-clamp events across kernels that track them.
func (e *Evaluator) Clamps() int64 {
	var total int64
	for _, k := range e.kernels {
		if cc, ok := k.(ClampCounter); ok {
			total += cc.Clamps()
		}
	}
	return total
}
