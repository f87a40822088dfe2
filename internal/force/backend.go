package force

import (
	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/neighbor"
	"github.com/san-kum/mdsim/internal/system"
)

// Backend evaluates a kernel over the flattened candidate-pair arrays of a
// neighbor list. The CPU backend is always available; a batched accelerator
// implements the same contract over the same flat representation and is a
// drop-in replacement because the accumulate/reduce discipline is identical.
type Backend interface {
	Name() string
	Available() bool

	// PairForces accumulates pair forces into buf (which must be zeroed or
	// carry prior contributions the caller wants summed) and returns the
	// total potential energy of the evaluated pairs.
	PairForces(k Kernel, in PairInput, buf Buffer) float64
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) { activeBackend = b }

func GetBackend() Backend { return activeBackend }

// AutoSelectBackend prefers the batched accelerator when present and falls
// back to the CPU worker pool.
func AutoSelectBackend() Backend {
	batch := NewBatchBackend()
	if batch.Available() {
		return batch
	}
	return NewCPUBackend()
}

// PairInput is the flattened view a backend consumes: the pair index triples
// plus the slices they index into.
type PairInput struct {
	Pairs     []neighbor.Pair
	Pos       []geom.Vec3
	Particles []system.Particle
	Cell      *geom.Cell
}
