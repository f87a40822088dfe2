package force

import "github.com/san-kum/mdsim/internal/geom"

// Buffer holds one force vector per particle. Buffers are zeroed at the
// start of a step, filled by the interaction evaluators, and consumed once by
// the integrator. Workers always write to private buffers which are reduced
// after all of them finish; a buffer is never mutated concurrently.
type Buffer []geom.Vec3

func NewBuffer(n int) Buffer {
	return make(Buffer, n)
}

func (b Buffer) Zero() {
	for i := range b {
		b[i] = geom.Vec3{}
	}
}

func (b Buffer) Add(i int, f geom.Vec3) {
	b[i] = b[i].Add(f)
}

// Reduce sums the worker buffers into b.
func (b Buffer) Reduce(workers []Buffer) {
	for _, w := range workers {
		for i := range b {
			b[i] = b[i].Add(w[i])
		}
	}
}
