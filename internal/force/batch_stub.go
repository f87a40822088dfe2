package force

// BatchBackend is the seam for a massively parallel accelerator operating on
// the same flattened pair arrays as the CPU backend. This build carries the
// stub only; Available reports false and AutoSelectBackend falls through to
// the CPU pool.
type BatchBackend struct{}

func NewBatchBackend() *BatchBackend { return &BatchBackend{} }

func (b *BatchBackend) Name() string    { return "batch" }
func (b *BatchBackend) Available() bool { return false }

func (b *BatchBackend) PairForces(k Kernel, in PairInput, buf Buffer) float64 {
	// Unreachable while Available is false; mirror the CPU contract anyway.
	return NewCPUBackend().PairForces(k, in, buf)
}
