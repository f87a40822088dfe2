package system

// PairMatrix is a symmetric boolean relation over particle index pairs,
// stored as a flat row-major bit slice. Setting (i, j) also sets (j, i).
type PairMatrix struct {
	n    int
	bits []bool
}

func NewPairMatrix(n int) *PairMatrix {
	return &PairMatrix{n: n, bits: make([]bool, n*n)}
}

func (m *PairMatrix) N() int { return m.n }

func (m *PairMatrix) Get(i, j int) bool {
	return m.bits[i*m.n+j]
}

func (m *PairMatrix) Set(i, j int, v bool) {
	m.bits[i*m.n+j] = v
	m.bits[j*m.n+i] = v
}

func (m *PairMatrix) Fill(v bool) {
	for k := range m.bits {
		m.bits[k] = v
	}
	// The diagonal never interacts.
	for i := 0; i < m.n; i++ {
		m.bits[i*m.n+i] = false
	}
}

// ExcludeBonded marks the pair of every bonded tuple ineligible. Used for
// 2-body topology terms and for constraint edges, which lock atoms at short
// fixed distances where pairwise kernels diverge.
func (m *PairMatrix) ExcludeBonded(pairs [][2]int) {
	for _, p := range pairs {
		m.Set(p[0], p[1], false)
	}
}
