// Package neighbor maintains the candidate pair list for non-bonded force
// evaluation. Three interchangeable finders produce the same logical pair
// set: a brute-force scan, a periodic kd-tree, and a linked-cell grid. The
// cell grid is the fast path; the other two exist as a reference oracle and
// as a middle ground for sparse systems.
package neighbor

import "github.com/san-kum/mdsim/internal/system"

// Pair is one neighbor-list entry with i < j. Special marks a scaled 1-4
// interaction.
type Pair struct {
	I, J    int
	Special bool
}

// List is a reusable pair buffer. Reset keeps the backing capacity so steady
// state rebuilds do not allocate.
type List struct {
	pairs []Pair
}

func NewList() *List {
	return &List{pairs: make([]Pair, 0, 256)}
}

func (l *List) Reset()           { l.pairs = l.pairs[:0] }
func (l *List) Len() int         { return len(l.pairs) }
func (l *List) Pairs() []Pair    { return l.pairs }
func (l *List) append(p ...Pair) { l.pairs = append(l.pairs, p...) }

// Finder computes the set of eligible pairs within the neighbor cutoff. The
// cutoff includes the skin margin on top of the force cutoff, so a list stays
// valid for several steps between rebuilds.
type Finder interface {
	Name() string

	// Rebuild replaces the contents of list with the current pair set. The
	// pair exactly at the cutoff is included (r² ≤ cutoff²); self pairs and
	// ineligible pairs never appear.
	Rebuild(sys *system.System, list *List)
}
