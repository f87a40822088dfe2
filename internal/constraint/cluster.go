// Package constraint enforces fixed inter-atomic distances: SHAKE projects
// positions back onto the constraint manifold after the unconstrained
// coordinate update, RATTLE removes the velocity component along each
// constrained bond. Constraints are grouped into connected clusters built
// once from the static topology.
package constraint

// Constraint is one fixed-distance edge between two atoms.
type Constraint struct {
	I, J   int
	Target float64
}

// Cluster is a connected component of the constraint graph: an edge list
// plus the count of distinct atoms it touches. Clusters partition the
// constrained-atom set, so each one is independently solvable.
type Cluster struct {
	Constraints []Constraint
	Atoms       int
}

// BuildClusters labels the connected components of the constraint graph by
// breadth-first search over an adjacency list built once here and discarded.
func BuildClusters(n int, cons []Constraint) []Cluster {
	adj := make(map[int][]int, len(cons)*2)
	edgesAt := make(map[int][]int, len(cons)*2)
	for e, c := range cons {
		adj[c.I] = append(adj[c.I], c.J)
		adj[c.J] = append(adj[c.J], c.I)
		edgesAt[c.I] = append(edgesAt[c.I], e)
		edgesAt[c.J] = append(edgesAt[c.J], e)
	}

	seenAtom := make(map[int]bool, len(adj))
	seenEdge := make([]bool, len(cons))
	var clusters []Cluster

	for atom := 0; atom < n; atom++ {
		if seenAtom[atom] || len(adj[atom]) == 0 {
			continue
		}
		queue := []int{atom}
		seenAtom[atom] = true
		var cl Cluster

		for qi := 0; qi < len(queue); qi++ {
			u := queue[qi]
			cl.Atoms++
			for _, e := range edgesAt[u] {
				if !seenEdge[e] {
					seenEdge[e] = true
					cl.Constraints = append(cl.Constraints, cons[e])
				}
			}
			for _, v := range adj[u] {
				if !seenAtom[v] {
					seenAtom[v] = true
					queue = append(queue, v)
				}
			}
		}
		clusters = append(clusters, cl)
	}
	return clusters
}
