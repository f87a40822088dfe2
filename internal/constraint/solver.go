package constraint

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/system"
)

const (
	DefaultTolerance    = 1e-8
	DefaultVelTolerance = 1e-8
	// DefaultMaxIter bounds the convergence sweeps. The textbook loop has no
	// cap and can spin forever on ill-conditioned clusters; on hitting the
	// cap the solver reports non-convergence and the run continues
	// best-effort, consistent with the no-abort policy for numerical
	// anomalies.
	DefaultMaxIter = 500
)

// Solver holds the constraint clusters and convergence settings for one
// system. Clusters are disjoint, so cross-cluster parallelism would be safe;
// sweeps still visit them sequentially for simplicity and determinism.
type Solver struct {
	Clusters     []Cluster
	Tolerance    float64
	VelTolerance float64
	MaxIter      int
}

// NewSolver validates the edge set against the particle count and builds the
// clusters.
func NewSolver(n int, cons []Constraint) (*Solver, error) {
	for _, c := range cons {
		if c.I < 0 || c.I >= n || c.J < 0 || c.J >= n {
			return nil, fmt.Errorf("constraint %d-%d out of range for %d particles", c.I, c.J, n)
		}
		if c.I == c.J {
			return nil, fmt.Errorf("constraint joins particle %d to itself", c.I)
		}
		if c.Target <= 0 {
			return nil, fmt.Errorf("constraint %d-%d has non-positive target %f", c.I, c.J, c.Target)
		}
	}
	return &Solver{
		Clusters:     BuildClusters(n, cons),
		Tolerance:    DefaultTolerance,
		VelTolerance: DefaultVelTolerance,
		MaxIter:      DefaultMaxIter,
	}, nil
}

func (s *Solver) Empty() bool { return len(s.Clusters) == 0 }

// Shake iteratively corrects sys.Pos so every constrained distance matches
// its target, using ref (the pre-update positions) as the direction of each
// correction. Corrections are applied inversely proportional to mass, so
// momentum is untouched. Returns false if MaxIter sweeps did not converge.
func (s *Solver) Shake(sys *system.System, ref []geom.Vec3) bool {
	for iter := 0; iter < s.MaxIter; iter++ {
		maxErr := 0.0
		for ci := range s.Clusters {
			for _, c := range s.Clusters[ci].Constraints {
				cur := sys.Cell.Displacement(sys.Pos[c.I], sys.Pos[c.J])
				old := sys.Cell.Displacement(ref[c.I], ref[c.J])
				im := 1/sys.Particles[c.I].Mass + 1/sys.Particles[c.J].Mass

				// Quadratic in the Lagrange multiplier g from
				// |cur + g*im*old|^2 = target^2.
				a := im * im * old.Norm2()
				b := 2 * im * cur.Dot(old)
				cc := cur.Norm2() - c.Target*c.Target

				disc := b*b - 4*a*cc
				if disc < 0 {
					// Round-off artifact; a negative discriminant means the
					// correction overshoots, so take the vertex instead.
					disc = 0
				}
				sq := math.Sqrt(disc)
				g1 := (-b + sq) / (2 * a)
				g2 := (-b - sq) / (2 * a)
				g := g1
				if math.Abs(g2) < math.Abs(g1) {
					// The smaller-magnitude root is the small physical
					// correction; the other jumps to the mirror solution.
					g = g2
				}

				sys.Pos[c.I] = sys.Pos[c.I].Add(old.Scale(g / sys.Particles[c.I].Mass))
				sys.Pos[c.J] = sys.Pos[c.J].Sub(old.Scale(g / sys.Particles[c.J].Mass))

				if err := math.Abs(cur.Norm() - c.Target); err > maxErr {
					maxErr = err
				}
			}
		}
		if maxErr < s.Tolerance {
			return true
		}
	}
	return false
}

// Rattle removes the component of each constrained pair's relative velocity
// along the bond, sweeping clusters to convergence. Returns false if MaxIter
// sweeps did not converge.
func (s *Solver) Rattle(sys *system.System) bool {
	for iter := 0; iter < s.MaxIter; iter++ {
		maxErr := 0.0
		for ci := range s.Clusters {
			for _, c := range s.Clusters[ci].Constraints {
				rd := sys.Cell.Displacement(sys.Pos[c.I], sys.Pos[c.J])
				dv := sys.Vel[c.I].Sub(sys.Vel[c.J])
				im := 1/sys.Particles[c.I].Mass + 1/sys.Particles[c.J].Mass

				// Single-constraint analytic multiplier.
				lambda := dv.Dot(rd) / (im * rd.Norm2())
				sys.Vel[c.I] = sys.Vel[c.I].Sub(rd.Scale(lambda / sys.Particles[c.I].Mass))
				sys.Vel[c.J] = sys.Vel[c.J].Add(rd.Scale(lambda / sys.Particles[c.J].Mass))

				if err := math.Abs(dv.Dot(rd)) / rd.Norm(); err > maxErr {
					maxErr = err
				}
			}
		}
		if maxErr < s.VelTolerance {
			return true
		}
	}
	return false
}

// Pairs lists all constraint edges, for eligibility exclusion: atoms locked
// at short fixed distances must never see each other's pairwise kernel.
func (s *Solver) Pairs() [][2]int {
	var out [][2]int
	for ci := range s.Clusters {
		for _, c := range s.Clusters[ci].Constraints {
			out = append(out, [2]int{c.I, c.J})
		}
	}
	return out
}
