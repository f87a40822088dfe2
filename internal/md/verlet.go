package md

import (
	"github.com/san-kum/mdsim/internal/force"
	"github.com/san-kum/mdsim/internal/geom"
	"github.com/san-kum/mdsim/internal/system"
)

// VelocityVerlet is the symplectic second-order workhorse: positions advance
// with the current velocity and force, forces are recomputed at the new
// positions, and velocities advance with the average of old and new force.
type VelocityVerlet struct {
	oldForces force.Buffer
}

func NewVelocityVerlet() *VelocityVerlet {
	return &VelocityVerlet{}
}

func (v *VelocityVerlet) Name() string { return "velocity-verlet" }

func (v *VelocityVerlet) ensureScratch(n int) {
	if len(v.oldForces) != n {
		v.oldForces = force.NewBuffer(n)
	}
}

func (v *VelocityVerlet) Step(sys *system.System, forces force.Buffer, recompute func() force.Buffer, dt float64) {
	n := sys.N()
	v.ensureScratch(n)
	copy(v.oldForces, forces)

	half := 0.5 * dt * dt
	for i := 0; i < n; i++ {
		im := 1 / sys.Particles[i].Mass
		sys.Pos[i] = sys.Pos[i].
			Add(sys.Vel[i].Scale(dt)).
			Add(forces[i].Scale(half * im))
	}

	newForces := recompute()

	halfDt := 0.5 * dt
	for i := 0; i < n; i++ {
		im := 1 / sys.Particles[i].Mass
		avg := v.oldForces[i].Add(newForces[i])
		sys.Vel[i] = sys.Vel[i].Add(avg.Scale(halfDt * im))
	}
}

// Stormer is the velocity-free variant: the velocity slot holds the previous
// step's position and velocities are reconstructed as a by-product. It does
// not compose with the constraint solver or thermostats, which need real
// velocities; the simulator rejects those combinations at setup.
type Stormer struct{}

func NewStormer() *Stormer { return &Stormer{} }

func (st *Stormer) Name() string { return "stormer" }

// Init seeds the previous-position slot from the initial velocities.
func (st *Stormer) Init(sys *system.System, dt float64) {
	for i := range sys.Vel {
		sys.Vel[i] = sys.Pos[i].Sub(sys.Vel[i].Scale(dt))
	}
}

func (st *Stormer) Step(sys *system.System, forces force.Buffer, recompute func() force.Buffer, dt float64) {
	dt2 := dt * dt
	for i := range sys.Pos {
		im := 1 / sys.Particles[i].Mass
		// x + minimum-image (x - prev) keeps the recurrence stable when the
		// wrap step has folded a coordinate between steps.
		step := sys.Cell.Displacement(sys.Pos[i], sys.Vel[i])
		next := sys.Pos[i].Add(step).Add(forces[i].Scale(dt2 * im))
		sys.Vel[i] = sys.Pos[i]
		sys.Pos[i] = next
	}
}

// Velocities reconstructs central-difference velocities from the position
// history. Only meaningful between steps of a Störmer run.
func (st *Stormer) Velocities(sys *system.System, dt float64) []geom.Vec3 {
	out := make([]geom.Vec3, sys.N())
	for i := range out {
		out[i] = sys.Cell.Displacement(sys.Pos[i], sys.Vel[i]).Scale(1 / dt)
	}
	return out
}
