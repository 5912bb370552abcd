package md

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// VelocityVerlet integrates Newton's equations in the NVE ensemble. With Long
// set it also evaluates a second potential over a separate neighbor list.
type VelocityVerlet struct {
	Dt          float64
	Short       PairPotential
	Long        PairPotential
	Neighbors   NeighborFn
	NeighborsLR NeighborFn
}

func NewVelocityVerlet(dt float64, short PairPotential, nfn NeighborFn) *VelocityVerlet {
	return &VelocityVerlet{Dt: dt, Short: short, Neighbors: nfn}
}

// WithLongRange returns a copy that also carries a long-range term.
func (v *VelocityVerlet) WithLongRange(long PairPotential, nfn NeighborFn) *VelocityVerlet {
	c := *v
	c.Long = long
	c.NeighborsLR = nfn
	return &c
}

func (v *VelocityVerlet) LongRange() bool { return v.Long != nil }

// Init builds a State from positions, masses and optional velocities. When
// Velocities is nil they are drawn from a Maxwell-Boltzmann distribution at
// KT using seed, with the centre-of-mass drift removed.
func (v *VelocityVerlet) Init(seed int64, p InitParams) (State, error) {
	n := len(p.Positions)
	if n == 0 {
		return State{}, fmt.Errorf("%w: no particles", ErrDimensionMismatch)
	}
	if len(p.Mass) != n {
		return State{}, fmt.Errorf("%w: positions=%d mass=%d", ErrDimensionMismatch, n, len(p.Mass))
	}
	if p.Velocities != nil && len(p.Velocities) != n {
		return State{}, fmt.Errorf("%w: positions=%d velocities=%d", ErrDimensionMismatch, n, len(p.Velocities))
	}
	for i, m := range p.Mass {
		if !(m > 0) {
			return State{}, fmt.Errorf("%w: particle %d has mass %g", ErrInvalidMass, i, m)
		}
	}
	if p.KT < 0 {
		return State{}, fmt.Errorf("%w: kT must be non-negative, got %g", ErrParameterBounds, p.KT)
	}
	if p.Neighbor == nil {
		return State{}, fmt.Errorf("%w: short-range neighbor list required", ErrParameterBounds)
	}
	if v.LongRange() && p.NeighborLR == nil {
		return State{}, fmt.Errorf("%w: long-range neighbor list required", ErrParameterBounds)
	}

	d, err := p.Box.Displacer()
	if err != nil {
		return State{}, err
	}

	velocities := CloneVecs(p.Velocities)
	if velocities == nil {
		velocities = maxwellBoltzmann(seed, p.Mass, p.KT)
	}

	s := State{
		Positions: CloneVecs(p.Positions),
		Momenta:   make([]Vec3, n),
		Mass:      cloneFloats(p.Mass),
		KT:        p.KT,
	}
	for i, vel := range velocities {
		s.Momenta[i] = vel.Scale(p.Mass[i])
	}
	s.Forces = v.forces(s.Positions, p.Neighbor, p.NeighborLR, d)

	return s, nil
}

func maxwellBoltzmann(seed int64, mass []float64, kT float64) []Vec3 {
	n := len(mass)
	velocities := make([]Vec3, n)
	if kT == 0 {
		return velocities
	}

	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	unit := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	var total Vec3
	totalMass := 0.0
	for i, m := range mass {
		sigma := math.Sqrt(kT / m)
		for k := 0; k < 3; k++ {
			velocities[i][k] = sigma * unit.Rand()
		}
		total = total.Add(velocities[i].Scale(m))
		totalMass += m
	}

	if n > 1 {
		drift := total.Scale(1 / totalMass)
		for i := range velocities {
			velocities[i] = velocities[i].Sub(drift)
		}
	}
	return velocities
}

func (v *VelocityVerlet) forces(positions []Vec3, nbrs, nbrsLR *NeighborList, d Displacer) []Vec3 {
	f := make([]Vec3, len(positions))
	accumulateForces(positions, nbrs, v.Short, d, f)
	if v.LongRange() && nbrsLR != nil {
		accumulateForces(positions, nbrsLR, v.Long, d, f)
	}
	return f
}

func mustDisplacer(b Box) Displacer {
	d, err := b.Displacer()
	if err != nil {
		panic(fmt.Sprintf("md: step on invalid box: %v", err))
	}
	return d
}

// advance runs one kick-drift-kick update. force is called once with the new
// positions so the caller can refresh its neighbor lists in between.
func (v *VelocityVerlet) advance(s State, d Displacer, force func([]Vec3) []Vec3) State {
	n := s.N()
	halfDt := 0.5 * v.Dt

	next := State{
		Positions: make([]Vec3, n),
		Momenta:   make([]Vec3, n),
		Mass:      cloneFloats(s.Mass),
		KT:        s.KT,
	}

	for i := 0; i < n; i++ {
		p := s.Momenta[i].Add(s.Forces[i].Scale(halfDt))
		next.Momenta[i] = p
		next.Positions[i] = d.Wrap(s.Positions[i].Add(p.Scale(v.Dt / s.Mass[i])))
	}

	next.Forces = force(next.Positions)

	for i := 0; i < n; i++ {
		next.Momenta[i] = next.Momenta[i].Add(next.Forces[i].Scale(halfDt))
	}

	return next
}

// Step is the short-range StepFn. The step index is unused.
func (v *VelocityVerlet) Step(_ int, c Carry) Carry {
	d := mustDisplacer(c.Box)
	nbrs := c.Neighbors

	s := v.advance(c.State, d, func(r []Vec3) []Vec3 {
		nbrs = v.Neighbors.Update(r, c.Box, c.Neighbors)
		f := make([]Vec3, len(r))
		accumulateForces(r, nbrs, v.Short, d, f)
		return f
	})

	return Carry{State: s, Neighbors: nbrs, Box: c.Box}
}

// StepLR is the long-range StepFnLR. The step index is unused.
func (v *VelocityVerlet) StepLR(_ int, c CarryLR) CarryLR {
	d := mustDisplacer(c.Box)
	nbrs, nbrsLR := c.Neighbors, c.NeighborsLR

	s := v.advance(c.State, d, func(r []Vec3) []Vec3 {
		nbrs = v.Neighbors.Update(r, c.Box, c.Neighbors)
		nbrsLR = v.NeighborsLR.Update(r, c.Box, c.NeighborsLR)
		return v.forces(r, nbrs, nbrsLR, d)
	})

	return CarryLR{State: s, Neighbors: nbrs, NeighborsLR: nbrsLR, Box: c.Box}
}

// PotentialEnergy evaluates the configured potentials for s.
func (v *VelocityVerlet) PotentialEnergy(s State, box Box, nbrs, nbrsLR *NeighborList) (float64, error) {
	d, err := box.Displacer()
	if err != nil {
		return 0, err
	}
	scratch := make([]Vec3, s.N())
	e := accumulateForces(s.Positions, nbrs, v.Short, d, scratch)
	if v.LongRange() && nbrsLR != nil {
		e += accumulateForces(s.Positions, nbrsLR, v.Long, d, scratch)
	}
	return e, nil
}
