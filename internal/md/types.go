package md

import (
	"fmt"
	"math"
)

type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v[0] * f, v[1] * f, v[2] * f}
}
func (v Vec3) Dot(o Vec3) float64 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }
func (v Vec3) Norm() float64      { return math.Sqrt(v.Dot(v)) }

func (v Vec3) IsValid() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// CloneVecs returns an independent copy of vs. A nil input stays nil.
func CloneVecs(vs []Vec3) []Vec3 {
	if vs == nil {
		return nil
	}
	c := make([]Vec3, len(vs))
	copy(c, vs)
	return c
}

func cloneFloats(xs []float64) []float64 {
	if xs == nil {
		return nil
	}
	c := make([]float64, len(xs))
	copy(c, xs)
	return c
}

// State is the integrator's native state. Step functions return new values
// and never modify the State they were given.
type State struct {
	Positions []Vec3    `json:"positions"`
	Momenta   []Vec3    `json:"momenta"`
	Forces    []Vec3    `json:"forces"`
	Mass      []float64 `json:"mass"`
	KT        float64   `json:"kT"`
}

func (s State) N() int { return len(s.Positions) }

func (s State) Clone() State {
	return State{
		Positions: CloneVecs(s.Positions),
		Momenta:   CloneVecs(s.Momenta),
		Forces:    CloneVecs(s.Forces),
		Mass:      cloneFloats(s.Mass),
		KT:        s.KT,
	}
}

// Velocities derives p/m per particle.
func (s State) Velocities() []Vec3 {
	v := make([]Vec3, len(s.Momenta))
	for i, p := range s.Momenta {
		v[i] = p.Scale(1 / s.Mass[i])
	}
	return v
}

func (s State) Validate() error {
	n := len(s.Positions)
	if len(s.Momenta) != n || len(s.Mass) != n {
		return fmt.Errorf("%w: positions=%d momenta=%d mass=%d",
			ErrDimensionMismatch, n, len(s.Momenta), len(s.Mass))
	}
	for i, m := range s.Mass {
		if !(m > 0) {
			return fmt.Errorf("%w: particle %d has mass %g", ErrInvalidMass, i, m)
		}
	}
	return nil
}

func KineticEnergy(s State) float64 {
	ke := 0.0
	for i, p := range s.Momenta {
		ke += p.Dot(p) / (2 * s.Mass[i])
	}
	return ke
}

// Temperature is the instantaneous kinetic temperature with k_B = 1.
func Temperature(s State) float64 {
	if s.N() == 0 {
		return 0
	}
	return 2 * KineticEnergy(s) / (3 * float64(s.N()))
}

// Carry is the tuple a short-range step function consumes and returns.
type Carry struct {
	State     State
	Neighbors *NeighborList
	Box       Box
}

// CarryLR is Carry with the long-range neighbor list threaded alongside.
type CarryLR struct {
	State       State
	Neighbors   *NeighborList
	NeighborsLR *NeighborList
	Box         Box
}

// StepFn advances a short-range carry by one step. The step index is part of
// the integrator contract even where the implementation ignores it.
type StepFn func(i int, c Carry) Carry

type StepFnLR func(i int, c CarryLR) CarryLR

// InitParams carries everything InitFn needs to build a State. NeighborLR is
// nil outside long-range mode; Velocities nil means sample at KT.
type InitParams struct {
	Positions  []Vec3
	Box        Box
	Neighbor   *NeighborList
	NeighborLR *NeighborList
	KT         float64
	Mass       []float64
	Velocities []Vec3
}

type InitFn func(seed int64, p InitParams) (State, error)

// NeighborAllocator builds a neighbor list for a position set and box.
type NeighborAllocator interface {
	Allocate(positions []Vec3, box Box) (*NeighborList, error)
}
