package bridge

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/mdbridge/internal/md"
	"github.com/san-kum/mdbridge/internal/sampling"
)

// ReconstructOptions configures Reconstruct. NeighborsLR is required in
// LongRange mode and ignored otherwise.
type ReconstructOptions struct {
	Mode        Mode
	Init        md.InitFn
	Seed        int64
	KT          float64
	Neighbors   md.NeighborAllocator
	NeighborsLR md.NeighborAllocator
	Logger      *slog.Logger
}

// Reconstructed is a native state ready for further integration, with the
// neighbor lists and box it was built for. NeighborsLR is nil in ShortRange
// mode.
type Reconstructed struct {
	State       md.State
	Neighbors   *md.NeighborList
	NeighborsLR *md.NeighborList
	Box         md.Box
}

// Reconstruct turns the last snapshot of res into a fresh native state. The
// output shares no memory with res.
func Reconstruct(res *sampling.Result, opts ReconstructOptions) (*Reconstructed, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snap, ok := res.Final()
	if !ok {
		return nil, ErrEmptyTrajectory
	}

	positions := md.CloneVecs(snap.Positions)
	box := snap.Box

	out := &Reconstructed{Box: box}
	var err error
	out.Neighbors, err = opts.Neighbors.Allocate(positions, box)
	if err != nil {
		return nil, fmt.Errorf("bridge: allocate %s: %w", KeyNeighbors, err)
	}
	if opts.Mode == LongRange {
		out.NeighborsLR, err = opts.NeighborsLR.Allocate(positions, box)
		if err != nil {
			return nil, fmt.Errorf("bridge: allocate %s: %w", KeyNeighborsLongRange, err)
		}
	}

	mass, velocities, err := splitVelMass(snap.VelMass, len(positions))
	if err != nil {
		return nil, err
	}

	out.State, err = opts.Init(opts.Seed, md.InitParams{
		Positions:  positions,
		Box:        box,
		Neighbor:   out.Neighbors,
		NeighborLR: out.NeighborsLR,
		KT:         opts.KT,
		Mass:       mass,
		Velocities: velocities,
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: init native state: %w", err)
	}

	logger.Debug("reconstructed native state",
		"mode", opts.Mode.String(), "step", snap.Step, "particles", len(positions), "seed", opts.Seed)
	return out, nil
}

func (o ReconstructOptions) validate() error {
	if o.Init == nil {
		return fmt.Errorf("%w: native state initializer required", ErrInvalidConfig)
	}
	if o.Neighbors == nil {
		return fmt.Errorf("%w: %s allocator required", ErrInvalidConfig, KeyNeighbors)
	}
	switch o.Mode {
	case ShortRange:
	case LongRange:
		if o.NeighborsLR == nil {
			return fmt.Errorf("%w: %s allocator required", ErrInvalidConfig, KeyNeighborsLongRange)
		}
	default:
		return fmt.Errorf("%w: unknown mode %s", ErrInvalidConfig, o.Mode)
	}
	return nil
}

// splitVelMass recovers mass and velocity = momentum / mass per particle.
func splitVelMass(vm sampling.VelMass, n int) ([]float64, []md.Vec3, error) {
	if len(vm.Mass) != n || len(vm.Momentum) != n {
		return nil, nil, fmt.Errorf("%w: snapshot has %d positions, %d momenta, %d masses",
			ErrContractViolation, n, len(vm.Momentum), len(vm.Mass))
	}

	mass := make([]float64, n)
	velocities := make([]md.Vec3, n)
	for i, m := range vm.Mass {
		if !(m > 0) {
			return nil, nil, &MassError{Particle: i, Mass: m}
		}
		mass[i] = m
		p := vm.Momentum[i]
		velocities[i] = md.Vec3{p[0] / m, p[1] / m, p[2] / m}
	}
	return mass, velocities, nil
}
