package bridge

import (
	"fmt"

	"github.com/san-kum/mdbridge/internal/md"
	"github.com/san-kum/mdbridge/internal/sampling"
)

type Mode int

const (
	ShortRange Mode = iota
	LongRange
)

func (m Mode) String() string {
	switch m {
	case ShortRange:
		return "short-range"
	case LongRange:
		return "long-range"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ModeFor maps a long-range switch to a Mode.
func ModeFor(longRange bool) Mode {
	if longRange {
		return LongRange
	}
	return ShortRange
}

// StepIndexPlaceholder is the index passed to the integrator step function.
// The controller owns the real step count and the integrator ignores the
// index on this path.
const StepIndexPlaceholder = 0

// Config is everything a bridge closes over. NeighborsLR and StepLR are only
// read in LongRange mode; Step only in ShortRange mode.
type Config struct {
	Mode        Mode
	State       md.State
	Box         md.Box
	Dt          float64
	Neighbors   *md.NeighborList
	NeighborsLR *md.NeighborList
	Step        md.StepFn
	StepLR      md.StepFnLR
}

// Strategy is a mode-resolved bridge: one initial context and a step
// function over contexts of that mode's variant.
type Strategy interface {
	Mode() Mode
	Init() sampling.ContextState
	Step(cs sampling.ContextState) (sampling.ContextState, error)
}

// New validates cfg and resolves its mode into a Strategy.
func New(cfg Config) (Strategy, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("%w: timestep must be positive, got %g", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Neighbors == nil {
		return nil, fmt.Errorf("%w: %s neighbor list required", ErrInvalidConfig, KeyNeighbors)
	}
	if err := cfg.State.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := cfg.Box.Displacer(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch cfg.Mode {
	case ShortRange:
		if cfg.Step == nil {
			return nil, fmt.Errorf("%w: short-range step function required", ErrInvalidConfig)
		}
		return &shortRange{
			state: cfg.State,
			nbrs:  cfg.Neighbors,
			box:   cfg.Box,
			step:  cfg.Step,
		}, nil

	case LongRange:
		if cfg.StepLR == nil {
			return nil, fmt.Errorf("%w: long-range step function required", ErrInvalidConfig)
		}
		if cfg.NeighborsLR == nil {
			return nil, fmt.Errorf("%w: %s neighbor list required", ErrInvalidConfig, KeyNeighborsLongRange)
		}
		return &longRange{
			state:  cfg.State,
			nbrs:   cfg.Neighbors,
			nbrsLR: cfg.NeighborsLR,
			box:    cfg.Box,
			step:   cfg.StepLR,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown mode %s", ErrInvalidConfig, cfg.Mode)
}

// NewContextGenerator builds the descriptor generator the sampling runner
// consumes. Every call of the generator shares the same Strategy.
func NewContextGenerator(cfg Config) (sampling.ContextGenerator, error) {
	strategy, err := New(cfg)
	if err != nil {
		return nil, err
	}
	box, dt := cfg.Box, cfg.Dt
	return func() sampling.Context {
		return sampling.Context{
			Init: strategy.Init,
			Step: strategy.Step,
			Box:  box,
			Dt:   dt,
		}
	}, nil
}

type shortRange struct {
	state md.State
	nbrs  *md.NeighborList
	box   md.Box
	step  md.StepFn
}

func (s *shortRange) Mode() Mode { return ShortRange }

func (s *shortRange) Init() sampling.ContextState {
	return &ShortRangeContext{
		State:     s.state.Clone(),
		Neighbors: s.nbrs.Clone(),
		Box:       boxRef(s.box),
	}
}

func (s *shortRange) Step(cs sampling.ContextState) (sampling.ContextState, error) {
	in, ok := cs.(*ShortRangeContext)
	if !ok || in == nil {
		return nil, &MalformedContextError{Mode: ShortRange, Got: fmt.Sprintf("%T", cs)}
	}
	if key := in.missingKey(); key != "" {
		return nil, &MalformedContextError{Mode: ShortRange, Key: key}
	}

	out := s.step(StepIndexPlaceholder, md.Carry{
		State:     in.State,
		Neighbors: in.Neighbors,
		Box:       *in.Box,
	})

	return &ShortRangeContext{
		State:     out.State,
		Neighbors: out.Neighbors,
		Box:       boxRef(out.Box),
	}, nil
}

type longRange struct {
	state  md.State
	nbrs   *md.NeighborList
	nbrsLR *md.NeighborList
	box    md.Box
	step   md.StepFnLR
}

func (l *longRange) Mode() Mode { return LongRange }

func (l *longRange) Init() sampling.ContextState {
	return &LongRangeContext{
		State:       l.state.Clone(),
		Neighbors:   l.nbrs.Clone(),
		NeighborsLR: l.nbrsLR.Clone(),
		Box:         boxRef(l.box),
	}
}

func (l *longRange) Step(cs sampling.ContextState) (sampling.ContextState, error) {
	in, ok := cs.(*LongRangeContext)
	if !ok || in == nil {
		return nil, &MalformedContextError{Mode: LongRange, Got: fmt.Sprintf("%T", cs)}
	}
	if key := in.missingKey(); key != "" {
		return nil, &MalformedContextError{Mode: LongRange, Key: key}
	}

	out := l.step(StepIndexPlaceholder, md.CarryLR{
		State:       in.State,
		Neighbors:   in.Neighbors,
		NeighborsLR: in.NeighborsLR,
		Box:         *in.Box,
	})

	return &LongRangeContext{
		State:       out.State,
		Neighbors:   out.Neighbors,
		NeighborsLR: out.NeighborsLR,
		Box:         boxRef(out.Box),
	}, nil
}
