package bridge

import (
	"errors"
	"fmt"

	"github.com/san-kum/mdbridge/internal/md"
)

var (
	// ErrContractViolation is the parent of every error caused by a caller
	// breaking the bridge contract. These are bugs, not runtime conditions.
	ErrContractViolation = errors.New("bridge: contract violation")

	// ErrMalformedContext indicates a context of the wrong variant or with a
	// required key missing.
	ErrMalformedContext = fmt.Errorf("%w: malformed context", ErrContractViolation)

	// ErrEmptyTrajectory indicates a result with no snapshots.
	ErrEmptyTrajectory = fmt.Errorf("%w: empty trajectory", ErrContractViolation)

	// ErrZeroMass indicates a snapshot particle with non-positive mass.
	ErrZeroMass = fmt.Errorf("%w: non-positive particle mass", ErrContractViolation)

	// ErrInvalidConfig indicates a bridge or reconstruction setup that cannot run.
	ErrInvalidConfig = errors.New("bridge: invalid configuration")
)

// MalformedContextError names what was wrong with a context handed to Step.
// Key is empty when the context was of the wrong variant altogether.
type MalformedContextError struct {
	Mode Mode
	Key  string
	Got  string
}

func (e *MalformedContextError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s step got %s", ErrMalformedContext, e.Mode, e.Got)
	}
	return fmt.Sprintf("%s: %s context missing key %q", ErrMalformedContext, e.Mode, e.Key)
}

func (e *MalformedContextError) Unwrap() error {
	return ErrMalformedContext
}

// MassError reports the first particle whose mass cannot be divided by.
type MassError struct {
	Particle int
	Mass     float64
}

func (e *MassError) Error() string {
	return fmt.Sprintf("%s: particle %d has mass %g", ErrZeroMass, e.Particle, e.Mass)
}

func (e *MassError) Unwrap() error {
	return ErrZeroMass
}

// IsCapacity reports whether err is a neighbor overflow a caller may retry
// with a larger capacity.
func IsCapacity(err error) bool {
	return errors.Is(err, md.ErrNeighborOverflow)
}

func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation)
}
