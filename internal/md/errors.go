package md

import (
	"errors"
	"fmt"
)

// Domain errors for integrator operations.
var (
	// ErrNeighborOverflow indicates more neighbors than the preallocated capacity.
	ErrNeighborOverflow = errors.New("md: neighbor list overflow (capacity exceeded)")

	// ErrSingularBox indicates a cell matrix that cannot be inverted.
	ErrSingularBox = errors.New("md: singular box matrix")

	// ErrInvalidMass indicates a non-positive particle mass.
	ErrInvalidMass = errors.New("md: particle mass must be positive")

	// ErrDimensionMismatch indicates per-particle arrays of different lengths.
	ErrDimensionMismatch = errors.New("md: dimension mismatch between per-particle arrays")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("md: parameter out of valid bounds")
)

// CapacityError reports which particle overflowed a neighbor allocation.
type CapacityError struct {
	Particle int
	Count    int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: particle %d has %d neighbors, capacity %d",
		ErrNeighborOverflow.Error(), e.Particle, e.Count, e.Capacity)
}

func (e *CapacityError) Unwrap() error {
	return ErrNeighborOverflow
}
