package md

import (
	"fmt"
	"math"
)

// SimpleCubic places n particles on the smallest k×k×k grid that holds them,
// spacing apart and offset half a spacing from the origin.
func SimpleCubic(n int, spacing float64) ([]Vec3, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: particle count must be positive, got %d", ErrParameterBounds, n)
	}
	if spacing <= 0 {
		return nil, fmt.Errorf("%w: lattice spacing must be positive, got %g", ErrParameterBounds, spacing)
	}

	k := int(math.Ceil(math.Cbrt(float64(n))))
	positions := make([]Vec3, 0, n)
	for x := 0; x < k && len(positions) < n; x++ {
		for y := 0; y < k && len(positions) < n; y++ {
			for z := 0; z < k && len(positions) < n; z++ {
				positions = append(positions, Vec3{
					(float64(x) + 0.5) * spacing,
					(float64(y) + 0.5) * spacing,
					(float64(z) + 0.5) * spacing,
				})
			}
		}
	}
	return positions, nil
}

func UniformMass(n int, m float64) []float64 {
	mass := make([]float64, n)
	for i := range mass {
		mass[i] = m
	}
	return mass
}
