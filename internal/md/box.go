package md

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Box is a periodic cell matrix H. Its columns are the lattice vectors, so a
// fractional coordinate s maps to the real position H·s.
type Box [3][3]float64

func CubicBox(l float64) Box {
	return Box{
		{l, 0, 0},
		{0, l, 0},
		{0, 0, l},
	}
}

func (b Box) dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		b[0][0], b[0][1], b[0][2],
		b[1][0], b[1][1], b[1][2],
		b[2][0], b[2][1], b[2][2],
	})
}

// Lattice returns the j-th lattice vector.
func (b Box) Lattice(j int) Vec3 {
	return Vec3{b[0][j], b[1][j], b[2][j]}
}

func (b Box) Volume() float64 {
	return math.Abs(mat.Det(b.dense()))
}

func (b Box) IsZero() bool {
	return b == Box{}
}

func (b Box) apply(v Vec3) Vec3 {
	return Vec3{
		b[0][0]*v[0] + b[0][1]*v[1] + b[0][2]*v[2],
		b[1][0]*v[0] + b[1][1]*v[1] + b[1][2]*v[2],
		b[2][0]*v[0] + b[2][1]*v[1] + b[2][2]*v[2],
	}
}

// Displacer computes minimum-image displacements inside one box. It caches
// the inverse cell matrix so the pair loops avoid a solve per call.
type Displacer struct {
	h   Box
	inv Box
}

func (b Box) Displacer() (Displacer, error) {
	h := b.dense()
	if mat.Det(h) == 0 {
		return Displacer{}, ErrSingularBox
	}

	var inv mat.Dense
	if err := inv.Inverse(h); err != nil {
		return Displacer{}, fmt.Errorf("%w: %v", ErrSingularBox, err)
	}

	d := Displacer{h: b}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d.inv[i][j] = inv.At(i, j)
		}
	}
	return d, nil
}

// Displacement returns ri - rj folded to the nearest periodic image.
func (d Displacer) Displacement(ri, rj Vec3) Vec3 {
	s := d.inv.apply(ri.Sub(rj))
	for k := range s {
		s[k] -= math.Round(s[k])
	}
	return d.h.apply(s)
}

// Wrap maps r back into the primary cell.
func (d Displacer) Wrap(r Vec3) Vec3 {
	s := d.inv.apply(r)
	for k := range s {
		s[k] -= math.Floor(s[k])
	}
	return d.h.apply(s)
}
