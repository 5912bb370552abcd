package md

import "math"

// PairPotential is a radial pair interaction truncated at Range.
type PairPotential interface {
	// Pair returns the energy and -dU/dr divided by r at squared distance r2.
	Pair(r2 float64) (u, fOverR float64)
	Range() float64
}

type LennardJones struct {
	Epsilon float64 `yaml:"epsilon" json:"epsilon"`
	Sigma   float64 `yaml:"sigma" json:"sigma"`
	Cutoff  float64 `yaml:"cutoff" json:"cutoff"`
}

func DefaultLennardJones() LennardJones {
	return LennardJones{Epsilon: 1.0, Sigma: 1.0, Cutoff: 2.5}
}

func (lj LennardJones) Range() float64 { return lj.Cutoff }

// Pair is shifted so the energy is zero at the cutoff.
func (lj LennardJones) Pair(r2 float64) (float64, float64) {
	u, f := lj.raw(r2)
	shift, _ := lj.raw(lj.Cutoff * lj.Cutoff)
	return u - shift, f
}

func (lj LennardJones) raw(r2 float64) (float64, float64) {
	sr2 := lj.Sigma * lj.Sigma / r2
	sr6 := sr2 * sr2 * sr2
	sr12 := sr6 * sr6
	return 4 * lj.Epsilon * (sr12 - sr6), 24 * lj.Epsilon * (2*sr12 - sr6) / r2
}

// Yukawa is a screened repulsion A·exp(-κr)/r, used as the long-range term.
type Yukawa struct {
	A      float64 `yaml:"a" json:"a"`
	Kappa  float64 `yaml:"kappa" json:"kappa"`
	Cutoff float64 `yaml:"cutoff" json:"cutoff"`
}

func (y Yukawa) Range() float64 { return y.Cutoff }

func (y Yukawa) Pair(r2 float64) (float64, float64) {
	r := math.Sqrt(r2)
	e := y.A * math.Exp(-y.Kappa*r)
	shift := y.A * math.Exp(-y.Kappa*y.Cutoff) / y.Cutoff
	return e/r - shift, e * (y.Kappa*r + 1) / (r2 * r)
}

// accumulateForces adds the forces from pot over nbrs into out and returns
// the potential energy. Each unordered pair is visited once.
func accumulateForces(positions []Vec3, nbrs *NeighborList, pot PairPotential, d Displacer, out []Vec3) float64 {
	rc2 := pot.Range() * pot.Range()
	energy := 0.0

	for i, row := range nbrs.Idx {
		for _, j := range row {
			if j <= i {
				continue
			}
			dr := d.Displacement(positions[i], positions[j])
			r2 := dr.Dot(dr)
			if r2 >= rc2 || r2 == 0 {
				continue
			}
			u, fOverR := pot.Pair(r2)
			energy += u
			f := dr.Scale(fOverR)
			out[i] = out[i].Add(f)
			out[j] = out[j].Sub(f)
		}
	}

	return energy
}
