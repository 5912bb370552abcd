package metrics

import (
	"math"

	"github.com/san-kum/mdbridge/internal/sampling"
)

// SnapshotKineticEnergy sums p²/2m over the snapshot's vel_mass field.
func SnapshotKineticEnergy(s sampling.Snapshot) float64 {
	ke := 0.0
	for i, p := range s.VelMass.Momentum {
		if i >= len(s.VelMass.Mass) || s.VelMass.Mass[i] <= 0 {
			continue
		}
		ke += p.Dot(p) / (2 * s.VelMass.Mass[i])
	}
	return ke
}

// SnapshotTemperature is the kinetic temperature with k_B = 1.
func SnapshotTemperature(s sampling.Snapshot) float64 {
	n := len(s.VelMass.Momentum)
	if n == 0 {
		return 0
	}
	return 2 * SnapshotKineticEnergy(s) / (3 * float64(n))
}

// KineticEnergy is the mean kinetic energy over observed snapshots.
type KineticEnergy struct {
	name    string
	samples int
	total   float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(s sampling.Snapshot) {
	k.total += SnapshotKineticEnergy(s)
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.total = 0
	k.samples = 0
}

// Temperature is the mean kinetic temperature over observed snapshots.
type Temperature struct {
	name    string
	samples int
	total   float64
}

func NewTemperature() *Temperature {
	return &Temperature{name: "temperature"}
}

func (t *Temperature) Name() string { return t.name }

func (t *Temperature) Observe(s sampling.Snapshot) {
	t.total += SnapshotTemperature(s)
	t.samples++
}

func (t *Temperature) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.total / float64(t.samples)
}

func (t *Temperature) Reset() {
	t.total = 0
	t.samples = 0
}

// EnergyFunc evaluates the total energy of a snapshot. ok is false when the
// snapshot cannot be evaluated.
type EnergyFunc func(s sampling.Snapshot) (energy float64, ok bool)

// EnergyDrift is the largest relative deviation from the first observed
// total energy.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
	energy        EnergyFunc
}

func NewEnergyDrift(fn EnergyFunc) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		energy: fn,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s sampling.Snapshot) {
	energy, ok := e.energy(s)
	if !ok {
		return
	}

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
