package metrics

import (
	"math"

	"github.com/san-kum/mdbridge/internal/sampling"
)

// Stability is the fraction of snapshots whose positions are finite and
// whose momenta stay below threshold in every component.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(snap sampling.Snapshot) {
	s.samples++
	if !s.stable(snap) {
		s.violations++
	}
}

func (s *Stability) stable(snap sampling.Snapshot) bool {
	for _, r := range snap.Positions {
		if !r.IsValid() {
			return false
		}
	}
	for _, p := range snap.VelMass.Momentum {
		for _, c := range p {
			if math.IsNaN(c) || math.Abs(c) > s.threshold {
				return false
			}
		}
	}
	return true
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
