package metrics

import (
	"sort"

	"github.com/san-kum/mdbridge/internal/sampling"
)

// Metric accumulates a scalar over the recorded snapshots of a run.
type Metric interface {
	Name() string
	Observe(s sampling.Snapshot)
	Value() float64
	Reset()
}

// Tracker feeds every recorded snapshot to a set of metrics. It implements
// sampling.Observer.
type Tracker struct {
	metrics []Metric
}

func NewTracker(ms ...Metric) *Tracker {
	return &Tracker{metrics: ms}
}

func (t *Tracker) Add(m Metric) { t.metrics = append(t.metrics, m) }

func (t *Tracker) OnSnapshot(s sampling.Snapshot, _ []float64) {
	for _, m := range t.metrics {
		m.Observe(s)
	}
}

func (t *Tracker) Values() map[string]float64 {
	out := make(map[string]float64, len(t.metrics))
	for _, m := range t.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (t *Tracker) Names() []string {
	names := make([]string, 0, len(t.metrics))
	for _, m := range t.metrics {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}

func (t *Tracker) Reset() {
	for _, m := range t.metrics {
		m.Reset()
	}
}

// Standard returns the metrics every run records.
func Standard() []Metric {
	return []Metric{NewKineticEnergy(), NewTemperature(), NewStability(1e6)}
}
