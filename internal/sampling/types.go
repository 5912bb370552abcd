package sampling

import (
	"github.com/san-kum/mdbridge/internal/md"
)

// ContextState is the opaque per-step envelope. The controller only ever
// asks it for a snapshot; everything else passes through untouched.
type ContextState interface {
	Snapshot() Snapshot
}

// Context is the descriptor an integrator backend hands the controller.
type Context struct {
	Init func() ContextState
	Step func(ContextState) (ContextState, error)
	Box  md.Box
	Dt   float64
}

type ContextGenerator func() Context

// VelMass stores velocity×mass alongside mass, so velocity is Momentum/Mass.
type VelMass struct {
	Momentum []md.Vec3 `json:"momentum"`
	Mass     []float64 `json:"mass"`
}

type Snapshot struct {
	Step      int       `json:"step"`
	Positions []md.Vec3 `json:"positions"`
	Box       md.Box    `json:"box"`
	VelMass   VelMass   `json:"vel_mass"`
}

func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Step:      s.Step,
		Positions: md.CloneVecs(s.Positions),
		Box:       s.Box,
		VelMass: VelMass{
			Momentum: md.CloneVecs(s.VelMass.Momentum),
			Mass:     append([]float64(nil), s.VelMass.Mass...),
		},
	}
}

type Histogram struct {
	CV       string    `json:"cv"`
	Dividers []float64 `json:"dividers"`
	Counts   []float64 `json:"counts"`
	Outside  int       `json:"outside"`
}

// Result is everything a run produced. Snapshots are in step order.
type Result struct {
	ID         string            `json:"id"`
	Method     string            `json:"method"`
	MethodArgs map[string]string `json:"method_args,omitempty"`
	Steps      int               `json:"steps"`
	Stride     int               `json:"stride"`
	Dt         float64           `json:"dt"`
	Snapshots  []Snapshot        `json:"snapshots"`
	CVNames    []string          `json:"cv_names,omitempty"`
	CVs        [][]float64       `json:"cvs,omitempty"`
	Histograms []Histogram       `json:"histograms,omitempty"`
}

// Final returns the last recorded snapshot.
func (r *Result) Final() (Snapshot, bool) {
	if r == nil || len(r.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.Snapshots[len(r.Snapshots)-1], true
}

// CVSeries returns the trace of one collective variable across snapshots.
func (r *Result) CVSeries(idx int) []float64 {
	series := make([]float64, 0, len(r.CVs))
	for _, row := range r.CVs {
		if idx < len(row) {
			series = append(series, row[idx])
		}
	}
	return series
}
