package bridge

import (
	"github.com/san-kum/mdbridge/internal/md"
	"github.com/san-kum/mdbridge/internal/sampling"
)

// Key names reported by MalformedContextError.
const (
	KeyNeighbors          = "neighbors"
	KeyNeighborsLongRange = "neighbors_long_range"
	KeyBox                = "box"
)

// ShortRangeContext is the controller-facing envelope in ShortRange mode.
// A nil pointer field is a missing key.
type ShortRangeContext struct {
	State     md.State
	Neighbors *md.NeighborList
	Box       *md.Box
}

func (c *ShortRangeContext) Snapshot() sampling.Snapshot {
	return snapshotOf(c.State, c.Box)
}

func (c *ShortRangeContext) missingKey() string {
	switch {
	case c.Neighbors == nil:
		return KeyNeighbors
	case c.Box == nil:
		return KeyBox
	}
	return ""
}

// LongRangeContext is the controller-facing envelope in LongRange mode.
type LongRangeContext struct {
	State       md.State
	Neighbors   *md.NeighborList
	NeighborsLR *md.NeighborList
	Box         *md.Box
}

func (c *LongRangeContext) Snapshot() sampling.Snapshot {
	return snapshotOf(c.State, c.Box)
}

func (c *LongRangeContext) missingKey() string {
	switch {
	case c.Neighbors == nil:
		return KeyNeighbors
	case c.NeighborsLR == nil:
		return KeyNeighborsLongRange
	case c.Box == nil:
		return KeyBox
	}
	return ""
}

// snapshotOf copies out what the controller records. Momenta are already
// velocity times mass, so they go into VelMass as they are.
func snapshotOf(s md.State, box *md.Box) sampling.Snapshot {
	snap := sampling.Snapshot{
		Positions: md.CloneVecs(s.Positions),
		VelMass: sampling.VelMass{
			Momentum: md.CloneVecs(s.Momenta),
			Mass:     append([]float64(nil), s.Mass...),
		},
	}
	if box != nil {
		snap.Box = *box
	}
	return snap
}

func boxRef(b md.Box) *md.Box { return &b }
