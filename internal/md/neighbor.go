package md

import (
	"fmt"
	"slices"
)

// NeighborList holds, for every particle, the indices of the particles found
// within Cutoff when the list was built. It is bound to Reference and Box and
// goes stale once any particle drifts more than half the skin.
type NeighborList struct {
	Idx         [][]int `json:"idx"`
	Capacity    int     `json:"capacity"`
	Cutoff      float64 `json:"cutoff"`
	Reference   []Vec3  `json:"reference"`
	Box         Box     `json:"box"`
	DidOverflow bool    `json:"did_overflow"`
}

func (n *NeighborList) Clone() *NeighborList {
	if n == nil {
		return nil
	}
	idx := make([][]int, len(n.Idx))
	for i, row := range n.Idx {
		idx[i] = slices.Clone(row)
	}
	return &NeighborList{
		Idx:         idx,
		Capacity:    n.Capacity,
		Cutoff:      n.Cutoff,
		Reference:   CloneVecs(n.Reference),
		Box:         n.Box,
		DidOverflow: n.DidOverflow,
	}
}

// Pairs counts unique i<j pairs.
func (n *NeighborList) Pairs() int {
	count := 0
	for i, row := range n.Idx {
		for _, j := range row {
			if j > i {
				count++
			}
		}
	}
	return count
}

// MaxOccupancy is the largest per-particle neighbor count.
func (n *NeighborList) MaxOccupancy() int {
	m := 0
	for _, row := range n.Idx {
		if len(row) > m {
			m = len(row)
		}
	}
	return m
}

// Stale reports whether positions moved far enough, or the box changed, so
// that the list no longer covers every pair within the interaction cutoff.
func (n *NeighborList) Stale(positions []Vec3, box Box, skin float64) bool {
	if box != n.Box || len(positions) != len(n.Reference) {
		return true
	}
	d, err := box.Displacer()
	if err != nil {
		return true
	}
	limit := 0.25 * skin * skin
	for i, r := range positions {
		dr := d.Displacement(r, n.Reference[i])
		if dr.Dot(dr) > limit {
			return true
		}
	}
	return false
}

// NeighborFn allocates neighbor lists with a fixed per-particle capacity.
type NeighborFn struct {
	Cutoff   float64 `yaml:"cutoff" json:"cutoff"`
	Skin     float64 `yaml:"skin" json:"skin"`
	Capacity int     `yaml:"capacity" json:"capacity"`
}

func (f NeighborFn) validate() error {
	if f.Cutoff <= 0 {
		return fmt.Errorf("%w: neighbor cutoff must be positive, got %g", ErrParameterBounds, f.Cutoff)
	}
	if f.Skin < 0 {
		return fmt.Errorf("%w: neighbor skin must be non-negative, got %g", ErrParameterBounds, f.Skin)
	}
	if f.Capacity <= 0 {
		return fmt.Errorf("%w: neighbor capacity must be positive, got %d", ErrParameterBounds, f.Capacity)
	}
	return nil
}

// Allocate builds a fresh list. A particle with more neighbors than Capacity
// fails the whole allocation with a *CapacityError.
func (f NeighborFn) Allocate(positions []Vec3, box Box) (*NeighborList, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	nbrs, overflow, err := f.build(positions, box)
	if err != nil {
		return nil, err
	}
	if overflow != nil {
		return nil, overflow
	}
	return nbrs, nil
}

// Update returns nbrs unchanged while it is still valid, otherwise rebuilds
// it. Overflow on the rebuild is flagged on the returned list instead of
// failing, since step functions cannot return errors.
func (f NeighborFn) Update(positions []Vec3, box Box, nbrs *NeighborList) *NeighborList {
	if nbrs != nil && !nbrs.Stale(positions, box, f.Skin) {
		return nbrs
	}
	rebuilt, overflow, err := f.build(positions, box)
	if err != nil {
		panic(fmt.Sprintf("md: neighbor update: %v", err))
	}
	if overflow != nil {
		rebuilt.DidOverflow = true
	}
	return rebuilt
}

func (f NeighborFn) build(positions []Vec3, box Box) (*NeighborList, *CapacityError, error) {
	d, err := box.Displacer()
	if err != nil {
		return nil, nil, err
	}

	n := len(positions)
	rc := f.Cutoff + f.Skin
	rc2 := rc * rc

	idx := make([][]int, n)
	for i := range idx {
		idx[i] = make([]int, 0, f.Capacity)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dr := d.Displacement(positions[i], positions[j])
			if dr.Dot(dr) < rc2 {
				idx[i] = append(idx[i], j)
				idx[j] = append(idx[j], i)
			}
		}
	}

	var overflow *CapacityError
	for i, row := range idx {
		if len(row) > f.Capacity {
			if overflow == nil {
				overflow = &CapacityError{Particle: i, Count: len(row), Capacity: f.Capacity}
			}
			idx[i] = row[:f.Capacity]
		}
	}

	return &NeighborList{
		Idx:       idx,
		Capacity:  f.Capacity,
		Cutoff:    rc,
		Reference: CloneVecs(positions),
		Box:       box,
	}, overflow, nil
}
