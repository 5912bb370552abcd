package sampling

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/mdbridge/internal/md"
)

// CV is a collective variable: a scalar function of a snapshot.
type CV interface {
	Name() string
	Eval(s Snapshot) (float64, error)
}

// Distance is the minimum-image distance between the centroids of two
// particle groups.
type Distance struct {
	Group1 []int
	Group2 []int
}

func NewDistance(g1, g2 []int) (*Distance, error) {
	if len(g1) == 0 || len(g2) == 0 {
		return nil, fmt.Errorf("%w: distance groups must be non-empty", ErrMalformedDirective)
	}
	return &Distance{Group1: append([]int(nil), g1...), Group2: append([]int(nil), g2...)}, nil
}

func (d *Distance) Name() string {
	return "distance(" + formatGroup(d.Group1) + ";" + formatGroup(d.Group2) + ")"
}

func (d *Distance) Eval(s Snapshot) (float64, error) {
	disp, err := s.Box.Displacer()
	if err != nil {
		return 0, err
	}
	c1, err := centroid(s.Positions, d.Group1, disp)
	if err != nil {
		return 0, err
	}
	c2, err := centroid(s.Positions, d.Group2, disp)
	if err != nil {
		return 0, err
	}
	return disp.Displacement(c1, c2).Norm(), nil
}

// centroid unwraps the group around its first member before averaging so a
// group straddling the boundary is not pulled to the box centre.
func centroid(positions []md.Vec3, group []int, d md.Displacer) (md.Vec3, error) {
	for _, i := range group {
		if i < 0 || i >= len(positions) {
			return md.Vec3{}, fmt.Errorf("%w: index %d, %d particles", ErrCVIndex, i, len(positions))
		}
	}
	ref := positions[group[0]]
	var sum md.Vec3
	for _, i := range group {
		sum = sum.Add(d.Displacement(positions[i], ref))
	}
	return ref.Add(sum.Scale(1 / float64(len(group)))), nil
}

func formatGroup(g []int) string {
	parts := make([]string, len(g))
	for i, v := range g {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseGroup accepts "[0,1,2]" or "0,1,2".
func parseGroup(field string) ([]int, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(field, "["), "]")
	if body == "" {
		return nil, fmt.Errorf("empty group %q", field)
	}
	parts := strings.Split(body, ",")
	group := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("group %q: %v", field, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("group %q: negative index %d", field, v)
		}
		group = append(group, v)
	}
	return group, nil
}
