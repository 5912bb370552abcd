package config

import (
	"sort"

	"github.com/san-kum/mdbridge/internal/md"
)

var Presets = map[string]*Config{
	"lj_small": {
		Name:       "lj_small",
		System:     SystemConfig{Lattice: 5, Spacing: 1.2, Mass: 1},
		Integrator: IntegratorConfig{Dt: 0.005, Steps: 1000, PostSteps: 100, KT: 1.0, Seed: 42},
		Potential:  PotentialConfig{LennardJones: md.DefaultLennardJones()},
		Neighbors:  NeighborConfig{Short: md.NeighborFn{Cutoff: 2.5, Skin: 0.3, Capacity: 64}},
		Sampling:   SamplingConfig{Stride: 10},
	},
	"lj_cold": {
		Name:       "lj_cold",
		System:     SystemConfig{Lattice: 5, Spacing: 1.2, Mass: 1},
		Integrator: IntegratorConfig{Dt: 0.005, Steps: 2000, PostSteps: 200, KT: 0.2, Seed: 7},
		Potential:  PotentialConfig{LennardJones: md.DefaultLennardJones()},
		Neighbors:  NeighborConfig{Short: md.NeighborFn{Cutoff: 2.5, Skin: 0.3, Capacity: 64}},
		Sampling:   SamplingConfig{Stride: 20},
	},
	"lj_long_range": {
		Name:       "lj_long_range",
		LongRange:  true,
		System:     SystemConfig{Lattice: 5, Spacing: 1.2, Mass: 1},
		Integrator: IntegratorConfig{Dt: 0.004, Steps: 1000, PostSteps: 100, KT: 1.0, Seed: 42},
		Potential: PotentialConfig{
			LennardJones: md.DefaultLennardJones(),
			Yukawa:       md.Yukawa{A: 0.5, Kappa: 1.0, Cutoff: 2.9},
		},
		Neighbors: NeighborConfig{
			Short: md.NeighborFn{Cutoff: 2.5, Skin: 0.3, Capacity: 64},
			Long:  md.NeighborFn{Cutoff: 2.9, Skin: 0.1, Capacity: 96},
		},
		Sampling: SamplingConfig{Stride: 10},
	},
	"dense": {
		Name:       "dense",
		System:     SystemConfig{Lattice: 5, Spacing: 1.1, Mass: 1},
		Integrator: IntegratorConfig{Dt: 0.002, Steps: 2500, PostSteps: 250, KT: 1.5, Seed: 42},
		Potential:  PotentialConfig{LennardJones: md.DefaultLennardJones()},
		Neighbors:  NeighborConfig{Short: md.NeighborFn{Cutoff: 2.5, Skin: 0.2, Capacity: 96}},
		Sampling:   SamplingConfig{Stride: 25},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
