package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mdbridge/internal/md"
)

const (
	DefaultDt        = 0.005
	DefaultSteps     = 1000
	DefaultPostSteps = 100
	DefaultKT        = 1.0
	DefaultSeed      = 42
	DefaultStride    = 10
	DefaultLattice   = 5
	DefaultSpacing   = 1.2
	DefaultMass      = 1.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name       string           `yaml:"name"`
	LongRange  bool             `yaml:"long_range"`
	System     SystemConfig     `yaml:"system"`
	Integrator IntegratorConfig `yaml:"integrator"`
	Potential  PotentialConfig  `yaml:"potential"`
	Neighbors  NeighborConfig   `yaml:"neighbors"`
	Sampling   SamplingConfig   `yaml:"sampling"`
}

// SystemConfig describes a simple cubic crystal of Lattice³ particles.
type SystemConfig struct {
	Lattice int     `yaml:"lattice"`
	Spacing float64 `yaml:"spacing"`
	Mass    float64 `yaml:"mass"`
}

type IntegratorConfig struct {
	Dt        float64 `yaml:"dt"`
	Steps     int     `yaml:"steps"`
	PostSteps int     `yaml:"post_steps"`
	KT        float64 `yaml:"kT"`
	Seed      int64   `yaml:"seed"`
}

type PotentialConfig struct {
	LennardJones md.LennardJones `yaml:"lennard_jones"`
	Yukawa       md.Yukawa       `yaml:"yukawa"`
}

type NeighborConfig struct {
	Short md.NeighborFn `yaml:"short"`
	Long  md.NeighborFn `yaml:"long"`
}

// SamplingConfig points at a sampling settings file. With no file the run
// is unbiased with no collective variables.
type SamplingConfig struct {
	Settings string `yaml:"settings"`
	Stride   int    `yaml:"stride"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		System: SystemConfig{
			Lattice: DefaultLattice,
			Spacing: DefaultSpacing,
			Mass:    DefaultMass,
		},
		Integrator: IntegratorConfig{
			Dt:        DefaultDt,
			Steps:     DefaultSteps,
			PostSteps: DefaultPostSteps,
			KT:        DefaultKT,
			Seed:      DefaultSeed,
		},
		Potential: PotentialConfig{
			LennardJones: md.DefaultLennardJones(),
			Yukawa:       md.Yukawa{A: 0.5, Kappa: 1.0, Cutoff: 2.9},
		},
		Neighbors: NeighborConfig{
			Short: md.NeighborFn{Cutoff: 2.5, Skin: 0.3, Capacity: 64},
			Long:  md.NeighborFn{Cutoff: 2.9, Skin: 0.1, Capacity: 96},
		},
		Sampling: SamplingConfig{Stride: DefaultStride},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Particles() int {
	n := c.System.Lattice
	return n * n * n
}

func (c *Config) BoxLength() float64 {
	return float64(c.System.Lattice) * c.System.Spacing
}

func (c *Config) Box() md.Box {
	return md.CubicBox(c.BoxLength())
}

// NewIntegrator builds the velocity Verlet integrator the config describes.
func (c *Config) NewIntegrator() *md.VelocityVerlet {
	vv := md.NewVelocityVerlet(c.Integrator.Dt, c.Potential.LennardJones, c.Neighbors.Short)
	if c.LongRange {
		vv = vv.WithLongRange(c.Potential.Yukawa, c.Neighbors.Long)
	}
	return vv
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.System.Lattice > 0, "system.lattice must be positive, got %d", c.System.Lattice)
	check(c.System.Spacing > 0, "system.spacing must be positive, got %g", c.System.Spacing)
	check(c.System.Mass > 0, "system.mass must be positive, got %g", c.System.Mass)
	check(c.Integrator.Dt > 0, "integrator.dt must be positive, got %g", c.Integrator.Dt)
	check(c.Integrator.Steps > 0, "integrator.steps must be positive, got %d", c.Integrator.Steps)
	check(c.Integrator.PostSteps >= 0, "integrator.post_steps must be non-negative, got %d", c.Integrator.PostSteps)
	check(c.Integrator.KT >= 0, "integrator.kT must be non-negative, got %g", c.Integrator.KT)
	check(c.Potential.LennardJones.Cutoff > 0, "potential.lennard_jones.cutoff must be positive")
	check(c.Potential.LennardJones.Sigma > 0, "potential.lennard_jones.sigma must be positive")
	check(c.Neighbors.Short.Cutoff >= c.Potential.LennardJones.Cutoff,
		"neighbors.short.cutoff %g below potential cutoff %g", c.Neighbors.Short.Cutoff, c.Potential.LennardJones.Cutoff)
	check(c.Neighbors.Short.Capacity > 0, "neighbors.short.capacity must be positive")
	check(c.Sampling.Stride > 0, "sampling.stride must be positive, got %d", c.Sampling.Stride)

	if c.LongRange {
		check(c.Potential.Yukawa.Cutoff > 0, "potential.yukawa.cutoff must be positive")
		check(c.Neighbors.Long.Cutoff >= c.Potential.Yukawa.Cutoff,
			"neighbors.long.cutoff %g below potential cutoff %g", c.Neighbors.Long.Cutoff, c.Potential.Yukawa.Cutoff)
		check(c.Neighbors.Long.Capacity > 0, "neighbors.long.capacity must be positive")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
