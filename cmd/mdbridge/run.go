package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/mdbridge/internal/bridge"
	"github.com/san-kum/mdbridge/internal/config"
	"github.com/san-kum/mdbridge/internal/md"
	"github.com/san-kum/mdbridge/internal/metrics"
	"github.com/san-kum/mdbridge/internal/sampling"
	"github.com/san-kum/mdbridge/internal/storage"
	"github.com/san-kum/mdbridge/internal/tui"
)

// maxCapacityRetries bounds how often a reconstruction is retried with
// doubled neighbor capacity.
const maxCapacityRetries = 4

// system is a config resolved into an integrator and mode.
type system struct {
	cfg  *config.Config
	vv   *md.VelocityVerlet
	mode bridge.Mode
}

func newSystem(cfg *config.Config) *system {
	return &system{
		cfg:  cfg,
		vv:   cfg.NewIntegrator(),
		mode: bridge.ModeFor(cfg.LongRange),
	}
}

// initial builds the lattice state with its neighbor lists.
func (s *system) initial() (bridge.Config, error) {
	positions, err := md.SimpleCubic(s.cfg.Particles(), s.cfg.System.Spacing)
	if err != nil {
		return bridge.Config{}, err
	}
	box := s.cfg.Box()

	nbrs, err := s.vv.Neighbors.Allocate(positions, box)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("allocate neighbors: %w", err)
	}
	var nbrsLR *md.NeighborList
	if s.mode == bridge.LongRange {
		nbrsLR, err = s.vv.NeighborsLR.Allocate(positions, box)
		if err != nil {
			return bridge.Config{}, fmt.Errorf("allocate long-range neighbors: %w", err)
		}
	}

	state, err := s.vv.Init(s.cfg.Integrator.Seed, md.InitParams{
		Positions:  positions,
		Box:        box,
		Neighbor:   nbrs,
		NeighborLR: nbrsLR,
		KT:         s.cfg.Integrator.KT,
		Mass:       md.UniformMass(len(positions), s.cfg.System.Mass),
	})
	if err != nil {
		return bridge.Config{}, err
	}

	return bridge.Config{
		Mode:        s.mode,
		State:       state,
		Box:         box,
		Dt:          s.cfg.Integrator.Dt,
		Neighbors:   nbrs,
		NeighborsLR: nbrsLR,
		Step:        s.vv.Step,
		StepLR:      s.vv.StepLR,
	}, nil
}

// totalEnergy rebuilds neighbor lists for a snapshot and adds the potential
// energy to its kinetic energy.
func (s *system) totalEnergy(snap sampling.Snapshot) (float64, bool) {
	nbrs, err := s.vv.Neighbors.Allocate(snap.Positions, snap.Box)
	if err != nil {
		return 0, false
	}
	var nbrsLR *md.NeighborList
	if s.vv.LongRange() {
		if nbrsLR, err = s.vv.NeighborsLR.Allocate(snap.Positions, snap.Box); err != nil {
			return 0, false
		}
	}
	pe, err := s.vv.PotentialEnergy(md.State{Positions: snap.Positions}, snap.Box, nbrs, nbrsLR)
	if err != nil {
		return 0, false
	}
	return metrics.SnapshotKineticEnergy(snap) + pe, true
}

// reconstruct rebuilds the final state of res, doubling neighbor capacity
// while the allocation overflows.
func (s *system) reconstruct(res *sampling.Result, logger *slog.Logger) (*bridge.Reconstructed, error) {
	for attempt := 0; ; attempt++ {
		rec, err := bridge.Reconstruct(res, bridge.ReconstructOptions{
			Mode:        s.mode,
			Init:        s.vv.Init,
			Seed:        s.cfg.Integrator.Seed,
			KT:          s.cfg.Integrator.KT,
			Neighbors:   s.vv.Neighbors,
			NeighborsLR: s.vv.NeighborsLR,
			Logger:      logger,
		})
		if err == nil || !bridge.IsCapacity(err) || attempt >= maxCapacityRetries {
			return rec, err
		}

		s.vv.Neighbors.Capacity *= 2
		s.vv.NeighborsLR.Capacity *= 2
		logger.Warn("neighbor capacity exceeded, retrying",
			"error", err, "capacity", s.vv.Neighbors.Capacity, "capacity_lr", s.vv.NeighborsLR.Capacity)
	}
}

// continueRun integrates a reconstructed state for steps more steps and
// returns the final state and the number of steps whose lists overflowed.
func (s *system) continueRun(ctx context.Context, rec *bridge.Reconstructed, steps int) (md.State, int, error) {
	overflows := 0

	switch s.mode {
	case bridge.LongRange:
		c := md.CarryLR{State: rec.State, Neighbors: rec.Neighbors, NeighborsLR: rec.NeighborsLR, Box: rec.Box}
		for i := 0; i < steps; i++ {
			if err := ctx.Err(); err != nil {
				return c.State, overflows, err
			}
			c = s.vv.StepLR(i, c)
			if c.Neighbors.DidOverflow || c.NeighborsLR.DidOverflow {
				overflows++
			}
		}
		return c.State, overflows, nil

	default:
		c := md.Carry{State: rec.State, Neighbors: rec.Neighbors, Box: rec.Box}
		for i := 0; i < steps; i++ {
			if err := ctx.Err(); err != nil {
				return c.State, overflows, err
			}
			c = s.vv.Step(i, c)
			if c.Neighbors.DidOverflow {
				overflows++
			}
		}
		return c.State, overflows, nil
	}
}

// loadSampling reads the settings file; with none the run is unbiased.
func loadSampling(path string, n int) (*sampling.Settings, sampling.Method, []sampling.CV, error) {
	if path == "" {
		settings := &sampling.Settings{Method: "unbiased", MethodArgs: map[string]string{}}
		method, cvs, err := settings.Build()
		return settings, method, cvs, err
	}

	settings, err := sampling.LoadSettings(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("settings %s: %w", path, err)
	}
	if err := settings.Validate(n); err != nil {
		return nil, nil, nil, err
	}
	method, cvs, err := settings.Build()
	if err != nil {
		return nil, nil, nil, err
	}
	return settings, method, cvs, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := slog.Default().With("run", cfg.Name)

	sys := newSystem(cfg)
	bcfg, err := sys.initial()
	if err != nil {
		return err
	}
	gen, err := bridge.NewContextGenerator(bcfg)
	if err != nil {
		return err
	}

	settings, method, cvs, err := loadSampling(cfg.Sampling.Settings, cfg.Particles())
	if err != nil {
		return err
	}

	tracker := metrics.NewTracker(metrics.Standard()...)
	tracker.Add(metrics.NewEnergyDrift(sys.totalEnergy))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runFn := func(ctx context.Context, obs sampling.Observer) (*sampling.Result, error) {
		runner := sampling.NewRunner(method, cvs, cfg.Sampling.Stride)
		runner.AddObserver(tracker)
		if obs != nil {
			runner.AddObserver(obs)
			runner.SetLogger(slog.New(slog.DiscardHandler))
		} else {
			runner.SetLogger(logger)
		}
		return runner.Run(ctx, gen, cfg.Integrator.Steps)
	}

	logger.Info("sampling",
		"mode", sys.mode.String(), "method", method.Name(), "particles", cfg.Particles(),
		"steps", cfg.Integrator.Steps, "dt", cfg.Integrator.Dt)

	start := time.Now()
	var res *sampling.Result
	if live {
		cvNames := make([]string, len(cvs))
		for i, cv := range cvs {
			cvNames[i] = cv.Name()
		}
		res, err = tui.RunLive(ctx, cfg.Name, cfg.Integrator.Steps, cvNames, runFn)
	} else {
		res, err = runFn(ctx, nil)
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) || res == nil || len(res.Snapshots) == 0 {
			return err
		}
		logger.Warn("sampling interrupted, keeping partial trajectory", "snapshots", len(res.Snapshots))
	}
	elapsed := time.Since(start)
	res.MethodArgs = settings.MethodArgs

	st := storage.New(dataDir)
	st.SetLogger(logger)
	if err := st.Init(context.Background()); err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Save(context.Background(), storage.RunMetadata{
		Name:      cfg.Name,
		Mode:      sys.mode.String(),
		Method:    res.Method,
		Timestamp: time.Now(),
		Seed:      cfg.Integrator.Seed,
		Dt:        cfg.Integrator.Dt,
		Steps:     cfg.Integrator.Steps,
		Stride:    cfg.Sampling.Stride,
		Particles: cfg.Particles(),
		KT:        cfg.Integrator.KT,
		CVNames:   res.CVNames,
		Metrics:   tracker.Values(),
	}, res)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	rec, err := sys.reconstruct(res, logger)
	if err != nil {
		return fmt.Errorf("reconstruct: %w", err)
	}
	final, overflows, err := sys.continueRun(ctx, rec, cfg.Integrator.PostSteps)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if overflows > 0 {
		logger.Warn("neighbor list overflowed during continuation", "steps", overflows)
	}

	fmt.Println(renderSummary(summary{
		title:     fmt.Sprintf("%s [%s]", cfg.Name, runID),
		mode:      sys.mode,
		method:    res.Method,
		snapshots: len(res.Snapshots),
		elapsed:   elapsed,
		metrics:   tracker.Values(),
		cvStats:   sampling.CVStats(res),
		restart:   rec.State,
		final:     final,
		postSteps: cfg.Integrator.PostSteps,
	}))
	return nil
}
