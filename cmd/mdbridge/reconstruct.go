package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/mdbridge/internal/bridge"
	"github.com/san-kum/mdbridge/internal/sampling"
	"github.com/san-kum/mdbridge/internal/storage"
)

// loadTarget resolves a run ID or a result file path. meta is nil for a bare
// result file.
func loadTarget(ctx context.Context, target string) (*sampling.Result, *storage.RunMetadata, error) {
	if filepath.Ext(target) == ".json" {
		if _, err := os.Stat(target); err == nil {
			res, err := storage.LoadResult(target)
			return res, nil, err
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(ctx); err != nil {
		return nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(target)
	if err != nil {
		return nil, nil, err
	}
	res, err := st.LoadResult(target)
	if err != nil {
		return nil, nil, err
	}
	return res, meta, nil
}

func reconstructRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, meta, err := loadTarget(ctx, args[0])
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if meta != nil {
		if !flags.Changed("long-range") {
			cfg.LongRange = meta.Mode == bridge.LongRange.String()
		}
		if !flags.Changed("seed") {
			cfg.Integrator.Seed = meta.Seed
		}
		if !flags.Changed("kT") {
			cfg.Integrator.KT = meta.KT
		}
		cfg.Name = meta.Name
	}
	if res.Dt > 0 {
		cfg.Integrator.Dt = res.Dt
	}

	logger := slog.Default().With("run", cfg.Name)
	sys := newSystem(cfg)

	rec, err := sys.reconstruct(res, logger)
	if err != nil {
		if errors.Is(err, bridge.ErrEmptyTrajectory) {
			return fmt.Errorf("%s has no recorded snapshots: %w", args[0], err)
		}
		return err
	}

	final, overflows, err := sys.continueRun(ctx, rec, cfg.Integrator.PostSteps)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if overflows > 0 {
		logger.Warn("neighbor list overflowed during continuation", "steps", overflows)
	}

	title := cfg.Name
	if meta != nil {
		title = fmt.Sprintf("%s [%s]", cfg.Name, meta.ID)
	}
	var ms map[string]float64
	if meta != nil {
		ms = meta.Metrics
	}
	fmt.Println(renderSummary(summary{
		title:     title,
		mode:      sys.mode,
		method:    res.Method,
		snapshots: len(res.Snapshots),
		metrics:   ms,
		cvStats:   sampling.CVStats(res),
		restart:   rec.State,
		final:     final,
		postSteps: cfg.Integrator.PostSteps,
	}))
	return nil
}
