package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/mdbridge/internal/bridge"
	"github.com/san-kum/mdbridge/internal/config"
	"github.com/san-kum/mdbridge/internal/metrics"
	"github.com/san-kum/mdbridge/internal/sampling"
	"github.com/san-kum/mdbridge/internal/storage"
)

// replicaFactory builds one bridge per replica from a copy of cfg with the
// replica's seed. Methods and CVs come from settings, built fresh each time.
func replicaFactory(cfg *config.Config, settings *sampling.Settings) sampling.ReplicaFactory {
	return func(i int, seed int64) (sampling.Replica, error) {
		c := *cfg
		c.Integrator.Seed = seed

		bcfg, err := newSystem(&c).initial()
		if err != nil {
			return sampling.Replica{}, err
		}
		gen, err := bridge.NewContextGenerator(bcfg)
		if err != nil {
			return sampling.Replica{}, err
		}
		method, cvs, err := settings.Build()
		if err != nil {
			return sampling.Replica{}, err
		}
		return sampling.Replica{Generator: gen, Method: method, CVs: cvs}, nil
	}
}

// replayMetrics computes the standard metrics over a finished result.
func replayMetrics(res *sampling.Result) map[string]float64 {
	tracker := metrics.NewTracker(metrics.Standard()...)
	for _, snap := range res.Snapshots {
		tracker.OnSnapshot(snap, nil)
	}
	return tracker.Values()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if replicas <= 0 {
		return fmt.Errorf("replicas must be positive, got %d", replicas)
	}
	logger := slog.Default().With("run", cfg.Name)

	settings, _, _, err := loadSampling(cfg.Sampling.Settings, cfg.Particles())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ens := sampling.NewEnsemble(replicaFactory(cfg, settings), replicas, cfg.Integrator.Seed, cfg.Sampling.Stride)
	ens.SetLogger(logger)

	logger.Info("sampling ensemble",
		"replicas", replicas, "mode", bridge.ModeFor(cfg.LongRange).String(), "method", settings.Method,
		"steps", cfg.Integrator.Steps)

	results, err := ens.Run(ctx, cfg.Integrator.Steps)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	st.SetLogger(logger)
	if err := st.Init(context.Background()); err != nil {
		return err
	}
	defer st.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REPLICA\tSEED\tID\tSNAPSHOTS\tT")

	for i, res := range results {
		res.MethodArgs = settings.MethodArgs
		replicaSeed := cfg.Integrator.Seed + int64(i)
		ms := replayMetrics(res)

		runID, err := st.Save(context.Background(), storage.RunMetadata{
			Name:      fmt.Sprintf("%s-r%d", cfg.Name, i),
			Mode:      bridge.ModeFor(cfg.LongRange).String(),
			Method:    res.Method,
			Timestamp: time.Now(),
			Seed:      replicaSeed,
			Dt:        cfg.Integrator.Dt,
			Steps:     cfg.Integrator.Steps,
			Stride:    cfg.Sampling.Stride,
			Particles: cfg.Particles(),
			KT:        cfg.Integrator.KT,
			CVNames:   res.CVNames,
			Metrics:   ms,
		}, res)
		if err != nil {
			return fmt.Errorf("save replica %d: %w", i, err)
		}

		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%.4f\n", i, replicaSeed, runID, len(res.Snapshots), ms["temperature"])
	}

	return w.Flush()
}
