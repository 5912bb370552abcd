package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/mdbridge/internal/config"
)

var (
	dataDir      string
	configFile   string
	preset       string
	settingsFile string
	longRange    bool
	steps        int
	postSteps    int
	stride       int
	seed         int64
	kT           float64
	dt           float64
	live         bool
	replicas     int
	logJSON      bool
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mdbridge",
		Short: "drive an md integrator from an enhanced-sampling controller",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mdbridge", "data directory")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "sample a lattice system, save the run and continue from its final state",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSystemFlags(runCmd)
	addSamplingFlags(runCmd)
	runCmd.Flags().BoolVar(&live, "live", false, "show live progress")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "sample independent replicas concurrently, one seed each",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addSystemFlags(ensembleCmd)
	addSamplingFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&replicas, "replicas", 4, "number of replicas")

	reconstructCmd := &cobra.Command{
		Use:   "reconstruct [run_id|result.json]",
		Short: "rebuild native state from a saved result and continue integrating",
		Args:  cobra.ExactArgs(1),
		RunE:  reconstructRun,
	}
	addSystemFlags(reconstructCmd)

	settingsCmd := &cobra.Command{
		Use:   "settings [file]",
		Short: "parse and show a sampling settings file",
		Args:  cobra.ExactArgs(1),
		RunE:  showSettings,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot temperature and collective variables of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "json (metadata), snapshots or cvs")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, ensembleCmd, reconstructCmd, settingsCmd, listCmd, plotCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSystemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().BoolVar(&longRange, "long-range", false, "thread a long-range neighbor list")
	cmd.Flags().IntVar(&postSteps, "post-steps", config.DefaultPostSteps, "steps to integrate after reconstruction")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().Float64Var(&kT, "kT", config.DefaultKT, "target temperature")
}

func addSamplingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&settingsFile, "settings", "", "sampling settings file")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "sampling steps")
	cmd.Flags().IntVar(&stride, "stride", config.DefaultStride, "record every n steps")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if logJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("long-range") {
		cfg.LongRange = longRange
	}
	if flags.Changed("post-steps") {
		cfg.Integrator.PostSteps = postSteps
	}
	if flags.Changed("seed") {
		cfg.Integrator.Seed = seed
	}
	if flags.Changed("kT") {
		cfg.Integrator.KT = kT
	}
	if flags.Changed("steps") {
		cfg.Integrator.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Integrator.Dt = dt
	}
	if flags.Changed("stride") {
		cfg.Sampling.Stride = stride
	}
	if flags.Changed("settings") {
		cfg.Sampling.Settings = settingsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
