package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mdbridge/internal/config"
	"github.com/san-kum/mdbridge/internal/metrics"
	"github.com/san-kum/mdbridge/internal/sampling"
	"github.com/san-kum/mdbridge/internal/storage"
)

var exportFormat string

func showSettings(cmd *cobra.Command, args []string) error {
	settings, err := sampling.LoadSettings(args[0])
	if err != nil {
		var se *sampling.SettingsError
		if errors.As(err, &se) {
			return fmt.Errorf("%s:%d: %w", args[0], se.Line, se.Err)
		}
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "method\t%s\n", settings.Method)

	keys := make([]string, 0, len(settings.MethodArgs))
	for k := range settings.MethodArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s\t%s\n", k, settings.MethodArgs[k])
	}

	for i, cv := range settings.CVs {
		fmt.Fprintf(w, "cv %d\t%s %v %v\n", i, cv.Type, cv.Group1, cv.Group2)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if _, _, err := settings.Build(); err != nil {
		return fmt.Errorf("settings parse but do not build: %w", err)
	}
	return nil
}

func openStore(ctx context.Context) (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tMODE\tMETHOD\tN\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Mode,
			run.Method,
			run.Particles,
			run.Steps,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	res, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	if len(res.Snapshots) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mode: %s\n", meta.Mode)
	fmt.Printf("method: %s\n", meta.Method)
	fmt.Printf("snapshots: %d\n\n", len(res.Snapshots))

	temps := make([]float64, len(res.Snapshots))
	for i, snap := range res.Snapshots {
		temps[i] = metrics.SnapshotTemperature(snap)
	}
	printGraph(temps, "temperature")

	for i, name := range res.CVNames {
		if series := res.CVSeries(i); len(series) > 0 {
			printGraph(series, name)
		}
	}

	for _, h := range res.Histograms {
		if len(h.Counts) == 0 {
			continue
		}
		caption := fmt.Sprintf("histogram %s [%.3f, %.3f] (%d outside)",
			h.CV, h.Dividers[0], h.Dividers[len(h.Dividers)-1], h.Outside)
		printGraph(h.Counts, caption)
	}

	return nil
}

func printGraph(data []float64, caption string) {
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	fmt.Println()
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	switch strings.ToLower(exportFormat) {
	case "json":
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)

	case "snapshots":
		rows, err := st.LoadSnapshots(runID)
		if err != nil {
			return err
		}
		return gocsv.Marshal(rows, os.Stdout)

	case "cvs":
		rows, err := st.LoadCVs(runID)
		if err != nil {
			return err
		}
		return gocsv.Marshal(rows, os.Stdout)
	}
	return fmt.Errorf("unknown export format %q (json, snapshots, cvs)", exportFormat)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tN\tLONG-RANGE\tDT\tSTEPS\tKT")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%t\t%g\t%d\t%g\n",
			name, p.Particles(), p.LongRange, p.Integrator.Dt, p.Integrator.Steps, p.Integrator.KT)
	}
	return w.Flush()
}
