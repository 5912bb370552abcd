package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/mdbridge/internal/md"
	"github.com/san-kum/mdbridge/internal/sampling"
)

func testResult(id string) *sampling.Result {
	return &sampling.Result{
		ID:     id,
		Method: "histogram",
		MethodArgs: map[string]string{
			"lower": "0",
			"upper": "5",
		},
		Steps:  4,
		Stride: 2,
		Dt:     0.005,
		Snapshots: []sampling.Snapshot{
			{
				Step:      2,
				Positions: []md.Vec3{{1, 1, 1}, {2, 1, 1}},
				Box:       md.CubicBox(10),
				VelMass: sampling.VelMass{
					Momentum: []md.Vec3{{0.5, 0, 0}, {-0.5, 0, 0}},
					Mass:     []float64{1, 2},
				},
			},
			{
				Step:      4,
				Positions: []md.Vec3{{1.1, 1, 1}, {1.9, 1, 1}},
				Box:       md.CubicBox(10),
				VelMass: sampling.VelMass{
					Momentum: []md.Vec3{{0.4, 0, 0}, {-0.4, 0, 0}},
					Mass:     []float64{1, 2},
				},
			},
		},
		CVNames: []string{"distance([0];[1])"},
		CVs:     [][]float64{{1}, {0.8}},
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st, dir
}

func TestSaveLoadResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	res := testResult("abc")

	if err := SaveResult(path, res); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadResult(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.ID != "abc" || loaded.Method != "histogram" {
		t.Errorf("unexpected header %+v", loaded)
	}
	if len(loaded.Snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(loaded.Snapshots))
	}
	final, _ := loaded.Final()
	if final.Box != md.CubicBox(10) {
		t.Errorf("box lost in round trip: %v", final.Box)
	}
	if final.VelMass.Mass[1] != 2 || final.VelMass.Momentum[1][0] != -0.4 {
		t.Errorf("vel_mass lost in round trip: %+v", final.VelMass)
	}
	if loaded.MethodArgs["upper"] != "5" {
		t.Errorf("method args lost: %v", loaded.MethodArgs)
	}
}

func TestLoadResult_Missing(t *testing.T) {
	if _, err := LoadResult(filepath.Join(t.TempDir(), "nope.json")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st, dir := newTestStore(t)

	meta := RunMetadata{
		Name:      "lj_small",
		Mode:      "short-range",
		Seed:      42,
		Dt:        0.005,
		Steps:     4,
		Stride:    2,
		Particles: 2,
		KT:        1,
		Metrics:   map[string]float64{"temperature": 0.8},
	}

	runID, err := st.Save(context.Background(), meta, testResult("run-1"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID != "run-1" {
		t.Errorf("expected run id from result, got %q", runID)
	}

	for _, name := range []string{metadataFile, resultFile, snapshotsFile, cvsFile} {
		if _, err := os.Stat(filepath.Join(dir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Name != "lj_small" || loaded.Seed != 42 {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if loaded.Method != "histogram" {
		t.Errorf("method not filled from result, got %q", loaded.Method)
	}
	if loaded.Metrics["temperature"] != 0.8 {
		t.Errorf("expected temperature 0.8, got %f", loaded.Metrics["temperature"])
	}

	rows, err := st.LoadSnapshots(runID)
	if err != nil {
		t.Fatalf("load snapshots failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 snapshot rows, got %d", len(rows))
	}
	last := rows[3]
	if last.Step != 4 || last.Particle != 1 || last.X != 1.9 || last.Mass != 2 {
		t.Errorf("unexpected last row %+v", last)
	}

	cvs, err := st.LoadCVs(runID)
	if err != nil {
		t.Fatalf("load cvs failed: %v", err)
	}
	if len(cvs) != 2 || cvs[1].Step != 4 || cvs[1].Value != 0.8 {
		t.Errorf("unexpected cv rows %+v", cvs)
	}

	res, err := st.LoadResult(runID)
	if err != nil {
		t.Fatalf("load result failed: %v", err)
	}
	if len(res.Snapshots) != 2 {
		t.Errorf("expected 2 snapshots, got %d", len(res.Snapshots))
	}
}

func TestStoreList(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	runs, err := st.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	older := RunMetadata{Name: "first", Timestamp: time.Unix(100, 0)}
	newer := RunMetadata{Name: "second", Timestamp: time.Unix(200, 0)}
	if _, err := st.Save(ctx, older, testResult("a")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := st.Save(ctx, newer, testResult("b")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "b" || runs[1].ID != "a" {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}

	// saving the same run again replaces its catalog entry
	if _, err := st.Save(ctx, newer, testResult("b")); err != nil {
		t.Fatalf("resave failed: %v", err)
	}
	runs, _ = st.List(ctx)
	if len(runs) != 2 {
		t.Errorf("expected 2 runs after resave, got %d", len(runs))
	}
}

func TestStoreNotInitialized(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.List(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := st.Save(context.Background(), RunMetadata{}, testResult("x")); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestStoreLoad_Missing(t *testing.T) {
	st, _ := newTestStore(t)
	if _, err := st.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadResult("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}
