package sampling

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type lockedObserver struct {
	mu    sync.Mutex
	count int
}

func (l *lockedObserver) OnSnapshot(Snapshot, []float64) {
	l.mu.Lock()
	l.count++
	l.mu.Unlock()
}

func TestEnsembleRun(t *testing.T) {
	var mu sync.Mutex
	seeds := map[int]int64{}

	factory := func(i int, seed int64) (Replica, error) {
		mu.Lock()
		seeds[i] = seed
		mu.Unlock()

		calls := 0
		cv, err := NewDistance([]int{0}, []int{1})
		if err != nil {
			return Replica{}, err
		}
		return Replica{Generator: driftGenerator(&calls), Method: &Unbiased{}, CVs: []CV{cv}}, nil
	}

	obs := &lockedObserver{}
	ens := NewEnsemble(factory, 4, 100, 5)
	ens.AddObserver(obs)

	results, err := ens.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, res := range results {
		if res == nil || len(res.Snapshots) != 2 {
			t.Errorf("replica %d: unexpected result %+v", i, res)
		}
		if seeds[i] != 100+int64(i) {
			t.Errorf("replica %d seeded with %d", i, seeds[i])
		}
	}
	if results[0].ID == results[1].ID {
		t.Error("replicas should have distinct result IDs")
	}
	if obs.count != 8 {
		t.Errorf("expected 8 observed snapshots, got %d", obs.count)
	}
}

func TestEnsembleFactoryError(t *testing.T) {
	boom := errors.New("boom")
	factory := func(i int, seed int64) (Replica, error) {
		if i == 1 {
			return Replica{}, boom
		}
		calls := 0
		return Replica{Generator: driftGenerator(&calls), Method: &Unbiased{}}, nil
	}

	results, err := NewEnsemble(factory, 3, 0, 1).Run(context.Background(), 3)
	if !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
	if results[0] == nil || results[2] == nil {
		t.Error("healthy replicas should still report results")
	}
	if results[1] != nil {
		t.Error("failed replica should have no result")
	}
}

func TestEnsembleInvalid(t *testing.T) {
	if _, err := NewEnsemble(nil, 2, 0, 1).Run(context.Background(), 1); !errors.Is(err, ErrInvalidRun) {
		t.Errorf("expected ErrInvalidRun for nil factory, got %v", err)
	}

	factory := func(int, int64) (Replica, error) { return Replica{}, nil }
	if _, err := NewEnsemble(factory, 0, 0, 1).Run(context.Background(), 1); !errors.Is(err, ErrInvalidRun) {
		t.Errorf("expected ErrInvalidRun for zero replicas, got %v", err)
	}
}
