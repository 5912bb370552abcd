package sampling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Replica is everything one independent walker needs. Each replica gets its
// own generator and method, since both carry per-run state.
type Replica struct {
	Generator ContextGenerator
	Method    Method
	CVs       []CV
}

// ReplicaFactory builds replica i seeded with seed.
type ReplicaFactory func(i int, seed int64) (Replica, error)

// Ensemble runs independent replicas concurrently, one goroutine each.
type Ensemble struct {
	factory   ReplicaFactory
	replicas  int
	seedStart int64
	stride    int
	observers []Observer
	logger    *slog.Logger
}

func NewEnsemble(factory ReplicaFactory, replicas int, seedStart int64, stride int) *Ensemble {
	return &Ensemble{
		factory:   factory,
		replicas:  replicas,
		seedStart: seedStart,
		stride:    stride,
		logger:    slog.Default(),
	}
}

func (e *Ensemble) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// AddObserver registers an observer on every replica. It must be safe for
// concurrent use.
func (e *Ensemble) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Run drives every replica for steps steps. Results are indexed by replica;
// replica i uses seed seedStart+i. All failures are joined.
func (e *Ensemble) Run(ctx context.Context, steps int) ([]*Result, error) {
	if e.factory == nil {
		return nil, fmt.Errorf("%w: replica factory is required", ErrInvalidRun)
	}
	if e.replicas <= 0 {
		return nil, fmt.Errorf("%w: replicas must be positive, got %d", ErrInvalidRun, e.replicas)
	}

	results := make([]*Result, e.replicas)
	errs := make([]error, e.replicas)

	var wg sync.WaitGroup
	for i := 0; i < e.replicas; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := e.seedStart + int64(idx)
			rep, err := e.factory(idx, seed)
			if err != nil {
				errs[idx] = fmt.Errorf("replica %d: %w", idx, err)
				return
			}

			runner := NewRunner(rep.Method, rep.CVs, e.stride)
			runner.SetLogger(e.logger.With("replica", idx, "seed", seed))
			for _, o := range e.observers {
				runner.AddObserver(o)
			}

			results[idx], err = runner.Run(ctx, rep.Generator, steps)
			if err != nil {
				errs[idx] = fmt.Errorf("replica %d: %w", idx, err)
			}
		}(i)
	}

	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return results, err
	}
	return results, nil
}
