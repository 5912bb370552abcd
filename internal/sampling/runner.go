package sampling

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Observer is notified of every recorded snapshot.
type Observer interface {
	OnSnapshot(s Snapshot, cvs []float64)
}

// Runner owns the controller loop. It calls Init once and Step in strict
// order, so a single Runner.Run must not share its generator with another.
type Runner struct {
	method    Method
	cvs       []CV
	stride    int
	observers []Observer
	logger    *slog.Logger
}

func NewRunner(method Method, cvs []CV, stride int) *Runner {
	return &Runner{
		method:    method,
		cvs:       cvs,
		stride:    stride,
		observers: make([]Observer, 0),
		logger:    slog.Default(),
	}
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) SetLogger(l *slog.Logger) {
	if l != nil {
		r.logger = l
	}
}

func (r *Runner) validate(steps int) error {
	if r.method == nil {
		return fmt.Errorf("%w: method is required", ErrInvalidRun)
	}
	if steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidRun, steps)
	}
	if r.stride <= 0 {
		return fmt.Errorf("%w: stride must be positive, got %d", ErrInvalidRun, r.stride)
	}
	return nil
}

// Run drives the context for steps steps, recording a snapshot every stride
// steps and always after the last one.
func (r *Runner) Run(ctx context.Context, gen ContextGenerator, steps int) (*Result, error) {
	if err := r.validate(steps); err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, fmt.Errorf("%w: nil generator", ErrIncompleteContext)
	}

	desc := gen()
	if desc.Init == nil || desc.Step == nil {
		return nil, ErrIncompleteContext
	}
	if desc.Dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrIncompleteContext, desc.Dt)
	}

	result := &Result{
		ID:        uuid.NewString(),
		Method:    r.method.Name(),
		Steps:     steps,
		Stride:    r.stride,
		Dt:        desc.Dt,
		Snapshots: make([]Snapshot, 0, steps/r.stride+1),
	}
	for _, cv := range r.cvs {
		result.CVNames = append(result.CVNames, cv.Name())
	}

	r.method.Reset()
	r.logger.Debug("sampling run starting",
		"id", result.ID, "method", result.Method, "steps", steps, "stride", r.stride, "cvs", len(r.cvs))

	state := desc.Init()

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		next, err := desc.Step(state)
		if err != nil {
			return nil, &StepError{Step: i, Wrapped: err}
		}
		state = next

		if i%r.stride == 0 || i == steps {
			if err := r.record(result, state, i); err != nil {
				return nil, err
			}
		}
	}

	if err := r.method.Finalize(result); err != nil {
		return nil, err
	}

	r.logger.Info("sampling run finished",
		"id", result.ID, "method", result.Method, "snapshots", len(result.Snapshots))
	return result, nil
}

func (r *Runner) record(result *Result, state ContextState, step int) error {
	snap := state.Snapshot()
	snap.Step = step

	values := make([]float64, len(r.cvs))
	for k, cv := range r.cvs {
		v, err := cv.Eval(snap)
		if err != nil {
			return fmt.Errorf("step %d: cv %s: %w", step, cv.Name(), err)
		}
		values[k] = v
	}

	r.method.Observe(snap, values)
	for _, obs := range r.observers {
		obs.OnSnapshot(snap, values)
	}

	result.Snapshots = append(result.Snapshots, snap)
	if len(r.cvs) > 0 {
		result.CVs = append(result.CVs, values)
	}
	return nil
}
