// Package bridge connects the md integrator to the sampling controller.
//
// The controller drives a simulation through an opaque ContextState it never
// looks inside. This package builds that state from an md.State, the neighbor
// list(s) and the box, steps it with an integrator StepFn, and turns the
// controller's final snapshot back into a native state once the run is over.
//
// # Modes
//
// A bridge is built in one of two modes, fixed at construction:
//
//   - ShortRange threads one neighbor list. Contexts are *ShortRangeContext.
//   - LongRange threads a second list for the long-range term. Contexts are
//     *LongRangeContext.
//
// Each mode has its own strategy type, so the hot step path carries no mode
// branch and a short-range bridge cannot touch long-range data.
//
// # Example
//
//	gen, err := bridge.NewContextGenerator(bridge.Config{
//		Mode:      bridge.ShortRange,
//		State:     state,
//		Box:       box,
//		Dt:        0.005,
//		Neighbors: nbrs,
//		Step:      vv.Step,
//	})
//	if err != nil {
//		return err
//	}
//	result, err := runner.Run(ctx, gen, 1000)
//	...
//	out, err := bridge.Reconstruct(result, bridge.ReconstructOptions{
//		Mode:      bridge.ShortRange,
//		Init:      vv.Init,
//		Seed:      42,
//		KT:        1.0,
//		Neighbors: nfn,
//	})
//
// # Errors
//
// ErrContractViolation covers caller bugs: malformed contexts, empty
// trajectories, non-positive masses. Neighbor overflow is a capacity error
// (IsCapacity) that a caller may recover from by reallocating larger.
//
// # Thread Safety
//
// A Strategy is single owner. Step N's output is step N+1's input, so calls
// must not be interleaved across goroutines.
package bridge
