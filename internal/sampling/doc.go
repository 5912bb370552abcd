// Package sampling is the controller side of the bridge: it drives an
// integrator it does not understand through a [Context] descriptor, records
// [Snapshot] values and collective variables, and returns a [Result].
//
//   - [Context]: init/step closures plus box and timestep
//   - [Runner]: the run loop (init once, step repeatedly, record every stride)
//   - [Method]: per-run bookkeeping ("unbiased", "histogram")
//   - [CV]: collective variables evaluated on snapshots
//   - [Settings]: the line-oriented settings file that selects both
//
// # Usage
//
//	settings, _ := sampling.LoadSettings("sampling.in")
//	method, cvs, _ := settings.Build()
//	result, _ := sampling.NewRunner(method, cvs, 10).Run(ctx, generate, 1000)
package sampling
