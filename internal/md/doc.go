// Package md provides the molecular dynamics primitives the sampling bridge
// threads through an external controller.
//
// The package defines the integrator-side vocabulary:
//
//   - [State]: positions, momenta, forces and masses of a particle system
//   - [Box]: periodic cell matrix whose columns are the lattice vectors
//   - [NeighborList]: pair index valid for one position set and box
//   - [NeighborFn]: allocates and refreshes neighbor lists
//   - [VelocityVerlet]: step and init functions in short-range and long-range form
//
// # Example
//
//	box := md.CubicBox(10)
//	nfn := md.NeighborFn{Cutoff: 2.5, Skin: 0.3, Capacity: 32}
//	nbrs, _ := nfn.Allocate(positions, box)
//	vv := md.NewVelocityVerlet(0.005, md.DefaultLennardJones(), nfn)
//	s, _ := vv.Init(seed, md.InitParams{Positions: positions, Box: box, Neighbor: nbrs, KT: 1, Mass: mass})
//	c := vv.Step(0, md.Carry{State: s, Neighbors: nbrs, Box: box})
//
// # Thread Safety
//
// Values returned by step functions are fresh; none of the types here are
// safe to mutate from several goroutines at once.
package md
