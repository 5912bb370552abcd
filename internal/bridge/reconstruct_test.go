package bridge_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mdbridge/internal/bridge"
	"github.com/san-kum/mdbridge/internal/md"
	"github.com/san-kum/mdbridge/internal/sampling"
)

func singleSnapshot(positions []md.Vec3, box md.Box, momentum []md.Vec3, mass []float64) *sampling.Result {
	return &sampling.Result{
		Method: "unbiased",
		Steps:  1,
		Stride: 1,
		Dt:     0.005,
		Snapshots: []sampling.Snapshot{{
			Step:      1,
			Positions: positions,
			Box:       box,
			VelMass:   sampling.VelMass{Momentum: momentum, Mass: mass},
		}},
	}
}

var _ = Describe("Reconstruct", func() {
	var (
		box  md.Box
		vv   *md.VelocityVerlet
		opts bridge.ReconstructOptions
	)

	BeforeEach(func() {
		box = md.CubicBox(10)
		vv = md.NewVelocityVerlet(0.005, md.DefaultLennardJones(), testNeighbors)
		opts = bridge.ReconstructOptions{
			Mode:      bridge.ShortRange,
			Init:      vv.Init,
			Seed:      42,
			KT:        1,
			Neighbors: testNeighbors,
		}
	})

	It("rebuilds a resting three-particle system", func() {
		zero := []md.Vec3{{}, {}, {}}
		res := singleSnapshot(triangle(), box, zero, []float64{1, 1, 1})

		out, err := bridge.Reconstruct(res, opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(out.State.Velocities()).To(Equal(zero))
		Expect(out.State.Mass).To(Equal([]float64{1, 1, 1}))
		Expect(out.Box).To(Equal(md.CubicBox(10)))
		Expect(out.NeighborsLR).To(BeNil())

		Expect(out.Neighbors.DidOverflow).To(BeFalse())
		Expect(out.Neighbors.Pairs()).To(Equal(3))
		Expect(out.Neighbors.Idx[0]).To(ConsistOf(1, 2))
	})

	It("recovers mass and velocity from vel_mass", func() {
		velocity := []md.Vec3{{0.5, -1, 0.25}, {0, 2, -0.5}, {1, 1, 1}}
		mass := []float64{2, 0.5, 4}
		momentum := make([]md.Vec3, len(velocity))
		for i := range velocity {
			momentum[i] = velocity[i].Scale(mass[i])
		}

		var got md.InitParams
		opts.Init = func(seed int64, p md.InitParams) (md.State, error) {
			got = p
			return vv.Init(seed, p)
		}

		out, err := bridge.Reconstruct(singleSnapshot(triangle(), box, momentum, mass), opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(got.Mass).To(Equal(mass))
		for i := range velocity {
			for k := 0; k < 3; k++ {
				Expect(got.Velocities[i][k]).To(Equal(momentum[i][k] / mass[i]))
			}
		}
		Expect(got.KT).To(Equal(1.0))
		Expect(got.Neighbor).To(BeIdenticalTo(out.Neighbors))
		Expect(got.NeighborLR).To(BeNil())
		Expect(out.State.Momenta).To(Equal(momentum))
	})

	It("is deterministic", func() {
		momentum := []md.Vec3{{0.1, 0, 0}, {0, 0.1, 0}, {0, 0, -0.2}}
		res := singleSnapshot(triangle(), box, momentum, []float64{1, 1, 1})

		first, err := bridge.Reconstruct(res, opts)
		Expect(err).NotTo(HaveOccurred())
		second, err := bridge.Reconstruct(res, opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(Equal(first))
	})

	It("shares no memory with the result", func() {
		res := singleSnapshot(triangle(), box, []md.Vec3{{}, {}, {}}, []float64{1, 1, 1})
		out, err := bridge.Reconstruct(res, opts)
		Expect(err).NotTo(HaveOccurred())

		res.Snapshots[0].Positions[0] = md.Vec3{5, 5, 5}
		res.Snapshots[0].VelMass.Mass[0] = 7
		Expect(out.State.Positions[0]).To(Equal(md.Vec3{1, 1, 1}))
		Expect(out.State.Mass[0]).To(Equal(1.0))
		Expect(out.Neighbors.Reference[0]).To(Equal(md.Vec3{1, 1, 1}))
	})

	It("uses the last snapshot", func() {
		res := singleSnapshot(triangle(), box, []md.Vec3{{}, {}, {}}, []float64{1, 1, 1})
		later := res.Snapshots[0].Clone()
		later.Step = 2
		later.Positions[0] = md.Vec3{1.5, 1, 1}
		later.Box = md.CubicBox(12)
		res.Snapshots = append(res.Snapshots, later)

		out, err := bridge.Reconstruct(res, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.State.Positions[0]).To(Equal(md.Vec3{1.5, 1, 1}))
		Expect(out.Box).To(Equal(md.CubicBox(12)))
	})

	It("surfaces neighbor overflow as a capacity error", func() {
		opts.Neighbors = md.NeighborFn{Cutoff: 2.5, Skin: 0.3, Capacity: 1}
		res := singleSnapshot(triangle(), box, []md.Vec3{{}, {}, {}}, []float64{1, 1, 1})

		out, err := bridge.Reconstruct(res, opts)
		Expect(out).To(BeNil())
		Expect(err).To(MatchError(md.ErrNeighborOverflow))
		Expect(bridge.IsCapacity(err)).To(BeTrue())
		Expect(bridge.IsContractViolation(err)).To(BeFalse())

		var ce *md.CapacityError
		Expect(errors.As(err, &ce)).To(BeTrue())
		Expect(ce.Capacity).To(Equal(1))
		Expect(ce.Count).To(Equal(2))
	})

	It("rejects an empty trajectory", func() {
		_, err := bridge.Reconstruct(&sampling.Result{}, opts)
		Expect(err).To(MatchError(bridge.ErrEmptyTrajectory))
		Expect(bridge.IsContractViolation(err)).To(BeTrue())

		_, err = bridge.Reconstruct(nil, opts)
		Expect(err).To(MatchError(bridge.ErrEmptyTrajectory))
	})

	It("rejects a zero mass", func() {
		res := singleSnapshot(triangle(), box, []md.Vec3{{}, {}, {}}, []float64{1, 0, 1})
		_, err := bridge.Reconstruct(res, opts)
		Expect(err).To(MatchError(bridge.ErrZeroMass))
		Expect(bridge.IsContractViolation(err)).To(BeTrue())

		var me *bridge.MassError
		Expect(errors.As(err, &me)).To(BeTrue())
		Expect(me.Particle).To(Equal(1))
	})

	It("rejects mismatched vel_mass lengths", func() {
		res := singleSnapshot(triangle(), box, []md.Vec3{{}, {}}, []float64{1, 1, 1})
		_, err := bridge.Reconstruct(res, opts)
		Expect(err).To(MatchError(bridge.ErrContractViolation))
	})

	It("validates its options", func() {
		res := singleSnapshot(triangle(), box, []md.Vec3{{}, {}, {}}, []float64{1, 1, 1})

		noInit := opts
		noInit.Init = nil
		_, err := bridge.Reconstruct(res, noInit)
		Expect(err).To(MatchError(bridge.ErrInvalidConfig))

		lr := opts
		lr.Mode = bridge.LongRange
		_, err = bridge.Reconstruct(res, lr)
		Expect(err).To(MatchError(bridge.ErrInvalidConfig))
	})

	Context("in long-range mode", func() {
		var lrNeighbors md.NeighborFn

		BeforeEach(func() {
			lrNeighbors = md.NeighborFn{Cutoff: 4, Skin: 0.5, Capacity: 8}
			vv = vv.WithLongRange(md.Yukawa{A: 0.5, Kappa: 1, Cutoff: 4}, lrNeighbors)
			opts.Mode = bridge.LongRange
			opts.Init = vv.Init
			opts.NeighborsLR = lrNeighbors
		})

		It("allocates and passes the long-range list", func() {
			res := singleSnapshot(triangle(), box, []md.Vec3{{}, {}, {}}, []float64{1, 1, 1})
			out, err := bridge.Reconstruct(res, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.NeighborsLR).NotTo(BeNil())
			Expect(out.NeighborsLR.Cutoff).To(Equal(4.5))
		})

		It("surfaces long-range overflow", func() {
			opts.NeighborsLR = md.NeighborFn{Cutoff: 4, Skin: 0.5, Capacity: 1}
			res := singleSnapshot(triangle(), box, []md.Vec3{{}, {}, {}}, []float64{1, 1, 1})
			_, err := bridge.Reconstruct(res, opts)
			Expect(bridge.IsCapacity(err)).To(BeTrue())
		})
	})

	It("continues a sampled run from the reconstructed state", func() {
		positions, err := md.SimpleCubic(3, 1.2)
		Expect(err).NotTo(HaveOccurred())
		cell := md.CubicBox(3.6)
		nbrs := mustAllocate(testNeighbors, positions, cell)

		state, err := vv.Init(7, md.InitParams{
			Positions: positions,
			Box:       cell,
			Neighbor:  nbrs,
			KT:        0.5,
			Mass:      md.UniformMass(len(positions), 1),
		})
		Expect(err).NotTo(HaveOccurred())

		gen, err := bridge.NewContextGenerator(bridge.Config{
			Mode:      bridge.ShortRange,
			State:     state,
			Box:       cell,
			Dt:        vv.Dt,
			Neighbors: nbrs,
			Step:      vv.Step,
		})
		Expect(err).NotTo(HaveOccurred())

		result, err := sampling.NewRunner(&sampling.Unbiased{}, nil, 5).Run(context.Background(), gen, 20)
		Expect(err).NotTo(HaveOccurred())

		out, err := bridge.Reconstruct(result, opts)
		Expect(err).NotTo(HaveOccurred())

		final, _ := result.Final()
		Expect(out.State.Positions).To(Equal(final.Positions))
		for i, p := range out.State.Momenta {
			for k := 0; k < 3; k++ {
				Expect(p[k]).To(BeNumerically("~", final.VelMass.Momentum[i][k], 1e-12))
			}
		}

		next := vv.Step(bridge.StepIndexPlaceholder, md.Carry{State: out.State, Neighbors: out.Neighbors, Box: out.Box})
		Expect(next.State.N()).To(Equal(len(positions)))
	})
})
