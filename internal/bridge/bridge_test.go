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

var _ = Describe("Strategy", func() {
	var (
		box    md.Box
		state  md.State
		nbrs   *md.NeighborList
		nbrsLR *md.NeighborList
	)

	BeforeEach(func() {
		box = md.CubicBox(10)
		state = fixtureState()
		nbrs = mustAllocate(testNeighbors, state.Positions, box)
		nbrsLR = mustAllocate(md.NeighborFn{Cutoff: 4, Skin: 0.5, Capacity: 8}, state.Positions, box)
	})

	identity := func(_ int, c md.Carry) md.Carry { return c }
	identityLR := func(_ int, c md.CarryLR) md.CarryLR { return c }

	Describe("ShortRange", func() {
		var cfg bridge.Config

		BeforeEach(func() {
			cfg = bridge.Config{
				Mode:      bridge.ShortRange,
				State:     state,
				Box:       box,
				Dt:        0.005,
				Neighbors: nbrs,
				Step:      identity,
			}
		})

		It("round trips state, neighbors and box through an identity step", func() {
			s, err := bridge.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Mode()).To(Equal(bridge.ShortRange))

			out, err := s.Step(s.Init())
			Expect(err).NotTo(HaveOccurred())

			ctx, ok := out.(*bridge.ShortRangeContext)
			Expect(ok).To(BeTrue())
			Expect(ctx.State).To(Equal(state))
			Expect(ctx.Neighbors).To(Equal(nbrs))
			Expect(*ctx.Box).To(Equal(box))
		})

		It("returns a fresh envelope from every step", func() {
			s, _ := bridge.New(cfg)
			in := s.Init()
			out, err := s.Step(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).NotTo(BeIdenticalTo(in))
			Expect(out.(*bridge.ShortRangeContext).Box).NotTo(BeIdenticalTo(in.(*bridge.ShortRangeContext).Box))
		})

		It("passes the placeholder step index", func() {
			seen := -1
			cfg.Step = func(i int, c md.Carry) md.Carry {
				seen = i
				return c
			}
			s, _ := bridge.New(cfg)
			_, err := s.Step(s.Init())
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal(bridge.StepIndexPlaceholder))
		})

		It("ignores a long-range list in the config", func() {
			cfg.NeighborsLR = nbrsLR
			cfg.StepLR = func(int, md.CarryLR) md.CarryLR {
				Fail("long-range step called by a short-range bridge")
				return md.CarryLR{}
			}
			s, err := bridge.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			init := s.Init()
			Expect(init).To(BeAssignableToTypeOf(&bridge.ShortRangeContext{}))

			_, err = s.Step(init)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a long-range context", func() {
			s, _ := bridge.New(cfg)
			_, err := s.Step(&bridge.LongRangeContext{State: state, Neighbors: nbrs, NeighborsLR: nbrsLR, Box: &box})
			Expect(err).To(MatchError(bridge.ErrMalformedContext))

			var mce *bridge.MalformedContextError
			Expect(errors.As(err, &mce)).To(BeTrue())
			Expect(mce.Key).To(BeEmpty())
			Expect(mce.Got).To(ContainSubstring("LongRangeContext"))
		})

		DescribeTable("missing keys",
			func(mutate func(*bridge.ShortRangeContext), key string) {
				calls := 0
				cfg.Step = func(_ int, c md.Carry) md.Carry {
					calls++
					return c
				}
				s, _ := bridge.New(cfg)
				in := s.Init().(*bridge.ShortRangeContext)
				mutate(in)
				before := in.State.Clone()

				out, err := s.Step(in)
				Expect(out).To(BeNil())
				Expect(err).To(MatchError(bridge.ErrMalformedContext))
				Expect(bridge.IsContractViolation(err)).To(BeTrue())
				Expect(bridge.IsCapacity(err)).To(BeFalse())

				var mce *bridge.MalformedContextError
				Expect(errors.As(err, &mce)).To(BeTrue())
				Expect(mce.Key).To(Equal(key))

				Expect(calls).To(BeZero())
				Expect(in.State).To(Equal(before))
			},
			Entry("neighbors", func(c *bridge.ShortRangeContext) { c.Neighbors = nil }, bridge.KeyNeighbors),
			Entry("box", func(c *bridge.ShortRangeContext) { c.Box = nil }, bridge.KeyBox),
		)

		It("snapshots positions, momenta and mass", func() {
			s, _ := bridge.New(cfg)
			snap := s.Init().Snapshot()
			Expect(snap.Positions).To(Equal(state.Positions))
			Expect(snap.Box).To(Equal(box))
			Expect(snap.VelMass.Momentum).To(Equal(state.Momenta))
			Expect(snap.VelMass.Mass).To(Equal(state.Mass))

			snap.Positions[0] = md.Vec3{9, 9, 9}
			Expect(state.Positions[0]).To(Equal(md.Vec3{1, 1, 1}))
		})
	})

	Describe("LongRange", func() {
		var cfg bridge.Config

		BeforeEach(func() {
			cfg = bridge.Config{
				Mode:        bridge.LongRange,
				State:       state,
				Box:         box,
				Dt:          0.005,
				Neighbors:   nbrs,
				NeighborsLR: nbrsLR,
				StepLR:      identityLR,
			}
		})

		It("round trips both neighbor lists", func() {
			s, err := bridge.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			out, err := s.Step(s.Init())
			Expect(err).NotTo(HaveOccurred())

			ctx := out.(*bridge.LongRangeContext)
			Expect(ctx.State).To(Equal(state))
			Expect(ctx.Neighbors).To(Equal(nbrs))
			Expect(ctx.NeighborsLR).To(Equal(nbrsLR))
			Expect(*ctx.Box).To(Equal(box))
		})

		It("propagates the long-range list the step function returns", func() {
			replacement := &md.NeighborList{Capacity: 99}
			cfg.StepLR = func(_ int, c md.CarryLR) md.CarryLR {
				c.NeighborsLR = replacement
				return c
			}
			s, _ := bridge.New(cfg)
			out, err := s.Step(s.Init())
			Expect(err).NotTo(HaveOccurred())
			Expect(out.(*bridge.LongRangeContext).NeighborsLR).To(BeIdenticalTo(replacement))
		})

		It("requires the long-range list at construction", func() {
			cfg.NeighborsLR = nil
			_, err := bridge.New(cfg)
			Expect(err).To(MatchError(bridge.ErrInvalidConfig))
		})

		DescribeTable("missing keys",
			func(mutate func(*bridge.LongRangeContext), key string) {
				s, _ := bridge.New(cfg)
				in := s.Init().(*bridge.LongRangeContext)
				mutate(in)

				_, err := s.Step(in)
				var mce *bridge.MalformedContextError
				Expect(errors.As(err, &mce)).To(BeTrue())
				Expect(mce.Key).To(Equal(key))
				Expect(mce.Mode).To(Equal(bridge.LongRange))
			},
			Entry("neighbors", func(c *bridge.LongRangeContext) { c.Neighbors = nil }, bridge.KeyNeighbors),
			Entry("neighbors_long_range", func(c *bridge.LongRangeContext) { c.NeighborsLR = nil }, bridge.KeyNeighborsLongRange),
			Entry("box", func(c *bridge.LongRangeContext) { c.Box = nil }, bridge.KeyBox),
		)

		It("rejects a short-range context", func() {
			s, _ := bridge.New(cfg)
			_, err := s.Step(&bridge.ShortRangeContext{State: state, Neighbors: nbrs, Box: &box})
			Expect(err).To(MatchError(bridge.ErrMalformedContext))
		})
	})

	DescribeTable("construction errors",
		func(mutate func(*bridge.Config)) {
			cfg := bridge.Config{
				Mode:      bridge.ShortRange,
				State:     state,
				Box:       box,
				Dt:        0.005,
				Neighbors: nbrs,
				Step:      identity,
			}
			mutate(&cfg)
			s, err := bridge.New(cfg)
			Expect(s).To(BeNil())
			Expect(err).To(MatchError(bridge.ErrInvalidConfig))
		},
		Entry("zero timestep", func(c *bridge.Config) { c.Dt = 0 }),
		Entry("negative timestep", func(c *bridge.Config) { c.Dt = -1 }),
		Entry("no neighbors", func(c *bridge.Config) { c.Neighbors = nil }),
		Entry("no step function", func(c *bridge.Config) { c.Step = nil }),
		Entry("long-range without step function", func(c *bridge.Config) {
			c.Mode = bridge.LongRange
			c.NeighborsLR = nbrsLR
		}),
		Entry("unknown mode", func(c *bridge.Config) { c.Mode = bridge.Mode(7) }),
		Entry("zero mass", func(c *bridge.Config) { c.State.Mass = []float64{1, 0, 1} }),
		Entry("singular box", func(c *bridge.Config) { c.Box = md.Box{} }),
	)

	It("hands the runner a complete descriptor", func() {
		gen, err := bridge.NewContextGenerator(bridge.Config{
			Mode:      bridge.ShortRange,
			State:     state,
			Box:       box,
			Dt:        0.005,
			Neighbors: nbrs,
			Step:      identity,
		})
		Expect(err).NotTo(HaveOccurred())

		desc := gen()
		Expect(desc.Init).NotTo(BeNil())
		Expect(desc.Step).NotTo(BeNil())
		Expect(desc.Box).To(Equal(box))
		Expect(desc.Dt).To(Equal(0.005))

		result, err := sampling.NewRunner(&sampling.Unbiased{}, nil, 2).Run(context.Background(), gen, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Snapshots).To(HaveLen(2))
		Expect(result.Snapshots[1].Positions).To(Equal(state.Positions))
	})
})
