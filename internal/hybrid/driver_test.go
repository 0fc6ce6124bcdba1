package hybrid_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/crnsim/internal/crn"
	"github.com/san-kum/crnsim/internal/hybrid"
	"github.com/san-kum/crnsim/internal/propensity"
	"github.com/san-kum/crnsim/internal/sim"
)

func buildSim(species []crn.Species, reactions []crn.Reaction, rates []float64, duration float64, steps, trajectories int, seed int64) *sim.Simulation {
	m, err := crn.NewModel(species, reactions)
	Expect(err).NotTo(HaveOccurred())
	eval := propensity.NewMassAction(m, rates)
	s, err := sim.New(m, eval, crn.Hybrid, duration, steps, trajectories, seed)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("hybrid driver", func() {
	Context("with no reactions", func() {
		It("holds every population at its initial value", func() {
			s := buildSim(
				[]crn.Species{
					{Name: "A", InitialPopulation: 5, UserMode: crn.Continuous},
					{Name: "B", InitialPopulation: 7, UserMode: crn.Discrete},
				},
				nil, nil, 1.0, 11, 2, 99,
			)
			Expect(hybrid.Solve(context.Background(), s, 0)).To(Succeed())
			Expect(s.Status).To(Equal(sim.StatusOK))

			for traj := 0; traj < 2; traj++ {
				for k := 0; k < 11; k++ {
					Expect(s.Populations.At(traj, k, 0)).To(Equal(5))
					Expect(s.Populations.At(traj, k, 1)).To(Equal(7))
					Expect(s.Modes.At(traj, k, 0)).To(Equal(int(crn.Continuous)))
					Expect(s.Modes.At(traj, k, 1)).To(Equal(int(crn.Discrete)))
				}
			}
		})
	})

	Context("with a continuous decay reaction", func() {
		It("tracks the analytic exponential", func() {
			s := buildSim(
				[]crn.Species{{Name: "A", InitialPopulation: 1000, UserMode: crn.Continuous}},
				[]crn.Reaction{{Name: "decay", Reactants: []int{1}, Products: []int{0}}},
				[]float64{1.0}, 5.0, 51, 1, 7,
			)
			Expect(hybrid.Solve(context.Background(), s, 0)).To(Succeed())

			// Spot-check the curve at a few report times.
			for _, k := range []int{10, 25, 50} {
				t := s.Timeline[k]
				want := 1000 * math.Exp(-t)
				Expect(s.Concentrations.At(0, k, 0)).To(BeNumerically("~", want, 0.02*want+0.01))
			}
			final := s.Concentrations.At(0, 50, 0)
			Expect(final).To(BeNumerically(">=", 6.5))
			Expect(final).To(BeNumerically("<=", 7.0))
		})
	})

	Context("with reversible dimerization", func() {
		It("conserves A + 2B at every report step", func() {
			s := buildSim(
				[]crn.Species{
					{Name: "A", InitialPopulation: 100, UserMode: crn.Continuous},
					{Name: "B", InitialPopulation: 0, UserMode: crn.Continuous},
				},
				[]crn.Reaction{
					{Name: "dimerize", Reactants: []int{2, 0}, Products: []int{0, 1}},
					{Name: "dissociate", Reactants: []int{0, 1}, Products: []int{2, 0}},
				},
				[]float64{0.01, 1.0}, 5.0, 51, 1, 13,
			)
			Expect(hybrid.Solve(context.Background(), s, 0)).To(Succeed())

			for k := 0; k < 51; k++ {
				total := s.Concentrations.At(0, k, 0) + 2*s.Concentrations.At(0, k, 1)
				Expect(total).To(BeNumerically("~", 100.0, 0.25),
					"conservation broken at step %d", k)
			}
		})
	})

	Context("with a discrete species under a fast reaction", func() {
		It("never drives the population negative", func() {
			s := buildSim(
				[]crn.Species{{Name: "A", InitialPopulation: 1, UserMode: crn.Discrete}},
				[]crn.Reaction{{Name: "decay", Reactants: []int{1}, Products: []int{0}}},
				[]float64{100.0}, 1.0, 2, 1, 5,
			)
			Expect(hybrid.Solve(context.Background(), s, 0)).To(Succeed())

			final := s.Populations.At(0, 1, 0)
			Expect(final).To(BeNumerically(">=", 0))
			Expect(final).To(BeNumerically("<=", 1))
		})
	})

	Context("with a fixed seed", func() {
		It("is bit-reproducible", func() {
			run := func() *sim.Simulation {
				s := buildSim(
					[]crn.Species{
						{Name: "A", InitialPopulation: 50, UserMode: crn.Discrete},
						{Name: "B", InitialPopulation: 0, UserMode: crn.Discrete},
					},
					[]crn.Reaction{
						{Name: "convert", Reactants: []int{1, 0}, Products: []int{0, 1}},
						{Name: "revert", Reactants: []int{0, 1}, Products: []int{1, 0}},
					},
					[]float64{0.5, 0.3}, 2.0, 21, 3, 4242,
				)
				Expect(hybrid.Solve(context.Background(), s, 0)).To(Succeed())
				return s
			}

			a, b := run(), run()
			for traj := 0; traj < 3; traj++ {
				for k := 0; k < 21; k++ {
					for sp := 0; sp < 2; sp++ {
						Expect(a.Populations.At(traj, k, sp)).To(Equal(b.Populations.At(traj, k, sp)))
						Expect(a.Concentrations.At(traj, k, sp)).To(Equal(b.Concentrations.At(traj, k, sp)))
					}
				}
			}
		})

		It("keeps discrete populations as non-negative integers", func() {
			s := buildSim(
				[]crn.Species{
					{Name: "A", InitialPopulation: 20, UserMode: crn.Discrete},
				},
				[]crn.Reaction{
					{Name: "birth", Reactants: []int{0}, Products: []int{1}},
					{Name: "death", Reactants: []int{1}, Products: []int{0}},
				},
				[]float64{10.0, 1.0}, 4.0, 41, 4, 31,
			)
			Expect(hybrid.Solve(context.Background(), s, 0)).To(Succeed())

			for traj := 0; traj < 4; traj++ {
				for k := 0; k < 41; k++ {
					pop := s.Populations.At(traj, k, 0)
					Expect(pop).To(BeNumerically(">=", 0))
					conc := s.Concentrations.At(traj, k, 0)
					Expect(conc).To(Equal(math.Trunc(conc)),
						"discrete state must stay integral")
				}
			}
		})
	})

	Context("with dynamic partitioning", func() {
		It("switches a growing population to continuous", func() {
			s := buildSim(
				[]crn.Species{
					{Name: "A", InitialPopulation: 0, UserMode: crn.Dynamic, SwitchMin: 5},
				},
				[]crn.Reaction{
					{Name: "birth", Reactants: []int{0}, Products: []int{1}},
					{Name: "death", Reactants: []int{1}, Products: []int{0}},
				},
				[]float64{10.0, 1.0}, 20.0, 101, 1, 11,
			)
			Expect(hybrid.Solve(context.Background(), s, 0)).To(Succeed())

			// Low early population partitions discrete, the settled
			// population near lambda/mu = 10 partitions continuous.
			Expect(s.Modes.At(0, 1, 0)).To(Equal(int(crn.Discrete)))
			Expect(s.Modes.At(0, 100, 0)).To(Equal(int(crn.Continuous)))
			Expect(s.Concentrations.At(0, 100, 0)).To(BeNumerically("~", 10.0, 3.0))
		})
	})

	Context("with a pending interrupt", func() {
		It("stops immediately and clears the flag on return", func() {
			s := buildSim(
				[]crn.Species{{Name: "A", InitialPopulation: 2, UserMode: crn.Discrete}},
				nil, nil, 1.0, 6, 3, 1,
			)
			sim.RequestInterrupt()

			err := hybrid.Solve(context.Background(), s, 0)
			Expect(err).To(MatchError(crn.ErrInterrupted))
			Expect(s.Status).To(Equal(sim.StatusInterrupted))
			Expect(sim.Interrupted()).To(BeFalse())
		})
	})

	Context("when cancelled before any trajectory", func() {
		It("returns interrupted with untouched buffers", func() {
			s := buildSim(
				[]crn.Species{{Name: "A", InitialPopulation: 9, UserMode: crn.Discrete}},
				nil, nil, 1.0, 6, 4, 3,
			)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := hybrid.Solve(ctx, s, 0)
			Expect(err).To(MatchError(ContainSubstring("interrupted")))
			Expect(s.Status).To(Equal(sim.StatusInterrupted))

			for traj := 0; traj < 4; traj++ {
				for k := 0; k < 6; k++ {
					Expect(s.Populations.At(traj, k, 0)).To(BeZero())
				}
			}
		})
	})

	Context("with invalid input", func() {
		It("rejects before touching any buffer", func() {
			s := buildSim(
				[]crn.Species{{Name: "A", InitialPopulation: 1}},
				nil, nil, 1.0, 6, 1, 0,
			)
			s.Timeline[3] += 0.01

			err := hybrid.Solve(context.Background(), s, 0)
			Expect(err).To(MatchError(crn.ErrInvalidTimeline))
			Expect(s.Status).To(Equal(sim.StatusInvalidInput))
		})
	})
})
