// Package crn provides the core data model for chemical reaction networks.
//
// The package defines the fundamental types shared by every solver:
//
//   - [Species]: a chemical species with an initial population and a
//     partitioning mode (continuous, discrete, or dynamic)
//   - [Reaction]: a reaction channel with reactant/product stoichiometry
//   - [Model]: an immutable network of species and reactions
//
// # Example
//
//	m, _ := crn.NewModel(
//	    []crn.Species{{Name: "A", InitialPopulation: 100}},
//	    []crn.Reaction{{Name: "decay", Reactants: []int{1}, Products: []int{0}}},
//	)
//
// # Thread Safety
//
// A Model is read-only after construction and may be shared across
// concurrently running trajectories. Per-trajectory state (populations,
// RNG, integrator memory) lives in the solver packages.
package crn
