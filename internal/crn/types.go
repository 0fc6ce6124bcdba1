package crn

import "fmt"

// Mode selects how a species population is represented during simulation.
type Mode int

const (
	// Continuous species evolve as real-valued concentrations.
	Continuous Mode = iota
	// Discrete species evolve as integer populations via stochastic firings.
	Discrete
	// Dynamic species are repartitioned between the two at runtime.
	Dynamic
)

func (m Mode) String() string {
	switch m {
	case Continuous:
		return "continuous"
	case Discrete:
		return "discrete"
	case Dynamic:
		return "dynamic"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// SolverKind identifies a trajectory advancement strategy.
type SolverKind int

const (
	SSA SolverKind = iota + 1
	ODE
	Tau
	Hybrid
)

func (k SolverKind) String() string {
	switch k {
	case SSA:
		return "ssa"
	case ODE:
		return "ode"
	case Tau:
		return "tau"
	case Hybrid:
		return "hybrid"
	}
	return fmt.Sprintf("solver(%d)", int(k))
}

// DefaultSwitchTol is the coefficient-of-variation threshold below which a
// dynamic species is treated continuously when no population minimum is set.
const DefaultSwitchTol = 0.03

// Species describes one chemical species. IDs are dense and 0-based,
// matching the species' index in Model.Species.
type Species struct {
	ID                int
	Name              string
	InitialPopulation int

	// UserMode is the representation requested by the model author.
	UserMode Mode
	// PartitionMode is the initial effective representation: the user mode
	// for Continuous/Discrete species, Continuous for Dynamic ones. It is
	// set once by NewModel; solvers track the runtime partition of Dynamic
	// species in their own per-trajectory state.
	PartitionMode Mode

	// SwitchTol is compared against the estimated sd/mean of the
	// population when deciding the partition of a dynamic species.
	SwitchTol float64
	// SwitchMin, when positive, overrides SwitchTol: the species is
	// continuous whenever its mean population reaches this value.
	SwitchMin int
}

// Reaction describes one reaction channel. Reactants and Products hold
// per-species multiplicities indexed by species ID; Change is their
// difference and gives the population delta of a single firing.
type Reaction struct {
	ID        int
	Name      string
	Reactants []int
	Products  []int
	Change    []int

	// Affected lists the reactions whose propensity may change when this
	// reaction fires. Populated by Model.UpdateAffectedReactions.
	Affected []int
}

// Model is an immutable reaction network shared by all trajectories.
type Model struct {
	Species   []Species
	Reactions []Reaction
}

// NewModel validates the network, fills in derived fields (stoichiometric
// change vectors, default switch tolerances, dense IDs) and precomputes the
// affected-reaction sets.
func NewModel(species []Species, reactions []Reaction) (*Model, error) {
	m := &Model{Species: species, Reactions: reactions}

	for i := range m.Species {
		s := &m.Species[i]
		s.ID = i
		if s.InitialPopulation < 0 {
			return nil, fmt.Errorf("species %q: %w (initial population %d)",
				s.Name, ErrNegativePopulation, s.InitialPopulation)
		}
		if s.SwitchTol <= 0 {
			s.SwitchTol = DefaultSwitchTol
		}
		switch s.UserMode {
		case Continuous, Discrete:
			s.PartitionMode = s.UserMode
		default:
			// Dynamic species start out continuous and are
			// repartitioned as statistics accumulate.
			s.PartitionMode = Continuous
		}
	}

	n := len(m.Species)
	for i := range m.Reactions {
		r := &m.Reactions[i]
		r.ID = i
		if len(r.Reactants) != n || len(r.Products) != n {
			return nil, fmt.Errorf("reaction %q: %w (want %d species)",
				r.Name, ErrDimensionMismatch, n)
		}
		r.Change = make([]int, n)
		for s := 0; s < n; s++ {
			if r.Reactants[s] < 0 || r.Products[s] < 0 {
				return nil, fmt.Errorf("reaction %q: %w (negative multiplicity)",
					r.Name, ErrInvalidModel)
			}
			r.Change[s] = r.Products[s] - r.Reactants[s]
		}
	}

	m.UpdateAffectedReactions()
	return m, nil
}

// NumSpecies returns the number of species in the network.
func (m *Model) NumSpecies() int { return len(m.Species) }

// NumReactions returns the number of reaction channels in the network.
func (m *Model) NumReactions() int { return len(m.Reactions) }

// InitialPopulations returns a fresh copy of the initial state.
func (m *Model) InitialPopulations() []int {
	pops := make([]int, len(m.Species))
	for i, s := range m.Species {
		pops[i] = s.InitialPopulation
	}
	return pops
}

// UpdateAffectedReactions recomputes each reaction's Affected set: reaction
// r' is affected by r when r changes a species that r' consumes.
func (m *Model) UpdateAffectedReactions() {
	for i := range m.Reactions {
		r := &m.Reactions[i]
		r.Affected = r.Affected[:0]
		for j := range m.Reactions {
			dep := &m.Reactions[j]
			for s := range r.Change {
				if r.Change[s] != 0 && dep.Reactants[s] > 0 {
					r.Affected = append(r.Affected, dep.ID)
					break
				}
			}
		}
	}
}
