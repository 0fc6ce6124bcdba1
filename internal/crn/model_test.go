package crn

import (
	"errors"
	"testing"
)

func testNetwork(t *testing.T) *Model {
	t.Helper()
	// 2A -> B, B -> 2A, A -> 0
	m, err := NewModel(
		[]Species{
			{Name: "A", InitialPopulation: 100},
			{Name: "B", InitialPopulation: 0},
		},
		[]Reaction{
			{Name: "dimerize", Reactants: []int{2, 0}, Products: []int{0, 1}},
			{Name: "dissociate", Reactants: []int{0, 1}, Products: []int{2, 0}},
			{Name: "decay", Reactants: []int{1, 0}, Products: []int{0, 0}},
		},
	)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func TestNewModel_DerivedFields(t *testing.T) {
	m := testNetwork(t)

	if m.NumSpecies() != 2 || m.NumReactions() != 3 {
		t.Fatalf("unexpected sizes: %d species, %d reactions", m.NumSpecies(), m.NumReactions())
	}

	for i, s := range m.Species {
		if s.ID != i {
			t.Errorf("species %q: id %d, want %d", s.Name, s.ID, i)
		}
		if s.SwitchTol != DefaultSwitchTol {
			t.Errorf("species %q: switch tol %f, want default", s.Name, s.SwitchTol)
		}
	}

	dim := m.Reactions[0]
	if dim.Change[0] != -2 || dim.Change[1] != 1 {
		t.Errorf("dimerize change = %v, want [-2 1]", dim.Change)
	}
}

func TestNewModel_PartitionModeInit(t *testing.T) {
	m, err := NewModel(
		[]Species{
			{Name: "C", UserMode: Continuous},
			{Name: "D", UserMode: Discrete},
			{Name: "Y", UserMode: Dynamic},
		},
		nil,
	)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	want := []Mode{Continuous, Discrete, Continuous}
	for i, s := range m.Species {
		if s.PartitionMode != want[i] {
			t.Errorf("species %q: partition %v, want %v", s.Name, s.PartitionMode, want[i])
		}
	}
}

func TestNewModel_Rejections(t *testing.T) {
	_, err := NewModel([]Species{{Name: "A", InitialPopulation: -1}}, nil)
	if !errors.Is(err, ErrNegativePopulation) {
		t.Errorf("negative population: got %v", err)
	}

	_, err = NewModel(
		[]Species{{Name: "A"}, {Name: "B"}},
		[]Reaction{{Name: "short", Reactants: []int{1}, Products: []int{0}}},
	)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short stoichiometry: got %v", err)
	}
}

func TestUpdateAffectedReactions(t *testing.T) {
	m := testNetwork(t)

	// dimerize changes A and B; all three reactions consume one of them.
	got := m.Reactions[0].Affected
	if len(got) != 3 {
		t.Fatalf("dimerize affected = %v, want all three reactions", got)
	}

	// decay changes only A, so it cannot affect dissociate (consumes B).
	for _, id := range m.Reactions[2].Affected {
		if id == 1 {
			t.Errorf("decay should not affect dissociate: %v", m.Reactions[2].Affected)
		}
	}
}

func TestInitialPopulations_Copies(t *testing.T) {
	m := testNetwork(t)
	pops := m.InitialPopulations()
	pops[0] = -42
	if m.Species[0].InitialPopulation != 100 {
		t.Error("InitialPopulations aliases model state")
	}
}
