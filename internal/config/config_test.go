package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/crnsim/internal/crn"
)

func TestLoadSave_RoundTrip(t *testing.T) {
	cfg := GetPreset("dimerization")
	path := filepath.Join(t.TempDir(), "run.yaml")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Solver != cfg.Solver || loaded.Duration != cfg.Duration {
		t.Errorf("run settings lost: %+v", loaded)
	}
	if len(loaded.Model.Species) != 2 || len(loaded.Model.Reactions) != 2 {
		t.Errorf("model lost: %+v", loaded.Model)
	}
	if loaded.Model.Reactions[0].Reactants["A"] != 2 {
		t.Errorf("stoichiometry lost: %+v", loaded.Model.Reactions[0])
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparse.yaml")
	sparse := "model:\n  name: m\n  species:\n    - name: A\n      initial: 3\n"
	if err := os.WriteFile(path, []byte(sparse), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// A sparse file keeps defaults for everything it doesn't set.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TauTol != DefaultTauTol {
		t.Errorf("tau tolerance = %g, want default", cfg.TauTol)
	}
	if cfg.Solver != "hybrid" || cfg.Trajectories != DefaultTrajectories {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Model.Species[0].Initial != 3 {
		t.Errorf("file values lost: %+v", cfg.Model)
	}
}

func TestBuild_MapsNamesToIDs(t *testing.T) {
	m, eval, err := GetPreset("dimerization").Model.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if eval == nil {
		t.Fatal("Build returned nil evaluator")
	}

	if m.Species[0].Name != "A" || m.Species[0].UserMode != crn.Continuous {
		t.Errorf("species 0 = %+v", m.Species[0])
	}
	dim := m.Reactions[0]
	if dim.Reactants[0] != 2 || dim.Products[1] != 1 {
		t.Errorf("dimerize stoichiometry = %+v", dim)
	}
	if dim.Change[0] != -2 || dim.Change[1] != 1 {
		t.Errorf("dimerize change = %v", dim.Change)
	}
}

func TestBuild_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		model ModelConfig
	}{
		{"unknown reactant", ModelConfig{
			Species:   []SpeciesConfig{{Name: "A"}},
			Reactions: []ReactionConfig{{Name: "r", Rate: 1, Reactants: map[string]int{"X": 1}}},
		}},
		{"bad mode", ModelConfig{
			Species: []SpeciesConfig{{Name: "A", Mode: "quantum"}},
		}},
		{"duplicate species", ModelConfig{
			Species: []SpeciesConfig{{Name: "A"}, {Name: "A"}},
		}},
		{"zero rate", ModelConfig{
			Species:   []SpeciesConfig{{Name: "A"}},
			Reactions: []ReactionConfig{{Name: "r", Rate: 0}},
		}},
	}
	for _, tc := range cases {
		if _, _, err := tc.model.Build(); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestPresets_AllBuild(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %q missing", name)
		}
		if _, _, err := cfg.Model.Build(); err != nil {
			t.Errorf("preset %q does not build: %v", name, err)
		}
		if _, err := cfg.SolverKind(); err != nil {
			t.Errorf("preset %q solver: %v", name, err)
		}
	}
}

func TestSolverKind(t *testing.T) {
	for name, want := range map[string]crn.SolverKind{
		"ssa": crn.SSA, "ode": crn.ODE, "tau": crn.Tau, "hybrid": crn.Hybrid, "": crn.Hybrid,
	} {
		c := &Config{Solver: name}
		got, err := c.SolverKind()
		if err != nil || got != want {
			t.Errorf("solver %q: got %v, %v", name, got, err)
		}
	}
	if _, err := (&Config{Solver: "magic"}).SolverKind(); err == nil {
		t.Error("unknown solver must error")
	}
}
