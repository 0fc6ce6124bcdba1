package config

// Presets are ready-made networks for the CLI and for quick comparisons
// between solvers.
var Presets = map[string]*Config{
	"decay": {
		Solver: "hybrid", Duration: 5.0, Timesteps: 51, Trajectories: 1, TauTol: DefaultTauTol,
		Model: ModelConfig{
			Name: "decay",
			Species: []SpeciesConfig{
				{Name: "A", Initial: 1000, Mode: "continuous"},
			},
			Reactions: []ReactionConfig{
				{Name: "decay", Rate: 1.0, Reactants: map[string]int{"A": 1}},
			},
		},
	},
	"birth_death": {
		Solver: "hybrid", Duration: 20.0, Timesteps: 201, Trajectories: 10, TauTol: DefaultTauTol,
		Model: ModelConfig{
			Name: "birth_death",
			Species: []SpeciesConfig{
				{Name: "A", Initial: 0, Mode: "dynamic", SwitchMin: 20},
			},
			Reactions: []ReactionConfig{
				{Name: "birth", Rate: 10.0},
				{Name: "death", Rate: 1.0, Reactants: map[string]int{"A": 1}},
			},
		},
	},
	"dimerization": {
		Solver: "hybrid", Duration: 5.0, Timesteps: 101, Trajectories: 1, TauTol: DefaultTauTol,
		Model: ModelConfig{
			Name: "dimerization",
			Species: []SpeciesConfig{
				{Name: "A", Initial: 100, Mode: "continuous"},
				{Name: "B", Initial: 0, Mode: "continuous"},
			},
			Reactions: []ReactionConfig{
				{Name: "dimerize", Rate: 0.01, Reactants: map[string]int{"A": 2}, Products: map[string]int{"B": 1}},
				{Name: "dissociate", Rate: 1.0, Reactants: map[string]int{"B": 1}, Products: map[string]int{"A": 2}},
			},
		},
	},
	"toggle": {
		Solver: "hybrid", Duration: 50.0, Timesteps: 251, Trajectories: 5, TauTol: DefaultTauTol,
		Model: ModelConfig{
			Name: "toggle",
			Species: []SpeciesConfig{
				{Name: "U", Initial: 10, Mode: "dynamic"},
				{Name: "V", Initial: 10, Mode: "dynamic"},
			},
			Reactions: []ReactionConfig{
				{Name: "make_u", Rate: 5.0},
				{Name: "make_v", Rate: 5.0},
				{Name: "lose_u", Rate: 0.2, Reactants: map[string]int{"U": 1}},
				{Name: "lose_v", Rate: 0.2, Reactants: map[string]int{"V": 1}},
				{Name: "bind", Rate: 0.01, Reactants: map[string]int{"U": 1, "V": 1}},
			},
		},
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
