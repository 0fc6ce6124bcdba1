package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/crnsim/internal/crn"
	"github.com/san-kum/crnsim/internal/propensity"
)

const (
	DefaultDuration     = 10.0
	DefaultTimesteps    = 101
	DefaultTrajectories = 1
	DefaultTauTol       = 0.03
)

// Config describes one run: the solver settings plus the reaction network.
type Config struct {
	Solver       string  `yaml:"solver"`
	Duration     float64 `yaml:"duration"`
	Timesteps    int     `yaml:"timesteps"`
	Trajectories int     `yaml:"trajectories"`
	Seed         int64   `yaml:"seed"`
	TauTol       float64 `yaml:"tau_tol"`

	Model ModelConfig `yaml:"model"`
}

type ModelConfig struct {
	Name      string           `yaml:"name"`
	Species   []SpeciesConfig  `yaml:"species"`
	Reactions []ReactionConfig `yaml:"reactions"`
}

type SpeciesConfig struct {
	Name      string  `yaml:"name"`
	Initial   int     `yaml:"initial"`
	Mode      string  `yaml:"mode"`
	SwitchTol float64 `yaml:"switch_tol"`
	SwitchMin int     `yaml:"switch_min"`
}

type ReactionConfig struct {
	Name      string         `yaml:"name"`
	Rate      float64        `yaml:"rate"`
	Reactants map[string]int `yaml:"reactants"`
	Products  map[string]int `yaml:"products"`
}

func DefaultConfig() *Config {
	return &Config{
		Solver:       "hybrid",
		Duration:     DefaultDuration,
		Timesteps:    DefaultTimesteps,
		Trajectories: DefaultTrajectories,
		TauTol:       DefaultTauTol,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func parseMode(s string) (crn.Mode, error) {
	switch s {
	case "continuous":
		return crn.Continuous, nil
	case "discrete":
		return crn.Discrete, nil
	case "", "dynamic":
		return crn.Dynamic, nil
	}
	return 0, fmt.Errorf("unknown species mode %q", s)
}

// Build turns the declarative model into a validated network and its
// mass-action evaluator.
func (mc *ModelConfig) Build() (*crn.Model, *propensity.MassAction, error) {
	index := make(map[string]int, len(mc.Species))
	species := make([]crn.Species, len(mc.Species))
	for i, sc := range mc.Species {
		if _, dup := index[sc.Name]; dup {
			return nil, nil, fmt.Errorf("duplicate species %q", sc.Name)
		}
		index[sc.Name] = i
		mode, err := parseMode(sc.Mode)
		if err != nil {
			return nil, nil, fmt.Errorf("species %q: %w", sc.Name, err)
		}
		species[i] = crn.Species{
			Name:              sc.Name,
			InitialPopulation: sc.Initial,
			UserMode:          mode,
			SwitchTol:         sc.SwitchTol,
			SwitchMin:         sc.SwitchMin,
		}
	}

	reactions := make([]crn.Reaction, len(mc.Reactions))
	rates := make([]float64, len(mc.Reactions))
	for i, rc := range mc.Reactions {
		if rc.Rate <= 0 {
			return nil, nil, fmt.Errorf("reaction %q: rate must be positive", rc.Name)
		}
		rates[i] = rc.Rate

		reactants := make([]int, len(species))
		products := make([]int, len(species))
		for name, mult := range rc.Reactants {
			idx, ok := index[name]
			if !ok {
				return nil, nil, fmt.Errorf("reaction %q: unknown reactant %q", rc.Name, name)
			}
			reactants[idx] = mult
		}
		for name, mult := range rc.Products {
			idx, ok := index[name]
			if !ok {
				return nil, nil, fmt.Errorf("reaction %q: unknown product %q", rc.Name, name)
			}
			products[idx] = mult
		}
		reactions[i] = crn.Reaction{
			Name:      rc.Name,
			Reactants: reactants,
			Products:  products,
		}
	}

	m, err := crn.NewModel(species, reactions)
	if err != nil {
		return nil, nil, err
	}
	return m, propensity.NewMassAction(m, rates), nil
}

// SolverKind maps the config's solver name onto the solver enum.
func (c *Config) SolverKind() (crn.SolverKind, error) {
	switch c.Solver {
	case "ssa":
		return crn.SSA, nil
	case "ode":
		return crn.ODE, nil
	case "tau":
		return crn.Tau, nil
	case "", "hybrid":
		return crn.Hybrid, nil
	}
	return 0, fmt.Errorf("unknown solver %q", c.Solver)
}
