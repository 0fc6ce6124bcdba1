// Package propensity evaluates reaction rates for the stochastic,
// tau-leaping, and deterministic regimes.
package propensity

import "github.com/san-kum/crnsim/internal/crn"

// Evaluator computes the instantaneous rate of a reaction channel. The
// three methods serve the three solver regimes and must all return a
// non-negative value; a zero propensity contributes nothing to either
// concentration derivatives or firing counts.
type Evaluator interface {
	// Evaluate computes the propensity from an integer population state.
	Evaluate(reaction int, state []int) float64
	// TauEvaluate computes the propensity for leap-size selection.
	TauEvaluate(reaction int, state []int) float64
	// ODEEvaluate computes the propensity from real-valued concentrations.
	ODEEvaluate(reaction int, state []float64) float64
}

// MassAction is the standard kinetics evaluator: each reaction's rate is
// its rate constant times the combinatorial count of reactant collisions.
type MassAction struct {
	rates     []float64
	reactants [][]int
}

// NewMassAction builds an evaluator for the model with one rate constant
// per reaction channel.
func NewMassAction(m *crn.Model, rates []float64) *MassAction {
	reactants := make([][]int, m.NumReactions())
	for i, r := range m.Reactions {
		reactants[i] = r.Reactants
	}
	return &MassAction{rates: rates, reactants: reactants}
}

// Evaluate uses falling-factorial counting: a doubled reactant contributes
// x(x-1)/2 distinct pairs rather than x².
func (e *MassAction) Evaluate(reaction int, state []int) float64 {
	p := e.rates[reaction]
	for s, mult := range e.reactants[reaction] {
		for k := 0; k < mult; k++ {
			p *= float64(state[s]-k) / float64(k+1)
		}
		if p <= 0 {
			return 0
		}
	}
	return p
}

func (e *MassAction) TauEvaluate(reaction int, state []int) float64 {
	return e.Evaluate(reaction, state)
}

// ODEEvaluate uses plain concentration products; the combinatorial
// correction vanishes in the continuum limit.
func (e *MassAction) ODEEvaluate(reaction int, state []float64) float64 {
	p := e.rates[reaction]
	for s, mult := range e.reactants[reaction] {
		for k := 0; k < mult; k++ {
			p *= state[s]
		}
	}
	if p < 0 {
		return 0
	}
	return p
}
