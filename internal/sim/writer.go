package sim

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/san-kum/crnsim/internal/crn"
)

// Writer emits per-timestep samples into the simulation's result tensors.
// One Writer serves one solver invocation; trajectories partition the
// tensors so no cell is written twice.
type Writer struct {
	sim *Simulation
}

func NewWriter(s *Simulation) *Writer {
	return &Writer{sim: s}
}

// Emit records one sample: the real-valued state, the integer populations
// (rounded from state for continuous species), and the partition label per
// species.
func (w *Writer) Emit(traj, step int, state []float64, modes []crn.Mode) {
	conc := w.sim.Concentrations.Row(traj, step)
	pops := w.sim.Populations.Row(traj, step)
	labels := w.sim.Modes.Row(traj, step)
	for s := range state {
		conc[s] = state[s]
		pops[s] = int(math.Round(state[s]))
		labels[s] = int(modes[s])
	}
}

// EmitInitial writes the t=0 sample from the model's initial populations.
func (w *Writer) EmitInitial(traj int, modes []crn.Mode) {
	conc := w.sim.Concentrations.Row(traj, 0)
	pops := w.sim.Populations.Row(traj, 0)
	labels := w.sim.Modes.Row(traj, 0)
	for s, sp := range w.sim.Model.Species {
		conc[s] = float64(sp.InitialPopulation)
		pops[s] = sp.InitialPopulation
		labels[s] = int(modes[s])
	}
}

// WriteResults serializes the run as whitespace-separated text: one row per
// timestep (time then one value per species), trajectories separated by a
// blank line. Discrete-labelled cells print integer populations, the rest
// print concentrations.
func (s *Simulation) WriteResults(out io.Writer) error {
	w := bufio.NewWriter(out)
	for traj := 0; traj < s.NumberTrajectories; traj++ {
		if traj > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		for k := 0; k < s.NumberTimesteps; k++ {
			if _, err := fmt.Fprintf(w, "%g", s.Timeline[k]); err != nil {
				return err
			}
			for sp := 0; sp < s.Model.NumSpecies(); sp++ {
				if s.Modes.At(traj, k, sp) == int(crn.Discrete) {
					fmt.Fprintf(w, " %d", s.Populations.At(traj, k, sp))
				} else {
					fmt.Fprintf(w, " %g", s.Concentrations.At(traj, k, sp))
				}
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}
