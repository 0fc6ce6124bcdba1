// Package analysis reduces trajectory ensembles to summary statistics.
package analysis

import (
	"math"

	"github.com/san-kum/crnsim/internal/sim"
)

// EnsembleStats holds per-timestep statistics of one species across all
// trajectories of a run.
type EnsembleStats struct {
	Times []float64
	Mean  []float64
	Std   []float64
	Min   []float64
	Max   []float64
}

// Ensemble computes the across-trajectory mean, standard deviation, and
// range of one species at every report time.
func Ensemble(s *sim.Simulation, species int) *EnsembleStats {
	nk := s.NumberTimesteps
	nt := s.NumberTrajectories

	stats := &EnsembleStats{
		Times: s.Timeline,
		Mean:  make([]float64, nk),
		Std:   make([]float64, nk),
		Min:   make([]float64, nk),
		Max:   make([]float64, nk),
	}

	for k := 0; k < nk; k++ {
		sum := 0.0
		lo, hi := math.Inf(1), math.Inf(-1)
		for traj := 0; traj < nt; traj++ {
			v := s.Concentrations.At(traj, k, species)
			sum += v
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		mean := sum / float64(nt)

		variance := 0.0
		for traj := 0; traj < nt; traj++ {
			d := s.Concentrations.At(traj, k, species) - mean
			variance += d * d
		}
		variance /= float64(nt)

		stats.Mean[k] = mean
		stats.Std[k] = math.Sqrt(variance)
		stats.Min[k] = lo
		stats.Max[k] = hi
	}
	return stats
}
