package sim

// FloatGrid is a dense [trajectory][timestep][species] tensor backed by one
// contiguous allocation.
type FloatGrid struct {
	data                []float64
	nTraj, nStep, nSpec int
}

func NewFloatGrid(nTraj, nStep, nSpec int) *FloatGrid {
	return &FloatGrid{
		data:  make([]float64, nTraj*nStep*nSpec),
		nTraj: nTraj,
		nStep: nStep,
		nSpec: nSpec,
	}
}

// Row returns the species slice for one (trajectory, timestep) cell. The
// slice aliases the grid's backing array.
func (g *FloatGrid) Row(traj, step int) []float64 {
	off := (traj*g.nStep + step) * g.nSpec
	return g.data[off : off+g.nSpec : off+g.nSpec]
}

func (g *FloatGrid) At(traj, step, spec int) float64 {
	return g.data[(traj*g.nStep+step)*g.nSpec+spec]
}

func (g *FloatGrid) Set(traj, step, spec int, v float64) {
	g.data[(traj*g.nStep+step)*g.nSpec+spec] = v
}

// IntGrid is the integer analogue of FloatGrid, used for discrete
// populations and partition-mode labels.
type IntGrid struct {
	data                []int
	nTraj, nStep, nSpec int
}

func NewIntGrid(nTraj, nStep, nSpec int) *IntGrid {
	return &IntGrid{
		data:  make([]int, nTraj*nStep*nSpec),
		nTraj: nTraj,
		nStep: nStep,
		nSpec: nSpec,
	}
}

func (g *IntGrid) Row(traj, step int) []int {
	off := (traj*g.nStep + step) * g.nSpec
	return g.data[off : off+g.nSpec : off+g.nSpec]
}

func (g *IntGrid) At(traj, step, spec int) int {
	return g.data[(traj*g.nStep+step)*g.nSpec+spec]
}

func (g *IntGrid) Set(traj, step, spec int, v int) {
	g.data[(traj*g.nStep+step)*g.nSpec+spec] = v
}
