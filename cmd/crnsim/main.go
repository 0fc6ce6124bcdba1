package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/crnsim/internal/analysis"
	"github.com/san-kum/crnsim/internal/config"
	"github.com/san-kum/crnsim/internal/crn"
	"github.com/san-kum/crnsim/internal/hybrid"
	"github.com/san-kum/crnsim/internal/metrics"
	"github.com/san-kum/crnsim/internal/odesolver"
	"github.com/san-kum/crnsim/internal/sim"
	"github.com/san-kum/crnsim/internal/ssa"
	"github.com/san-kum/crnsim/internal/store"
	"github.com/san-kum/crnsim/internal/viz"
)

var (
	dataDir      string
	configFile   string
	solverName   string
	duration     float64
	timesteps    int
	trajectories int
	seed         int64
	tauTol       float64
	textOutput   bool
	// Plot selection
	speciesIdx int
	trajIdx    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crnsim",
		Short: "chemical reaction network simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".crnsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&solverName, "solver", "", "solver (ssa, ode, hybrid)")
	runCmd.Flags().Float64Var(&duration, "time", 0, "simulation end time")
	runCmd.Flags().IntVar(&timesteps, "steps", 0, "number of report steps")
	runCmd.Flags().IntVar(&trajectories, "trajectories", 0, "number of trajectories")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = nondeterministic)")
	runCmd.Flags().Float64Var(&tauTol, "tau-tol", 0, "leap tolerance")
	runCmd.Flags().BoolVar(&textOutput, "text", false, "print results as text rows instead of storing")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in models",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&speciesIdx, "species", 0, "species index to plot")
	plotCmd.Flags().IntVar(&trajIdx, "trajectory", 0, "trajectory index to plot")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run and replay a simulation in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")

	rootCmd.AddCommand(runCmd, presetsCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case len(args) == 1:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	default:
		return nil, fmt.Errorf("need a preset name or --config")
	}

	// CLI flags override the file.
	if cmd.Flags().Changed("solver") {
		cfg.Solver = solverName
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("steps") {
		cfg.Timesteps = timesteps
	}
	if cmd.Flags().Changed("trajectories") {
		cfg.Trajectories = trajectories
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("tau-tol") {
		cfg.TauTol = tauTol
	}
	return cfg, nil
}

func buildAndSolve(ctx context.Context, cfg *config.Config) (*sim.Simulation, error) {
	m, eval, err := cfg.Model.Build()
	if err != nil {
		return nil, err
	}
	kind, err := cfg.SolverKind()
	if err != nil {
		return nil, err
	}

	s, err := sim.New(m, eval, kind, cfg.Duration, cfg.Timesteps, cfg.Trajectories, cfg.Seed)
	if err != nil {
		return nil, err
	}

	switch kind {
	case crn.SSA:
		err = ssa.Solve(ctx, s)
	case crn.ODE:
		err = odesolver.New().Solve(ctx, s)
	default:
		err = hybrid.Solve(ctx, s, cfg.TauTol)
	}
	return s, err
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	fmt.Printf("running %s with %s solver...\n", cfg.Model.Name, cfg.Solver)
	start := time.Now()

	s, err := buildAndSolve(cmd.Context(), cfg)
	if s == nil {
		return err
	}
	if err != nil {
		// Partial results are still worth keeping.
		fmt.Printf("run ended early: %v\n", err)
	}
	elapsed := time.Since(start)

	if textOutput {
		return s.WriteResults(os.Stdout)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	st := store.New(filepath.Join(dataDir, "runs.db"))
	if err := st.Init(cmd.Context()); err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Save(cmd.Context(), cfg.Model.Name, s)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v (%s)\n", elapsed, s.Status)
	fmt.Printf("run id: %s\n", runID)
	printSummary(s)
	return nil
}

func printSummary(s *sim.Simulation) {
	fmt.Println("\nspecies summary (trajectory 0):")
	state := make([]float64, s.Model.NumSpecies())
	for spIdx, sp := range s.Model.Species {
		mean := metrics.NewMean("mean", spIdx)
		peak := metrics.NewPeak("peak", spIdx)
		for k := 0; k < s.NumberTimesteps; k++ {
			copy(state, s.Concentrations.Row(0, k))
			mean.Observe(s.Timeline[k], state)
			peak.Observe(s.Timeline[k], state)
		}

		stats := analysis.Ensemble(s, spIdx)
		final := stats.Mean[s.NumberTimesteps-1]
		fmt.Printf("  %-12s mean=%-10.4f peak=%-10.4f final=%.4f±%.4f\n",
			sp.Name, mean.Value(), peak.Value(), final, stats.Std[s.NumberTimesteps-1])
	}
}

func openStore(ctx context.Context) (*store.Store, error) {
	st := store.New(filepath.Join(dataDir, "runs.db"))
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tSOLVER\tTIME\tDURATION\tSTEPS\tTRAJ\tSTATUS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%d\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Solver,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Timesteps,
			run.Trajectories,
			run.Status,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	meta, data, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if speciesIdx < 0 || speciesIdx >= len(data.Species) {
		return fmt.Errorf("species index out of range (have %d species)", len(data.Species))
	}
	if trajIdx < 0 || trajIdx >= len(data.Concentrations) {
		return fmt.Errorf("trajectory index out of range (have %d)", len(data.Concentrations))
	}

	fmt.Printf("run: %s\nmodel: %s (%s)\n\n", meta.ID, meta.Model, meta.Solver)

	series := make([]float64, len(data.Times))
	for k := range data.Times {
		series[k] = data.ValueAt(trajIdx, k, speciesIdx)
	}
	graph := asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s vs time (trajectory %d)", data.Species[speciesIdx], trajIdx)),
	)
	fmt.Println(graph)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	_, data, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return store.ExportCSV(os.Stdout, data)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	meta, data, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return store.ExportJSON(os.Stdout, meta, data)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	s, err := buildAndSolve(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return viz.Run(s, cfg.Model.Name)
}
