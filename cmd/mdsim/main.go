package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mdsim/internal/analysis"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/metrics"
	"github.com/san-kum/mdsim/internal/sim"
	"github.com/san-kum/mdsim/internal/storage"
	"github.com/san-kum/mdsim/internal/tui"
)

var (
	dataDir    string
	configFile string
	dt         float64
	steps      int
	seed       int64
	integrator string
	finder     string
	cutoff     float64
	count      int
	trajEvery  int
	saveTraj   bool
	jsonPath   string
	numRuns    int
	seedStart  int64
	trajPath   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mdsim",
		Short: "molecular dynamics simulation lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mdsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&saveTraj, "traj", false, "record a compressed trajectory")
	runCmd.Flags().IntVar(&trajEvery, "traj-every", 10, "trajectory frame cadence")
	runCmd.Flags().StringVar(&jsonPath, "json", "", "also export full series as JSON")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a simulation with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy series of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "compare neighbor finders on the same system",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchFinders,
	}
	addRunFlags(benchCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "run the same configuration under several seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addRunFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 4, "number of runs")
	ensembleCmd.Flags().Int64Var(&seedStart, "seed-start", 1, "first seed")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&trajPath, "traj", "", "trajectory file for mean squared displacement")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, benchCmd, ensembleCmd, analyzeCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml or toml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Int64Var(&seed, "seed", 0, "velocity seed")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (velocity-verlet, stormer)")
	cmd.Flags().StringVar(&finder, "finder", "", "neighbor finder (brute, cell, tree)")
	cmd.Flags().Float64Var(&cutoff, "cutoff", 0, "interaction cutoff")
	cmd.Flags().IntVar(&count, "n", 0, "particle count")
}

// loadConfig resolves precedence: preset, then config file, then flags that
// were set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", args[0], config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Run.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Run.Steps = steps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Particles.Seed = seed
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("finder") {
		cfg.Neighbor.Finder = finder
	}
	if cmd.Flags().Changed("cutoff") {
		cfg.Forces.Cutoff = cutoff
	}
	if cmd.Flags().Changed("n") {
		cfg.Particles.Count = count
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	simulator, runCfg, err := sim.Build(cfg)
	if err != nil {
		return err
	}

	var traj *storage.TrajectoryWriter
	if saveTraj {
		path := filepath.Join(dataDir, fmt.Sprintf("%s_%d_traj.csv.gz", cfg.Name, time.Now().Unix()))
		traj, err = storage.NewTrajectoryWriter(path, trajEvery)
		if err != nil {
			return err
		}
		simulator.AddObserver(traj)
		fmt.Printf("trajectory: %s\n", path)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%d particles, %d steps)...\n", cfg.Name, cfg.Particles.Count, cfg.Run.Steps)
	start := time.Now()
	result, err := simulator.Run(ctx, runCfg)
	if err != nil && result == nil {
		return err
	}
	elapsed := time.Since(start)

	if traj != nil {
		if cerr := traj.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "trajectory write failed: %v\n", cerr)
		}
	}

	info := storage.RunInfo{
		Name:       cfg.Name,
		Seed:       cfg.Particles.Seed,
		Particles:  cfg.Particles.Count,
		Integrator: cfg.Integrator,
		Finder:     cfg.Neighbor.Finder,
	}
	runID, serr := st.Save(info, runCfg, result)
	if serr != nil {
		return serr
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	printResult(result)

	if jsonPath != "" {
		if err := storage.ExportJSON(jsonPath, cfg.Name, cfg.Integrator, runCfg.Dt, result); err != nil {
			return err
		}
		fmt.Printf("exported: %s\n", jsonPath)
	}
	return err
}

func printResult(result *md.Result) {
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	if result.ForceClamps > 0 {
		fmt.Printf("force clamps: %d\n", result.ForceClamps)
	}
	if result.ShakeFailures > 0 || result.RattleFailures > 0 {
		fmt.Printf("constraint failures: shake=%d rattle=%d\n", result.ShakeFailures, result.RattleFailures)
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	simulator, runCfg, err := sim.Build(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := tui.Run(ctx, simulator, runCfg, cfg.Name)
	if result != nil {
		printResult(result)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSTEPS\tN\tINTEG\tFINDER\tDRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%.2e\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Particles,
			run.Integrator,
			run.Finder,
			run.EnergyDrift,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	_, kinetic, potential, err := st.LoadEnergies(args[0])
	if err != nil {
		return err
	}
	if len(kinetic) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(kinetic))

	total := make([]float64, len(kinetic))
	for i := range kinetic {
		total[i] = kinetic[i] + potential[i]
	}
	series := []struct {
		caption string
		data    []float64
	}{
		{"kinetic energy", kinetic},
		{"potential energy", potential},
		{"total energy", total},
	}
	for _, s := range series {
		fmt.Println(asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	return printJSON(meta)
}

// benchFinders runs the same short simulation once per neighbor finder and
// reports the step throughput of each.
func benchFinders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FINDER\tSTEPS/S\tPAIRS\tDRIFT")
	for _, name := range []string{"brute", "cell", "tree"} {
		bcfg := *cfg
		bcfg.Neighbor.Finder = name

		simulator, runCfg, err := sim.Build(&bcfg)
		if err != nil {
			fmt.Fprintf(w, "%s\tunsupported: %v\t\t\n", name, err)
			continue
		}
		start := time.Now()
		result, err := simulator.Run(context.Background(), runCfg)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		rate := float64(result.StepsTaken) / elapsed.Seconds()
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.2e\n",
			name, rate, result.Metrics["mean_pair_count"], result.EnergyDrift)
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ens := sim.NewEnsemble(cfg, numRuns, seedStart)
	results, err := ens.Run(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tMEAN T\tDRIFT\tMAX SPEED")
	for i, result := range results {
		fmt.Fprintf(w, "%d\t%.2f\t%.2e\t%.3f\n",
			seedStart+int64(i),
			result.Metrics["mean_temperature"],
			result.EnergyDrift,
			result.Metrics["max_speed"],
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	// Aggregate view over the whole ensemble.
	meanDrift := 0.0
	for _, result := range results {
		meanDrift += result.EnergyDrift
	}
	meanDrift /= float64(len(results))
	agg := metrics.Summarize(results[0])
	fmt.Printf("\nmean drift: %.2e\n", meanDrift)
	fmt.Printf("first run total energy: mean %.6g stddev %.3g\n", agg.Total.Mean, agg.Total.StdDev)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	_, kinetic, potential, err := st.LoadEnergies(args[0])
	if err != nil {
		return err
	}
	total := make([]float64, len(kinetic))
	for i := range kinetic {
		total[i] = kinetic[i] + potential[i]
	}

	fmt.Printf("run: %s\n", meta.ID)
	if freq, err := analysis.DominantFrequency(total, meta.Dt); err == nil {
		fmt.Printf("dominant energy oscillation: %.4g cycles per time unit\n\n", freq)
	}
	if ps := analysis.PowerSpectrum(total); len(ps) > 1 {
		fmt.Println(asciigraph.Plot(ps[1:],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum of total energy"),
		))
	}

	if trajPath != "" {
		frames, err := storage.ReadTrajectory(trajPath)
		if err != nil {
			return err
		}
		msd, err := analysis.MeanSquaredDisplacement(frames)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(msd,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("mean squared displacement"),
		))
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
