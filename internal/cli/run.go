package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/HunRotation/umato/pkg/cache"
	"github.com/HunRotation/umato/pkg/config"
	"github.com/HunRotation/umato/pkg/dataset"
	"github.com/HunRotation/umato/pkg/errors"
	"github.com/HunRotation/umato/pkg/graph"
	"github.com/HunRotation/umato/pkg/layout"
	"github.com/HunRotation/umato/pkg/pipeline"
	"github.com/HunRotation/umato/pkg/render"
	"github.com/HunRotation/umato/pkg/store"
)

// =============================================================================
// Run Command
// =============================================================================

// runFlags collects the flags of the run command.
type runFlags struct {
	configPath string
	dataPath   string
	graphPath  string
	simPath    string
	outPath    string

	epochs        int
	maxIter       int
	seed          int64
	workers       int
	snapshotDir   string
	snapshotEvery int

	noCache   bool
	refresh   bool
	redisAddr string

	persist  bool
	storeDir string

	tui bool
}

func (c *CLI) runCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the two-stage embedding pipeline on a dataset",
		Long: `Run optimizes a low-dimensional embedding of a point dataset.

The initial coordinates are read from a CSV file, the neighbor graph from a
JSON file. When a similarity matrix CSV is supplied, the local pass is
followed by a dense global refinement. Hyperparameters come from a TOML
config file and can be overridden per flag.`,
		Example: `  # Embed with defaults
  umato run --data iris_init.csv --graph iris_graph.json -o embedding.csv

  # Full pipeline with config file and snapshots
  umato run -c run.toml --similarity iris_p.csv --snapshot-dir snaps

  # Live progress display, persist the run
  umato run -c run.toml --tui --store`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&flags.dataPath, "data", "", "initial coordinates CSV (overrides config)")
	cmd.Flags().StringVar(&flags.graphPath, "graph", "", "neighbor graph JSON")
	cmd.Flags().StringVar(&flags.simPath, "similarity", "", "similarity matrix CSV (enables global refinement)")
	cmd.Flags().StringVarP(&flags.outPath, "output", "o", "", "embedding output CSV (overrides config)")

	cmd.Flags().IntVar(&flags.epochs, "epochs", 0, "local optimization epochs (overrides config)")
	cmd.Flags().IntVar(&flags.maxIter, "max-iter", 0, "global refinement iterations (overrides config)")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "random seed (overrides config)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "parallel edge workers, >1 is non-deterministic (overrides config)")
	cmd.Flags().StringVar(&flags.snapshotDir, "snapshot-dir", "", "write SVG snapshots into this directory (overrides config)")
	cmd.Flags().IntVar(&flags.snapshotEvery, "snapshot-every", 10, "snapshot interval in epochs/iterations")

	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "recompute even on a cache hit")
	cmd.Flags().StringVar(&flags.redisAddr, "redis", "", "use a Redis cache at this address instead of the file cache")

	cmd.Flags().BoolVar(&flags.persist, "store", false, "persist the completed run")
	cmd.Flags().StringVar(&flags.storeDir, "store-dir", "", "run store directory (overrides config)")

	cmd.Flags().BoolVar(&flags.tui, "tui", false, "show live epoch progress")

	return cmd
}

func (c *CLI) runRun(cmd *cobra.Command, flags *runFlags) error {
	ctx := withLogger(cmd.Context(), c.Logger)

	cfg, err := c.loadRunConfig(flags)
	if err != nil {
		return err
	}
	dataPath := firstNonEmpty(flags.dataPath, cfg.Input.Path)
	outPath := firstNonEmpty(flags.outPath, cfg.Output.Path)
	if dataPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no dataset: pass --data or set input.path in the config")
	}
	if flags.graphPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no neighbor graph: pass --graph")
	}
	if outPath == "" {
		outPath = "embedding.csv"
	}

	if cfg.Local.Workers > 1 {
		printWarning("workers=%d: parallel runs are not bit-reproducible", cfg.Local.Workers)
	}

	ds, g, p, err := loadRunInputs(ctx, dataPath, flags.graphPath, flags.simPath, cfg)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache, flags.redisAddr)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipeline.Options{
		Coords:             ds.Points,
		Graph:              g,
		P:                  p,
		Labels:             ds.Labels,
		NEpochs:            cfg.Local.NEpochs,
		InitialAlpha:       cfg.Local.InitialAlpha,
		Gamma:              cfg.Local.Gamma,
		NegativeSampleRate: cfg.Local.NegativeSampleRate,
		Workers:            cfg.Local.Workers,
		MaxIter:            cfg.Global.MaxIter,
		GlobalAlpha:        cfg.Global.Alpha,
		ComputeCost:        cfg.Global.ComputeCost,
		Curve:              layout.Curve{A: cfg.Curve.A, B: cfg.Curve.B},
		Seed:               cfg.Seed,
		Refresh:            flags.refresh,
		SnapshotEvery:      flags.snapshotEvery,
		Logger:             c.Logger,
	}
	if dir := firstNonEmpty(flags.snapshotDir, cfg.Output.SnapshotDir); dir != "" {
		opts.Snapshot = render.NewSVGSink(dir, render.DefaultOptions())
	}

	result, err := c.executePipeline(ctx, runner, opts, flags.tui)
	if err != nil {
		return err
	}

	printSuccess("Embedding optimized")
	printStats(result.Stats.Points, result.Stats.EdgeCount, result.CacheInfo.LocalHit && (p == nil || result.CacheInfo.GlobalHit))
	printDetail("local %s · global %s", result.Stats.LocalTime.Round(time.Millisecond), result.Stats.GlobalTime.Round(time.Millisecond))
	if n := len(result.Costs); n > 0 {
		printDetail("DTM divergence %.6f → %.6f over %d iterations", result.Costs[0], result.Costs[n-1], n)
	}

	out := &dataset.Dataset{Points: result.Embedding, Labels: ds.Labels}
	if err := dataset.ExportCSV(out, outPath); err != nil {
		return err
	}
	printFile(outPath)

	if flags.persist {
		id, err := persistRun(ctx, firstNonEmpty(flags.storeDir, cfg.Output.StoreDir), dataPath, cfg, ds.Labels, result)
		if err != nil {
			return err
		}
		printDetail("stored run %s", id)
		printNewline()
		printNextStep("Inspect it", fmt.Sprintf("umato serve  # then GET /api/runs/%s", id))
	}

	return nil
}

// loadRunConfig loads the TOML config, falling back to defaults without a
// file, then layers flag overrides on top.
func (c *CLI) loadRunConfig(flags *runFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if flags.epochs > 0 {
		cfg.Local.NEpochs = flags.epochs
	}
	if flags.maxIter > 0 {
		cfg.Global.MaxIter = flags.maxIter
	}
	if flags.seed != 0 {
		cfg.Seed = flags.seed
	}
	if flags.workers > 0 {
		cfg.Local.Workers = flags.workers
	}
	return cfg, nil
}

// loadRunInputs reads the coordinate CSV, the graph JSON, and the optional
// similarity matrix, validating shapes before any optimization starts.
func loadRunInputs(ctx context.Context, dataPath, graphPath, simPath string, cfg config.Config) (*dataset.Dataset, *graph.Graph, [][]float64, error) {
	logger := loggerFromContext(ctx)
	track := newProgress(logger)

	ds, err := dataset.ImportCSV(dataPath, dataset.ReadOptions{
		HasHeader:   cfg.Input.HasHeader,
		LabelColumn: cfg.Input.LabelColumn,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	g, err := graph.ReadFile(graphPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := g.Validate(ds.Len(), ds.Len()); err != nil {
		return nil, nil, nil, err
	}

	var p [][]float64
	if simPath != "" {
		sim, err := dataset.ImportCSV(simPath, dataset.DefaultReadOptions())
		if err != nil {
			return nil, nil, nil, err
		}
		if err := errors.ValidateSquare(sim.Points, ds.Len()); err != nil {
			return nil, nil, nil, err
		}
		p = sim.Points
	}

	track.done(fmt.Sprintf("Loaded %d points, %d edges", ds.Len(), g.EdgeCount()))
	return ds, g, p, nil
}

// executePipeline runs the pipeline with either the spinner or the live
// progress TUI attached.
func (c *CLI) executePipeline(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, tui bool) (*pipeline.Result, error) {
	if tui {
		return runWithProgressTUI(ctx, runner, opts)
	}

	sp := newSpinnerWithContext(ctx, "optimizing embedding...")
	sp.Start()
	result, err := runner.Execute(ctx, opts)
	sp.Stop()
	if sp.Cancelled() {
		return nil, context.Canceled
	}
	return result, err
}

// persistRun saves a completed run to the store and returns its ID.
func persistRun(ctx context.Context, dir, dataPath string, cfg config.Config, labels []int, result *pipeline.Result) (string, error) {
	st, err := newStore(dir)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run := store.NewRun()
	run.DatasetPath = dataPath
	if data, err := os.ReadFile(dataPath); err == nil {
		run.DatasetHash = cache.Hash(data)
	}
	run.Options = store.RunOptions{
		NEpochs:            cfg.Local.NEpochs,
		InitialAlpha:       cfg.Local.InitialAlpha,
		Gamma:              cfg.Local.Gamma,
		NegativeSampleRate: cfg.Local.NegativeSampleRate,
		MaxIter:            cfg.Global.MaxIter,
		GlobalAlpha:        cfg.Global.Alpha,
		CurveA:             cfg.Curve.A,
		CurveB:             cfg.Curve.B,
		Seed:               cfg.Seed,
	}
	run.Embedding = result.Embedding
	run.Labels = labels
	run.Costs = result.Costs
	run.LocalMillis = result.Stats.LocalTime.Milliseconds()
	run.GlobalMillis = result.Stats.GlobalTime.Milliseconds()

	if err := st.Save(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
