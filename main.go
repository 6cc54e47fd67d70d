package main

import (
	"flag"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pthm-cable/gyre/config"
	"github.com/pthm-cable/gyre/currents"
	"github.com/pthm-cable/gyre/field"
	"github.com/pthm-cable/gyre/grid"
	"github.com/pthm-cable/gyre/telemetry"
)

// monthRun is one month's finished simulation, kept in slice order so output
// files are stable regardless of which goroutine finished first.
type monthRun struct {
	name   string
	result *currents.Result
	frames *telemetry.FrameRecorder
	perf   *telemetry.PerfCollector
	err    error
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	gridPath := flag.String("grid", "", "Path to the coast-distance grid CSV (empty = all-ocean grid)")
	outputDir := flag.String("output-dir", "out", "Output directory for CSV files and config snapshot")
	captureMonth := flag.String("capture-month", "", "Month to capture per-step frames for (overrides config)")
	seed := flag.Int64("seed", 0, "Seed for impact thinning (0 = use config)")
	rows := flag.Int("rows", 0, "Grid rows (0 = use config)")
	cols := flag.Int("cols", 0, "Grid columns (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seed != 0 {
		cfg.Physics.Seed = *seed
	}
	if *rows > 0 {
		cfg.World.Rows = *rows
	}
	if *cols > 0 {
		cfg.World.Cols = *cols
	}
	cfg.ComputeDerived()
	capture := cfg.Telemetry.CaptureMonth
	if *captureMonth != "" {
		capture = *captureMonth
	}

	g, err := loadGrid(*gridPath, cfg)
	if err != nil {
		slog.Error("failed to load grid", "path", *gridPath, "error", err)
		os.Exit(1)
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	slog.Info("starting current derivation",
		"rows", g.Rows,
		"cols", g.Cols,
		"months", len(cfg.Months),
		"output_dir", om.Dir(),
	)
	start := time.Now()

	// The wall field depends only on geography, so all months share one.
	fld := field.Build(g, cfg.Physics.CollisionBuffer, cfg.Physics.SmoothingIters)

	// One engine per month, run concurrently. Each engine owns its own
	// world and collector; only the shared field is read from both.
	runs := make([]monthRun, len(cfg.Months))
	var wg sync.WaitGroup
	for i, month := range cfg.Months {
		wg.Add(1)
		go func(i int, month config.MonthConfig) {
			defer wg.Done()
			runs[i] = runMonth(g, fld, cfg, month, capture)
		}(i, month)
	}
	wg.Wait()

	failed := false
	for _, run := range runs {
		if run.err != nil {
			slog.Error("month failed", "month", run.name, "error", run.err)
			failed = true
			continue
		}
		if err := writeMonth(om, run); err != nil {
			slog.Error("failed to write output", "month", run.name, "error", err)
			failed = true
			continue
		}
		logSummary(run)
		if cfg.Telemetry.PerfLog {
			run.perf.Log(run.name)
		}
	}
	if failed {
		os.Exit(1)
	}

	slog.Info("done", "elapsed", time.Since(start).Round(time.Millisecond).String())
}

// loadGrid reads the coast-distance grid, or builds an all-ocean grid at the
// configured resolution when no path is given.
func loadGrid(path string, cfg *config.Config) (*grid.Grid, error) {
	if path == "" {
		return grid.FromDistanceFunc(cfg.World.Rows, cfg.World.Cols, func(row, col int) float64 {
			return -1000
		})
	}
	return grid.LoadCSV(path, cfg.World.Rows, cfg.World.Cols)
}

// runMonth executes one month's engine.
func runMonth(g *grid.Grid, fld *field.Field, cfg *config.Config, month config.MonthConfig, capture string) monthRun {
	run := monthRun{name: month.Name, perf: telemetry.NewPerfCollector()}

	opts := []currents.Option{
		currents.WithField(fld),
		currents.WithPerf(run.perf),
	}
	if capture == month.Name {
		run.frames = telemetry.NewFrameRecorder(month.Name)
		opts = append(opts, currents.WithRecorder(run.frames))
	}

	line := grid.FlatITCZ(month.ITCZLat, g)
	eng, err := currents.New(g, line, cfg, opts...)
	if err != nil {
		run.err = err
		return run
	}
	run.result, run.err = eng.Run()
	return run
}

// writeMonth appends one month's rows to the shared output files.
func writeMonth(om *telemetry.OutputManager, run monthRun) error {
	if err := om.WriteStreamlines(run.result.StreamlineRows(run.name)); err != nil {
		return err
	}
	if err := om.WriteImpacts(run.result.ImpactRows(run.name)); err != nil {
		return err
	}
	if err := om.WriteDiagnostics(run.result.DiagnosticRows(run.name)); err != nil {
		return err
	}
	return om.WriteFrames(run.frames)
}

func logSummary(run monthRun) {
	s := run.result.Summary
	slog.Info("month complete",
		"month", run.name,
		"streamlines", len(run.result.Streamlines),
		"phase1_spawned", s.Phase1Spawned,
		"phase2_spawned", s.Phase2Spawned,
		"impacts", s.Impacts,
		"slides", s.Slides,
		"recoveries", s.Recoveries,
		"prunes", s.Prunes,
		"stagnations", s.Stagnations,
		"arrivals", s.Arrivals,
		"polar_exits", s.PolarExits,
		"mean_length", s.MeanLength,
		"median_length", s.MedianLength,
		"causes", s.Causes,
	)
}
