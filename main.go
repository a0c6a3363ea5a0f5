package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/flock"
	"github.com/pthm-cable/reef/noise"
	"github.com/pthm-cable/reef/sponge"
	"github.com/pthm-cable/reef/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mode := flag.String("mode", "flock", "What to generate: sponge or flock")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	frames := flag.Int("frames", 0, "Flock frames to simulate (0 = use config)")
	logFile := flag.String("log-file", "", "Rotating log file (empty = use config, then stdout)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (empty = use config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *frames > 0 {
		cfg.Flock.Frames = *frames
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	cfg.Seed = rngSeed

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	if om != nil {
		slog.Info("writing telemetry", "dir", om.Dir())
	}
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	switch *mode {
	case "sponge":
		err = runSponges(cfg, rngSeed, om)
	case "flock":
		err = runFlock(cfg, rngSeed, om)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}

	if cerr := om.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		slog.Error("run failed", "mode", *mode, "error", err)
		closeLog()
		os.Exit(1)
	}
}

// newLogger builds the JSON logger. Output goes to a rotating file when
// one is configured, stdout otherwise.
func newLogger(lc config.LogConfig) (*slog.Logger, func(), error) {
	var level slog.Level
	if lc.Level != "" {
		if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
	}

	var w io.Writer = os.Stdout
	closeFn := func() {}
	if lc.File != "" {
		lj := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   lc.Compress,
		}
		w = lj
		closeFn = func() { lj.Close() }
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), closeFn, nil
}

func runSponges(cfg *config.Config, seed int64, om *telemetry.OutputManager) error {
	field, err := noise.New(cfg.Noise.Basis, seed+cfg.Noise.SeedOffset)
	if err != nil {
		return err
	}
	gen, err := sponge.NewGenerator(cfg.Sponge, rand.New(rand.NewSource(seed)), field)
	if err != nil {
		return err
	}
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	gen.SetPerf(perf)

	slog.Info("generating sponges",
		"seed", seed,
		"count", cfg.Sponge.Count,
		"texturing", cfg.Sponge.TexturingScheme,
		"shading", cfg.Sponge.ShadingScheme,
	)

	sink := &sponge.MemorySink{}
	sponges, err := gen.Generate(sink)
	if err != nil {
		return err
	}
	for _, s := range sponges {
		if err := om.WriteSponge(s.Record()); err != nil {
			return err
		}
	}

	mesh, paint := sponge.Join(sponges)
	stats := perf.Stats()
	stats.LogStats()
	if err := om.WritePerf(stats, int32(len(sponges))); err != nil {
		return err
	}

	slog.Info("sponges complete",
		"sponges", len(sink.Objects),
		"vertices", len(mesh.Vertices),
		"faces", len(mesh.Faces),
		"materials", len(paint.Materials),
	)
	return nil
}

func runFlock(cfg *config.Config, seed int64, om *telemetry.OutputManager) error {
	fc, err := flock.NewConfig(cfg)
	if err != nil {
		return err
	}
	obstacles, err := flock.BuildObstacles(cfg.Flock)
	if err != nil {
		return err
	}

	sim := flock.New(fc, rand.New(rand.NewSource(seed)), obstacles)
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	sim.SetPerf(perf)

	slog.Info("starting flock simulation",
		"seed", seed,
		"boids", sim.Len(),
		"frames", fc.Frames,
		"groups", sim.Census(),
		"obstacles", len(obstacles),
		"buffering", fc.Buffering.String(),
	)

	window := cfg.Telemetry.PerfWindow
	for i := 0; i < fc.Frames; i++ {
		f := sim.Step()
		if err := om.WritePoses(flock.Records(f.Poses)); err != nil {
			return err
		}
		if err := om.WriteFrameStats(f.Stats); err != nil {
			return err
		}
		if window > 0 && (i+1)%window == 0 {
			stats := perf.Stats()
			stats.LogStats()
			if err := om.WritePerf(stats, int32(i)); err != nil {
				return err
			}
		}
	}

	slog.Info("flock complete", "frames", fc.Frames, "census", sim.Census())
	return nil
}
