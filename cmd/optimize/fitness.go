package main

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/flock"
	"github.com/pthm-cable/reef/telemetry"
)

// FitnessEvaluator runs headless flock simulations and computes fitness.
type FitnessEvaluator struct {
	params          *ParamVector
	frames          int
	seeds           []int64
	baseConfig      *config.Config
	targetNeighbors float64

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, frames int, seeds []int64, baseCfg *config.Config, targetNeighbors float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:          params,
		frames:          frames,
		seeds:           seeds,
		baseConfig:      baseCfg,
		targetNeighbors: targetNeighbors,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the per-frame series from a single simulation run.
type runResult struct {
	stats        []telemetry.FrameStats
	polarization []float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated mean flocking quality across seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel
	qualities := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result, err := fe.runSimulation(cfg, s)
			if err != nil {
				return
			}
			qualities[idx] = fe.computeQuality(result)
		}(i, seed)
	}
	wg.Wait()

	quality := floats.Sum(qualities) / float64(len(qualities))

	fe.mu.Lock()
	fe.lastQuality = quality
	fe.mu.Unlock()

	return -quality
}

// runSimulation executes a single headless flock run.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) (*runResult, error) {
	fc, err := flock.NewConfig(cfg)
	if err != nil {
		return nil, err
	}
	fc.LogEvery = 0
	obstacles, err := flock.BuildObstacles(cfg.Flock)
	if err != nil {
		return nil, err
	}

	sim := flock.New(fc, rand.New(rand.NewSource(seed)), obstacles)
	result := &runResult{
		stats:        make([]telemetry.FrameStats, 0, fe.frames),
		polarization: make([]float64, 0, fe.frames),
	}
	for i := 0; i < fe.frames; i++ {
		f := sim.Step()
		result.stats = append(result.stats, f.Stats)
		result.polarization = append(result.polarization, polarization(sim))
	}
	return result, nil
}

// polarization is the length of the mean unit heading: 1 when every boid
// flies the same way, near 0 for a disordered swarm.
func polarization(sim *flock.Sim) float64 {
	n := sim.Len()
	if n == 0 {
		return 0
	}
	var sum r3.Vec
	for i := 0; i < n; i++ {
		k, _ := sim.Boid(i)
		if r3.Norm(k.Velocity) == 0 {
			continue
		}
		sum = r3.Add(sum, r3.Unit(k.Velocity))
	}
	return r3.Norm(sum) / float64(n)
}

// copyConfig creates a copy of the base config. Nested slices are shared
// and treated as read-only.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// Quality component weights.
const (
	qualityWeightNeighbors    = 0.35
	qualityWeightPolarization = 0.30
	qualityWeightCalm         = 0.20
	qualityWeightStability    = 0.15

	qualityWarmupFrac = 0.25 // skip the first quarter of frames
)

// computeQuality computes flocking quality ∈ [0, 1] from a run.
func (fe *FitnessEvaluator) computeQuality(r *runResult) float64 {
	start := int(float64(len(r.stats)) * qualityWarmupFrac)
	if start >= len(r.stats) {
		return 0
	}
	valid := r.stats[start:]

	neighbors := make([]float64, len(valid))
	var neighborSum, calmSum float64
	for i, s := range valid {
		neighbors[i] = s.NeighborsMean

		// 1. Neighborhood size near target
		rel := (s.NeighborsMean - fe.targetNeighbors) / fe.targetNeighbors
		neighborSum += math.Exp(-rel * rel)

		// 3. Few boids busy avoiding obstacles
		if s.Boids > 0 {
			calmSum += 1 - float64(s.Avoiding)/float64(s.Boids)
		}
	}
	n := float64(len(valid))

	neighborScore := neighborSum / n
	calmScore := calmSum / n

	// 2. Heading order
	polarizationScore := floats.Sum(r.polarization[start:]) / n

	// 4. Neighborhood stability (CV across frames)
	cvN := cv(neighbors)
	stabilityScore := math.Exp(-cvN * cvN)

	quality := qualityWeightNeighbors*neighborScore +
		qualityWeightPolarization*polarizationScore +
		qualityWeightCalm*calmScore +
		qualityWeightStability*stabilityScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	mean, std := telemetry.ComputeSpread(values)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
