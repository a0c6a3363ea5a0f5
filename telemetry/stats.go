package telemetry

import (
	"log/slog"
	"math"
	"sort"
)

// FrameStats holds aggregated flock statistics for one frame.
type FrameStats struct {
	Frame    int `csv:"frame"`
	Boids    int `csv:"boids"`
	Avoiding int `csv:"avoiding"`
	Groups   int `csv:"groups"` // Groups with at least one boid

	// Speed distribution
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Perceived neighbor counts
	NeighborsMean float64 `csv:"neighbors_mean"`
	NeighborsStd  float64 `csv:"neighbors_std"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSpeedStats calculates mean and percentiles from speed values.
func ComputeSpeedStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeSpread calculates the mean and population standard deviation.
func ComputeSpread(values []float64) (mean, std float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	var sqDiffSum float64
	for _, v := range values {
		d := v - mean
		sqDiffSum += d * d
	}
	return mean, math.Sqrt(sqDiffSum / float64(n))
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frame", s.Frame),
		slog.Int("boids", s.Boids),
		slog.Int("avoiding", s.Avoiding),
		slog.Int("groups", s.Groups),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("neighbors_mean", s.NeighborsMean),
		slog.Float64("neighbors_std", s.NeighborsStd),
	)
}

// LogStats logs the frame stats using slog.
func (s FrameStats) LogStats() {
	slog.Info("flock",
		"frame", s.Frame,
		"boids", s.Boids,
		"avoiding", s.Avoiding,
		"groups", s.Groups,
		"speed_mean", s.SpeedMean,
		"speed_p50", s.SpeedP50,
		"neighbors_mean", s.NeighborsMean,
	)
}
