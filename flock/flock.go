// Package flock simulates grouped boids in a toroidal box. Boids steer by
// alignment, cohesion and separation within their own group, and look for
// an opening whenever an obstacle lies ahead.
package flock

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/telemetry"
)

// Buffering selects which state steering reads during a frame.
type Buffering uint8

const (
	// Snapshot steers every boid from the frame-start state, then
	// integrates all of them.
	Snapshot Buffering = iota
	// InPlace steers and integrates each boid in turn, so later boids see
	// earlier boids' updated state.
	InPlace
)

func (b Buffering) String() string {
	if b == InPlace {
		return "in_place"
	}
	return "snapshot"
}

// ParseBuffering maps a config name to a Buffering. Empty means Snapshot.
func ParseBuffering(name string) (Buffering, error) {
	switch name {
	case "", "snapshot":
		return Snapshot, nil
	case "in_place":
		return InPlace, nil
	}
	return Snapshot, fmt.Errorf("unknown buffering %q", name)
}

// Config holds the simulation dials.
type Config struct {
	NumBoids int
	Range    r3.Vec // Half-extents of the region

	PerceptionRadius float64
	PerceptionAngle  float64 // Degrees

	Alignment  float64
	Cohesion   float64
	Separation float64

	MaxVelocity     float64
	MaxAcceleration float64

	Frames         int
	NumGroups      int
	AvoidanceDelay int
	ProbeCount     int
	Buffering      Buffering
	LogEvery       int
}

// NewConfig converts the flock section of a loaded configuration.
func NewConfig(c *config.Config) (Config, error) {
	f := c.Flock
	buf, err := ParseBuffering(f.Buffering)
	if err != nil {
		return Config{}, err
	}
	return Config{
		NumBoids:         f.NumBoids,
		Range:            r3.Vec{X: c.Derived.Range[0], Y: c.Derived.Range[1], Z: c.Derived.Range[2]},
		PerceptionRadius: f.PerceptionRadius,
		PerceptionAngle:  f.PerceptionAngle,
		Alignment:        f.AlignmentStrength,
		Cohesion:         f.CohesionStrength,
		Separation:       f.SeparationStrength,
		MaxVelocity:      f.MaxVelocity,
		MaxAcceleration:  f.MaxAcceleration,
		Frames:           f.Frames,
		NumGroups:        f.NumGroups,
		AvoidanceDelay:   f.AvoidanceDelay,
		ProbeCount:       c.Derived.ProbeCount,
		Buffering:        buf,
		LogEvery:         f.LogEvery,
	}, nil
}

// Sim owns the boids of one run.
type Sim struct {
	cfg       Config
	world     *ecs.World
	mapper    *ecs.Map2[components.Kinematics, components.Agent]
	filter    *ecs.Filter2[components.Kinematics, components.Agent]
	boids     []ecs.Entity // Creation order
	obstacles []Obstacle
	probes    []r3.Vec
	grid      *grid
	perf      *telemetry.PerfCollector
	frame     int

	// Scratch buffers reused across frames
	snapshot  []components.Kinematics
	nearby    []int
	neighbors []components.Kinematics
}

// New creates a simulation and spawns cfg.NumBoids boids from rng. Each
// boid draws its position inside the region less one unit, then a
// velocity with components in [-0.5, 0.5), then its group.
func New(cfg Config, rng *rand.Rand, obstacles []Obstacle) *Sim {
	if cfg.NumGroups < 1 {
		cfg.NumGroups = 1
	}
	world := ecs.NewWorld()
	s := &Sim{
		cfg:       cfg,
		world:     world,
		mapper:    ecs.NewMap2[components.Kinematics, components.Agent](world),
		filter:    ecs.NewFilter2[components.Kinematics, components.Agent](world),
		obstacles: obstacles,
		probes:    Probes(cfg.ProbeCount),
	}
	if cfg.PerceptionRadius > 0 {
		s.grid = newGrid(cfg.Range, cfg.PerceptionRadius)
	}

	uniform := func(a, b float64) float64 { return a + (b-a)*rng.Float64() }
	for i := 0; i < cfg.NumBoids; i++ {
		k := components.Kinematics{
			Position: r3.Vec{
				X: uniform(-cfg.Range.X+1, cfg.Range.X-1),
				Y: uniform(-cfg.Range.Y+1, cfg.Range.Y-1),
				Z: uniform(-cfg.Range.Z+1, cfg.Range.Z-1),
			},
			Velocity: r3.Vec{
				X: uniform(-0.5, 0.5),
				Y: uniform(-0.5, 0.5),
				Z: uniform(-0.5, 0.5),
			},
		}
		s.Spawn(k, rng.Intn(cfg.NumGroups))
	}
	return s
}

// Spawn adds a boid with the given state and group and returns its ID.
func (s *Sim) Spawn(k components.Kinematics, group int) int {
	a := components.Agent{
		ID:              len(s.boids),
		Group:           group,
		MaxVelocity:     s.cfg.MaxVelocity,
		MaxAcceleration: s.cfg.MaxAcceleration,
	}
	s.boids = append(s.boids, s.mapper.NewEntity(&k, &a))
	return a.ID
}

// SetPerf enables phase timing; each frame is one tick.
func (s *Sim) SetPerf(p *telemetry.PerfCollector) {
	s.perf = p
}

// Tune replaces the rule strengths for subsequent frames.
func (s *Sim) Tune(alignment, cohesion, separation float64) {
	s.cfg.Alignment = alignment
	s.cfg.Cohesion = cohesion
	s.cfg.Separation = separation
}

// Config returns the active configuration.
func (s *Sim) Config() Config {
	return s.cfg
}

// Len returns the number of boids.
func (s *Sim) Len() int {
	return len(s.boids)
}

// Boid returns the state of boid id.
func (s *Sim) Boid(id int) (components.Kinematics, components.Agent) {
	k, a := s.mapper.Get(s.boids[id])
	return *k, *a
}

// Obstacles returns the solids boids avoid.
func (s *Sim) Obstacles() []Obstacle {
	return s.obstacles
}

func (s *Sim) phase(name string) {
	if s.perf != nil {
		s.perf.StartPhase(name)
	}
}

// Census counts boids per group.
func (s *Sim) Census() []int {
	counts := make([]int, s.cfg.NumGroups)
	query := s.filter.Query()
	for query.Next() {
		_, a := query.Get()
		if a.Group >= 0 && a.Group < len(counts) {
			counts[a.Group]++
		}
	}
	return counts
}

// Frame is the outcome of one simulation step.
type Frame struct {
	Index int
	Poses []Pose
	Stats telemetry.FrameStats
}

// Run simulates cfg.Frames frames and returns them all.
func (s *Sim) Run() []Frame {
	frames := make([]Frame, 0, s.cfg.Frames)
	for i := 0; i < s.cfg.Frames; i++ {
		frames = append(frames, s.Step())
	}
	return frames
}

// Step advances every boid by one frame.
func (s *Sim) Step() Frame {
	if s.perf != nil {
		s.perf.StartTick()
	}

	if s.cfg.Buffering == InPlace {
		s.stepInPlace()
	} else {
		s.stepSnapshot()
	}

	if s.perf != nil {
		s.perf.EndTick()
	}

	f := Frame{Index: s.frame, Poses: s.Poses(), Stats: s.stats()}
	if s.cfg.LogEvery > 0 && s.frame%s.cfg.LogEvery == 0 {
		slog.Info("flock frame", "stats", f.Stats)
	}
	s.frame++
	return f
}

func (s *Sim) stepSnapshot() {
	s.snapshot = s.snapshot[:0]
	for _, e := range s.boids {
		k, _ := s.mapper.Get(e)
		s.snapshot = append(s.snapshot, *k)
	}

	if s.grid != nil {
		s.grid.clear()
		for i, k := range s.snapshot {
			s.grid.insert(i, k.Position)
		}
	}

	for i, e := range s.boids {
		k, a := s.mapper.Get(e)
		k.Acceleration = s.steer(i, s.snapshot[i], a, s.snapshot, true)
	}

	s.phase(telemetry.PhaseIntegration)
	for _, e := range s.boids {
		k, a := s.mapper.Get(e)
		Integrate(k, a.MaxVelocity, s.cfg.Range)
	}
}

func (s *Sim) stepInPlace() {
	for i, e := range s.boids {
		s.snapshot = s.snapshot[:0]
		for _, other := range s.boids {
			k, _ := s.mapper.Get(other)
			s.snapshot = append(s.snapshot, *k)
		}

		k, a := s.mapper.Get(e)
		k.Acceleration = s.steer(i, *k, a, s.snapshot, false)

		s.phase(telemetry.PhaseIntegration)
		Integrate(k, a.MaxVelocity, s.cfg.Range)
	}
}

// steer computes the acceleration for boid i from the given view of the
// flock and advances its avoidance state.
func (s *Sim) steer(i int, self components.Kinematics, a *components.Agent, view []components.Kinematics, useGrid bool) r3.Vec {
	s.phase(telemetry.PhasePerception)
	s.neighbors = s.perceive(i, self, a.Group, view, useGrid)
	a.Neighbors = len(s.neighbors)

	s.phase(telemetry.PhaseSteering)
	alignment := r3.Scale(s.cfg.Alignment, Align(self, s.neighbors, a.MaxVelocity, a.MaxAcceleration))
	cohesion := r3.Scale(s.cfg.Cohesion, Cohesion(self, s.neighbors, a.MaxVelocity, a.MaxAcceleration))
	separation := r3.Scale(s.cfg.Separation, Separation(self, s.neighbors, a.MaxVelocity, a.MaxAcceleration))

	s.phase(telemetry.PhaseAvoidance)
	avoidance, hit := s.avoid(self, a)
	if hit {
		a.Cooldown = s.cfg.AvoidanceDelay
	}

	s.phase(telemetry.PhaseArbitration)
	suppressed := a.Cooldown > 0
	if suppressed {
		a.Cooldown--
	}
	a.Avoiding = suppressed
	return r3.Add(self.Acceleration, Arbitrate(avoidance, separation, cohesion, alignment, a.MaxAcceleration, suppressed))
}

// perceive returns the boids of the same group that boid i sees, in
// creation order.
func (s *Sim) perceive(i int, self components.Kinematics, group int, view []components.Kinematics, useGrid bool) []components.Kinematics {
	out := s.neighbors[:0]
	consider := func(j int) {
		_, other := s.mapper.Get(s.boids[j])
		if other.Group != group {
			return
		}
		if Perceives(self.Position, view[j].Position, self.Velocity, s.cfg.PerceptionRadius, s.cfg.PerceptionAngle) {
			out = append(out, view[j])
		}
	}

	if useGrid && s.grid != nil {
		s.nearby = s.grid.queryInto(s.nearby[:0], self.Position, s.cfg.PerceptionRadius, i)
		for _, j := range s.nearby {
			consider(j)
		}
		return out
	}
	for j := range view {
		if j != i {
			consider(j)
		}
	}
	return out
}

// avoid casts a ray along the heading against every obstacle. If one is
// hit within the perception radius, it looks through the probes, in
// boid-local order, for the first direction that clears the nearest
// obstacle and steers that way. The second result reports the hit even
// when every probe is blocked.
func (s *Sim) avoid(self components.Kinematics, a *components.Agent) (r3.Vec, bool) {
	if len(s.obstacles) == 0 || self.Velocity == (r3.Vec{}) {
		return r3.Vec{}, false
	}

	dir := r3.Unit(self.Velocity)
	var nearest Obstacle
	best := 0.0
	for _, o := range s.obstacles {
		p, ok, err := o.Raycast(self.Position, dir, s.cfg.PerceptionRadius)
		if err != nil {
			slog.Debug("obstacle query failed", "boid", a.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if d := r3.Norm(r3.Sub(p, self.Position)); nearest == nil || d < best {
			nearest, best = o, d
		}
	}
	if nearest == nil {
		return r3.Vec{}, false
	}

	basis := BasisFor(self.Velocity)
	for _, probe := range s.probes {
		w := basis.ToWorld(probe)
		_, ok, err := nearest.Raycast(self.Position, w, s.cfg.PerceptionRadius)
		if err != nil {
			slog.Debug("obstacle query failed", "boid", a.ID, "error", err)
			ok = false
		}
		if !ok {
			return steer(w, self.Velocity, a.MaxVelocity, a.MaxAcceleration), true
		}
	}
	return r3.Vec{}, true
}

// Integrate moves k by its velocity, then applies and clears the
// acceleration with speed capped at maxVel. Positions reaching a region
// wall are moved to the opposite wall.
func Integrate(k *components.Kinematics, maxVel float64, half r3.Vec) {
	k.Position = r3.Add(k.Position, k.Velocity)
	k.Velocity = limit(r3.Add(k.Velocity, k.Acceleration), maxVel)
	k.Acceleration = r3.Vec{}
	k.Position = Wrap(k.Position, half)
}

// Wrap teleports each component of p at or beyond ±half to the opposite
// boundary.
func Wrap(p, half r3.Vec) r3.Vec {
	wrap := func(v, r float64) float64 {
		if v >= r {
			return -r
		}
		if v <= -r {
			return r
		}
		return v
	}
	return r3.Vec{X: wrap(p.X, half.X), Y: wrap(p.Y, half.Y), Z: wrap(p.Z, half.Z)}
}

func (s *Sim) stats() telemetry.FrameStats {
	speeds := make([]float64, 0, len(s.boids))
	neighbors := make([]float64, 0, len(s.boids))
	st := telemetry.FrameStats{Frame: s.frame, Boids: len(s.boids)}
	for _, e := range s.boids {
		k, a := s.mapper.Get(e)
		speeds = append(speeds, r3.Norm(k.Velocity))
		neighbors = append(neighbors, float64(a.Neighbors))
		if a.Avoiding {
			st.Avoiding++
		}
	}
	for _, c := range s.Census() {
		if c > 0 {
			st.Groups++
		}
	}
	st.SpeedMean, st.SpeedP10, st.SpeedP50, st.SpeedP90 = telemetry.ComputeSpeedStats(speeds)
	st.NeighborsMean, st.NeighborsStd = telemetry.ComputeSpread(neighbors)
	return st
}
