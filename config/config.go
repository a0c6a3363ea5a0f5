// Package config provides configuration loading and access for sponge and flock generation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all generation parameters.
type Config struct {
	Seed      int64           `yaml:"seed"`
	Noise     NoiseConfig     `yaml:"noise"`
	Sponge    SpongeConfig    `yaml:"sponge"`
	Flock     FlockConfig     `yaml:"flock"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// NoiseConfig selects the noise basis used by displacement.
type NoiseConfig struct {
	Basis      string `yaml:"basis"`       // perlin or opensimplex
	SeedOffset int64  `yaml:"seed_offset"` // Added to the run seed for the noise field
}

// SpongeConfig holds sea sponge generation parameters.
type SpongeConfig struct {
	Count      int     `yaml:"count"`
	MinRadius  float64 `yaml:"min_radius"`
	MaxRadius  float64 `yaml:"max_radius"`
	Rotundness float64 `yaml:"rotundness"` // Radial rotundness, 0.25-0.75
	MinHeight  float64 `yaml:"min_height"`
	MaxHeight  float64 `yaml:"max_height"`
	Resolution int     `yaml:"resolution"` // u steps; v gets 4x
	CloseV     bool    `yaml:"close_v"`

	// Rotation ranges in degrees
	XRot int `yaml:"x_rot"`
	YRot int `yaml:"y_rot"`
	ZRot int `yaml:"z_rot"`

	TexturingScheme     string  `yaml:"texturing_scheme"`
	BumpScale           int     `yaml:"bump_scale"` // 1-10, higher = bumpier
	TurbulenceOctaves   int     `yaml:"turbulence_octaves"`
	TurbulenceAmplitude float64 `yaml:"turbulence_amplitude"`
	TurbulenceFrequency float64 `yaml:"turbulence_frequency"`
	DnoiseDist          float64 `yaml:"dnoise_dist"` // Stucco finite-difference step

	ShadingScheme string  `yaml:"shading_scheme"`
	RedChannel    float64 `yaml:"red_channel"`
	GreenChannel  float64 `yaml:"green_channel"`
	BlueChannel   float64 `yaml:"blue_channel"`
}

// FlockConfig holds boid simulation parameters.
type FlockConfig struct {
	NumBoids int `yaml:"num_boids"`

	// Half-extents of the toroidal region
	XRange float64 `yaml:"x_range"`
	YRange float64 `yaml:"y_range"`
	ZRange float64 `yaml:"z_range"`

	PerceptionRadius float64 `yaml:"perception_radius"`
	PerceptionAngle  float64 `yaml:"perception_angle"` // Degrees

	AlignmentStrength  float64 `yaml:"alignment_strength"`
	CohesionStrength   float64 `yaml:"cohesion_strength"`
	SeparationStrength float64 `yaml:"separation_strength"`

	MaxVelocity     float64 `yaml:"max_velocity"`
	MaxAcceleration float64 `yaml:"max_acceleration"`

	Frames         int    `yaml:"frames"`
	NumGroups      int    `yaml:"num_groups"`
	AvoidanceDelay int    `yaml:"avoidance_delay"` // Frames of avoid-only steering after a hit
	ProbeCount     int    `yaml:"probe_count"`
	Buffering      string `yaml:"buffering"` // snapshot or in_place
	LogEvery       int    `yaml:"log_every"`

	RegionObstacle bool             `yaml:"region_obstacle"` // Treat the region walls as an obstacle
	Obstacles      []ObstacleConfig `yaml:"obstacles"`
}

// ObstacleConfig describes a solid the boids steer around.
type ObstacleConfig struct {
	Kind        string     `yaml:"kind"` // box or sphere
	Center      [3]float64 `yaml:"center"`
	HalfExtents [3]float64 `yaml:"half_extents"`
	Radius      float64    `yaml:"radius"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow int `yaml:"perf_window"`
}

// LogConfig holds structured logging parameters.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // Empty = stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Range      [3]float64 // Flock half-extents as an array
	ProbeCount int        // Probe count with fallback applied
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Range = [3]float64{c.Flock.XRange, c.Flock.YRange, c.Flock.ZRange}

	c.Derived.ProbeCount = c.Flock.ProbeCount
	if c.Derived.ProbeCount <= 1 {
		c.Derived.ProbeCount = 200
	}
}

// FieldError reports a configuration value outside its accepted range.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate checks every dial before any generation work starts.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, field, reason string) {
		if !ok {
			errs = append(errs, &FieldError{Field: field, Reason: reason})
		}
	}

	s := c.Sponge
	check(s.Count >= 0, "sponge.count", "must not be negative")
	check(s.Resolution >= 1, "sponge.resolution", "must be at least 1")
	check(s.MinRadius >= 0 && s.MaxRadius >= 0, "sponge.radius", "must not be negative")
	check(s.MinHeight > 0 && s.MaxHeight > 0, "sponge.height", "must be positive")
	check(s.BumpScale >= 1 && s.BumpScale <= 10, "sponge.bump_scale", "must be within 1-10")
	check(s.TurbulenceOctaves >= 0, "sponge.turbulence_octaves", "must not be negative")
	check(s.XRot >= 0 && s.YRot >= 0 && s.ZRot >= 0, "sponge.rot", "must not be negative")
	check(s.TexturingScheme != "stucco" || s.DnoiseDist > 0, "sponge.dnoise_dist", "must be positive for stucco")
	channels := []struct {
		name  string
		value float64
	}{
		{"red_channel", s.RedChannel},
		{"green_channel", s.GreenChannel},
		{"blue_channel", s.BlueChannel},
	}
	for _, ch := range channels {
		check(ch.value >= 0 && ch.value <= 1, "sponge."+ch.name, "must be within 0-1")
	}

	f := c.Flock
	check(f.NumBoids >= 0, "flock.num_boids", "must not be negative")
	check(f.XRange > 0 && f.YRange > 0 && f.ZRange > 0, "flock.range", "must be positive")
	check(f.PerceptionRadius >= 0, "flock.perception_radius", "must not be negative")
	check(f.PerceptionAngle >= 0 && f.PerceptionAngle <= 180, "flock.perception_angle", "must be within 0-180")
	check(f.MaxVelocity >= 0, "flock.max_velocity", "must not be negative")
	check(f.MaxAcceleration >= 0, "flock.max_acceleration", "must not be negative")
	check(f.Frames >= 0, "flock.frames", "must not be negative")
	check(f.NumGroups >= 1, "flock.num_groups", "must be at least 1")
	check(f.AvoidanceDelay >= 0, "flock.avoidance_delay", "must not be negative")
	check(f.Buffering == "" || f.Buffering == "snapshot" || f.Buffering == "in_place", "flock.buffering", "must be snapshot or in_place")
	for i, o := range f.Obstacles {
		field := fmt.Sprintf("flock.obstacles[%d]", i)
		switch o.Kind {
		case "box":
			check(o.HalfExtents[0] > 0 && o.HalfExtents[1] > 0 && o.HalfExtents[2] > 0, field, "box half extents must be positive")
		case "sphere":
			check(o.Radius > 0, field, "sphere radius must be positive")
		default:
			check(false, field, fmt.Sprintf("unknown kind %q", o.Kind))
		}
	}

	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
