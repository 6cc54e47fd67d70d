// Package config provides configuration loading and access for the current engine.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Months    []MonthConfig   `yaml:"months"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions.
type WorldConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// MonthConfig selects one simulated month and its convergence line.
type MonthConfig struct {
	Name    string  `yaml:"name"`
	ITCZLat float64 `yaml:"itcz_lat"` // flat convergence latitude in degrees
}

// PhysicsConfig holds all tunable constants of the current engine.
// Values are in grid-cell units per outer step unless noted otherwise.
type PhysicsConfig struct {
	BaseSpeed       float64 `yaml:"base_speed"`        // reference speed, cells per step
	EastwardAccel   float64 `yaml:"eastward_accel"`    // fraction of base speed applied as drive per step
	CollisionBuffer float64 `yaml:"collision_buffer"`  // added to coast distance before smoothing
	SmoothingIters  int     `yaml:"smoothing_iters"`   // 3x3 box blur passes over the wall field
	PatternForce    float64 `yaml:"pattern_force"`     // phase-1 spring constant toward the ITCZ row
	MaxDeflection   float64 `yaml:"max_deflection"`    // rows of allowed drift off the ITCZ before exit
	ReturnGapDeg    float64 `yaml:"return_gap_deg"`    // latitude gap between ITCZ and return-current targets
	PolewardDrift   float64 `yaml:"poleward_drift"`    // constant poleward bias on return agents
	Spring          float64 `yaml:"spring"`            // phase-2 spring constant
	Damping         float64 `yaml:"damping"`           // phase-2 base damping
	DampingWindow   float64 `yaml:"damping_window"`    // rows; damping rises toward critical inside this error
	MaxSteps        int     `yaml:"max_steps"`         // outer step budget per pass
	SubSteps        int     `yaml:"sub_steps"`         // integration sub-steps per outer step
	SpawnOffsetKm   float64 `yaml:"spawn_offset_km"`   // extra westward offset for return-current spawns
	MaxSpeedFactor  float64 `yaml:"max_speed_factor"`  // speed clamp as a multiple of base speed
	SpeedFloor      float64 `yaml:"speed_floor"`       // fraction of base speed below which agents exit
	ShallowLimit    float64 `yaml:"shallow_limit"`     // field value above which a spawn column is landlocked
	DeepWaterLimit  float64 `yaml:"deep_water_limit"`  // field value below which water counts as deep
	ImpactThreshold float64 `yaml:"impact_threshold"`  // inward velocity component declaring a head-on hit
	SlideEpsilon    float64 `yaml:"slide_epsilon"`     // outward nudge after a glancing hit, cells
	BisectIters     int     `yaml:"bisect_iters"`      // bisection refinements of the wall crossing
	StagnationSteps int     `yaml:"stagnation_steps"`  // trailing window for stagnation detection
	StagnationDist  float64 `yaml:"stagnation_dist"`   // minimum net displacement over the window, cells
	PruneSimilarity float64 `yaml:"prune_similarity"`  // cosine similarity above which agents are pruned
	CrawlBuffer     float64 `yaml:"crawl_buffer"`      // field value above -buffer counts as hugging a wall
	CrawlLatTol     float64 `yaml:"crawl_lat_tol"`     // rows; crawl only while this far from target
	CrawlSpeed      float64 `yaml:"crawl_speed"`       // tangential crawl speed as fraction of base speed
	WallBuffer      float64 `yaml:"wall_buffer"`       // soft repulsion range in field units
	Repulsion       float64 `yaml:"repulsion"`         // soft repulsion strength
	InfantAge       int32   `yaml:"infant_age"`        // arrivals younger than this are flagged
	PolarExitLat    float64 `yaml:"polar_exit_lat"`    // absolute latitude ending return agents
	MinSamples      int     `yaml:"min_samples"`       // trajectories need more samples than this
	ImpactKeepRatio float64 `yaml:"impact_keep_ratio"` // fraction of EC impacts kept (1.0 = all)
	Seed            int64   `yaml:"seed"`              // seed for the impact-thinning generator
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	CaptureMonth string `yaml:"capture_month"` // month name for per-step frame capture ("" = off)
	PerfLog      bool   `yaml:"perf_log"`      // log per-phase timings
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SubDT       float64 // 1 / SubSteps
	MaxSpeed    float64 // BaseSpeed * MaxSpeedFactor
	MinSpeed    float64 // BaseSpeed * SpeedFloor
	DriveAccel  float64 // BaseSpeed * EastwardAccel
	GapRows     float64 // ReturnGapDeg converted to rows
	SpawnStride int     // Cols / 64, at least 1
}

// maxTrailLen mirrors the fixed capacity of components.Trail.
const maxTrailLen = 16

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

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
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
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.World.Rows <= 0 || c.World.Cols <= 0 {
		return fmt.Errorf("world: invalid resolution %dx%d", c.World.Cols, c.World.Rows)
	}
	if c.Physics.SubSteps < 1 {
		return fmt.Errorf("physics: sub_steps must be at least 1, got %d", c.Physics.SubSteps)
	}
	if c.Physics.MaxSteps < 1 {
		return fmt.Errorf("physics: max_steps must be at least 1, got %d", c.Physics.MaxSteps)
	}
	if c.Physics.StagnationSteps > maxTrailLen {
		return fmt.Errorf("physics: stagnation_steps %d exceeds trail capacity %d",
			c.Physics.StagnationSteps, maxTrailLen)
	}
	if c.Physics.ImpactKeepRatio < 0 || c.Physics.ImpactKeepRatio > 1 {
		return fmt.Errorf("physics: impact_keep_ratio must be in [0,1], got %v", c.Physics.ImpactKeepRatio)
	}
	return nil
}

// ComputeDerived recalculates values derived from the loaded config.
// Call after mutating fields directly (tests do this).
func (c *Config) ComputeDerived() {
	c.Derived.SubDT = 1.0 / float64(c.Physics.SubSteps)
	c.Derived.MaxSpeed = c.Physics.BaseSpeed * c.Physics.MaxSpeedFactor
	c.Derived.MinSpeed = c.Physics.BaseSpeed * c.Physics.SpeedFloor
	c.Derived.DriveAccel = c.Physics.BaseSpeed * c.Physics.EastwardAccel
	c.Derived.GapRows = c.Physics.ReturnGapDeg * float64(c.World.Rows) / 180.0
	c.Derived.SpawnStride = c.World.Cols / 64
	if c.Derived.SpawnStride < 1 {
		c.Derived.SpawnStride = 1
	}
}

// CriticalDamping returns the critical damping coefficient for the phase-2 spring.
func (c *Config) CriticalDamping() float64 {
	return 2 * math.Sqrt(c.Physics.Spring)
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
