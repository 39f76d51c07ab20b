// Package config provides configuration loading and access for the simulator.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulator configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Solver     SolverConfig     `yaml:"solver"`
	Boundary   BoundaryConfig   `yaml:"boundary"`
	Fields     FieldsConfig     `yaml:"fields"`
	Audio      AudioConfig      `yaml:"audio"`
	Groove     GrooveConfig     `yaml:"groove"`
	Structure  StructureConfig  `yaml:"structure"`
	Prediction PredictionConfig `yaml:"prediction"`
	Modulation ModulationConfig `yaml:"modulation"`
	Perf       PerfConfig       `yaml:"perf"`
	GPU        GPUConfig        `yaml:"gpu"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display/viewport settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SolverConfig holds MLS-MPM solver parameters.
type SolverConfig struct {
	MaxParticles        int     `yaml:"max_particles"`
	InitialParticles    int     `yaml:"initial_particles"`
	BaseGridSize        int     `yaml:"base_grid_size"` // 64
	DT                  float64 `yaml:"dt"`
	Stiffness           float64 `yaml:"stiffness"`
	RestDensity         float64 `yaml:"rest_density"`
	DynamicViscosity    float64 `yaml:"dynamic_viscosity"`
	Noise               float64 `yaml:"noise"`
	TransferMode        string  `yaml:"transfer_mode"` // pic | flip | hybrid
	FlipRatio           float64 `yaml:"flip_ratio"`
	VorticityEnabled    bool    `yaml:"vorticity_enabled"`
	VorticityEpsilon    float64 `yaml:"vorticity_epsilon"`
	SurfaceTension      bool    `yaml:"surface_tension_enabled"`
	SurfaceTensionCoeff float64 `yaml:"surface_tension_coeff"`
	AdaptiveTimestep    bool    `yaml:"adaptive_timestep"`
	CFLTarget           float64 `yaml:"cfl_target"`
	FixedPointScale     float64 `yaml:"fixed_point_scale"` // 1e7
	GravityMode         string  `yaml:"gravity_mode"`      // back | down | centre | device
}

// BoundaryConfig holds default boundary-shape parameters.
type BoundaryConfig struct {
	Shape          string  `yaml:"shape"` // box | sphere | tube | dodecahedron | none
	WallThickness  float64 `yaml:"wall_thickness"`
	WallStiffness  float64 `yaml:"wall_stiffness"`
	Restitution    float64 `yaml:"restitution"`
	Friction       float64 `yaml:"friction"`
	CollisionMode  string  `yaml:"collision_mode"` // reflect | clamp | wrap | kill
	AudioReactive  bool    `yaml:"audio_reactive"`
	AudioPulseGain float64 `yaml:"audio_pulse_gain"`
}

// FieldsConfig holds force-field / emitter registry capacity and defaults.
type FieldsConfig struct {
	MaxForceFields  int     `yaml:"max_force_fields"`
	MaxEmitters     int     `yaml:"max_emitters"`
	TurbulenceScale float64 `yaml:"turbulence_scale"`
}

// AudioConfig holds audio feature-extraction parameters.
type AudioConfig struct {
	SampleRate        int     `yaml:"sample_rate"`
	FFTSize           int     `yaml:"fft_size"`
	Smoothing         float64 `yaml:"smoothing"` // alpha for smoothed bands, default 0.88
	BassMinHz         float64 `yaml:"bass_min_hz"`
	BassMaxHz         float64 `yaml:"bass_max_hz"`
	MidMaxHz          float64 `yaml:"mid_max_hz"`
	TrebleMaxHz       float64 `yaml:"treble_max_hz"`
	BeatThreshold     float64 `yaml:"beat_threshold"` // sigma multiplier
	BeatDecay         float64 `yaml:"beat_decay"`
	MinBeatIntervalMs float64 `yaml:"min_beat_interval_ms"`
	StallFrames       int     `yaml:"stall_frames"` // N=30
	StallHalfLifeSec  float64 `yaml:"stall_half_life_sec"`
}

// GrooveConfig holds groove-engine parameters.
type GrooveConfig struct {
	HistoryCapacity   int     `yaml:"history_capacity"`    // <=128
	MinBeatsForUpdate int     `yaml:"min_beats_for_update"` // 8
	SmoothingAlpha    float64 `yaml:"smoothing_alpha"`      // 0.3
	PatternSimilarity float64 `yaml:"pattern_similarity"`   // 0.7
}

// StructureConfig holds the section/structure analyser parameters.
type StructureConfig struct {
	EnergyHistorySec  float64 `yaml:"energy_history_sec"`  // ~10s
	TensionHistoryLen int     `yaml:"tension_history_len"` // ~100 samples
	MinSectionSec     float64 `yaml:"min_section_sec"`     // 4s
	MaxSectionSec     float64 `yaml:"max_section_sec"`     // 32s
	EnergyDeltaThresh float64 `yaml:"energy_delta_thresh"` // 0.15
}

// PredictionConfig holds predictive-beat-timing parameters.
type PredictionConfig struct {
	MaxIOIHistory     int     `yaml:"max_ioi_history"`    // <=32
	StableCVThreshold float64 `yaml:"stable_cv_threshold"` // 0.1
	PredictedBeats    int     `yaml:"predicted_beats"`    // 4-8
	RegenIntervalMs   float64 `yaml:"regen_interval_ms"`  // 100ms
}

// ModulationConfig holds modulation-router routing intensities.
type ModulationConfig struct {
	PulseForce               float64 `yaml:"pulse_force"`
	FlowTurbulence           float64 `yaml:"flow_turbulence"`
	ShimmerColor             float64 `yaml:"shimmer_color"`
	WarpSpatial              float64 `yaml:"warp_spatial"`
	DensitySpawn             float64 `yaml:"density_spawn"`
	AuraBloom                float64 `yaml:"aura_bloom"`
	TimelineSmoothing        float64 `yaml:"timeline_smoothing"`
	TransitionResponsiveness float64 `yaml:"transition_responsiveness"`
	StiffnessMin             float64 `yaml:"stiffness_min"`
	StiffnessMax             float64 `yaml:"stiffness_max"`
	ViscosityMin             float64 `yaml:"viscosity_min"`
	ViscosityMax             float64 `yaml:"viscosity_max"`
	ParticleInfluence        float64 `yaml:"particle_influence"`
	BaseNoise                float64 `yaml:"base_noise"`
	BaseSpeed                float64 `yaml:"base_speed"`
}

// PerfConfig holds the adaptive performance controller's thresholds.
type PerfConfig struct {
	HighToMediumFPS      float64 `yaml:"high_to_medium_fps"`      // 45
	HighToMediumFrames   int     `yaml:"high_to_medium_frames"`   // 45
	MediumToLowFPS       float64 `yaml:"medium_to_low_fps"`       // 30
	MediumToLowFrames    int     `yaml:"medium_to_low_frames"`    // 30
	RecoverToHighFPS     float64 `yaml:"recover_to_high_fps"`     // 70
	RecoverToHighFrames  int     `yaml:"recover_to_high_frames"`  // 180
	ManualOverrideFrames int     `yaml:"manual_override_frames"`  // 600
}

// GPUConfig holds compute-backend selection and texture sizing.
type GPUConfig struct {
	Backend             string `yaml:"backend"` // "gpu" | "cpu"
	ResourceTextureSize int    `yaml:"resource_texture_size"`
	WorkgroupSize       int    `yaml:"workgroup_size"`
}

// TelemetryConfig holds telemetry/dashboard output settings.
type TelemetryConfig struct {
	OutputDir         string  `yaml:"output_dir"`
	WindowDurationSec float64 `yaml:"window_duration_sec"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32            float32
	FixedPointScale float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error. Intended for process startup
// only; never call from within the solver/pipeline packages themselves.
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
// If path is empty, only embedded defaults are used. A small allowlist of
// hot-path values can be overridden via SOUP_* environment variables.
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
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.computeDerived()

	return cfg, nil
}

// WriteYAML writes cfg to path as YAML, for tools that want to persist a
// tuned configuration (cmd/calibrate).
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets operators override a few hot-path values without
// editing YAML, e.g. SOUP_MAX_PARTICLES=16384.
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("SOUP_MAX_PARTICLES"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Solver.MaxParticles = n
		}
	}
	if v, ok := os.LookupEnv("SOUP_SAMPLE_RATE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Audio.SampleRate = n
		}
	}
	if v, ok := os.LookupEnv("SOUP_GPU_BACKEND"); ok {
		cfg.GPU.Backend = v
	}
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Solver.DT)
	c.Derived.FixedPointScale = float32(c.Solver.FixedPointScale)
}
