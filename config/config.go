// Package config provides configuration loading and access for the evaluation harness.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all harness configuration parameters.
type Config struct {
	Maze       MazeConfig       `yaml:"maze"`
	Agent      AgentConfig      `yaml:"agent"`
	Simulation SimulationConfig `yaml:"simulation"`
	Fitness    FitnessConfig    `yaml:"fitness"`
	Curriculum CurriculumConfig `yaml:"curriculum"`
	Stagnation StagnationConfig `yaml:"stagnation"`
	Diversity  DiversityConfig  `yaml:"diversity"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Population PopulationConfig `yaml:"population"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// MazeConfig holds maze generation and food placement parameters.
type MazeConfig struct {
	NumSmallFood      int `yaml:"num_small_food"`
	NumBigFood        int `yaml:"num_big_food"`
	MinFoodDistance   int `yaml:"min_food_distance"`   // BFS distance threshold for food cells
	RelaxedDistance   int `yaml:"relaxed_distance"`    // Fallback threshold when too few cells qualify
	DistanceCacheSize int `yaml:"distance_cache_size"` // Bounded entries in the BFS distance cache
}

// AgentConfig holds the energy model parameters.
type AgentConfig struct {
	MaxEnergy       float64 `yaml:"max_energy"`
	StepCost        float64 `yaml:"step_cost"`      // Passive drain per tick
	CollisionCost   float64 `yaml:"collision_cost"` // Extra cost when walking into a wall
	SmallFoodEnergy float64 `yaml:"small_food_energy"`
	BigFoodEnergy   float64 `yaml:"big_food_energy"`
}

// SimulationConfig holds per-generation rollout parameters.
type SimulationConfig struct {
	MaxTicks     int `yaml:"max_ticks"`     // Rollout tick budget per candidate
	SettleCycles int `yaml:"settle_cycles"` // Network activations per tick before reading outputs
	Workers      int `yaml:"workers"`       // Concurrent rollouts (0 = GOMAXPROCS)
}

// FitnessConfig holds the component formula parameters.
type FitnessConfig struct {
	Floor              float64 `yaml:"floor"`              // Absolute minimum fitness
	DegenerateFitness  float64 `yaml:"degenerate_fitness"` // Fixed value below the activity gate
	SmallFoodScore     float64 `yaml:"small_food_score"`
	BigFoodScore       float64 `yaml:"big_food_score"`
	SurvivalPerTick    float64 `yaml:"survival_per_tick"`
	SurvivalTransform  string  `yaml:"survival_transform"` // "linear" or "log"
	ExplorationMode    string  `yaml:"exploration_mode"`   // "unique" or "entropy"
	ExplorationPerCell float64 `yaml:"exploration_per_cell"`
	EntropyBlockSize   int     `yaml:"entropy_block_size"` // Region size for entropy mode
	EntropyScale       float64 `yaml:"entropy_scale"`      // Score at maximum entropy
	MovementPerDir     float64 `yaml:"movement_per_dir"`
	CollisionPenalty   float64 `yaml:"collision_penalty"`
	CollisionDecay     float64 `yaml:"collision_decay"` // >0 discounts late collisions exponentially
	PathEfficiency     bool    `yaml:"path_efficiency"` // Enable the directness bonus
	PathEfficiencyMax  float64 `yaml:"path_efficiency_max"`
	NormalizeFood      bool    `yaml:"normalize_food"`   // Scale food score by available food
	CollectionBonus    float64 `yaml:"collection_bonus"` // Multiplier once collection rate > 50%
	IdleRunPenalty     float64 `yaml:"idle_run_penalty"` // Per tick of the longest no-movement run
}

// CurriculumConfig holds the weight schedule parameters.
type CurriculumConfig struct {
	Schedule          string  `yaml:"schedule"`            // "sigmoid" or "phased"
	Midpoint1         float64 `yaml:"midpoint1"`           // Exploration -> food transition center
	Rate1             float64 `yaml:"rate1"`
	Midpoint2         float64 `yaml:"midpoint2"`           // Food -> efficiency transition center
	Rate2             float64 `yaml:"rate2"`
	ProximityMaxGen   int     `yaml:"proximity_max_gen"`   // Proximity bonus only before this generation
	Phase2Generation  int     `yaml:"phase2_generation"`   // Phased schedule boundaries
	Phase3Generation  int     `yaml:"phase3_generation"`
	Phase2AvgFood     float64 `yaml:"phase2_avg_food"`     // Early advancement when avg food collected reaches this
	WeightEpsilon     float64 `yaml:"weight_epsilon"`      // Floor for all component weights
	ActivityGateBase  int     `yaml:"activity_gate_base"`  // Minimum distinct cells before the gate lifts
	ActivityGateSlope float64 `yaml:"activity_gate_slope"` // Gate growth per 100 generations
}

// StagnationConfig holds stagnation detection and mutation pressure parameters.
type StagnationConfig struct {
	MinHistory         int     `yaml:"min_history"` // Generations before detection activates
	RecentWindow       int     `yaml:"recent_window"`
	Margin             float64 `yaml:"margin"` // Relative improvement required (1.02 = 2%)
	MildThreshold      int     `yaml:"mild_threshold"`
	ModerateThreshold  int     `yaml:"moderate_threshold"`
	SevereThreshold    int     `yaml:"severe_threshold"`
	MildScale          float64 `yaml:"mild_scale"`
	ModerateScale      float64 `yaml:"moderate_scale"`
	SevereScale        float64 `yaml:"severe_scale"`
	WarmupGenerations  int     `yaml:"warmup_generations"` // No adjustments before this generation
	ExploitAfterGen    int     `yaml:"exploit_after_gen"`
	ExploitImprovement float64 `yaml:"exploit_improvement"` // Recent gain that triggers exploitation mode
	ExploitScale       float64 `yaml:"exploit_scale"`
}

// DiversityConfig holds diversity injection parameters.
type DiversityConfig struct {
	RetentionFraction  float64 `yaml:"retention_fraction"`
	PlaceholderFitness float64 `yaml:"placeholder_fitness"`
}

// ArchiveConfig holds genome archive settings.
type ArchiveConfig struct {
	Size           int    `yaml:"size"`            // Top-K per list
	RobustnessRuns int    `yaml:"robustness_runs"` // Randomized layouts for the robustness re-score
	Path           string `yaml:"path"`            // JSON persistence target
}

// PopulationConfig holds the orchestration-side reproduction parameters.
type PopulationConfig struct {
	Size           int     `yaml:"size"`
	TournamentSize int     `yaml:"tournament_size"`
	Elitism        int     `yaml:"elitism"`
	CrossoverProb  float64 `yaml:"crossover_prob"`
	ConnectionProb float64 `yaml:"connection_prob"` // Initial genome connectivity
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	EliteFraction      float64 `yaml:"elite_fraction"`      // Share of genomes in the component breakdown
	DominanceThreshold float64 `yaml:"dominance_threshold"` // Component share that flags imbalance
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TotalFood int // NumSmallFood + NumBigFood
	Workers   int // Effective worker count
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
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
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

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.TotalFood = c.Maze.NumSmallFood + c.Maze.NumBigFood

	workers := c.Simulation.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	c.Derived.Workers = workers
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
