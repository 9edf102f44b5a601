package simulation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var configSchema string

// Wander noise modes. "uniform" is the reference behavior: a uniform random
// walk on the wander angle. "perlin" drives the angle with smooth gradient
// noise instead.
const (
	WanderNoiseUniform = "uniform"
	WanderNoisePerlin  = "perlin"
)

// Config holds every tunable of the simulation. The defaults reproduce the
// reference flock behavior; hosts override selectively.
type Config struct {
	// World Dimensions
	WorldWidth  float32 `json:"worldWidth"`
	WorldHeight float32 `json:"worldHeight"`

	// Population
	NumBoids int `json:"numBoids"`

	// Spatial grid
	CellSize     float32 `json:"cellSize"`     // must be >= NeighborRadius
	MaxNeighbors int     `json:"maxNeighbors"` // per-query result cap

	// Interaction Radii
	NeighborRadius   float32 `json:"neighborRadius"`   // alignment + cohesion
	SeparationRadius float32 `json:"separationRadius"` // personal space
	PanicRadius      float32 `json:"panicRadius"`      // predator flee cutoff

	// Steering weights
	SeparationWeight float32 `json:"separationWeight"`
	AlignmentWeight  float32 `json:"alignmentWeight"`
	CohesionWeight   float32 `json:"cohesionWeight"`
	WanderWeight     float32 `json:"wanderWeight"`
	FleeWeight       float32 `json:"fleeWeight"`

	// Physics limits
	MaxSpeed float32 `json:"maxSpeed"`
	MaxForce float32 `json:"maxForce"`

	// Wander drive
	WanderRadius   float32 `json:"wanderRadius"`
	WanderDistance float32 `json:"wanderDistance"`
	WanderJitter   float32 `json:"wanderJitter"` // max angle change per step, radians
	WanderNoise    string  `json:"wanderNoise"`

	// Runtime
	Workers int   `json:"workers"` // 0 = GOMAXPROCS
	Seed    int64 `json:"seed"`    // 0 = time-based
}

// DefaultConfig returns the reference parameter set.
func DefaultConfig() *Config {
	return &Config{
		WorldWidth:       1200,
		WorldHeight:      800,
		NumBoids:         300,
		CellSize:         50,
		MaxNeighbors:     64,
		NeighborRadius:   50,
		SeparationRadius: 25,
		PanicRadius:      100,
		SeparationWeight: 1.5,
		AlignmentWeight:  0.3,
		CohesionWeight:   0.5,
		WanderWeight:     0.8,
		FleeWeight:       3.0,
		MaxSpeed:         2.5,
		MaxForce:         0.15,
		WanderRadius:     2.0,
		WanderDistance:   4.0,
		WanderJitter:     0.25,
		WanderNoise:      WanderNoiseUniform,
		Workers:          0,
		Seed:             0,
	}
}

// Validate checks the fatal preconditions of a configuration.
// The critical one: the grid cell size must be at least the neighbor radius,
// otherwise the 3x3 cell query misses true neighbors and flocking quality
// silently degrades. We fail fast instead.
func (c *Config) Validate() error {
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		return fmt.Errorf("world dimensions must be positive, got %gx%g", c.WorldWidth, c.WorldHeight)
	}
	if c.NumBoids < 0 {
		return fmt.Errorf("numBoids must be >= 0, got %d", c.NumBoids)
	}
	if c.CellSize <= 0 {
		return fmt.Errorf("cellSize must be positive, got %g", c.CellSize)
	}
	if c.CellSize < c.NeighborRadius {
		return fmt.Errorf("cellSize %g is smaller than neighborRadius %g: the 3x3 grid query would miss neighbors", c.CellSize, c.NeighborRadius)
	}
	if c.MaxNeighbors <= 0 {
		return fmt.Errorf("maxNeighbors must be positive, got %d", c.MaxNeighbors)
	}
	if c.MaxSpeed <= 0 || c.MaxForce <= 0 {
		return fmt.Errorf("maxSpeed and maxForce must be positive, got %g / %g", c.MaxSpeed, c.MaxForce)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	switch c.WanderNoise {
	case WanderNoiseUniform, WanderNoisePerlin:
	default:
		return fmt.Errorf("unknown wanderNoise %q", c.WanderNoise)
	}
	return nil
}

// LoadConfig loads configuration from a JSON file and validates it against
// the embedded schema, then against the runtime preconditions.
func LoadConfig(configFile string) (*Config, error) {
	sch, err := jsonschema.CompileString("config.schema.json", configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Start from defaults so a partial file only overrides what it names.
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
