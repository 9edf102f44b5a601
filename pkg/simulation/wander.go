package simulation

import (
	"math/rand/v2"

	"github.com/aquilax/go-perlin"
)

// WanderSource produces the per-step wander angle increment for a boid.
// Implementations must be safe for concurrent use from multiple workers as
// long as each worker passes its own *rand.Rand.
type WanderSource interface {
	AngleDelta(r *rand.Rand, boid int, tick uint64) float32
}

// uniformWander is the reference source: a uniform random walk on the angle,
// drawing from [-jitter, +jitter] each step.
type uniformWander struct {
	jitter float32
}

func (u uniformWander) AngleDelta(r *rand.Rand, _ int, _ uint64) float32 {
	return (r.Float32() - 0.5) * 2 * u.jitter
}

// perlinWanderFreq is how fast the noise field is traversed per tick. Low
// values give long, lazy heading drifts; the per-boid lane offset decorrelates
// the flock.
const perlinWanderFreq = 0.05

// perlinWander drives the wander angle with smooth gradient noise instead of
// a random walk. Each boid samples its own lane of the 2D noise field, so
// headings drift smoothly and stay decorrelated across the flock. Fully
// deterministic for a given seed, boid index and tick.
type perlinWander struct {
	noise  *perlin.Perlin
	jitter float32
}

func newPerlinWander(seed int64, jitter float32) perlinWander {
	return perlinWander{
		noise:  perlin.NewPerlin(2, 2, 3, seed),
		jitter: jitter,
	}
}

func (p perlinWander) AngleDelta(_ *rand.Rand, boid int, tick uint64) float32 {
	n := p.noise.Noise2D(float64(tick)*perlinWanderFreq, float64(boid)*0.6180339887)
	return float32(n) * p.jitter
}

// newWanderSource builds the source selected by cfg.WanderNoise.
// Config.Validate has already rejected unknown modes.
func newWanderSource(cfg *Config, seed int64) WanderSource {
	if cfg.WanderNoise == WanderNoisePerlin {
		return newPerlinWander(seed, cfg.WanderJitter)
	}
	return uniformWander{jitter: cfg.WanderJitter}
}
