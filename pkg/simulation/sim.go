package simulation

import (
	"math/rand/v2"
	"runtime"
	"slices"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ryanamatt/Fish-Predator/pkg/geometry"
)

// boidStride is the size of one boid record in float32s. StateView exposes
// the boid slice to the host as a flat float array with this stride.
const boidStride = int(unsafe.Sizeof(Boid{}) / unsafe.Sizeof(float32(0)))

// Boid must stay padding-free: StateView aliases []Boid as []float32.
var _ [unsafe.Sizeof(Boid{}) - 9*unsafe.Sizeof(float32(0))]byte
var _ [9*unsafe.Sizeof(float32(0)) - unsafe.Sizeof(Boid{})]byte

// Simulation owns the boid population and the per-frame orchestration:
// rebuild the spatial grid, run the chunked parallel update over all boids,
// wrap positions back into the world.
//
// Step and RemoveBoids mutate shared state and must be serialized by the
// caller; the parallelism lives inside Step, not around it.
type Simulation struct {
	cfg   *Config
	boids []Boid
	grid  *SpatialGrid

	// snap holds the frame-start pos/vel of every boid. Workers read
	// neighbor state only from here, so the parallel phase has no shared
	// mutable state: each worker writes nothing but its own boids.
	snap []State

	workers int
	rngs    []*rand.Rand
	wander  WanderSource
	tick    uint64

	log   *zap.Logger
	runID string

	// step-rate telemetry
	stepsSinceLog int
	lastLog       time.Time
}

// Option configures a Simulation at construction.
type Option func(*Simulation)

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

// New creates a simulation with cfg.NumBoids boids at random positions, each
// with a random heading and a speed in [1.0, 2.5]. A nil cfg means
// DefaultConfig. Construction fails fast on an inconsistent configuration;
// every operation after that is total.
func New(cfg *Config, opts ...Option) (*Simulation, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Simulation{
		cfg:     cfg,
		grid:    NewSpatialGrid(cfg.WorldWidth, cfg.WorldHeight, cfg.CellSize),
		workers: workers,
		wander:  newWanderSource(cfg, seed),
		log:     zap.NewNop(),
		runID:   uuid.NewString(),
		lastLog: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("run", s.runID))

	// Stream 0 seeds the population; each worker owns streams 1..workers so
	// the parallel phase never contends on a shared source.
	spawnRNG := rand.New(rand.NewPCG(uint64(seed), 0))
	s.rngs = make([]*rand.Rand, workers)
	for w := 0; w < workers; w++ {
		s.rngs[w] = rand.New(rand.NewPCG(uint64(seed), uint64(w+1)))
	}

	s.boids = make([]Boid, 0, cfg.NumBoids)
	for i := 0; i < cfg.NumBoids; i++ {
		x := spawnRNG.Float32() * cfg.WorldWidth
		y := spawnRNG.Float32() * cfg.WorldHeight
		s.boids = append(s.boids, NewBoid(spawnRNG, x, y, cfg.MaxSpeed, cfg.MaxForce))
	}
	s.snap = make([]State, len(s.boids))

	s.log.Info("simulation ready",
		zap.Int("boids", len(s.boids)),
		zap.Float32("worldWidth", cfg.WorldWidth),
		zap.Float32("worldHeight", cfg.WorldHeight),
		zap.Int("workers", workers),
		zap.Int("gridCols", s.grid.Cols()),
		zap.Int("gridRows", s.grid.Rows()),
	)
	return s, nil
}

// Len returns the current boid count.
func (s *Simulation) Len() int {
	return len(s.boids)
}

// Config returns the simulation's configuration.
func (s *Simulation) Config() *Config {
	return s.cfg
}

// Step advances the simulation by one frame.
//
// The grid rebuild is deliberately single-threaded: sequential insertion has
// better cache locality than synchronized insertion into shared buckets and
// needs no locking at all. Once the grid and snapshot stand, the update phase
// fans out over contiguous, equal-sized index chunks, one per worker. Each
// worker reads neighbor state from the snapshot and writes only its own
// boids, so the whole frame needs exactly one barrier: the Wait between
// rebuild and nothing-left-to-update.
func (s *Simulation) Step(predator geometry.Vector2D) {
	start := time.Now()
	s.tick++

	s.grid.Clear()
	for i := range s.boids {
		s.grid.Insert(s.boids[i].Pos, int32(i))
	}

	n := len(s.boids)
	if cap(s.snap) < n {
		s.snap = make([]State, n)
	}
	s.snap = s.snap[:n]
	for i := range s.boids {
		s.snap[i] = State{Pos: s.boids[i].Pos, Vel: s.boids[i].Vel}
	}

	if n > 0 {
		chunk := (n + s.workers - 1) / s.workers
		var g errgroup.Group
		for w := 0; w < s.workers; w++ {
			lo := w * chunk
			if lo >= n {
				break
			}
			hi := min(lo+chunk, n)
			rng := s.rngs[w]
			g.Go(func() error {
				s.updateRange(lo, hi, rng, predator)
				return nil
			})
		}
		// Workers never fail; Wait is purely the frame barrier.
		_ = g.Wait()
	}

	s.logStepRate(time.Since(start))
}

// updateRange runs the query/steer/integrate/wrap pipeline for boids
// [lo, hi). Called from exactly one worker per range.
func (s *Simulation) updateRange(lo, hi int, rng *rand.Rand, predator geometry.Vector2D) {
	buf := make([]int32, 0, s.cfg.MaxNeighbors)
	for i := lo; i < hi; i++ {
		b := &s.boids[i]
		neighbors := s.grid.Query(b.Pos.X, b.Pos.Y, buf[:0])
		delta := s.wander.AngleDelta(rng, i, s.tick)
		b.Flock(int32(i), neighbors, s.snap, predator, delta, s.cfg)
		b.Update()
		wrapPosition(b, s.cfg.WorldWidth, s.cfg.WorldHeight)
	}
}

// wrapPosition teleports a boid that left the world back to the opposite
// edge. A coordinate past the extent resets to 0, not to the overshoot
// remainder, matching the reference behavior.
func wrapPosition(b *Boid, width, height float32) {
	if b.Pos.X > width {
		b.Pos.X = 0
	} else if b.Pos.X < 0 {
		b.Pos.X = width
	}
	if b.Pos.Y > height {
		b.Pos.Y = 0
	} else if b.Pos.Y < 0 {
		b.Pos.Y = height
	}
}

// RemoveBoids removes the boids at the given indices, preserving the order
// of the survivors. Indices are processed highest-to-lowest so earlier
// removals cannot shift the meaning of later ones; out-of-range and
// duplicate indices are silently ignored. Must not run concurrently with
// Step.
func (s *Simulation) RemoveBoids(indices []int) {
	if len(indices) == 0 {
		return
	}
	sorted := slices.Clone(indices)
	slices.Sort(sorted)

	removed := 0
	prev := -1
	for i := len(sorted) - 1; i >= 0; i-- {
		idx := sorted[i]
		if idx == prev {
			continue
		}
		prev = idx
		if idx < 0 || idx >= len(s.boids) {
			continue
		}
		s.boids = append(s.boids[:idx], s.boids[idx+1:]...)
		removed++
	}
	if removed > 0 {
		s.log.Debug("boids removed", zap.Int("removed", removed), zap.Int("remaining", len(s.boids)))
	}
}

// ---------------------------------------------------------------------
// Host export surface
// ---------------------------------------------------------------------

// Positions copies the packed [x0, y0, x1, y1, ...] positions of all boids
// into buf, growing it if needed, and returns the result. Length is
// 2 * Len().
func (s *Simulation) Positions(buf []float32) []float32 {
	need := len(s.boids) * 2
	if cap(buf) < need {
		buf = make([]float32, need)
	}
	buf = buf[:need]
	for i := range s.boids {
		buf[2*i] = s.boids[i].Pos.X
		buf[2*i+1] = s.boids[i].Pos.Y
	}
	return buf
}

// StateView returns a zero-copy float32 view over the live boid array and
// the per-record stride. Record i starts at view[i*stride]; its first four
// values are pos.x, pos.y, vel.x, vel.y. The view reflects live state with
// no copy, and is valid only until the next Step or RemoveBoids call, which
// may mutate or relocate the backing storage.
func (s *Simulation) StateView() ([]float32, int) {
	if len(s.boids) == 0 {
		return nil, boidStride
	}
	p := (*float32)(unsafe.Pointer(&s.boids[0]))
	return unsafe.Slice(p, len(s.boids)*boidStride), boidStride
}

// logStepRate emits once-per-second step telemetry.
func (s *Simulation) logStepRate(last time.Duration) {
	s.stepsSinceLog++
	if time.Since(s.lastLog) < time.Second {
		return
	}
	s.log.Info("step rate",
		zap.Int("stepsPerSec", s.stepsSinceLog),
		zap.Int("boids", len(s.boids)),
		zap.Duration("lastStep", last),
	)
	s.stepsSinceLog = 0
	s.lastLog = time.Now()
}
