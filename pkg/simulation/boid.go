package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/ryanamatt/Fish-Predator/pkg/geometry"
)

// Spawn speed range. New boids start with a random heading and a speed
// drawn uniformly from [spawnSpeedMin, spawnSpeedMin+spawnSpeedSpan].
const (
	spawnSpeedMin  = 1.0
	spawnSpeedSpan = 1.5
)

// minSeparationSq is the squared distance below which a neighbor is ignored
// by the separation rule. Two coincident boids would otherwise divide by a
// near-zero distance.
const minSeparationSq = 0.01

// Boid is one autonomous fish. Its acceleration accumulates exactly one
// frame's steering forces and is zeroed by Update.
//
// The field order matters: Pos and Vel must come first so the host-facing
// state view can read [pos.x, pos.y, vel.x, vel.y] from the start of each
// record. All fields are float32, so a []Boid aliases cleanly to a
// []float32 with a fixed stride.
type Boid struct {
	Pos         geometry.Vector2D
	Vel         geometry.Vector2D
	Accel       geometry.Vector2D
	WanderAngle float32
	MaxSpeed    float32
	MaxForce    float32
}

// State is the read-only pos/vel snapshot of a boid taken at the start of a
// frame. The parallel update phase reads neighbor state exclusively through
// the snapshot, never through the live slice it is writing.
type State struct {
	Pos geometry.Vector2D
	Vel geometry.Vector2D
}

// NewBoid creates a boid at (x, y) with a random heading and a random speed
// in [1.0, 2.5]. The wander angle starts at the initial heading so the
// wander drive begins roughly forward.
func NewBoid(r *rand.Rand, x, y, maxSpeed, maxForce float32) Boid {
	angle := r.Float32() * 2 * math.Pi
	speed := float32(spawnSpeedMin) + r.Float32()*spawnSpeedSpan
	return Boid{
		Pos:         geometry.Vector2D{X: x, Y: y},
		Vel:         geometry.NewVectorPolar(speed, angle),
		WanderAngle: angle,
		MaxSpeed:    maxSpeed,
		MaxForce:    maxForce,
	}
}

// WrappedDiff returns the signed shortest displacement from b to a on the
// toroidal plane: if the raw difference on an axis exceeds half the world
// extent, the full extent is folded in. All neighbor distances go through
// this so boids near opposite edges count as close.
func WrappedDiff(a, b geometry.Vector2D, width, height float32) geometry.Vector2D {
	dx := a.X - b.X
	dy := a.Y - b.Y

	if dx > width/2 {
		dx -= width
	} else if dx < -width/2 {
		dx += width
	}
	if dy > height/2 {
		dy -= height
	} else if dy < -height/2 {
		dy += height
	}
	return geometry.Vector2D{X: dx, Y: dy}
}

// Wander advances the wander angle by angleDelta and returns a steering
// force toward a point on a circle of radius cfg.WanderRadius projected
// cfg.WanderDistance ahead of the boid. The random walk lives on the angle,
// not the force, which is what makes the motion persistent and smooth
// instead of pure noise.
func (b *Boid) Wander(angleDelta float32, cfg *Config) geometry.Vector2D {
	b.WanderAngle += angleDelta

	circleCenter := b.Vel
	circleCenter.Normalize()
	circleCenter = circleCenter.Mul(cfg.WanderDistance)

	displacement := geometry.NewVectorPolar(cfg.WanderRadius, b.WanderAngle)

	force := circleCenter.Add(displacement)
	force.Limit(b.MaxForce)
	return force
}

// Seek returns a steering force toward target: desired velocity at full
// speed minus current velocity, clamped to MaxForce.
func (b *Boid) Seek(target geometry.Vector2D) geometry.Vector2D {
	desired := target.Sub(b.Pos)
	desired.Normalize()
	desired = desired.Mul(b.MaxSpeed)
	steer := desired.Sub(b.Vel)
	steer.Limit(b.MaxForce)
	return steer
}

// Flee returns a steering force directly away from target when it is inside
// the panic radius, clamped to twice MaxForce: fleeing overrides the normal
// force limit. Outside the radius the force is exactly zero; the cutoff is
// hard, not a falloff.
func (b *Boid) Flee(target geometry.Vector2D, cfg *Config) geometry.Vector2D {
	diff := b.Pos.Sub(target)
	if diff.LenSqr() >= cfg.PanicRadius*cfg.PanicRadius {
		return geometry.Vector2D{}
	}
	diff.Normalize()
	steer := diff.Mul(b.MaxSpeed).Sub(b.Vel)
	steer.Limit(2 * b.MaxForce)
	return steer
}

// Flock computes and applies one frame's combined steering force from the
// neighbor index list and the predator position. self is the boid's own
// index; states is the frame snapshot the indices point into.
//
// Per neighbor inside the neighbor radius we accumulate its velocity (for
// alignment) and its wrap-aware absolute position (self minus wrapped diff,
// for cohesion). Neighbors additionally inside the separation radius push
// with the unit displacement weighted by inverse distance, so closer
// neighbors push harder. Wander and flee always apply, whatever the
// neighbor counts.
func (b *Boid) Flock(self int32, neighbors []int32, states []State, predator geometry.Vector2D, wanderDelta float32, cfg *Config) {
	var sepSum, alignSum, cohSum geometry.Vector2D
	sepCount := 0
	flockCount := 0

	neighborSq := cfg.NeighborRadius * cfg.NeighborRadius
	sepSq := cfg.SeparationRadius * cfg.SeparationRadius

	for _, ni := range neighbors {
		if ni == self {
			continue
		}
		diff := WrappedDiff(b.Pos, states[ni].Pos, cfg.WorldWidth, cfg.WorldHeight)
		dSq := diff.LenSqr()

		if dSq < neighborSq {
			// Reconstruct the neighbor position on our side of the seam so
			// the cohesion target is itself wrap-aware.
			cohSum.Accum(b.Pos.Sub(diff))
			alignSum.Accum(states[ni].Vel)
			flockCount++

			if dSq < sepSq && dSq > minSeparationSq {
				unit := diff
				unit.Normalize()
				sepSum.Accum(unit.Div(float32(math.Sqrt(float64(dSq)))))
				sepCount++
			}
		}
	}

	if sepCount > 0 {
		steer := sepSum.Div(float32(sepCount))
		steer.Normalize()
		steer = steer.Mul(b.MaxSpeed).Sub(b.Vel)
		steer.Limit(b.MaxForce)
		b.ApplyForce(steer.Mul(cfg.SeparationWeight))
	}

	if flockCount > 0 {
		avgVel := alignSum.Div(float32(flockCount))
		alignSteer := avgVel.Sub(b.Vel)
		alignSteer.Limit(b.MaxForce)
		b.ApplyForce(alignSteer.Mul(cfg.AlignmentWeight))

		avgPos := cohSum.Div(float32(flockCount))
		b.ApplyForce(b.Seek(avgPos).Mul(cfg.CohesionWeight))
	}

	b.ApplyForce(b.Wander(wanderDelta, cfg).Mul(cfg.WanderWeight))
	b.ApplyForce(b.Flee(predator, cfg).Mul(cfg.FleeWeight))
}

// Update integrates one frame of motion. Acceleration is applied before the
// speed clamp, so however many forces were summed this frame the speed never
// exceeds MaxSpeed. Acceleration is then reset; it carries exactly one
// frame's forces.
func (b *Boid) Update() {
	b.Vel.Accum(b.Accel)
	b.Vel.Limit(b.MaxSpeed)
	b.Pos.Accum(b.Vel)
	b.Accel = geometry.Vector2D{}
}

// ApplyForce accumulates a steering force. All boids are unit mass.
func (b *Boid) ApplyForce(f geometry.Vector2D) {
	b.Accel.Accum(f)
}
