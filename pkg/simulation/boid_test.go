package simulation

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/ryanamatt/Fish-Predator/pkg/geometry"
)

func TestNewBoidSpawnSpeed(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 0))
	for i := 0; i < 100; i++ {
		b := NewBoid(r, 10, 20, 2.5, 0.15)
		speed := b.Vel.Len()
		if speed < 1.0-geometry.Epsilon || speed > 2.5+geometry.Epsilon {
			t.Fatalf("spawn speed %v outside [1.0, 2.5]", speed)
		}
		if b.Pos.X != 10 || b.Pos.Y != 20 {
			t.Fatalf("spawn position = %v; want (10, 20)", b.Pos)
		}
	}
}

func TestWrappedDiffDirectPath(t *testing.T) {
	// Both points well inside the world: plain difference.
	got := WrappedDiff(geometry.Vector2D{X: 100, Y: 100}, geometry.Vector2D{X: 90, Y: 120}, 1000, 800)
	if !got.Eq(geometry.Vector2D{X: 10, Y: -20}) {
		t.Errorf("WrappedDiff = %v; want (10, -20)", got)
	}
}

func TestWrappedDiffShortestPathAcrossSeam(t *testing.T) {
	// 990 -> 10 on a 1000-wide torus: the short way is -20, not +980.
	got := WrappedDiff(geometry.Vector2D{X: 990, Y: 10}, geometry.Vector2D{X: 10, Y: 10}, 1000, 800)
	if !got.Eq(geometry.Vector2D{X: -20, Y: 0}) {
		t.Errorf("WrappedDiff across seam = %v; want (-20, 0)", got)
	}
}

func TestWrappedDiffAntisymmetric(t *testing.T) {
	const width, height = 1000, 800
	r := rand.New(rand.NewPCG(3, 0))
	for i := 0; i < 500; i++ {
		a := geometry.Vector2D{X: r.Float32() * width, Y: r.Float32() * height}
		b := geometry.Vector2D{X: r.Float32() * width, Y: r.Float32() * height}
		ab := WrappedDiff(a, b, width, height)
		ba := WrappedDiff(b, a, width, height)
		if !ab.Eq(ba.Neg()) {
			t.Fatalf("WrappedDiff not antisymmetric: a=%v b=%v ab=%v ba=%v", a, b, ab, ba)
		}
	}
}

func TestSeekSteersTowardTarget(t *testing.T) {
	cfg := DefaultConfig()
	b := Boid{
		Pos:      geometry.Vector2D{X: 0, Y: 0},
		MaxSpeed: cfg.MaxSpeed,
		MaxForce: cfg.MaxForce,
	}

	steer := b.Seek(geometry.Vector2D{X: 100, Y: 0})
	if steer.X <= 0 {
		t.Errorf("expected positive x steer toward target, got %v", steer)
	}
	if steer.Len() > b.MaxForce+geometry.Epsilon {
		t.Errorf("seek force %v exceeds maxForce %v", steer.Len(), b.MaxForce)
	}
}

func TestFleeInsidePanicRadius(t *testing.T) {
	cfg := DefaultConfig()
	b := Boid{
		Pos:      geometry.Vector2D{X: 50, Y: 0},
		MaxSpeed: cfg.MaxSpeed,
		MaxForce: cfg.MaxForce,
	}

	// Predator 50 units away, inside the 100-unit panic radius.
	steer := b.Flee(geometry.Vector2D{X: 0, Y: 0}, cfg)
	if steer.X <= 0 {
		t.Errorf("expected flee away from predator (positive x), got %v", steer)
	}
	// Fleeing overrides the normal limit: the cap is 2x maxForce.
	if steer.Len() > 2*b.MaxForce+geometry.Epsilon {
		t.Errorf("flee force %v exceeds 2x maxForce %v", steer.Len(), 2*b.MaxForce)
	}
	if steer.Len() <= b.MaxForce {
		t.Logf("flee force %v within normal limit; still legal, cap is 2x", steer.Len())
	}
}

func TestFleeOutsidePanicRadiusIsZero(t *testing.T) {
	// The cutoff is hard: one unit outside the radius, the predator does not
	// exist for this boid.
	cfg := DefaultConfig()
	b := Boid{
		Pos:      geometry.Vector2D{X: 101, Y: 0},
		Vel:      geometry.Vector2D{X: 1, Y: 1},
		MaxSpeed: cfg.MaxSpeed,
		MaxForce: cfg.MaxForce,
	}

	steer := b.Flee(geometry.Vector2D{X: 0, Y: 0}, cfg)
	if steer.X != 0 || steer.Y != 0 {
		t.Errorf("expected zero flee force outside panic radius, got %v", steer)
	}
}

func TestWanderAdvancesAngleAndClampsForce(t *testing.T) {
	cfg := DefaultConfig()
	b := Boid{
		Vel:         geometry.Vector2D{X: 1, Y: 0},
		WanderAngle: 0.5,
		MaxSpeed:    cfg.MaxSpeed,
		MaxForce:    cfg.MaxForce,
	}

	force := b.Wander(0.1, cfg)
	if !floatNear(b.WanderAngle, 0.6) {
		t.Errorf("wander angle = %v; want 0.6", b.WanderAngle)
	}
	if force.LenSqr() == 0 {
		t.Error("expected nonzero wander force for a moving boid")
	}
	if force.Len() > b.MaxForce+geometry.Epsilon {
		t.Errorf("wander force %v exceeds maxForce %v", force.Len(), b.MaxForce)
	}
}

func TestWanderZeroVelocityStillSteers(t *testing.T) {
	// With zero velocity the forward projection vanishes, but the point on
	// the wander circle still produces a force.
	cfg := DefaultConfig()
	b := Boid{MaxSpeed: cfg.MaxSpeed, MaxForce: cfg.MaxForce}

	force := b.Wander(0, cfg)
	if force.LenSqr() == 0 {
		t.Error("expected nonzero wander force from the circle displacement alone")
	}
}

func TestUpdateClampsSpeed(t *testing.T) {
	cfg := DefaultConfig()
	b := Boid{
		Vel:      geometry.Vector2D{X: 2, Y: 0},
		Accel:    geometry.Vector2D{X: 1000, Y: 500}, // absurd combined force
		MaxSpeed: cfg.MaxSpeed,
		MaxForce: cfg.MaxForce,
	}

	b.Update()
	if b.Vel.Len() > b.MaxSpeed+geometry.Epsilon {
		t.Errorf("post-update speed %v exceeds maxSpeed %v", b.Vel.Len(), b.MaxSpeed)
	}
	if b.Accel.X != 0 || b.Accel.Y != 0 {
		t.Errorf("acceleration not reset after update: %v", b.Accel)
	}
}

func TestUpdateIntegratesPosition(t *testing.T) {
	b := Boid{
		Pos:      geometry.Vector2D{X: 10, Y: 10},
		Vel:      geometry.Vector2D{X: 1, Y: -1},
		MaxSpeed: 2.5,
		MaxForce: 0.15,
	}
	b.Update()
	if !b.Pos.Eq(geometry.Vector2D{X: 11, Y: 9}) {
		t.Errorf("post-update position = %v; want (11, 9)", b.Pos)
	}
}

func TestApplyForceAccumulates(t *testing.T) {
	b := Boid{}
	b.ApplyForce(geometry.Vector2D{X: 0.1, Y: 0})
	b.ApplyForce(geometry.Vector2D{X: 0.2, Y: 0.3})
	if !b.Accel.Eq(geometry.Vector2D{X: 0.3, Y: 0.3}) {
		t.Errorf("accumulated accel = %v; want (0.3, 0.3)", b.Accel)
	}
}

func TestFlockSeparationPushesApart(t *testing.T) {
	// Two boids 10 apart (inside the 25-unit separation radius), at rest,
	// predator far away. The left one must be pushed further left.
	cfg := DefaultConfig()
	cfg.WanderWeight = 0 // isolate separation vs cohesion

	states := []State{
		{Pos: geometry.Vector2D{X: 100, Y: 100}},
		{Pos: geometry.Vector2D{X: 110, Y: 100}},
	}
	b := Boid{Pos: states[0].Pos, MaxSpeed: cfg.MaxSpeed, MaxForce: cfg.MaxForce}

	b.Flock(0, []int32{0, 1}, states, geometry.Vector2D{X: 900, Y: 700}, 0, cfg)
	if b.Accel.X >= 0 {
		t.Errorf("expected net repulsion (negative x accel), got %v", b.Accel)
	}
}

func TestFlockAlignmentMatchesNeighborVelocity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WanderWeight = 0
	cfg.SeparationWeight = 0
	cfg.CohesionWeight = 0

	// Neighbor 40 units away (inside neighbor radius, outside separation),
	// moving +x. A boid at rest should accelerate +x.
	states := []State{
		{Pos: geometry.Vector2D{X: 100, Y: 100}},
		{Pos: geometry.Vector2D{X: 140, Y: 100}, Vel: geometry.Vector2D{X: 2, Y: 0}},
	}
	b := Boid{Pos: states[0].Pos, MaxSpeed: cfg.MaxSpeed, MaxForce: cfg.MaxForce}

	b.Flock(0, []int32{0, 1}, states, geometry.Vector2D{X: 900, Y: 700}, 0, cfg)
	if b.Accel.X <= 0 {
		t.Errorf("expected positive x accel from alignment, got %v", b.Accel)
	}
}

func TestFlockCohesionPullsTogether(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WanderWeight = 0
	cfg.SeparationWeight = 0
	cfg.AlignmentWeight = 0

	states := []State{
		{Pos: geometry.Vector2D{X: 100, Y: 100}},
		{Pos: geometry.Vector2D{X: 140, Y: 100}},
	}
	b := Boid{Pos: states[0].Pos, MaxSpeed: cfg.MaxSpeed, MaxForce: cfg.MaxForce}

	b.Flock(0, []int32{0, 1}, states, geometry.Vector2D{X: 900, Y: 700}, 0, cfg)
	if b.Accel.X <= 0 {
		t.Errorf("expected positive x accel from cohesion, got %v", b.Accel)
	}
}

func TestFlockCohesionIsWrapAware(t *testing.T) {
	// Neighbor across the x seam: boid at 995, neighbor at 15 on a
	// 1000-wide torus (wrapped distance 20). Cohesion must pull toward the
	// wrapped position (+x, through the seam) and not across the whole world.
	cfg := DefaultConfig()
	cfg.WanderWeight = 0
	cfg.SeparationWeight = 0
	cfg.AlignmentWeight = 0
	cfg.WorldWidth = 1000

	states := []State{
		{Pos: geometry.Vector2D{X: 995, Y: 100}},
		{Pos: geometry.Vector2D{X: 15, Y: 100}},
	}
	b := Boid{Pos: states[0].Pos, MaxSpeed: cfg.MaxSpeed, MaxForce: cfg.MaxForce}

	b.Flock(0, []int32{0, 1}, states, geometry.Vector2D{X: 500, Y: 700}, 0, cfg)
	if b.Accel.X <= 0 {
		t.Errorf("expected cohesion to pull through the seam (positive x), got %v", b.Accel)
	}
}

func TestFlockCoincidentNeighborNoNaN(t *testing.T) {
	// A neighbor exactly on top of us is inside the separation epsilon and
	// must be ignored by separation; nothing may go NaN.
	cfg := DefaultConfig()
	states := []State{
		{Pos: geometry.Vector2D{X: 100, Y: 100}},
		{Pos: geometry.Vector2D{X: 100, Y: 100}},
	}
	b := Boid{Pos: states[0].Pos, MaxSpeed: cfg.MaxSpeed, MaxForce: cfg.MaxForce}

	b.Flock(0, []int32{0, 1}, states, geometry.Vector2D{X: 900, Y: 700}, 0.1, cfg)
	if math.IsNaN(float64(b.Accel.X)) || math.IsNaN(float64(b.Accel.Y)) {
		t.Errorf("coincident neighbor produced NaN accel: %v", b.Accel)
	}
}

func TestFlockIsolatedBoidWandersOnly(t *testing.T) {
	// No neighbors in range, predator outside the panic radius: the only
	// contribution is wander, and it must be nonzero.
	cfg := DefaultConfig()
	b := Boid{
		Pos:      geometry.Vector2D{X: 100, Y: 100},
		Vel:      geometry.Vector2D{X: 1, Y: 0},
		MaxSpeed: cfg.MaxSpeed,
		MaxForce: cfg.MaxForce,
	}

	b.Flock(0, []int32{0}, []State{{Pos: b.Pos, Vel: b.Vel}}, geometry.Vector2D{X: 900, Y: 700}, 0.1, cfg)
	if b.Accel.LenSqr() == 0 {
		t.Error("expected nonzero accel from wander for an isolated boid")
	}
}

func floatNear(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}
