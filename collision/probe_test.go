package collision

import (
	"testing"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/world"
)

func testExtents() Extents {
	return Extents{
		Top:    cube.Box(-0.3, 0.9, -0.3, 0.3, 1.8, 0.3),
		Bottom: cube.Box(-0.3, 0, -0.3, 0.3, 0.9, 0.3),
	}
}

// newRoom returns a probe in a room with a floor at y=0 and a wall whose near face is at z=1.
func newRoom(t *testing.T) (*BoxProbe, world.SectorID, *world.World) {
	t.Helper()

	w := world.New(nil)
	room := w.AddSector("room", cube.Box(-5, -1, -5, 5, 5, 5))
	if err := w.AddMesh(room, 1, cube.Box(-5, -1, -5, 5, 0, 5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.AddMesh(room, 2, cube.Box(-5, 0, 1, 5, 3, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := NewBoxProbe(w)
	if err := p.Init(testExtents(), 100); err != nil {
		t.Fatalf("unexpected error initialising probe: %v", err)
	}
	p.SetOnGround(true)
	return p, room, w
}

func TestExtentsStepBound(t *testing.T) {
	ext := Extents{
		Top:    cube.Box(-0.5, 1, -0.25, 0.5, 2, 0.25),
		Bottom: cube.Box(-0.2, 0, -0.4, 0.2, 1.5, 0.4),
	}
	if got, want := ext.StepBound(), (mgl32.Vec3{0.4, 1, 0.5}); !got.ApproxEqual(want) {
		t.Fatalf("expected step bound %v, got %v", want, got)
	}
}

func TestInitRejectsInvalidExtents(t *testing.T) {
	p := NewBoxProbe(nil)
	ext := Extents{Top: cube.Box(0, 0, 0, 1, 0, 1), Bottom: cube.Box(0, 0, 0, 1, 1, 1)}
	if err := p.Init(ext, 0); err == nil {
		t.Fatalf("expected flat top box to be rejected")
	}
	if p.Initialised() {
		t.Fatalf("expected probe to stay uninitialised")
	}

	candidate := mgl32.Vec3{0, 0, 5}
	if o, got := p.AdjustForCollisions(world.NoSector, mgl32.Vec3{}, candidate, mgl32.Vec3{}, 1); o != OutcomeAccepted || got != candidate {
		t.Fatalf("expected uninitialised probe to pass movement through, got %v %v", o, got)
	}
}

func TestWalkAlongFloorIsAccepted(t *testing.T) {
	p, room, _ := newRoom(t)

	old, candidate := mgl32.Vec3{0, 0, -2}, mgl32.Vec3{0.5, 0, -1.5}
	o, got := p.AdjustForCollisions(room, old, candidate, mgl32.Vec3{}, 0.1)
	if o != OutcomeAccepted || !got.ApproxEqual(candidate) {
		t.Fatalf("expected accepted movement to %v, got %v %v", candidate, o, got)
	}
	if !p.IsOnGround() {
		t.Fatalf("expected entity to remain on ground")
	}
}

func TestWallStopsMovement(t *testing.T) {
	p, room, _ := newRoom(t)

	o, got := p.AdjustForCollisions(room, mgl32.Vec3{0, 0, 0.5}, mgl32.Vec3{0, 0, 1.5}, mgl32.Vec3{}, 0.1)
	if got.Z() >= 1.0 {
		t.Fatalf("expected entity to stay in front of the wall, got %v", got)
	}
	if !mgl32.FloatEqualThreshold(got.Z(), 0.7, 1e-4) {
		t.Fatalf("expected entity to stop at z=0.7, got %v", got)
	}
	if o != OutcomePartial || !o.Accepted() {
		t.Fatalf("expected partial outcome, got %v", o)
	}
}

func TestBlockedAgainstWall(t *testing.T) {
	p, room, _ := newRoom(t)

	old := mgl32.Vec3{0, 0, 0.7}
	o, got := p.AdjustForCollisions(room, old, mgl32.Vec3{0, 0, 0.9}, mgl32.Vec3{}, 0.1)
	if o != OutcomeBlocked || o.Accepted() {
		t.Fatalf("expected blocked outcome, got %v", o)
	}
	if !got.ApproxEqual(old) {
		t.Fatalf("expected entity not to move, got %v", got)
	}
}

func TestSlideAlongWall(t *testing.T) {
	p, room, _ := newRoom(t)

	o, got := p.AdjustForCollisions(room, mgl32.Vec3{0, 0, 0.5}, mgl32.Vec3{1, 0, 1}, mgl32.Vec3{}, 0.1)
	if o != OutcomeAdjusted {
		t.Fatalf("expected adjusted outcome, got %v", o)
	}
	if want := (mgl32.Vec3{1, 0, 0.7}); !got.ApproxEqualThreshold(want, 1e-4) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestStepUp(t *testing.T) {
	p, room, w := newRoom(t)
	if err := w.AddMesh(room, 3, cube.Box(-5, 0, -3, 5, 0.3, -2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o, got := p.AdjustForCollisions(room, mgl32.Vec3{0, 0, -4}, mgl32.Vec3{0, 0, -2.5}, mgl32.Vec3{}, 0.1)
	if want := (mgl32.Vec3{0, 0.3, -2.5}); !got.ApproxEqualThreshold(want, 1e-4) {
		t.Fatalf("expected to step onto the ledge at %v, got %v", want, got)
	}
	if o != OutcomeAdjusted {
		t.Fatalf("expected adjusted outcome, got %v", o)
	}
	if !p.IsOnGround() {
		t.Fatalf("expected entity to land on the ledge")
	}
}

func TestLanding(t *testing.T) {
	p, room, _ := newRoom(t)
	p.SetOnGround(false)

	_, got := p.AdjustForCollisions(room, mgl32.Vec3{0, 0.5, -3}, mgl32.Vec3{0, -0.5, -3}, mgl32.Vec3{}, 0.1)
	if !mgl32.FloatEqualThreshold(got.Y(), 0, 1e-5) {
		t.Fatalf("expected to land on the floor, got %v", got)
	}
	if !p.IsOnGround() {
		t.Fatalf("expected ground contact after landing")
	}
}

func TestDisabledCollisionDetection(t *testing.T) {
	p, room, _ := newRoom(t)
	p.UseCD(false)

	candidate := mgl32.Vec3{0, 0, 3}
	if o, got := p.AdjustForCollisions(room, mgl32.Vec3{0, 0, 0.5}, candidate, mgl32.Vec3{}, 0.1); o != OutcomeAccepted || got != candidate {
		t.Fatalf("expected movement through the wall with collision detection disabled, got %v %v", o, got)
	}
}

func TestCheckGround(t *testing.T) {
	p, room, _ := newRoom(t)

	if !p.CheckGround(room, mgl32.Vec3{0, 0, -2}) {
		t.Fatalf("expected ground contact on the floor")
	}
	if p.CheckGround(room, mgl32.Vec3{0, 0.5, -2}) {
		t.Fatalf("expected no ground contact in the air")
	}
	if p.IsOnGround() {
		t.Fatalf("expected CheckGround to update the ground flag")
	}
}

func TestSampleGround(t *testing.T) {
	p, room, _ := newRoom(t)

	samples, found := p.SampleGround(room, mgl32.Vec3{0, 0, -2})
	for i := range samples {
		if !found[i] || samples[i].Y() != 0 {
			t.Fatalf("expected corner %d to find the floor, got %v (found=%v)", i, samples[i], found[i])
		}
	}
}

func TestOutcomeClassification(t *testing.T) {
	tests := []struct {
		attempted, achieved mgl32.Vec3
		want                Outcome
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 0, 0}, OutcomeAccepted},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0.95, 0, 0}, OutcomeAdjusted},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0.5, 0, 0}, OutcomePartial},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{}, OutcomeBlocked},
		{mgl32.Vec3{1, 0.5, 0}, mgl32.Vec3{0, 0.5, 0}, OutcomePartial},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, -0.5, 0}, OutcomeAdjusted},
	}
	for _, tt := range tests {
		if got := classify(tt.attempted, tt.achieved); got != tt.want {
			t.Errorf("classify(%v, %v) = %v, want %v", tt.attempted, tt.achieved, got, tt.want)
		}
	}
}
