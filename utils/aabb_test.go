package utils

import (
	"testing"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

func TestClipStopsAtFace(t *testing.T) {
	wall := cube.Box(-5, 0, 2, 5, 3, 3)
	mover := cube.Box(-0.3, 0, -0.3, 0.3, 1.8, 0.3)

	got := BBClipCollide(wall, mover, mgl32.Vec3{0, 0, 5}, true, nil)
	if !mgl32.FloatEqualThreshold(got.Z(), 1.7, 1e-5) {
		t.Fatalf("expected velocity clipped to 1.7, got %v", got)
	}
}

func TestClipIgnoresBoxesOutOfPath(t *testing.T) {
	wall := cube.Box(-5, 0, 2, 5, 3, 3)
	mover := cube.Box(-0.3, 0, -0.3, 0.3, 1.8, 0.3)

	got := BBClipCollide(wall, mover, mgl32.Vec3{0, 0, 1}, true, nil)
	if got != (mgl32.Vec3{0, 0, 1}) {
		t.Fatalf("velocity changed without contact: %v", got)
	}

	got = BBClipCollide(wall, mover, mgl32.Vec3{0, 0, -5}, true, nil)
	if got != (mgl32.Vec3{0, 0, -5}) {
		t.Fatalf("velocity away from the wall changed: %v", got)
	}
}

func TestClipRestingOnFloorAllowsSliding(t *testing.T) {
	floor := cube.Box(-10, -1, -10, 10, 0, 10)
	mover := cube.Box(-0.3, 0, -0.3, 0.3, 1.8, 0.3)

	got := BBClipCollide(floor, mover, mgl32.Vec3{0, 0, 3}, true, nil)
	if got != (mgl32.Vec3{0, 0, 3}) {
		t.Fatalf("floor contact blocked horizontal movement: %v", got)
	}
	got = BBClipCollide(floor, mover, mgl32.Vec3{0, -1, 0}, true, nil)
	if got.Y() != 0 {
		t.Fatalf("floor did not stop downward movement: %v", got)
	}
}

func TestClipPenetration(t *testing.T) {
	block := cube.Box(0, 0, 0, 1, 1, 1)
	mover := cube.Box(0.9, 0, 0, 1.9, 1, 1)

	var penetration mgl32.Vec3
	BBClipCollide(block, mover, mgl32.Vec3{}, false, &penetration)
	if !mgl32.FloatEqualThreshold(penetration.X(), 0.1, 1e-5) {
		t.Fatalf("expected 0.1 penetration on X, got %v", penetration)
	}
}

func TestCircularQueue(t *testing.T) {
	q := NewCircularQueue[int](3)
	for i := 1; i <= 5; i++ {
		if err := q.Append(i); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("expected 3 elements, got %d", q.Len())
	}
	values := q.Values()
	if values[0] != 3 || values[2] != 5 {
		t.Fatalf("expected oldest elements to be dropped, got %v", values)
	}
	if v, ok := q.Pop(); !ok || v != 3 {
		t.Fatalf("expected to pop 3, got %d (%v)", v, ok)
	}
	if err := NewCircularQueue[int](0).Append(1); err == nil {
		t.Fatalf("expected error appending to zero-capacity queue")
	}
}
