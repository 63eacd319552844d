package game

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// AABBFromDimensions returns a bounding box from the given dimensions, centred on the X and Z axes
// with its base at the origin.
func AABBFromDimensions(width, height float32) cube.BBox {
	h := width / 2
	return cube.Box(
		-h, 0, -h,
		h, height, h,
	)
}

// BoxSize returns the size of the box on every axis.
func BoxSize(bb cube.BBox) mgl32.Vec3 {
	return bb.Max().Sub(bb.Min())
}

// BoxCentre returns the centre point of the box.
func BoxCentre(bb cube.BBox) mgl32.Vec3 {
	return bb.Min().Add(bb.Max()).Mul(0.5)
}

// UnionBox returns the smallest box that contains both boxes.
func UnionBox(a, b cube.BBox) cube.BBox {
	return cube.Box(
		math32.Min(a.Min().X(), b.Min().X()), math32.Min(a.Min().Y(), b.Min().Y()), math32.Min(a.Min().Z(), b.Min().Z()),
		math32.Max(a.Max().X(), b.Max().X()), math32.Max(a.Max().Y(), b.Max().Y()), math32.Max(a.Max().Z(), b.Max().Z()),
	)
}

// BoxContains returns true if the point is inside the box, borders included.
func BoxContains(bb cube.BBox, v mgl32.Vec3) bool {
	min, max := bb.Min(), bb.Max()
	return v[0] >= min[0] && v[0] <= max[0] &&
		v[1] >= min[1] && v[1] <= max[1] &&
		v[2] >= min[2] && v[2] <= max[2]
}

// SegmentIntersectsBox returns true if the segment from a to b passes through the box. It uses the
// slab method, treating the box as closed.
func SegmentIntersectsBox(bb cube.BBox, a, b mgl32.Vec3) bool {
	dir := b.Sub(a)
	tMin, tMax := float32(0), float32(1)
	for i := 0; i < 3; i++ {
		if math32.Abs(dir[i]) < 1e-9 {
			if a[i] < bb.Min()[i] || a[i] > bb.Max()[i] {
				return false
			}
			continue
		}
		t1 := (bb.Min()[i] - a[i]) / dir[i]
		t2 := (bb.Max()[i] - a[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math32.Max(tMin, t1)
		tMax = math32.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}
