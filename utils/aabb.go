package utils

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// ClipResult is the result of clipping a moving box against a stationary one.
type ClipResult struct {
	// Axis is the axis on which the boxes overlap the least when they already intersect.
	Axis int
	// Penetration is how deep the boxes intersect on Axis. It is zero if they do not intersect.
	Penetration float32
	// Clipped is the velocity shortened so that the moving box stops at the face of the stationary box.
	Clipped mgl32.Vec3
	// Depenetrating is Clipped, additionally pushing the moving box out of the stationary box if
	// the two already intersect.
	Depenetrating mgl32.Vec3
}

// BBClipCollide clips the velocity of the moving box against the stationary box. If oneWay is true,
// boxes that already intersect are not pushed apart. The deepest penetration found is written to
// penetration if it is not nil.
func BBClipCollide(stationary, moving cube.BBox, vel mgl32.Vec3, oneWay bool, penetration *mgl32.Vec3) mgl32.Vec3 {
	result := Clip(stationary, moving, vel)
	if penetration != nil && penetration[result.Axis] < result.Penetration {
		penetration[result.Axis] = result.Penetration
	}

	if oneWay {
		return result.Clipped
	}
	return result.Depenetrating
}

// Clip computes the swept collision of moving against stationary over the velocity passed. The moving
// box may only be stopped on an axis where it is separated from the stationary box while overlapping
// it on both remaining axes.
func Clip(stationary, moving cube.BBox, velocity mgl32.Vec3) (result ClipResult) {
	result.Clipped = velocity
	result.Depenetrating = velocity

	if BBHasZeroVolume(stationary) {
		return
	}

	var (
		penetrations       [3]float32
		signedPenetrations [3]float32
		normals            [3]float32
	)
	separatingAxes, separatingAxis := 0, 0
	deepest := float32(math32.MaxFloat32)

	for i := 0; i < 3; i++ {
		minPenetration := moving.Max()[i] - stationary.Min()[i]
		maxPenetration := stationary.Max()[i] - moving.Min()[i]

		if math32.Abs(minPenetration) <= 1e-7 {
			minPenetration = 0
		}
		if math32.Abs(maxPenetration) <= 1e-7 {
			maxPenetration = 0
		}

		minPositive := math32.Max(0, minPenetration)
		maxPositive := math32.Max(0, maxPenetration)

		switch {
		case minPositive == 0:
			signedPenetrations[i] = minPenetration
			normals[i] = -1
			separatingAxes++
			separatingAxis = i
		case maxPositive == 0:
			signedPenetrations[i] = maxPenetration
			normals[i] = 1
			separatingAxes++
			separatingAxis = i
		case minPositive < maxPositive:
			penetrations[i] = minPositive
			signedPenetrations[i] = minPositive
			normals[i] = -1
		default:
			penetrations[i] = maxPositive
			signedPenetrations[i] = maxPositive
			normals[i] = 1
		}

		if separatingAxes > 1 {
			return
		}
		deepest = math32.Min(deepest, penetrations[i])
	}

	if separatingAxes == 0 {
		// The boxes already intersect: resolve along the axis of least penetration.
		result.Penetration = deepest
		best := 0
		for i := 1; i < 3; i++ {
			if penetrations[i] < penetrations[best] {
				best = i
			}
		}

		desired := penetrations[best] * normals[best]
		if desired > 0 {
			result.Depenetrating[best] = math32.Max(desired, velocity[best])
		} else {
			result.Depenetrating[best] = math32.Min(desired, velocity[best])
		}
		result.Axis = best
		return
	}

	swept := signedPenetrations[separatingAxis] - (normals[separatingAxis] * velocity[separatingAxis])
	if swept <= 0 {
		return
	}

	resolved := signedPenetrations[separatingAxis] * normals[separatingAxis]
	result.Clipped[separatingAxis] = resolved
	result.Depenetrating[separatingAxis] = resolved
	return
}

// BBHasZeroVolume returns true if the bounding box has zero volume.
func BBHasZeroVolume(bb cube.BBox) bool {
	return bb.Min() == bb.Max()
}
