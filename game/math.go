package game

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Round32 will round a float32 to a given precision.
func Round32(val float32, precision int) float32 {
	pwr := math32.Pow(10, float32(precision))
	return math32.Round(val*pwr) / pwr
}

// RoundVec32 will round a 32-bit vector to a given precision.
func RoundVec32(v mgl32.Vec3, p int) mgl32.Vec3 {
	return mgl32.Vec3{Round32(v.X(), p), Round32(v.Y(), p), Round32(v.Z(), p)}
}

// Float32ApproxEq determines whether two floating point numbers are close enough to each other
// by a threshold of 1e-5.
func Float32ApproxEq(a, b float32) bool {
	return math32.Abs(a-b) <= Epsilon
}

// AbsVec32 will return the given vector, but all the values of it are switched to their absolute values.
func AbsVec32(vec mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Abs(vec.X()), math32.Abs(vec.Y()), math32.Abs(vec.Z())}
}

// Vec3HzDistSqr returns the squared horizontal distance in a vector.
func Vec3HzDistSqr(vec3 mgl32.Vec3) float32 {
	return vec3.X()*vec3.X() + vec3.Z()*vec3.Z()
}

// Vec3HzDist returns the horizontal length of a vector.
func Vec3HzDist(vec3 mgl32.Vec3) float32 {
	return math32.Sqrt(Vec3HzDistSqr(vec3))
}

// HasNaN returns true if any component of the vector is not-a-number or infinite.
func HasNaN(v mgl32.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return true
		}
	}
	return false
}

// ZeroNaN returns the vector with every non-finite component replaced by zero.
func ZeroNaN(v mgl32.Vec3) mgl32.Vec3 {
	for i, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			v[i] = 0
		}
	}
	return v
}

// RotateYaw rotates a body-space vector about the up axis into world space. A yaw of zero
// faces +Z.
func RotateYaw(v mgl32.Vec3, yaw float32) mgl32.Vec3 {
	return mgl32.Rotate3DY(yaw).Mul3x1(v)
}

// UnrotateYaw rotates a world-space vector into the body frame of an entity with the given yaw.
func UnrotateYaw(v mgl32.Vec3, yaw float32) mgl32.Vec3 {
	return mgl32.Rotate3DY(-yaw).Mul3x1(v)
}

// WrapAngle wraps an angle in radians into the range (-π, π].
func WrapAngle(a float32) float32 {
	a = math32.Mod(a+math32.Pi, 2*math32.Pi)
	if a <= 0 {
		a += 2 * math32.Pi
	}
	return a - math32.Pi
}

// ComponentMin returns the component-wise minimum of two vectors.
func ComponentMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Min(a[0], b[0]), math32.Min(a[1], b[1]), math32.Min(a[2], b[2])}
}

// ClampFloat clamps the given value to the given range.
func ClampFloat(num, min, max float32) float32 {
	if num < min {
		return min
	}
	return math32.Min(num, max)
}
