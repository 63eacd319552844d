package movement

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/game"
)

// StepInterval returns the longest time an entity moving at vel can travel before any axis covers
// bound, scaled down by a safety margin. Axes that are not moving do not limit the interval.
func StepInterval(bound, vel mgl32.Vec3) float32 {
	interval := game.MaxStepInterval
	for i := 0; i < 3; i++ {
		v := math32.Abs(vel[i])
		if v <= game.Epsilon {
			continue
		}
		interval = math32.Min(interval, bound[i]/v)
	}
	return interval * game.StepIntervalMargin
}

// applyGravity returns the world velocity after dt seconds, clamped to the terminal fall speed.
// Grounded entities do not accelerate downwards.
func applyGravity(vel mgl32.Vec3, onGround bool, gravity, terminal, dt float32) mgl32.Vec3 {
	if onGround {
		if vel[1] < 0 {
			vel[1] = 0
		}
		return vel
	}
	vel[1] -= gravity * dt
	if vel[1] < -terminal {
		vel[1] = -terminal
	}
	return vel
}
