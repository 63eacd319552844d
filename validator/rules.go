package validator

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/game"
)

// Rules are the movement rules of the game that bound how fast a client may legitimately move.
type Rules struct {
	// BaseSpeeds maps each movement mode to its base speed in units per second.
	BaseSpeeds map[string]float32
	// Multipliers maps each speed modifier to the factor it scales base speeds by.
	Multipliers map[string]float32
	// JumpSpeed is the initial upward speed of a jump.
	JumpSpeed float32
	// TerminalVelocity is the maximum downward speed.
	TerminalVelocity float32
}

// DefaultRules returns the rules used when none are configured.
func DefaultRules() Rules {
	return Rules{
		BaseSpeeds: map[string]float32{
			"walk": 4,
			"run":  8,
		},
		Multipliers: map[string]float32{
			"normal": 1,
		},
		JumpSpeed:        6,
		TerminalVelocity: game.TerminalFallSpeed,
	}
}

// MaxSpeed returns the highest horizontal speed any combination of movement mode and modifier allows.
func (r Rules) MaxSpeed() float32 {
	var base float32
	for _, s := range r.BaseSpeeds {
		base = math32.Max(base, s)
	}
	multiplier := float32(1)
	for _, m := range r.Multipliers {
		multiplier = math32.Max(multiplier, m)
	}
	return base * multiplier
}

// MaxVelocity returns the per-axis velocity envelope of a legitimate client.
func (r Rules) MaxVelocity() mgl32.Vec3 {
	speed := r.MaxSpeed()
	return mgl32.Vec3{speed, math32.Max(r.JumpSpeed, r.TerminalVelocity), speed}
}

// exceeds returns true if any axis of vel is outside the envelope passed.
func exceeds(vel, envelope mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if !(math32.Abs(vel[i]) <= envelope[i]) {
			return true
		}
	}
	return false
}
