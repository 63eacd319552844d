package game

import "time"

const (
	// DefaultGravity is the downward acceleration applied to airborne entities, in units/s².
	DefaultGravity = float32(19.6)
	// TerminalFallSpeed is the maximum downward speed any entity may reach, in units/s.
	TerminalFallSpeed = float32(107)
	// FastFallSpeed is the downward speed above which an entity is considered to be in freefall
	// for the purposes of the broad-phase collision skip.
	FastFallSpeed = float32(20)

	// StepIntervalMargin scales down the collision sub-step interval so that no axis ever
	// travels the full extent of the collision box in one sub-step.
	StepIntervalMargin = float32(0.95)
	// MaxStepInterval is the sub-step interval used when the entity is not moving on any axis.
	MaxStepInterval = float32(1.0)
	// PartialMoveRatio is the fraction of the attempted horizontal displacement below which a
	// collision result is reported as partial.
	PartialMoveRatio = float32(0.9)

	// GroundProbeDepth is how far below the feet ground contact is searched for.
	GroundProbeDepth = float32(0.05)
	// GroundSampleDepth is how far below the feet the footprint corners are sampled when
	// hugging the ground.
	GroundSampleDepth = float32(1.0)
	// HugMaxSpread is the maximum height difference between footprint samples, relative to the
	// footprint diagonal, above which the terrain is considered too irregular to tilt to.
	HugMaxSpread = float32(1.0)
	// HugRate is the fraction per second by which the tilt converges to the terrain normal.
	HugRate = float32(8.0)

	// Epsilon is the threshold below which velocities and displacements are considered zero.
	Epsilon = float32(1e-5)
)

const (
	// WorstCaseLag is the window the server extrapolates over when replaying client movement.
	WorstCaseLag = 2 * time.Second
	// DefaultWatchWindow is how long a single client stays under deep inspection.
	DefaultWatchWindow = 10 * time.Second
	// DefaultLagCeiling is the absolute ceiling of the accumulated lag allowance, in seconds.
	DefaultLagCeiling = float32(1.5)
)
