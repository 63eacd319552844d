package movement

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/assert"
	"github.com/oomph-ac/reckon/collision"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/utils"
	"github.com/oomph-ac/reckon/world"
	"github.com/sirupsen/logrus"
)

// SectorGraph is the sector and portal layout movement is resolved against.
type SectorGraph interface {
	Sector(id world.SectorID) (*world.Sector, bool)
	Resolve(from world.SectorID, start, end mgl32.Vec3) (world.Crossing, bool)
}

// Options define integrator behavior.
type Options struct {
	// Gravity is the downward acceleration of airborne entities.
	Gravity float32
	// TerminalVelocity is the maximum downward speed.
	TerminalVelocity float32
	// FreefallSkip skips collision sub-steps for entities falling fast through empty space.
	FreefallSkip bool
	// MaxSubSteps bounds the number of collision sub-steps of a single Step. The rest of the frame is
	// dropped once it is reached.
	MaxSubSteps int

	// Debugf receives per-frame trace logs for callers that need deep diagnostics.
	Debugf func(format string, args ...any)
}

// DefaultOptions returns the options the engine runs with unless configured otherwise.
func DefaultOptions() Options {
	return Options{
		Gravity:          game.DefaultGravity,
		TerminalVelocity: game.TerminalFallSpeed,
		FreefallSkip:     true,
		MaxSubSteps:      1 << 16,
	}
}

// Integrator advances the movement of entities through a sector graph.
type Integrator struct {
	World   SectorGraph
	Options Options

	log logrus.FieldLogger
}

// NewIntegrator creates an integrator resolving portals through the graph passed. A nil graph
// disables sector checks and portal crossing.
func NewIntegrator(w SectorGraph, opts Options, log logrus.FieldLogger) *Integrator {
	return &Integrator{World: w, Options: opts, log: utils.LoggerOrNop(log)}
}

// StepResult describes what happened during a single Step.
type StepResult struct {
	// Inert is true if the entity has no collision extents and was not moved.
	Inert bool
	// MissingSector is true if the entity's sector is unknown and it was not moved.
	MissingSector bool
	// Aborted is true if the step produced a non-finite displacement and was discarded.
	Aborted bool
	// FollowedPath is true if the entity was moved along a path rather than by its velocity.
	FollowedPath bool
	// FreefallSkipped is true if collision sub-stepping was skipped for part of the frame.
	FreefallSkipped bool

	SubSteps int
	// MaxSubStepDisplacement is the largest displacement on each axis over all collision sub-steps.
	MaxSubStepDisplacement mgl32.Vec3
	// Outcome is the most restrictive collision outcome of the frame.
	Outcome collision.Outcome

	Displacement mgl32.Vec3
	Crossing     world.Crossing
}

// Moved returns true if the entity's position changed.
func (r StepResult) Moved() bool {
	return r.Displacement != mgl32.Vec3{}
}

type stepContext struct {
	integrator *Integrator
	state      *State

	startPos    mgl32.Vec3
	startSector world.SectorID
	bound       mgl32.Vec3

	result StepResult
}

// Step advances the state by dt seconds. It never fails: if no sane movement can be produced the
// entity stays where it was.
func (i *Integrator) Step(s *State, dt float32) StepResult {
	if !s.Initialised() {
		return StepResult{Inert: true}
	}
	if !(dt > 0) || math32.IsInf(dt, 0) {
		return StepResult{}
	}
	if i.World != nil {
		if _, ok := i.World.Sector(s.sector); !ok {
			s.log.Debugf(game.ErrorUnknownSector, s.sector)
			return StepResult{MissingSector: true}
		}
	}
	if s.path != nil {
		return i.stepPath(s, dt)
	}

	ctx := newCtx(i, s)
	defer putCtx(ctx)

	ctx.bound = s.probe.Extents().StepBound()
	i.debugf("step dt=%.4f pos=%v vel=%v onGround=%t", dt, s.position, s.Velocity(), s.OnGround())

	if s.probe.CDEnabled() {
		ctx.integrate(dt)
	} else {
		ctx.advance(dt, false)
	}
	if !ctx.result.Aborted {
		ctx.crossPortals()
		ctx.settle(dt)
	}

	ctx.result.Displacement = s.position.Sub(ctx.startPos)
	i.debugf("step done pos=%v subSteps=%d outcome=%v", s.position, ctx.result.SubSteps, ctx.result.Outcome)
	return ctx.result
}

func (i *Integrator) debugf(format string, args ...any) {
	if i.Options.Debugf != nil {
		i.Options.Debugf(format, args...)
	}
}

// integrate splits dt into collision sub-steps no longer than the step interval.
func (ctx *stepContext) integrate(dt float32) {
	remaining := dt
	for !ctx.result.Aborted {
		interval := ctx.interval()
		if remaining <= interval {
			ctx.advance(remaining, true)
			return
		}
		if ctx.skipFreefall(remaining) {
			return
		}
		if limit := ctx.integrator.Options.MaxSubSteps; limit > 0 && ctx.result.SubSteps >= limit {
			ctx.state.log.Warnf("dropping %.4fs of movement after %d sub-steps", remaining, ctx.result.SubSteps)
			return
		}

		ctx.advance(interval, true)
		remaining -= interval
	}
}

// interval returns the sub-step interval for the current velocity. Gravity applied over the interval
// may speed the entity up, so the interval is recomputed with the accelerated velocity and the
// shorter of the two is used.
func (ctx *stepContext) interval() float32 {
	s, opts := ctx.state, ctx.integrator.Options
	onGround := s.OnGround() && s.velWorld[1] <= game.Epsilon

	first := StepInterval(ctx.bound, s.Velocity())
	accelerated := applyGravity(s.velWorld, onGround, opts.Gravity, opts.TerminalVelocity, first)
	second := StepInterval(ctx.bound, game.RotateYaw(s.velBody, s.yaw).Add(accelerated))
	return math32.Min(first, second)
}

// skipFreefall moves the entity for the rest of the frame without collision sub-steps if it is falling
// fast and nothing is in the way.
func (ctx *stepContext) skipFreefall(remaining float32) bool {
	s, opts := ctx.state, ctx.integrator.Options
	if !opts.FreefallSkip || s.OnGround() {
		return false
	}

	velWorld := applyGravity(s.velWorld, false, opts.Gravity, opts.TerminalVelocity, remaining)
	vel := game.RotateYaw(s.velBody, s.yaw).Add(velWorld)
	if vel.Y() > -game.FastFallSpeed {
		return false
	}
	swept := s.probe.Extents().Box(s.position).Extend(vel.Mul(remaining))
	if s.probe.Occupied(s.sector, swept) {
		return false
	}

	ctx.integrator.debugf("freefall skip for %.4fs at vel=%v", remaining, vel)
	ctx.result.FreefallSkipped = true
	ctx.advance(remaining, false)
	return true
}

// advance moves the entity by its velocity over dt, optionally consulting the collision probe.
func (ctx *stepContext) advance(dt float32, collide bool) {
	s, opts := ctx.state, ctx.integrator.Options
	if s.OnGround() && s.velWorld[1] > game.Epsilon {
		s.SetOnGround(false)
	}

	velWorld := applyGravity(s.velWorld, s.OnGround(), opts.Gravity, opts.TerminalVelocity, dt)
	vel := game.RotateYaw(s.velBody, s.yaw).Add(velWorld)
	disp := vel.Mul(dt)
	if game.HasNaN(disp) {
		ctx.abort(disp)
		return
	}

	old := s.position
	s.velWorld = velWorld
	if !collide {
		s.position = old.Add(disp)
		s.rotate(dt)
		return
	}

	outcome, corrected := s.probe.AdjustForCollisions(s.sector, old, old.Add(disp), vel, dt)
	actual := game.AbsVec32(corrected.Sub(old))
	for axis := 0; axis < 3; axis++ {
		assert.IsTrue(actual[axis] <= ctx.bound[axis]+1e-4, game.ErrorSubStepOvershoot, actual[axis], ctx.bound[axis], axis)
		ctx.result.MaxSubStepDisplacement[axis] = math32.Max(ctx.result.MaxSubStepDisplacement[axis], actual[axis])
	}
	if outcome > ctx.result.Outcome {
		ctx.result.Outcome = outcome
	}
	ctx.result.SubSteps++

	s.position = corrected
	if s.OnGround() && s.velWorld[1] < 0 {
		s.velWorld[1] = 0
	}
	s.rotate(dt)
}

// abort discards the frame, putting the entity back where it started.
func (ctx *stepContext) abort(disp mgl32.Vec3) {
	s := ctx.state
	s.log.WithField("displacement", disp).Warnf("discarding non-finite movement step at %v", ctx.startPos)
	s.position = ctx.startPos
	s.sector = ctx.startSector
	s.velWorld = game.ZeroNaN(s.velWorld)
	ctx.result.Aborted = true
}

// crossPortals moves the entity into the sector it ended up in, applying the warp of any portal crossed.
func (ctx *stepContext) crossPortals() {
	s, w := ctx.state, ctx.integrator.World
	if w == nil {
		return
	}

	c, ok := w.Resolve(ctx.startSector, ctx.startPos, s.position)
	if !ok {
		s.log.Debugf(game.ErrorUnknownSector, ctx.startSector)
		return
	}
	if !c.Crossed() {
		return
	}

	ctx.result.Crossing = c
	s.sector = c.Sector
	if !c.Warped() {
		return
	}

	p := c.Portal
	s.portalDisplacement += c.Position.Sub(s.position).Len()
	s.position = c.Position
	s.yaw = game.WrapAngle(s.yaw + p.Warp.Yaw)
	if s.hasAngTarget {
		s.angTarget = game.WrapAngle(s.angTarget + p.Warp.Yaw)
	}
	s.velWorld = p.TransformVelocity(s.velWorld)
	s.offsetError = p.TransformVelocity(s.offsetError)
	s.offsetRate = p.TransformVelocity(s.offsetRate)
	ctx.integrator.debugf("warped through portal into sector %d at %v", c.Sector, s.position)
}

// settle refreshes ground contact and tilts the entity to the terrain if it hugs the ground.
func (ctx *stepContext) settle(dt float32) {
	s := ctx.state
	if !s.probe.CDEnabled() || !s.OnGround() {
		return
	}
	if s.probe.CheckGround(s.sector, s.position) && s.hugGround {
		s.hug(dt)
	}
}

// rotate turns the entity by its angular velocity, stopping exactly at the angular target if one is set.
func (s *State) rotate(dt float32) {
	step := s.angVel.Y() * dt
	if step == 0 {
		return
	}
	if s.hasAngTarget {
		diff := game.WrapAngle(s.angTarget - s.yaw)
		if step > 0 && diff < 0 {
			diff += 2 * math32.Pi
		} else if step < 0 && diff > 0 {
			diff -= 2 * math32.Pi
		}
		if math32.Abs(step) >= math32.Abs(diff) {
			s.yaw = s.angTarget
			s.angVel[1] = 0
			s.hasAngTarget = false
			return
		}
	}
	s.yaw = game.WrapAngle(s.yaw + step)
}
