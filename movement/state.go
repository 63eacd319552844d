package movement

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/collision"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/utils"
	"github.com/oomph-ac/reckon/world"
	"github.com/sirupsen/logrus"
)

var up = mgl32.Vec3{0, 1, 0}

// State is the movement state of a single entity. It is owned by one Controller and is not safe for
// concurrent use on its own.
type State struct {
	position mgl32.Vec3
	sector   world.SectorID
	yaw      float32
	// tilt is the up vector of the entity when hugging the ground.
	tilt mgl32.Vec3

	velBody  mgl32.Vec3
	velWorld mgl32.Vec3
	angVel   mgl32.Vec3

	angTarget    float32
	hasAngTarget bool

	hugGround bool
	probe     collision.Probe
	path      *pathFollow

	offsetError mgl32.Vec3
	offsetRate  mgl32.Vec3

	lastUpdate       time.Time
	lastClientPos    mgl32.Vec3
	lastClientYaw    float32
	lastClientSector world.SectorID

	// portalDisplacement accumulates the distance entities were moved by warping portals.
	portalDisplacement float32

	log logrus.FieldLogger
}

// NewState creates a state for an entity in the sector and at the position passed. Movement is inert
// until InitCollision succeeds.
func NewState(probe collision.Probe, sector world.SectorID, pos mgl32.Vec3, log logrus.FieldLogger) *State {
	return &State{
		position:         pos,
		sector:           sector,
		tilt:             up,
		probe:            probe,
		lastClientPos:    pos,
		lastClientSector: sector,
		log:              utils.LoggerOrNop(log),
	}
}

// InitCollision sets the collision extents of the entity. If the extents are invalid the error is
// logged and returned, and the entity stays inert.
func (s *State) InitCollision(ext collision.Extents, mesh uint64) error {
	if s.probe == nil {
		return nil
	}
	if err := s.probe.Init(ext, mesh); err != nil {
		s.log.Warnf("entity stays inert: %v", err)
		return err
	}
	return nil
}

// Initialised returns true if the entity has valid collision extents and can be integrated.
func (s *State) Initialised() bool {
	return s.probe != nil && s.probe.Initialised()
}

// Probe returns the collision probe of the entity.
func (s *State) Probe() collision.Probe {
	return s.probe
}

func (s *State) Position() mgl32.Vec3 {
	return s.position
}

func (s *State) SetPosition(pos mgl32.Vec3) {
	s.position = pos
}

func (s *State) Sector() world.SectorID {
	return s.sector
}

func (s *State) SetSector(sector world.SectorID) {
	s.sector = sector
}

func (s *State) Yaw() float32 {
	return s.yaw
}

func (s *State) SetYaw(yaw float32) {
	s.yaw = game.WrapAngle(yaw)
}

// Tilt returns the up vector the entity is tilted to.
func (s *State) Tilt() mgl32.Vec3 {
	return s.tilt
}

// BodyVelocity returns the intentional velocity of the entity, relative to its yaw.
func (s *State) BodyVelocity() mgl32.Vec3 {
	return s.velBody
}

func (s *State) SetBodyVelocity(vel mgl32.Vec3) {
	s.velBody = vel
}

// WorldVelocity returns the environmental velocity of the entity, such as gravity or knockback.
func (s *State) WorldVelocity() mgl32.Vec3 {
	return s.velWorld
}

func (s *State) SetWorldVelocity(vel mgl32.Vec3) {
	s.velWorld = vel
}

// Velocity returns the composite world-space velocity of the entity.
func (s *State) Velocity() mgl32.Vec3 {
	return game.RotateYaw(s.velBody, s.yaw).Add(s.velWorld)
}

func (s *State) AngularVelocity() mgl32.Vec3 {
	return s.angVel
}

func (s *State) SetAngularVelocity(vel mgl32.Vec3) {
	s.angVel = vel
}

// SetAngularTarget makes the entity stop rotating once its yaw reaches target.
func (s *State) SetAngularTarget(target float32) {
	s.angTarget, s.hasAngTarget = game.WrapAngle(target), true
}

func (s *State) ClearAngularTarget() {
	s.hasAngTarget = false
}

func (s *State) AngularTarget() (float32, bool) {
	return s.angTarget, s.hasAngTarget
}

func (s *State) OnGround() bool {
	return s.probe != nil && s.probe.IsOnGround()
}

func (s *State) SetOnGround(onGround bool) {
	if s.probe != nil {
		s.probe.SetOnGround(onGround)
	}
}

// HugGround returns true if the entity tilts to match the slope of the terrain under it.
func (s *State) HugGround() bool {
	return s.hugGround
}

func (s *State) SetHugGround(hug bool) {
	s.hugGround = hug
	if !hug {
		s.tilt = up
	}
}

// UseCD enables or disables collision detection for the entity.
func (s *State) UseCD(enable bool) {
	if s.probe != nil {
		s.probe.UseCD(enable)
	}
}

// OffsetError returns the remaining soft correction. It is zero once the correction is fully absorbed.
func (s *State) OffsetError() mgl32.Vec3 {
	return s.offsetError
}

func (s *State) OffsetRate() mgl32.Vec3 {
	return s.offsetRate
}

// PortalDisplacement returns the total distance the entity was moved by warping portals.
func (s *State) PortalDisplacement() float32 {
	return s.portalDisplacement
}

// LastUpdate returns the time the last snapshot was applied.
func (s *State) LastUpdate() time.Time {
	return s.lastUpdate
}

// LastClientPosition returns the position, yaw and sector of the last snapshot applied.
func (s *State) LastClientPosition() (mgl32.Vec3, float32, world.SectorID) {
	return s.lastClientPos, s.lastClientYaw, s.lastClientSector
}

// Divergence returns how far the simulated position is from the last position the network reported.
func (s *State) Divergence() float32 {
	return s.position.Sub(s.lastClientPos).Len()
}

// Transform returns the transform to render the entity with.
func (s *State) Transform() Transform {
	return Transform{
		Position: s.RenderPosition(),
		Sector:   s.sector,
		Yaw:      s.yaw,
		Tilt:     s.tilt,
	}
}

// Snapshot returns the current state of the entity as a dead reckoning snapshot.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		OnGround:        s.OnGround(),
		Position:        s.position,
		Yaw:             s.yaw,
		Sector:          s.sector,
		BodyVelocity:    s.velBody,
		WorldVelocity:   s.velWorld,
		AngularVelocity: s.angVel.Y(),
	}
}
