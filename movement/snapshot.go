package movement

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/world"
)

// Snapshot is a dead reckoning update for an entity as sent over the network. It is discarded once
// applied.
type Snapshot struct {
	OnGround bool
	Position mgl32.Vec3
	Yaw      float32
	Sector   world.SectorID
	// SectorName is the name of Sector as declared by the sender.
	SectorName string

	BodyVelocity  mgl32.Vec3
	WorldVelocity mgl32.Vec3
	// AngularVelocity is the rotation speed about the up axis, in radians per second.
	AngularVelocity float32

	// Received is the time the snapshot arrived.
	Received time.Time
}

// Velocity returns the composite world-space velocity described by the snapshot.
func (s Snapshot) Velocity() mgl32.Vec3 {
	return game.RotateYaw(s.BodyVelocity, s.Yaw).Add(s.WorldVelocity)
}

// Transform is the placement of an entity as handed to the renderer.
type Transform struct {
	Position mgl32.Vec3
	Sector   world.SectorID
	Yaw      float32
	// Tilt is the up vector of the entity.
	Tilt mgl32.Vec3
}

// Orientation returns the full orientation of the transform: the yaw, followed by the tilt.
func (t Transform) Orientation() mgl32.Quat {
	yaw := mgl32.QuatRotate(t.Yaw, up)
	if t.Tilt.Len() == 0 {
		return yaw
	}
	return mgl32.QuatBetweenVectors(up, t.Tilt.Normalize()).Mul(yaw)
}
