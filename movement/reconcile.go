package movement

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/game"
)

// ApplyHard overwrites the state with the snapshot passed, discarding any soft correction in progress.
func (s *State) ApplyHard(snap Snapshot) {
	if !s.acceptSnapshot(snap) {
		return
	}
	s.position = snap.Position
	s.sector = snap.Sector
	s.offsetError, s.offsetRate = mgl32.Vec3{}, mgl32.Vec3{}
	s.applyMotion(snap)
}

// ApplySoft moves the state to the snapshot passed while keeping the rendered position where it was.
// The difference is stored as an offset that BleedOffset absorbs over roughly one second. Snapshots
// from another sector are applied with ApplyHard instead, in which case false is returned.
// The simulated position is the snapshot's from the start, so collision queries during the blend run
// from the corrected position while only RenderPosition lags behind.
func (s *State) ApplySoft(snap Snapshot) bool {
	if snap.Sector != s.sector {
		s.ApplyHard(snap)
		return false
	}
	if !s.acceptSnapshot(snap) {
		return true
	}

	delta := game.ZeroNaN(snap.Position.Sub(s.position))
	s.position = snap.Position
	s.offsetError = delta
	s.offsetRate = delta
	s.applyMotion(snap)
	return true
}

// BleedOffset absorbs part of the soft correction. Each axis shrinks by its rate times dt, and snaps
// to zero once a step would reach or pass zero.
func (s *State) BleedOffset(dt float32) {
	if dt <= 0 {
		return
	}
	for i := 0; i < 3; i++ {
		if s.offsetError[i] == 0 {
			s.offsetRate[i] = 0
			continue
		}
		step := s.offsetRate[i] * dt
		if math32.Abs(step) >= math32.Abs(s.offsetError[i]) || step*s.offsetError[i] <= 0 {
			s.offsetError[i], s.offsetRate[i] = 0, 0
			continue
		}
		s.offsetError[i] -= step
	}
	s.offsetError = game.ZeroNaN(s.offsetError)
}

// RenderPosition returns the position the entity should be drawn at: the simulated position minus the
// part of the soft correction not absorbed yet.
func (s *State) RenderPosition() mgl32.Vec3 {
	return s.position.Sub(s.offsetError)
}

func (s *State) acceptSnapshot(snap Snapshot) bool {
	if game.HasNaN(snap.Position) || math32.IsNaN(snap.Yaw) || math32.IsInf(snap.Yaw, 0) {
		s.log.Warnf("ignoring snapshot with non-finite position %v or yaw %v", snap.Position, snap.Yaw)
		return false
	}
	return true
}

func (s *State) applyMotion(snap Snapshot) {
	s.yaw = game.WrapAngle(snap.Yaw)
	s.velBody = game.ZeroNaN(snap.BodyVelocity)
	s.velWorld = game.ZeroNaN(snap.WorldVelocity)
	s.angVel = game.ZeroNaN(mgl32.Vec3{0, snap.AngularVelocity})
	s.hasAngTarget = false
	s.SetOnGround(snap.OnGround)

	s.lastUpdate = snap.Received
	if s.lastUpdate.IsZero() {
		s.lastUpdate = time.Now()
	}
	s.lastClientPos = snap.Position
	s.lastClientYaw = snap.Yaw
	s.lastClientSector = snap.Sector
}
