package validator

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/collision"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/movement"
)

// distanceOK returns true if the horizontal distance between the last accepted report and this one
// could have been covered at the maximum speed, allowing for the client's accumulated lag.
func (v *Validator) distanceOK(c *Client, report movement.Snapshot, elapsed, lag float32) bool {
	observed := game.Vec3HzDist(report.Position.Sub(c.last.Position))
	budget := v.maxSpeed*elapsed + v.maxSpeed*lag
	return observed <= budget
}

// finite returns true if every value of the report is a real number.
func finite(report movement.Snapshot) bool {
	if game.HasNaN(report.Position) || game.HasNaN(report.BodyVelocity) || game.HasNaN(report.WorldVelocity) {
		return false
	}
	for _, f := range [...]float32{report.Yaw, report.AngularVelocity} {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// adaptLag moves the lag allowance of a client towards the lag its movement implies. A stationary
// client converges on its connection jitter instead.
func (v *Validator) adaptLag(c *Client, report movement.Snapshot, elapsed, lag float32) float32 {
	observed := game.Vec3HzDist(report.Position.Sub(c.last.Position))

	target, rate := c.jitter, v.cfg.StationaryDecay
	if observed > game.Epsilon || game.Vec3HzDist(report.Velocity()) > game.Epsilon {
		implied := game.Vec3HzDist(c.last.Velocity()) * elapsed
		target, rate = (observed-implied)/v.maxSpeed, v.cfg.LagAdaptRate
	}
	return v.window.SetLag(c.name, lag+(target-lag)*rate, v.cfg.LagCeiling)
}

// replayOK moves a copy of the client from its last accepted position towards where it reported to be,
// at the maximum speed and with collisions, and returns true if the client did not get further on
// either horizontal axis than the replay allows. Vertical movement is not checked.
func (v *Validator) replayOK(c *Client, report movement.Snapshot, elapsed, lag float32) bool {
	actual := report.Position.Sub(c.last.Position)
	horizontal := mgl32.Vec3{actual.X(), 0, actual.Z()}
	if horizontal.Len() <= game.Epsilon {
		return true
	}

	s := movement.NewState(collision.NewBoxProbe(v.world), c.last.Sector, c.last.Position, v.log)
	if err := s.InitCollision(v.cfg.Extents, 0); err != nil {
		return true
	}
	s.SetOnGround(c.last.OnGround)
	s.SetBodyVelocity(horizontal.Normalize().Mul(v.maxSpeed))
	s.SetWorldVelocity(c.last.WorldVelocity)

	horizon := game.ClampFloat(elapsed+lag, 0, float32(v.cfg.WorstCaseLag.Seconds()))
	res := v.integrator.Step(s, horizon)
	if res.Crossing.Warped() || res.Aborted || res.MissingSector {
		return true
	}

	predicted := s.Position().Sub(c.last.Position)
	for _, axis := range [...]int{0, 2} {
		if game.AbsVec32(actual)[axis] > game.AbsVec32(predicted)[axis]+v.cfg.ReplayMargin {
			return false
		}
	}
	return true
}

// recordData returns the extra data of a violation record in a stable order.
func recordData(rec Record) *orderedmap.OrderedMap[string, any] {
	data := orderedmap.NewOrderedMap[string, any]()
	data.Set("sector", rec.SectorName)
	data.Set("prev", game.RoundVec32(rec.Previous, 3))
	data.Set("pos", game.RoundVec32(rec.Position, 3))
	data.Set("vel", game.RoundVec32(rec.Velocity, 3))
	data.Set("lag", fmt.Sprintf("%.3fs", rec.Lag))
	return data
}
