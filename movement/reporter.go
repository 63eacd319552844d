package movement

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/oomph-ac/reckon/game"
)

// Reporter decides when a locally controlled entity should send a new snapshot.
type Reporter struct {
	// Threshold is how far the entity may drift from where the last report extrapolated it to.
	Threshold float32
	// YawThreshold is how far the entity may turn before a report is sent, in radians.
	YawThreshold float32
	// Heartbeat is the longest time between two reports.
	Heartbeat time.Duration

	last     Snapshot
	lastSent time.Time
	sent     bool
}

// NewReporter returns a reporter with the thresholds passed.
func NewReporter(threshold, yawThreshold float32, heartbeat time.Duration) *Reporter {
	return &Reporter{Threshold: threshold, YawThreshold: yawThreshold, Heartbeat: heartbeat}
}

// Report returns a snapshot to send if the entity diverged from what observers predict from the last
// report, or if the heartbeat elapsed.
func (r *Reporter) Report(current Snapshot, now time.Time) (Snapshot, bool) {
	if !r.sent || r.due(current, now) {
		current.Received = now
		r.last, r.lastSent, r.sent = current, now, true
		return current, true
	}
	return Snapshot{}, false
}

func (r *Reporter) due(current Snapshot, now time.Time) bool {
	elapsed := now.Sub(r.lastSent)
	if r.Heartbeat > 0 && elapsed >= r.Heartbeat {
		return true
	}
	if current.Sector != r.last.Sector || current.OnGround != r.last.OnGround {
		return true
	}
	if !current.BodyVelocity.ApproxEqualThreshold(r.last.BodyVelocity, game.Epsilon) || current.AngularVelocity != r.last.AngularVelocity {
		return true
	}
	if math32.Abs(game.WrapAngle(current.Yaw-r.last.Yaw)) > r.YawThreshold {
		return true
	}

	predicted := r.last.Position.Add(r.last.Velocity().Mul(float32(elapsed.Seconds())))
	return current.Position.Sub(predicted).Len() > r.Threshold
}
