package movement

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/world"
)

// Waypoint is a point an entity passes on a path at a given time.
type Waypoint struct {
	// Time is the time since the start of the path the entity reaches the waypoint, in seconds.
	Time     float32
	Position mgl32.Vec3
	// Action tags the segment starting at this waypoint, for example an animation to play.
	Action string
}

// Path is a timed list of waypoints.
type Path struct {
	Points []Waypoint
	// Smooth interpolates between waypoints with a curve through all of them instead of straight lines.
	Smooth bool
}

// NewPath returns a path through the waypoints passed, ordered by time.
func NewPath(smooth bool, points ...Waypoint) *Path {
	sorted := append([]Waypoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	return &Path{Points: sorted, Smooth: smooth}
}

// Duration returns the time of the last waypoint.
func (p *Path) Duration() float32 {
	if len(p.Points) == 0 {
		return 0
	}
	return p.Points[len(p.Points)-1].Time
}

// Sample returns the position on the path at time t and the action of the segment t falls in.
func (p *Path) Sample(t float32) (mgl32.Vec3, string) {
	switch len(p.Points) {
	case 0:
		return mgl32.Vec3{}, ""
	case 1:
		return p.Points[0].Position, p.Points[0].Action
	}

	i := p.segment(t)
	a, b := p.Points[i], p.Points[i+1]
	span := b.Time - a.Time
	u := float32(1)
	if span > game.Epsilon {
		u = game.ClampFloat((t-a.Time)/span, 0, 1)
	}

	if !p.Smooth {
		return a.Position.Add(b.Position.Sub(a.Position).Mul(u)), a.Action
	}

	// Catmull-Rom through the neighbouring waypoints, evaluated as a cubic Bezier segment.
	before, after := a.Position, b.Position
	if i > 0 {
		before = p.Points[i-1].Position
	}
	if i+2 < len(p.Points) {
		after = p.Points[i+2].Position
	}
	c1 := a.Position.Add(b.Position.Sub(before).Mul(1.0 / 6))
	c2 := b.Position.Sub(after.Sub(a.Position).Mul(1.0 / 6))
	return mgl32.CubicBezierCurve3D(u, a.Position, c1, c2, b.Position), a.Action
}

// Heading returns the yaw of the direction of travel at time t, and false if the path is not moving
// horizontally there.
func (p *Path) Heading(t float32) (float32, bool) {
	const delta = 1.0 / 60
	from, to := t, t+delta
	if to > p.Duration() {
		from, to = p.Duration()-delta, p.Duration()
	}
	a, _ := p.Sample(from)
	b, _ := p.Sample(to)
	dir := b.Sub(a)
	if game.Vec3HzDistSqr(dir) <= game.Epsilon*game.Epsilon {
		return 0, false
	}
	return math32.Atan2(dir.X(), dir.Z()), true
}

// segment returns the index of the waypoint starting the segment t falls in.
func (p *Path) segment(t float32) int {
	i := sort.Search(len(p.Points), func(i int) bool { return p.Points[i].Time > t }) - 1
	if i < 0 {
		return 0
	}
	if i > len(p.Points)-2 {
		return len(p.Points) - 2
	}
	return i
}

type pathFollow struct {
	path   *Path
	time   float32
	speed  float32
	sector world.SectorID
	action string
}

// FollowPath makes the entity move along path in the sector passed, overriding its velocity until the
// path completes or is cleared. speed scales the passing of time along the path.
func (s *State) FollowPath(path *Path, speed float32, sector world.SectorID) {
	if path == nil || len(path.Points) == 0 {
		s.path = nil
		return
	}
	s.path = &pathFollow{path: path, speed: speed, sector: sector}
}

// ClearPath stops the entity following its path.
func (s *State) ClearPath() {
	s.path = nil
}

// FollowingPath returns true if the entity is following a path.
func (s *State) FollowingPath() bool {
	return s.path != nil
}

// PathAction returns the action of the path segment the entity is on.
func (s *State) PathAction() string {
	if s.path == nil {
		return ""
	}
	return s.path.action
}

// stepPath moves the entity along its path.
func (i *Integrator) stepPath(s *State, dt float32) StepResult {
	pf := s.path
	start := s.position
	pf.time += dt * pf.speed

	t := math32.Min(pf.time, pf.path.Duration())
	pos, action := pf.path.Sample(t)
	if game.HasNaN(pos) {
		s.log.Warnf("discarding non-finite path position at t=%.4f", t)
		return StepResult{Aborted: true, FollowedPath: true}
	}
	if yaw, ok := pf.path.Heading(t); ok {
		s.yaw = yaw
	}
	s.position = pos
	s.sector = pf.sector
	pf.action = action

	if pf.time >= pf.path.Duration() {
		i.debugf("path completed after %.4fs", pf.time)
		s.path = nil
	}
	return StepResult{FollowedPath: true, Displacement: pos.Sub(start)}
}
