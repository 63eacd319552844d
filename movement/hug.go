package movement

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/game"
)

// hug tilts the entity towards the slope of the terrain under its footprint. The tilt converges over
// several frames. If fewer than three corners agree on the terrain height the tilt is left alone.
func (s *State) hug(dt float32) {
	samples, found := s.probe.SampleGround(s.sector, s.position)

	heights := make([]float32, 0, 4)
	for i := range samples {
		if found[i] {
			heights = append(heights, samples[i].Y())
		}
	}
	if len(heights) < 3 {
		return
	}
	median := medianOf(heights)

	size := game.BoxSize(s.probe.Extents().Bottom)
	limit := game.HugMaxSpread * math32.Sqrt(size.X()*size.X()+size.Z()*size.Z())

	agree := make([]mgl32.Vec3, 0, 4)
	for i := range samples {
		if found[i] && math32.Abs(samples[i].Y()-median) <= limit {
			agree = append(agree, samples[i])
		}
	}
	if len(agree) < 3 {
		return
	}

	normal, ok := fitPlane(agree)
	if !ok {
		return
	}
	t := math32.Min(1, game.HugRate*dt)
	if tilt := s.tilt.Add(normal.Sub(s.tilt).Mul(t)); tilt.Len() > game.Epsilon {
		s.tilt = tilt.Normalize()
	}
}

func medianOf(values []float32) float32 {
	sorted := append([]float32(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// fitPlane returns the upward facing normal of the plane through the points passed. Four points are
// fitted using the diagonals of the quad they form.
func fitPlane(points []mgl32.Vec3) (mgl32.Vec3, bool) {
	var n mgl32.Vec3
	switch len(points) {
	case 3:
		n = points[1].Sub(points[0]).Cross(points[2].Sub(points[0]))
	case 4:
		n = points[2].Sub(points[0]).Cross(points[3].Sub(points[1]))
	default:
		return mgl32.Vec3{}, false
	}
	if n.Len() <= game.Epsilon {
		return mgl32.Vec3{}, false
	}
	if n.Y() < 0 {
		n = n.Mul(-1)
	}
	return n.Normalize(), true
}
