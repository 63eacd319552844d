package collision

import (
	"fmt"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/game"
)

// Extents are the body and legs boxes of an entity, relative to its position. The position of an
// entity is the centre of its feet.
type Extents struct {
	Top    cube.BBox
	Bottom cube.BBox
	// Shift is added to both boxes.
	Shift mgl32.Vec3
}

// StepBound returns the furthest an entity may travel on each axis in a single collision sub-step.
func (e Extents) StepBound() mgl32.Vec3 {
	return game.ComponentMin(game.BoxSize(e.Top), game.BoxSize(e.Bottom))
}

// Box returns the combined collision box of the entity at the position passed.
func (e Extents) Box(pos mgl32.Vec3) cube.BBox {
	return game.UnionBox(e.Top, e.Bottom).Translate(pos.Add(e.Shift))
}

// Footprint returns the four corners of the bottom box at the position passed, at the height of the
// feet.
func (e Extents) Footprint(pos mgl32.Vec3) [4]mgl32.Vec3 {
	bb := e.Bottom.Translate(pos.Add(e.Shift))
	min, max := bb.Min(), bb.Max()
	y := min.Y()
	return [4]mgl32.Vec3{
		{min.X(), y, min.Z()},
		{max.X(), y, min.Z()},
		{max.X(), y, max.Z()},
		{min.X(), y, max.Z()},
	}
}

// Validate returns an error if either box is empty, inverted or not finite.
func (e Extents) Validate() error {
	if game.HasNaN(e.Shift) {
		return fmt.Errorf(game.ErrorInvalidExtents, "shift is not finite")
	}
	for name, bb := range map[string]cube.BBox{"top": e.Top, "bottom": e.Bottom} {
		if game.HasNaN(bb.Min()) || game.HasNaN(bb.Max()) {
			return fmt.Errorf(game.ErrorInvalidExtents, name+" box is not finite")
		}
		size := game.BoxSize(bb)
		if size.X() <= 0 || size.Y() <= 0 || size.Z() <= 0 {
			return fmt.Errorf(game.ErrorInvalidExtents, fmt.Sprintf("%s box has size %v", name, size))
		}
	}
	return nil
}
