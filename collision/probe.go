package collision

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/utils"
	"github.com/oomph-ac/reckon/world"
)

// World is the collision geometry a probe queries.
type World interface {
	NearbyBoxes(sector world.SectorID, bb cube.BBox, exclude uint64) []cube.BBox
	GroundHeight(sector world.SectorID, x, z, fromY, depth float32) (float32, bool)
}

// Probe answers whether an entity may move between two points and tracks its ground contact.
type Probe interface {
	// Init sets the extents of the entity and the handle of its own mesh. It must be called once
	// before any movement is adjusted.
	Init(ext Extents, mesh uint64) error
	Initialised() bool
	Extents() Extents

	// AdjustForCollisions returns the furthest point towards candidate the entity can reach from old.
	AdjustForCollisions(sector world.SectorID, old, candidate, vel mgl32.Vec3, dt float32) (Outcome, mgl32.Vec3)

	IsOnGround() bool
	SetOnGround(onGround bool)
	// UseCD enables or disables collision detection. With collision detection disabled every
	// movement is accepted as is.
	UseCD(enable bool)
	CDEnabled() bool

	// CheckGround updates the ground contact flag for an entity standing at pos and returns it.
	CheckGround(sector world.SectorID, pos mgl32.Vec3) bool
	// SampleGround returns the ground under each corner of the entity's footprint.
	SampleGround(sector world.SectorID, pos mgl32.Vec3) ([4]mgl32.Vec3, [4]bool)
	// Occupied returns true if any geometry other than the entity's own intersects bb.
	Occupied(sector world.SectorID, bb cube.BBox) bool
}

// BoxProbe is a Probe that sweeps the union of an entity's extents through the boxes of a World.
type BoxProbe struct {
	world World
	ext   Extents
	mesh  uint64

	initialised bool
	onGround    bool
	cd          bool
}

// NewBoxProbe returns a probe querying the world passed. Collision detection starts enabled.
func NewBoxProbe(w World) *BoxProbe {
	return &BoxProbe{world: w, cd: true}
}

// Init ...
func (p *BoxProbe) Init(ext Extents, mesh uint64) error {
	if err := ext.Validate(); err != nil {
		p.initialised = false
		return err
	}
	p.ext, p.mesh = ext, mesh
	p.initialised = true
	return nil
}

// Initialised ...
func (p *BoxProbe) Initialised() bool {
	return p.initialised
}

// Extents ...
func (p *BoxProbe) Extents() Extents {
	return p.ext
}

// IsOnGround ...
func (p *BoxProbe) IsOnGround() bool {
	return p.onGround
}

// SetOnGround ...
func (p *BoxProbe) SetOnGround(onGround bool) {
	p.onGround = onGround
}

// UseCD ...
func (p *BoxProbe) UseCD(enable bool) {
	p.cd = enable
}

// CDEnabled ...
func (p *BoxProbe) CDEnabled() bool {
	return p.cd
}

// AdjustForCollisions clips the displacement from old to candidate against nearby geometry one axis
// at a time, Y first. If the entity is on the ground and runs into something horizontally, the same
// movement is retried raised by the step height, and kept if it gets further.
func (p *BoxProbe) AdjustForCollisions(sector world.SectorID, old, candidate, vel mgl32.Vec3, dt float32) (Outcome, mgl32.Vec3) {
	if !p.initialised || !p.cd || p.world == nil {
		return OutcomeAccepted, candidate
	}

	disp := candidate.Sub(old)
	startBB := p.ext.Box(old)
	bbList := p.world.NearbyBoxes(sector, startBB.Extend(disp).Grow(p.ext.StepBound().Y()), p.mesh)
	if len(bbList) == 0 {
		p.onGround = false
		return OutcomeAccepted, candidate
	}

	collisionVel, _ := sweep(bbList, startBB, disp)

	yCollision := math32.Abs(disp.Y()-collisionVel.Y()) >= game.Epsilon
	xCollision := math32.Abs(disp.X()-collisionVel.X()) >= game.Epsilon
	zCollision := math32.Abs(disp.Z()-collisionVel.Z()) >= game.Epsilon
	onGround := p.onGround || (yCollision && disp.Y() < 0)
	stepped, landed := false, false

	if onGround && (xCollision || zCollision) {
		stepUp := mgl32.Vec3{0, p.ext.StepBound().Y()}
		stepBB := startBB
		for _, bb := range bbList {
			stepUp = utils.BBClipCollide(bb, stepBB, stepUp, true, nil)
		}
		stepBB = stepBB.Translate(stepUp)

		stepVel, stepBB := sweep(bbList, stepBB, mgl32.Vec3{disp.X(), 0, disp.Z()})
		fall := -stepUp.Y() + math32.Min(0, disp.Y())
		down := mgl32.Vec3{0, fall}
		for _, bb := range bbList {
			down = utils.BBClipCollide(bb, stepBB, down, true, nil)
		}
		stepVel = stepVel.Add(stepUp).Add(down)

		if game.Vec3HzDistSqr(collisionVel) < game.Vec3HzDistSqr(stepVel) {
			collisionVel = stepVel
			stepped, landed = true, down.Y()-fall >= game.Epsilon
		}
	}

	if stepped {
		p.onGround = landed
	} else {
		p.onGround = (yCollision && disp.Y() < 0) || (p.onGround && !yCollision && math32.Abs(disp.Y()) <= game.Epsilon)
	}
	corrected := old.Add(collisionVel)
	return classify(disp, collisionVel), corrected
}

// sweep clips vel against every box in bbList on the Y, X and Z axes in turn, returning the clipped
// velocity and the translated box.
func sweep(bbList []cube.BBox, moving cube.BBox, vel mgl32.Vec3) (mgl32.Vec3, cube.BBox) {
	yVel := mgl32.Vec3{0, vel.Y()}
	xVel := mgl32.Vec3{vel.X()}
	zVel := mgl32.Vec3{0, 0, vel.Z()}

	for i := len(bbList) - 1; i >= 0; i-- {
		yVel = utils.BBClipCollide(bbList[i], moving, yVel, true, nil)
	}
	moving = moving.Translate(yVel)

	for i := len(bbList) - 1; i >= 0; i-- {
		xVel = utils.BBClipCollide(bbList[i], moving, xVel, true, nil)
	}
	moving = moving.Translate(xVel)

	for i := len(bbList) - 1; i >= 0; i-- {
		zVel = utils.BBClipCollide(bbList[i], moving, zVel, true, nil)
	}
	moving = moving.Translate(zVel)

	return yVel.Add(xVel).Add(zVel), moving
}

func classify(attempted, achieved mgl32.Vec3) Outcome {
	if attempted.ApproxEqualThreshold(achieved, game.Epsilon) {
		return OutcomeAccepted
	}

	attemptedHz := game.Vec3HzDist(attempted)
	if attemptedHz <= game.Epsilon {
		return OutcomeAdjusted
	}
	achievedHz := game.Vec3HzDist(achieved)
	if achievedHz <= game.Epsilon && math32.Abs(achieved.Y()) <= game.Epsilon {
		return OutcomeBlocked
	}
	if achievedHz < attemptedHz*game.PartialMoveRatio {
		return OutcomePartial
	}
	return OutcomeAdjusted
}

// CheckGround ...
func (p *BoxProbe) CheckGround(sector world.SectorID, pos mgl32.Vec3) bool {
	if !p.initialised || p.world == nil {
		return p.onGround
	}

	bb := p.ext.Box(pos)
	feet := bb.Min().Y()
	slab := cube.Box(bb.Min().X(), feet-game.GroundProbeDepth, bb.Min().Z(), bb.Max().X(), feet, bb.Max().Z())

	p.onGround = false
	for _, box := range p.world.NearbyBoxes(sector, slab, p.mesh) {
		if box.Max().X() <= slab.Min().X() || box.Min().X() >= slab.Max().X() ||
			box.Max().Z() <= slab.Min().Z() || box.Min().Z() >= slab.Max().Z() {
			continue
		}
		if top := box.Max().Y(); top >= slab.Min().Y() && top <= feet+game.Epsilon {
			p.onGround = true
			break
		}
	}
	return p.onGround
}

// SampleGround ...
func (p *BoxProbe) SampleGround(sector world.SectorID, pos mgl32.Vec3) (samples [4]mgl32.Vec3, found [4]bool) {
	if !p.initialised || p.world == nil {
		return
	}

	half := game.GroundSampleDepth / 2
	for i, corner := range p.ext.Footprint(pos) {
		h, ok := p.world.GroundHeight(sector, corner.X(), corner.Z(), corner.Y()+half, game.GroundSampleDepth)
		samples[i], found[i] = mgl32.Vec3{corner.X(), h, corner.Z()}, ok
	}
	return
}

// Occupied ...
func (p *BoxProbe) Occupied(sector world.SectorID, bb cube.BBox) bool {
	if p.world == nil {
		return false
	}
	return len(p.world.NearbyBoxes(sector, bb, p.mesh)) > 0
}
