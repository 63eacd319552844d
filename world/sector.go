package world

import (
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/game"
	"github.com/zeebo/xxh3"
)

// SectorID identifies a sector. It is derived from the sector's name so that peers which only
// exchange names agree on the identifier.
type SectorID uint64

// NoSector is the zero SectorID. No named sector hashes to it in practice.
const NoSector SectorID = 0

// IDFromName returns the SectorID of the sector with the name passed.
func IDFromName(name string) SectorID {
	return SectorID(xxh3.HashString(name))
}

// Mesh is a static piece of collision geometry inside a sector.
type Mesh struct {
	// Handle identifies the mesh. Entities pass their own handle to collision queries so they
	// never collide with themselves.
	Handle uint64
	Box    cube.BBox
}

// Sector is a discrete zone of the world.
type Sector struct {
	ID     SectorID
	Name   string
	Bounds cube.BBox

	meshes  []Mesh
	portals []*Portal
}

// Meshes returns the collision geometry of the sector.
func (s *Sector) Meshes() []Mesh {
	return s.meshes
}

// Portals returns the portals leading out of the sector.
func (s *Sector) Portals() []*Portal {
	return s.portals
}

// Contains returns true if the point is within the bounds of the sector.
func (s *Sector) Contains(pos mgl32.Vec3) bool {
	return game.BoxContains(s.Bounds, pos)
}

// Warp describes how a portal remaps space: positions are rotated about the centre of the portal
// window by Yaw and then translated by Offset. Velocities are rotated by Yaw.
type Warp struct {
	Offset mgl32.Vec3
	Yaw    float32
}

// Portal connects two sectors through a window.
type Portal struct {
	From, To SectorID
	Window   cube.BBox
	// Warp is nil for portals that do not remap space.
	Warp *Warp
}

// Transform applies the portal's warp to a position. Portals without a warp return the position as is.
func (p *Portal) Transform(pos mgl32.Vec3) mgl32.Vec3 {
	if p.Warp == nil {
		return pos
	}
	centre := game.BoxCentre(p.Window)
	return game.RotateYaw(pos.Sub(centre), p.Warp.Yaw).Add(centre).Add(p.Warp.Offset)
}

// TransformVelocity applies the rotation of the portal's warp to a velocity.
func (p *Portal) TransformVelocity(vel mgl32.Vec3) mgl32.Vec3 {
	if p.Warp == nil {
		return vel
	}
	return game.RotateYaw(vel, p.Warp.Yaw)
}

// Crossing is the result of resolving movement across sector boundaries.
type Crossing struct {
	// Sector is the sector the movement ended up in.
	Sector SectorID
	// Position is the end position, remapped by the warp of the portal crossed if any.
	Position mgl32.Vec3
	// Portal is the portal crossed, or nil if the movement stayed inside the sector.
	Portal *Portal
}

// Crossed returns true if a portal was crossed.
func (c Crossing) Crossed() bool {
	return c.Portal != nil
}

// Warped returns true if a portal that remaps space was crossed.
func (c Crossing) Warped() bool {
	return c.Portal != nil && c.Portal.Warp != nil
}
