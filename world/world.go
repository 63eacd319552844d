package world

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/utils"
	"github.com/sirupsen/logrus"
)

// World is an in-memory sector graph holding the static collision geometry of every sector. It
// is built once at load time and is safe for concurrent readers afterwards.
type World struct {
	sectors map[SectorID]*Sector
	log     logrus.FieldLogger

	sync.RWMutex
}

// New creates an empty world. A nil logger discards all output.
func New(log logrus.FieldLogger) *World {
	return &World{
		sectors: make(map[SectorID]*Sector),
		log:     utils.LoggerOrNop(log),
	}
}

// AddSector adds a sector with the name and bounds passed, returning its ID.
func (w *World) AddSector(name string, bounds cube.BBox) SectorID {
	w.Lock()
	defer w.Unlock()

	id := IDFromName(name)
	if _, ok := w.sectors[id]; ok {
		w.log.Warnf("sector %q added twice, keeping the first definition", name)
		return id
	}
	w.sectors[id] = &Sector{ID: id, Name: name, Bounds: bounds}
	return id
}

// AddMesh adds a static collision box to a sector.
func (w *World) AddMesh(sector SectorID, handle uint64, box cube.BBox) error {
	w.Lock()
	defer w.Unlock()

	s, ok := w.sectors[sector]
	if !ok {
		return fmt.Errorf(game.ErrorUnknownSector, sector)
	}
	s.meshes = append(s.meshes, Mesh{Handle: handle, Box: box})
	return nil
}

// AddPortal connects two sectors through the window passed. If twoWay is true a portal in the
// opposite direction is added too, carrying the inverse warp.
func (w *World) AddPortal(from, to SectorID, window cube.BBox, warp *Warp, twoWay bool) error {
	w.Lock()
	defer w.Unlock()

	src, ok := w.sectors[from]
	if !ok {
		return fmt.Errorf(game.ErrorUnknownSector, from)
	}
	dst, ok := w.sectors[to]
	if !ok {
		return fmt.Errorf(game.ErrorUnknownSector, to)
	}

	p := &Portal{From: from, To: to, Window: window, Warp: warp}
	src.portals = append(src.portals, p)
	if !twoWay {
		return nil
	}

	back := &Portal{From: to, To: from, Window: window}
	if warp != nil {
		// The return window is where the forward portal delivers entities to.
		back.Window = window.Translate(warp.Offset)
		back.Warp = &Warp{Offset: warp.Offset.Mul(-1), Yaw: -warp.Yaw}
	}
	dst.portals = append(dst.portals, back)
	return nil
}

// Sector returns the sector with the ID passed.
func (w *World) Sector(id SectorID) (*Sector, bool) {
	w.RLock()
	defer w.RUnlock()

	s, ok := w.sectors[id]
	return s, ok
}

// SectorByName returns the sector with the name passed.
func (w *World) SectorByName(name string) (*Sector, bool) {
	return w.Sector(IDFromName(name))
}

// Resolve determines which sector the movement from start to end, beginning in the sector passed,
// ends up in. The movement crosses at most one portal: the first one whose window the segment passes
// through while end lies outside the starting sector. ok is false if the starting sector is unknown.
func (w *World) Resolve(from SectorID, start, end mgl32.Vec3) (c Crossing, ok bool) {
	w.RLock()
	defer w.RUnlock()

	s, ok := w.sectors[from]
	if !ok {
		return Crossing{Sector: from, Position: end}, false
	}

	c = Crossing{Sector: from, Position: end}
	if s.Contains(end) {
		return c, true
	}
	for _, p := range s.portals {
		if !game.SegmentIntersectsBox(p.Window, start, end) {
			continue
		}
		return Crossing{Sector: p.To, Position: p.Transform(end), Portal: p}, true
	}
	return c, true
}

// Connected returns true if sector b can be reached from sector a by traversing any number of portals.
func (w *World) Connected(a, b SectorID) bool {
	return w.reachable(a, b, false)
}

// SharesFrame returns true if sector b can be reached from sector a through portals that do not remap
// space, so that positions in both sectors may be compared directly.
func (w *World) SharesFrame(a, b SectorID) bool {
	return w.reachable(a, b, true)
}

func (w *World) reachable(a, b SectorID, skipWarps bool) bool {
	if a == b {
		return true
	}

	w.RLock()
	defer w.RUnlock()

	if _, ok := w.sectors[a]; !ok {
		return false
	}
	visited := map[SectorID]struct{}{a: {}}
	queue := []SectorID{a}
	for len(queue) > 0 {
		current := w.sectors[queue[0]]
		queue = queue[1:]
		if current == nil {
			continue
		}

		for _, p := range current.portals {
			if skipWarps && p.Warp != nil {
				continue
			}
			if p.To == b {
				return true
			}
			if _, seen := visited[p.To]; seen {
				continue
			}
			visited[p.To] = struct{}{}
			queue = append(queue, p.To)
		}
	}
	return false
}

// NearbyBoxes returns the collision boxes intersecting bb in the sector passed and in every sector
// it connects to through portals that do not remap space. Meshes with the handle exclude are skipped.
func (w *World) NearbyBoxes(sector SectorID, bb cube.BBox, exclude uint64) []cube.BBox {
	w.RLock()
	defer w.RUnlock()

	s, ok := w.sectors[sector]
	if !ok {
		return nil
	}

	var boxes []cube.BBox
	collect := func(s *Sector) {
		for _, m := range s.meshes {
			if m.Handle == exclude && exclude != 0 {
				continue
			}
			if overlaps(m.Box, bb) {
				boxes = append(boxes, m.Box)
			}
		}
	}
	collect(s)
	for _, p := range s.portals {
		if p.Warp != nil {
			continue
		}
		if neighbour, ok := w.sectors[p.To]; ok {
			collect(neighbour)
		}
	}
	return boxes
}

// GroundHeight returns the height of the highest collision surface below (x, fromY, z) within depth.
func (w *World) GroundHeight(sector SectorID, x, z, fromY, depth float32) (float32, bool) {
	column := cube.Box(x-game.Epsilon, fromY-depth, z-game.Epsilon, x+game.Epsilon, fromY+game.Epsilon, z+game.Epsilon)

	height, found := float32(-math32.MaxFloat32), false
	for _, bb := range w.NearbyBoxes(sector, column, 0) {
		if x < bb.Min().X() || x > bb.Max().X() || z < bb.Min().Z() || z > bb.Max().Z() {
			continue
		}
		top := bb.Max().Y()
		if top > fromY+game.Epsilon || top < fromY-depth {
			continue
		}
		if top > height {
			height, found = top, true
		}
	}
	return height, found
}

// overlaps returns true if the two boxes intersect or touch.
func overlaps(a, b cube.BBox) bool {
	for i := 0; i < 3; i++ {
		if a.Max()[i] < b.Min()[i] || b.Max()[i] < a.Min()[i] {
			return false
		}
	}
	return true
}
