package demo

import (
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/world"
	"github.com/sirupsen/logrus"
)

// World returns the world shared by the example server and client: a hall with a few pillars, an annex
// reached through a doorway and a vault reached through a warping portal.
func World(log logrus.FieldLogger) *world.World {
	w := world.New(log)
	hall := w.AddSector("hall", cube.Box(-32, -4, -32, 32, 16, 32))
	annex := w.AddSector("annex", cube.Box(32, -4, -16, 64, 16, 16))
	vault := w.AddSector("vault", cube.Box(500, -4, 500, 532, 16, 532))

	must(w.AddMesh(hall, 1, cube.Box(-32, -1, -32, 32, 0, 32)))
	must(w.AddMesh(annex, 2, cube.Box(32, -1, -16, 64, 0, 16)))
	must(w.AddMesh(vault, 3, cube.Box(500, -1, 500, 532, 0, 532)))

	handle := uint64(10)
	for _, p := range []mgl32.Vec2{{-10, -10}, {10, -10}, {-10, 10}, {10, 10}} {
		must(w.AddMesh(hall, handle, cube.Box(p[0]-1, 0, p[1]-1, p[0]+1, 6, p[1]+1)))
		handle++
	}
	// A low step in the annex.
	must(w.AddMesh(annex, handle, cube.Box(40, 0, -4, 44, 0.4, 4)))

	must(w.AddPortal(hall, annex, cube.Box(31.9, 0, -2, 32.1, 4, 2), nil, true))
	must(w.AddPortal(annex, vault, cube.Box(63.9, 0, -2, 64.1, 4, 2), &world.Warp{Offset: mgl32.Vec3{452, 0, 516}}, false))
	return w
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
