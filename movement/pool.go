package movement

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/world"
)

var ctxPool = sync.Pool{
	New: func() any {
		return &stepContext{}
	},
}

func newCtx(i *Integrator, s *State) *stepContext {
	ctx := ctxPool.Get().(*stepContext)
	ctx.integrator = i
	ctx.state = s
	ctx.startPos = s.position
	ctx.startSector = s.sector
	return ctx
}

func putCtx(ctx *stepContext) {
	ctx.reset()
	ctxPool.Put(ctx)
}

func (ctx *stepContext) reset() {
	ctx.integrator = nil
	ctx.state = nil
	ctx.startPos = mgl32.Vec3{}
	ctx.startSector = world.NoSector
	ctx.bound = mgl32.Vec3{}
	ctx.result = StepResult{}
}
