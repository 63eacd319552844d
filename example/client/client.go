package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/client"
	"github.com/oomph-ac/reckon/collision"
	"github.com/oomph-ac/reckon/example/internal/demo"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/movement"
	"github.com/oomph-ac/reckon/world"
	"github.com/sirupsen/logrus"
)

var extents = collision.Extents{
	Top:    game.AABBFromDimensions(0.6, 0.9).Translate(mgl32.Vec3{0, 0.9, 0}),
	Bottom: game.AABBFromDimensions(0.6, 0.9),
}

// The following program connects to the example server and walks the local entity in circles around
// the hall, printing where every remote entity is rendered once per second.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: ./bin <server_addr> <name>")
		return
	}
	addr, name := os.Args[1], os.Args[2]

	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	w := demo.World(log)
	integ := movement.NewIntegrator(w, movement.DefaultOptions(), log)
	hall := world.IDFromName("hall")

	mesh := uint64(1 << 32)
	newController := func(pos mgl32.Vec3, sector world.SectorID) *movement.Controller {
		mesh++
		s := movement.NewState(collision.NewBoxProbe(w), sector, pos, log)
		if err := s.InitCollision(extents, mesh); err != nil {
			log.Errorf("unable to init collision: %v", err)
		}
		s.SetHugGround(true)
		return movement.NewController(s, integ, 0)
	}

	local := newController(mgl32.Vec3{0, 0, -20}, hall)
	local.Do(func(s *movement.State) {
		s.SetOnGround(true)
		s.SetBodyVelocity(mgl32.Vec3{0, 0, 4})
		s.SetAngularVelocity(mgl32.Vec3{0, 0.4, 0})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := client.Dial(ctx, addr, client.Options{
		Name:     name,
		World:    w,
		Local:    local,
		Reporter: movement.NewReporter(0.25, 0.05, time.Second),
		Factory: func(_ string, first movement.Snapshot) *movement.Controller {
			return newController(first.Position, first.Sector)
		},
		Log: log,
	})
	if err != nil {
		log.Fatalf("error connecting: %v", err)
	}
	defer c.Close()

	go func() {
		if err := c.Run(ctx); err != nil {
			log.Errorf("connection closed: %v", err)
			stop()
		}
	}()

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	last := time.Now()
	lastPrint := last
	for {
		select {
		case <-ctx.Done():
			return
		case warn := <-c.Warnings():
			log.Warnf("warned by server: %s", warn.Message)
		case now := <-ticker.C:
			c.Tick(float32(now.Sub(last).Seconds()))
			last = now
			if _, err := c.Report(now); err != nil {
				log.Errorf("unable to send report: %v", err)
				return
			}

			if now.Sub(lastPrint) >= time.Second {
				lastPrint = now
				for _, name := range c.Entities() {
					if e, ok := c.Entity(name); ok {
						tr := e.Transform()
						log.Infof("%s at %v yaw %.2f", name, game.RoundVec32(tr.Position, 2), tr.Yaw)
					}
				}
			}
		}
	}
}
