package movement

import (
	"sync"
	"time"
)

// DefaultQueueSize is the number of snapshots a Controller buffers between ticks.
const DefaultQueueSize = 64

type update struct {
	snap Snapshot
	soft bool
}

// Controller owns the movement state of one entity. Snapshots may be pushed from any goroutine; they
// are applied in arrival order at the start of the next Tick.
type Controller struct {
	mu         sync.Mutex
	state      *State
	integrator *Integrator

	updates chan update
}

// NewController creates a controller for the state passed. A queueSize of zero or less uses
// DefaultQueueSize.
func NewController(state *State, integrator *Integrator, queueSize int) *Controller {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Controller{
		state:      state,
		integrator: integrator,
		updates:    make(chan update, queueSize),
	}
}

// Push queues a snapshot to be applied hard or soft on the next tick. It never blocks, and returns
// false if the queue is full and the snapshot was dropped.
func (c *Controller) Push(snap Snapshot, soft bool) bool {
	if snap.Received.IsZero() {
		snap.Received = time.Now()
	}
	select {
	case c.updates <- update{snap: snap, soft: soft}:
		return true
	default:
		return false
	}
}

// Pending returns the number of snapshots waiting to be applied.
func (c *Controller) Pending() int {
	return len(c.updates)
}

// Tick applies all queued snapshots, absorbs part of the soft correction and then advances the entity
// by dt seconds.
func (c *Controller) Tick(dt float32) StepResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.drain()
	c.state.BleedOffset(dt)
	return c.integrator.Step(c.state, dt)
}

func (c *Controller) drain() {
	for {
		select {
		case u := <-c.updates:
			if u.soft {
				c.state.ApplySoft(u.snap)
			} else {
				c.state.ApplyHard(u.snap)
			}
		default:
			return
		}
	}
}

// Transform returns the transform to render the entity with.
func (c *Controller) Transform() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Transform()
}

// Snapshot returns the current state of the entity as a snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// Do runs f with exclusive access to the state, for example to change the velocity of a locally
// controlled entity.
func (c *Controller) Do(f func(s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(c.state)
}
