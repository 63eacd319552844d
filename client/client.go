package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/oomph-ac/reckon/movement"
	"github.com/oomph-ac/reckon/protocol"
	"github.com/oomph-ac/reckon/utils"
	"github.com/sandertv/go-raknet"
	"github.com/sirupsen/logrus"
)

// DisconnectError is returned by Run when the server disconnected the client.
type DisconnectError struct {
	Reason string
}

func (e DisconnectError) Error() string {
	return "disconnected: " + e.Reason
}

// Conn is the connection to the server. *raknet.Conn implements it.
type Conn interface {
	ReadPacket() ([]byte, error)
	Write(b []byte) (int, error)
	Close() error
}

// Factory creates the controller of a remote entity the first time a report of it arrives.
type Factory func(name string, first movement.Snapshot) *movement.Controller

// Options ...
type Options struct {
	// Name identifies the local entity to the server and every other client.
	Name string
	// World resolves the names of sectors reported by the local entity.
	World movement.SectorGraph
	// Local is the controller of the local entity. Corrections of the server are applied to it. Local and
	// Reporter may be nil if the client only observes remote entities.
	Local    *movement.Controller
	Reporter *movement.Reporter
	// Factory creates the controllers of remote entities. Reports of unknown entities are ignored if nil.
	Factory Factory
	Log     logrus.FieldLogger
}

// Client is the connection of a local entity to the server. It sends the reports of the local entity and
// routes reports of remote entities to their controllers.
type Client struct {
	name  string
	conn  Conn
	world movement.SectorGraph

	local    *movement.Controller
	reporter *movement.Reporter
	factory  Factory

	mu       sync.RWMutex
	entities map[string]*movement.Controller

	warnings chan protocol.Warning
	writeMu  sync.Mutex

	log logrus.FieldLogger
}

// Dial connects to the server at the address passed and logs in with the name of the options.
func Dial(ctx context.Context, address string, opts Options) (*Client, error) {
	conn, err := raknet.DialContext(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	c := New(conn, opts)
	if err := c.write(&protocol.Login{Name: opts.Name}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("login: %w", err)
	}
	return c, nil
}

// New creates a client over an established connection that already logged in.
func New(conn Conn, opts Options) *Client {
	return &Client{
		name:     opts.Name,
		conn:     conn,
		world:    opts.World,
		local:    opts.Local,
		reporter: opts.Reporter,
		factory:  opts.Factory,
		entities: make(map[string]*movement.Controller),
		warnings: make(chan protocol.Warning, 8),
		log:      utils.LoggerOrNop(opts.Log),
	}
}

// Name ...
func (c *Client) Name() string {
	return c.name
}

// Send sends a report of the local entity. The sector name is filled in from the world if missing.
func (c *Client) Send(snap movement.Snapshot) error {
	if snap.SectorName == "" && c.world != nil {
		if sector, ok := c.world.Sector(snap.Sector); ok {
			snap.SectorName = sector.Name
		}
	}
	return c.write(protocol.NewReport("", snap, false))
}

// Report sends a report of the local entity if its reporter decides one is due.
func (c *Client) Report(now time.Time) (bool, error) {
	if c.local == nil || c.reporter == nil {
		return false, nil
	}
	snap, ok := c.reporter.Report(c.local.Snapshot(), now)
	if !ok {
		return false, nil
	}
	return true, c.Send(snap)
}

// Tick advances the local entity and every remote entity by dt seconds.
func (c *Client) Tick(dt float32) {
	if c.local != nil {
		c.local.Tick(dt)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entities {
		e.Tick(dt)
	}
}

// Entity returns the controller of the remote entity with the name passed.
func (c *Client) Entity(name string) (*movement.Controller, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[name]
	return e, ok
}

// Entities returns the names of every known remote entity in alphabetical order.
func (c *Client) Entities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entities))
	for name := range c.entities {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Warnings returns a channel receiving the warnings sent by the server. Warnings are dropped if nobody
// receives them.
func (c *Client) Warnings() <-chan protocol.Warning {
	return c.warnings
}

// Run reads packets from the server until the connection closes, the server disconnects the client or
// the context is cancelled.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	for {
		dat, err := c.conn.ReadPacket()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.HandlePacket(dat, time.Now()); err != nil {
			var disc DisconnectError
			if errors.As(err, &disc) {
				_ = c.conn.Close()
				return err
			}
			c.log.Debugf("dropping packet: %v", err)
		}
	}
}

// HandlePacket decodes and handles a single packet received at the time passed.
func (c *Client) HandlePacket(dat []byte, now time.Time) error {
	pk, err := protocol.Decode(dat)
	if err != nil {
		return err
	}
	switch pk := pk.(type) {
	case *protocol.Report:
		c.handleReport(pk, now)
	case *protocol.Correction:
		if c.local == nil {
			return nil
		}
		if !c.local.Push(pk.Snapshot(now), false) {
			c.log.Warnf("dropped correction: snapshot queue of local entity is full")
		}
	case *protocol.Warning:
		c.log.Warnf("server warning <x%d>: %s", pk.Count, pk.Message)
		select {
		case c.warnings <- *pk:
		default:
		}
	case *protocol.Disconnect:
		return DisconnectError{Reason: pk.Reason}
	default:
		return fmt.Errorf("unexpected packet %d from server", pk.ID())
	}
	return nil
}

func (c *Client) handleReport(pk *protocol.Report, now time.Time) {
	if pk.Entity == "" || pk.Entity == c.name {
		return
	}
	snap := pk.Snapshot(now)

	c.mu.Lock()
	e, ok := c.entities[pk.Entity]
	if !ok {
		if c.factory == nil {
			c.mu.Unlock()
			return
		}
		e = c.factory(pk.Entity, snap)
		c.entities[pk.Entity] = e
		c.mu.Unlock()
		// The first report places the entity.
		e.Push(snap, false)
		return
	}
	c.mu.Unlock()

	if !e.Push(snap, pk.Soft) {
		c.log.Debugf("dropped report of %s: snapshot queue is full", pk.Entity)
	}
}

// Forget removes a remote entity, for example after it left.
func (c *Client) Forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entities, name)
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) write(pk protocol.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(protocol.Encode(pk))
	return err
}
