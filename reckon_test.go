package reckon

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/client"
	"github.com/oomph-ac/reckon/collision"
	"github.com/oomph-ac/reckon/movement"
	"github.com/oomph-ac/reckon/protocol"
	"github.com/oomph-ac/reckon/session"
	"github.com/oomph-ac/reckon/validator"
	"github.com/oomph-ac/reckon/world"
)

type mockConn struct {
	in chan []byte

	mu   sync.Mutex
	out  []protocol.Packet
	once sync.Once
}

func newMockConn(packets ...protocol.Packet) *mockConn {
	c := &mockConn{in: make(chan []byte, 16)}
	for _, pk := range packets {
		c.in <- protocol.Encode(pk)
	}
	return c
}

func (c *mockConn) ReadPacket() ([]byte, error) {
	dat, ok := <-c.in
	if !ok {
		return nil, net.ErrClosed
	}
	return dat, nil
}

func (c *mockConn) Write(b []byte) (int, error) {
	pk, err := protocol.Decode(b)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, pk)
	return len(b), nil
}

func (c *mockConn) Latency() time.Duration {
	return 20 * time.Millisecond
}

func (c *mockConn) Close() error {
	c.once.Do(func() { close(c.in) })
	return nil
}

func (c *mockConn) written() []protocol.Packet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Packet(nil), c.out...)
}

func newWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.New(nil)
	hall := w.AddSector("hall", cube.Box(-100, -10, -100, 100, 10, 100))
	if err := w.AddMesh(hall, 1, cube.Box(-100, -1, -100, 100, 0, 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return w
}

func newConfig(t *testing.T) Config {
	return Config{
		Address:   "127.0.0.1:0",
		World:     newWorld(t),
		Validator: validator.DefaultConfig(),
		Rules:     validator.DefaultRules(),
		Session:   session.DefaultOptions(),
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHandleRejectsBadLogins(t *testing.T) {
	srv, err := New(newConfig(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, conn := range map[string]*mockConn{
		"report first": newMockConn(&protocol.Report{Sector: "hall"}),
		"empty name":   newMockConn(&protocol.Login{}),
	} {
		srv.Handle(context.Background(), conn)
		if len(srv.Sessions()) != 0 {
			t.Fatalf("%s: expected no session", name)
		}
	}
}

func TestHandleRelaysBetweenSessions(t *testing.T) {
	srv, err := New(newConfig(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := newMockConn(&protocol.Login{Name: "alice"})
	bob := newMockConn(&protocol.Login{Name: "bob"})
	var wg sync.WaitGroup
	for _, conn := range []*mockConn{alice, bob} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv.Handle(ctx, conn)
		}()
	}
	waitFor(t, "both sessions", func() bool { return len(srv.Sessions()) == 2 })

	duplicate := newMockConn(&protocol.Login{Name: "alice"})
	srv.Handle(ctx, duplicate)
	if out := duplicate.written(); len(out) != 1 || out[0].ID() != protocol.IDDisconnect {
		t.Fatalf("expected duplicate login to be refused, got %v", out)
	}

	alice.in <- protocol.Encode(&protocol.Report{OnGround: true, Position: mgl32.Vec3{1, 0, 1}, Sector: "hall"})
	waitFor(t, "relayed report", func() bool { return len(bob.written()) == 1 })
	if r := bob.written()[0].(*protocol.Report); r.Entity != "alice" || r.Position != (mgl32.Vec3{1, 0, 1}) {
		t.Fatalf("unexpected relayed report: %+v", r)
	}
	if len(alice.written()) != 0 {
		t.Fatalf("expected reports not to be relayed back to their sender")
	}

	if err := srv.Teleport("bob", movement.Snapshot{Position: mgl32.Vec3{20, 0, 20}, SectorName: "hall"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := srv.Teleport("nobody", movement.Snapshot{}); err == nil {
		t.Fatalf("expected an error teleporting an unknown client")
	}

	cancel()
	wg.Wait()
	if len(srv.Sessions()) != 0 {
		t.Fatalf("expected sessions to be removed, got %v", srv.Sessions())
	}
	if srv.Validator().Window().Len() != 0 {
		t.Fatalf("expected window to be empty")
	}
}

func TestServeOverRakNet(t *testing.T) {
	cfg := newConfig(t)
	srv, err := Listen(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	w := cfg.World.(*world.World)
	hall := world.IDFromName("hall")
	integ := movement.NewIntegrator(w, movement.DefaultOptions(), nil)
	factory := func(_ string, first movement.Snapshot) *movement.Controller {
		s := movement.NewState(collision.NewBoxProbe(w), first.Sector, first.Position, nil)
		return movement.NewController(s, integ, 0)
	}

	alice, err := client.Dial(ctx, srv.Addr().String(), client.Options{Name: "alice", World: w})
	if err != nil {
		t.Fatalf("unexpected error dialing: %v", err)
	}
	defer alice.Close()
	bob, err := client.Dial(ctx, srv.Addr().String(), client.Options{Name: "bob", World: w, Factory: factory})
	if err != nil {
		t.Fatalf("unexpected error dialing: %v", err)
	}
	defer bob.Close()
	go func() { _ = bob.Run(ctx) }()

	waitFor(t, "both sessions", func() bool { return len(srv.Sessions()) == 2 })
	if err := alice.Send(movement.Snapshot{OnGround: true, Position: mgl32.Vec3{3, 0, 3}, Sector: hall}); err != nil {
		t.Fatalf("unexpected error sending: %v", err)
	}
	waitFor(t, "remote entity", func() bool {
		_, ok := bob.Entity("alice")
		return ok
	})

	e, _ := bob.Entity("alice")
	e.Tick(0)
	if pos := e.Snapshot().Position; !pos.ApproxEqualThreshold(mgl32.Vec3{3, 0, 3}, 1e-4) {
		t.Fatalf("expected remote entity at the reported position, got %v", pos)
	}
}
