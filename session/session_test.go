package session

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/movement"
	"github.com/oomph-ac/reckon/protocol"
	"github.com/oomph-ac/reckon/validator"
	"github.com/oomph-ac/reckon/world"
)

type mockConn struct {
	in      chan []byte
	latency time.Duration

	mu     sync.Mutex
	out    []protocol.Packet
	closed bool
	once   sync.Once
}

func newMockConn() *mockConn {
	return &mockConn{in: make(chan []byte, 16), latency: 50 * time.Millisecond}
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
	return c.latency
}

func (c *mockConn) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.in)
	})
	return nil
}

func (c *mockConn) written() []protocol.Packet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Packet(nil), c.out...)
}

type mockHub struct {
	mu      sync.Mutex
	reports []*protocol.Report
}

func (h *mockHub) Broadcast(_ string, pk *protocol.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append(h.reports, pk)
}

var t0 = time.Unix(1000, 0)

func newValidator(t *testing.T, cfg validator.Config) *validator.Validator {
	t.Helper()

	w := world.New(nil)
	hall := w.AddSector("hall", cube.Box(-100, -10, -100, 100, 10, 100))
	if err := w.AddMesh(hall, 1, cube.Box(-100, -1, -100, 100, 0, 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := validator.New(cfg, validator.DefaultRules(), w, validator.NewWindow(cfg.WatchWindow), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func report(pos, vel mgl32.Vec3) []byte {
	return protocol.Encode(&protocol.Report{OnGround: true, Position: pos, Sector: "hall", BodyVelocity: vel})
}

func TestAcceptedReportIsBroadcast(t *testing.T) {
	conn, hub := newMockConn(), &mockHub{}
	s := New("alice", conn, newValidator(t, validator.DefaultConfig()), hub, DefaultOptions(), nil)

	if err := s.HandlePacket(report(mgl32.Vec3{1, 0, 1}, mgl32.Vec3{0, 0, 4}), t0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hub.reports) != 1 {
		t.Fatalf("expected 1 broadcast report, got %d", len(hub.reports))
	}
	if pk := hub.reports[0]; pk.Entity != "alice" || !pk.Soft || pk.Position != (mgl32.Vec3{1, 0, 1}) {
		t.Fatalf("unexpected broadcast report: %+v", pk)
	}
	if len(conn.written()) != 0 {
		t.Fatalf("expected nothing to be written to the client")
	}
}

func TestRejectedReportIsCorrected(t *testing.T) {
	conn, hub := newMockConn(), &mockHub{}
	s := New("bob", conn, newValidator(t, validator.DefaultConfig()), hub, DefaultOptions(), nil)

	_ = s.HandlePacket(report(mgl32.Vec3{0, 0, -50}, mgl32.Vec3{}), t0)
	if err := s.HandlePacket(report(mgl32.Vec3{0, 0, -50}, mgl32.Vec3{0, 0, 80}), t0.Add(100*time.Millisecond)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := conn.written()
	if len(out) != 1 {
		t.Fatalf("expected a single correction, got %d packets", len(out))
	}
	c, ok := out[0].(*protocol.Correction)
	if !ok || c.Position != (mgl32.Vec3{0, 0, -50}) || c.BodyVelocity != (mgl32.Vec3{}) {
		t.Fatalf("unexpected correction: %#v", out[0])
	}
	if len(hub.reports) != 1 {
		t.Fatalf("expected only the first report to be broadcast, got %d", len(hub.reports))
	}
}

func TestNonFiniteReportIsNeverRelayed(t *testing.T) {
	cfg := validator.DefaultConfig()
	cfg.Enforce = false
	conn, hub := newMockConn(), &mockHub{}
	s := New("nan", conn, newValidator(t, cfg), hub, DefaultOptions(), nil)

	_ = s.HandlePacket(report(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{}), t0)
	if err := s.HandlePacket(report(mgl32.Vec3{math32.NaN(), 0, math32.NaN()}, mgl32.Vec3{}), t0.Add(100*time.Millisecond)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hub.reports) != 1 {
		t.Fatalf("expected the non-finite report not to be broadcast, got %d reports", len(hub.reports))
	}
	if last, _ := s.Last(); last.Position != (mgl32.Vec3{0, 0, -5}) {
		t.Fatalf("expected last accepted position to be kept, got %v", last.Position)
	}

	_ = s.HandlePacket(report(mgl32.Vec3{0, 0, -4.8}, mgl32.Vec3{0, 0, 2}), t0.Add(200*time.Millisecond))
	if len(hub.reports) != 2 {
		t.Fatalf("expected the following legitimate report to be broadcast")
	}
}

func TestKickDisconnects(t *testing.T) {
	cfg := validator.DefaultConfig()
	cfg.KickThreshold = 2
	v := newValidator(t, cfg)
	conn := newMockConn()
	s := New("carol", conn, v, nil, DefaultOptions(), nil)

	fast := mgl32.Vec3{0, 0, 100}
	if err := s.HandlePacket(report(mgl32.Vec3{}, fast), t0); err != nil {
		t.Fatalf("unexpected error on first violation: %v", err)
	}
	if err := s.HandlePacket(report(mgl32.Vec3{}, fast), t0.Add(time.Second)); err != ErrDisconnected {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}

	out := conn.written()
	if d, ok := out[len(out)-1].(*protocol.Disconnect); !ok || d.Reason == "" {
		t.Fatalf("expected a disconnect packet last, got %#v", out[len(out)-1])
	}
	if !conn.closed {
		t.Fatalf("expected connection to be closed")
	}
	if v.Window().Len() != 0 {
		t.Fatalf("expected client to be removed from the window")
	}
	if err := s.HandlePacket(report(mgl32.Vec3{}, mgl32.Vec3{}), t0.Add(2*time.Second)); err != ErrDisconnected {
		t.Fatalf("expected closed session to refuse packets, got %v", err)
	}
}

func TestWarningSent(t *testing.T) {
	cfg := validator.DefaultConfig()
	cfg.WarnThreshold, cfg.Enforce = 1, false
	conn := newMockConn()
	s := New("dave", conn, newValidator(t, cfg), nil, DefaultOptions(), nil)

	_ = s.HandlePacket(report(mgl32.Vec3{}, mgl32.Vec3{0, 0, 100}), t0)
	out := conn.written()
	if len(out) != 1 {
		t.Fatalf("expected one packet, got %d", len(out))
	}
	if w, ok := out[0].(*protocol.Warning); !ok || w.Count != 1 {
		t.Fatalf("expected a warning with count 1, got %#v", out[0])
	}
}

func TestRateLimit(t *testing.T) {
	hub := &mockHub{}
	s := New("erin", newMockConn(), newValidator(t, validator.DefaultConfig()), hub, Options{ReportsPerSecond: 1, ReportBurst: 2}, nil)

	for i := 0; i < 5; i++ {
		_ = s.HandlePacket(report(mgl32.Vec3{}, mgl32.Vec3{}), t0)
	}
	if s.Dropped() != 3 || len(hub.reports) != 2 {
		t.Fatalf("expected 3 dropped and 2 accepted reports, got %d dropped and %d accepted", s.Dropped(), len(hub.reports))
	}

	_ = s.HandlePacket(report(mgl32.Vec3{}, mgl32.Vec3{}), t0.Add(time.Second))
	if len(hub.reports) != 3 {
		t.Fatalf("expected the limiter to refill over time")
	}
}

func TestTeleportExemptsNextReport(t *testing.T) {
	conn, hub := newMockConn(), &mockHub{}
	s := New("frank", conn, newValidator(t, validator.DefaultConfig()), hub, DefaultOptions(), nil)

	_ = s.HandlePacket(report(mgl32.Vec3{0, 0, -50}, mgl32.Vec3{}), t0)
	target := movement.Snapshot{OnGround: true, Position: mgl32.Vec3{50, 0, 50}, SectorName: "hall"}
	if err := s.Teleport(target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c, ok := conn.written()[0].(*protocol.Correction); !ok || c.Position != target.Position {
		t.Fatalf("expected a correction to the teleport target")
	}

	_ = s.HandlePacket(report(target.Position, mgl32.Vec3{}), t0.Add(50*time.Millisecond))
	if last, _ := s.Last(); last.Position != target.Position {
		t.Fatalf("expected the report after the teleport to be accepted, last is %v", last.Position)
	}
}

func TestUnexpectedPacket(t *testing.T) {
	s := New("gina", newMockConn(), newValidator(t, validator.DefaultConfig()), nil, DefaultOptions(), nil)
	if err := s.HandlePacket(protocol.Encode(&protocol.Disconnect{}), t0); err == nil {
		t.Fatalf("expected an error handling a server-only packet")
	}
	if err := s.HandlePacket([]byte{0xff}, t0); err == nil {
		t.Fatalf("expected an error handling garbage")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	conn, hub := newMockConn(), &mockHub{}
	v := newValidator(t, validator.DefaultConfig())
	s := New("hank", conn, v, hub, DefaultOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	conn.in <- report(mgl32.Vec3{}, mgl32.Vec3{})
	conn.in <- []byte{0xff}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected Run to return after cancellation")
	}
	if v.Window().Len() != 0 {
		t.Fatalf("expected client to be removed from the window")
	}
}

func TestLatencyJitter(t *testing.T) {
	tr := newLatencyTracker(4)
	if j := tr.sample(100 * time.Millisecond); j != 0 {
		t.Fatalf("expected no jitter from a single sample, got %v", j)
	}
	for _, l := range []time.Duration{100, 100, 100} {
		tr.sample(l * time.Millisecond)
	}
	if j := tr.sample(100 * time.Millisecond); j != 0 {
		t.Fatalf("expected no jitter from a stable connection, got %v", j)
	}

	tr.sample(50 * time.Millisecond)
	tr.sample(150 * time.Millisecond)
	tr.sample(50 * time.Millisecond)
	j := tr.sample(150 * time.Millisecond)
	if j < 0.0499 || j > 0.0501 {
		t.Fatalf("expected jitter of 0.05s, got %v", j)
	}
}
