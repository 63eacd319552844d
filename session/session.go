package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/movement"
	"github.com/oomph-ac/reckon/oerror"
	"github.com/oomph-ac/reckon/protocol"
	"github.com/oomph-ac/reckon/utils"
	"github.com/oomph-ac/reckon/validator"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrDisconnected is returned once the session disconnected its client.
var ErrDisconnected = errors.New("session disconnected")

// Conn is the connection of a client. *raknet.Conn implements it.
type Conn interface {
	ReadPacket() ([]byte, error)
	Write(b []byte) (int, error)
	Latency() time.Duration
	Close() error
}

// Hub relays accepted reports to the other clients of the server.
type Hub interface {
	Broadcast(from string, pk *protocol.Report)
}

// Options ...
type Options struct {
	// ReportsPerSecond is the sustained rate of reports accepted from the client.
	ReportsPerSecond float64
	// ReportBurst is the number of reports the client may send at once.
	ReportBurst int
	// LatencySamples is the number of latency samples the jitter of the connection is computed from.
	LatencySamples int
}

// DefaultOptions ...
func DefaultOptions() Options {
	return Options{ReportsPerSecond: 40, ReportBurst: 20, LatencySamples: 20}
}

// Session handles the connection of a single client on the server: it reads the reports of the client,
// validates them and relays the accepted ones.
type Session struct {
	name string
	conn Conn

	validator *validator.Validator
	client    *validator.Client
	hub       Hub

	limiter *rate.Limiter
	latency *latencyTracker

	writeMu sync.Mutex
	closed  atomic.Bool
	dropped atomic.Uint64

	log logrus.FieldLogger
}

// New creates a session for the client with the name passed and registers it with the validator window.
func New(name string, conn Conn, v *validator.Validator, hub Hub, opts Options, log logrus.FieldLogger) *Session {
	if opts.ReportBurst <= 0 {
		opts.ReportBurst = 1
	}
	v.Window().Add(name)
	return &Session{
		name:      name,
		conn:      conn,
		validator: v,
		client:    validator.NewClient(name),
		hub:       hub,
		limiter:   rate.NewLimiter(rate.Limit(opts.ReportsPerSecond), opts.ReportBurst),
		latency:   newLatencyTracker(opts.LatencySamples),
		log:       utils.LoggerOrNop(log).WithField("player", name),
	}
}

// Name ...
func (s *Session) Name() string {
	return s.name
}

// Dropped returns the number of reports dropped because the client exceeded its rate limit.
func (s *Session) Dropped() uint64 {
	return s.dropped.Load()
}

// Last returns the last report of the client that was accepted.
func (s *Session) Last() (movement.Snapshot, bool) {
	return s.client.Last()
}

// Run reads and handles packets from the client until the connection is closed, the client is disconnected
// or the context is cancelled. The session is closed when Run returns.
func (s *Session) Run(ctx context.Context) (err error) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()
	defer s.Close()
	defer func() {
		if v := recover(); v != nil {
			s.log.Errorf("Run() panic: %v", v)
			hub := sentry.CurrentHub().Clone()
			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("player", s.name)
			})
			hub.Recover(oerror.New("%v", v))
			hub.Flush(time.Second * 5)
			err = fmt.Errorf("session panic: %v", v)
		}
	}()

	for {
		dat, err := s.conn.ReadPacket()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			return err
		}
		if err := s.HandlePacket(dat, time.Now()); err != nil {
			if errors.Is(err, ErrDisconnected) {
				return nil
			}
			s.log.Debugf("dropping packet: %v", err)
		}
	}
}

// HandlePacket decodes and handles a single packet received at the time passed.
func (s *Session) HandlePacket(dat []byte, now time.Time) error {
	if s.closed.Load() {
		return ErrDisconnected
	}
	pk, err := protocol.Decode(dat)
	if err != nil {
		return err
	}
	report, ok := pk.(*protocol.Report)
	if !ok {
		return oerror.New("unexpected packet %d from client", pk.ID())
	}
	return s.handleReport(report, now)
}

func (s *Session) handleReport(pk *protocol.Report, now time.Time) error {
	if !s.limiter.AllowN(now, 1) {
		s.dropped.Add(1)
		return nil
	}
	s.client.SetJitter(s.latency.sample(s.conn.Latency()))

	snap := pk.Snapshot(now)
	verdict := s.validator.Validate(s.client, snap, now)

	if verdict.Kick {
		return s.Disconnect(fmt.Sprintf(game.ErrorCheatKickMessage, verdict.Violations))
	}
	if verdict.Force != nil {
		if err := s.WritePacket(&protocol.Correction{Report: *protocol.NewReport("", *verdict.Force, false)}); err != nil {
			return err
		}
	}
	if verdict.Warn {
		if err := s.WritePacket(&protocol.Warning{
			Message: fmt.Sprintf(game.ErrorCheatWarnMessage, verdict.Violations),
			Count:   uint32(verdict.Count),
		}); err != nil {
			return err
		}
	}
	if verdict.Force == nil && !verdict.Dropped && s.hub != nil {
		s.hub.Broadcast(s.name, protocol.NewReport(s.name, snap, true))
	}
	return nil
}

// Teleport moves the client to the state passed. The next report of the client is exempt from validation
// so that the jump is not flagged.
func (s *Session) Teleport(snap movement.Snapshot) error {
	s.validator.Window().Exempt(s.name)
	return s.WritePacket(&protocol.Correction{Report: *protocol.NewReport("", snap, false)})
}

// Disconnect sends the reason passed to the client and closes the session. It always returns
// ErrDisconnected, unless writing the reason failed.
func (s *Session) Disconnect(reason string) error {
	s.log.Infof("disconnecting %s: %s", s.name, reason)
	err := s.WritePacket(&protocol.Disconnect{Reason: reason})
	_ = s.Close()
	if err != nil {
		return err
	}
	return ErrDisconnected
}

// Close closes the connection of the client and removes it from the validator window. Close may be called
// more than once.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.validator.Window().Remove(s.name)
	return s.conn.Close()
}
