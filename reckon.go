package reckon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/oomph-ac/reckon/movement"
	"github.com/oomph-ac/reckon/protocol"
	"github.com/oomph-ac/reckon/session"
	"github.com/oomph-ac/reckon/utils"
	"github.com/oomph-ac/reckon/validator"
	"github.com/sandertv/go-raknet"
	"github.com/sirupsen/logrus"
)

// Config holds everything needed to run a Server.
type Config struct {
	// Address is the address the server listens on, ex: ":19135".
	Address string
	// World is the geometry reports of clients are validated against.
	World     validator.World
	Validator validator.Config
	Rules     validator.Rules
	Session   session.Options
	// Recorder receives every violation record. It may be nil.
	Recorder validator.Recorder
	// LoginTimeout is how long a new connection has to send its login.
	LoginTimeout time.Duration
	Log          logrus.FieldLogger
}

// Server accepts clients, validates the movement they report and relays accepted reports to every
// other client.
type Server struct {
	cfg       Config
	listener  *raknet.Listener
	validator *validator.Validator

	mu       sync.RWMutex
	sessions map[string]*session.Session

	wg  sync.WaitGroup
	log logrus.FieldLogger
}

// New creates a server without a listener. Connections are handed to it through Handle.
func New(cfg Config) (*Server, error) {
	if cfg.World == nil {
		return nil, errors.New("server requires a world")
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = 5 * time.Second
	}
	cfg.Log = utils.LoggerOrNop(cfg.Log)

	v, err := validator.New(cfg.Validator, cfg.Rules, cfg.World, validator.NewWindow(cfg.Validator.WatchWindow), cfg.Recorder, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}
	return &Server{
		cfg:       cfg,
		validator: v,
		sessions:  make(map[string]*session.Session),
		log:       cfg.Log,
	}, nil
}

// Listen creates a server listening on the address of the config.
func Listen(cfg Config) (*Server, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	l, err := raknet.Listen(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}
	s.listener = l
	s.log.Infof("reckon is now listening on %v", l.Addr())
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Validator returns the validator shared by every session.
func (s *Server) Validator() *validator.Validator {
	return s.validator
}

// Serve accepts connections until the context is cancelled or the listener is closed.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}
	stop := context.AfterFunc(ctx, func() { _ = s.listener.Close() })
	defer stop()

	for {
		c, err := s.listener.Accept()
		if err != nil {
			s.wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.Handle(ctx, c.(*raknet.Conn))
		}()
	}
}

// deadliner is implemented by connections that support read deadlines.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Handle waits for the login of a new connection and runs its session until it ends.
func (s *Server) Handle(ctx context.Context, conn session.Conn) {
	name, err := s.login(conn)
	if err != nil {
		s.log.Debugf("login failed: %v", err)
		_ = conn.Close()
		return
	}

	sess, ok := s.add(name, conn)
	if !ok {
		_, _ = conn.Write(protocol.Encode(&protocol.Disconnect{Reason: "name already in use"}))
		_ = conn.Close()
		return
	}
	defer s.remove(name)

	s.log.Infof("%s joined", name)
	if err := sess.Run(ctx); err != nil {
		s.log.Debugf("session of %s ended: %v", name, err)
	}
	s.log.Infof("%s left", name)
}

func (s *Server) login(conn session.Conn) (string, error) {
	if d, ok := conn.(deadliner); ok {
		_ = d.SetReadDeadline(time.Now().Add(s.cfg.LoginTimeout))
		defer d.SetReadDeadline(time.Time{})
	}
	dat, err := conn.ReadPacket()
	if err != nil {
		return "", err
	}
	pk, err := protocol.Decode(dat)
	if err != nil {
		return "", err
	}
	login, ok := pk.(*protocol.Login)
	if !ok {
		return "", fmt.Errorf("expected login, got packet %d", pk.ID())
	}
	if login.Name == "" {
		return "", errors.New("empty name")
	}
	return login.Name, nil
}

func (s *Server) add(name string, conn session.Conn) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[name]; ok {
		return nil, false
	}
	sess := session.New(name, conn, s.validator, s, s.cfg.Session, s.log)
	s.sessions[name] = sess
	return sess, true
}

func (s *Server) remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, name)
}

// Broadcast implements session.Hub.
func (s *Server) Broadcast(from string, pk *protocol.Report) {
	s.mu.RLock()
	targets := make([]*session.Session, 0, len(s.sessions))
	for name, sess := range s.sessions {
		if name != from {
			targets = append(targets, sess)
		}
	}
	s.mu.RUnlock()

	for _, sess := range targets {
		if err := sess.WritePacket(pk); err != nil {
			s.log.Debugf("unable to relay report of %s to %s: %v", from, sess.Name(), err)
		}
	}
}

// Session returns the session of the client with the name passed.
func (s *Server) Session(name string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[name]
	return sess, ok
}

// Sessions returns the names of every connected client in alphabetical order.
func (s *Server) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.sessions))
	for name := range s.sessions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Teleport moves the client with the name passed to the state passed.
func (s *Server) Teleport(name string, snap movement.Snapshot) error {
	sess, ok := s.Session(name)
	if !ok {
		return fmt.Errorf("no client named %s", name)
	}
	return sess.Teleport(snap)
}

// Exempt lets the next report of a client bypass validation.
func (s *Server) Exempt(name string) {
	s.validator.Window().Exempt(name)
}

// Close stops listening and disconnects every client.
func (s *Server) Close() error {
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	s.mu.RLock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()
	for _, sess := range sessions {
		_ = sess.Disconnect("server closed")
	}
	return err
}
