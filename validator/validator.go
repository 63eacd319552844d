package validator

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/collision"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/movement"
	"github.com/oomph-ac/reckon/utils"
	"github.com/oomph-ac/reckon/world"
	"github.com/sirupsen/logrus"
)

// World is the geometry and sector graph reports are validated against.
type World interface {
	collision.World
	movement.SectorGraph
	Connected(a, b world.SectorID) bool
	SharesFrame(a, b world.SectorID) bool
}

// Record is a structured log entry of a report that failed validation.
type Record struct {
	Player     string
	Kinds      Kind
	Sector     world.SectorID
	SectorName string
	Previous   mgl32.Vec3
	Position   mgl32.Vec3
	Velocity   mgl32.Vec3
	Lag        float32
	Count      int
	Time       time.Time
}

// Recorder persists violation records.
type Recorder interface {
	Record(rec Record) error
}

// Verdict is the result of validating a single report.
type Verdict struct {
	// Violations holds every check the report failed.
	Violations Kind
	// Dropped is true if the report carried values that cannot describe any movement. It must not be
	// applied or relayed, even when no correction is sent.
	Dropped bool
	// Exempted is true if the report skipped validation because of a one-shot exemption.
	Exempted bool
	// DeepChecked is true if the client was under deep inspection for this report.
	DeepChecked bool
	// Count is the number of violations of the client so far.
	Count int
	// Force is the position the client should be moved back to, if enforcement is enabled.
	Force *movement.Snapshot
	// Warn is true if the client reached the warning threshold.
	Warn bool
	// Kick is true if the client reached the kick threshold and should be disconnected.
	Kick bool
}

// Flagged returns true if the report failed any check.
func (v Verdict) Flagged() bool {
	return v.Violations != 0
}

// Client is the validation state of a single connection. It is only used by the goroutine handling
// that connection.
type Client struct {
	name string

	last     movement.Snapshot
	lastTime time.Time
	hasLast  bool

	jitter float32
}

// NewClient creates the validation state of the client with the name passed.
func NewClient(name string) *Client {
	return &Client{name: name}
}

// Name ...
func (c *Client) Name() string {
	return c.name
}

// SetJitter sets the round trip jitter of the client's connection in seconds.
func (c *Client) SetJitter(jitter float32) {
	c.jitter = jitter
}

// Last returns the last report accepted from the client.
func (c *Client) Last() (movement.Snapshot, bool) {
	return c.last, c.hasLast
}

func (c *Client) accept(report movement.Snapshot, now time.Time) {
	c.last, c.lastTime, c.hasLast = report, now, true
}

// Validator checks client movement reports for physically implausible movement.
type Validator struct {
	cfg      Config
	rules    Rules
	envelope mgl32.Vec3
	maxSpeed float32

	world      World
	window     *Window
	integrator *movement.Integrator
	recorder   Recorder
	metrics    *metrics

	log logrus.FieldLogger
}

// New creates a validator. The recorder may be nil.
func New(cfg Config, rules Rules, w World, window *Window, recorder Recorder, log logrus.FieldLogger) (*Validator, error) {
	if err := cfg.Extents.Validate(); err != nil {
		return nil, fmt.Errorf("replay extents: %w", err)
	}
	mt, err := newMetrics()
	if err != nil {
		return nil, err
	}

	opts := movement.DefaultOptions()
	opts.TerminalVelocity = rules.TerminalVelocity
	log = utils.LoggerOrNop(log)
	return &Validator{
		cfg:        cfg,
		rules:      rules,
		envelope:   rules.MaxVelocity(),
		maxSpeed:   rules.MaxSpeed(),
		world:      w,
		window:     window,
		integrator: movement.NewIntegrator(w, opts, log),
		recorder:   recorder,
		metrics:    mt,
		log:        log,
	}, nil
}

// Window returns the window shared by all clients.
func (v *Validator) Window() *Window {
	return v.window
}

// Validate checks a report sent by a client at the time passed.
func (v *Validator) Validate(c *Client, report movement.Snapshot, now time.Time) Verdict {
	var (
		verdict Verdict
		kinds   Kind
		lag     = v.window.Lag(c.name)
	)
	if !finite(report) {
		verdict.Dropped = true
		return v.flag(c, report, verdict, KindInvalid, lag, now)
	}
	if v.window.consumeExemption(c.name) {
		c.accept(report, now)
		return Verdict{Exempted: true}
	}
	if v.cfg.CheckSpeed && !v.reportSpeedOK(report) {
		kinds |= KindSpeed
	}

	warped := false
	if v.cfg.CheckWarp && c.hasLast && report.Sector != c.last.Sector && !v.world.Connected(c.last.Sector, report.Sector) {
		kinds |= KindWarp
		warped = true
	}

	verdict.DeepChecked = v.window.DeepChecked(c.name, now)
	v.metrics.report(verdict.DeepChecked)
	if verdict.DeepChecked && c.hasLast && !warped && v.world.SharesFrame(c.last.Sector, report.Sector) {
		elapsed := float32(now.Sub(c.lastTime).Seconds())
		adapt := false
		if v.cfg.CheckDistance {
			if adapt = v.distanceOK(c, report, elapsed, lag); !adapt {
				kinds |= KindDistance
			}
		}
		if v.cfg.CheckCollision && !v.replayOK(c, report, elapsed, lag) {
			kinds |= KindCollision
		}
		// Both checks above use the allowance the report arrived with.
		if adapt {
			v.adaptLag(c, report, elapsed, lag)
		}
	}

	if kinds == 0 {
		c.accept(report, now)
		return verdict
	}

	return v.flag(c, report, verdict, kinds, lag, now)
}

// flag counts the violations passed against the client and decides how to respond to them. Dropped
// reports are never accepted.
func (v *Validator) flag(c *Client, report movement.Snapshot, verdict Verdict, kinds Kind, lag float32, now time.Time) Verdict {
	verdict.Violations = kinds
	verdict.Count = v.window.Flag(c.name)
	v.metrics.violation(kinds)
	v.logViolation(c, report, verdict, lag, now)

	if v.cfg.Enforce && c.hasLast {
		force := c.last
		force.Received = now
		verdict.Force = &force
	} else if !verdict.Dropped {
		c.accept(report, now)
	}

	verdict.Kick = v.cfg.KickThreshold > 0 && verdict.Count >= v.cfg.KickThreshold
	verdict.Warn = !verdict.Kick && v.cfg.WarnThreshold > 0 && verdict.Count >= v.cfg.WarnThreshold
	if verdict.Kick {
		v.metrics.kick()
	}
	return verdict
}

// SpeedOK returns true if no axis of the velocity passed exceeds the velocity envelope of the rules.
func (v *Validator) SpeedOK(vel mgl32.Vec3) bool {
	return !exceeds(vel, v.envelope)
}

// reportSpeedOK checks both the body and the world velocity of a report, since observers extrapolate
// with their sum.
func (v *Validator) reportSpeedOK(report movement.Snapshot) bool {
	return v.SpeedOK(report.BodyVelocity) && v.SpeedOK(report.WorldVelocity)
}

func (v *Validator) logViolation(c *Client, report movement.Snapshot, verdict Verdict, lag float32, now time.Time) {
	rec := Record{
		Player:     c.name,
		Kinds:      verdict.Violations,
		Sector:     report.Sector,
		SectorName: report.SectorName,
		Previous:   c.last.Position,
		Position:   game.ZeroNaN(report.Position),
		Velocity:   game.ZeroNaN(report.Velocity()),
		Lag:        lag,
		Count:      verdict.Count,
		Time:       now,
	}

	extra := recordData(rec)
	v.log.WithFields(logrus.Fields{"player": c.name, "kinds": verdict.Violations.String()}).Warnf("%s flagged %s <x%d> %s", c.name, verdict.Violations, verdict.Count, utils.OrderedMapToString(extra))
	if v.recorder == nil {
		return
	}
	if err := v.recorder.Record(rec); err != nil {
		v.log.Errorf("unable to record violation of %s: %v", c.name, err)
	}
}
