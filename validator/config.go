package validator

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/collision"
	"github.com/oomph-ac/reckon/game"
)

// Config holds the validator settings. It is read once at startup.
type Config struct {
	CheckSpeed     bool
	CheckWarp      bool
	CheckDistance  bool
	CheckCollision bool

	// WarnThreshold is the number of violations after which a client is warned.
	WarnThreshold int
	// KickThreshold is the number of violations after which a client is disconnected.
	KickThreshold int
	// Enforce forces clients back to their last accepted position on every violation.
	Enforce bool

	// WatchWindow is how long one client stays under deep inspection.
	WatchWindow time.Duration
	// WorstCaseLag bounds how far ahead client movement is replayed.
	WorstCaseLag time.Duration
	// LagCeiling is the largest lag allowance a client can accumulate, in seconds.
	LagCeiling float32
	// LagAdaptRate is the fraction by which the lag allowance moves towards the observed lag per report.
	LagAdaptRate float32
	// StationaryDecay is the fraction by which the lag allowance of a stationary client moves towards
	// its connection jitter per report.
	StationaryDecay float32
	// ReplayMargin is how far a client may move past the replayed position on each horizontal axis.
	ReplayMargin float32

	// Extents are the collision extents replayed client movement uses.
	Extents collision.Extents
}

// DefaultConfig returns the validator settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		CheckSpeed:      true,
		CheckWarp:       true,
		CheckDistance:   true,
		CheckCollision:  true,
		WarnThreshold:   5,
		KickThreshold:   20,
		Enforce:         true,
		WatchWindow:     game.DefaultWatchWindow,
		WorstCaseLag:    game.WorstCaseLag,
		LagCeiling:      game.DefaultLagCeiling,
		LagAdaptRate:    0.1,
		StationaryDecay: 0.1,
		ReplayMargin:    0.5,
		Extents: collision.Extents{
			Top:    game.AABBFromDimensions(0.6, 0.9).Translate(mgl32.Vec3{0, 0.9, 0}),
			Bottom: game.AABBFromDimensions(0.6, 0.9),
		},
	}
}
