package settings

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/validator"
	"github.com/pelletier/go-toml"
)

// Settings contains everything about the server that can be configured. It is read once at startup.
type Settings struct {
	Server struct {
		// Address is the address the server listens on, ex: ":19135".
		Address string
		// ReportsPerSecond is the sustained rate of reports a client may send. Reports over the limit
		// are dropped without being validated.
		ReportsPerSecond float64
		// ReportBurst is the number of reports a client may send at once.
		ReportBurst int
		// StorePath is the path of the sqlite database violation records are written to. Records are
		// only logged if empty.
		StorePath string
		// SentryDSN enables error reporting to sentry if set.
		SentryDSN string
		// LogLevel is the level of the server logger.
		LogLevel string
	}
	Validator struct {
		CheckSpeed     bool
		CheckWarp      bool
		CheckDistance  bool
		CheckCollision bool

		// WarnThreshold is the violation count from which a client is warned.
		WarnThreshold int
		// KickThreshold is the violation count at which a client is disconnected.
		KickThreshold int
		// Enforce moves clients back to their last accepted position when they are flagged.
		Enforce bool

		WatchWindowSeconds  float64
		WorstCaseLagSeconds float64
		LagCeiling          float64
		LagAdaptRate        float64
		StationaryDecay     float64
		ReplayMargin        float64
	}
	Rules struct {
		// BaseSpeeds holds the horizontal speed of every movement mode, in units per second.
		BaseSpeeds map[string]float64
		// Multipliers holds every speed multiplier that may apply on top of a base speed.
		Multipliers      map[string]float64
		JumpSpeed        float64
		TerminalVelocity float64
	}
}

// DefaultSettings returns the default settings of the server.
func DefaultSettings() Settings {
	s := Settings{}
	s.Server.Address = ":19135"
	s.Server.ReportsPerSecond = 40
	s.Server.ReportBurst = 20
	s.Server.StorePath = "violations.db"
	s.Server.LogLevel = "info"

	cfg := validator.DefaultConfig()
	s.Validator.CheckSpeed = cfg.CheckSpeed
	s.Validator.CheckWarp = cfg.CheckWarp
	s.Validator.CheckDistance = cfg.CheckDistance
	s.Validator.CheckCollision = cfg.CheckCollision
	s.Validator.WarnThreshold = cfg.WarnThreshold
	s.Validator.KickThreshold = cfg.KickThreshold
	s.Validator.Enforce = cfg.Enforce
	s.Validator.WatchWindowSeconds = cfg.WatchWindow.Seconds()
	s.Validator.WorstCaseLagSeconds = cfg.WorstCaseLag.Seconds()
	s.Validator.LagCeiling = float64(cfg.LagCeiling)
	s.Validator.LagAdaptRate = float64(cfg.LagAdaptRate)
	s.Validator.StationaryDecay = float64(cfg.StationaryDecay)
	s.Validator.ReplayMargin = float64(cfg.ReplayMargin)

	rules := validator.DefaultRules()
	s.Rules.BaseSpeeds = widen(rules.BaseSpeeds)
	s.Rules.Multipliers = widen(rules.Multipliers)
	s.Rules.JumpSpeed = float64(rules.JumpSpeed)
	s.Rules.TerminalVelocity = float64(rules.TerminalVelocity)
	return s
}

// ValidatorConfig returns the validator configuration described by the settings. The collision extents
// used to replay client movement are left at their defaults.
func (s Settings) ValidatorConfig() validator.Config {
	cfg := validator.DefaultConfig()
	cfg.CheckSpeed = s.Validator.CheckSpeed
	cfg.CheckWarp = s.Validator.CheckWarp
	cfg.CheckDistance = s.Validator.CheckDistance
	cfg.CheckCollision = s.Validator.CheckCollision
	cfg.WarnThreshold = s.Validator.WarnThreshold
	cfg.KickThreshold = s.Validator.KickThreshold
	cfg.Enforce = s.Validator.Enforce
	cfg.WatchWindow = seconds(s.Validator.WatchWindowSeconds)
	cfg.WorstCaseLag = seconds(s.Validator.WorstCaseLagSeconds)
	cfg.LagCeiling = float32(s.Validator.LagCeiling)
	cfg.LagAdaptRate = float32(s.Validator.LagAdaptRate)
	cfg.StationaryDecay = float32(s.Validator.StationaryDecay)
	cfg.ReplayMargin = float32(s.Validator.ReplayMargin)
	return cfg
}

// ValidatorRules returns the movement rules described by the settings.
func (s Settings) ValidatorRules() validator.Rules {
	return validator.Rules{
		BaseSpeeds:       narrow(s.Rules.BaseSpeeds),
		Multipliers:      narrow(s.Rules.Multipliers),
		JumpSpeed:        float32(s.Rules.JumpSpeed),
		TerminalVelocity: float32(s.Rules.TerminalVelocity),
	}
}

// Validate returns an error if the settings cannot be used to run a server.
func (s Settings) Validate() error {
	if s.Server.ReportsPerSecond <= 0 || s.Server.ReportBurst <= 0 {
		return errors.New("report rate limit must be positive")
	}
	if len(s.Rules.BaseSpeeds) == 0 {
		return errors.New("at least one base speed is required")
	}
	if v := s.ValidatorRules().MaxVelocity(); v.ApproxEqual(mgl32.Vec3{}) {
		return errors.New("movement rules allow no movement")
	}
	if s.Validator.KickThreshold > 0 && s.Validator.WarnThreshold > s.Validator.KickThreshold {
		return fmt.Errorf("warn threshold %d exceeds kick threshold %d", s.Validator.WarnThreshold, s.Validator.KickThreshold)
	}
	return nil
}

// SaveDefault will create and save the default settings file. If the file already exists, it will return an error.
func SaveDefault(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return errors.New("settings file already exists")
	}
	data, err := toml.Marshal(DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed encoding default settings: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed creating settings file: %v", err)
	}
	return nil
}

// Load will load the settings from your settings file, and return an error if the file does not exist.
func Load(path string) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Settings{}, errors.New("settings file doesn't exist")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("error reading config: %v", err)
	}

	var settings Settings
	if err = toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("error decoding config: %v", err)
	}
	return settings, settings.Validate()
}

// LoadOrCreate loads the settings file at path, writing the default settings to it first if it does not exist.
func LoadOrCreate(path string) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveDefault(path); err != nil {
			return Settings{}, err
		}
	}
	return Load(path)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func widen(m map[string]float32) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = float64(v)
	}
	return out
}

func narrow(m map[string]float64) map[string]float32 {
	out := make(map[string]float32, len(m))
	for k, v := range m {
		out[k] = float32(v)
	}
	return out
}
