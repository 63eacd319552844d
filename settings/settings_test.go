package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/oomph-ac/reckon/validator"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	s, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(s, DefaultSettings()) {
		t.Fatalf("expected default settings, got %+v", s)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected settings file to be created: %v", err)
	}
	if err := SaveDefault(path); err == nil {
		t.Fatalf("expected an error saving over an existing settings file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error loading a missing file")
	}
}

func TestLoadCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[Server]
Address = ":20000"
ReportsPerSecond = 10.0
ReportBurst = 5

[Validator]
CheckSpeed = true
CheckCollision = false
WarnThreshold = 3
KickThreshold = 9
Enforce = false
WatchWindowSeconds = 2.5
WorstCaseLagSeconds = 1.0
LagCeiling = 0.75

[Rules]
JumpSpeed = 5.0
TerminalVelocity = 50.0

[Rules.BaseSpeeds]
crawl = 1.0
sprint = 12.0

[Rules.Multipliers]
boots = 1.5
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Server.Address != ":20000" || s.Server.ReportBurst != 5 {
		t.Fatalf("unexpected server settings: %+v", s.Server)
	}

	cfg := s.ValidatorConfig()
	if !cfg.CheckSpeed || cfg.CheckCollision || cfg.Enforce {
		t.Fatalf("unexpected check toggles: %+v", cfg)
	}
	if cfg.WarnThreshold != 3 || cfg.KickThreshold != 9 {
		t.Fatalf("unexpected thresholds: warn %d kick %d", cfg.WarnThreshold, cfg.KickThreshold)
	}
	if cfg.WatchWindow != 2500*time.Millisecond || cfg.WorstCaseLag != time.Second || cfg.LagCeiling != 0.75 {
		t.Fatalf("unexpected timing: %+v", cfg)
	}
	if cfg.Extents != validator.DefaultConfig().Extents {
		t.Fatalf("expected default replay extents")
	}

	rules := s.ValidatorRules()
	if got := rules.MaxSpeed(); got != 18 {
		t.Fatalf("expected max speed of 18, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(s *Settings){
		"no rate":      func(s *Settings) { s.Server.ReportsPerSecond = 0 },
		"no burst":     func(s *Settings) { s.Server.ReportBurst = 0 },
		"no speeds":    func(s *Settings) { s.Rules.BaseSpeeds = nil },
		"warn at kick": func(s *Settings) { s.Validator.WarnThreshold, s.Validator.KickThreshold = 10, 5 },
	}
	for name, mutate := range cases {
		s := DefaultSettings()
		mutate(&s)
		if err := s.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("expected default settings to be valid: %v", err)
	}
}
