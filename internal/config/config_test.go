package config

import (
	"testing"
	"time"

	"github.com/arthshield/fraudlabs/internal/engine"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DefaultLanguage != "en" {
		t.Errorf("Expected default language en, got %q", cfg.DefaultLanguage)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("Expected 30m session TTL, got %v", cfg.SessionTTL)
	}
	if cfg.Sim.UrgencySeconds != 300 || cfg.Sim.WithdrawalSeconds != 1800 {
		t.Errorf("Unexpected countdown defaults %+v", cfg.Sim)
	}
	if cfg.Sim.GrowthInterval != 3*time.Second {
		t.Errorf("Expected 3s growth interval, got %v", cfg.Sim.GrowthInterval)
	}
	if cfg.Sim.GrowthMin != 500 || cfg.Sim.GrowthMax != 1500 {
		t.Errorf("Unexpected growth bounds %+v", cfg.Sim)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("SIM_URGENCY_SECONDS", "10")
	t.Setenv("SIM_GROWTH_INTERVAL", "100ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %q", cfg.Port)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("Expected 5m TTL, got %v", cfg.SessionTTL)
	}
	if cfg.Sim.UrgencySeconds != 10 {
		t.Errorf("Expected urgency 10, got %d", cfg.Sim.UrgencySeconds)
	}
	if cfg.Sim.GrowthInterval != 100*time.Millisecond {
		t.Errorf("Expected 100ms growth interval, got %v", cfg.Sim.GrowthInterval)
	}
}

func TestLoad_WiresIntoEngineConfig(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// The simulation tunables feed engine.Config directly; the growth
	// bounds carry the domain money type end to end.
	engineCfg := engine.Config{
		DefaultLanguage:   cfg.DefaultLanguage,
		UrgencySeconds:    cfg.Sim.UrgencySeconds,
		WithdrawalSeconds: cfg.Sim.WithdrawalSeconds,
		CountdownInterval: time.Second,
		GrowthInterval:    cfg.Sim.GrowthInterval,
		GrowthMin:         cfg.Sim.GrowthMin,
		GrowthMax:         cfg.Sim.GrowthMax,
	}

	if engineCfg.GrowthMin != 500 || engineCfg.GrowthMax != 1500 {
		t.Errorf("Unexpected growth bounds %d..%d", engineCfg.GrowthMin, engineCfg.GrowthMax)
	}
	draw := engine.UniformDraw(engineCfg.GrowthMin, engineCfg.GrowthMax)
	if inc := draw(); inc < 500 || inc > 1500 {
		t.Errorf("Draw out of configured bounds: %d", inc)
	}
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("SIM_URGENCY_SECONDS", "soon")
	t.Setenv("SESSION_TTL", "whenever")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Sim.UrgencySeconds != 300 {
		t.Errorf("Expected fallback urgency 300, got %d", cfg.Sim.UrgencySeconds)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("Expected fallback TTL 30m, got %v", cfg.SessionTTL)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Port:            "8080",
		DBPath:          "./data/test.db",
		DefaultLanguage: "en",
		SessionTTL:      time.Minute,
		Sim: SimConfig{
			UrgencySeconds:    300,
			WithdrawalSeconds: 1800,
			GrowthInterval:    time.Second,
			GrowthMin:         500,
			GrowthMax:         1500,
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"empty language", func(c *Config) { c.DefaultLanguage = "" }},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }},
		{"zero urgency", func(c *Config) { c.Sim.UrgencySeconds = 0 }},
		{"zero withdrawal", func(c *Config) { c.Sim.WithdrawalSeconds = 0 }},
		{"zero growth interval", func(c *Config) { c.Sim.GrowthInterval = 0 }},
		{"inverted growth bounds", func(c *Config) { c.Sim.GrowthMin = 2000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		frontendURL string
		want        bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:3000", true},
		{"https://fraudlabs.example.org", false},
	}
	for _, tt := range tests {
		cfg := Config{FrontendURL: tt.frontendURL}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment(%q) = %v, want %v", tt.frontendURL, got, tt.want)
		}
	}
}
