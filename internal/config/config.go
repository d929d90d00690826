// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arthshield/fraudlabs/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendURL     string
	DBPath          string
	SessionTTL      time.Duration
	DefaultLanguage string
	Sim             SimConfig
}

// SimConfig holds the simulation engine tunables. Defaults reproduce
// the scripted scenario; envs exist so demos can shrink the timers.
type SimConfig struct {
	UrgencySeconds    int
	WithdrawalSeconds int
	GrowthInterval    time.Duration
	GrowthMin         domain.Money
	GrowthMax         domain.Money
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		DBPath:          getEnv("DB_PATH", "./data/fraudlabs.db"),
		SessionTTL:      getEnvDuration("SESSION_TTL", 30*time.Minute),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
		Sim: SimConfig{
			UrgencySeconds:    getEnvInt("SIM_URGENCY_SECONDS", 300),
			WithdrawalSeconds: getEnvInt("SIM_WITHDRAWAL_SECONDS", 1800),
			GrowthInterval:    getEnvDuration("SIM_GROWTH_INTERVAL", 3*time.Second),
			GrowthMin:         domain.Money(getEnvInt("SIM_GROWTH_MIN", 500)),
			GrowthMax:         domain.Money(getEnvInt("SIM_GROWTH_MAX", 1500)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.DefaultLanguage == "" {
		return fmt.Errorf("DEFAULT_LANGUAGE cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.Sim.UrgencySeconds <= 0 || c.Sim.WithdrawalSeconds <= 0 {
		return fmt.Errorf("simulation countdowns must be > 0")
	}
	if c.Sim.GrowthInterval <= 0 {
		return fmt.Errorf("SIM_GROWTH_INTERVAL must be > 0")
	}
	if c.Sim.GrowthMin <= 0 || c.Sim.GrowthMax < c.Sim.GrowthMin {
		return fmt.Errorf("growth bounds must satisfy 0 < min <= max")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
