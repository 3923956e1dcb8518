package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `env:"MODE" envDefault:"offline"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"file:diagquest.db"`

	AuthHMACSecret string        `env:"AUTH_HMAC_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"12h"`

	// SeedUsers is "email:password:role[:alunoId[:codigo[:classeId[:nome]]]]"
	// entries, comma separated. Students with a codigo may leave the password
	// empty.
	SeedUsers []string `env:"SEED_USERS" envSeparator:","`
	// SeedClasses is "id=name" entries, comma separated.
	SeedClasses []string `env:"SEED_CLASSES" envSeparator:","`

	CORSOriginsOnline  []string `env:"CORS_ORIGINS_ONLINE" envSeparator:"," envDefault:"https://diagquest.mindengage.ai"`
	CORSOriginsOffline []string `env:"CORS_ORIGINS_OFFLINE" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	// Client side (questctl).
	APIBaseURL   string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
	APIToken     string        `env:"API_TOKEN"`
	APITimeout   time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	SubmitPolicy string        `env:"SUBMIT_POLICY" envDefault:"allow_partial"`
}

// CORSOrigins picks the origin list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// FromEnv loads .env when present and parses the environment.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Mode {
	case ModeOffline, ModeOnline:
	default:
		return Config{}, fmt.Errorf("MODE must be offline or online, got %q", cfg.Mode)
	}
	if cfg.Mode == ModeOnline && cfg.AuthHMACSecret == "dev-secret-change-me" {
		return Config{}, errors.New("AUTH_HMAC_SECRET must be set in online mode")
	}
	return cfg, nil
}
