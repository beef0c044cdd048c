package cursos

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/cursos/internal/logging"
	"github.com/MrEthical07/cursos/middleware"
	"github.com/MrEthical07/cursos/password"
)

// Config is the complete application configuration. Field tags follow the YAML
// file and CURSOS_* environment layout read by cmd/cursos.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Session       SessionConfig       `mapstructure:"session"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Gate          GateConfig          `mapstructure:"gate"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Password      password.Config     `mapstructure:"password"`
	LoginThrottle LoginThrottleConfig `mapstructure:"login_throttle"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Log           logging.Options     `mapstructure:"log"`
}

/*
====================================
SERVER CONFIG
====================================
*/

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// HealthPath serves a session store reachability check outside the gate. Empty disables it.
	HealthPath      string        `mapstructure:"health_path"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// Session store backends.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// SessionConfig configures session storage and the session cookie.
type SessionConfig struct {
	Store             string        `mapstructure:"store"` // "redis" (default) or "memory"
	RedisPrefix       string        `mapstructure:"redis_prefix"`
	Lifetime          time.Duration `mapstructure:"lifetime"`
	SlidingExpiration bool          `mapstructure:"sliding_expiration"`
	JitterEnabled     bool          `mapstructure:"jitter_enabled"`
	JitterRange       time.Duration `mapstructure:"jitter_range"`
	Secret            string        `mapstructure:"secret"`
	Issuer            string        `mapstructure:"issuer"`
	CookieName        string        `mapstructure:"cookie_name"`
	CookieSecure      bool          `mapstructure:"cookie_secure"`
	CookieSameSite    string        `mapstructure:"cookie_same_site"` // "lax", "strict" or "none"
}

/*
====================================
REDIS CONFIG
====================================
*/

// RedisConfig locates the Redis server. Embedded starts an in-process server
// instead, for development.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Embedded bool   `mapstructure:"embedded"`
}

// GateConfig selects the login path and how other paths are compared with it.
type GateConfig struct {
	LoginPath  string `mapstructure:"login_path"`
	LoginMatch string `mapstructure:"login_match"` // "exact" (default) or "substring"
}

// DatabaseConfig locates the sqlite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoginThrottleConfig limits failed logins per e-mail and, optionally, per IP.
type LoginThrottleConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	EnableIPThrottle bool          `mapstructure:"enable_ip_throttle"`
}

// MetricsConfig toggles the in-process counters and the latency histogram.
type MetricsConfig struct {
	Enabled                 bool   `mapstructure:"enabled"`
	EnableLatencyHistograms bool   `mapstructure:"enable_latency_histograms"`
	Path                    string `mapstructure:"path"`
}

// DefaultConfig returns the configuration used when nothing is overridden. The
// session secret is left empty and must be provided.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			HealthPath:      "/healthz",
		},
		Session: SessionConfig{
			Store:             StoreRedis,
			RedisPrefix:       "cs",
			Lifetime:          24 * time.Hour,
			SlidingExpiration: true,
			JitterEnabled:     true,
			JitterRange:       30 * time.Second,
			Issuer:            "cursos",
			CookieName:        "CURSOSSESSID",
			CookieSameSite:    "lax",
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Gate: GateConfig{
			LoginPath:  "/login",
			LoginMatch: "exact",
		},
		Database: DatabaseConfig{
			Path: "cursos.db",
		},
		Password: password.DefaultConfig(),
		LoginThrottle: LoginThrottleConfig{
			Enabled:     true,
			MaxAttempts: 5,
			Cooldown:    15 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
			Path:                    "/metrics",
		},
		Log: logging.Options{
			Level: "info",
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Session
	switch c.Session.Store {
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("Session Store must be %q or %q", StoreRedis, StoreMemory)
	}
	if c.Session.Lifetime <= 0 {
		return errors.New("Session Lifetime must be > 0")
	}
	if c.Session.JitterRange < 0 {
		return errors.New("Session JitterRange must be >= 0")
	}
	if c.Session.JitterRange > time.Duration((math.MaxInt64-1)/2) {
		return errors.New("Session JitterRange is too large")
	}
	if c.Session.JitterEnabled && c.Session.JitterRange <= 0 {
		return errors.New("Session JitterRange must be > 0 when JitterEnabled is true")
	}
	if len(c.Session.Secret) < 32 {
		return errors.New("Session Secret must be at least 32 bytes")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("Session CookieName must be set")
	}
	sameSite, err := parseSameSite(c.Session.CookieSameSite)
	if err != nil {
		return err
	}
	if sameSite == http.SameSiteNoneMode && !c.Session.CookieSecure {
		return errors.New("Session CookieSameSite none requires CookieSecure")
	}

	// Server
	if c.Server.HealthPath != "" && !strings.HasPrefix(c.Server.HealthPath, "/") {
		return errors.New("Server HealthPath must start with /")
	}

	// Gate
	if !strings.HasPrefix(c.Gate.LoginPath, "/") {
		return errors.New("Gate LoginPath must start with /")
	}
	if _, err := middleware.ParseMatchMode(c.Gate.LoginMatch); err != nil {
		return err
	}

	// Password
	if err := c.Password.Validate(); err != nil {
		return err
	}

	// Login throttle
	if c.LoginThrottle.Enabled {
		if c.LoginThrottle.MaxAttempts <= 0 {
			return errors.New("LoginThrottle MaxAttempts must be > 0")
		}
		if c.LoginThrottle.Cooldown <= 0 {
			return errors.New("LoginThrottle Cooldown must be > 0")
		}
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("unknown cookie SameSite policy %q", s)
	}
}
