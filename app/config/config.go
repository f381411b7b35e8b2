// Package config reads the dashboard's settings from the environment.
package config

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Backend kinds accepted in TEAMBOARD_BACKEND.
const (
	BackendLocal    = "local"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendRemote   = "remote"
)

// Fallbacks used when the environment leaves a setting empty.
const (
	DefaultBackendURL = "http://localhost:54321"
	DefaultAPIKey     = "public-anon-key"
	DefaultDataDir    = "data/badger"
	DefaultAddr       = ":8080"
	DefaultSiteURL    = "https://teamboard.example.com"
)

// Config is the full runtime configuration.
type Config struct {
	Backend      string
	BackendURL   string
	APIKey       string
	DataDir      string
	SessionDir   string
	DatabaseURL  string
	Addr         string
	SiteURL      string
	ConfirmEmail bool
	AtomicViews  bool
	DebugSQL     bool
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv reads the configuration through getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				return v
			}
		}
		return ""
	}
	or := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}

	cfg := &Config{
		Backend:     strings.ToLower(or(first("TEAMBOARD_BACKEND"), BackendLocal)),
		BackendURL:  strings.TrimRight(first("TEAMBOARD_BACKEND_URL", "NEXT_PUBLIC_SUPABASE_URL"), "/"),
		APIKey:      first("TEAMBOARD_API_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"),
		DataDir:     or(first("TEAMBOARD_DATA_DIR"), DefaultDataDir),
		SessionDir:  first("TEAMBOARD_SESSION_DIR"),
		DatabaseURL: first("DATABASE_URL"),
		Addr:        or(first("TEAMBOARD_ADDR"), DefaultAddr),
		SiteURL:     strings.TrimRight(or(first("TEAMBOARD_SITE_URL"), DefaultSiteURL), "/"),
	}

	var err error
	if cfg.ConfirmEmail, err = parseBool(getenv, "TEAMBOARD_CONFIRM_EMAIL"); err != nil {
		return nil, err
	}
	if cfg.AtomicViews, err = parseBool(getenv, "TEAMBOARD_ATOMIC_VIEWS"); err != nil {
		return nil, err
	}
	if cfg.DebugSQL, err = parseBool(getenv, "TEAMBOARD_DEBUG_SQL"); err != nil {
		return nil, err
	}
	if cfg.AccessTTL, err = parseDuration(getenv, "TEAMBOARD_ACCESS_TTL"); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = parseDuration(getenv, "TEAMBOARD_REFRESH_TTL"); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendLocal:
	case BackendPostgres, BackendMySQL:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s backend", cfg.Backend)
		}
	case BackendRemote:
		if cfg.BackendURL == "" {
			log.Printf("config: backend URL not set, using %s", DefaultBackendURL)
			cfg.BackendURL = DefaultBackendURL
		}
		if cfg.APIKey == "" {
			log.Println("config: API key not set, using the placeholder key")
			cfg.APIKey = DefaultAPIKey
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return cfg, nil
}

func parseBool(getenv func(string) string, key string) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseDuration(getenv func(string) string, key string) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}

// SessionPath is where the local client keeps its signed-in session. It
// defaults to a directory next to the data directory.
func (c *Config) SessionPath() string {
	if c.SessionDir != "" {
		return c.SessionDir
	}
	return filepath.Join(filepath.Dir(c.DataDir), "session")
}

// RedirectURL builds an email link target. With a request it uses the
// origin the browser used; without one it falls back to SiteURL.
func (c *Config) RedirectURL(r *http.Request, path string) string {
	base := c.SiteURL
	if r != nil {
		if origin := Origin(r); origin != "" {
			base = origin
		}
	}
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// Origin returns scheme://host for r, honouring the Origin header and
// X-Forwarded-Proto.
func Origin(r *http.Request) string {
	if o := strings.TrimRight(r.Header.Get("Origin"), "/"); o != "" && o != "null" {
		return o
	}
	if r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.TrimSpace(strings.Split(p, ",")[0])
	}
	return scheme + "://" + r.Host
}
