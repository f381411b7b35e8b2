package rest

import (
	"net/http"
	"time"

	"teamboard/app/auth"
	"teamboard/app/backend"
)

// Config assembles a REST backend.
type Config struct {
	URL          string
	APIKey       string
	HTTPClient   *http.Client
	Sessions     auth.SessionStore
	RefreshEvery time.Duration
}

// New returns a backend.Client for the hosted service at cfg.URL.
func New(cfg Config) backend.Client {
	conn := NewConn(cfg.URL, cfg.APIKey, cfg.HTTPClient)
	client := auth.NewClient(NewProvider(conn), cfg.Sessions)
	if cfg.RefreshEvery > 0 {
		client.StartAutoRefresh(cfg.RefreshEvery)
	}
	return backend.Compose(NewTables(conn, client), client, client)
}
