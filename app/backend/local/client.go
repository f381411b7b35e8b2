package local

import (
	"time"

	"teamboard/app/auth"
	"teamboard/app/backend"
)

// Config assembles a local backend.
type Config struct {
	Auth   auth.Options
	Mailer auth.Mailer
	// Sessions overrides where the client session is kept. By default it is
	// stored in the same database.
	Sessions auth.SessionStore
	// RefreshEvery starts background session refresh when positive.
	RefreshEvery time.Duration
}

// New returns a backend.Client over db. Closing the client closes db.
func New(db *DB, cfg Config) backend.Client {
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewSessionStore(db)
	}
	provider := auth.NewLocalProvider(NewAuthStore(db), cfg.Mailer, cfg.Auth)
	client := auth.NewClient(provider, sessions)
	if cfg.RefreshEvery > 0 {
		client.StartAutoRefresh(cfg.RefreshEvery)
	}
	return backend.Compose(NewTables(db), client, db, client)
}
