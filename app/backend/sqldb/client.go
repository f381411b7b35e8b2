package sqldb

import (
	"context"
	"fmt"
	"time"

	"teamboard/app/auth"
	"teamboard/app/backend"
)

// Config assembles a SQL backend.
type Config struct {
	Auth     auth.Options
	Mailer   auth.Mailer
	Sessions auth.SessionStore
	// RefreshEvery starts background session refresh when positive.
	RefreshEvery time.Duration
	// Migrate creates missing tables before the client is returned.
	Migrate bool
}

// Connect returns a backend.Client over db. Closing the client closes db.
func Connect(ctx context.Context, db *DB, cfg Config) (backend.Client, error) {
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", db.d.Name(), err)
	}
	if cfg.Migrate {
		if err := Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	provider := auth.NewLocalProvider(NewAuthStore(db), cfg.Mailer, cfg.Auth)
	client := auth.NewClient(provider, cfg.Sessions)
	if cfg.RefreshEvery > 0 {
		client.StartAutoRefresh(cfg.RefreshEvery)
	}
	return backend.Compose(NewTables(db), client, db, client), nil
}
