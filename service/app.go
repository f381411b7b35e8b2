package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"

	"teamboard/app/auth"
	"teamboard/app/backend"
	"teamboard/app/backend/local"
	"teamboard/app/backend/rest"
	"teamboard/app/backend/sqldb"
	"teamboard/app/config"
	"teamboard/app/dashboard"
	"teamboard/app/repositories"
	"teamboard/app/routes"
	"teamboard/app/services"
	"teamboard/app/session"
)

// refreshEvery is how often the auth client checks whether the stored
// session needs a new access token.
const refreshEvery = time.Minute

// App is a fully wired dashboard.
type App struct {
	Config    *config.Config
	Client    backend.Client
	Auth      *services.AuthService
	Members   *services.MemberService
	Posts     *services.PostService
	Session   *session.Controller
	Dashboard *dashboard.Dashboard

	closers []io.Closer
	unwatch func()
}

// NewApp opens the configured backend and restores any stored session.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	client, closers, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Client: client, closers: closers}
	a.Auth = services.NewAuthService(client)
	a.Members = services.NewMemberService(repositories.NewMemberRepository(client))
	a.Posts = services.NewPostService(repositories.NewPostRepository(client), services.WithAtomicViews(cfg.AtomicViews))
	a.Session = session.New(a.Auth)
	a.Dashboard = dashboard.New(a.Members, a.Posts)
	a.unwatch = a.Dashboard.Watch(a.Session)

	if err := a.Session.Start(ctx); err != nil {
		log.Printf("Could not restore session: %v", err)
	}
	if cfg.AtomicViews && !backend.CanIncrement(client) {
		log.Printf("The %s backend has no atomic increment; view counts use read-then-write", cfg.Backend)
	}
	return a, nil
}

// Router returns the dashboard API.
func (a *App) Router() *mux.Router {
	return routes.SetupRoutes(routes.Dependencies{
		Tables:    a.Client,
		Session:   a.Session,
		Members:   a.Members,
		Posts:     a.Posts,
		Auth:      a.Auth,
		Dashboard: a.Dashboard,
		Redirect:  a.Config,
		Flash:     scs.New(),
	})
}

// Close unsubscribes from the backend and closes everything NewApp opened.
func (a *App) Close() error {
	a.unwatch()
	errs := []error{a.Session.Close(), a.Client.Close()}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func authOptions(cfg *config.Config) auth.Options {
	return auth.Options{
		RequireConfirmation: cfg.ConfirmEmail,
		AccessTTL:           cfg.AccessTTL,
		RefreshTTL:          cfg.RefreshTTL,
	}
}

// openBackend builds the client for cfg.Backend. The returned closers are
// stores the client does not own.
func openBackend(ctx context.Context, cfg *config.Config) (backend.Client, []io.Closer, error) {
	if cfg.Backend == config.BackendLocal {
		db, err := local.Open(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return local.New(db, local.Config{Auth: authOptions(cfg), RefreshEvery: refreshEvery}), nil, nil
	}

	// Other backends keep the signed-in session in a small badger store of
	// its own so it survives restarts.
	sessionDB, err := local.Open(cfg.SessionPath())
	if err != nil {
		return nil, nil, fmt.Errorf("session store: %w", err)
	}
	sessions := local.NewSessionStore(sessionDB)
	closers := []io.Closer{sessionDB}

	var client backend.Client
	switch cfg.Backend {
	case config.BackendPostgres, config.BackendMySQL:
		client, err = openSQL(ctx, cfg, sessions)
	case config.BackendRemote:
		client = rest.New(rest.Config{
			URL:          cfg.BackendURL,
			APIKey:       cfg.APIKey,
			Sessions:     sessions,
			RefreshEvery: refreshEvery,
		})
	default:
		err = fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		sessionDB.Close()
		return nil, nil, err
	}
	return client, closers, nil
}

func openSQL(ctx context.Context, cfg *config.Config, sessions auth.SessionStore) (backend.Client, error) {
	open := sqldb.OpenPostgres
	if cfg.Backend == config.BackendMySQL {
		open = sqldb.OpenMySQL
	}
	db, err := open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.DebugSQL {
		db = db.Debug(sqldb.StdLogger{})
	}
	client, err := sqldb.Connect(ctx, db, sqldb.Config{
		Auth:         authOptions(cfg),
		Sessions:     sessions,
		RefreshEvery: refreshEvery,
		Migrate:      true,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return client, nil
}

// RunAppServer starts the dashboard API and blocks until interrupted.
func RunAppServer(args []string) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		return 1
	}
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "--addr" {
			cfg.Addr = args[i+1]
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		log.Printf("Failed to open %s backend: %v", cfg.Backend, err)
		return 1
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Starting teamboard (%s backend) on %s", cfg.Backend, cfg.Addr)
	if err := serve(ctx, srv); err != nil {
		log.Printf("Server error: %v", err)
		return 1
	}
	return 0
}

// serve runs srv until ctx is done, then shuts it down letting in-flight
// requests finish.
func serve(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
