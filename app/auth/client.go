package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"teamboard/app/backend"
	"teamboard/app/models"
)

// Client holds one user's session against a Provider and implements
// backend.Auth. Session changes are pushed through a backend.Hub.
type Client struct {
	provider Provider
	sessions SessionStore
	hub      *backend.Hub
	now      func() time.Time
	margin   time.Duration

	mu       sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClock replaces the client's time source.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// WithRefreshMargin refreshes sessions this long before they expire.
func WithRefreshMargin(d time.Duration) ClientOption {
	return func(c *Client) { c.margin = d }
}

// NewClient creates a client. A nil SessionStore keeps the session in memory.
func NewClient(p Provider, sessions SessionStore, opts ...ClientOption) *Client {
	if sessions == nil {
		sessions = &MemorySessionStore{}
	}
	c := &Client{
		provider: p,
		sessions: sessions,
		hub:      backend.NewHub(),
		now:      time.Now,
		margin:   30 * time.Second,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SignUp(ctx context.Context, p backend.SignUpParams) (*models.User, error) {
	user, sess, err := c.provider.SignUp(ctx, p)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		if err := c.store(ctx, sess); err != nil {
			return nil, err
		}
		c.hub.Publish(backend.EventSignedIn, sess)
	}
	return user, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	sess, err := c.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, sess); err != nil {
		return nil, err
	}
	c.hub.Publish(backend.EventSignedIn, sess)
	return sess, nil
}

// SignOut revokes the stored session and forgets it locally. Signing out
// without a session succeeds.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, err := c.sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess != nil {
		if err := c.provider.SignOut(ctx, sess.AccessToken); err != nil && !errors.Is(err, ErrInvalidToken) {
			return err
		}
	}
	if err := c.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.hub.Publish(backend.EventSignedOut, nil)
	return nil
}

func (c *Client) GetUser(ctx context.Context) (*models.User, error) {
	sess, err := c.Session(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	user, err := c.provider.User(ctx, sess.AccessToken)
	if errors.Is(err, ErrInvalidToken) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return nil, c.drop(ctx)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return c.provider.Recover(ctx, email, redirectTo)
}

func (c *Client) OnAuthStateChange(fn backend.AuthListener) func() {
	return c.hub.Subscribe(fn)
}

// Session returns the stored session, refreshing it first when it is about to
// expire. It returns nil, nil when there is no usable session.
func (c *Client) Session(ctx context.Context) (*models.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, err := c.sessions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil || !sess.Expired(c.now(), c.margin) {
		return sess, nil
	}
	fresh, err := c.provider.Refresh(ctx, sess.RefreshToken)
	if errors.Is(err, ErrInvalidToken) {
		return nil, c.drop(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if err := c.sessions.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	c.hub.Publish(backend.EventTokenRefreshed, fresh)
	return fresh, nil
}

// AccessToken returns the bearer token of the current session, or "" when
// signed out.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	sess, err := c.Session(ctx)
	if err != nil || sess == nil {
		return "", err
	}
	return sess.AccessToken, nil
}

// StartAutoRefresh checks the session every interval and refreshes it before
// it expires. It stops when the client is closed.
func (c *Client) StartAutoRefresh(interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				if _, err := c.Session(ctx); err != nil {
					log.Printf("auth: refresh session: %v", err)
				}
				cancel()
			}
		}
	}()
}

// Close stops auto refresh and event delivery.
func (c *Client) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
	return c.hub.Close()
}

func (c *Client) store(ctx context.Context, sess *models.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// drop forgets a session the provider no longer accepts. c.mu must be held.
func (c *Client) drop(ctx context.Context) error {
	if err := c.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.hub.Publish(backend.EventSignedOut, nil)
	return nil
}
