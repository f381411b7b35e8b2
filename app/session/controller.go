// Package session tracks who is signed in. A Controller starts Unknown,
// settles on Authenticated or Unauthenticated once the startup check or a
// pushed auth event decides, and follows every later change.
package session

import (
	"context"
	"log"
	"sync"

	"teamboard/app/backend"
	"teamboard/app/models"
)

// State of the session.
type State int

const (
	Unknown State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Authenticator is the part of the auth service the controller drives.
// *services.AuthService satisfies it.
type Authenticator interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	SignIn(ctx context.Context, in models.SignInInput) (*models.Session, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(fn backend.AuthListener) func()
}

// Change is delivered to listeners whenever the state or the principal
// changes. Cached member and post data must be dropped when To is
// Unauthenticated.
type Change struct {
	From State
	To   State
	User *models.User
}

// Listener observes session changes. It runs with the controller unlocked,
// so it may read State. Changes reach listeners one at a time in the order
// they happened; a change made while listeners are running is delivered
// after they return, by the same goroutine.
type Listener func(Change)

// Controller is the single source of truth for the signed-in principal.
type Controller struct {
	auth Authenticator

	mu          sync.Mutex
	state       State
	user        *models.User
	listeners   map[int]Listener
	nextID      int
	unsubscribe func()
	closed      bool

	// changes waiting for delivery, in the order they happened
	pending    []delivery
	delivering bool
}

type delivery struct {
	change Change
	fns    []Listener
}

// New returns a controller in the Unknown state. Call Start to subscribe
// and restore a previous session.
func New(a Authenticator) *Controller {
	return &Controller{
		auth:      a,
		listeners: make(map[int]Listener),
	}
}

// Start subscribes to pushed auth events and asks the backend for a stored
// session. The startup answer is applied only while the state is still
// Unknown; an event that arrived first wins.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.unsubscribe == nil {
		c.unsubscribe = c.auth.OnAuthStateChange(c.handleEvent)
	}
	c.mu.Unlock()

	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		log.Printf("session: startup check failed: %v", err)
		c.settle(nil)
		return err
	}
	c.settle(user)
	return nil
}

// settle applies the startup result unless something already decided.
func (c *Controller) settle(user *models.User) {
	c.mu.Lock()
	if c.closed || c.state != Unknown {
		c.mu.Unlock()
		return
	}
	c.set(user)
}

func (c *Controller) handleEvent(event backend.AuthEvent, s *models.Session) {
	var user *models.User
	if s != nil {
		user = s.User
	}
	c.apply(user)
}

// apply moves to Authenticated(user), or Unauthenticated when user is nil.
func (c *Controller) apply(user *models.User) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.set(user)
}

// set updates the state and notifies listeners if anything changed. It is
// called with mu held and releases it.
func (c *Controller) set(user *models.User) {
	from := c.state
	to := Unauthenticated
	if user != nil {
		to = Authenticated
	}
	changed := from != to || !samePrincipal(c.user, user)
	c.state = to
	c.user = user
	if !changed {
		c.mu.Unlock()
		return
	}

	c.pending = append(c.pending, delivery{
		change: Change{From: from, To: to, User: user},
		fns:    c.snapshot(),
	})
	if c.delivering {
		// the goroutine already delivering picks this one up next
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for len(c.pending) > 0 {
		d := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()
		for _, fn := range d.fns {
			fn(d.change)
		}
		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

func (c *Controller) snapshot() []Listener {
	fns := make([]Listener, 0, len(c.listeners))
	for id := 0; id < c.nextID; id++ {
		if fn, ok := c.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

func samePrincipal(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Email == b.Email && a.UserMetadata == b.UserMetadata
}

// SignIn signs in and applies the response without waiting for the pushed
// event. Both lead to the same state whichever lands first.
func (c *Controller) SignIn(ctx context.Context, in models.SignInInput) (*models.User, error) {
	s, err := c.auth.SignIn(ctx, in)
	if err != nil {
		return nil, err
	}
	c.apply(s.User)
	return s.User, nil
}

// SignOut ends the session. On success the state is Unauthenticated and
// listeners are told to drop cached data. On failure nothing changes.
func (c *Controller) SignOut(ctx context.Context) error {
	if err := c.auth.SignOut(ctx); err != nil {
		return err
	}
	c.apply(nil)
	return nil
}

// State returns the current state and principal.
func (c *Controller) State() (State, *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.user
}

// User returns the signed-in principal or nil.
func (c *Controller) User() *models.User {
	_, u := c.State()
	return u
}

// Subscribe registers fn and returns the function that removes it.
func (c *Controller) Subscribe(fn Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// Close unsubscribes from the backend. Events and startup results that
// arrive afterwards are ignored.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.listeners = make(map[int]Listener)
	c.pending = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	return nil
}
