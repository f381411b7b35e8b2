// Package dashboard holds the view state behind the roster and the board:
// the last fetched lists, whether they are stale, and which forms are being
// submitted.
package dashboard

import (
	"context"
	"sync"
	"time"

	"teamboard/app/models"
	"teamboard/app/services"
	"teamboard/app/session"
)

// View is a cached list. When the last fetch failed, Items still holds the
// previous result, Stale is set and Error carries the failure message.
type View[T any] struct {
	Items     []T       `json:"items"`
	Loaded    bool      `json:"loaded"`
	Stale     bool      `json:"stale"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Dashboard caches the member and post lists for one signed-in user.
type Dashboard struct {
	members *services.MemberService
	posts   *services.PostService
	now     func() time.Time

	mu         sync.Mutex
	generation uint64
	memberView View[models.Member]
	postView   View[models.Post]
}

func New(members *services.MemberService, posts *services.PostService) *Dashboard {
	d := &Dashboard{members: members, posts: posts, now: time.Now}
	d.reset()
	return d
}

func (d *Dashboard) reset() {
	d.memberView = View[models.Member]{Items: []models.Member{}}
	d.postView = View[models.Post]{Items: []models.Post{}}
}

// Members returns the cached roster.
func (d *Dashboard) Members() View[models.Member] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.memberView
}

// Posts returns the cached board.
func (d *Dashboard) Posts() View[models.Post] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.postView
}

// RefreshMembers fetches the roster and returns the resulting view.
func (d *Dashboard) RefreshMembers(ctx context.Context) View[models.Member] {
	return refresh(d, &d.memberView, func() ([]models.Member, error) {
		return d.members.List(ctx)
	})
}

// RefreshPosts fetches the board and returns the resulting view.
func (d *Dashboard) RefreshPosts(ctx context.Context) View[models.Post] {
	return refresh(d, &d.postView, func() ([]models.Post, error) {
		return d.posts.List(ctx)
	})
}

// refresh runs fetch unlocked. A result that comes back after Clear belongs
// to the previous user and is dropped.
func refresh[T any](d *Dashboard, view *View[T], fetch func() ([]T, error)) View[T] {
	d.mu.Lock()
	gen := d.generation
	d.mu.Unlock()

	items, err := fetch()

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		return *view
	}
	if err != nil {
		view.Stale = view.Loaded
		view.Error = err.Error()
		return *view
	}
	*view = View[T]{Items: items, Loaded: true, UpdatedAt: d.now()}
	return *view
}

// Clear drops every cached list.
func (d *Dashboard) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	d.reset()
}

// Watch clears the cache whenever the session becomes unauthenticated and
// returns the function that stops watching.
func (d *Dashboard) Watch(c *session.Controller) func() {
	return c.Subscribe(func(ch session.Change) {
		if ch.To == session.Unauthenticated {
			d.Clear()
		}
	})
}
