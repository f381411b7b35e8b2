package dashboard

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when the same form is submitted again before the
// first submission finished.
var ErrInFlight = errors.New("this form is already being submitted")

// Guard lets one submission per form key run at a time.
type Guard struct {
	mu   sync.Mutex
	busy map[string]bool
}

func NewGuard() *Guard {
	return &Guard{busy: make(map[string]bool)}
}

// Do runs fn unless a submission for key is in flight, in which case it
// returns ErrInFlight without running fn.
func (g *Guard) Do(key string, fn func() error) error {
	g.mu.Lock()
	if g.busy[key] {
		g.mu.Unlock()
		return ErrInFlight
	}
	g.busy[key] = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.busy, key)
		g.mu.Unlock()
	}()
	return fn()
}

// Busy reports whether a submission for key is in flight.
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy[key]
}
