package backend

import (
	"sync"

	"teamboard/app/models"
)

type notice struct {
	event   AuthEvent
	session *models.Session
	// listeners registered when the event was published
	ids []int
}

// Hub fans session changes out to listeners. Events are delivered in publish
// order on a single goroutine, never on the publisher's.
type Hub struct {
	mu        sync.Mutex
	listeners map[int]AuthListener
	nextID    int
	queue     chan notice
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub starts a hub with its dispatch goroutine.
func NewHub() *Hub {
	h := &Hub{
		listeners: make(map[int]AuthListener),
		queue:     make(chan notice, 64),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

// Subscribe registers fn. The returned func removes it and is safe to call
// more than once.
func (h *Hub) Subscribe(fn AuthListener) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Len returns the number of registered listeners.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Publish queues an event for the listeners registered now. Listeners that
// subscribe later never see it. It is dropped if the hub is closed.
func (h *Hub) Publish(event AuthEvent, session *models.Session) {
	select {
	case <-h.done:
		return
	default:
	}
	h.mu.Lock()
	ids := make([]int, 0, len(h.listeners))
	for id := 0; id < h.nextID; id++ {
		if _, ok := h.listeners[id]; ok {
			ids = append(ids, id)
		}
	}
	h.mu.Unlock()
	select {
	case h.queue <- notice{event: event, session: session, ids: ids}:
	case <-h.done:
	}
}

// Close stops delivery. Queued events that were not delivered are dropped.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case n := <-h.queue:
			h.mu.Lock()
			fns := make([]AuthListener, 0, len(n.ids))
			for _, id := range n.ids {
				if fn, ok := h.listeners[id]; ok {
					fns = append(fns, fn)
				}
			}
			h.mu.Unlock()
			for _, fn := range fns {
				fn(n.event, n.session)
			}
		}
	}
}
