package backend

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamboard/app/models"
)

type recorder struct {
	mu     sync.Mutex
	events []AuthEvent
}

func (r *recorder) listen(event AuthEvent, _ *models.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) snapshot() []AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AuthEvent(nil), r.events...)
}

func TestHubDeliversInOrder(t *testing.T) {
	h := NewHub()
	defer h.Close()

	rec := &recorder{}
	h.Subscribe(rec.listen)

	h.Publish(EventSignedIn, &models.Session{AccessToken: "a"})
	h.Publish(EventTokenRefreshed, &models.Session{AccessToken: "b"})
	h.Publish(EventSignedOut, nil)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []AuthEvent{EventSignedIn, EventTokenRefreshed, EventSignedOut}, rec.snapshot())
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub()
	defer h.Close()

	rec := &recorder{}
	unsubscribe := h.Subscribe(rec.listen)
	assert.Equal(t, 1, h.Len())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, h.Len())

	other := &recorder{}
	h.Subscribe(other.listen)
	h.Publish(EventSignedIn, nil)

	require.Eventually(t, func() bool { return len(other.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestHubSkipsEventsPublishedBeforeSubscribe(t *testing.T) {
	h := NewHub()
	defer h.Close()

	early := &recorder{}
	h.Subscribe(early.listen)
	h.Publish(EventSignedIn, &models.Session{AccessToken: "a"})

	late := &recorder{}
	h.Subscribe(late.listen)
	h.Publish(EventSignedOut, nil)

	require.Eventually(t, func() bool { return len(late.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []AuthEvent{EventSignedOut}, late.snapshot())
	require.Eventually(t, func() bool { return len(early.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []AuthEvent{EventSignedIn, EventSignedOut}, early.snapshot())
}

func TestHubPublishAfterClose(t *testing.T) {
	h := NewHub()
	rec := &recorder{}
	h.Subscribe(rec.listen)
	require.NoError(t, h.Close())

	h.Publish(EventSignedIn, nil)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Status: 409, Code: "23505", Message: "duplicate key value"}
	assert.EqualError(t, err, "duplicate key value")
	assert.EqualError(t, &Error{Status: 500}, "backend error (status 500)")
	assert.EqualError(t, Errorf("PGRST116", "no rows for id %d", 4), "no rows for id 4")
}
