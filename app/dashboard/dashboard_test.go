package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backendmock "teamboard/app/backend/mock"
	"teamboard/app/models"
	"teamboard/app/repositories"
	"teamboard/app/services"
	"teamboard/app/session"
)

func setupDashboard(t *testing.T) (*Dashboard, *backendmock.Client) {
	t.Helper()
	be := backendmock.New()
	t.Cleanup(func() { be.Close() })
	d := New(
		services.NewMemberService(repositories.NewMemberRepository(be)),
		services.NewPostService(repositories.NewPostRepository(be)),
	)
	d.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return d, be
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	d, be := setupDashboard(t)

	v := d.Members()
	assert.False(t, v.Loaded)
	assert.NotNil(t, v.Items)

	v = d.RefreshMembers(ctx)
	assert.True(t, v.Loaded)
	assert.Empty(t, v.Items)
	assert.Empty(t, v.Error)

	_, err := services.NewMemberService(repositories.NewMemberRepository(be)).AddMany(ctx, services.SeedMembers())
	require.NoError(t, err)
	v = d.RefreshMembers(ctx)
	assert.Len(t, v.Items, 4)
	assert.Equal(t, "양성수", v.Items[0].Name)
	assert.Equal(t, v, d.Members())

	p := d.RefreshPosts(ctx)
	assert.True(t, p.Loaded)
	assert.Empty(t, p.Items)
}

func TestRefreshFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("first load failure is not stale", func(t *testing.T) {
		d, be := setupDashboard(t)
		be.FailNext(backendmock.OpSelect, errors.New("offline"))
		v := d.RefreshPosts(ctx)
		assert.False(t, v.Loaded)
		assert.False(t, v.Stale)
		assert.Equal(t, "offline", v.Error)
		assert.Empty(t, v.Items)
	})

	t.Run("later failure keeps items marked stale", func(t *testing.T) {
		d, be := setupDashboard(t)
		posts := services.NewPostService(repositories.NewPostRepository(be))
		_, err := posts.Add(ctx, models.PostInput{Title: "t", Content: "c", Author: "a"})
		require.NoError(t, err)
		require.Len(t, d.RefreshPosts(ctx).Items, 1)

		be.FailNext(backendmock.OpSelect, errors.New("offline"))
		v := d.RefreshPosts(ctx)
		assert.True(t, v.Stale)
		assert.Equal(t, "offline", v.Error)
		assert.Len(t, v.Items, 1)

		v = d.RefreshPosts(ctx)
		assert.False(t, v.Stale)
		assert.Empty(t, v.Error)
	})
}

func TestClearDropsLateResults(t *testing.T) {
	ctx := context.Background()
	d, be := setupDashboard(t)
	_, err := services.NewMemberService(repositories.NewMemberRepository(be)).AddMany(ctx, services.SeedMembers())
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	be.AfterSelect = func(string) {
		close(started)
		<-release
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.RefreshMembers(ctx)
	}()
	<-started
	d.Clear()
	close(release)
	wg.Wait()

	v := d.Members()
	assert.False(t, v.Loaded)
	assert.Empty(t, v.Items)
}

func TestWatchClearsOnSignOut(t *testing.T) {
	ctx := context.Background()
	d, be := setupDashboard(t)
	be.AddUser("kim@example.com", "secret1", "Kim")
	ctrl := session.New(services.NewAuthService(be))
	defer ctrl.Close()
	require.NoError(t, ctrl.Start(ctx))
	stop := d.Watch(ctrl)
	defer stop()

	_, err := ctrl.SignIn(ctx, models.SignInInput{Email: "kim@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.True(t, d.RefreshMembers(ctx).Loaded)

	require.NoError(t, ctrl.SignOut(ctx))
	assert.False(t, d.Members().Loaded)
}

func TestGuard(t *testing.T) {
	g := NewGuard()
	inside := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := g.Do("add-member", func() error {
			close(inside)
			<-release
			return nil
		})
		assert.NoError(t, err)
	}()
	<-inside

	assert.True(t, g.Busy("add-member"))
	assert.ErrorIs(t, g.Do("add-member", func() error { return nil }), ErrInFlight)
	assert.NoError(t, g.Do("add-post", func() error { return nil }), "other forms are independent")

	close(release)
	wg.Wait()
	assert.False(t, g.Busy("add-member"))

	boom := errors.New("boom")
	assert.ErrorIs(t, g.Do("add-member", func() error { return boom }), boom)
	assert.False(t, g.Busy("add-member"))
}
