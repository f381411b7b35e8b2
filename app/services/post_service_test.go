package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamboard/app/backend"
	backendmock "teamboard/app/backend/mock"
	"teamboard/app/models"
	"teamboard/app/repositories"
)

func setupPosts(t *testing.T, opts ...PostOption) (*PostService, *backendmock.Client) {
	t.Helper()
	be := backendmock.New()
	t.Cleanup(func() { be.Close() })
	return NewPostService(repositories.NewPostRepository(be), opts...), be
}

func newPost(title string) models.PostInput {
	return models.PostInput{Title: title, Content: "body", Author: "Kim"}
}

func TestPostService(t *testing.T) {
	ctx := context.Background()
	svc, be := setupPosts(t)

	t.Run("empty board", func(t *testing.T) {
		posts, err := svc.List(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("new post starts at zero views", func(t *testing.T) {
		p, err := svc.Add(ctx, newPost("hello"))
		require.NoError(t, err)
		assert.Equal(t, int64(0), p.Views)
		assert.Equal(t, "hello", p.Title)

		posts, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, p.ID, posts[0].ID)
	})

	t.Run("newest first", func(t *testing.T) {
		second, err := svc.Add(ctx, newPost("second"))
		require.NoError(t, err)
		posts, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, second.ID, posts[0].ID)
		assert.Equal(t, "hello", posts[1].Title)
	})

	t.Run("increment views", func(t *testing.T) {
		p, err := svc.IncrementViews(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.Views)

		p, err = svc.IncrementViews(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), p.Views)

		got, err := svc.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Views)
		assert.Equal(t, 0, be.Calls(backendmock.OpIncrement))
	})

	t.Run("missing post", func(t *testing.T) {
		p, err := svc.IncrementViews(ctx, 99)
		assert.Nil(t, p)
		assert.EqualError(t, err, "post not found")

		p, err = svc.Get(ctx, 99)
		assert.Nil(t, p)
		assert.EqualError(t, err, "post not found")
	})

	t.Run("list by author", func(t *testing.T) {
		_, err := svc.Add(ctx, models.PostInput{Title: "other", Content: "x", Author: "Lee"})
		require.NoError(t, err)
		u := &models.User{Email: "kim@example.com", UserMetadata: models.UserMetadata{Name: "kim"}}
		mine, err := svc.ListByAuthor(ctx, u)
		require.NoError(t, err)
		assert.Len(t, mine, 2)
		for _, p := range mine {
			assert.Equal(t, "Kim", p.Author)
		}
	})
}

func TestPostServiceValidation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		input   models.PostInput
		message string
	}{
		{"missing title", models.PostInput{Content: "x", Author: "Kim"}, "title is required"},
		{"blank content", models.PostInput{Title: "t", Content: " \n ", Author: "Kim"}, "content is required"},
		{"missing author", models.PostInput{Title: "t", Content: "x"}, "author is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, be := setupPosts(t)
			p, err := svc.Add(ctx, tt.input)
			assert.Nil(t, p)
			assert.EqualError(t, err, tt.message)
			assert.Equal(t, 0, be.TotalCalls())
		})
	}
}

// Both increments read the same count before either writes it back, so one
// view is lost.
func TestIncrementViewsRace(t *testing.T) {
	ctx := context.Background()
	svc, be := setupPosts(t)
	p, err := svc.Add(ctx, newPost("race"))
	require.NoError(t, err)

	var selects atomic.Int32
	var readers sync.WaitGroup
	readers.Add(2)
	be.AfterSelect = func(table string) {
		if table == "posts" && selects.Add(1) <= 2 {
			readers.Done()
			readers.Wait()
		}
	}

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IncrementViews(ctx, p.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
	assert.Equal(t, 2, be.Calls(backendmock.OpUpdate))
}

func TestIncrementViewsAtomic(t *testing.T) {
	ctx := context.Background()
	be := backendmock.NewAtomic()
	t.Cleanup(func() { be.Close() })
	svc := NewPostService(repositories.NewPostRepository(be), WithAtomicViews(true))

	p, err := svc.Add(ctx, newPost("atomic"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IncrementViews(ctx, p.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Views)
	assert.Equal(t, 10, be.Calls(backendmock.OpIncrement))
	assert.Equal(t, 0, be.Calls(backendmock.OpUpdate))

	_, err = svc.IncrementViews(ctx, 404)
	assert.EqualError(t, err, "post not found")
}

func TestIncrementViewsAtomicFallback(t *testing.T) {
	ctx := context.Background()
	svc, be := setupPosts(t, WithAtomicViews(true))
	p, err := svc.Add(ctx, newPost("fallback"))
	require.NoError(t, err)

	got, err := svc.IncrementViews(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
	assert.Equal(t, 1, be.Calls(backendmock.OpUpdate))
}

func TestPostServiceFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("list keeps neutral default", func(t *testing.T) {
		svc, be := setupPosts(t)
		be.FailNext(backendmock.OpSelect, &backend.Error{Status: 401, Message: "JWT expired"})
		posts, err := svc.List(ctx)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
		assert.EqualError(t, err, "JWT expired")
	})

	t.Run("update failure", func(t *testing.T) {
		svc, be := setupPosts(t)
		p, err := svc.Add(ctx, newPost("x"))
		require.NoError(t, err)
		be.FailNext(backendmock.OpUpdate, &backend.Error{Code: "23514", Message: `new row for relation "posts" violates check constraint "posts_views_check"`})
		got, err := svc.IncrementViews(ctx, p.ID)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "posts_views_check")
	})

	t.Run("panic in add", func(t *testing.T) {
		svc, be := setupPosts(t)
		be.PanicNext(backendmock.OpInsert, "boom")
		p, err := svc.Add(ctx, newPost("x"))
		assert.Nil(t, p)
		assert.EqualError(t, err, UnexpectedMessage)
	})

	t.Run("panic in list", func(t *testing.T) {
		svc, be := setupPosts(t)
		be.PanicNext(backendmock.OpSelect, "boom")
		posts, err := svc.List(ctx)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
		assert.EqualError(t, err, UnexpectedMessage)
	})
}
