package services

import (
	"context"
	"errors"

	"teamboard/app/models"
	"teamboard/app/repositories"
)

// PostService handles the discussion board.
type PostService struct {
	repo   repositories.PostRepository
	atomic bool
}

// PostOption configures a PostService.
type PostOption func(*PostService)

// WithAtomicViews makes IncrementViews use the backend's single-statement
// increment when the backend has one.
func WithAtomicViews(enabled bool) PostOption {
	return func(s *PostService) { s.atomic = enabled }
}

// NewPostService creates a new PostService
func NewPostService(repo repositories.PostRepository, opts ...PostOption) *PostService {
	s := &PostService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all posts, newest first.
func (s *PostService) List(ctx context.Context) (posts []models.Post, err error) {
	defer func() {
		if err != nil {
			posts = []models.Post{}
		}
	}()
	defer recoverTo("list posts", &err)

	posts, err = s.repo.List(ctx)
	if err != nil {
		return nil, fail("list posts", err)
	}
	return posts, nil
}

// ListByAuthor returns the posts whose author matches u's display name.
func (s *PostService) ListByAuthor(ctx context.Context, u *models.User) ([]models.Post, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return posts, err
	}
	return models.FilterByAuthor(posts, u), nil
}

// Add validates and inserts a post. Its view count always starts at zero.
func (s *PostService) Add(ctx context.Context, in models.PostInput) (post *models.Post, err error) {
	defer recoverTo("add post", &err)

	if err := in.Validate(); err != nil {
		return nil, fail("add post", err)
	}
	post, err = s.repo.Create(ctx, in)
	if err != nil {
		return nil, fail("add post", err)
	}
	return post, nil
}

// Get returns one post without counting a view.
func (s *PostService) Get(ctx context.Context, id int64) (post *models.Post, err error) {
	defer recoverTo("get post", &err)

	post, err = s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &Error{Op: "get post", Message: "post not found", Err: err}
	}
	if err != nil {
		return nil, fail("get post", err)
	}
	return post, nil
}

// IncrementViews counts one view and returns the updated post.
//
// By default the count is read and then written back as count+1. Two
// concurrent calls can both read the same count, so one view is lost. With
// WithAtomicViews and a backend that supports it, the increment is a single
// backend operation instead.
func (s *PostService) IncrementViews(ctx context.Context, id int64) (post *models.Post, err error) {
	defer recoverTo("increment views", &err)

	if s.atomic {
		post, err = s.repo.AddViews(ctx, id, 1)
		switch {
		case err == nil:
			return post, nil
		case errors.Is(err, repositories.ErrNotFound):
			return nil, &Error{Op: "increment views", Message: "post not found", Err: err}
		case !errors.Is(err, errors.ErrUnsupported):
			return nil, fail("increment views", err)
		}
	}

	current, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &Error{Op: "increment views", Message: "post not found", Err: err}
	}
	if err != nil {
		return nil, fail("increment views", err)
	}
	post, err = s.repo.SetViews(ctx, id, current.Views+1)
	if err != nil {
		return nil, fail("increment views", err)
	}
	return post, nil
}
