package repositories

import (
	"context"

	"teamboard/app/models"
)

// MemberRepository defines data access for the member roster.
type MemberRepository interface {
	// List returns every member, newest first.
	List(ctx context.Context) ([]models.Member, error)
	Create(ctx context.Context, in models.MemberInput) (*models.Member, error)
	// CreateMany inserts all members in one request.
	CreateMany(ctx context.Context, in []models.MemberInput) ([]models.Member, error)
	GetByID(ctx context.Context, id int64) (*models.Member, error)
}

// PostRepository defines data access for the discussion board.
type PostRepository interface {
	// List returns every post, newest first.
	List(ctx context.Context) ([]models.Post, error)
	Create(ctx context.Context, in models.PostInput) (*models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	// SetViews overwrites the view count.
	SetViews(ctx context.Context, id, views int64) (*models.Post, error)
	// AddViews increments the view count in a single backend operation. It
	// returns errors.ErrUnsupported when the backend cannot.
	AddViews(ctx context.Context, id, by int64) (*models.Post, error)
}
