package repositories

import (
	"context"

	"teamboard/app/backend"
	"teamboard/app/models"
)

// BackendPostRepository implements PostRepository over backend tables.
type BackendPostRepository struct {
	table *Table[models.Post]
}

func NewPostRepository(t backend.Tables) *BackendPostRepository {
	return &BackendPostRepository{table: NewTable[models.Post](t)}
}

func (r *BackendPostRepository) List(ctx context.Context) ([]models.Post, error) {
	return r.table.Select(ctx, backend.Query{Order: newestFirst})
}

func (r *BackendPostRepository) Create(ctx context.Context, in models.PostInput) (*models.Post, error) {
	return single(r.table.Insert(ctx, []map[string]any{in.Row()}))
}

func (r *BackendPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return r.table.First(ctx, backend.Eq("id", id))
}

func (r *BackendPostRepository) SetViews(ctx context.Context, id, views int64) (*models.Post, error) {
	return single(r.table.Update(ctx, map[string]any{"views": views}, backend.Eq("id", id)))
}

func (r *BackendPostRepository) AddViews(ctx context.Context, id, by int64) (*models.Post, error) {
	return single(r.table.Increment(ctx, "views", by, backend.Eq("id", id)))
}
