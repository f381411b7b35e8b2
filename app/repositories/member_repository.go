package repositories

import (
	"context"

	"teamboard/app/backend"
	"teamboard/app/models"
)

// BackendMemberRepository implements MemberRepository over backend tables.
type BackendMemberRepository struct {
	table *Table[models.Member]
}

func NewMemberRepository(t backend.Tables) *BackendMemberRepository {
	return &BackendMemberRepository{table: NewTable[models.Member](t)}
}

func (r *BackendMemberRepository) List(ctx context.Context) ([]models.Member, error) {
	return r.table.Select(ctx, backend.Query{Order: newestFirst})
}

func (r *BackendMemberRepository) Create(ctx context.Context, in models.MemberInput) (*models.Member, error) {
	return single(r.table.Insert(ctx, []map[string]any{in.Row()}))
}

func (r *BackendMemberRepository) CreateMany(ctx context.Context, in []models.MemberInput) ([]models.Member, error) {
	rows := make([]map[string]any, len(in))
	for i, m := range in {
		rows[i] = m.Row()
	}
	return r.table.Insert(ctx, rows)
}

func (r *BackendMemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	return r.table.First(ctx, backend.Eq("id", id))
}

// Rows inserted together can share a created_at; id breaks the tie.
var newestFirst = []backend.Order{
	{Column: "created_at", Ascending: false},
	{Column: "id", Ascending: false},
}
